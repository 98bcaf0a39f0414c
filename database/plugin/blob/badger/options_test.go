// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package badger

import (
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestOptions(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	b := &BlobStoreBadger{}
	for _, opt := range []BlobStoreBadgerOptionFunc{
		WithDataDir("/tmp/test"),
		WithBlockCacheSize(123456789),
		WithIndexCacheSize(987654321),
		WithLogger(logger),
		WithPromRegistry(reg),
		WithGc(true),
		WithValueLogFileSize(1 << 20),
		WithMemTableSize(1 << 21),
		WithValueThreshold(512),
	} {
		opt(b)
	}
	assert.Equal(t, "/tmp/test", b.dataDir)
	assert.Equal(t, uint64(123456789), b.blockCacheSize)
	assert.Equal(t, uint64(987654321), b.indexCacheSize)
	assert.Same(t, logger, b.logger)
	assert.Equal(t, prometheus.Registerer(reg), b.promRegistry)
	assert.True(t, b.gcEnabled)
	assert.Equal(t, int64(1<<20), b.valueLogFileSize)
	assert.Equal(t, int64(1<<21), b.memTableSize)
	assert.Equal(t, int64(512), b.valueThreshold)
}
