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

package testutil

import (
	"maps"
	"slices"
	"strings"

	"github.com/blinklabs-io/lendgov/database/types"
)

// MemKV is a map backed types.KV for engine unit tests
type MemKV struct {
	data map[string][]byte
}

func NewMemKV() *MemKV {
	return &MemKV{data: make(map[string][]byte)}
}

func (m *MemKV) Get(key []byte) ([]byte, error) {
	val, ok := m.data[string(key)]
	if !ok {
		return nil, types.ErrBlobKeyNotFound
	}
	return slices.Clone(val), nil
}

func (m *MemKV) Set(key, val []byte) error {
	m.data[string(key)] = slices.Clone(val)
	return nil
}

func (m *MemKV) Has(key []byte) (bool, error) {
	_, ok := m.data[string(key)]
	return ok, nil
}

func (m *MemKV) Delete(key []byte) error {
	delete(m.data, string(key))
	return nil
}

// Keys returns all stored keys in sorted order
func (m *MemKV) Keys() []string {
	return slices.Sorted(maps.Keys(m.data))
}

// KeysWithPrefix returns the stored keys starting with prefix in sorted order
func (m *MemKV) KeysWithPrefix(prefix string) []string {
	var ret []string
	for _, k := range m.Keys() {
		if strings.HasPrefix(k, prefix) {
			ret = append(ret, k)
		}
	}
	return ret
}

// Snapshot returns a copy of the current contents
func (m *MemKV) Snapshot() map[string][]byte {
	ret := make(map[string][]byte, len(m.data))
	for k, v := range m.data {
		ret[k] = slices.Clone(v)
	}
	return ret
}
