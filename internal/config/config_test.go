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

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/blinklabs-io/lendgov/governance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetGlobalConfig() {
	globalConfig = DefaultConfig()
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile := filepath.Join(t.TempDir(), "lendgov.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0o600))
	return tmpFile
}

func TestLoadWithoutConfigFileUsesDefaults(t *testing.T) {
	resetGlobalConfig()
	t.Setenv("HOME", t.TempDir())
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	gov, err := cfg.Governance()
	require.NoError(t, err)
	assert.Equal(t, governance.DefaultConfig(), gov)
}

func TestLoadCompareFullStruct(t *testing.T) {
	resetGlobalConfig()
	tmpFile := writeConfig(t, `
databasePath: "/var/lib/lendgov"
initialVersion: "2.1.0"
proposalPolicy: "allowlist"
quorumBps: 2500
govTimelock: 3600
minVotingPeriod: 120
maxVotingPeriod: 86400
executionWindow: 7200
maxDelegationHops: 3
upgradeTimelock: 600
recoveryDelay: 1200
recoveryWindow: 300
tracing: true
`)
	expected := DefaultConfig()
	expected.DatabasePath = "/var/lib/lendgov"
	expected.InitialVersion = "2.1.0"
	expected.ProposalPolicy = "allowlist"
	expected.QuorumBps = 2500
	expected.GovTimelock = 3600
	expected.MinVotingPeriod = 120
	expected.MaxVotingPeriod = 86400
	expected.ExecutionWindow = 7200
	expected.MaxDelegationHops = 3
	expected.UpgradeTimelock = 600
	expected.RecoveryDelay = 1200
	expected.RecoveryWindow = 300
	expected.Tracing = true

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	assert.Equal(t, expected, cfg)
	gov, err := cfg.Governance()
	require.NoError(t, err)
	assert.Equal(t, governance.PolicyAllowlist, gov.Policy)
}

func TestLoadConfigSection(t *testing.T) {
	resetGlobalConfig()
	tmpFile := writeConfig(t, `
config:
  quorumBps: 5000
database:
  blob:
    plugin: badger
`)
	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	assert.Equal(t, uint64(5000), cfg.QuorumBps)
	assert.Equal(t, "badger", cfg.BlobPlugin)
}

func TestLoadEnvOverrides(t *testing.T) {
	resetGlobalConfig()
	tmpFile := writeConfig(t, "quorumBps: 2000\n")
	t.Setenv("LENDGOV_QUORUM_BPS", "3000")
	t.Setenv("LENDGOV_DATABASE_PATH", "/tmp/lendgov-env")
	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	assert.Equal(t, uint64(3000), cfg.QuorumBps)
	assert.Equal(t, "/tmp/lendgov-env", cfg.DatabasePath)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "quorum", content: "quorumBps: 20000\n"},
		{name: "policy", content: "proposalPolicy: closed\n"},
		{name: "voting period", content: "minVotingPeriod: 100\nmaxVotingPeriod: 10\n"},
		{name: "version", content: "initialVersion: \"\"\n"},
		{name: "yaml", content: "quorumBps: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetGlobalConfig()
			_, err := LoadConfig(writeConfig(t, tt.content))
			require.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	resetGlobalConfig()
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestSopsDocumentIsDecrypted(t *testing.T) {
	resetGlobalConfig()
	// Without usable key material decryption fails rather than parsing the
	// encrypted values as plaintext
	tmpFile := writeConfig(t, `
quorumBps: ENC[AES256_GCM,data:AAAA,iv:AAAA,tag:AAAA,type:int]
sops:
  version: 3.11.0
`)
	_, err := LoadConfig(tmpFile)
	require.ErrorContains(t, err, "decrypting")

	plain, err := decryptIfNeeded([]byte("quorumBps: 1\n"))
	require.NoError(t, err)
	assert.Equal(t, "quorumBps: 1\n", string(plain))
}

func TestContext(t *testing.T) {
	cfg := DefaultConfig()
	ctx := WithContext(context.Background(), cfg)
	assert.Same(t, cfg, FromContext(ctx))
	assert.Nil(t, FromContext(context.Background()))
}
