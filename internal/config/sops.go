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
	"github.com/getsops/sops/v3/decrypt"
	"gopkg.in/yaml.v3"
)

// decryptIfNeeded returns the plaintext of a SOPS encrypted YAML document.
// Documents without a top-level sops key are returned unchanged.
func decryptIfNeeded(buf []byte) ([]byte, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(buf, &doc); err != nil {
		// Let the caller report the parse error
		return buf, nil //nolint:nilerr
	}
	if _, ok := doc["sops"]; !ok {
		return buf, nil
	}
	return decrypt.Data(buf, "yaml")
}
