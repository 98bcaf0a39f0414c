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

package types

import (
	"strconv"
	"strings"
)

// Storage modules. Every protocol key starts with one of these.
const (
	ModuleCore     = "core"
	ModuleParams   = "params"
	ModuleGov      = "gov"
	ModuleMultisig = "ms"
	ModuleUpgrade  = "upgrade"
	ModuleRecovery = "recovery"
)

const keySeparator = ':'

var keyComponentEscaper = strings.NewReplacer(
	"%", "%25",
	":", "%3A",
)

// MakeKey returns the storage key for a (module, entity, identifier) triple
// in the form <module>:<entity>[:<identifier>].
//
// The module and entity components are escaped so that they never contain a
// raw separator, which makes the first two separators structural and the
// mapping injective. The identifier is appended verbatim. A nil identifier
// yields the two part form, while an empty non-nil identifier yields a
// trailing separator, so the two remain distinct.
func MakeKey(module, entity string, id []byte) []byte {
	escModule := keyComponentEscaper.Replace(module)
	escEntity := keyComponentEscaper.Replace(entity)
	size := len(escModule) + 1 + len(escEntity)
	if id != nil {
		size += 1 + len(id)
	}
	key := make([]byte, 0, size)
	key = append(key, escModule...)
	key = append(key, keySeparator)
	key = append(key, escEntity...)
	if id != nil {
		key = append(key, keySeparator)
		key = append(key, id...)
	}
	return key
}

// KeyPrefix returns the prefix shared by all keys of an entity that carry an
// identifier
func KeyPrefix(module, entity string) []byte {
	return MakeKey(module, entity, []byte{})
}

// ID builds a composite identifier from several parts. Each part is escaped
// the same way as key components, so distinct part lists give distinct
// identifiers.
func ID(parts ...string) []byte {
	var sb strings.Builder
	for i, part := range parts {
		if i > 0 {
			sb.WriteByte(keySeparator)
		}
		sb.WriteString(keyComponentEscaper.Replace(part))
	}
	return []byte(sb.String())
}

// Uint64ID formats a numeric identifier
func Uint64ID(n uint64) []byte {
	return strconv.AppendUint(nil, n, 10)
}
