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
	"errors"
	"fmt"

	"github.com/blinklabs-io/gouroboros/cbor"
)

// EncodeValue serializes a stored entity as CBOR
func EncodeValue(v any) ([]byte, error) {
	data, err := cbor.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	return data, nil
}

// DecodeValue deserializes a stored entity
func DecodeValue(data []byte, dest any) error {
	if _, err := cbor.Decode(data, dest); err != nil {
		return fmt.Errorf("decode value: %w", err)
	}
	return nil
}

// GetValue loads and decodes the value at key. The boolean result is false
// when the key does not exist.
func GetValue[T any](kv KV, key []byte) (T, bool, error) {
	var ret T
	data, err := kv.Get(key)
	if err != nil {
		if errors.Is(err, ErrBlobKeyNotFound) {
			return ret, false, nil
		}
		return ret, false, err
	}
	if err := DecodeValue(data, &ret); err != nil {
		return ret, false, fmt.Errorf("key %q: %w", key, err)
	}
	return ret, true, nil
}

// SetValue encodes and stores v at key
func SetValue(kv KV, key []byte, v any) error {
	data, err := EncodeValue(v)
	if err != nil {
		return fmt.Errorf("key %q: %w", key, err)
	}
	return kv.Set(key, data)
}

// NextCounter increments the counter stored at key and returns the new
// value. Counters start at zero, so the first value returned is 1.
func NextCounter(kv KV, key []byte) (uint64, error) {
	cur, _, err := GetValue[uint64](kv, key)
	if err != nil {
		return 0, err
	}
	if cur == ^uint64(0) {
		return 0, fmt.Errorf("counter %q overflow", key)
	}
	next := cur + 1
	if err := SetValue(kv, key, next); err != nil {
		return 0, err
	}
	return next, nil
}
