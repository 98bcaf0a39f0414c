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

package common

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
)

// MaxAddressLength bounds the length of an address string
const MaxAddressLength = 128

// Address identifies an account or contract. The host authenticates callers,
// so an Address here is only ever compared, stored and used as a key
// identifier.
type Address string

func (a Address) String() string {
	return string(a)
}

// Validate checks that the address is usable as a key identifier
func (a Address) Validate() error {
	if a == "" {
		return fmt.Errorf("%w: empty address", ErrInvalidAddress)
	}
	if len(a) > MaxAddressLength {
		return fmt.Errorf(
			"%w: address length %d exceeds %d",
			ErrInvalidAddress,
			len(a),
			MaxAddressLength,
		)
	}
	for _, r := range string(a) {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf(
				"%w: address %q contains whitespace or control characters",
				ErrInvalidAddress,
				string(a),
			)
		}
	}
	return nil
}

// ParseAddress trims and validates an address string
func ParseAddress(s string) (Address, error) {
	addr := Address(strings.TrimSpace(s))
	if err := addr.Validate(); err != nil {
		return "", err
	}
	return addr, nil
}

// ParseAddressList parses a comma separated list of addresses
func ParseAddressList(s string) ([]Address, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ret := make([]Address, 0, len(parts))
	for _, part := range parts {
		addr, err := ParseAddress(part)
		if err != nil {
			return nil, err
		}
		ret = append(ret, addr)
	}
	return ret, nil
}

// ContainsAddress reports whether addr is a member of set
func ContainsAddress(set []Address, addr Address) bool {
	return slices.Contains(set, addr)
}

// ValidateAddressSet checks that the set is non-empty, that every member is a
// valid address and that there are no duplicates
func ValidateAddressSet(set []Address) error {
	if len(set) == 0 {
		return fmt.Errorf("%w: empty address set", ErrInvalidConfiguration)
	}
	seen := make(map[Address]struct{}, len(set))
	for _, addr := range set {
		if err := addr.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
		}
		if _, ok := seen[addr]; ok {
			return fmt.Errorf(
				"%w: duplicate address %s",
				ErrInvalidConfiguration,
				addr,
			)
		}
		seen[addr] = struct{}{}
	}
	return nil
}
