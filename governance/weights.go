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

package governance

import (
	"fmt"

	"github.com/blinklabs-io/lendgov/common"
	"github.com/blinklabs-io/lendgov/database/types"
)

// WeightSource supplies the voting weight of each account and the total
// eligible weight used for quorum
type WeightSource interface {
	WeightOf(addr common.Address) (uint64, error)
	TotalWeight() (uint64, error)
}

// StoredWeights keeps voting weights in the governance keyspace. The total
// is maintained on every update.
type StoredWeights struct {
	kv types.KV
}

func NewStoredWeights(kv types.KV) *StoredWeights {
	return &StoredWeights{kv: kv}
}

func (s *StoredWeights) WeightOf(addr common.Address) (uint64, error) {
	ret, _, err := types.GetValue[uint64](s.kv, addrKey("weight", addr))
	return ret, err
}

func (s *StoredWeights) TotalWeight() (uint64, error) {
	ret, _, err := types.GetValue[uint64](s.kv, keyTotalWeight)
	return ret, err
}

func (s *StoredWeights) SetWeight(addr common.Address, weight uint64) error {
	if err := addr.Validate(); err != nil {
		return err
	}
	prev, err := s.WeightOf(addr)
	if err != nil {
		return err
	}
	total, err := s.TotalWeight()
	if err != nil {
		return err
	}
	total -= prev
	if total > ^uint64(0)-weight {
		return fmt.Errorf(
			"%w: total voting weight overflow",
			common.ErrInvalidConfiguration,
		)
	}
	total += weight
	if weight == 0 {
		if err := s.kv.Delete(addrKey("weight", addr)); err != nil {
			return err
		}
	} else if err := types.SetValue(s.kv, addrKey("weight", addr), weight); err != nil {
		return err
	}
	return types.SetValue(s.kv, keyTotalWeight, total)
}
