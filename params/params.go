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

// Package params holds the protocol parameters that the control plane
// governs and that the lending modules read.
package params

import (
	"fmt"

	"github.com/blinklabs-io/lendgov/common"
	"github.com/blinklabs-io/lendgov/database/types"
)

const (
	DefaultMinCollateralRatioBps uint64 = 15_000
	DefaultFlashLoanFeeBps       uint64 = 9
)

var (
	keyMinRatio    = types.MakeKey(types.ModuleParams, "min_ratio", nil)
	keyFlashFeeBps = types.MakeKey(types.ModuleParams, "flash_fee_bps", nil)
	keyOracle      = types.MakeKey(types.ModuleParams, "oracle", nil)
	keyPaused      = types.MakeKey(types.ModuleParams, "paused", nil)
)

// Name identifies a single parameter in change notifications
type Name string

const (
	NameMinCollateralRatio Name = "min_collateral_ratio"
	NameFlashLoanFee       Name = "flash_loan_fee_bps"
	NameOracle             Name = "oracle"
	NamePaused             Name = "paused"
)

type Params struct {
	MinCollateralRatioBps uint64         `json:"minCollateralRatioBps"`
	FlashLoanFeeBps       uint64         `json:"flashLoanFeeBps"`
	Oracle                common.Address `json:"oracle,omitempty"`
	Paused                bool           `json:"paused"`
}

func Defaults() Params {
	return Params{
		MinCollateralRatioBps: DefaultMinCollateralRatioBps,
		FlashLoanFeeBps:       DefaultFlashLoanFeeBps,
	}
}

// Init writes the full parameter set. It is called once from initialize.
func Init(kv types.KV, p Params) error {
	if err := types.SetValue(kv, keyMinRatio, p.MinCollateralRatioBps); err != nil {
		return err
	}
	if err := types.SetValue(kv, keyFlashFeeBps, p.FlashLoanFeeBps); err != nil {
		return err
	}
	if err := types.SetValue(kv, keyOracle, string(p.Oracle)); err != nil {
		return err
	}
	return types.SetValue(kv, keyPaused, p.Paused)
}

func Load(kv types.KV) (Params, error) {
	var ret Params
	var err error
	if ret.MinCollateralRatioBps, err = MinCollateralRatio(kv); err != nil {
		return Params{}, err
	}
	if ret.FlashLoanFeeBps, err = FlashLoanFeeBps(kv); err != nil {
		return Params{}, err
	}
	if ret.Oracle, err = Oracle(kv); err != nil {
		return Params{}, err
	}
	if ret.Paused, err = Paused(kv); err != nil {
		return Params{}, err
	}
	return ret, nil
}

func MinCollateralRatio(kv types.KV) (uint64, error) {
	return get[uint64](kv, keyMinRatio)
}

func FlashLoanFeeBps(kv types.KV) (uint64, error) {
	return get[uint64](kv, keyFlashFeeBps)
}

func Oracle(kv types.KV) (common.Address, error) {
	v, err := get[string](kv, keyOracle)
	return common.Address(v), err
}

func Paused(kv types.KV) (bool, error) {
	return get[bool](kv, keyPaused)
}

func SetMinCollateralRatio(kv types.KV, bps uint64) error {
	return set(kv, keyMinRatio, bps)
}

func SetFlashLoanFeeBps(kv types.KV, bps uint64) error {
	return set(kv, keyFlashFeeBps, bps)
}

func SetOracle(kv types.KV, oracle common.Address) error {
	return set(kv, keyOracle, string(oracle))
}

func SetPaused(kv types.KV, paused bool) error {
	return set(kv, keyPaused, paused)
}

func get[T any](kv types.KV, key []byte) (T, error) {
	ret, ok, err := types.GetValue[T](kv, key)
	if err != nil {
		return ret, err
	}
	if !ok {
		return ret, fmt.Errorf("%w: parameter %s", common.ErrNotInitialized, key)
	}
	return ret, nil
}

// set refuses to create a parameter that was never initialized
func set(kv types.KV, key []byte, v any) error {
	ok, err := kv.Has(key)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: parameter %s", common.ErrNotInitialized, key)
	}
	return types.SetValue(kv, key, v)
}
