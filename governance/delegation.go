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
	"slices"

	"github.com/blinklabs-io/lendgov/common"
	"github.com/blinklabs-io/lendgov/database/types"
)

// DelegateOf returns the direct delegate of addr, if any
func (e *Engine) DelegateOf(addr common.Address) (common.Address, bool, error) {
	return types.GetValue[common.Address](e.kv, addrKey("delegation", addr))
}

// Delegators returns the accounts delegating directly to addr
func (e *Engine) Delegators(addr common.Address) ([]common.Address, error) {
	return getList(e.kv, addrKey("delegators", addr))
}

// Delegate points delegator at delegate. Delegating to oneself clears the
// delegation. A delegation that would close a cycle or make any chain longer
// than the configured hop limit is rejected.
func (e *Engine) Delegate(delegator, delegate common.Address) error {
	if err := delegator.Validate(); err != nil {
		return err
	}
	if err := delegate.Validate(); err != nil {
		return err
	}
	if delegator == delegate {
		return e.Undelegate(delegator)
	}
	cfg, err := e.Config()
	if err != nil {
		return err
	}
	hops := cfg.MaxDelegationHops
	// Walk forward from the new delegate
	var down uint32
	cur := delegate
	for {
		next, ok, err := e.DelegateOf(cur)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if next == delegator {
			return fmt.Errorf(
				"%w: %s -> %s",
				common.ErrDelegationCycle,
				delegator,
				delegate,
			)
		}
		down++
		if down >= hops {
			return fmt.Errorf(
				"%w: limit %d hops",
				common.ErrDelegationTooDeep,
				hops,
			)
		}
		cur = next
	}
	up, err := e.upstreamDepth(delegator, hops)
	if err != nil {
		return err
	}
	if up+1+down > hops {
		return fmt.Errorf(
			"%w: chain of %d hops exceeds limit %d",
			common.ErrDelegationTooDeep,
			up+1+down,
			hops,
		)
	}
	if err := e.unlink(delegator); err != nil {
		return err
	}
	if err := types.SetValue(e.kv, addrKey("delegation", delegator), delegate); err != nil {
		return err
	}
	delegators, err := e.Delegators(delegate)
	if err != nil {
		return err
	}
	return setList(
		e.kv,
		addrKey("delegators", delegate),
		append(delegators, delegator),
	)
}

// Undelegate clears the delegation of delegator. It is a no-op when none
// exists.
func (e *Engine) Undelegate(delegator common.Address) error {
	if err := delegator.Validate(); err != nil {
		return err
	}
	if _, err := e.Config(); err != nil {
		return err
	}
	return e.unlink(delegator)
}

func (e *Engine) unlink(delegator common.Address) error {
	prev, ok, err := e.DelegateOf(delegator)
	if err != nil || !ok {
		return err
	}
	delegators, err := e.Delegators(prev)
	if err != nil {
		return err
	}
	delegators = slices.DeleteFunc(delegators, func(a common.Address) bool {
		return a == delegator
	})
	if err := setList(e.kv, addrKey("delegators", prev), delegators); err != nil {
		return err
	}
	return e.kv.Delete(addrKey("delegation", delegator))
}

// upstreamDepth returns the length of the longest delegation chain ending at
// addr, looking no further than limit hops
func (e *Engine) upstreamDepth(addr common.Address, limit uint32) (uint32, error) {
	delegators, err := e.Delegators(addr)
	if err != nil {
		return 0, err
	}
	if len(delegators) == 0 {
		return 0, nil
	}
	if limit == 0 {
		return 1, nil
	}
	var ret uint32
	for _, d := range delegators {
		sub, err := e.upstreamDepth(d, limit-1)
		if err != nil {
			return 0, err
		}
		ret = max(ret, sub+1)
	}
	return ret, nil
}

// Resolve follows the delegation chain of addr to its final delegate
func (e *Engine) Resolve(addr common.Address) (common.Address, error) {
	cfg, err := e.Config()
	if err != nil {
		return "", err
	}
	cur := addr
	for i := uint32(0); ; i++ {
		next, ok, err := e.DelegateOf(cur)
		if err != nil {
			return "", err
		}
		if !ok {
			return cur, nil
		}
		if next == addr {
			return "", fmt.Errorf("%w: through %s", common.ErrDelegationCycle, addr)
		}
		if i >= cfg.MaxDelegationHops {
			return "", fmt.Errorf(
				"%w: limit %d hops",
				common.ErrDelegationTooDeep,
				cfg.MaxDelegationHops,
			)
		}
		cur = next
	}
}

// VotingPower returns the own weight of addr plus the weight delegated to it,
// directly or through intermediaries
func (e *Engine) VotingPower(addr common.Address) (uint64, error) {
	cfg, err := e.Config()
	if err != nil {
		return 0, err
	}
	return e.power(addr, cfg.MaxDelegationHops)
}

func (e *Engine) power(addr common.Address, depth uint32) (uint64, error) {
	ret, err := e.weights.WeightOf(addr)
	if err != nil {
		return 0, err
	}
	if depth == 0 {
		return ret, nil
	}
	delegators, err := e.Delegators(addr)
	if err != nil {
		return 0, err
	}
	for _, d := range delegators {
		sub, err := e.power(d, depth-1)
		if err != nil {
			return 0, err
		}
		ret = saturatingAdd(ret, sub)
	}
	return ret, nil
}

// contributors returns addr and every account delegating to it, directly or
// through intermediaries, within depth hops. This is the set VotingPower
// sums over.
func (e *Engine) contributors(addr common.Address, depth uint32) ([]common.Address, error) {
	ret := []common.Address{addr}
	if depth == 0 {
		return ret, nil
	}
	delegators, err := e.Delegators(addr)
	if err != nil {
		return nil, err
	}
	for _, d := range delegators {
		sub, err := e.contributors(d, depth-1)
		if err != nil {
			return nil, err
		}
		ret = append(ret, sub...)
	}
	return ret, nil
}

func saturatingAdd(a, b uint64) uint64 {
	if a > ^uint64(0)-b {
		return ^uint64(0)
	}
	return a + b
}
