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

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/blinklabs-io/lendgov"
	"github.com/blinklabs-io/lendgov/action"
	"github.com/blinklabs-io/lendgov/common"
	"github.com/blinklabs-io/lendgov/internal/config"
	"github.com/blinklabs-io/lendgov/params"
	"github.com/blinklabs-io/lendgov/recovery"
	"github.com/spf13/cobra"
)

// withProtocol opens the protocol described by the loaded config, runs fn
// and prints its result as JSON
func withProtocol(
	cmd *cobra.Command,
	fn func(*lendgov.Protocol) (any, error),
) error {
	cfg := config.FromContext(cmd.Context())
	if cfg == nil {
		return errors.New("no config found in context")
	}
	logger := commonRun()
	defaults, err := protocolDefaults(cfg)
	if err != nil {
		return err
	}
	p, err := lendgov.New(
		lendgov.WithLogger(logger),
		lendgov.WithDataDir(cfg.DatabasePath),
		lendgov.WithBlobPlugin(cfg.BlobPlugin),
		lendgov.WithMetadataPlugin(cfg.MetadataPlugin),
		lendgov.WithDefaults(defaults),
		lendgov.WithTracing(cfg.Tracing),
		lendgov.WithTracingStdout(cfg.TracingStdout),
	)
	if err != nil {
		return err
	}
	defer p.Close()
	ret, err := fn(p)
	if err != nil {
		return err
	}
	if ret == nil {
		ret = map[string]bool{"ok": true}
	}
	return printJSON(ret)
}

func protocolDefaults(cfg *config.Config) (lendgov.Defaults, error) {
	gov, err := cfg.Governance()
	if err != nil {
		return lendgov.Defaults{}, err
	}
	return lendgov.Defaults{
		Governance: gov,
		Params:     params.Defaults(),
		Recovery: recovery.Config{
			Delay:  cfg.RecoveryDelay,
			Window: cfg.RecoveryWindow,
		},
		InitialVersion:  cfg.InitialVersion,
		UpgradeTimelock: cfg.UpgradeTimelock,
	}, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printError(err error) {
	enc := json.NewEncoder(os.Stderr)
	_ = enc.Encode(map[string]any{
		"error": err.Error(),
		"code":  common.Code(err),
	})
}

func parseAddress(s string) (common.Address, error) {
	return common.ParseAddress(s)
}

func parseUint(s string) (uint64, error) {
	ret, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return ret, nil
}

// parseAddressSet parses "addr1,addr2,...:threshold"
func parseAddressSet(s string) ([]common.Address, uint32, error) {
	list, thresholdStr, ok := strings.Cut(s, ":")
	if !ok {
		return nil, 0, fmt.Errorf("address set %q must be <addr,...>:<threshold>", s)
	}
	addrs, err := common.ParseAddressList(list)
	if err != nil {
		return nil, 0, err
	}
	threshold, err := strconv.ParseUint(thresholdStr, 10, 32)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid threshold %q: %w", thresholdStr, err)
	}
	return addrs, uint32(threshold), nil
}

// actionKinds lists the names accepted by parseAction
var actionKinds = []string{
	"min-cr",
	"flash-fee",
	"oracle",
	"paused",
	"quorum",
	"gov-timelock",
	"multisig-admins",
	"upgrade-approvers",
	"proposal-policy",
}

func parseAction(kind, value string) (action.Action, error) {
	switch kind {
	case "min-cr":
		v, err := parseUint(value)
		if err != nil {
			return nil, err
		}
		return action.SetMinCollateralRatio{RatioBps: v}, nil
	case "flash-fee":
		v, err := parseUint(value)
		if err != nil {
			return nil, err
		}
		return action.SetFlashLoanFee{FeeBps: v}, nil
	case "oracle":
		addr, err := parseAddress(value)
		if err != nil {
			return nil, err
		}
		return action.SetOracle{Oracle: addr}, nil
	case "paused":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("invalid bool %q: %w", value, err)
		}
		return action.SetPaused{Paused: v}, nil
	case "quorum":
		v, err := parseUint(value)
		if err != nil {
			return nil, err
		}
		return action.SetQuorumBps{QuorumBps: v}, nil
	case "gov-timelock":
		v, err := parseUint(value)
		if err != nil {
			return nil, err
		}
		return action.SetGovTimelock{Seconds: v}, nil
	case "multisig-admins":
		addrs, threshold, err := parseAddressSet(value)
		if err != nil {
			return nil, err
		}
		return action.SetMultisigAdmins{Admins: addrs, Threshold: threshold}, nil
	case "upgrade-approvers":
		addrs, threshold, err := parseAddressSet(value)
		if err != nil {
			return nil, err
		}
		return action.SetUpgradeApprovers{Approvers: addrs, Threshold: threshold}, nil
	case "proposal-policy":
		switch value {
		case "open":
			return action.SetProposalPolicy{}, nil
		case "allowlist":
			return action.SetProposalPolicy{Allowlist: true}, nil
		}
		return nil, fmt.Errorf("unknown proposal policy %q", value)
	default:
		return nil, fmt.Errorf(
			"%w: unknown action %q, expected one of %s",
			common.ErrInvalidAction,
			kind,
			strings.Join(actionKinds, ", "),
		)
	}
}
