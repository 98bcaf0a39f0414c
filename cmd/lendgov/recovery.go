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
	"context"
	"errors"

	"github.com/blinklabs-io/lendgov"
	"github.com/blinklabs-io/lendgov/common"
	"github.com/spf13/cobra"
)

func recoveryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recovery",
		Short: "Guardian-based account recovery",
	}
	addFromFlag(cmd)
	cmd.AddCommand(
		&cobra.Command{
			Use:   "set-guardians <account> <addr,...> <required>",
			Short: "Configure the guardians of an account",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				from, err := callerFrom(cmd)
				if err != nil {
					return err
				}
				account, err := common.ParseAddress(args[0])
				if err != nil {
					return err
				}
				guardians, required, err := parseAddressSet(args[1] + ":" + args[2])
				if err != nil {
					return err
				}
				return withProtocol(cmd, func(p *lendgov.Protocol) (any, error) {
					return nil, p.RecoverySetGuardians(cmd.Context(), from, account, guardians, required)
				})
			},
		},
		&cobra.Command{
			Use:   "propose <account> <new-owner>",
			Short: "Propose a new owner for an account",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				from, err := callerFrom(cmd)
				if err != nil {
					return err
				}
				account, err := common.ParseAddress(args[0])
				if err != nil {
					return err
				}
				newOwner, err := common.ParseAddress(args[1])
				if err != nil {
					return err
				}
				return withProtocol(cmd, func(p *lendgov.Protocol) (any, error) {
					return nil, p.RecoveryPropose(cmd.Context(), from, account, newOwner)
				})
			},
		},
		recoveryStepCommand("approve", "Approve the pending recovery", (*lendgov.Protocol).RecoveryApprove),
		recoveryStepCommand("execute", "Execute the pending recovery", (*lendgov.Protocol).RecoveryExecute),
		recoveryStepCommand("cancel", "Cancel the pending recovery", (*lendgov.Protocol).RecoveryCancel),
		&cobra.Command{
			Use:   "show <account>",
			Short: "Show the owner, guardians and pending recovery of an account",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				account, err := common.ParseAddress(args[0])
				if err != nil {
					return err
				}
				return withProtocol(cmd, func(p *lendgov.Protocol) (any, error) {
					owner, err := p.OwnerOf(account)
					if err != nil {
						return nil, err
					}
					ret := map[string]any{"account": account, "owner": owner}
					guardians, ok, err := p.RecoveryGuardians(account)
					if err != nil {
						return nil, err
					}
					if ok {
						ret["guardians"] = guardians
					}
					req, err := p.RecoveryRequest(account)
					switch {
					case err == nil:
						ret["request"] = req
					case !errors.Is(err, common.ErrRequestNotFound):
						return nil, err
					}
					return ret, nil
				})
			},
		},
	)
	return cmd
}

func recoveryStepCommand(
	use, short string,
	fn func(*lendgov.Protocol, context.Context, common.Address, common.Address) error,
) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <account>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := callerFrom(cmd)
			if err != nil {
				return err
			}
			account, err := common.ParseAddress(args[0])
			if err != nil {
				return err
			}
			return withProtocol(cmd, func(p *lendgov.Protocol) (any, error) {
				return nil, fn(p, cmd.Context(), from, account)
			})
		},
	}
}
