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
	"github.com/blinklabs-io/lendgov"
	"github.com/blinklabs-io/lendgov/common"
	"github.com/spf13/cobra"
)

func multisigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "multisig",
		Aliases: []string{"ms"},
		Short:   "Admin multisig",
	}
	addFromFlag(cmd)
	cmd.AddCommand(
		&cobra.Command{
			Use:   "set-admins <addr,...> <required>",
			Short: "Bootstrap the multisig admin set",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				from, err := callerFrom(cmd)
				if err != nil {
					return err
				}
				admins, required, err := parseAddressSet(args[0] + ":" + args[1])
				if err != nil {
					return err
				}
				return withProtocol(cmd, func(p *lendgov.Protocol) (any, error) {
					return nil, p.MsSetAdmins(cmd.Context(), from, admins, required)
				})
			},
		},
		&cobra.Command{
			Use:   "propose-min-cr <ratio-bps>",
			Short: "Propose a new minimum collateral ratio",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				from, err := callerFrom(cmd)
				if err != nil {
					return err
				}
				ratio, err := parseUint(args[0])
				if err != nil {
					return err
				}
				return withProtocol(cmd, func(p *lendgov.Protocol) (any, error) {
					id, err := p.MsProposeSetMinCR(cmd.Context(), from, ratio)
					if err != nil {
						return nil, err
					}
					return map[string]uint64{"id": id}, nil
				})
			},
		},
		&cobra.Command{
			Use:   "propose <action> <value>",
			Short: "Propose an arbitrary admin action",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				from, err := callerFrom(cmd)
				if err != nil {
					return err
				}
				act, err := parseAction(args[0], args[1])
				if err != nil {
					return err
				}
				return withProtocol(cmd, func(p *lendgov.Protocol) (any, error) {
					id, err := p.MsPropose(cmd.Context(), from, act)
					if err != nil {
						return nil, err
					}
					return map[string]uint64{"id": id}, nil
				})
			},
		},
		govIDCommand("approve <id>", "Approve a multisig proposal", 1,
			func(cmd *cobra.Command, p *lendgov.Protocol, from common.Address, id uint64, _ []string) (any, error) {
				return nil, p.MsApprove(cmd.Context(), from, id)
			},
		),
		govIDCommand("execute <id>", "Execute an approved multisig proposal", 1,
			func(cmd *cobra.Command, p *lendgov.Protocol, from common.Address, id uint64, _ []string) (any, error) {
				return nil, p.MsExecute(cmd.Context(), from, id)
			},
		),
		govIDCommand("cancel <id>", "Cancel a multisig proposal", 1,
			func(cmd *cobra.Command, p *lendgov.Protocol, from common.Address, id uint64, _ []string) (any, error) {
				return nil, p.MsCancel(cmd.Context(), from, id)
			},
		),
		&cobra.Command{
			Use:   "show [id]",
			Short: "Show the multisig configuration or a proposal",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if len(args) == 0 {
					return withProtocol(cmd, func(p *lendgov.Protocol) (any, error) {
						return p.MsConfig()
					})
				}
				id, err := parseUint(args[0])
				if err != nil {
					return err
				}
				return withProtocol(cmd, func(p *lendgov.Protocol) (any, error) {
					return p.MsProposal(id)
				})
			},
		},
	)
	return cmd
}
