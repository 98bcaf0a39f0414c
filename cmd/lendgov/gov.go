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
	"strconv"

	"github.com/blinklabs-io/lendgov"
	"github.com/blinklabs-io/lendgov/common"
	"github.com/blinklabs-io/lendgov/governance"
	"github.com/spf13/cobra"
)

func govCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gov",
		Short: "Token-weighted governance",
	}
	addFromFlag(cmd)
	cmd.AddCommand(
		govProposeCommand(),
		govIDCommand("vote <id> <yes|no>", "Vote on a proposal", 2,
			func(cmd *cobra.Command, p *lendgov.Protocol, from common.Address, id uint64, args []string) (any, error) {
				support, err := strconv.ParseBool(yesNo(args[1]))
				if err != nil {
					return nil, err
				}
				return p.GovVote(cmd.Context(), from, id, support)
			},
		),
		govIDCommand("execute <id>", "Execute a passed proposal", 1,
			func(cmd *cobra.Command, p *lendgov.Protocol, from common.Address, id uint64, _ []string) (any, error) {
				return nil, p.GovExecute(cmd.Context(), from, id)
			},
		),
		govIDCommand("cancel <id>", "Cancel a proposal", 1,
			func(cmd *cobra.Command, p *lendgov.Protocol, from common.Address, id uint64, _ []string) (any, error) {
				return nil, p.GovCancel(cmd.Context(), from, id)
			},
		),
		&cobra.Command{
			Use:   "delegate <delegate>",
			Short: "Delegate voting power",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				from, err := callerFrom(cmd)
				if err != nil {
					return err
				}
				to, err := common.ParseAddress(args[0])
				if err != nil {
					return err
				}
				return withProtocol(cmd, func(p *lendgov.Protocol) (any, error) {
					return nil, p.GovDelegate(cmd.Context(), from, to)
				})
			},
		},
		&cobra.Command{
			Use:   "undelegate",
			Short: "Clear a delegation",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				from, err := callerFrom(cmd)
				if err != nil {
					return err
				}
				return withProtocol(cmd, func(p *lendgov.Protocol) (any, error) {
					return nil, p.GovUndelegate(cmd.Context(), from)
				})
			},
		},
		&cobra.Command{
			Use:   "set-weight <address> <weight>",
			Short: "Set the stored voting weight of an address",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				from, err := callerFrom(cmd)
				if err != nil {
					return err
				}
				addr, err := common.ParseAddress(args[0])
				if err != nil {
					return err
				}
				weight, err := parseUint(args[1])
				if err != nil {
					return err
				}
				return withProtocol(cmd, func(p *lendgov.Protocol) (any, error) {
					return nil, p.GovSetVotingWeight(cmd.Context(), from, addr, weight)
				})
			},
		},
		&cobra.Command{
			Use:   "set-proposer <address> <true|false>",
			Short: "Add or remove an address from the proposer allowlist",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				from, err := callerFrom(cmd)
				if err != nil {
					return err
				}
				addr, err := common.ParseAddress(args[0])
				if err != nil {
					return err
				}
				allowed, err := strconv.ParseBool(args[1])
				if err != nil {
					return err
				}
				return withProtocol(cmd, func(p *lendgov.Protocol) (any, error) {
					return nil, p.GovSetProposer(cmd.Context(), from, addr, allowed)
				})
			},
		},
		&cobra.Command{
			Use:   "show <id>",
			Short: "Show a proposal and its tally",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseUint(args[0])
				if err != nil {
					return err
				}
				return withProtocol(cmd, func(p *lendgov.Protocol) (any, error) {
					prop, err := p.GovProposal(id)
					if err != nil {
						return nil, err
					}
					tally, err := p.GovTally(id)
					if err != nil {
						return nil, err
					}
					return map[string]any{"proposal": prop, "tally": tally}, nil
				})
			},
		},
		&cobra.Command{
			Use:   "tally <id>",
			Short: "Show the current vote tally of a proposal",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseUint(args[0])
				if err != nil {
					return err
				}
				return withProtocol(cmd, func(p *lendgov.Protocol) (any, error) {
					return p.GovTally(id)
				})
			},
		},
		&cobra.Command{
			Use:   "config",
			Short: "Show the governance configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withProtocol(cmd, func(p *lendgov.Protocol) (any, error) {
					return p.GovConfig()
				})
			},
		},
	)
	return cmd
}

func govProposeCommand() *cobra.Command {
	var votingPeriod uint64
	cmd := &cobra.Command{
		Use:   "propose <action> <value>",
		Short: "Create a governance proposal",
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
				id, err := p.GovPropose(cmd.Context(), from, act, votingPeriod)
				if err != nil {
					return nil, err
				}
				return map[string]uint64{"id": id}, nil
			})
		},
	}
	cmd.Flags().Uint64Var(
		&votingPeriod,
		"voting-period",
		governance.DefaultMinVotingPeriod,
		"voting period in seconds",
	)
	return cmd
}

type idRunFunc func(*cobra.Command, *lendgov.Protocol, common.Address, uint64, []string) (any, error)

// govIDCommand builds a caller-authenticated subcommand whose first argument
// is a proposal ID
func govIDCommand(use, short string, nargs int, fn idRunFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := callerFrom(cmd)
			if err != nil {
				return err
			}
			id, err := parseUint(args[0])
			if err != nil {
				return err
			}
			return withProtocol(cmd, func(p *lendgov.Protocol) (any, error) {
				return fn(cmd, p, from, id, args)
			})
		},
	}
}

func yesNo(s string) string {
	switch s {
	case "yes", "for":
		return "true"
	case "no", "against":
		return "false"
	}
	return s
}
