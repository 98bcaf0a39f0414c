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

	"github.com/blinklabs-io/lendgov"
	"github.com/blinklabs-io/lendgov/common"
	"github.com/spf13/cobra"
)

func upgradeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Protocol version upgrades",
	}
	addFromFlag(cmd)
	var metadata string
	propose := &cobra.Command{
		Use:   "propose <version>",
		Short: "Propose an upgrade to version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := callerFrom(cmd)
			if err != nil {
				return err
			}
			return withProtocol(cmd, func(p *lendgov.Protocol) (any, error) {
				return nil, p.UpgradePropose(cmd.Context(), from, args[0], metadata)
			})
		},
	}
	propose.Flags().StringVar(&metadata, "metadata", "", "free-form upgrade metadata")
	cmd.AddCommand(
		propose,
		upgradeStepCommand("approve", "Approve the pending upgrade", (*lendgov.Protocol).UpgradeApprove),
		upgradeStepCommand("execute", "Execute the pending upgrade", (*lendgov.Protocol).UpgradeExecute),
		upgradeStepCommand("rollback", "Roll back to the previous version", (*lendgov.Protocol).UpgradeRollback),
		upgradeStepCommand("cancel", "Cancel the pending upgrade", (*lendgov.Protocol).UpgradeCancel),
		&cobra.Command{
			Use:   "status",
			Short: "Show the current and pending versions",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withProtocol(cmd, func(p *lendgov.Protocol) (any, error) {
					return p.UpgradeStatus()
				})
			},
		},
	)
	return cmd
}

func upgradeStepCommand(
	use, short string,
	fn func(*lendgov.Protocol, context.Context, common.Address) error,
) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := callerFrom(cmd)
			if err != nil {
				return err
			}
			return withProtocol(cmd, func(p *lendgov.Protocol) (any, error) {
				return nil, fn(p, cmd.Context(), from)
			})
		},
	}
}
