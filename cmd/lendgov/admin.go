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
	"fmt"

	"github.com/blinklabs-io/lendgov"
	"github.com/blinklabs-io/lendgov/common"
	"github.com/blinklabs-io/lendgov/database/models"
	"github.com/spf13/cobra"
)

const fromFlag = "from"

func addFromFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().String(fromFlag, "", "address of the calling account")
}

func callerFrom(cmd *cobra.Command) (common.Address, error) {
	from, err := cmd.Flags().GetString(fromFlag)
	if err != nil {
		return "", err
	}
	if from == "" {
		return "", fmt.Errorf("%w: --%s is required", common.ErrInvalidAddress, fromFlag)
	}
	return common.ParseAddress(from)
}

func initCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init <admin>",
		Short: "Initialize the protocol with the given admin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			admin, err := common.ParseAddress(args[0])
			if err != nil {
				return err
			}
			return withProtocol(cmd, func(p *lendgov.Protocol) (any, error) {
				if err := p.Initialize(cmd.Context(), admin); err != nil {
					return nil, err
				}
				version, err := p.SchemaVersion()
				if err != nil {
					return nil, err
				}
				return map[string]any{
					"admin":          admin,
					"schema_version": version,
				}, nil
			})
		},
	}
}

func paramsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "params",
		Short: "Show the current lending parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProtocol(cmd, func(p *lendgov.Protocol) (any, error) {
				return p.Params()
			})
		},
	}
}

func auditCommand() *cobra.Command {
	var query models.AuditQuery
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "List audit trail entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProtocol(cmd, func(p *lendgov.Protocol) (any, error) {
				return p.AuditEntries(cmd.Context(), query)
			})
		},
	}
	cmd.Flags().StringVar(&query.Entrypoint, "entrypoint", "", "only show this entrypoint")
	cmd.Flags().StringVar(&query.Caller, "caller", "", "only show calls made by this address")
	cmd.Flags().Uint64Var(&query.Since, "since", 0, "only show entries at or after this unix time")
	cmd.Flags().IntVar(&query.Limit, "limit", 0, "maximum number of entries, 0 for all")
	return cmd
}
