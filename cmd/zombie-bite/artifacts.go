// Copyright (C) 2024  The zombie-bite Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"github.com/zombienet/zombie-bite/steps"

	"github.com/spf13/cobra"
)

var artifactsArgs struct {
	step string
}

func init() {
	rootCmd.AddCommand(generateArtifactsCmd)
	generateArtifactsCmd.Flags().StringVar(&artifactsArgs.step, "step", steps.Spawn.String(), "Step whose nodes are snapshotted: spawn, post or after")
}

var generateArtifactsCmd = &cobra.Command{
	Use:   "generate-artifacts",
	Short: "Snapshot the nodes of a stopped step for the next one",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := newApp(cfg, true)
		if err != nil {
			return err
		}
		defer a.sync()()

		ctx := cmd.Context()
		unlock, err := a.start(ctx)
		if err != nil {
			return err
		}
		defer unlock()

		step := steps.ParseStep(artifactsArgs.step)
		if err := a.mgr.GenerateArtifacts(ctx, step); err != nil {
			return err
		}
		return a.mgr.Promote(step)
	},
}
