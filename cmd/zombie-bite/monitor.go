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

var monitorArgs struct {
	step string
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().StringVar(&monitorArgs.step, "step", steps.Spawn.String(), "Step to spawn: spawn, post or after")
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Spawn a step and restart the nodes that stop producing blocks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSpawn(cmd, monitorArgs.step, true)
	},
}
