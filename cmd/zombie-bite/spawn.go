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
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/zombienet/zombie-bite/internal/logging"
	"github.com/zombienet/zombie-bite/metrics"
	"github.com/zombienet/zombie-bite/monitor"
	"github.com/zombienet/zombie-bite/network"
	"github.com/zombienet/zombie-bite/provider"
	"github.com/zombienet/zombie-bite/steps"

	"github.com/spf13/cobra"
)

var spawnArgs struct {
	step        string
	withMonitor bool
}

func init() {
	rootCmd.AddCommand(spawnCmd)
	f := spawnCmd.Flags()
	f.StringVar(&spawnArgs.step, "step", steps.Spawn.String(), "Step to spawn: spawn, post or after")
	f.BoolVar(&spawnArgs.withMonitor, "with-monitor", false, "Restart the nodes that stop producing blocks")
}

var spawnCmd = &cobra.Command{
	Use:   "spawn",
	Short: "Spawn a step from the artifacts of the previous one",
	Long: `Spawn a step from the artifacts of the previous one.

The network runs until interrupted or until the stop file shows up in the
base path. In the latter case the artifacts of the next step are generated
from the node databases.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSpawn(cmd, spawnArgs.step, spawnArgs.withMonitor)
	},
}

func runSpawn(cmd *cobra.Command, stepName string, withMonitor bool) error {
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
	return a.spawn(ctx, steps.ParseStep(stepName), withMonitor)
}

// spawn runs the network of step until ctx is done or the stop file shows
// up. Only the stop file leads to the artifacts of the next step.
func (a *app) spawn(ctx context.Context, step steps.Step, withMonitor bool) error {
	from, ok := step.From()
	if !ok {
		return fmt.Errorf("the %s step is not spawned, bite it instead", step)
	}
	fromDir := a.mgr.Dir(from)
	def, err := network.Load(filepath.Join(fromDir, network.ConfigFileName))
	if err != nil {
		return fmt.Errorf("%w: %w", steps.ErrMissingArtifact, err)
	}
	removeStopFile(a)

	if err := a.mgr.Enter(step); err != nil {
		return err
	}
	ns, err := provider.NewNativeNamespace(a.log, a.mgr.Dir(step))
	if err != nil {
		return err
	}
	destroy := func() {
		if err := ns.Destroy(context.WithoutCancel(ctx)); err != nil {
			a.log.Warn("couldn't stop the network", logging.Error(err))
		}
	}

	nw, err := network.NewSpawner(a.log, ns).Spawn(ctx, def, fromDir)
	if err != nil {
		destroy()
		return err
	}

	var targets []monitor.Target
	if withMonitor {
		targets = monitor.Targets(nw.Nodes())
	}
	mcfg := monitor.NewDefaultConfig()
	mcfg.Interval = a.cfg.Monitor.Interval.Get()
	mcfg.MetricTimeout = a.cfg.Monitor.MetricTimeout.Get()
	mcfg.StopFile = a.mgr.StopFile()

	a.log.Info("network running",
		logging.String("step", step.String()),
		logging.String("stop-file", mcfg.StopFile),
		logging.Bool("monitored", withMonitor),
	)
	err = monitor.New(a.log, mcfg, metrics.NewScraper(a.log, mcfg.MetricTimeout), targets).Run(ctx)
	destroy()
	switch {
	case errors.Is(err, context.Canceled):
		a.log.Info("network stopped")
		return nil
	case err != nil:
		return err
	}

	if err := a.mgr.GenerateArtifacts(ctx, step); err != nil {
		return err
	}
	if err := a.mgr.Promote(step); err != nil {
		return err
	}
	removeStopFile(a)
	return nil
}
