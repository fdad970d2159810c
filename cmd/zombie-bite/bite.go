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
	"io"
	"os"
	"sort"

	"github.com/zombienet/zombie-bite/bite"
	"github.com/zombienet/zombie-bite/chains"
	"github.com/zombienet/zombie-bite/config"
	"github.com/zombienet/zombie-bite/internal/logging"
	"github.com/zombienet/zombie-bite/metrics"
	"github.com/zombienet/zombie-bite/provider"
	"github.com/zombienet/zombie-bite/steps"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	green = color.New(color.FgGreen).SprintFunc()
	cyan  = color.New(color.FgCyan).SprintFunc()
)

var biteArgs struct {
	andSpawn    bool
	withMonitor bool
	progress    bool
}

func init() {
	rootCmd.AddCommand(biteCmd)
	f := biteCmd.Flags()
	f.BoolVar(&biteArgs.andSpawn, "and-spawn", false, "Spawn the network once bitten")
	f.BoolVar(&biteArgs.withMonitor, "with-monitor", false, "Restart the spawned nodes that stop producing blocks")
	f.BoolVar(&biteArgs.progress, "progress", isatty.IsTerminal(os.Stderr.Fd()), "Show a spinner while chains sync, on by default on terminals")
}

var biteCmd = &cobra.Command{
	Use:   "bite <relay[:wasm]> [para[:wasm],...] [doppelganger|fork-off]",
	Short: "Sync a live relay chain and its parachains and turn them into a local network",
	Long: `Sync a live relay chain and its parachains and turn them into a local network.

The chains are read from the arguments, or from the configuration file when
no argument is given. The artifacts are written in the bite step directory.`,
	Args: cobra.MaximumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("and-spawn") {
			cfg.AndSpawn = biteArgs.andSpawn
		}
		if cmd.Flags().Changed("with-monitor") {
			cfg.WithMonitor = biteArgs.withMonitor
		}
		opts, err := biteOptions(cfg, args)
		if err != nil {
			return err
		}

		a, err := newApp(cfg, false)
		if err != nil {
			return err
		}
		defer a.sync()()
		return runBite(cmd.Context(), a, opts)
	},
}

// biteOptions reads the chains from the arguments, falling back to the
// configuration file.
func biteOptions(cfg *config.Config, args []string) (bite.Options, error) {
	if len(args) > 0 {
		relay, paras, method, err := chains.ParseArgs(args)
		if err != nil {
			return bite.Options{}, err
		}
		cfg.Relaychain.Network = string(relay.Network)
		return bite.Options{Relay: relay, Paras: paras, Method: method}, nil
	}
	if rootArgs.configPath == "" {
		return bite.Options{}, errors.New("a relay chain is required, as argument or in the configuration file")
	}

	relay, err := cfg.Relay()
	if err != nil {
		return bite.Options{}, err
	}
	paras, err := cfg.Paras()
	if err != nil {
		return bite.Options{}, err
	}
	return bite.Options{Relay: relay, Paras: paras, Method: cfg.Method()}, nil
}

func runBite(ctx context.Context, a *app, opts bite.Options) error {
	unlock, err := a.start(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if err := checkBinaries(ctx, a.log, opts); err != nil {
		return err
	}
	if err := a.mgr.Enter(steps.Bite); err != nil {
		return err
	}
	ns, err := provider.NewNativeNamespace(a.log, a.mgr.Dir(steps.Bite))
	if err != nil {
		return err
	}
	defer func() {
		if err := ns.Destroy(context.WithoutCancel(ctx)); err != nil {
			a.log.Warn("couldn't clean up the bite namespace", logging.Error(err))
		}
	}()

	scraper := metrics.NewScraper(a.log, a.cfg.Monitor.MetricTimeout.Get())
	res, err := bite.NewPipeline(a.log, ns, a.mgr, a.env, scraper).
		WithProgress(biteArgs.progress).
		Run(ctx, opts)
	if err != nil {
		return fmt.Errorf("bite failed: %w", err)
	}
	a.log.Info("network bitten",
		logging.String("definition", res.ConfigPath),
		logging.Strings("nodes", res.Definition.NodeNames()),
	)
	printSummary(os.Stdout, res)

	if !a.cfg.AndSpawn {
		return nil
	}
	return a.spawn(ctx, steps.Spawn, a.cfg.WithMonitor)
}

// checkBinaries makes sure every node binary the bite needs is on the PATH
// before anything is synced.
func checkBinaries(ctx context.Context, log *logging.Logger, opts bite.Options) error {
	commands := []string{chains.Relay.Command()}
	if len(opts.Paras) > 0 {
		commands = append(commands, chains.Para.Command())
	}
	if opts.Method == chains.Doppelganger {
		commands = append(commands, chains.Relay.DoppelgangerCommand())
		if len(opts.Paras) > 0 {
			commands = append(commands, chains.Para.DoppelgangerCommand())
		}
	}

	for _, command := range commands {
		path, err := provider.LookupBinary(command)
		if err != nil {
			return err
		}
		v, err := provider.BinaryVersion(ctx, path)
		if err != nil {
			log.Warn("couldn't read binary version", logging.String("binary", path), logging.Error(err))
			continue
		}
		log.Info("binary found", logging.String("binary", path), logging.String("version", v.String()))
	}
	return nil
}

// printSummary tells where the bitten network lives and how to reach it.
func printSummary(w io.Writer, res *bite.Result) {
	fmt.Fprintf(w, "%v %v\n", green("bitten:"), res.ConfigPath)
	for _, k := range sortedKeys(res.Ports) {
		fmt.Fprintf(w, "  %v %d\n", cyan(k), res.Ports[k])
	}
	for _, k := range sortedKeys(res.Ready) {
		fmt.Fprintf(w, "  %v %d\n", cyan(k), res.Ready[k])
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
