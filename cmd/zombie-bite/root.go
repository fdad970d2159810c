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
	"os"
	"time"

	"github.com/zombienet/zombie-bite/config"
	"github.com/zombienet/zombie-bite/internal/logging"
	vgzap "github.com/zombienet/zombie-bite/libs/zap"
	"github.com/zombienet/zombie-bite/metrics"
	"github.com/zombienet/zombie-bite/steps"
	"github.com/zombienet/zombie-bite/version"

	"github.com/spf13/cobra"
)

var rootArgs struct {
	configPath  string
	basePath    string
	logLevel    string
	logEnv      string
	logFile     string
	metricsAddr string
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:          "zombie-bite",
	Short:        "Bite live relay chains and their parachains into a local network",
	SilenceUsage: true,
	Version:      version.Get(),
}

// Execute runs the command line until ctx is cancelled.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVarP(&rootArgs.configPath, "config", "c", "", "TOML configuration file")
	f.StringVar(&rootArgs.basePath, "base-path", "", "Directory holding the steps, defaults to ./bite-<network>-<timestamp> when biting")
	f.StringVar(&rootArgs.logLevel, "log-level", "", "Log level: debug, info, warning, error")
	f.StringVar(&rootArgs.logEnv, "log-env", "", "Log encoding environment: dev for a console output, anything else for JSON")
	f.StringVar(&rootArgs.logFile, "log-file", "", "Also write the logs as JSON to this file, rotated")
	f.StringVar(&rootArgs.metricsAddr, "metrics-addr", "", "Serve the zombie-bite metrics on this address")
}

// loadConfig reads the configuration file, if any, and applies the flags
// on top of it.
func loadConfig() (*config.Config, error) {
	cfg := config.NewDefaultConfig()
	if rootArgs.configPath != "" {
		loaded, err := config.Load(rootArgs.configPath)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}

	if rootArgs.basePath != "" {
		cfg.BasePath = rootArgs.basePath
	}
	if rootArgs.logLevel != "" {
		if err := cfg.Log.Level.UnmarshalFlag(rootArgs.logLevel); err != nil {
			return nil, err
		}
	}
	if rootArgs.logEnv != "" {
		cfg.Log.Environment = rootArgs.logEnv
	}
	if rootArgs.logFile != "" {
		cfg.Log.File = rootArgs.logFile
	}
	if rootArgs.metricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Address = rootArgs.metricsAddr
	}
	return &cfg, nil
}

// app is what every command runs with.
type app struct {
	log *logging.Logger
	cfg *config.Config
	env config.Env
	mgr *steps.Manager
}

func newApp(cfg *config.Config, requireBasePath bool) (*app, error) {
	if requireBasePath && cfg.BasePath == "" {
		return nil, errors.New("a base path is required, set --base-path or base_path in the configuration file")
	}
	basePath, err := cfg.ResolveBasePath(time.Now())
	if err != nil {
		return nil, fmt.Errorf("couldn't resolve base path: %w", err)
	}
	env, err := config.LoadEnv()
	if err != nil {
		return nil, err
	}

	log := logging.NewLoggerFromConfig(cfg.LoggingConfig())
	return &app{
		log: log,
		cfg: cfg,
		env: env,
		mgr: steps.NewManager(log, basePath),
	}, nil
}

// start takes the base path lock, finishes any interrupted step swap and
// serves the metrics. The returned func releases the lock.
func (a *app) start(ctx context.Context) (func(), error) {
	unlock, err := a.mgr.Lock()
	if err != nil {
		return nil, fmt.Errorf("couldn't lock %s, is another run using it: %w", a.mgr.BaseDir(), err)
	}
	if err := a.mgr.Recover(); err != nil {
		unlock()
		return nil, err
	}
	if err := metrics.Start(ctx, a.log, a.cfg.Metrics); err != nil {
		unlock()
		return nil, err
	}
	a.log.Info("base path", logging.String("path", a.mgr.BaseDir()))
	return unlock, nil
}

func (a *app) sync() func() {
	return vgzap.Sync(a.log)
}

func removeStopFile(a *app) {
	if err := os.Remove(a.mgr.StopFile()); err != nil && !errors.Is(err, os.ErrNotExist) {
		a.log.Warn("couldn't remove the stop file", logging.Error(err))
	}
}
