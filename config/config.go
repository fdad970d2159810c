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

// Package config reads the bite configuration file and the environment
// the node processes are tuned with.
package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/zombienet/zombie-bite/chains"
	"github.com/zombienet/zombie-bite/config/encoding"
	"github.com/zombienet/zombie-bite/internal/logging"
	"github.com/zombienet/zombie-bite/metrics"

	"github.com/BurntSushi/toml"
	"github.com/imdario/mergo"
)

const (
	defaultBasePathPrefix = "bite"
	defaultCheckInterval  = 15 * time.Minute
	defaultMetricTimeout  = 300 * time.Second
)

type RelaychainConfig struct {
	Network         string `toml:"network"`
	RuntimeOverride string `toml:"runtime_override"`
	SyncURL         string `toml:"sync_url"`
	RPCURL          string `toml:"rpc_url"`
	AtBlock         uint64 `toml:"at_block"`
}

type ParachainConfig struct {
	Type            string `toml:"type"`
	RuntimeOverride string `toml:"runtime_override"`
	// Enabled defaults to true when omitted.
	Enabled *bool  `toml:"enabled"`
	RPCURL  string `toml:"rpc_url"`
	AtBlock uint64 `toml:"at_block"`
}

func (p ParachainConfig) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// MonitorConfig tunes the liveness monitor started after spawning.
type MonitorConfig struct {
	Interval      encoding.Duration `toml:"interval"`
	MetricTimeout encoding.Duration `toml:"metric_timeout"`
}

type LogConfig struct {
	Environment string            `toml:"environment"`
	Level       encoding.LogLevel `toml:"level"`
	File        string            `toml:"file"`
}

// Config is the content of a bite configuration file.
type Config struct {
	Relaychain  RelaychainConfig  `toml:"relaychain"`
	Parachains  []ParachainConfig `toml:"parachains"`
	BasePath    string            `toml:"base_path"`
	AndSpawn    bool              `toml:"and_spawn"`
	WithMonitor bool              `toml:"with_monitor"`
	BiteMethod  string            `toml:"bite_method"`

	Monitor MonitorConfig  `toml:"monitor"`
	Log     LogConfig      `toml:"log"`
	Metrics metrics.Config `toml:"metrics"`
}

// NewDefaultConfig returns the configuration used for every value a file
// leaves out.
func NewDefaultConfig() Config {
	logCfg := logging.NewDefaultConfig()
	return Config{
		BiteMethod: string(chains.Doppelganger),
		Monitor: MonitorConfig{
			Interval:      encoding.Duration{Duration: defaultCheckInterval},
			MetricTimeout: encoding.Duration{Duration: defaultMetricTimeout},
		},
		Log: LogConfig{
			Environment: logCfg.Environment,
			Level:       encoding.LogLevel{Level: logCfg.Level},
		},
		Metrics: metrics.NewDefaultConfig(),
	}
}

// Load reads the configuration file at path. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("couldn't decode configuration file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("unknown keys in configuration file %s: %s", path, strings.Join(keys, ", "))
	}

	if err := mergo.Merge(&cfg, NewDefaultConfig()); err != nil {
		return nil, fmt.Errorf("couldn't apply configuration defaults: %w", err)
	}
	return &cfg, nil
}

// Relay returns the relay chain the file describes.
func (c *Config) Relay() (chains.Relaychain, error) {
	network, err := chains.ParseNetwork(c.Relaychain.Network)
	if err != nil {
		return chains.Relaychain{}, err
	}
	return chains.Relaychain{
		Network:         network,
		RuntimeOverride: c.Relaychain.RuntimeOverride,
		SyncURL:         c.Relaychain.SyncURL,
		RPCURL:          c.Relaychain.RPCURL,
		AtBlock:         c.Relaychain.AtBlock,
	}, nil
}

// Paras returns the enabled parachains, in file order.
func (c *Config) Paras() ([]chains.Parachain, error) {
	var (
		paras []chains.Parachain
		seen  = map[chains.ParaType]struct{}{}
	)
	for _, p := range c.Parachains {
		if !p.IsEnabled() {
			continue
		}
		t, err := chains.ParseParaType(p.Type)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[t]; ok {
			return nil, fmt.Errorf("parachain %s given more than once", t)
		}
		seen[t] = struct{}{}
		paras = append(paras, chains.Parachain{
			Type:            t,
			RuntimeOverride: p.RuntimeOverride,
			RPCURL:          p.RPCURL,
			AtBlock:         p.AtBlock,
		})
	}
	return paras, nil
}

func (c *Config) Method() chains.BiteMethod {
	return chains.ParseBiteMethod(c.BiteMethod)
}

// ResolveBasePath returns the configured base path, or
// ./bite-<network>-<unix time> when none is set.
func (c *Config) ResolveBasePath(now time.Time) (string, error) {
	path := c.BasePath
	if path == "" {
		path = fmt.Sprintf("%s-%s-%d", defaultBasePathPrefix, strings.ToLower(c.Relaychain.Network), now.Unix())
	}
	return filepath.Abs(path)
}

func (c *Config) LoggingConfig() logging.Config {
	return logging.Config{
		Environment: c.Log.Environment,
		Level:       c.Log.Level.Get(),
		File:        c.Log.File,
	}
}
