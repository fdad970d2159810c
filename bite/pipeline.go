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

// Package bite syncs live chains and turns their state into the artifacts a
// local network is spawned from.
package bite

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/zombienet/zombie-bite/chains"
	"github.com/zombienet/zombie-bite/chainspec"
	"github.com/zombienet/zombie-bite/config"
	"github.com/zombienet/zombie-bite/internal/logging"
	vgfs "github.com/zombienet/zombie-bite/libs/fs"
	vgjson "github.com/zombienet/zombie-bite/libs/json"
	"github.com/zombienet/zombie-bite/network"
	"github.com/zombienet/zombie-bite/provider"
	"github.com/zombienet/zombie-bite/steps"

	"github.com/pkg/errors"
)

const (
	namedLogger = "bite"

	ReadyFileName = "ready.json"
	PortsFileName = "ports.json"

	rcInfoFileName = "rc_info.txt"

	defaultSyncInterval  = time.Second
	defaultHeaderTimeout = time.Minute
)

var ErrSyncFailed = errors.New("chain sync failed")

// ChainArtifact is the spec and database a bitten chain leaves behind.
type ChainArtifact = network.ChainArtifact

// MetricsWaiter follows a node through its prometheus endpoint.
type MetricsWaiter interface {
	WaitReady(ctx context.Context, url string) error
	WaitSync(ctx context.Context, url string, interval time.Duration, onTick func()) error
}

type Options struct {
	Relay  chains.Relaychain
	Paras  []chains.Parachain
	Method chains.BiteMethod
}

// Result is what the bite step leaves for the spawn step.
type Result struct {
	Definition *network.Definition
	ConfigPath string
	Ready      map[string]uint64
	Ports      map[string]uint16
}

// Pipeline runs a bite in a namespace whose base directory is the bite
// step directory.
type Pipeline struct {
	log     *logging.Logger
	ns      provider.Namespace
	steps   *steps.Manager
	env     config.Env
	metrics MetricsWaiter
	ports   network.PortFunc
	client  *http.Client

	syncInterval  time.Duration
	headerTimeout time.Duration
	progress      bool
}

func NewPipeline(log *logging.Logger, ns provider.Namespace, mgr *steps.Manager, env config.Env, metrics MetricsWaiter) *Pipeline {
	return &Pipeline{
		log:           log.Named(namedLogger),
		ns:            ns,
		steps:         mgr,
		env:           env,
		metrics:       metrics,
		ports:         network.FreePort,
		client:        &http.Client{Timeout: 5 * time.Minute},
		syncInterval:  defaultSyncInterval,
		headerTimeout: defaultHeaderTimeout,
	}
}

// WithPorts replaces the port allocator of the sync nodes and of the
// generated definition.
func (p *Pipeline) WithPorts(ports network.PortFunc) *Pipeline {
	p.ports = ports
	return p
}

func (p *Pipeline) WithSyncInterval(d time.Duration) *Pipeline {
	p.syncInterval = d
	return p
}

func (p *Pipeline) WithHTTPClient(c *http.Client) *Pipeline {
	p.client = c
	return p
}

// WithProgress shows a spinner on stderr while chains sync.
func (p *Pipeline) WithProgress(enabled bool) *Pipeline {
	p.progress = enabled
	return p
}

// Run bites the relay chain and its parachains, writes the network
// definition in the bite directory and promotes it.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	p.log.Info("biting",
		logging.Chain(opts.Relay.ChainName()),
		logging.Strings("paras", paraNames(opts.Relay, opts.Paras)),
		logging.String("method", string(opts.Method)),
	)

	var (
		relay ChainArtifact
		paras []ChainArtifact
		err   error
	)
	switch opts.Method {
	case chains.ForkOff:
		relay, paras, err = p.forkOff(ctx, opts)
	default:
		relay, paras, err = p.doppelganger(ctx, opts)
	}
	if err != nil {
		return nil, err
	}

	res, err := p.finish(opts, relay, paras)
	if err != nil {
		return nil, err
	}
	p.log.Info("bite done",
		logging.String("config", res.ConfigPath),
		logging.Duration("took", time.Since(start)),
	)
	return res, nil
}

func (p *Pipeline) finish(opts Options, relay ChainArtifact, paras []ChainArtifact) (*Result, error) {
	validators := network.ValidatorCount(len(paras))
	if err := chainspec.AddValidators(relay.SpecPath, validators); err != nil {
		return nil, fmt.Errorf("couldn't add validators to %s: %w", relay.SpecPath, err)
	}

	relocated := p.env.CIPath != ""
	if relocated {
		var err error
		if relay, err = network.Relocate(relay, p.env.CIPath); err != nil {
			return nil, err
		}
		for i := range paras {
			if paras[i], err = network.Relocate(paras[i], p.env.CIPath); err != nil {
				return nil, err
			}
		}
		p.log.Info("artifacts relocated", logging.String("path", p.env.CIPath))
	}

	builder := network.Builder{
		Env:      p.env,
		SpawnDir: p.steps.Dir(steps.Spawn),
		Ports:    p.ports,
	}
	def, err := builder.Build(relay, paras)
	if err != nil {
		return nil, err
	}
	configPath, err := def.WriteFile(p.steps.Dir(steps.Bite))
	if err != nil {
		return nil, err
	}

	ready, err := p.readyBlocks(opts)
	if err != nil {
		return nil, err
	}
	ports := Ports(def)
	if err := vgjson.WriteFile(filepath.Join(p.steps.BaseDir(), ReadyFileName), ready); err != nil {
		return nil, err
	}
	if err := vgjson.WriteFile(filepath.Join(p.steps.BaseDir(), PortsFileName), ports); err != nil {
		return nil, err
	}

	// relocated artifacts live outside of the step directory
	if !relocated {
		if err := p.steps.Promote(steps.Bite); err != nil {
			return nil, err
		}
	}

	return &Result{
		Definition: def,
		ConfigPath: configPath,
		Ready:      ready,
		Ports:      ports,
	}, nil
}

// readyBlocks collects the block each chain was bitten at. Only the
// doppelganger nodes report it.
func (p *Pipeline) readyBlocks(opts Options) (map[string]uint64, error) {
	ready := map[string]uint64{}
	if opts.Method == chains.ForkOff {
		return ready, nil
	}

	dir := p.ns.BaseDir()
	block, err := readBlock(filepath.Join(dir, rcInfoFileName))
	if err != nil {
		return nil, err
	}
	ready["rc_start_block"] = block
	for _, para := range opts.Paras {
		block, err := readBlock(paraInfoPath(dir, para.ID()))
		if err != nil {
			return nil, err
		}
		ready[fmt.Sprintf("para_%d_start_block", para.ID())] = block
	}
	return ready, nil
}

// Ports lists the RPC ports of alice and of the first collator of each
// parachain.
func Ports(def *network.Definition) map[string]uint16 {
	ports := map[string]uint16{}
	for _, n := range def.Relaychain.Nodes {
		if n.Name == "alice" {
			ports["alice_port"] = n.RPCPort
		}
	}
	for _, para := range def.Parachains {
		if len(para.Collators) > 0 {
			ports[fmt.Sprintf("para_%d_collator_port", para.ID)] = para.Collators[0].RPCPort
		}
	}
	return ports
}

func readBlock(path string) (uint64, error) {
	data, err := vgfs.ReadFile(path)
	if err != nil {
		return 0, err
	}
	block, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid block number in %s: %w", path, err)
	}
	return block, nil
}

func paraInfoPath(dir string, id uint32) string {
	return filepath.Join(dir, fmt.Sprintf("para-%d.txt", id))
}

func paraNames(relay chains.Relaychain, paras []chains.Parachain) []string {
	names := make([]string, 0, len(paras))
	for _, para := range paras {
		names = append(names, para.ChainName(relay))
	}
	return names
}
