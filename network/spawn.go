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

package network

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/zombienet/zombie-bite/chains"
	"github.com/zombienet/zombie-bite/internal/logging"
	"github.com/zombienet/zombie-bite/keyring"
	"github.com/zombienet/zombie-bite/overrides"
	"github.com/zombienet/zombie-bite/provider"
	"github.com/zombienet/zombie-bite/snapshot"

	"github.com/dustin/go-humanize"
)

const (
	namedLogger = "network"
	dataDir     = snapshot.DataPrefix
	keystoreDir = "keystore"
)

// RunningNode is a spawned node with the ports it listens on.
type RunningNode struct {
	provider.Node
	Chain          string
	ParaID         uint32
	RPCPort        uint16
	PrometheusPort uint16
}

// MetricsURL is the prometheus endpoint of the node.
func (n *RunningNode) MetricsURL() string {
	return fmt.Sprintf("http://%s:%d/metrics", localhost, n.PrometheusPort)
}

func (n *RunningNode) RPCURL() string {
	return fmt.Sprintf("ws://%s:%d", localhost, n.RPCPort)
}

// DataDir is the base path of the node database.
func (n *RunningNode) DataDir() string {
	return filepath.Join(n.Dir(), dataDir)
}

// Network is a spawned definition.
type Network struct {
	ns    provider.Namespace
	nodes []*RunningNode
}

func (nw *Network) Namespace() provider.Namespace { return nw.ns }

func (nw *Network) Nodes() []*RunningNode { return nw.nodes }

func (nw *Network) Node(name string) (*RunningNode, bool) {
	for _, n := range nw.nodes {
		if n.Name() == name {
			return n, true
		}
	}
	return nil, false
}

// Destroy stops every node of the network.
func (nw *Network) Destroy(ctx context.Context) error {
	return nw.ns.Destroy(ctx)
}

// Spawner starts definitions in a namespace.
type Spawner struct {
	log   *logging.Logger
	ns    provider.Namespace
	ports PortFunc
}

func NewSpawner(log *logging.Logger, ns provider.Namespace) *Spawner {
	return &Spawner{
		log:   log.Named(namedLogger),
		ns:    ns,
		ports: FreePort,
	}
}

// WithPorts replaces the port allocator.
func (s *Spawner) WithPorts(ports PortFunc) *Spawner {
	s.ports = ports
	return s
}

// Spawn starts the relay chain nodes then the collators. Relative paths of
// the definition are resolved against dir, the directory it was loaded from.
func (s *Spawner) Spawn(ctx context.Context, def *Definition, dir string) (*Network, error) {
	if len(def.Relaychain.Nodes) == 0 {
		return nil, ErrNoValidators
	}
	start := time.Now()
	nw := &Network{ns: s.ns}

	relaySpec := resolve(dir, def.Relaychain.ChainSpecPath)
	for _, n := range def.Relaychain.Nodes {
		spec := nodeSpec{
			node:     n,
			chain:    def.Relaychain.Chain,
			command:  def.Relaychain.DefaultCommand,
			specPath: relaySpec,
			snapshot: resolve(dir, firstNonEmpty(n.DBSnapshot, def.Relaychain.DefaultDBSnapshot)),
			args:     def.Relaychain.DefaultArgs,
		}
		if v, ok := keyring.ByName(n.Name); ok && n.Validator {
			spec.keystore = func(dir string) error { return WriteValidatorKeystore(dir, v) }
		}
		rn, err := s.spawnNode(ctx, spec)
		if err != nil {
			return nil, err
		}
		nw.nodes = append(nw.nodes, rn)
	}

	auraKey := ""
	if network, err := chains.ParseNetwork(def.Relaychain.Chain); err == nil {
		auraKey = overrides.CollatorKey(chains.NewRelaychain(network))
	}
	for _, p := range def.Parachains {
		for _, c := range p.Collators {
			spec := nodeSpec{
				node:      c,
				chain:     p.Chain,
				paraID:    p.ID,
				command:   p.DefaultCommand,
				specPath:  resolve(dir, p.ChainSpecPath),
				snapshot:  resolve(dir, firstNonEmpty(c.DBSnapshot, p.DefaultDBSnapshot)),
				relaySpec: relaySpec,
			}
			if auraKey != "" {
				spec.keystore = func(dir string) error { return WriteCollatorKeystore(dir, auraKey) }
			}
			rn, err := s.spawnNode(ctx, spec)
			if err != nil {
				return nil, err
			}
			nw.nodes = append(nw.nodes, rn)
		}
	}

	s.log.Info("network spawned",
		logging.String("namespace", s.ns.ID()),
		logging.Int("nodes", len(nw.nodes)),
		logging.Duration("took", time.Since(start)),
	)
	return nw, nil
}

type nodeSpec struct {
	node      Node
	chain     string
	paraID    uint32
	command   string
	specPath  string
	snapshot  string
	args      []string
	relaySpec string
	keystore  func(dir string) error
}

func (s *Spawner) spawnNode(ctx context.Context, spec nodeSpec) (*RunningNode, error) {
	home := filepath.Join(s.ns.BaseDir(), spec.node.Name)
	log := s.log.With(logging.Node(spec.node.Name), logging.Chain(spec.chain))

	if spec.snapshot != "" {
		log.Info("seeding node database", logging.String("snapshot", spec.snapshot))
		size, err := snapshot.Extract(ctx, spec.snapshot, home)
		if err != nil {
			return nil, fmt.Errorf("couldn't seed %s: %w", spec.node.Name, err)
		}
		log.Debug("node database seeded", logging.String("size", humanize.Bytes(uint64(size))))
	}
	if spec.keystore != nil {
		if err := spec.keystore(filepath.Join(home, keystoreDir)); err != nil {
			return nil, fmt.Errorf("couldn't write keystore of %s: %w", spec.node.Name, err)
		}
	}

	rpcPort := spec.node.RPCPort
	var err error
	if rpcPort == 0 {
		if rpcPort, err = s.ports(); err != nil {
			return nil, err
		}
	}
	promPort, err := s.ports()
	if err != nil {
		return nil, err
	}
	p2pPort, err := s.ports()
	if err != nil {
		return nil, err
	}

	args := provider.Args{
		"--chain", spec.specPath,
		"--name", spec.node.Name,
		"--base-path", filepath.Join(home, dataDir),
		"--keystore-path", filepath.Join(home, keystoreDir),
		"--rpc-port", port(rpcPort),
		"--prometheus-port", port(promPort),
		"--port", port(p2pPort),
		"--rpc-cors=all",
	}
	if spec.node.Validator {
		if spec.paraID != 0 {
			args = append(args, "--collator")
		} else {
			args = append(args, "--validator")
		}
	}
	args = append(args, spec.args...)
	args = append(args, spec.node.Args...)
	if spec.relaySpec != "" {
		relayP2P, err := s.ports()
		if err != nil {
			return nil, err
		}
		args = append(args, "--", "--chain", spec.relaySpec, "--port", port(relayP2P))
	}

	command := firstNonEmpty(spec.node.Command, spec.command)
	node, err := s.ns.SpawnNode(ctx, provider.SpawnOptions{
		Name:    spec.node.Name,
		Command: command,
		Args:    args,
	})
	if err != nil {
		return nil, fmt.Errorf("couldn't spawn %s: %w", spec.node.Name, err)
	}
	log.Info("node spawned",
		logging.String("command", command),
		logging.Int("rpcPort", int(rpcPort)),
		logging.Int("prometheusPort", int(promPort)),
	)

	return &RunningNode{
		Node:           node,
		Chain:          spec.chain,
		ParaID:         spec.paraID,
		RPCPort:        rpcPort,
		PrometheusPort: promPort,
	}, nil
}

func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func port(p uint16) string {
	return strconv.FormatUint(uint64(p), 10)
}
