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
	"fmt"
	"net"
	"path/filepath"

	"github.com/zombienet/zombie-bite/chains"
	"github.com/zombienet/zombie-bite/config"
	"github.com/zombienet/zombie-bite/keyring"
	vgfs "github.com/zombienet/zombie-bite/libs/fs"
)

const (
	defaultSpawnTimeout = 3600
	localhost           = "127.0.0.1"
)

// ChainArtifact is what a bite produces for one chain: the spec to start
// from and the database to seed the nodes with.
type ChainArtifact struct {
	Command string
	Chain   string
	// SpecPath is the chain spec the nodes run.
	SpecPath string
	// SnapshotPath is empty when the nodes start from genesis.
	SnapshotPath    string
	RuntimeOverride string
	// ParaID is zero for the relay chain.
	ParaID uint32
}

// ValidatorCount is the size of the local validator set: two plus one per
// parachain, bounded by the keyring.
func ValidatorCount(paras int) int {
	return keyring.ClampCount(keyring.MinValidators + paras)
}

// CollatorName is the name of the single collator of a parachain.
func CollatorName(paraID uint32) string {
	return fmt.Sprintf("collator-%d", paraID)
}

// PortFunc returns a port to bind a node RPC server to.
type PortFunc func() (uint16, error)

// FreePort asks the kernel for an unused local port.
func FreePort() (uint16, error) {
	l, err := net.Listen("tcp", net.JoinHostPort(localhost, "0"))
	if err != nil {
		return 0, fmt.Errorf("couldn't find a free port: %w", err)
	}
	defer l.Close()
	return uint16(l.Addr().(*net.TCPAddr).Port), nil
}

// Builder turns bite artifacts into a definition.
type Builder struct {
	Env config.Env
	// SpawnDir is the namespace directory of the spawned network.
	SpawnDir string
	Ports    PortFunc
}

func (b *Builder) port(fixed uint16) (uint16, error) {
	if fixed != 0 {
		return fixed, nil
	}
	ports := b.Ports
	if ports == nil {
		ports = FreePort
	}
	return ports()
}

// Build creates the definition of the relay chain validators and one
// collator per parachain. Collators follow alice over RPC.
func (b *Builder) Build(relay ChainArtifact, paras []ChainArtifact) (*Definition, error) {
	alicePort, err := b.port(b.Env.AliceRPCPort())
	if err != nil {
		return nil, err
	}
	bobPort, err := b.port(b.Env.BobPort)
	if err != nil {
		return nil, err
	}

	relayArgs := []string{
		"--log=" + b.Env.RustLogRC,
		"--discover-local",
		"--allow-private-ip",
		"--no-hardware-benchmarks",
		"--state-pruning=" + b.Env.StatePruning,
	}
	relayArgs = append(relayArgs, b.Env.RelayExtraArgs()...)

	def := &Definition{
		Settings: Settings{
			BaseDir: b.SpawnDir,
			Timeout: defaultSpawnTimeout,
		},
		Relaychain: Relaychain{
			Chain:             relay.Chain,
			DefaultCommand:    relay.Command,
			ChainSpecPath:     relay.SpecPath,
			DefaultDBSnapshot: relay.SnapshotPath,
			DefaultArgs:       relayArgs,
		},
	}

	for i, v := range keyring.Select(ValidatorCount(len(paras))) {
		node := Node{Name: v.Name, Validator: true}
		switch i {
		case 0:
			node.RPCPort = alicePort
		case 1:
			node.RPCPort = bobPort
		}
		def.Relaychain.Nodes = append(def.Relaychain.Nodes, node)
	}

	for i, p := range paras {
		// the fixed collator port only applies to the first parachain
		var fixed uint16
		if i == 0 {
			fixed = b.Env.AHPort
		}
		port, err := b.port(fixed)
		if err != nil {
			return nil, err
		}

		args := []string{
			fmt.Sprintf("--relay-chain-rpc-urls=ws://%s:%d", localhost, alicePort),
			"--log=" + b.Env.RustLogCol,
			"--force-authoring",
			"--discover-local",
			"--allow-private-ip",
			"--no-hardware-benchmarks",
			"--state-pruning=" + b.Env.StatePruning,
		}
		args = append(args, b.Env.ParaExtraArgs()...)

		def.Parachains = append(def.Parachains, Parachain{
			ID:                p.ParaID,
			Chain:             p.Chain,
			DefaultCommand:    p.Command,
			ChainSpecPath:     p.SpecPath,
			DefaultDBSnapshot: p.SnapshotPath,
			Collators: []Node{{
				Name:      CollatorName(p.ParaID),
				Validator: true,
				RPCPort:   port,
				Args:      args,
			}},
		})
	}

	return def, nil
}

// Relocate moves the spec and snapshot of the artifact into dir and makes
// its paths relative to it.
func Relocate(a ChainArtifact, dir string) (ChainArtifact, error) {
	if err := vgfs.EnsureDir(dir); err != nil {
		return ChainArtifact{}, err
	}
	move := func(path string) (string, error) {
		if path == "" {
			return "", nil
		}
		name := filepath.Base(path)
		if err := vgfs.Move(path, filepath.Join(dir, name)); err != nil {
			return "", err
		}
		return "./" + name, nil
	}

	var err error
	if a.SpecPath, err = move(a.SpecPath); err != nil {
		return ChainArtifact{}, err
	}
	if a.SnapshotPath, err = move(a.SnapshotPath); err != nil {
		return ChainArtifact{}, err
	}
	return a, nil
}

// RelayArtifact and ParaArtifact name the default artifacts a bite leaves
// in dir for a chain.
func RelayArtifact(relay chains.Relaychain, command, dir string, withSnapshot bool) ChainArtifact {
	a := ChainArtifact{
		Command:         command,
		Chain:           relay.ChainName(),
		SpecPath:        filepath.Join(dir, SpecFileName(relay.ChainName())),
		RuntimeOverride: relay.RuntimeOverride,
	}
	if withSnapshot {
		a.SnapshotPath = filepath.Join(dir, SnapshotFileName("", relay.ChainName()))
	}
	return a
}

func ParaArtifact(relay chains.Relaychain, para chains.Parachain, command, dir string, withSnapshot bool) ChainArtifact {
	chain := para.ChainName(relay)
	a := ChainArtifact{
		Command:         command,
		Chain:           chain,
		SpecPath:        filepath.Join(dir, SpecFileName(chain)),
		RuntimeOverride: para.RuntimeOverride,
		ParaID:          para.ID(),
	}
	if withSnapshot {
		a.SnapshotPath = filepath.Join(dir, SnapshotFileName("", chain))
	}
	return a
}

// SpecFileName is <chain>-spec.json.
func SpecFileName(chain string) string {
	return chain + "-spec.json"
}

// SnapshotFileName is <chain>-snap.tgz, or <node>-<chain>-snap.tgz for the
// database of a single node.
func SnapshotFileName(node, chain string) string {
	if node == "" {
		return chain + "-snap.tgz"
	}
	return node + "-" + chain + "-snap.tgz"
}
