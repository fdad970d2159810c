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

// Package network describes a local relay chain network with its
// parachains, stores the description as TOML and spawns it.
package network

import (
	"bytes"
	"fmt"
	"path/filepath"

	vgfs "github.com/zombienet/zombie-bite/libs/fs"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// ConfigFileName is the definition file of each step directory.
const ConfigFileName = "config.toml"

var ErrNoValidators = errors.New("network definition has no relay chain node")

// Definition is a network definition. The layout follows the zombienet TOML
// format so the files stay usable by other tooling.
type Definition struct {
	Settings   Settings    `toml:"settings"`
	Relaychain Relaychain  `toml:"relaychain"`
	Parachains []Parachain `toml:"parachains,omitempty"`
}

type Settings struct {
	// BaseDir is the namespace directory the nodes run in.
	BaseDir string `toml:"base_dir,omitempty"`
	// Timeout bounds the spawn of the whole network, in seconds.
	Timeout uint32 `toml:"timeout,omitempty"`
}

type Relaychain struct {
	Chain             string   `toml:"chain"`
	DefaultCommand    string   `toml:"default_command"`
	ChainSpecPath     string   `toml:"chain_spec_path"`
	DefaultDBSnapshot string   `toml:"default_db_snapshot,omitempty"`
	DefaultArgs       []string `toml:"default_args,omitempty"`
	Nodes             []Node   `toml:"nodes"`
}

type Parachain struct {
	ID                uint32 `toml:"id"`
	Chain             string `toml:"chain"`
	DefaultCommand    string `toml:"default_command"`
	ChainSpecPath     string `toml:"chain_spec_path"`
	DefaultDBSnapshot string `toml:"default_db_snapshot,omitempty"`
	Collators         []Node `toml:"collators"`
}

// Node is a validator or a collator. Name must stay the first field, the
// artifacts of later steps are inserted right after it.
type Node struct {
	Name       string   `toml:"name"`
	DBSnapshot string   `toml:"db_snapshot,omitempty"`
	Validator  bool     `toml:"validator"`
	Command    string   `toml:"command,omitempty"`
	RPCPort    uint16   `toml:"rpc_port,omitempty"`
	Args       []string `toml:"args,omitempty"`
}

// Load reads a definition file.
func Load(path string) (*Definition, error) {
	var def Definition
	if _, err := toml.DecodeFile(path, &def); err != nil {
		return nil, fmt.Errorf("couldn't decode network definition %s: %w", path, err)
	}
	if len(def.Relaychain.Nodes) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoValidators)
	}
	return &def, nil
}

// Dump encodes the definition as TOML.
func (d *Definition) Dump() ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	// flat keys keep the file editable line by line
	enc.Indent = ""
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("couldn't encode network definition: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile dumps the definition to dir/config.toml.
func (d *Definition) WriteFile(dir string) (string, error) {
	data, err := d.Dump()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, ConfigFileName)
	if err := vgfs.WriteFile(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// NodeNames lists the relay chain nodes then the collators, in spawn order.
func (d *Definition) NodeNames() []string {
	var names []string
	for _, n := range d.Relaychain.Nodes {
		names = append(names, n.Name)
	}
	for _, p := range d.Parachains {
		for _, c := range p.Collators {
			names = append(names, c.Name)
		}
	}
	return names
}

// NodeChain returns the chain the named node runs.
func (d *Definition) NodeChain(name string) (string, bool) {
	for _, n := range d.Relaychain.Nodes {
		if n.Name == name {
			return d.Relaychain.Chain, true
		}
	}
	for _, p := range d.Parachains {
		for _, c := range p.Collators {
			if c.Name == name {
				return p.Chain, true
			}
		}
	}
	return "", false
}
