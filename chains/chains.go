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

// Package chains is the catalogue of relay chains and system parachains
// that can be bitten.
package chains

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Kind distinguishes relay chains from parachains. Forking, filtering and
// node commands all depend on it.
type Kind int

const (
	Relay Kind = iota
	Para
)

func (k Kind) String() string {
	if k == Relay {
		return "relaychain"
	}
	return "parachain"
}

// Command is the regular node binary for the kind.
func (k Kind) Command() string {
	if k == Relay {
		return "polkadot"
	}
	return "polkadot-parachain"
}

// DoppelgangerCommand is the state-overriding sync binary for the kind.
func (k Kind) DoppelgangerCommand() string {
	if k == Relay {
		return "doppelganger"
	}
	return "doppelganger-parachain"
}

// Network is a supported relay chain network.
type Network string

const (
	Polkadot Network = "polkadot"
	Kusama   Network = "kusama"
	Paseo    Network = "paseo"
)

var ErrUnknownNetwork = errors.New("unknown network, should be one of polkadot, kusama, paseo")

func ParseNetwork(s string) (Network, error) {
	switch n := Network(strings.ToLower(strings.TrimSpace(s))); n {
	case Polkadot, Kusama, Paseo:
		return n, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrUnknownNetwork)
	}
}

// Relaychain is the relay chain to bite.
type Relaychain struct {
	Network Network
	// RuntimeOverride is an optional path to a wasm runtime replacing :code.
	RuntimeOverride string
	// SyncURL overrides the public endpoint parachain sync nodes follow.
	SyncURL string
	// RPCURL is queried to resolve AtBlock.
	RPCURL string
	// AtBlock pins the sync target when non zero.
	AtBlock uint64
}

func NewRelaychain(n Network) Relaychain {
	return Relaychain{Network: n}
}

func (r Relaychain) Kind() Kind { return Relay }

// ChainName is the --chain value of the live network.
func (r Relaychain) ChainName() string {
	return string(r.Network)
}

// LocalChainName is the name of the local development chain used as
// consensus donor when forking off.
func (r Relaychain) LocalChainName() string {
	return string(r.Network) + "-local"
}

// SyncEndpoint is the websocket endpoint parachain sync nodes use as relay.
func (r Relaychain) SyncEndpoint() string {
	if r.SyncURL != "" {
		return r.SyncURL
	}
	return fmt.Sprintf("wss://%s-rpc.dwellir.com", r.Network)
}

// RPCEndpoint is the endpoint used to resolve pinned blocks.
func (r Relaychain) RPCEndpoint() string {
	if r.RPCURL != "" {
		return r.RPCURL
	}
	return r.SyncEndpoint()
}

// EpochDuration is the session length, in blocks, the forked chain runs with.
func (r Relaychain) EpochDuration() uint64 {
	switch r.Network {
	case Kusama, Paseo:
		return 600
	default:
		return 2400
	}
}

// DBDirName is the directory of the chain under <db>/chains.
func (r Relaychain) DBDirName() string {
	if r.Network == Kusama {
		return "ksmcc3"
	}
	return string(r.Network)
}

// ParaType is a supported system parachain.
type ParaType string

const (
	AssetHub  ParaType = "asset-hub"
	Coretime  ParaType = "coretime"
	People    ParaType = "people"
	BridgeHub ParaType = "bridge-hub"
)

var ErrUnknownParachain = errors.New("unknown parachain, should be one of asset-hub, coretime, people, bridge-hub")

func ParseParaType(s string) (ParaType, error) {
	switch p := ParaType(strings.ToLower(strings.TrimSpace(s))); p {
	case AssetHub, Coretime, People, BridgeHub:
		return p, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrUnknownParachain)
	}
}

const paseoAssetHubSpecURL = "https://paseo-r2.zondax.ch/chain-specs/paseo-asset-hub.json"

// Parachain is a system parachain to bite along with its relay chain.
type Parachain struct {
	Type            ParaType
	RuntimeOverride string
	RPCURL          string
	AtBlock         uint64
}

func NewParachain(t ParaType) Parachain {
	return Parachain{Type: t}
}

func (p Parachain) Kind() Kind { return Para }

func (p Parachain) ID() uint32 {
	switch p.Type {
	case Coretime:
		return 1005
	case People:
		return 1001
	case BridgeHub:
		return 1002
	default:
		return 1000
	}
}

// ChainName is the --chain value of the live parachain, e.g. asset-hub-polkadot.
func (p Parachain) ChainName(relay Relaychain) string {
	return fmt.Sprintf("%s-%s", p.Type, relay.Network)
}

func (p Parachain) LocalChainName(relay Relaychain) string {
	return p.ChainName(relay) + "-local"
}

// SpecURL is the location of a chain spec the node binary does not embed.
func (p Parachain) SpecURL(relay Relaychain) (string, bool) {
	if p.Type == AssetHub && relay.Network == Paseo {
		return paseoAssetHubSpecURL, true
	}
	return "", false
}

// BiteMethod selects how the live state is turned into a local network.
type BiteMethod string

const (
	Doppelganger BiteMethod = "doppelganger"
	ForkOff      BiteMethod = "fork-off"
)

// ParseBiteMethod defaults to Doppelganger for anything but fork-off.
func ParseBiteMethod(s string) BiteMethod {
	if strings.TrimSpace(s) == string(ForkOff) {
		return ForkOff
	}
	return Doppelganger
}

func isBiteMethod(s string) bool {
	return s == string(ForkOff) || s == string(Doppelganger)
}

// ParseArgs reads the positional bite arguments:
//
//	<relay[:wasm]> [para[:wasm],...] [method]
//
// The parachain list can be omitted, in which case the method may take its
// position.
func ParseArgs(args []string) (Relaychain, []Parachain, BiteMethod, error) {
	if len(args) == 0 {
		return Relaychain{}, nil, "", fmt.Errorf("missing relaychain argument: %w", ErrUnknownNetwork)
	}

	name, wasm := splitOverride(args[0])
	network, err := ParseNetwork(name)
	if err != nil {
		return Relaychain{}, nil, "", err
	}
	relay := Relaychain{Network: network, RuntimeOverride: wasm}

	method := Doppelganger
	var paras []Parachain
	rest := args[1:]
	if len(rest) > 0 && !isBiteMethod(rest[0]) {
		paras, err = ParseParas(rest[0])
		if err != nil {
			return Relaychain{}, nil, "", err
		}
		rest = rest[1:]
	}
	if len(rest) > 0 {
		method = ParseBiteMethod(rest[0])
	}

	return relay, paras, method, nil
}

// ParseParas reads a comma separated para[:wasm] list. Duplicates are
// rejected.
func ParseParas(list string) ([]Parachain, error) {
	var (
		paras []Parachain
		seen  = map[ParaType]struct{}{}
	)
	for _, entry := range strings.Split(list, ",") {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		name, wasm := splitOverride(entry)
		t, err := ParseParaType(name)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[t]; ok {
			return nil, fmt.Errorf("parachain %s given more than once", t)
		}
		seen[t] = struct{}{}
		paras = append(paras, Parachain{Type: t, RuntimeOverride: wasm})
	}
	return paras, nil
}

func splitOverride(s string) (string, string) {
	name, wasm, _ := strings.Cut(strings.TrimSpace(s), ":")
	return name, wasm
}
