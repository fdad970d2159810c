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

package chainspec

import (
	"context"
	"fmt"
	"strings"

	"github.com/zombienet/zombie-bite/chains"
	"github.com/zombienet/zombie-bite/storage"

	"golang.org/x/sync/errgroup"
)

// ForkOffSuffix is appended to the exported spec path to name the forked spec.
const ForkOffSuffix = ".fork-off"

// ParasHeads maps a para id to its hex encoded head data.
type ParasHeads map[uint32]string

type ForkOffConfig struct {
	// RenewConsensusWith is the raw spec of a local chain donating the
	// consensus state.
	RenewConsensusWith string
	// SimpleGovernance hands every governance seat to alice.
	SimpleGovernance bool
	// DisableDefaultBootnodes clears the spec boot nodes.
	DisableDefaultBootnodes bool
	// ParasHeads are installed in Paras.Heads, relay chains only.
	ParasHeads ParasHeads
}

const (
	aliceAccount = "0xd43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"
	aliceMembers = "0x04d43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"
	// alice as the single phragmen member, with stake and deposit
	alicePhragmenMembers = "0x04d43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d" +
		"0010a5d4e800000000000000000000000010a5d4e80000000000000000000000"
)

var (
	relayDroppedPallets = []string{"Babe", "Authorship", "Session", "Grandpa", "Beefy"}
	paraDroppedPallets  = []string{"Aura", "Authorship", "Session"}
)

// ForkOff turns the state exported from a synced node into a spec a fresh
// local network can start from, and returns the path it was written to.
// The consensus related pallets come from the donor spec, everything else
// from the exported state. Nothing is written if any step fails.
func ForkOff(ctx context.Context, exportedPath string, cfg ForkOffConfig, kind chains.Kind) (string, error) {
	var exported, donor *RawChainSpec
	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		if err := gctx.Err(); err != nil {
			return err
		}
		exported, err = ReadFile(exportedPath)
		return err
	})
	eg.Go(func() (err error) {
		if err := gctx.Err(); err != nil {
			return err
		}
		donor, err = ReadFile(cfg.RenewConsensusWith)
		return err
	})
	if err := eg.Wait(); err != nil {
		return "", fmt.Errorf("couldn't load chain specs: %w", err)
	}

	top := Merge(donor.Genesis.Raw.Top, Filter(exported.Genesis.Raw.Top, kind))
	if kind == chains.Relay {
		if err := ApplyRelayTouchUps(top, cfg.ParasHeads); err != nil {
			return "", err
		}
	} else {
		ApplyParaTouchUps(top)
	}
	if cfg.SimpleGovernance {
		ApplySimpleGovernance(top)
	}

	forked := donor
	forked.Genesis.Raw.Top = top
	if cfg.DisableDefaultBootnodes {
		forked.BootNodes = []string{}
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := exportedPath + ForkOffSuffix
	if err := forked.WriteFile(path); err != nil {
		return "", fmt.Errorf("couldn't write forked spec: %w", err)
	}
	return path, nil
}

// Filter returns the entries of top that survive forking a chain of the
// given kind. System storage is dropped except for accounts, and so is the
// storage of consensus pallets.
func Filter(top map[string]string, kind chains.Kind) map[string]string {
	dropped := relayDroppedPallets
	if kind == chains.Para {
		dropped = paraDroppedPallets
	}
	prefixes := make([]string, 0, len(dropped))
	for _, pallet := range dropped {
		prefixes = append(prefixes, storage.Hex0x(storage.PalletPrefix(pallet)))
	}
	system := storage.Hex0x(storage.PalletPrefix("System"))
	accounts := storage.Hex0x(storage.SystemAccount.Key())

	out := make(map[string]string, len(top))
	for k, v := range top {
		key := strings.ToLower(k)
		if strings.HasPrefix(key, system) {
			if strings.HasPrefix(key, accounts) {
				out[k] = v
			}
			continue
		}
		if hasAnyPrefix(key, prefixes) {
			continue
		}
		out[k] = v
	}
	return out
}

// Merge returns base overlaid with top. Keys are lowercased so the
// touch-ups can address them by their canonical hex form.
func Merge(base, top map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(top))
	for k, v := range base {
		out[strings.ToLower(k)] = v
	}
	for k, v := range top {
		out[strings.ToLower(k)] = v
	}
	return out
}

// ApplyRelayTouchUps pins the era, forgets the last runtime upgrade and
// session start, and installs the given parachain heads.
func ApplyRelayTouchUps(top map[string]string, heads ParasHeads) error {
	for id, head := range heads {
		data, err := storage.DecodeHex(head)
		if err != nil {
			return fmt.Errorf("invalid head of para %d: %w", id, err)
		}
		key := storage.ParasHeads.MapKey(storage.Twox64Concat, storage.U32LE(id))
		top[storage.Hex0x(key)] = storage.Hex0x(storage.EncodeBytes(data))
	}

	// ForceNone
	top[storage.Hex0x(storage.StakingForceEra.Key())] = "0x02"
	delete(top, storage.Hex0x(storage.SystemLastRuntimeUpgrade.Key()))
	delete(top, storage.Hex0x(storage.ParaSchedulerSessionStartBlock.Key()))
	return nil
}

func ApplyParaTouchUps(top map[string]string) {
	delete(top, storage.Hex0x(storage.SystemLastRuntimeUpgrade.Key()))
}

// ApplySimpleGovernance makes alice the sudo key and the only member of
// every council and committee.
func ApplySimpleGovernance(top map[string]string) {
	top[storage.Hex0x(storage.CouncilMembers.Key())] = aliceMembers
	top[storage.Hex0x(storage.TechnicalCommitteeMembers.Key())] = aliceMembers
	top[storage.Hex0x(storage.TechnicalMembershipMembers.Key())] = aliceMembers
	top[storage.Hex0x(storage.PhragmenElectionMembers.Key())] = alicePhragmenMembers
	top[storage.Hex0x(storage.SudoKey.Key())] = aliceAccount
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
