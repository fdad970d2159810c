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

package bite

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/zombienet/zombie-bite/chains"
	"github.com/zombienet/zombie-bite/chainspec"
	"github.com/zombienet/zombie-bite/internal/logging"
	vgfs "github.com/zombienet/zombie-bite/libs/fs"
	"github.com/zombienet/zombie-bite/network"
	"github.com/zombienet/zombie-bite/provider"
)

const exportedStateFileName = "exported-state.json"

// forkOff syncs with the regular node binaries, then rebuilds each chain
// spec from the exported state and the consensus of its local development
// chain. The network starts from these specs, without snapshots.
func (p *Pipeline) forkOff(ctx context.Context, opts Options) (ChainArtifact, []ChainArtifact, error) {
	relay := opts.Relay
	dir := p.ns.BaseDir()

	synced, err := p.syncParas(ctx, opts, false)
	if err != nil {
		return ChainArtifact{}, nil, err
	}

	heads := chainspec.ParasHeads{}
	paras := make([]ChainArtifact, 0, len(synced))
	for _, s := range synced {
		a := network.ParaArtifact(relay, s.para, chains.Para.Command(), dir, false)
		if err := p.forkChain(ctx, forkTarget{
			kind:     chains.Para,
			chain:    s.chainArg,
			local:    s.para.LocalChainName(relay),
			dbPath:   s.dbPath,
			specPath: a.SpecPath,
		}); err != nil {
			return ChainArtifact{}, nil, err
		}

		out, err := p.ns.RunCommand(ctx, provider.RunCommandOptions{
			Command: a.Command,
			Args:    []string{"export-genesis-head", "--chain", a.SpecPath},
		})
		if err != nil {
			return ChainArtifact{}, nil, fmt.Errorf("couldn't export genesis head of %s: %w", s.chain, err)
		}
		heads[s.para.ID()] = strings.TrimSpace(string(out))
		paras = append(paras, a)
	}

	dbPath := filepath.Join(dir, syncDBDir)
	node, err := p.syncChain(ctx, syncSpec{
		name:    syncNodeName,
		command: chains.Relay.Command(),
		chain:   relay.ChainName(),
		label:   relay.ChainName(),
		dbPath:  dbPath,
	})
	if err != nil {
		return ChainArtifact{}, nil, err
	}
	if err := p.stopSyncNode(ctx, node); err != nil {
		return ChainArtifact{}, nil, err
	}

	a := network.RelayArtifact(relay, chains.Relay.Command(), dir, false)
	if err := p.forkChain(ctx, forkTarget{
		kind:     chains.Relay,
		chain:    relay.ChainName(),
		local:    relay.LocalChainName(),
		dbPath:   dbPath,
		specPath: a.SpecPath,
		heads:    heads,
	}); err != nil {
		return ChainArtifact{}, nil, err
	}
	return a, paras, nil
}

type forkTarget struct {
	kind     chains.Kind
	chain    string
	local    string
	dbPath   string
	specPath string
	heads    chainspec.ParasHeads
}

func (p *Pipeline) forkChain(ctx context.Context, t forkTarget) error {
	command := t.kind.Command()

	exported, err := p.ns.RunCommand(ctx, provider.RunCommandOptions{
		Command: command,
		Args:    []string{"export-state", "--chain", t.chain, "-d", t.dbPath},
	})
	if err != nil {
		return fmt.Errorf("couldn't export state of %s: %w", t.chain, err)
	}
	exportedPath := filepath.Join(t.dbPath, exportedStateFileName)
	if err := vgfs.WriteFile(exportedPath, exported); err != nil {
		return err
	}
	p.log.Info("state exported", logging.String("chain", t.chain), logging.String("path", exportedPath))

	donor, err := p.ns.RunCommand(ctx, provider.RunCommandOptions{
		Command: command,
		Args:    []string{"build-spec", "--chain", t.local, "--raw"},
	})
	if err != nil {
		return fmt.Errorf("couldn't build spec of %s: %w", t.local, err)
	}
	donorPath := filepath.Join(p.ns.BaseDir(), t.local+"-raw.json")
	if err := vgfs.WriteFile(donorPath, donor); err != nil {
		return err
	}

	forked, err := chainspec.ForkOff(ctx, exportedPath, chainspec.ForkOffConfig{
		RenewConsensusWith:      donorPath,
		DisableDefaultBootnodes: true,
		ParasHeads:              t.heads,
	}, t.kind)
	if err != nil {
		return fmt.Errorf("couldn't fork off %s: %w", t.chain, err)
	}
	if err := vgfs.Move(forked, t.specPath); err != nil {
		return err
	}
	p.log.Info("chain forked off", logging.String("chain", t.chain), logging.String("spec", t.specPath))
	return nil
}
