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
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/zombienet/zombie-bite/chains"
	"github.com/zombienet/zombie-bite/chainspec"
	"github.com/zombienet/zombie-bite/internal/logging"
	vgfs "github.com/zombienet/zombie-bite/libs/fs"
	"github.com/zombienet/zombie-bite/metrics"
	"github.com/zombienet/zombie-bite/network"
	"github.com/zombienet/zombie-bite/overrides"
	"github.com/zombienet/zombie-bite/provider"
	"github.com/zombienet/zombie-bite/rpc"
	"github.com/zombienet/zombie-bite/snapshot"
	"github.com/zombienet/zombie-bite/storage"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
)

const (
	syncDBDir    = "sync-db"
	parasDir     = "paras"
	headFileName = "head.txt"

	rcHeaderFileName = "rc-header.json"
)

// paraSync is a synced parachain whose node is stopped.
type paraSync struct {
	para  chains.Parachain
	chain string
	// chainArg is what the node was started with, the chain name or the
	// downloaded spec.
	chainArg string
	dbPath   string
	headPath string
}

func (p *Pipeline) doppelganger(ctx context.Context, opts Options) (ChainArtifact, []ChainArtifact, error) {
	synced, err := p.syncParas(ctx, opts, true)
	if err != nil {
		return ChainArtifact{}, nil, err
	}

	dir := p.ns.BaseDir()
	heads := map[string]string{}
	paras := make([]ChainArtifact, 0, len(synced))
	for _, s := range synced {
		a := network.ParaArtifact(opts.Relay, s.para, chains.Para.DoppelgangerCommand(), dir, true)
		if err := p.buildSpec(ctx, a.Command, s.chainArg, a.SpecPath); err != nil {
			return ChainArtifact{}, nil, err
		}
		if err := p.snapshot(ctx, s.dbPath, a.SnapshotPath, a.Chain); err != nil {
			return ChainArtifact{}, nil, err
		}

		head, err := vgfs.ReadFile(s.headPath)
		if err != nil {
			return ChainArtifact{}, nil, fmt.Errorf("couldn't read head of %s: %w", s.chain, err)
		}
		key, value, err := HeadEnv(s.para.ID(), string(head))
		if err != nil {
			return ChainArtifact{}, nil, fmt.Errorf("%s: %w", s.chain, err)
		}
		heads[key] = value
		paras = append(paras, a)
	}

	relay, err := p.doppelgangerRelay(ctx, opts, heads)
	if err != nil {
		return ChainArtifact{}, nil, err
	}
	return relay, paras, nil
}

// syncParas syncs every parachain concurrently. The first failure cancels
// the others.
func (p *Pipeline) syncParas(ctx context.Context, opts Options, doppelganger bool) ([]paraSync, error) {
	synced := make([]paraSync, len(opts.Paras))
	eg, ctx := errgroup.WithContext(ctx)
	for i, para := range opts.Paras {
		i, para := i, para
		eg.Go(func() error {
			s, err := p.syncPara(ctx, opts.Relay, para, doppelganger)
			if err != nil {
				return err
			}
			synced[i] = *s
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return synced, nil
}

func (p *Pipeline) syncPara(ctx context.Context, relay chains.Relaychain, para chains.Parachain, doppelganger bool) (*paraSync, error) {
	dir := p.ns.BaseDir()
	chain := para.ChainName(relay)
	paraDir := filepath.Join(dir, parasDir, chain)
	if err := vgfs.EnsureDir(paraDir); err != nil {
		return nil, err
	}

	s := &paraSync{
		para:     para,
		chain:    chain,
		chainArg: chain,
		dbPath:   filepath.Join(paraDir, syncDBDir),
		headPath: filepath.Join(paraDir, headFileName),
	}
	if url, ok := para.SpecURL(relay); ok {
		s.chainArg = filepath.Join(dir, chain+".json")
		if err := p.download(ctx, url, s.chainArg); err != nil {
			return nil, fmt.Errorf("%s: %w: %w", chain, ErrSyncFailed, err)
		}
	}

	command := chains.Para.Command()
	env := map[string]string{}
	if doppelganger {
		command = chains.Para.DoppelgangerCommand()
		env = p.doppelgangerEnv()

		set, err := overrides.BuildPara(overrides.ParaOptions{
			Relay:       relay,
			RuntimePath: para.RuntimeOverride,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", chain, err)
		}
		overridesPath := overrides.ParaFile(dir, para.ID())
		if err := set.WriteFile(overridesPath); err != nil {
			return nil, err
		}
		env["ZOMBIE_PARA_OVERRIDES_PATH"] = overridesPath
		env["ZOMBIE_PARA_HEAD_PATH"] = s.headPath
		env["ZOMBIE_INFO_PATH"] = paraInfoPath(dir, para.ID())

		if para.AtBlock != 0 {
			path := filepath.Join(dir, fmt.Sprintf("para-%d-header.json", para.ID()))
			if err := p.writeHeader(ctx, para.RPCURL, para.AtBlock, path); err != nil {
				return nil, fmt.Errorf("%s: %w", chain, err)
			}
			env["ZOMBIE_TARGET_HEADER_PATH"] = path
		}
	}

	node, err := p.syncChain(ctx, syncSpec{
		name:     paraSyncNodeName + strings.ReplaceAll(chain, "-", "_"),
		command:  command,
		chain:    s.chainArg,
		label:    chain,
		dbPath:   s.dbPath,
		extra:    []string{"--relay-chain-rpc-url", relay.SyncEndpoint()},
		trailing: []string{"--", "--chain", relay.ChainName()},
		env:      env,
	})
	if err != nil {
		return nil, err
	}
	if err := p.stopSyncNode(ctx, node); err != nil {
		return nil, err
	}
	return s, nil
}

func (p *Pipeline) doppelgangerRelay(ctx context.Context, opts Options, heads map[string]string) (ChainArtifact, error) {
	relay := opts.Relay
	dir := p.ns.BaseDir()

	paraOverrides := make([]overrides.ParaOverride, 0, len(opts.Paras))
	for _, para := range opts.Paras {
		paraOverrides = append(paraOverrides, overrides.ParaOverride{
			ID:          para.ID(),
			RuntimePath: para.RuntimeOverride,
		})
	}
	set, err := overrides.BuildRelay(overrides.RelayOptions{
		Validators:  network.ValidatorCount(len(opts.Paras)),
		Paras:       paraOverrides,
		RuntimePath: relay.RuntimeOverride,
		SudoKey:     p.env.Sudo,
	})
	if err != nil {
		return ChainArtifact{}, fmt.Errorf("%s: %w", relay.ChainName(), err)
	}
	overridesPath := overrides.RelayFile(dir)
	if err := set.WriteFile(overridesPath); err != nil {
		return ChainArtifact{}, err
	}

	env := p.doppelgangerEnv()
	for k, v := range heads {
		env[k] = v
	}
	env["ZOMBIE_RC_OVERRIDES_PATH"] = overridesPath
	env["ZOMBIE_INFO_PATH"] = filepath.Join(dir, rcInfoFileName)
	if relay.Network != chains.Polkadot {
		env["ZOMBIE_RC_EPOCH_DURATION"] = strconv.FormatUint(relay.EpochDuration(), 10)
	}
	if relay.AtBlock != 0 {
		path := filepath.Join(dir, rcHeaderFileName)
		if err := p.writeHeader(ctx, relay.RPCEndpoint(), relay.AtBlock, path); err != nil {
			return ChainArtifact{}, fmt.Errorf("%s: %w", relay.ChainName(), err)
		}
		env["ZOMBIE_TARGET_HEADER_PATH"] = path
	}

	dbPath := filepath.Join(dir, syncDBDir)
	node, err := p.syncChain(ctx, syncSpec{
		name:    syncNodeName,
		command: chains.Relay.DoppelgangerCommand(),
		chain:   relay.ChainName(),
		label:   relay.ChainName(),
		dbPath:  dbPath,
		env:     env,
	})
	if err != nil {
		return ChainArtifact{}, err
	}
	if err := p.stopSyncNode(ctx, node); err != nil {
		return ChainArtifact{}, err
	}

	a := network.RelayArtifact(relay, chains.Relay.DoppelgangerCommand(), dir, true)
	if err := p.buildSpec(ctx, a.Command, relay.ChainName(), a.SpecPath); err != nil {
		return ChainArtifact{}, err
	}

	// the local validators rebuild the parachains database
	parachainsDB := filepath.Join(dbPath, "chains", relay.DBDirName(), "db", "full", "parachains")
	p.log.Debug("removing parachains database", logging.String("path", parachainsDB))
	if err := os.RemoveAll(parachainsDB); err != nil {
		return ChainArtifact{}, fmt.Errorf("couldn't remove parachains database: %w", err)
	}

	if err := p.snapshot(ctx, dbPath, a.SnapshotPath, a.Chain); err != nil {
		return ChainArtifact{}, err
	}
	return a, nil
}

// buildSpec writes the spec of chain, without boot nodes, to path.
func (p *Pipeline) buildSpec(ctx context.Context, command, chain, path string) error {
	out, err := p.ns.RunCommand(ctx, provider.RunCommandOptions{
		Command: command,
		Args:    []string{"build-spec", "--chain", chain},
	})
	if err != nil {
		return fmt.Errorf("couldn't build spec of %s: %w", chain, err)
	}
	if err := vgfs.WriteFile(path, out); err != nil {
		return err
	}
	if err := chainspec.ClearBootNodes(path); err != nil {
		return err
	}
	p.log.Info("chain spec generated", logging.String("chain", chain), logging.String("path", path))
	return nil
}

func (p *Pipeline) snapshot(ctx context.Context, dbPath, target, chain string) error {
	size, err := snapshot.Create(ctx, dbPath, target, snapshot.DataPrefix)
	if err != nil {
		return fmt.Errorf("couldn't snapshot %s: %w", chain, err)
	}
	metrics.SnapshotBytesSet(chain, size)
	p.log.Info("snapshot generated",
		logging.Chain(chain),
		logging.String("path", target),
		logging.String("size", humanize.Bytes(uint64(size))),
	)
	return nil
}

func (p *Pipeline) writeHeader(ctx context.Context, url string, block uint64, path string) error {
	if url == "" {
		return fmt.Errorf("an rpc url is needed to sync up to block %d", block)
	}
	if err := rpc.WriteHeaderAt(ctx, url, block, path, p.headerTimeout); err != nil {
		return fmt.Errorf("couldn't resolve header of block %d: %w", block, err)
	}
	p.log.Info("sync target pinned", logging.Uint64("block", block), logging.String("header", path))
	return nil
}

// HeadEnv is the environment variable handing the head of a parachain to
// the relay chain sync node: the Paras.Heads key of the para and the SCALE
// encoded head data, both as plain hex.
func HeadEnv(id uint32, head string) (string, string, error) {
	data, err := storage.DecodeHex(strings.TrimSpace(head))
	if err != nil {
		return "", "", fmt.Errorf("invalid head of para %d: %w", id, err)
	}
	key := storage.ParasHeads.HexMapKey(storage.Twox64Concat, storage.U32LE(id))
	return "ZOMBIE_" + key, storage.Hex(storage.EncodeBytes(data)), nil
}
