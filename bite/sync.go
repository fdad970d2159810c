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
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/zombienet/zombie-bite/internal/logging"
	vgfs "github.com/zombienet/zombie-bite/libs/fs"
	"github.com/zombienet/zombie-bite/metrics"
	"github.com/zombienet/zombie-bite/provider"

	"github.com/cenkalti/backoff/v4"
	"github.com/schollz/progressbar/v3"
)

const (
	syncNodeName     = "sync-node"
	paraSyncNodeName = "sync-node-para-"

	doppelgangerLog = "doppelganger=debug"
)

// syncSpec describes a warp syncing node.
type syncSpec struct {
	name    string
	command string
	// chain is the --chain value, a chain name or a spec file.
	chain string
	// label names the chain in logs and metrics.
	label  string
	dbPath string
	// extra goes before the common flags, trailing after them.
	extra    []string
	trailing []string
	env      map[string]string
}

// syncChain starts a warp sync node and returns once the node is no longer
// major syncing. The node is left running.
func (p *Pipeline) syncChain(ctx context.Context, s syncSpec) (provider.Node, error) {
	rpcPort, err := p.ports()
	if err != nil {
		return nil, err
	}
	promPort, err := p.ports()
	if err != nil {
		return nil, err
	}

	args := provider.Args{
		"--chain", s.chain,
		"--sync", "warp",
		"-d", s.dbPath,
		"--rpc-port", strconv.Itoa(int(rpcPort)),
		"--prometheus-port", strconv.Itoa(int(promPort)),
	}
	args = append(args, s.extra...)
	args = append(args,
		"--no-hardware-benchmarks",
		// keeps the pre-migration state around
		"--state-pruning", p.env.StatePruning,
	)
	args = append(args, s.trailing...)

	log := p.log.With(logging.Chain(s.label), logging.Node(s.name))
	node, err := p.ns.SpawnNode(ctx, provider.SpawnOptions{
		Name:    s.name,
		Command: s.command,
		Args:    args,
		Env:     s.env,
	})
	if err != nil {
		return nil, fmt.Errorf("couldn't start sync of %s: %w", s.label, err)
	}
	url := fmt.Sprintf("http://127.0.0.1:%d/metrics", promPort)
	log.Info("sync node started",
		logging.String("logs", node.LogPath()),
		logging.String("metrics", url),
	)

	fail := func(err error) (provider.Node, error) {
		if derr := node.Destroy(context.WithoutCancel(ctx)); derr != nil {
			log.Warn("couldn't stop sync node", logging.Error(derr))
		}
		return nil, fmt.Errorf("%s: %w: %w", s.label, ErrSyncFailed, err)
	}

	if err := p.metrics.WaitReady(ctx, url); err != nil {
		return fail(err)
	}

	start := time.Now()
	bar := p.spinner(s.label)
	err = p.metrics.WaitSync(ctx, url, p.syncInterval, func() { _ = bar.Add(1) })
	_ = bar.Finish()
	if err != nil {
		return fail(err)
	}

	took := time.Since(start)
	metrics.SyncDurationObserve(s.label, took)
	log.Info("chain synced", logging.Duration("took", took))
	return node, nil
}

func (p *Pipeline) spinner(label string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetVisibility(p.progress),
		progressbar.OptionSetDescription("syncing "+label),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
}

func (p *Pipeline) stopSyncNode(ctx context.Context, node provider.Node) error {
	if err := node.Destroy(ctx); err != nil {
		return fmt.Errorf("couldn't stop %s: %w", node.Name(), err)
	}
	return nil
}

// download fetches a chain spec the node binary does not embed, retrying
// with an exponential backoff.
func (p *Pipeline) download(ctx context.Context, url, path string) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 2 * time.Minute

	var body []byte
	err := backoff.Retry(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("couldn't build request: %w", err))
		}
		resp, err := p.client.Do(req)
		if err != nil {
			return fmt.Errorf("couldn't deliver request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("unexpected status %s", resp.Status)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return backoff.Permanent(err)
			}
			return err
		}
		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("couldn't read response body: %w", err)
		}
		return nil
	}, backoff.WithContext(b, ctx))
	if err != nil {
		return fmt.Errorf("couldn't download %s: %w", url, err)
	}

	p.log.Info("chain spec downloaded", logging.String("url", url), logging.String("path", path))
	return vgfs.WriteFile(path, body)
}

// doppelgangerEnv is the environment every doppelganger node shares.
func (p *Pipeline) doppelgangerEnv() map[string]string {
	env := map[string]string{"RUST_LOG": doppelgangerLog}
	if p.env.DumpEnabled() {
		env["ZOMBIE_DUMP"] = "1"
	}
	return env
}
