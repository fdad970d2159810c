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

package steps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/zombienet/zombie-bite/internal/logging"
	vgfs "github.com/zombienet/zombie-bite/libs/fs"
	"github.com/zombienet/zombie-bite/metrics"
	"github.com/zombienet/zombie-bite/network"
	"github.com/zombienet/zombie-bite/snapshot"

	"github.com/dustin/go-humanize"
)

const (
	nameKey          = "name"
	dbSnapshotKey    = "db_snapshot"
	defaultDBSnapKey = "default_db_snapshot"
	chainSpecKey     = "chain_spec_path"
	baseDirKey       = "base_dir"
)

// GenerateArtifacts prepares the step directory for the next step once
// the network of the step ran: one database snapshot per node, the chain
// specs, and a definition referencing them.
func (m *Manager) GenerateArtifacts(ctx context.Context, step Step) error {
	from, ok := step.From()
	if !ok {
		return fmt.Errorf("step %s has no predecessor to generate artifacts from", step)
	}
	fromDir, dir := m.Dir(from), m.Dir(step)
	configPath := filepath.Join(fromDir, network.ConfigFileName)

	def, err := network.Load(configPath)
	if err != nil {
		return fmt.Errorf("%s: %w", configPath, ErrMissingArtifact)
	}
	raw, err := vgfs.ReadFile(configPath)
	if err != nil {
		return err
	}
	if err := vgfs.EnsureDir(dir); err != nil {
		return err
	}

	var snaps []string
	for _, n := range nodeSnapshots(def, fromDir) {
		target := filepath.Join(dir, network.SnapshotFileName(n.prefix, n.chain))
		data := filepath.Join(dir, n.name, snapshot.DataPrefix)

		exists, err := vgfs.PathExists(data)
		if err != nil {
			return err
		}
		switch {
		case exists:
			size, err := snapshot.Create(ctx, data, target, snapshot.DataPrefix)
			if err != nil {
				return fmt.Errorf("couldn't snapshot %s: %w", n.name, err)
			}
			metrics.SnapshotBytesSet(n.chain, size)
			m.log.Info("node snapshot generated",
				logging.Node(n.name),
				logging.String("path", target),
				logging.String("size", humanize.Bytes(uint64(size))),
			)
		case n.previous != "":
			m.log.Warn("node has no data, carrying the previous snapshot forward",
				logging.Node(n.name),
				logging.String("snapshot", n.previous),
			)
			if err := vgfs.CopyFile(n.previous, target); err != nil {
				return fmt.Errorf("couldn't carry %s forward: %w", n.previous, ErrMissingArtifact)
			}
		default:
			return fmt.Errorf("%s has neither data nor snapshot: %w", n.name, ErrMissingArtifact)
		}
		snaps = append(snaps, target)
	}

	var specs []string
	for _, path := range append([]string{def.Relaychain.ChainSpecPath}, paraSpecs(def)...) {
		src := resolve(fromDir, path)
		dst := filepath.Join(dir, filepath.Base(src))
		if err := vgfs.CopyFile(src, dst); err != nil {
			return fmt.Errorf("couldn't copy chain spec %s: %w", src, ErrMissingArtifact)
		}
		specs = append(specs, dst)
	}

	baseDir := ""
	if next, ok := step.Next(); ok {
		baseDir = m.Dir(next)
	}
	rewritten, err := RewriteDefinition(raw, snaps, specs, baseDir)
	if err != nil {
		return err
	}
	if err := vgfs.WriteFile(filepath.Join(dir, network.ConfigFileName), rewritten); err != nil {
		return err
	}

	m.log.Info("artifacts generated",
		logging.String("step", step.String()),
		logging.Int("snapshots", len(snaps)),
		logging.Int("specs", len(specs)),
	)
	return nil
}

type nodeSnapshot struct {
	name string
	// prefix is the node name for relay chain nodes. Collators are alone on
	// their chain and their snapshot is named after it.
	prefix   string
	chain    string
	previous string
}

// nodeSnapshots lists the nodes in definition order, which is the order
// of the name keys in the file.
func nodeSnapshots(def *network.Definition, fromDir string) []nodeSnapshot {
	var out []nodeSnapshot
	for _, n := range def.Relaychain.Nodes {
		out = append(out, nodeSnapshot{
			name:     n.Name,
			prefix:   n.Name,
			chain:    def.Relaychain.Chain,
			previous: resolve(fromDir, firstNonEmpty(n.DBSnapshot, def.Relaychain.DefaultDBSnapshot)),
		})
	}
	for _, p := range def.Parachains {
		for _, c := range p.Collators {
			out = append(out, nodeSnapshot{
				name:     c.Name,
				chain:    p.Chain,
				previous: resolve(fromDir, firstNonEmpty(c.DBSnapshot, p.DefaultDBSnapshot)),
			})
		}
	}
	return out
}

func paraSpecs(def *network.Definition) []string {
	specs := make([]string, 0, len(def.Parachains))
	for _, p := range def.Parachains {
		specs = append(specs, p.ChainSpecPath)
	}
	return specs
}

// RewriteDefinition edits a definition file line by line. Every snapshot
// line is dropped, snaps are inserted after each node name in order, and
// the chain spec paths are replaced in order. base_dir is replaced when
// baseDir is set.
func RewriteDefinition(raw []byte, snaps, specs []string, baseDir string) ([]byte, error) {
	var (
		out     bytes.Buffer
		scanner = bufio.NewScanner(bytes.NewReader(raw))
	)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		key := lineKey(line)
		switch key {
		case dbSnapshotKey, defaultDBSnapKey:
			continue
		case nameKey:
			out.WriteString(line + "\n")
			if len(snaps) > 0 {
				out.WriteString(dbSnapshotKey + " = " + tomlString(snaps[0]) + "\n")
				snaps = snaps[1:]
			}
			continue
		case chainSpecKey:
			if len(specs) == 0 {
				return nil, fmt.Errorf("more chain spec paths than chain specs: %w", ErrMissingArtifact)
			}
			line = chainSpecKey + " = " + tomlString(specs[0])
			specs = specs[1:]
		case baseDirKey:
			if baseDir != "" {
				line = baseDirKey + " = " + tomlString(baseDir)
			}
		}
		out.WriteString(line + "\n")
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// lineKey returns the key of a "key = value" line.
func lineKey(line string) string {
	k, _, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok {
		return ""
	}
	return strings.TrimSpace(k)
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
