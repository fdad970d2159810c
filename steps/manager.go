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
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zombienet/zombie-bite/internal/logging"
	vgfs "github.com/zombienet/zombie-bite/libs/fs"
	"github.com/zombienet/zombie-bite/network"

	"github.com/pkg/errors"
)

const (
	namedLogger    = "steps"
	stagingSuffix  = "-staging"
	StopFileName   = "stop.txt"
	lockFileName   = ".lock"
	stagingDirMode = 0o755
)

var ErrMissingArtifact = errors.New("missing artifact")

// Manager owns the step directories of a base path.
type Manager struct {
	log     *logging.Logger
	baseDir string
}

func NewManager(log *logging.Logger, baseDir string) *Manager {
	return &Manager{
		log:     log.Named(namedLogger),
		baseDir: baseDir,
	}
}

func (m *Manager) BaseDir() string { return m.baseDir }

// Dir is the absolute directory of the step.
func (m *Manager) Dir(step Step) string {
	return filepath.Join(m.baseDir, step.Dir())
}

func (m *Manager) debugDir(step Step) string {
	return filepath.Join(m.baseDir, step.DebugDir())
}

func (m *Manager) stagingDir(step Step) string {
	return filepath.Join(m.baseDir, "."+step.Dir()+stagingSuffix)
}

// StopFile is the file whose presence ends the monitor.
func (m *Manager) StopFile() string {
	return filepath.Join(m.baseDir, StopFileName)
}

// Lock makes sure a single run owns the base path.
func (m *Manager) Lock() (func(), error) {
	if err := vgfs.EnsureDir(m.baseDir); err != nil {
		return nil, err
	}
	return vgfs.Lock(filepath.Join(m.baseDir, lockFileName))
}

// Enter gives the step an empty directory. Its previous content, if any,
// becomes the debug backup, replacing the older one.
func (m *Manager) Enter(step Step) error {
	staging, err := m.newStaging(step)
	if err != nil {
		return err
	}
	return m.swap(step, staging)
}

// Promote keeps in the step directory only what the next step is spawned
// from: the network definition and the specs and snapshots it references.
// Everything else is left in the debug backup.
func (m *Manager) Promote(step Step) error {
	dir := m.Dir(step)
	def, err := network.Load(filepath.Join(dir, network.ConfigFileName))
	if err != nil {
		return fmt.Errorf("%s: %w", network.ConfigFileName, ErrMissingArtifact)
	}
	needed := append([]string{network.ConfigFileName}, Artifacts(def, dir)...)

	staging, err := m.newStaging(step)
	if err != nil {
		return err
	}
	for _, name := range needed {
		src := filepath.Join(dir, name)
		ok, err := vgfs.FileExists(src)
		if err != nil {
			return err
		}
		if !ok {
			_ = os.RemoveAll(staging)
			return fmt.Errorf("%s/%s: %w", step.Dir(), name, ErrMissingArtifact)
		}
		if err := vgfs.LinkOrCopy(src, filepath.Join(staging, name)); err != nil {
			_ = os.RemoveAll(staging)
			return err
		}
		m.log.Debug("artifact kept", logging.String("step", step.String()), logging.String("file", name))
	}

	if err := m.swap(step, staging); err != nil {
		return err
	}
	m.log.Info("step promoted",
		logging.String("step", step.String()),
		logging.Strings("artifacts", needed),
	)
	return nil
}

// Recover completes a swap interrupted between the two renames, and drops
// staging directories of swaps that never started.
func (m *Manager) Recover() error {
	for _, step := range []Step{Bite, Spawn, Post, After} {
		staging := m.stagingDir(step)
		stagingExists, err := vgfs.PathExists(staging)
		if err != nil {
			return err
		}
		if !stagingExists {
			continue
		}
		dirExists, err := vgfs.PathExists(m.Dir(step))
		if err != nil {
			return err
		}
		if dirExists {
			m.log.Info("dropping stale staging directory", logging.String("step", step.String()))
			if err := os.RemoveAll(staging); err != nil {
				return err
			}
			continue
		}
		m.log.Info("completing interrupted step swap", logging.String("step", step.String()))
		if err := os.Rename(staging, m.Dir(step)); err != nil {
			return fmt.Errorf("couldn't recover step %s: %w", step, err)
		}
	}
	return nil
}

func (m *Manager) newStaging(step Step) (string, error) {
	staging := m.stagingDir(step)
	if err := os.RemoveAll(staging); err != nil {
		return "", err
	}
	if err := os.MkdirAll(staging, stagingDirMode); err != nil {
		return "", fmt.Errorf("couldn't create staging directory for %s: %w", step, err)
	}
	return staging, nil
}

// swap makes staging the step directory. The step directory only ever
// goes missing between the two renames, see Recover.
func (m *Manager) swap(step Step, staging string) error {
	dir, debug := m.Dir(step), m.debugDir(step)

	if err := os.RemoveAll(debug); err != nil {
		return fmt.Errorf("couldn't remove debug directory %s: %w", debug, err)
	}
	exists, err := vgfs.PathExists(dir)
	if err != nil {
		return err
	}
	if exists {
		if err := os.Rename(dir, debug); err != nil {
			return fmt.Errorf("couldn't back %s up: %w", dir, err)
		}
		m.log.Debug("step directory backed up", logging.String("from", dir), logging.String("to", debug))
	}
	if err := os.Rename(staging, dir); err != nil {
		return fmt.Errorf("couldn't move staging directory of %s into place: %w", step, err)
	}
	return nil
}

// Artifacts lists the files of dir the definition references, by base
// name. Paths outside of dir are not artifacts of the step.
func Artifacts(def *network.Definition, dir string) []string {
	seen := map[string]struct{}{}
	add := func(path string) {
		if path == "" {
			return
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		if filepath.Dir(filepath.Clean(path)) != filepath.Clean(dir) {
			return
		}
		seen[filepath.Base(path)] = struct{}{}
	}

	add(def.Relaychain.ChainSpecPath)
	add(def.Relaychain.DefaultDBSnapshot)
	for _, n := range def.Relaychain.Nodes {
		add(n.DBSnapshot)
	}
	for _, p := range def.Parachains {
		add(p.ChainSpecPath)
		add(p.DefaultDBSnapshot)
		for _, c := range p.Collators {
			add(c.DBSnapshot)
		}
	}

	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// tomlString quotes s as a TOML basic string.
func tomlString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}
