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

// Package overrides builds the storage overrides and injects a
// doppelganger node applies to the state it syncs, turning a frozen copy of
// a live chain into one the local validators can keep producing on.
package overrides

import (
	"fmt"
	"os"
	"path/filepath"

	vgjson "github.com/zombienet/zombie-bite/libs/json"
	"github.com/zombienet/zombie-bite/storage"

	"github.com/pkg/errors"
)

// ErrRuntimeOverride is returned when a runtime wasm cannot be read. No
// override file is written in that case.
var ErrRuntimeOverride = errors.New("couldn't load runtime override")

// Set is the content of an overrides side-car file. Overrides replace keys
// present in the synced state, injects add keys that are missing. Keys and
// values are lowercase hex without prefix.
type Set struct {
	Overrides map[string]string `json:"overrides"`
	Injects   map[string]string `json:"injects"`
}

func NewSet() *Set {
	return &Set{
		Overrides: map[string]string{},
		Injects:   map[string]string{},
	}
}

func (s *Set) Override(key, value []byte) {
	s.Overrides[storage.Hex(key)] = storage.Hex(value)
}

func (s *Set) Inject(key, value []byte) {
	s.Injects[storage.Hex(key)] = storage.Hex(value)
}

// Len is the total number of entries.
func (s *Set) Len() int {
	return len(s.Overrides) + len(s.Injects)
}

// WriteFile writes the set as indented JSON with sorted keys.
func (s *Set) WriteFile(path string) error {
	if err := vgjson.WriteFile(path, s); err != nil {
		return fmt.Errorf("couldn't write overrides: %w", err)
	}
	return nil
}

func ReadFile(path string) (*Set, error) {
	s := NewSet()
	if err := vgjson.ReadFile(path, s); err != nil {
		return nil, err
	}
	return s, nil
}

// RelayFile is the relay chain overrides file under base.
func RelayFile(base string) string {
	return filepath.Join(base, "rc_overrides.json")
}

// ParaFile is the overrides file of parachain id under base.
func ParaFile(base string, id uint32) string {
	return filepath.Join(base, fmt.Sprintf("%d_overrides.json", id))
}

func readRuntime(path string) ([]byte, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(ErrRuntimeOverride, err.Error())
	}
	if len(code) == 0 {
		return nil, errors.Wrapf(ErrRuntimeOverride, "%s is empty", path)
	}
	return code, nil
}
