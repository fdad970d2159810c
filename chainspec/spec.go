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

// Package chainspec reads, forks and patches substrate chain specs.
package chainspec

import (
	"encoding/json"
	"fmt"

	vgjson "github.com/zombienet/zombie-bite/libs/json"

	"github.com/pkg/errors"
)

var ErrNotRaw = errors.New("chain spec has no raw genesis")

// RawChainSpec is a chain spec in raw mode. Only the fields the fork engine
// touches are decoded, every other top-level field is kept verbatim in
// Extensions.
type RawChainSpec struct {
	Name      string
	ID        string
	ChainType string
	BootNodes []string
	Genesis   Genesis

	Extensions map[string]json.RawMessage
}

type Genesis struct {
	Raw Raw
	// Extensions holds the non raw genesis fields, if any.
	Extensions map[string]json.RawMessage
}

// Raw is the raw genesis storage. Top keys and values are 0x prefixed hex.
type Raw struct {
	Top             map[string]string `json:"top"`
	ChildrenDefault json.RawMessage   `json:"childrenDefault"`
}

func (s *RawChainSpec) UnmarshalJSON(data []byte) error {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	if err := takeField(fields, "name", &s.Name); err != nil {
		return err
	}
	if err := takeField(fields, "id", &s.ID); err != nil {
		return err
	}
	if err := takeField(fields, "chainType", &s.ChainType); err != nil {
		return err
	}
	if err := takeField(fields, "bootNodes", &s.BootNodes); err != nil {
		return err
	}
	if err := takeField(fields, "genesis", &s.Genesis); err != nil {
		return err
	}
	if s.BootNodes == nil {
		s.BootNodes = []string{}
	}
	s.Extensions = fields
	return nil
}

func (s RawChainSpec) MarshalJSON() ([]byte, error) {
	fields := make(map[string]interface{}, len(s.Extensions)+5)
	for k, v := range s.Extensions {
		fields[k] = v
	}
	fields["name"] = s.Name
	fields["id"] = s.ID
	fields["chainType"] = s.ChainType
	bootNodes := s.BootNodes
	if bootNodes == nil {
		bootNodes = []string{}
	}
	fields["bootNodes"] = bootNodes
	fields["genesis"] = s.Genesis
	return json.Marshal(fields)
}

func (g *Genesis) UnmarshalJSON(data []byte) error {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if err := takeField(fields, "raw", &g.Raw); err != nil {
		return err
	}
	g.Extensions = fields
	return nil
}

func (g Genesis) MarshalJSON() ([]byte, error) {
	fields := make(map[string]interface{}, len(g.Extensions)+1)
	for k, v := range g.Extensions {
		fields[k] = v
	}
	if g.Raw.Top != nil {
		raw := g.Raw
		if len(raw.ChildrenDefault) == 0 {
			raw.ChildrenDefault = json.RawMessage("{}")
		}
		fields["raw"] = raw
	}
	return json.Marshal(fields)
}

// takeField decodes fields[name] into v, if present, and removes it from
// fields.
func takeField(fields map[string]json.RawMessage, name string, v interface{}) error {
	raw, ok := fields[name]
	if !ok {
		return nil
	}
	delete(fields, name)
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	return nil
}

// ReadFile loads a raw chain spec.
func ReadFile(path string) (*RawChainSpec, error) {
	spec := &RawChainSpec{}
	if err := vgjson.ReadFile(path, spec); err != nil {
		return nil, err
	}
	if spec.Genesis.Raw.Top == nil {
		return nil, fmt.Errorf("%s: %w", path, ErrNotRaw)
	}
	return spec, nil
}

// WriteFile writes the spec as indented JSON, atomically.
func (s *RawChainSpec) WriteFile(path string) error {
	return vgjson.WriteFile(path, s)
}
