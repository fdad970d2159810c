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
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/zombienet/zombie-bite/keyring"
	vgfs "github.com/zombienet/zombie-bite/libs/fs"
	vgjson "github.com/zombienet/zombie-bite/libs/json"

	"github.com/PaesslerAG/jsonpath"
)

// ClearBootNodes empties the boot nodes of the spec at path, leaving every
// other field as is.
func ClearBootNodes(path string) error {
	fields := map[string]json.RawMessage{}
	if err := vgjson.ReadFile(path, &fields); err != nil {
		return err
	}
	fields["bootNodes"] = json.RawMessage("[]")
	return vgjson.WriteFile(path, fields)
}

// AddValidators rewrites the genesis runtime of a non raw spec so its
// session, babe, grandpa and aura authorities are the first n keyring
// validators. Raw specs, and n up to the two validators every development
// spec already has, are left untouched.
func AddValidators(path string, n int) error {
	if n <= keyring.MinValidators {
		return nil
	}

	data, err := vgfs.ReadFile(path)
	if err != nil {
		return err
	}
	// numbers are kept as written, balances overflow float64
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("unable to decode %s: %w", path, err)
	}

	if _, err := jsonpath.Get("$.genesis.runtime", doc); err != nil {
		return nil
	}

	validators := keyring.Select(n)
	patched := false
	if session, ok := object(doc, "$.genesis.runtime.session"); ok {
		patched = replaceArray(session, "keys", validators, sessionKeysEntry) || patched
	}
	if babe, ok := object(doc, "$.genesis.runtime.babe"); ok {
		patched = replaceArray(babe, "authorities", validators, weightedAuthority) || patched
	}
	if grandpa, ok := object(doc, "$.genesis.runtime.grandpa"); ok {
		patched = replaceArray(grandpa, "authorities", validators, weightedAuthority) || patched
	}
	if aura, ok := object(doc, "$.genesis.runtime.aura"); ok {
		patched = replaceArray(aura, "authorities", validators, func(v keyring.Validator) interface{} {
			return v.ControllerAddress
		}) || patched
	}
	if !patched {
		return nil
	}

	return vgjson.WriteFile(path, doc)
}

func object(doc interface{}, path string) (map[string]interface{}, bool) {
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil, false
	}
	m, ok := v.(map[string]interface{})
	return m, ok
}

// replaceArray swaps the array under key for one entry per validator. It is
// a no-op when key does not hold an array.
func replaceArray(parent map[string]interface{}, key string, validators []keyring.Validator, entry func(keyring.Validator) interface{}) bool {
	if _, ok := parent[key].([]interface{}); !ok {
		return false
	}
	out := make([]interface{}, 0, len(validators))
	for _, v := range validators {
		out = append(out, entry(v))
	}
	parent[key] = out
	return true
}

func sessionKeysEntry(v keyring.Validator) interface{} {
	keys := map[string]string{
		"grandpa":             v.ControllerAddress,
		"babe":                v.ControllerAddress,
		"im_online":           v.ControllerAddress,
		"para_validator":      v.ControllerAddress,
		"para_assignment":     v.ControllerAddress,
		"authority_discovery": v.ControllerAddress,
		"beefy":               v.ControllerAddress,
	}
	return []interface{}{v.StashAddress, v.StashAddress, keys}
}

func weightedAuthority(v keyring.Validator) interface{} {
	return []interface{}{v.ControllerAddress, 1}
}
