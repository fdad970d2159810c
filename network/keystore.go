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

package network

import (
	"encoding/hex"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/zombienet/zombie-bite/keyring"
	vgfs "github.com/zombienet/zombie-bite/libs/fs"
)

// collatorSeed is the seed the injected collator aura keys derive from.
const collatorSeed = "//Collator"

type keyEntry struct {
	keyType string
	public  func(keyring.Validator) string
}

var validatorKeys = []keyEntry{
	{keyType: "babe", public: func(v keyring.Validator) string { return v.Babe }},
	{keyType: "gran", public: func(v keyring.Validator) string { return v.Grandpa }},
	{keyType: "para", public: keyring.Validator.ParaValidator},
	{keyType: "asgn", public: keyring.Validator.ParaAssignment},
	{keyType: "audi", public: keyring.Validator.AuthorityDiscovery},
	{keyType: "beef", public: func(v keyring.Validator) string { return v.Beefy }},
}

// WriteValidatorKeystore fills dir with the session keys of the validator,
// in the node's local keystore layout.
func WriteValidatorKeystore(dir string, v keyring.Validator) error {
	if err := vgfs.EnsureDir(dir); err != nil {
		return err
	}
	seed := "//" + strings.ToUpper(v.Name[:1]) + v.Name[1:]
	for _, k := range validatorKeys {
		if err := writeKey(dir, k.keyType, k.public(v), seed); err != nil {
			return err
		}
	}
	return nil
}

// WriteCollatorKeystore installs the aura key of the local collator.
func WriteCollatorKeystore(dir, auraKey string) error {
	if err := vgfs.EnsureDir(dir); err != nil {
		return err
	}
	return writeKey(dir, "aura", auraKey, collatorSeed)
}

// writeKey stores the seed under <hex key type><hex public key>.
func writeKey(dir, keyType, public, seed string) error {
	content, err := json.Marshal(seed)
	if err != nil {
		return err
	}
	name := hex.EncodeToString([]byte(keyType)) + public
	return vgfs.WriteFile(filepath.Join(dir, name), content)
}
