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

package overrides

import (
	"github.com/zombienet/zombie-bite/chains"
	"github.com/zombienet/zombie-bite/keyring"
	"github.com/zombienet/zombie-bite/storage"
)

var auraKeyType = []byte("aura")

type ParaOptions struct {
	Relay chains.Relaychain
	// RuntimePath is an optional wasm replacing the parachain runtime.
	RuntimePath string
}

// CollatorKey is the aura key the single local collator runs with.
func CollatorKey(relay chains.Relaychain) string {
	if relay.Network == chains.Polkadot {
		return keyring.CollatorEd25519
	}
	return keyring.CollatorSr25519
}

// BuildPara computes the parachain set making the local collator the only
// block author.
func BuildPara(opts ParaOptions) (*Set, error) {
	key := storage.MustDecodeHex(CollatorKey(opts.Relay))
	single := storage.CompactSeq(key)

	set := NewSet()
	set.Override(storage.SessionValidators.Key(), single)
	set.Override(storage.SessionQueuedKeys.Key(), storage.CompactSeq(append(append([]byte{}, key...), key...)))
	set.Override(storage.CollatorSelectionInvulnerables.Key(), single)
	set.Override(storage.AuraAuthorities.Key(), single)
	set.Override(storage.AuraExtAuthorities.Key(), single)
	set.Override(storage.ParachainSystemLastDmqMqcHead.Key(), emptyMQCHead)
	set.Override(storage.CollatorSelectionDesiredCandidates.Key(), storage.U32LE(1))

	// both well known keys are injected, the chain picks whichever its
	// session keys type decodes
	for _, hexKey := range []string{keyring.CollatorEd25519, keyring.CollatorSr25519} {
		k := storage.MustDecodeHex(hexKey)
		set.Inject(storage.SessionNextKeys.MapKey(storage.Twox64Concat, k), k)
		set.Inject(storage.SessionKeyOwner.MapKey(storage.Twox64Concat, keyOwner(k)), k)
	}

	if opts.RuntimePath != "" {
		code, err := readRuntime(opts.RuntimePath)
		if err != nil {
			return nil, err
		}
		set.Override(storage.CodeKey, code)
	}

	return set, nil
}

// keyOwner is the encoded (KeyTypeId, Vec<u8>) tuple keying Session.KeyOwner.
func keyOwner(key []byte) []byte {
	return append(append([]byte{}, auraKeyType...), storage.EncodeBytes(key)...)
}
