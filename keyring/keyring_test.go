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

package keyring_test

import (
	"testing"

	"github.com/zombienet/zombie-bite/keyring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyring(t *testing.T) {
	t.Run("Select clamps the validator count", func(t *testing.T) {
		assert.Len(t, keyring.Select(0), 2)
		assert.Len(t, keyring.Select(1), 2)
		assert.Len(t, keyring.Select(5), 5)
		assert.Len(t, keyring.Select(12), 7)
		assert.Equal(t, []string{"alice", "bob", "charlie"}, keyring.Names(3))
	})

	t.Run("Select returns a copy", func(t *testing.T) {
		vs := keyring.Select(2)
		vs[0].Name = "mallory"
		assert.Equal(t, "alice", keyring.Alice().Name)
	})

	t.Run("Keys are well formed", func(t *testing.T) {
		for _, v := range keyring.Select(keyring.MaxValidators) {
			assert.Len(t, v.Stash, 64, v.Name)
			assert.Len(t, v.Babe, 64, v.Name)
			assert.Len(t, v.Grandpa, 64, v.Name)
			assert.Len(t, v.Beefy, 66, v.Name)
			assert.Len(t, v.SessionKeys(), 64*5+66, v.Name)
		}
	})

	t.Run("Session keys of alice", func(t *testing.T) {
		alice := keyring.Alice()
		assert.Equal(t,
			"88dc3417d5058ec4b4503e0c12ea1a0a89be200fe98922423d4334014fa6b0ee"+
				"d43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"+
				"d43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"+
				"d43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"+
				"d43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"+
				"020a1091341fe5664bfa1782d5e04779689068c916b04cb365ec3153755684d9a1",
			alice.SessionKeys(),
		)
		assert.Equal(t, alice.Stash+alice.SessionKeys(), alice.QueuedKeys())
	})

	t.Run("Next keys storage keys", func(t *testing.T) {
		bob, ok := keyring.ByName("bob")
		require.True(t, ok)
		assert.Equal(t,
			"cec5070d609dd3497f72bde07fc96ba04c014e6bf8b8c2c011e7290b85696bb3e535263148daaf49be5ddb1579b72e84524fc29e78609e3caf42e85aa118ebfe0b0ad404b5bdd25f",
			keyring.Alice().NextKeysKey(),
		)
		assert.Equal(t,
			"cec5070d609dd3497f72bde07fc96ba04c014e6bf8b8c2c011e7290b85696bb30e5be00fbc2e15b5fe65717dad0447d715f660a0a58411de509b42e6efb8375f562f58a554d5860e",
			bob.NextKeysKey(),
		)

		_, ok = keyring.ByName("mallory")
		assert.False(t, ok)
	})
}
