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

package storage_test

import (
	"testing"

	"github.com/zombienet/zombie-bite/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageKeys(t *testing.T) {
	t.Run("Pallet prefixes", testPalletPrefixes)
	t.Run("Pallet item keys", testPalletItemKeys)
	t.Run("Map keys with every hasher", testMapKeys)
	t.Run("Map keys are independent of call order", testMapKeysOrderIndependent)
	t.Run("Hex helpers", testHexHelpers)
}

func testPalletPrefixes(t *testing.T) {
	tcs := map[string]string{
		"System":     "26aa394eea5630e07c48ae0c9558cef7",
		"Babe":       "1cb6f36e027abb2091cfb5110ab5087f",
		"Authorship": "d57bce545fb382c34570e5dfbf338f5e",
		"Session":    "cec5070d609dd3497f72bde07fc96ba0",
		"Grandpa":    "5f9cc45b7a00c5899361e1c6099678dc",
		"Beefy":      "08c41974a97dbf15cfbec28365bea2da",
		"Aura":       "57f8dc2f5ab09467896f47300f042438",
	}
	for pallet, expected := range tcs {
		assert.Equal(t, expected, storage.Hex(storage.PalletPrefix(pallet)), pallet)
	}
}

func testPalletItemKeys(t *testing.T) {
	assert.Equal(t,
		"cd710b30bd2eab0352ddcc26417aa1941b3c252fcb29d88eff4f3de5de4476c3",
		storage.Hex(storage.PalletItemKey("Paras", "Heads")),
	)

	tcs := []struct {
		item     storage.Item
		expected string
	}{
		{storage.SystemAccount, "26aa394eea5630e07c48ae0c9558cef7b99d880ec681799c0cf30e8886371da9"},
		{storage.SystemLastRuntimeUpgrade, "26aa394eea5630e07c48ae0c9558cef7f9cce9c888469bb1a0dceaa129672ef8"},
		{storage.ValidatorSetValidators, "7d9fe37370ac390779f35763d98106e888dcde934c658227ee1dfafcd6e16903"},
		{storage.SessionValidators, "cec5070d609dd3497f72bde07fc96ba088dcde934c658227ee1dfafcd6e16903"},
		{storage.SessionQueuedKeys, "cec5070d609dd3497f72bde07fc96ba0e0cdd062e6eaf24295ad4ccfc41d4609"},
		{storage.SessionNextKeys, "cec5070d609dd3497f72bde07fc96ba04c014e6bf8b8c2c011e7290b85696bb3"},
		{storage.SessionKeyOwner, "cec5070d609dd3497f72bde07fc96ba0726380404683fc89e8233450c8aa1950"},
		{storage.BabeAuthorities, "1cb6f36e027abb2091cfb5110ab5087f5e0621c4869aa60c02be9adcc98a0d1d"},
		{storage.BabeNextAuthorities, "1cb6f36e027abb2091cfb5110ab5087faacf00b9b41fda7a9268821c2a2b3e4c"},
		{storage.GrandpaAuthorities, "5f9cc45b7a00c5899361e1c6099678dc5e0621c4869aa60c02be9adcc98a0d1d"},
		{storage.StakingInvulnerables, "5f3e4907f716ac89b6347d15ececedca5579297f4dfb9609e7e4c2ebab9ce40a"},
		{storage.StakingForceEra, "5f3e4907f716ac89b6347d15ececedcaf7dad0317324aecae8744b87fc95f2f3"},
		{storage.ParasParachains, "cd710b30bd2eab0352ddcc26417aa1940b76934f4cc08dee01012d059e1b83ee"},
		{storage.ParasCurrentCodeHash, "cd710b30bd2eab0352ddcc26417aa194e2d1c22ba0a888147714a3487bd51c63"},
		{storage.ParasCodeByHash, "cd710b30bd2eab0352ddcc26417aa194383e6dcb39e0be0a2e6aeb8b94951ab6"},
		{storage.ParasCodeByHashRefs, "cd710b30bd2eab0352ddcc26417aa1948c27d984a48a10b1ebf28036a4a4444b"},
		{storage.ParaSchedulerValidatorGroups, "94eadf0156a8ad5156507773d0471e4a16973e1142f5bd30d9464076794007db"},
		{storage.ParaSchedulerClaimQueue, "94eadf0156a8ad5156507773d0471e4a49f6c9aa90c04982c05388649310f22f"},
		{storage.ParaSchedulerAvailabilityCores, "94eadf0156a8ad5156507773d0471e4ab8ebad86f546c7e0b135a4212aace339"},
		{storage.ParaSchedulerSessionStartBlock, "94eadf0156a8ad5156507773d0471e4a9ce0310edffce7a01a96c2039f92dd10"},
		{storage.ParasSharedActiveValidatorIndices, "b341e3a63e58a188839b242d17f8c9f82586833f834350b4d435d5fd269ecc8b"},
		{storage.ParasSharedActiveValidatorKeys, "b341e3a63e58a188839b242d17f8c9f87a50c904b368210021127f9238883a6e"},
		{storage.AuthorityDiscoveryKeys, "2099d7f109d6e535fb000bba623fd4409f99a2ce711f3a31b2fc05604c93f179"},
		{storage.AuthorityDiscoveryNextKeys, "2099d7f109d6e535fb000bba623fd4404c014e6bf8b8c2c011e7290b85696bb3"},
		{storage.ConfigurationActiveConfig, "06de3d8a54d27e44a9d5ce189618f22db4b49d95320d9021994c850f25b8e385"},
		{storage.SudoKey, "5c0d1176a568c1f92944340dbfed9e9c530ebca703c85910e7164cb7d1c9e47b"},
		{storage.RcMigratorManager, "2185d18cb42ae97242af0e70e6ad689012fcd13ee43ae32cc87f798eb5ed3295"},
		{storage.CouncilMembers, "aebd463ed9925c488c112434d61debc0ba7fb8745735dc3be2a2c61a72c39e78"},
		{storage.TechnicalCommitteeMembers, "ed25f63942de25ac5253ba64b5eb64d1ba7fb8745735dc3be2a2c61a72c39e78"},
		{storage.TechnicalMembershipMembers, "3a2d6c9353500637d8f8e3e0fa0bb1c5ba7fb8745735dc3be2a2c61a72c39e78"},
		{storage.PhragmenElectionMembers, "e2e62dd81c48a88f73b6f6463555fd8eba7fb8745735dc3be2a2c61a72c39e78"},
		{storage.CollatorSelectionInvulnerables, "15464cac3378d46f113cd5b7a4d71c845579297f4dfb9609e7e4c2ebab9ce40a"},
		{storage.CollatorSelectionDesiredCandidates, "15464cac3378d46f113cd5b7a4d71c84476f594316a7dfe49c1f352d95abdaf1"},
		{storage.AuraAuthorities, "57f8dc2f5ab09467896f47300f0424385e0621c4869aa60c02be9adcc98a0d1d"},
		{storage.AuraExtAuthorities, "3c311d57d4daf52904616cf69648081e5e0621c4869aa60c02be9adcc98a0d1d"},
		{storage.ParachainSystemLastDmqMqcHead, "45323df7cc47150b3930e2666b0aa313911a5dd3f1155f5b7d0c5aa102a757f9"},
	}
	for _, tc := range tcs {
		assert.Equal(t, tc.expected, tc.item.HexKey(), tc.item.String())
	}
}

func testMapKeys(t *testing.T) {
	paraID := storage.U32LE(1000)

	assert.Equal(t,
		"cd710b30bd2eab0352ddcc26417aa1941b3c252fcb29d88eff4f3de5de4476c3b6ff6f7d467b87a9e8030000",
		storage.Hex(storage.PalletMapKey("Paras", "Heads", paraID, storage.Twox64Concat)),
	)
	assert.Equal(t,
		"cd710b30bd2eab0352ddcc26417aa1941b3c252fcb29d88eff4f3de5de4476c3b6ff6f7d467b87a9",
		storage.ParasHeads.HexMapKey(storage.Twox64, paraID),
	)
	assert.Equal(t,
		"d6dbddd5e1a9eb49ed030000",
		storage.Hex(storage.Twox64Concat.Hash(storage.U32LE(1005))),
	)
	assert.Equal(t,
		"638595eebaa445ce03a13547bece90e704e6ac775a3245623103ffec2cb2c92fb4def25cfda6ef3ac02a707a7013b12ddc9c5f6a3e1994c51754be175bd6a3d4",
		storage.CoretimeCoreDescriptors.HexMapKey(storage.Twox256, storage.U32LE(0)),
	)

	aliceStash := storage.MustDecodeHex("be5ddb1579b72e84524fc29e78609e3caf42e85aa118ebfe0b0ad404b5bdd25f")
	assert.Equal(t,
		"cec5070d609dd3497f72bde07fc96ba04c014e6bf8b8c2c011e7290b85696bb3e535263148daaf49be5ddb1579b72e84524fc29e78609e3caf42e85aa118ebfe0b0ad404b5bdd25f",
		storage.SessionNextKeys.HexMapKey(storage.Twox64Concat, aliceStash),
	)

	assert.Equal(t, "69b5957599f918e276a3d2428acdc997616c696365",
		storage.Hex(storage.Blake2_128Concat.Hash([]byte("alice"))))
	assert.Equal(t, "616c696365", storage.Hex(storage.Identity.Hash([]byte("alice"))))
	assert.Equal(t,
		"0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8",
		storage.Hex(storage.Blake2_256(nil)),
	)
}

func testMapKeysOrderIndependent(t *testing.T) {
	first := storage.ParasHeads.HexMapKey(storage.Twox64Concat, storage.U32LE(1000))
	_ = storage.ParasHeads.HexMapKey(storage.Twox64Concat, storage.U32LE(1005))
	_ = storage.PalletItemKey("System", "Account")
	again := storage.ParasHeads.HexMapKey(storage.Twox64Concat, storage.U32LE(1000))
	assert.Equal(t, first, again)

	// the prefix slice must not be aliased between calls
	prefix := storage.ParasHeads.Key()
	_ = storage.ParasHeads.MapKey(storage.Twox64Concat, storage.U32LE(1))
	assert.Equal(t, "cd710b30bd2eab0352ddcc26417aa1941b3c252fcb29d88eff4f3de5de4476c3", storage.Hex(prefix))
}

func testHexHelpers(t *testing.T) {
	b, err := storage.DecodeHex("0xe8030000")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xe8, 0x03, 0, 0}, b)

	b, err = storage.DecodeHex(" e8030000\n")
	require.NoError(t, err)
	assert.Equal(t, "0xe8030000", storage.Hex0x(b))

	_, err = storage.DecodeHex("0xzz")
	assert.Error(t, err)

	assert.Equal(t, "abcd", storage.TrimHexPrefix("0xABCD"))
}
