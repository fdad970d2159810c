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
	"fmt"

	"github.com/zombienet/zombie-bite/keyring"
	"github.com/zombienet/zombie-bite/storage"
)

const defaultParaID uint32 = 1000

var (
	// one weight per authority
	authorityWeight = storage.U64LE(1)
	emptyMQCHead    = make([]byte, 32)
	claimQueue      = storage.MustDecodeHex("040000000000")
	freeCores       = storage.MustDecodeHex("0400")
	noChannels      = storage.CompactSeq()
)

type ParaOverride struct {
	ID uint32
	// RuntimePath is an optional wasm replacing the parachain validation code.
	RuntimePath string
}

type RelayOptions struct {
	// Validators is clamped to the keyring size.
	Validators int
	// Paras lists the bitten parachains. The first one gets core 0.
	Paras []ParaOverride
	// RuntimePath is an optional wasm replacing the relay runtime.
	RuntimePath string
	// SudoKey replaces alice as sudo and migration manager when set.
	SudoKey string
}

// BuildRelay computes the relay chain set for the first n keyring validators.
func BuildRelay(opts RelayOptions) (*Set, error) {
	validators := keyring.Select(opts.Validators)
	n := uint64(len(validators))

	firstParaID := defaultParaID
	if len(opts.Paras) > 0 {
		firstParaID = opts.Paras[0].ID
	}

	admin := storage.MustDecodeHex(keyring.Alice().Babe)
	if opts.SudoKey != "" {
		key, err := storage.DecodeHex(opts.SudoKey)
		if err != nil {
			return nil, fmt.Errorf("invalid sudo key: %w", err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("invalid sudo key: expected 32 bytes, got %d", len(key))
		}
		admin = key
	}

	var (
		stashes, queued, babe, grandpa []byte
		discovery, paraKeys, indices   []byte
		groups                         [][]byte
	)
	for i, v := range validators {
		stash := storage.MustDecodeHex(v.Stash)
		stashes = append(stashes, stash...)
		queued = append(queued, storage.MustDecodeHex(v.QueuedKeys())...)
		babe = append(babe, storage.MustDecodeHex(v.Babe)...)
		babe = append(babe, authorityWeight...)
		grandpa = append(grandpa, storage.MustDecodeHex(v.Grandpa)...)
		grandpa = append(grandpa, authorityWeight...)
		discovery = append(discovery, storage.MustDecodeHex(v.AuthorityDiscovery())...)
		paraKeys = append(paraKeys, storage.MustDecodeHex(v.ParaValidator())...)
		indices = append(indices, storage.U32LE(uint32(i))...)
		groups = append(groups, storage.CompactSeq(storage.U32LE(uint32(i))))
	}
	count := storage.CompactUint(n)
	withCount := func(b []byte) []byte {
		return append(append([]byte{}, count...), b...)
	}

	set := NewSet()
	set.Override(storage.ValidatorSetValidators.Key(), withCount(stashes))
	set.Override(storage.SessionValidators.Key(), withCount(stashes))
	set.Override(storage.SessionQueuedKeys.Key(), withCount(queued))
	set.Override(storage.BabeAuthorities.Key(), withCount(babe))
	set.Override(storage.BabeNextAuthorities.Key(), withCount(babe))
	set.Override(storage.GrandpaAuthorities.Key(), withCount(grandpa))
	set.Override(storage.StakingInvulnerables.Key(), withCount(stashes))
	set.Override(storage.ParasParachains.Key(), storage.CompactSeq(storage.U32LE(firstParaID)))
	set.Override(storage.ParaSchedulerValidatorGroups.Key(), storage.CompactSeq(groups...))
	set.Override(storage.ParaSchedulerClaimQueue.Key(), claimQueue)
	set.Override(storage.ParaSchedulerAvailabilityCores.Key(), freeCores)
	set.Override(storage.ParasSharedActiveValidatorIndices.Key(), withCount(indices))
	set.Override(storage.ParasSharedActiveValidatorKeys.Key(), withCount(paraKeys))
	set.Override(storage.AuthorityDiscoveryKeys.Key(), withCount(discovery))
	set.Override(storage.AuthorityDiscoveryNextKeys.Key(), withCount(discovery))
	set.Override(storage.CoretimeCoreDescriptors.MapKey(storage.Twox256, storage.U32LE(0)), coreDescriptor(firstParaID))
	set.Override(storage.ConfigurationActiveConfig.Key(), storage.MustDecodeHex(activeConfig))
	set.Override(storage.SudoKey.Key(), admin)

	paraIDs := []uint32{firstParaID}
	for _, p := range opts.Paras {
		if p.ID != firstParaID {
			paraIDs = append(paraIDs, p.ID)
		}
	}
	for _, id := range paraIDs {
		set.Override(storage.DmpDownwardMessageQueueHeads.MapKey(storage.Twox64Concat, storage.U32LE(id)), emptyMQCHead)
		set.Override(storage.HrmpIngressChannelsIndex.MapKey(storage.Twox64Concat, storage.U32LE(id)), noChannels)
	}

	for _, v := range validators {
		set.Inject(storage.MustDecodeHex(v.NextKeysKey()), storage.MustDecodeHex(v.SessionKeys()))
	}
	set.Inject(storage.RcMigratorManager.Key(), admin)

	if opts.RuntimePath != "" {
		code, err := readRuntime(opts.RuntimePath)
		if err != nil {
			return nil, err
		}
		set.Override(storage.CodeKey, code)
	}

	for _, p := range opts.Paras {
		if p.RuntimePath == "" {
			continue
		}
		code, err := readRuntime(p.RuntimePath)
		if err != nil {
			return nil, err
		}
		setParaCode(set, p.ID, code)
	}

	return set, nil
}

// setParaCode points the parachain at new validation code, keeping the
// code-by-hash bookkeeping consistent.
func setParaCode(set *Set, id uint32, code []byte) {
	hash := storage.Blake2_256(code)
	set.Override(storage.ParasCurrentCodeHash.MapKey(storage.Twox64Concat, storage.U32LE(id)), hash)
	set.Inject(storage.ParasCodeByHash.MapKey(storage.Identity, hash), storage.EncodeBytes(code))
	set.Inject(storage.ParasCodeByHashRefs.MapKey(storage.Identity, hash), storage.U32LE(1))
}

// coreDescriptor assigns the whole of core 0 to the parachain.
func coreDescriptor(paraID uint32) []byte {
	out := storage.MustDecodeHex("00010402")
	out = append(out, storage.U32LE(paraID)...)
	return append(out, storage.MustDecodeHex("00e100e100010000e1")...)
}
