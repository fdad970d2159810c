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

package storage

// Item is a named storage item of a pallet.
type Item struct {
	Pallet string
	Name   string
}

// Key is the storage value key of the item.
func (i Item) Key() []byte {
	return PalletItemKey(i.Pallet, i.Name)
}

// HexKey is Key encoded as plain hex.
func (i Item) HexKey() string {
	return Hex(i.Key())
}

// MapKey is the key of the map entry for k.
func (i Item) MapKey(hasher Hasher, k []byte) []byte {
	return PalletMapKey(i.Pallet, i.Name, k, hasher)
}

// HexMapKey is MapKey encoded as plain hex.
func (i Item) HexMapKey(hasher Hasher, k []byte) string {
	return Hex(i.MapKey(hasher, k))
}

func (i Item) String() string {
	return i.Pallet + "." + i.Name
}

// Storage items touched when forking relay chains and parachains.
var (
	SystemAccount            = Item{"System", "Account"}
	SystemLastRuntimeUpgrade = Item{"System", "LastRuntimeUpgrade"}

	ValidatorSetValidators = Item{"ValidatorSet", "Validators"}

	SessionValidators = Item{"Session", "Validators"}
	SessionQueuedKeys = Item{"Session", "QueuedKeys"}
	SessionNextKeys   = Item{"Session", "NextKeys"}
	SessionKeyOwner   = Item{"Session", "KeyOwner"}

	BabeAuthorities     = Item{"Babe", "Authorities"}
	BabeNextAuthorities = Item{"Babe", "NextAuthorities"}

	GrandpaAuthorities = Item{"Grandpa", "Authorities"}

	StakingInvulnerables = Item{"Staking", "Invulnerables"}
	StakingForceEra      = Item{"Staking", "ForceEra"}

	ParasParachains      = Item{"Paras", "Parachains"}
	ParasHeads           = Item{"Paras", "Heads"}
	ParasCurrentCodeHash = Item{"Paras", "CurrentCodeHash"}
	ParasCodeByHash      = Item{"Paras", "CodeByHash"}
	ParasCodeByHashRefs  = Item{"Paras", "CodeByHashRefs"}

	ParaSchedulerValidatorGroups   = Item{"ParaScheduler", "ValidatorGroups"}
	ParaSchedulerClaimQueue        = Item{"ParaScheduler", "ClaimQueue"}
	ParaSchedulerAvailabilityCores = Item{"ParaScheduler", "AvailabilityCores"}
	ParaSchedulerSessionStartBlock = Item{"ParaScheduler", "SessionStartBlock"}

	ParasSharedActiveValidatorIndices = Item{"ParasShared", "ActiveValidatorIndices"}
	ParasSharedActiveValidatorKeys    = Item{"ParasShared", "ActiveValidatorKeys"}

	AuthorityDiscoveryKeys     = Item{"AuthorityDiscovery", "Keys"}
	AuthorityDiscoveryNextKeys = Item{"AuthorityDiscovery", "NextKeys"}

	CoretimeCoreDescriptors = Item{"CoretimeAssignmentProvider", "CoreDescriptors"}

	ConfigurationActiveConfig = Item{"Configuration", "ActiveConfig"}

	SudoKey = Item{"Sudo", "Key"}

	DmpDownwardMessageQueueHeads = Item{"Dmp", "DownwardMessageQueueHeads"}
	HrmpIngressChannelsIndex     = Item{"Hrmp", "HrmpIngressChannelsIndex"}

	RcMigratorManager = Item{"RcMigrator", "Manager"}

	CouncilMembers             = Item{"Council", "Members"}
	TechnicalCommitteeMembers  = Item{"TechnicalCommittee", "Members"}
	TechnicalMembershipMembers = Item{"TechnicalMembership", "Members"}
	PhragmenElectionMembers    = Item{"PhragmenElection", "Members"}

	CollatorSelectionInvulnerables     = Item{"CollatorSelection", "Invulnerables"}
	CollatorSelectionDesiredCandidates = Item{"CollatorSelection", "DesiredCandidates"}
	AuraAuthorities                    = Item{"Aura", "Authorities"}
	AuraExtAuthorities                 = Item{"AuraExt", "Authorities"}
	ParachainSystemLastDmqMqcHead      = Item{"ParachainSystem", "LastDmqMqcHead"}
)
