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

// Package keyring holds the well-known development validator identities
// installed as the authorities of a forked relay chain.
package keyring

import (
	"github.com/zombienet/zombie-bite/storage"
)

const (
	// MinValidators is the smallest validator set a forked relay chain runs with.
	MinValidators = 2
	// MaxValidators is the number of identities in the keyring.
	MaxValidators = 7
)

// Validator is the public key material of one development validator.
// Keys are lowercase hex without prefix.
type Validator struct {
	Name string
	// Stash is the sr25519 stash account.
	Stash string
	// Babe is the sr25519 session key, also used for para validation,
	// para assignment and authority discovery.
	Babe string
	// Grandpa is the ed25519 finality key.
	Grandpa string
	// Beefy is the compressed ecdsa key.
	Beefy string

	// StashAddress and ControllerAddress are the SS58 forms used when
	// patching a non raw chain spec.
	StashAddress      string
	ControllerAddress string
}

func (v Validator) ParaValidator() string      { return v.Babe }
func (v Validator) ParaAssignment() string     { return v.Babe }
func (v Validator) AuthorityDiscovery() string { return v.Babe }

// SessionKeys is the encoded session keys tuple:
// grandpa ++ babe ++ para_validator ++ para_assignment ++ authority_discovery ++ beefy.
func (v Validator) SessionKeys() string {
	return v.Grandpa + v.Babe + v.ParaValidator() + v.ParaAssignment() + v.AuthorityDiscovery() + v.Beefy
}

// QueuedKeys is the (stash, session keys) pair as stored in Session.QueuedKeys.
func (v Validator) QueuedKeys() string {
	return v.Stash + v.SessionKeys()
}

// NextKeysKey is the Session.NextKeys entry for the validator's stash.
func (v Validator) NextKeysKey() string {
	return storage.SessionNextKeys.HexMapKey(storage.Twox64Concat, storage.MustDecodeHex(v.Stash))
}

var validators = [MaxValidators]Validator{
	{
		Name:              "alice",
		Stash:             "be5ddb1579b72e84524fc29e78609e3caf42e85aa118ebfe0b0ad404b5bdd25f",
		Babe:              "d43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d",
		Grandpa:           "88dc3417d5058ec4b4503e0c12ea1a0a89be200fe98922423d4334014fa6b0ee",
		Beefy:             "020a1091341fe5664bfa1782d5e04779689068c916b04cb365ec3153755684d9a1",
		StashAddress:      "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY",
		ControllerAddress: "5FA9nQDVg267DEd8m1ZypXLBnvN7SFxYwV7ndqSYGiN9TTpu",
	},
	{
		Name:              "bob",
		Stash:             "fe65717dad0447d715f660a0a58411de509b42e6efb8375f562f58a554d5860e",
		Babe:              "8eaf04151687736326c9fea17e25fc5287613693c912909cb226aa4794f26a48",
		Grandpa:           "d17c2d7823ebf260fd138f2d7e27d114c0145d968b5ff5006125f2414fadae69",
		Beefy:             "0390084fdbf27d2b79d26a4f13f0ccd982cb755a661969143c37cbc49ef5b91f27",
		StashAddress:      "5FHneW46xGXgs5mUiveU4sbTyGBzmstUspZC92UhjJM694ty",
		ControllerAddress: "5GoNkf6WdbxCFnPdAnYYQyCjAKPJgLNxXwPjwTh6DGg6gN3E",
	},
	{
		Name:              "charlie",
		Stash:             "1e07379407fecc4b89eb7dbd287c2c781cfb1907a96947a3eb18e4f8e7198625",
		Babe:              "90b5ab205c6974c9ea841be688864633dc9ca8a357843eeacf2314649965fe22",
		Grandpa:           "439660b36c6c03afafca027b910b4fecf99801834c62a5e6006f27d978de234f",
		Beefy:             "0389411795514af1627765eceffcbd002719f031604fadd7d188e2dc585b4e1afb",
		StashAddress:      "5FLSigC9HGRKVhB9FiEo4Y3koPsNmBmLJbpXg2mp1hXcS59Y",
		ControllerAddress: "5DbKjhNLpqX3zqZdNBc9BGb4fHU1cRBaDhJUskrvkwfraDi6",
	},
	{
		Name:              "dave",
		Stash:             "e860f1b1c7227f7c22602f53f15af80747814dffd839719731ee3bba6edc126c",
		Babe:              "306721211d5404bd9da88e0204360a1a9ab8b87c66c1bc2fcdd37f3c2222cc20",
		Grandpa:           "5e639b43e0052c47447dac87d6fd2b6ec50bdd4d0f614e4299c665249bbd09d9",
		Beefy:             "03bc9d0ca094bd5b8b3225d7651eac5d18c1c04bf8ae8f8b263eebca4e1410ed0c",
		StashAddress:      "5DAAnrj7VHTznn2AWBemMuyBwZWs6FNFjdyVXUeYum3PTXFy",
		ControllerAddress: "5HVTX4RkLgGDxmzYGLaBSHKPTJ2Sk8cDX7vD2NVsXWw8Jq3X",
	},
	{
		Name:              "eve",
		Stash:             "8ac59e11963af19174d0b94d5d78041c233f55d2e19324665bafdfb62925af2d",
		Babe:              "e659a7a1628cdd93febc04a4e0646ea20e9f5f0ce097d9a05290d4a9e054df4e",
		Grandpa:           "1dfe3e22cc0d45c70779c1095f7489a8ef3cf52d62fbd8c2fa38c9f1723502b5",
		Beefy:             "031d10105e323c4afce225208f71a6441ee327a65b9e646e772500c74d31f669aa",
		StashAddress:      "5HGjWAeFDfFCWPsjFQdVV2Msvz2XtMktvgocEZcCj68kUMaw",
		ControllerAddress: "5F5SbjU79vZyPgtqz8mXvLmPStxKDxZ4gw3FnD7qXKHjkMJh",
	},
	{
		Name:              "ferdie",
		Stash:             "101191192fc877c24d725b337120fa3edc63d227bbc92705db1e2cb65f56981a",
		Babe:              "1cbd2d43530a44705ad088af313e18f80b53ef16b36177cd4b77b846f2a5f07c",
		Grandpa:           "568cb4a574c6d178feb39c27dfc8b3f789e5f5423e19c71633c748b9acf086b5",
		Beefy:             "0291f1217d5a04cb83312ee3d88a6e6b33284e053e6ccfc3a90339a0299d12967c",
		StashAddress:      "5CiPPseXPECbkjWCa6MnjNokrgYjMqmKndv2rSnekmSK2DjL",
		ControllerAddress: "5D9MxoU6NVFGEVfWD2t68e2eKq3WGS9Q9jQgJJrRMWdD8PfM",
	},
	{
		Name:              "george",
		Stash:             "ce3cf3949e892b0fb190685e76914dbb4f0dacf556c404ae62840283dc62da67",
		Babe:              "4603307f855321776922daeea21ee31720388d097cdaac66f05a6f8462b31757",
		Grandpa:           "08ee9f4a5246647ebb938ece750d3d3be5e5f31978460258a1ab850c5d2b6982",
		Beefy:             "032fd22c2a15d1d45395db478f8a21c6a386a1370a9a4f9007ceb7c518ab8ed3b5",
		StashAddress:      "5F4tQyNE9tBZe5SEvcgD2fHsHVdFGVhViBfC4kKVEqAbqJBF",
		ControllerAddress: "5D3dVFtj6cBx5F2nWiWC9X8aMLuQYPPjVZhXQmWmNGKdD9kk",
	},
}

// Alice is the first validator, also the default sudo and governance member.
func Alice() Validator {
	return validators[0]
}

// ClampCount bounds n to the supported validator set size.
func ClampCount(n int) int {
	if n < MinValidators {
		return MinValidators
	}
	if n > MaxValidators {
		return MaxValidators
	}
	return n
}

// Select returns the first n validators in name order. n is clamped.
func Select(n int) []Validator {
	n = ClampCount(n)
	out := make([]Validator, n)
	copy(out, validators[:n])
	return out
}

// Names returns the names of the first n validators. n is clamped.
func Names(n int) []string {
	vs := Select(n)
	names := make([]string, 0, len(vs))
	for _, v := range vs {
		names = append(names, v.Name)
	}
	return names
}

// ByName looks a validator up by name.
func ByName(name string) (Validator, bool) {
	for _, v := range validators {
		if v.Name == name {
			return v, true
		}
	}
	return Validator{}, false
}

// Collator keys of the parachain collator. Polkadot asset hub collators
// run with ed25519 aura keys, every other chain with sr25519.
const (
	CollatorEd25519 = "eb2f4b5e6f0bfa7ba42aa4b7eb2f43ba6c42061dbfc765bca066e51bb09f9116"
	CollatorSr25519 = "005025ef7c9934c33534cbff35c9c5f0c1d30128e64f076c76942f49788eec15"
)
