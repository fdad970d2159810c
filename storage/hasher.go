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

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/crypto/blake2b"
)

// Hasher identifies how the key of a storage map entry is hashed before
// being appended to the item prefix.
type Hasher int

const (
	// Twox64Concat appends twox64(key) followed by the raw key.
	Twox64Concat Hasher = iota
	// Twox64 appends twox64(key) only.
	Twox64
	// Twox256 appends the 32-byte twox hash of the key.
	Twox256
	// Blake2_128Concat appends blake2b-128(key) followed by the raw key.
	Blake2_128Concat
	// Identity appends the raw key.
	Identity
)

func (h Hasher) String() string {
	switch h {
	case Twox64Concat:
		return "Twox64Concat"
	case Twox64:
		return "Twox64"
	case Twox256:
		return "Twox256"
	case Blake2_128Concat:
		return "Blake2_128Concat"
	case Identity:
		return "Identity"
	default:
		return "Unknown"
	}
}

// Hash returns the hashed form of key as it appears in a storage map key.
func (h Hasher) Hash(key []byte) []byte {
	switch h {
	case Twox64Concat:
		return append(twox(key, 1), key...)
	case Twox64:
		return twox(key, 1)
	case Twox256:
		return twox(key, 4)
	case Blake2_128Concat:
		return append(Blake2_128(key), key...)
	default:
		out := make([]byte, len(key))
		copy(out, key)
		return out
	}
}

// Twox128 is xxhash64 seeded with 0 and 1, both little-endian, concatenated.
func Twox128(data []byte) []byte {
	return twox(data, 2)
}

// Twox64Hash is xxhash64 seeded with 0, little-endian.
func Twox64Hash(data []byte) []byte {
	return twox(data, 1)
}

func twox(data []byte, rounds int) []byte {
	out := make([]byte, 0, rounds*8)
	for seed := 0; seed < rounds; seed++ {
		d := xxhash.NewWithSeed(uint64(seed))
		_, _ = d.Write(data)
		out = binary.LittleEndian.AppendUint64(out, d.Sum64())
	}
	return out
}

func Blake2_128(data []byte) []byte {
	h, _ := blake2b.New(16, nil)
	_, _ = h.Write(data)
	return h.Sum(nil)
}

func Blake2_256(data []byte) []byte {
	sum := blake2b.Sum256(data)
	return sum[:]
}
