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
	"math/bits"
)

// CompactUint is the SCALE compact encoding of n.
func CompactUint(n uint64) []byte {
	switch {
	case n < 1<<6:
		return []byte{byte(n << 2)}
	case n < 1<<14:
		return binary.LittleEndian.AppendUint16(nil, uint16(n<<2)|0b01)
	case n < 1<<30:
		return binary.LittleEndian.AppendUint32(nil, uint32(n<<2)|0b10)
	default:
		size := (bits.Len64(n) + 7) / 8
		out := make([]byte, 1, size+1)
		out[0] = byte((size-4)<<2) | 0b11
		for i := 0; i < size; i++ {
			out = append(out, byte(n>>(8*i)))
		}
		return out
	}
}

// CompactSeq encodes a sequence of already-encoded items: compact(len) ++ items.
func CompactSeq(items ...[]byte) []byte {
	out := CompactUint(uint64(len(items)))
	for _, it := range items {
		out = append(out, it...)
	}
	return out
}

// EncodeBytes encodes a byte vector (HeadData, ValidationCode):
// compact(len(b)) ++ b.
func EncodeBytes(b []byte) []byte {
	return append(CompactUint(uint64(len(b))), b...)
}

// U32LE is the fixed-width encoding of ParaId, CoreIndex and BlockNumber.
func U32LE(n uint32) []byte {
	return binary.LittleEndian.AppendUint32(nil, n)
}

// U64LE is the fixed-width encoding of authority weights.
func U64LE(n uint64) []byte {
	return binary.LittleEndian.AppendUint64(nil, n)
}
