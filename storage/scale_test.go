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
)

func TestCompactEncoding(t *testing.T) {
	tcs := []struct {
		n        uint64
		expected string
	}{
		{0, "00"},
		{1, "04"},
		{2, "08"},
		{7, "1c"},
		{63, "fc"},
		{64, "0101"},
		{16383, "fdff"},
		{16384, "02000100"},
		{65535, "feff0300"},
		{1<<30 - 1, "feffffff"},
		{1 << 30, "0300000040"},
		{1 << 32, "070000000001"},
	}
	for _, tc := range tcs {
		assert.Equal(t, tc.expected, storage.Hex(storage.CompactUint(tc.n)), "n=%d", tc.n)
	}
}

func TestSequencesAndVectors(t *testing.T) {
	t.Run("Compact sequences prefix the item count", func(t *testing.T) {
		seq := storage.CompactSeq(storage.U32LE(0), storage.U32LE(1))
		assert.Equal(t, "080000000001000000", storage.Hex(seq))
		assert.Equal(t, "00", storage.Hex(storage.CompactSeq()))
	})

	t.Run("Byte vectors prefix the length", func(t *testing.T) {
		head := make([]byte, 100)
		encoded := storage.EncodeBytes(head)
		assert.Equal(t, "9101", storage.Hex(encoded[:2]))
		assert.Len(t, encoded, 102)
	})

	t.Run("Fixed width integers are little endian", func(t *testing.T) {
		assert.Equal(t, "e8030000", storage.Hex(storage.U32LE(1000)))
		assert.Equal(t, "0100000000000000", storage.Hex(storage.U64LE(1)))
	})
}
