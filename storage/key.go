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

// Package storage derives the storage keys and encodes the storage values
// written into forked chain state.
package storage

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// CodeKey is the well-known key holding the runtime wasm blob.
var CodeKey = []byte(":code")

// PalletPrefix is the twox128 hash of a pallet name, the common prefix of
// every key the pallet owns.
func PalletPrefix(pallet string) []byte {
	return Twox128([]byte(pallet))
}

// PalletItemKey is the key of a storage value: twox128(pallet) ++ twox128(item).
func PalletItemKey(pallet, item string) []byte {
	return append(PalletPrefix(pallet), Twox128([]byte(item))...)
}

// PalletMapKey is the key of a storage map entry.
func PalletMapKey(pallet, item string, key []byte, hasher Hasher) []byte {
	return append(PalletItemKey(pallet, item), hasher.Hash(key)...)
}

// Hex encodes b as lowercase hex without prefix.
func Hex(b []byte) string {
	return hex.EncodeToString(b)
}

// Hex0x encodes b as lowercase hex with a 0x prefix, the chain-spec form.
func Hex0x(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// DecodeHex accepts hex with or without a 0x prefix. Surrounding
// whitespace is ignored.
func DecodeHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q: %w", abbreviate(s), err)
	}
	return b, nil
}

// MustDecodeHex is DecodeHex for compile-time constants.
func MustDecodeHex(s string) []byte {
	b, err := DecodeHex(s)
	if err != nil {
		panic(err)
	}
	return b
}

// TrimHexPrefix normalises a hex key for map lookups.
func TrimHexPrefix(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, "0x"))
}

func abbreviate(s string) string {
	if len(s) > 16 {
		return s[:16] + "..."
	}
	return s
}
