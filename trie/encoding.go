// Copyright 2024 The accountdb Authors
// This file is part of the accountdb library.
//
// The accountdb library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The accountdb library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the accountdb library. If not, see <http://www.gnu.org/licenses/>.

package trie

// Trie keys come in three encodings: KEYBYTES (the caller's raw key),
// HEX (one nibble per byte, with an optional terminator byte marking a
// leaf), and COMPACT (the hex-prefix encoding used on the wire and in the
// database, packing two nibbles per byte).

// hexToCompact packs a hex-encoded (possibly terminated) nibble sequence
// into its compact (hex-prefix) form.
func hexToCompact(hex []byte) []byte {
	terminator := byte(0)
	if hasTerm(hex) {
		terminator = 1
		hex = hex[:len(hex)-1]
	}
	buf := make([]byte, len(hex)/2+1)
	buf[0] = terminator << 5
	if len(hex)&1 == 1 {
		buf[0] |= 1 << 4
		buf[0] |= hex[0]
		hex = hex[1:]
	}
	decodeNibbles(hex, buf[1:])
	return buf
}

// compactToHex expands a compact (hex-prefix) encoded key back to its hex
// form, restoring the terminator byte if the odd/even+terminator flag bits
// say this path ends at a leaf.
func compactToHex(compact []byte) []byte {
	if len(compact) == 0 {
		return compact
	}
	base := keybytesToHex(compact)
	base = base[:len(base)-1]
	if base[0]&1 == 0 {
		base = base[2:]
	} else {
		base = base[1:]
	}
	if compact[0]&0x20 != 0 {
		base = append(base, 16)
	}
	return base
}

// keybytesToHex expands raw key bytes into the HEX encoding, appending the
// terminator nibble (16) that marks the end of the key.
func keybytesToHex(str []byte) []byte {
	l := len(str)*2 + 1
	nibbles := make([]byte, l)
	for i, b := range str {
		nibbles[i*2] = b / 16
		nibbles[i*2+1] = b % 16
	}
	nibbles[l-1] = 16
	return nibbles
}

// hexToKeybytes turns a HEX-encoded key with its terminator back into raw
// key bytes. The input must have come from an even number of nibbles.
func hexToKeybytes(hex []byte) []byte {
	if hasTerm(hex) {
		hex = hex[:len(hex)-1]
	}
	if len(hex)&1 != 0 {
		panic("can't convert hex key of odd length")
	}
	key := make([]byte, len(hex)/2)
	decodeNibbles(hex, key)
	return key
}

func decodeNibbles(nibbles []byte, bytes []byte) {
	for bi, ni := 0, 0; ni < len(nibbles); bi, ni = bi+1, ni+2 {
		bytes[bi] = nibbles[ni]<<4 | nibbles[ni+1]
	}
}

// prefixLen returns the length of the common prefix of a and b.
func prefixLen(a, b []byte) int {
	var i int
	for ; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			break
		}
	}
	return i
}

// hasTerm reports whether the hex-encoded key s is terminated (i.e. ends at
// a leaf rather than continuing into a branch).
func hasTerm(s []byte) bool {
	return len(s) > 0 && s[len(s)-1] == 16
}
