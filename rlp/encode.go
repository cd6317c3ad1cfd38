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

package rlp

import (
	"github.com/holiman/uint256"
)

// EncodeString encodes b as an RLP byte string.
func EncodeString(b []byte) []byte {
	if len(b) == 1 && b[0] < 0x80 {
		return []byte{b[0]}
	}
	head := encodeHeader(0x80, 0xB7, len(b))
	return append(head, b...)
}

// EncodeUint64 encodes i as its minimal big-endian byte representation,
// wrapped as an RLP string (the canonical integer encoding: no leading
// zero bytes, and zero itself encodes as the empty string).
func EncodeUint64(i uint64) []byte {
	if i == 0 {
		return []byte{0x80}
	}
	var b [8]byte
	n := 8
	for n > 0 && i > 0 {
		n--
		b[n] = byte(i)
		i >>= 8
	}
	return EncodeString(b[n:])
}

// EncodeUint256 encodes a 256-bit unsigned integer as a canonical RLP string.
func EncodeUint256(v *uint256.Int) []byte {
	if v == nil || v.IsZero() {
		return []byte{0x80}
	}
	return EncodeString(v.Bytes())
}

// EncodeList wraps the concatenation of already-encoded items as an RLP list.
func EncodeList(items ...[]byte) []byte {
	size := 0
	for _, it := range items {
		size += len(it)
	}
	head := encodeHeader(0xC0, 0xF7, size)
	out := make([]byte, 0, len(head)+size)
	out = append(out, head...)
	for _, it := range items {
		out = append(out, it...)
	}
	return out
}

// encodeHeader builds the length-prefix header for a string (shortBase=0x80,
// longBase=0xB7) or list (shortBase=0xC0, longBase=0xF7) payload of size
// bytes.
func encodeHeader(shortBase, longBase byte, size int) []byte {
	if size < 56 {
		return []byte{shortBase + byte(size)}
	}
	var lenBytes []byte
	n := size
	for n > 0 {
		lenBytes = append([]byte{byte(n)}, lenBytes...)
		n >>= 8
	}
	return append([]byte{longBase + byte(len(lenBytes))}, lenBytes...)
}
