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

// Package rlp implements the canonical recursive-length-prefix encoding
// used throughout the trie and account layers. Unlike go-ethereum's own
// reflection-driven rlp package, this one exposes the low-level
// Split/Encode primitives directly (SplitString, SplitList, CountValues,
// EncodeList) and leaves struct-shaped encoding to hand-written
// EncodeRLP/DecodeRLP methods on the handful of types that need it
// (trie nodes, Account) — the same primitives go-ethereum's own trie
// package reaches for (rlp.SplitList, rlp.CountValues) when decoding
// nodes outside the generic path.
package rlp

import (
	"errors"
)

// Kind enumerates the three shapes an RLP value can take.
type Kind int

const (
	Byte Kind = iota
	String
	List
)

var (
	ErrExpectedString = errors.New("rlp: expected String or Byte")
	ErrExpectedList   = errors.New("rlp: expected List")
	ErrCanonInt       = errors.New("rlp: non-canonical integer format")
	ErrCanonSize      = errors.New("rlp: non-canonical size information")
	ErrElemTooLarge   = errors.New("rlp: element is larger than containing list")
	ErrValueTooLarge  = errors.New("rlp: value size exceeds available input length")
	ErrUnexpectedEOF  = errors.New("rlp: unexpected EOF")
)

// Raw is a pre-encoded (or to-be-decoded) RLP value, used to splice
// sub-encodings together without re-parsing them (e.g. a trie child
// reference that may be an inlined node's own encoding or a 32-byte hash).
type Raw []byte

// Kind returns the kind and content boundaries of the first RLP value in b.
// It returns the kind, the content slice (without the header), and the
// remaining tail.
func Kind(b []byte) (k Kind, content, rest []byte, err error) {
	if len(b) == 0 {
		return 0, nil, nil, ErrUnexpectedEOF
	}
	tag := b[0]
	switch {
	case tag < 0x80:
		return Byte, b[:1], b[1:], nil
	case tag < 0xB8:
		size := int(tag - 0x80)
		return splitStringShort(b, size)
	case tag < 0xC0:
		return splitStringLong(b, tag)
	case tag < 0xF8:
		size := int(tag - 0xC0)
		return splitListShort(b, size)
	default:
		return splitListLong(b, tag)
	}
}

func splitStringShort(b []byte, size int) (Kind, []byte, []byte, error) {
	if 1+size > len(b) {
		return 0, nil, nil, ErrValueTooLarge
	}
	if size == 1 && b[1] < 0x80 {
		return 0, nil, nil, ErrCanonSize
	}
	return String, b[1 : 1+size], b[1+size:], nil
}

func splitStringLong(b []byte, tag byte) (Kind, []byte, []byte, error) {
	nlen := int(tag - 0xB7)
	if nlen > len(b)-1 {
		return 0, nil, nil, ErrValueTooLarge
	}
	size, err := readSize(b[1:1+nlen], nlen)
	if err != nil {
		return 0, nil, nil, err
	}
	end := 1 + nlen + size
	if end < 0 || end > len(b) {
		return 0, nil, nil, ErrValueTooLarge
	}
	if size < 56 {
		return 0, nil, nil, ErrCanonSize
	}
	return String, b[1+nlen : end], b[end:], nil
}

func splitListShort(b []byte, size int) (Kind, []byte, []byte, error) {
	if 1+size > len(b) {
		return 0, nil, nil, ErrValueTooLarge
	}
	return List, b[1 : 1+size], b[1+size:], nil
}

func splitListLong(b []byte, tag byte) (Kind, []byte, []byte, error) {
	nlen := int(tag - 0xF7)
	if nlen > len(b)-1 {
		return 0, nil, nil, ErrValueTooLarge
	}
	size, err := readSize(b[1:1+nlen], nlen)
	if err != nil {
		return 0, nil, nil, err
	}
	end := 1 + nlen + size
	if end < 0 || end > len(b) {
		return 0, nil, nil, ErrValueTooLarge
	}
	if size < 56 {
		return 0, nil, nil, ErrCanonSize
	}
	return List, b[1+nlen : end], b[end:], nil
}

func readSize(b []byte, nlen int) (int, error) {
	if b[0] == 0 {
		return 0, ErrCanonSize
	}
	var size uint64
	for _, bb := range b {
		size = size<<8 | uint64(bb)
	}
	if size > uint64(^uint(0)>>1) {
		return 0, ErrValueTooLarge
	}
	return int(size), nil
}

// SplitString splits b into the content of the first RLP string/byte value
// and the remaining tail.
func SplitString(b []byte) (content, rest []byte, err error) {
	k, content, rest, err := Kind(b)
	if err != nil {
		return nil, b, err
	}
	if k == List {
		return nil, b, ErrExpectedString
	}
	return content, rest, nil
}

// SplitList splits b into the content of the first RLP list and the
// remaining tail.
func SplitList(b []byte) (content, rest []byte, err error) {
	k, content, rest, err := Kind(b)
	if err != nil {
		return nil, b, err
	}
	if k != List {
		return nil, b, ErrExpectedList
	}
	return content, rest, nil
}

// CountValues counts the number of top-level RLP values encoded in b.
func CountValues(b []byte) (int, error) {
	i := 0
	for len(b) > 0 {
		_, tail, err := SplitAny(b)
		if err != nil {
			return 0, err
		}
		b = tail
		i++
	}
	return i, nil
}

// SplitAny splits off the first value (string or list) in its entirety,
// returning the whole encoded value (header included) and the remainder.
func SplitAny(b []byte) (item, rest []byte, err error) {
	_, _, rest, err = Kind(b)
	if err != nil {
		return nil, b, err
	}
	itemLen := len(b) - len(rest)
	return b[:itemLen], rest, nil
}
