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

// ListElements splits the content of an already-unwrapped RLP list (as
// returned by SplitList) into its top-level items, each still RLP-encoded.
func ListElements(content []byte) ([][]byte, error) {
	var items [][]byte
	for len(content) > 0 {
		item, rest, err := SplitAny(content)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		content = rest
	}
	return items, nil
}

// ParseUint64 decodes the canonical big-endian integer held in an RLP
// string's content (as returned by SplitString).
func ParseUint64(content []byte) (uint64, error) {
	if len(content) > 8 {
		return 0, ErrElemTooLarge
	}
	if len(content) > 0 && content[0] == 0 {
		return 0, ErrCanonInt
	}
	var v uint64
	for _, b := range content {
		v = v<<8 | uint64(b)
	}
	return v, nil
}

// ParseUint256 decodes the canonical big-endian integer held in an RLP
// string's content into a 256-bit unsigned integer.
func ParseUint256(content []byte) (*uint256.Int, error) {
	if len(content) > 32 {
		return nil, ErrElemTooLarge
	}
	if len(content) > 0 && content[0] == 0 {
		return nil, ErrCanonInt
	}
	return new(uint256.Int).SetBytes(content), nil
}
