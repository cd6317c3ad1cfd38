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

import (
	"errors"
	"fmt"

	"github.com/ethstatedb/accountdb/rlp"
)

var errDecode = errors.New("trie: invalid node encoding")

// decodeNode parses the RLP blob of a single trie node. A two-item list is
// a shortNode (leaf or extension); a seventeen-item list is a fullNode.
func decodeNode(hash, buf []byte) (node, error) {
	if len(buf) == 0 {
		return nil, rlp.ErrUnexpectedEOF
	}
	content, _, err := rlp.SplitList(buf)
	if err != nil {
		return nil, fmt.Errorf("%w: not a list: %v", errDecode, err)
	}
	items, err := rlp.ListElements(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errDecode, err)
	}
	switch len(items) {
	case 2:
		n, err := decodeShort(hash, items)
		return n, err
	case 17:
		n, err := decodeFull(hash, items)
		return n, err
	default:
		return nil, fmt.Errorf("%w: invalid number of list elements: %d", errDecode, len(items))
	}
}

func decodeShort(hash []byte, items [][]byte) (node, error) {
	kbuf, _, err := rlp.SplitString(items[0])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid key: %v", errDecode, err)
	}
	key := compactToHex(kbuf)
	if hasTerm(key) {
		// leaf node
		val, _, err := rlp.SplitString(items[1])
		if err != nil {
			return nil, fmt.Errorf("%w: invalid leaf value: %v", errDecode, err)
		}
		return &shortNode{Key: key, Val: valueNode(append([]byte{}, val...)), flags: nodeFlag{hash: hashNode(hash)}}, nil
	}
	val, err := decodeRef(items[1])
	if err != nil {
		return nil, err
	}
	return &shortNode{Key: key, Val: val, flags: nodeFlag{hash: hashNode(hash)}}, nil
}

func decodeFull(hash []byte, items [][]byte) (*fullNode, error) {
	n := &fullNode{flags: nodeFlag{hash: hashNode(hash)}}
	for i := 0; i < 16; i++ {
		cld, err := decodeRef(items[i])
		if err != nil {
			return n, err
		}
		n.Children[i] = cld
	}
	val, _, err := rlp.SplitString(items[16])
	if err != nil {
		return n, fmt.Errorf("%w: invalid full node value: %v", errDecode, err)
	}
	if len(val) > 0 {
		n.Children[16] = valueNode(append([]byte{}, val...))
	}
	return n, nil
}

// decodeRef decodes a child reference: either an inlined node (embedded
// list) or a 32-byte hashNode pointer, or the empty string for no child.
func decodeRef(buf []byte) (node, error) {
	kind, val, rest, err := rlp.Kind(buf)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid reference: %v", errDecode, err)
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("%w: trailing data after node reference", errDecode)
	}
	switch {
	case kind == rlp.List:
		// inlined node: buf is the embedded list's own full encoding.
		return decodeNode(nil, buf)
	case len(val) == 0:
		return nil, nil
	case len(val) == 32:
		return hashNode(append([]byte{}, val...)), nil
	default:
		return nil, fmt.Errorf("%w: invalid reference size %d", errDecode, len(val))
	}
}
