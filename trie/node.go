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
	"fmt"
)

// node is the in-memory representation of a trie node: either a fullNode
// (the 16-way branch), a shortNode (leaf or extension), a hashNode (a
// pointer by hash to a node not currently loaded), or a valueNode (the
// leaf payload).
type node interface {
	fstring(string) string
	cacheHash() hashNode
}

type (
	// fullNode is a 16-way branch plus an optional value at the key
	// terminating exactly at this node.
	fullNode struct {
		Children [17]node // 16 nibble branches + value slot
		flags    nodeFlag
	}

	// shortNode collapses a run of nibbles with a single child, used for
	// both leaves (Val is a valueNode) and extensions (Val is a fullNode
	// or hashNode).
	shortNode struct {
		Key   []byte
		Val   node
		flags nodeFlag
	}

	// hashNode is a 32-byte Keccak256 reference to a node stored
	// out-of-line in the backing Database.
	hashNode []byte

	// valueNode is the raw value stored at a trie leaf.
	valueNode []byte
)

// nodeFlag holds metadata cached on each in-memory node: the node's already
// computed hash (nil if not yet hashed) and whether it has been modified
// since it was loaded from the database.
type nodeFlag struct {
	hash  hashNode
	dirty bool
}

func (n *fullNode) copy() *fullNode   { c := *n; return &c }
func (n *shortNode) copy() *shortNode { c := *n; return &c }

func (n *fullNode) cacheHash() hashNode  { return n.flags.hash }
func (n *shortNode) cacheHash() hashNode { return n.flags.hash }
func (n hashNode) cacheHash() hashNode   { return nil }
func (n valueNode) cacheHash() hashNode  { return nil }

func (n *fullNode) fstring(ind string) string {
	resp := fmt.Sprintf("[\n%s  ", ind)
	for i, child := range &n.Children {
		if child == nil {
			resp += fmt.Sprintf("%s: <nil> ", indices[i])
			continue
		}
		resp += fmt.Sprintf("%s: %v", indices[i], child.fstring(ind+"  "))
	}
	return resp + fmt.Sprintf("\n%s] ", ind)
}

func (n *shortNode) fstring(ind string) string {
	return fmt.Sprintf("{%x: %v} ", n.Key, n.Val.fstring(ind+"  "))
}

func (n hashNode) fstring(string) string  { return fmt.Sprintf("<%x> ", []byte(n)) }
func (n valueNode) fstring(string) string { return fmt.Sprintf("%x ", []byte(n)) }

var indices = []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", "a", "b", "c", "d", "e", "f", "[17]"}

// mustDecodeNode decodes the RLP-encoded blob of a node whose hash is hash,
// panicking on malformed input (the blob is either produced by hasher.store
// or trusted database content, never attacker-controlled in isolation).
func mustDecodeNode(hash, buf []byte) node {
	n, err := decodeNode(hash, buf)
	if err != nil {
		panic(fmt.Sprintf("node %x: %v", hash, err))
	}
	return n
}

// rawNode holds the RLP encoding of a node small enough to be inlined into
// its parent, as returned by the hasher; encodeRef splices it into the
// parent's encoding unchanged.
type rawNode []byte

func (n rawNode) fstring(string) string { return fmt.Sprintf("raw(%d bytes) ", len(n)) }
func (n rawNode) cacheHash() hashNode   { return nil }
