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
	"testing"

	"github.com/stretchr/testify/require"
)

// A node whose RLP encoding is smaller than a hash (32 bytes) is inlined as
// a rawNode rather than hash-addressed; one whose encoding is at least 32
// bytes is always content-addressed by hash. This is the 32-byte inlining
// law every trie node is subject to.
func TestNodeInliningLaw(t *testing.T) {
	h := newHasher()
	defer returnHasherToPool(h)

	small := &shortNode{Key: []byte{1, 2, 3}, Val: valueNode([]byte("x"))}
	require.Less(t, len(encodeNode(small)), 32)
	collapsed, _ := h.hash(small, false)
	_, isRaw := collapsed.(rawNode)
	require.True(t, isRaw, "node smaller than a hash must be inlined, got %T", collapsed)

	big := &shortNode{Key: []byte{1, 2, 3}, Val: valueNode(make([]byte, 64))}
	require.GreaterOrEqual(t, len(encodeNode(big)), 32)
	collapsedBig, _ := h.hash(big, false)
	_, isHash := collapsedBig.(hashNode)
	require.True(t, isHash, "node at least as large as a hash must be hash-addressed, got %T", collapsedBig)
}

// force=true always hash-addresses the root, even one small enough to
// inline, so every trie has a canonical 32-byte root hash.
func TestHashForcesRootAddressing(t *testing.T) {
	h := newHasher()
	defer returnHasherToPool(h)

	small := &shortNode{Key: []byte{1, 2, 3}, Val: valueNode([]byte("x"))}
	require.Less(t, len(encodeNode(small)), 32)
	collapsed, _ := h.hash(small, true)
	_, isHash := collapsed.(hashNode)
	require.True(t, isHash, "a forced root must be hash-addressed regardless of size, got %T", collapsed)
}
