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
	"sync"

	"github.com/ethstatedb/accountdb/common"
	"github.com/ethstatedb/accountdb/crypto"
	"github.com/ethstatedb/accountdb/rlp"
)

// hasher collapses a node tree into its canonical RLP encoding and Keccak256
// hash, inlining any child whose own encoding is shorter than a hash (32
// bytes) directly into its parent rather than storing it out-of-line.
type hasher struct {
	tmp []byte
}

var hasherPool = sync.Pool{
	New: func() interface{} { return &hasher{} },
}

func newHasher() *hasher {
	return hasherPool.Get().(*hasher)
}

func returnHasherToPool(h *hasher) {
	hasherPool.Put(h)
}

// hash produces the canonical (hashNode or embedded) form of n, along with
// the same node with its flags.hash field populated so a subsequent Commit
// does not need to recompute it. The root call should pass force=true so
// even a small root node is always content-addressed by hash.
func (h *hasher) hash(n node, force bool) (collapsed, cached node) {
	if hash := n.cacheHash(); hash != nil {
		return hash, n
	}
	switch n := n.(type) {
	case *shortNode:
		collapsed, cached := h.hashShortNodeChildren(n)
		hashed := h.shortnodeToHash(collapsed, force)
		if hn, ok := hashed.(hashNode); ok {
			cached.flags.hash = hn
		} else {
			cached.flags.hash = nil
		}
		return hashed, cached
	case *fullNode:
		collapsed, cached := h.hashFullNodeChildren(n)
		hashed := h.fullnodeToHash(collapsed, force)
		if hn, ok := hashed.(hashNode); ok {
			cached.flags.hash = hn
		} else {
			cached.flags.hash = nil
		}
		return hashed, cached
	default:
		// hashNode, valueNode: already in their canonical form.
		return n, n
	}
}

func (h *hasher) hashShortNodeChildren(n *shortNode) (collapsed, cached *shortNode) {
	collapsed, cached = n.copy(), n.copy()
	collapsed.Key = hexToCompact(n.Key)
	switch n.Val.(type) {
	case *fullNode, *shortNode:
		collapsed.Val, cached.Val = h.hash(n.Val, false)
	}
	return collapsed, cached
}

func (h *hasher) hashFullNodeChildren(n *fullNode) (collapsed, cached *fullNode) {
	cached = n.copy()
	collapsed = n.copy()
	for i := 0; i < 16; i++ {
		if child := n.Children[i]; child != nil {
			collapsed.Children[i], cached.Children[i] = h.hash(child, false)
		} else {
			collapsed.Children[i] = nilValueNode
		}
	}
	return collapsed, cached
}

// nilValueNode is the canonical encoding of a missing branch child: the RLP
// empty string.
var nilValueNode = valueNode(nil)

// shortnodeToHash encodes n and either returns it inline (if the encoding
// is smaller than a hash) or returns a hashNode referencing it in the
// database, per the 32-byte inlining rule.
func (h *hasher) shortnodeToHash(n *shortNode, force bool) node {
	blob := encodeNode(n)
	return h.store(blob, force)
}

func (h *hasher) fullnodeToHash(n *fullNode, force bool) node {
	blob := encodeNode(n)
	return h.store(blob, force)
}

func (h *hasher) store(blob []byte, force bool) node {
	if len(blob) < 32 && !force {
		return rawNode(blob)
	}
	return hashNode(crypto.Keccak256(blob))
}

// encodeNode returns the canonical RLP encoding of a collapsed node (one
// whose children are already hashNode, rawNode, or valueNode — never a live
// *fullNode/*shortNode pointer).
func encodeNode(n node) []byte {
	switch n := n.(type) {
	case *shortNode:
		return rlp.EncodeList(rlp.EncodeString(n.Key), encodeRef(n.Val))
	case *fullNode:
		items := make([][]byte, 17)
		for i := 0; i < 16; i++ {
			items[i] = encodeRef(n.Children[i])
		}
		if v, ok := n.Children[16].(valueNode); ok {
			items[16] = rlp.EncodeString(v)
		} else {
			items[16] = rlp.EncodeString(nil)
		}
		return rlp.EncodeList(items...)
	case valueNode:
		return rlp.EncodeString(n)
	case hashNode:
		return rlp.EncodeString(n)
	case rawNode:
		return n
	default:
		panic("encodeNode: unsupported node type")
	}
}

// commit mirrors hash but additionally persists every dirty node it hashes
// into db, owner-namespaced, returning the collapsed (hashNode/rawNode)
// form so the parent can reference it. Only called from Trie.Commit.
//
// Unlike hash, commit must not reuse a cached flags.hash as a signal that
// the node is already in db: a prior Hash() call (e.g. to log a pending
// root before committing) populates flags.hash without inserting anything,
// so the skip below is gated on flags.dirty being false — true only for a
// node that was loaded from db and never modified since.
func (h *hasher) commit(owner common.Hash, db *Database, n node, force bool) (node, error) {
	switch n := n.(type) {
	case *shortNode:
		if !n.flags.dirty {
			if hash := n.cacheHash(); hash != nil {
				return hash, nil
			}
		}
		collapsed := n.copy()
		collapsed.Key = hexToCompact(n.Key)
		switch n.Val.(type) {
		case *fullNode, *shortNode:
			child, err := h.commit(owner, db, n.Val, false)
			if err != nil {
				return nil, err
			}
			collapsed.Val = child
		}
		return h.commitStore(owner, db, encodeNode(collapsed), force)
	case *fullNode:
		if !n.flags.dirty {
			if hash := n.cacheHash(); hash != nil {
				return hash, nil
			}
		}
		collapsed := n.copy()
		for i := 0; i < 16; i++ {
			if child := n.Children[i]; child != nil {
				c, err := h.commit(owner, db, child, false)
				if err != nil {
					return nil, err
				}
				collapsed.Children[i] = c
			} else {
				collapsed.Children[i] = nilValueNode
			}
		}
		return h.commitStore(owner, db, encodeNode(collapsed), force)
	default:
		return n, nil
	}
}

func (h *hasher) commitStore(owner common.Hash, db *Database, blob []byte, force bool) (node, error) {
	if len(blob) < 32 && !force {
		return rawNode(blob), nil
	}
	hash := crypto.Keccak256(blob)
	if err := db.Insert(owner, common.BytesToHash(hash), blob); err != nil {
		return nil, err
	}
	return hashNode(hash), nil
}

// encodeRef encodes a (possibly nil) child reference: an embedded node's
// own RLP blob, a 32-byte hash string, or the empty string for no child.
func encodeRef(n node) []byte {
	switch n := n.(type) {
	case nil:
		return rlp.EncodeString(nil)
	case hashNode:
		return rlp.EncodeString(n)
	case rawNode:
		return n
	case *shortNode, *fullNode:
		return encodeNode(n)
	case valueNode:
		if len(n) == 0 {
			return rlp.EncodeString(nil)
		}
		return rlp.EncodeString(n)
	default:
		panic("encodeRef: unsupported node type")
	}
}
