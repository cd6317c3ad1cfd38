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

// Package trie implements a Merkle-Patricia trie: a radix-16, hash-addressed
// tree where every node is content-addressed by the Keccak256 hash of its
// canonical RLP encoding, and any node whose encoding is smaller than a hash
// is inlined directly into its parent rather than stored out-of-line.
package trie

import (
	"github.com/ethstatedb/accountdb/common"
	"github.com/ethstatedb/accountdb/crypto"
	"github.com/ethstatedb/accountdb/rlp"
)

// EmptyRootHash is the well-known root hash of the empty trie:
// KECCAK256(RLP(Empty)), the RLP encoding of the empty node being the
// single byte 0x80 (the empty string).
var EmptyRootHash = common.BytesToHash(crypto.Keccak256(rlp.EncodeString(nil)))

// Trie is a Merkle-Patricia trie over one (owner, root) namespace of a
// Database. The zero owner addresses the main account trie; any other
// owner addresses a per-account storage trie, keeping every trie's nodes
// disjoint within the same backing Database.
type Trie struct {
	db           *Database
	owner        common.Hash
	root         node
	originalRoot common.Hash
}

// New opens the trie rooted at root within db, under the given owner
// namespace. An empty (zero) root opens a brand new, empty trie. A non-zero
// root that is not present in db returns ErrInvalidStateRoot.
func New(owner, root common.Hash, db *Database) (*Trie, error) {
	t := &Trie{db: db, owner: owner, originalRoot: root}
	if root.IsZero() || root == EmptyRootHash {
		return t, nil
	}
	if !db.Contains(owner, root) {
		return nil, &ErrInvalidStateRoot{Root: root}
	}
	t.root = hashNode(root.Bytes())
	return t, nil
}

// Get returns the value associated with key, or nil if key is not present.
func (t *Trie) Get(key []byte) ([]byte, error) {
	value, newroot, didResolve, err := t.get(t.root, keybytesToHex(key), 0)
	if err == nil && didResolve {
		t.root = newroot
	}
	if v, ok := value.(valueNode); ok {
		return []byte(v), err
	}
	return nil, err
}

func (t *Trie) get(origNode node, key []byte, pos int) (value node, newnode node, didResolve bool, err error) {
	switch n := origNode.(type) {
	case nil:
		return nil, nil, false, nil
	case valueNode:
		return n, n, false, nil
	case *shortNode:
		if len(key)-pos < len(n.Key) || !equalHex(n.Key, key[pos:pos+len(n.Key)]) {
			return nil, n, false, nil
		}
		value, newnode, didResolve, err = t.get(n.Val, key, pos+len(n.Key))
		if err == nil && didResolve {
			n = n.copy()
			n.Val = newnode
		}
		return value, n, didResolve, err
	case *fullNode:
		value, newnode, didResolve, err = t.get(n.Children[key[pos]], key, pos+1)
		if err == nil && didResolve {
			n = n.copy()
			n.Children[key[pos]] = newnode
		}
		return value, n, didResolve, err
	case hashNode:
		child, err := t.resolveHash(n)
		if err != nil {
			return nil, n, true, err
		}
		value, newnode, _, err := t.get(child, key, pos)
		return value, newnode, true, err
	default:
		panic("trie: invalid node type")
	}
}

func equalHex(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (t *Trie) resolveHash(n hashNode) (node, error) {
	return t.db.Node(t.owner, common.BytesToHash(n))
}

// Update associates key with value in the trie. An empty value deletes key
// (matching the convention that a zero-length value is indistinguishable
// from absence).
func (t *Trie) Update(key, value []byte) error {
	if len(value) == 0 {
		return t.Delete(key)
	}
	k := keybytesToHex(key)
	n, err := t.insert(t.root, nil, k, valueNode(value))
	if err != nil {
		return err
	}
	t.root = n
	return nil
}

func (t *Trie) insert(n node, prefix, key []byte, value node) (node, error) {
	if len(key) == 0 {
		return value, nil
	}
	switch n := n.(type) {
	case *shortNode:
		match := prefixLen(key, n.Key)
		if match == len(n.Key) {
			newVal, err := t.insert(n.Val, append(prefix, key[:match]...), key[match:], value)
			if err != nil {
				return nil, err
			}
			return &shortNode{Key: n.Key, Val: newVal, flags: nodeFlag{dirty: true}}, nil
		}
		branch := &fullNode{flags: nodeFlag{dirty: true}}
		var err error
		branch.Children[n.Key[match]], err = t.insert(nil, append(prefix, n.Key[:match+1]...), n.Key[match+1:], n.Val)
		if err != nil {
			return nil, err
		}
		branch.Children[key[match]], err = t.insert(nil, append(prefix, key[:match+1]...), key[match+1:], value)
		if err != nil {
			return nil, err
		}
		if match == 0 {
			return branch, nil
		}
		return &shortNode{Key: key[:match], Val: branch, flags: nodeFlag{dirty: true}}, nil

	case *fullNode:
		newChild, err := t.insert(n.Children[key[0]], append(prefix, key[0]), key[1:], value)
		if err != nil {
			return nil, err
		}
		n = n.copy()
		n.flags = nodeFlag{dirty: true}
		n.Children[key[0]] = newChild
		return n, nil

	case nil:
		return &shortNode{Key: key, Val: value, flags: nodeFlag{dirty: true}}, nil

	case hashNode:
		rn, err := t.resolveHash(n)
		if err != nil {
			return nil, err
		}
		return t.insert(rn, prefix, key, value)

	default:
		panic("trie: invalid node type")
	}
}

// Delete removes key from the trie. Deleting an absent key is a no-op.
func (t *Trie) Delete(key []byte) error {
	k := keybytesToHex(key)
	n, _, err := t.delete(t.root, nil, k)
	if err != nil {
		return err
	}
	t.root = n
	return nil
}

func (t *Trie) delete(n node, prefix, key []byte) (node, bool, error) {
	switch n := n.(type) {
	case *shortNode:
		match := prefixLen(key, n.Key)
		if match < len(n.Key) {
			return n, false, nil
		}
		if match == len(key) {
			return nil, true, nil
		}
		newVal, dirty, err := t.delete(n.Val, append(prefix, key[:len(n.Key)]...), key[len(n.Key):])
		if !dirty || err != nil {
			return n, false, err
		}
		switch child := newVal.(type) {
		case *shortNode:
			return &shortNode{Key: concat(n.Key, child.Key), Val: child.Val, flags: nodeFlag{dirty: true}}, true, nil
		default:
			return &shortNode{Key: n.Key, Val: newVal, flags: nodeFlag{dirty: true}}, true, nil
		}

	case *fullNode:
		child, dirty, err := t.delete(n.Children[key[0]], append(prefix, key[0]), key[1:])
		if !dirty || err != nil {
			return n, false, err
		}
		n = n.copy()
		n.flags = nodeFlag{dirty: true}
		n.Children[key[0]] = child

		pos := -1
		for i, c := range &n.Children {
			if c != nil {
				if pos == -1 {
					pos = i
				} else {
					pos = -2
					break
				}
			}
		}
		if pos >= 0 {
			if pos != 16 {
				cnode, err := t.resolve(n.Children[pos], append(prefix, byte(pos)))
				if err != nil {
					return nil, false, err
				}
				if cnode, ok := cnode.(*shortNode); ok {
					k := append([]byte{byte(pos)}, cnode.Key...)
					return &shortNode{Key: k, Val: cnode.Val, flags: nodeFlag{dirty: true}}, true, nil
				}
			}
			return &shortNode{Key: []byte{byte(pos)}, Val: n.Children[pos], flags: nodeFlag{dirty: true}}, true, nil
		}
		return n, true, nil

	case valueNode:
		return nil, true, nil

	case nil:
		return nil, false, nil

	case hashNode:
		rn, err := t.resolveHash(n)
		if err != nil {
			return nil, false, err
		}
		return t.delete(rn, prefix, key)

	default:
		panic("trie: invalid node type")
	}
}

func (t *Trie) resolve(n node, prefix []byte) (node, error) {
	if hn, ok := n.(hashNode); ok {
		return t.resolveHash(hn)
	}
	return n, nil
}

func concat(s1 []byte, s2 ...byte) []byte {
	r := make([]byte, len(s1)+len(s2))
	copy(r, s1)
	copy(r[len(s1):], s2)
	return r
}

// Hash returns the trie's root hash, resolving and collapsing any dirty
// in-memory nodes but without persisting anything to the Database.
func (t *Trie) Hash() common.Hash {
	if t.root == nil {
		return EmptyRootHash
	}
	h := newHasher()
	defer returnHasherToPool(h)
	collapsed, cached := h.hash(t.root, true)
	t.root = cached
	if hn, ok := collapsed.(hashNode); ok {
		return common.BytesToHash(hn)
	}
	// A trie small enough to be fully inlined still has a canonical root
	// hash: hash its encoding directly, one level up.
	return common.BytesToHash(crypto.Keccak256(encodeNode(collapsed)))
}

// Commit persists every dirty node reachable from the trie's root into the
// backing Database (without yet flushing the Database's own dirty buffer to
// the kvstore.Database — call Database.Commit for that) and returns the new
// root hash.
func (t *Trie) Commit() (common.Hash, error) {
	if t.root == nil {
		return EmptyRootHash, nil
	}
	h := newHasher()
	defer returnHasherToPool(h)
	collapsed, err := h.commit(t.owner, t.db, t.root, true)
	if err != nil {
		return common.Hash{}, err
	}
	hn, ok := collapsed.(hashNode)
	if !ok {
		blob := encodeNode(collapsed)
		hash := crypto.Keccak256(blob)
		if err := t.db.Insert(t.owner, common.BytesToHash(hash), blob); err != nil {
			return common.Hash{}, err
		}
		hn = hashNode(hash)
	}
	root := common.BytesToHash(hn)
	t.root = hashNode(hn)
	t.originalRoot = root
	return root, nil
}
