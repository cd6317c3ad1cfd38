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

// status is a crumb's position in its node's traversal sequence: Entering
// it for the first time, At the node's own value (if any), AtChild(i)
// descending into branch child i, or Exiting back up to the parent. This
// mirrors the Entering/At/AtChild/Exiting state machine of the original
// TrieDBIterator, adapted to walk live node pointers instead of re-decoding
// RLP at every step.
type status int

const (
	stateEntering status = iota
	stateAt
	stateAtChild
	stateExiting
)

// crumb is one frame of the iterator's descent stack. keyLen records the
// length of the accumulated key at the moment this node was entered, so
// Exiting can truncate back to exactly that length regardless of how many
// nibbles this node's own key (or its parent's selector nibble) contributed.
type crumb struct {
	node   node
	status status
	child  int
	keyLen int
}

func (c *crumb) increment() {
	switch {
	case c.node == nil:
		c.status = stateExiting
	case c.status == stateEntering:
		c.status = stateAt
	case c.status == stateAt:
		if _, ok := c.node.(*fullNode); ok {
			c.status = stateAtChild
			c.child = 0
			return
		}
		c.status = stateExiting
	case c.status == stateAtChild:
		if _, ok := c.node.(*fullNode); ok && c.child < 15 {
			c.child++
			return
		}
		c.status = stateExiting
	default:
		c.status = stateExiting
	}
}

// Iterator walks every (key, value) pair of a Trie in ascending key order.
type Iterator struct {
	trie  *Trie
	trail []crumb
	key   []byte // accumulated hex-encoded key nibbles
	Value []byte
	Err   error
}

// NewIterator returns an iterator positioned before the trie's first entry;
// call Next to advance to it.
func NewIterator(t *Trie) *Iterator {
	it := &Iterator{trie: t}
	if t.root != nil {
		it.descend(t.root)
	}
	return it
}

func (it *Iterator) descend(n node) {
	keyLen := len(it.key)
	resolved, err := it.trie.resolve(n, nil)
	if err != nil {
		it.Err = err
		resolved = nil
	}
	if sn, ok := resolved.(*shortNode); ok {
		it.key = append(it.key, sn.Key...)
	}
	it.trail = append(it.trail, crumb{node: resolved, status: stateEntering, keyLen: keyLen})
}

func (it *Iterator) descendChild(n node) bool {
	it.descend(n)
	return it.Next()
}

// Key returns the raw (non-hex) key bytes of the current entry.
func (it *Iterator) Key() []byte {
	return hexToKeybytes(it.key)
}

// Next advances the iterator, returning false once exhausted.
func (it *Iterator) Next() bool {
	if it.Err != nil || len(it.trail) == 0 {
		return false
	}
	top := &it.trail[len(it.trail)-1]
	top.increment()
	c := *top

	switch c.status {
	case stateExiting:
		it.key = it.key[:c.keyLen]
		it.trail = it.trail[:len(it.trail)-1]
		return it.Next()

	case stateAt:
		switch n := c.node.(type) {
		case *shortNode:
			if v, ok := n.Val.(valueNode); ok {
				it.Value = []byte(v)
				return true
			}
			return it.descendChild(n.Val)
		case *fullNode:
			if v, ok := n.Children[16].(valueNode); ok {
				it.Value = []byte(v)
				return true
			}
			return it.Next()
		default:
			return it.Next()
		}

	case stateAtChild:
		n := c.node.(*fullNode)
		child := n.Children[c.child]
		if child == nil {
			return it.Next()
		}
		it.key = append(it.key[:c.keyLen], byte(c.child))
		return it.descendChild(child)
	}
	return false
}
