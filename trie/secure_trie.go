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
	"github.com/ethstatedb/accountdb/common"
	"github.com/ethstatedb/accountdb/crypto"
)

// SecureTrie wraps a Trie so that every key is addressed by its Keccak256
// hash rather than its raw bytes, the "secure" trie every account and
// storage trie in the account-state layer actually uses: it keeps the trie
// shape independent of the raw key distribution (address/slot) and makes
// the resulting proofs resistant to adversarially chosen keys.
type SecureTrie struct {
	trie       Trie
	preimages  map[common.Hash][]byte
	keepPreimg bool
}

// NewSecure opens a secure trie rooted at root within db under owner.
func NewSecure(owner, root common.Hash, db *Database, keepPreimages bool) (*SecureTrie, error) {
	t, err := New(owner, root, db)
	if err != nil {
		return nil, err
	}
	st := &SecureTrie{trie: *t, keepPreimg: keepPreimages}
	if keepPreimages {
		st.preimages = make(map[common.Hash][]byte)
	}
	return st, nil
}

func (t *SecureTrie) hashKey(key []byte) common.Hash {
	h := crypto.Keccak256Hash(key)
	if t.keepPreimg {
		t.preimages[h] = common.CopyBytes(key)
	}
	return h
}

// Get returns the value associated with the raw (unhashed) key.
func (t *SecureTrie) Get(key []byte) ([]byte, error) {
	return t.trie.Get(t.hashKey(key).Bytes())
}

// Update associates the raw key with value.
func (t *SecureTrie) Update(key, value []byte) error {
	return t.trie.Update(t.hashKey(key).Bytes(), value)
}

// Delete removes the raw key.
func (t *SecureTrie) Delete(key []byte) error {
	return t.trie.Delete(t.hashKey(key).Bytes())
}

// Hash returns the trie's root hash.
func (t *SecureTrie) Hash() common.Hash { return t.trie.Hash() }

// Commit persists dirty nodes and returns the new root hash.
func (t *SecureTrie) Commit() (common.Hash, error) { return t.trie.Commit() }

// GetKey looks up the raw key behind a hashed key, when preimages are kept.
func (t *SecureTrie) GetKey(hashedKey []byte) []byte {
	if !t.keepPreimg {
		return nil
	}
	return t.preimages[common.BytesToHash(hashedKey)]
}

// Raw exposes the underlying (hashed-key) Trie, for iteration and proofs.
func (t *SecureTrie) Raw() *Trie { return &t.trie }
