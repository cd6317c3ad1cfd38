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

package state

import (
	"github.com/ethstatedb/accountdb/common"
	"github.com/ethstatedb/accountdb/rlp"
)

// accountTrieView narrows the full trie.SecureTrie surface to what State
// needs for account and storage lookups, keeping this file decoupled from
// the trie package's own naming.
type accountTrieView interface {
	Get(key []byte) ([]byte, error)
	Update(key, value []byte) error
	Delete(key []byte) error
}

// accountReader resolves an address against the account trie rooted at a
// State's committed root, decoding the RLP leaf into an *Account. It is the
// Go counterpart of mod.rs's SecTrieDB-backed db.get(a) call inside
// ensure_cached/require_or_from.
type accountReader struct {
	trie accountTrieView
}

func newAccountReader(t accountTrieView) *accountReader {
	return &accountReader{trie: t}
}

// read looks up addr in the account trie. A nil, nil result means the
// address has no account.
func (r *accountReader) read(addr common.Address) (*Account, error) {
	blob, err := r.trie.Get(addr.Bytes())
	if err != nil {
		return nil, err
	}
	if blob == nil {
		return nil, nil
	}
	return accountFromRLP(blob)
}

// storageReader resolves a storage key against an account's storage trie,
// used by storageAt once an account's addrHash is known.
type storageReader struct {
	trie accountTrieView
}

func newStorageReader(t accountTrieView) *storageReader {
	return &storageReader{trie: t}
}

// encodeStorageValue wraps a raw 32-byte storage value as an RLP string
// with leading zero bytes stripped, the canonical storage-trie leaf
// encoding (a zero value is represented by key absence, never an encoded
// zero).
func encodeStorageValue(v common.Hash) []byte {
	b := v.Bytes()
	i := 0
	for i < len(b) && b[i] == 0 {
		i++
	}
	return rlp.EncodeString(b[i:])
}

func (r *storageReader) get(key common.Hash) (common.Hash, error) {
	blob, err := r.trie.Get(key.Bytes())
	if err != nil {
		return common.Hash{}, err
	}
	if blob == nil {
		return common.Hash{}, nil
	}
	content, _, err := rlp.SplitString(blob)
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(content), nil
}
