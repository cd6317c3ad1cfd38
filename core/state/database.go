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
	"github.com/VictoriaMetrics/fastcache"

	"github.com/ethstatedb/accountdb/common"
	"github.com/ethstatedb/accountdb/crypto"
	"github.com/ethstatedb/accountdb/kvstore"
	"github.com/ethstatedb/accountdb/metrics"
	"github.com/ethstatedb/accountdb/trie"
)

// codeCacheSizeMiB is the fixed memory budget for cached contract code
// blobs, analogous to the teacher's codeCacheSize constant for the verkle
// Database's code cache.
const codeCacheSizeMiB = 32

// Database owns the backing trie.Database and kvstore.Database an
// account-state layer instance runs against, and materializes per-account
// storage tries on demand. One Database is shared by every State and every
// State.Clone produced from it.
type Database struct {
	kv   *kvstore.Database
	trie *trie.Database
	code *fastcache.Cache

	codeHitMeter  *metrics.Meter
	codeMissMeter *metrics.Meter
}

// NewDatabase wraps kv (already opened) with a trie.Database using cfg, and
// a fixed-size contract-code cache.
func NewDatabase(kv *kvstore.Database, cfg trie.Config) *Database {
	return &Database{
		kv:            kv,
		trie:          trie.NewDatabase(kv, cfg),
		code:          fastcache.New(codeCacheSizeMiB * 1024 * 1024),
		codeHitMeter:  metrics.NewRegisteredMeter("state/code/hits", nil),
		codeMissMeter: metrics.NewRegisteredMeter("state/code/misses", nil),
	}
}

// TrieDB returns the backing trie.Database, for callers that need direct
// node-level access (proofs, pruning tools).
func (db *Database) TrieDB() *trie.Database { return db.trie }

// KVStore returns the backing kvstore.Database.
func (db *Database) KVStore() *kvstore.Database { return db.kv }

// OpenAccountTrie opens the main account trie rooted at root.
func (db *Database) OpenAccountTrie(root common.Hash) (*trie.SecureTrie, error) {
	return trie.NewSecure(common.Hash{}, root, db.trie, false)
}

// OpenStorageTrie opens the storage trie belonging to the account whose
// address hash is addrHash, rooted at root. Every account's storage trie
// lives in the same backing trie.Database, disjoint from every other
// account's and from the main trie, by virtue of the addrHash owner
// namespace (spec.md §9's KECCAK(address) || node_content_hash scheme).
func (db *Database) OpenStorageTrie(addrHash, root common.Hash) (*trie.SecureTrie, error) {
	return trie.NewSecure(addrHash, root, db.trie, false)
}

// ContractCode returns the code for the contract whose hash is codeHash,
// checking the code cache before falling back to the default kvstore
// column, where commitCode persists it.
func (db *Database) ContractCode(addrHash, codeHash common.Hash) ([]byte, error) {
	if codeHash == crypto.EmptyCodeHash() {
		return nil, nil
	}
	key := codeKey(addrHash, codeHash)
	if blob, ok := db.code.HasGet(nil, key); ok {
		db.codeHitMeter.Mark(1)
		return blob, nil
	}
	db.codeMissMeter.Mark(1)
	blob, err := db.kv.Get(kvstore.DefaultColumn, key)
	if err != nil {
		return nil, err
	}
	if blob != nil {
		db.code.Set(key, blob)
	}
	return blob, nil
}

// commitCode persists code under its content hash, namespaced by the owning
// account's address hash exactly as ContractCode looks it up.
func (db *Database) commitCode(addrHash, codeHash common.Hash, code []byte) error {
	key := codeKey(addrHash, codeHash)
	db.code.Set(key, code)
	tx := db.kv.Transaction()
	tx.Put(kvstore.DefaultColumn, key, code)
	return db.kv.Write(tx)
}

func codeKey(addrHash, codeHash common.Hash) []byte {
	key := make([]byte, 0, 2+common.HashLength*2)
	key = append(key, 'c', 'o')
	key = append(key, addrHash.Bytes()...)
	key = append(key, codeHash.Bytes()...)
	return key
}
