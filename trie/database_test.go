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

	"github.com/ethstatedb/accountdb/common"
)

// Insert/Node/NodeBlob/Contains round-trip through the dirty buffer before
// any Commit.
func TestDatabaseInsertAndLookup(t *testing.T) {
	db := newTestDB(t)
	owner := common.Hash{}
	blob := []byte("a node blob long enough to be hash-addressed in any realistic trie")
	hash := common.BytesToHash([]byte("0123456789012345678901234567890x"))

	require.False(t, db.Contains(owner, hash))
	require.NoError(t, db.Insert(owner, hash, blob))
	require.True(t, db.Contains(owner, hash))

	got, err := db.NodeBlob(owner, hash)
	require.NoError(t, err)
	require.Equal(t, blob, got)
}

// Dereference is refcounted: a node inserted twice (shared by two parents)
// survives a single Dereference and is evicted only once every referrer has
// let go.
func TestDereferenceIsRefcounted(t *testing.T) {
	db := newTestDB(t)
	owner := common.Hash{}
	blob := []byte("shared node blob")
	hash := common.BytesToHash([]byte("shared-node-hash-32-bytes-long!!"))

	require.NoError(t, db.Insert(owner, hash, blob))
	require.NoError(t, db.Insert(owner, hash, blob))

	db.Dereference(owner, hash)
	require.True(t, db.Contains(owner, hash), "node with one remaining ref must still be present")

	db.Dereference(owner, hash)
	_, err := db.NodeBlob(owner, hash)
	require.NoError(t, err)
	require.False(t, db.Contains(owner, hash), "node with no remaining refs must be evicted")
}

// Commit flushes the dirty buffer to the backing kvstore and clears it, so the
// node can be read straight from the kvstore under its owner-namespaced key
// (not through NodeBlob, which the clean cache filled by Commit would answer).
func TestDatabaseCommitFlushesToKVStore(t *testing.T) {
	db := newTestDB(t)
	owner := common.Hash{}
	blob := []byte("a node blob long enough to be hash-addressed in any realistic trie")
	hash := common.BytesToHash([]byte("0123456789012345678901234567890x"))

	require.NoError(t, db.Insert(owner, hash, blob))
	require.NoError(t, db.Commit())
	require.Empty(t, db.dirty)

	require.NoError(t, db.kv.Flush())
	got, err := db.kv.Get(db.column, storageKey(owner, hash))
	require.NoError(t, err)
	require.Equal(t, blob, got)
}

// Keys/DBItemsRemaining (invariant 10): every key written under one trie
// root is reachable from Keys(root), and a key belonging to an unrelated
// root shows up as a DBItemsRemaining orphan.
func TestKeysAndDBItemsRemaining(t *testing.T) {
	db := newTestDB(t)

	tr, err := New(common.Hash{}, common.Hash{}, db)
	require.NoError(t, err)
	require.NoError(t, tr.Update([]byte("alpha"), []byte("a value long enough to be hash-addressed, not inlined")))
	require.NoError(t, tr.Update([]byte("beta"), []byte("another value long enough to be hash-addressed too")))
	root, err := tr.Commit()
	require.NoError(t, err)
	require.NoError(t, db.Commit())
	require.NoError(t, db.kv.Flush())

	reachable, err := db.Keys(common.Hash{}, root)
	require.NoError(t, err)
	require.True(t, reachable.Contains(string(storageKey(common.Hash{}, root))))

	orphan, err := db.DBItemsRemaining(common.Hash{}, root)
	require.NoError(t, err)
	require.True(t, orphan.IsEmpty(), "a database holding only the reachable trie must have no orphans")

	// Insert an unrelated node directly and flush it: it is not reachable
	// from root, so it must show up as an orphan.
	strayHash := common.BytesToHash([]byte("a-stray-unreachable-node-hash!!!"))
	require.NoError(t, db.Insert(common.Hash{}, strayHash, []byte("stray blob, never referenced by root")))
	require.NoError(t, db.Commit())
	require.NoError(t, db.kv.Flush())

	orphan, err = db.DBItemsRemaining(common.Hash{}, root)
	require.NoError(t, err)
	require.True(t, orphan.Contains(string(storageKey(common.Hash{}, strayHash))))
}
