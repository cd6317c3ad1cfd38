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
	"github.com/ethstatedb/accountdb/kvstore"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	kv, err := kvstore.Open(t.TempDir(), kvstore.DefaultConfig(), kvstore.OpenMemory)
	require.NoError(t, err)
	return NewDatabase(kv, Config{CleanCacheSizeMiB: 1, Column: kvstore.DefaultColumn})
}

// An untouched trie hashes to the well-known empty root.
func TestEmptyTrieRoot(t *testing.T) {
	tr, err := New(common.Hash{}, common.Hash{}, newTestDB(t))
	require.NoError(t, err)
	require.Equal(t, EmptyRootHash, tr.Hash())

	root, err := tr.Commit()
	require.NoError(t, err)
	require.Equal(t, EmptyRootHash, root)
}

// Insert/Get/Delete round-trip across a handful of keys, including deletion
// of an absent key being a no-op.
func TestInsertGetDeleteRoundTrip(t *testing.T) {
	tr, err := New(common.Hash{}, common.Hash{}, newTestDB(t))
	require.NoError(t, err)

	entries := map[string]string{
		"do":    "verb",
		"dog":   "puppy",
		"dodge": "coin",
		"horse": "stallion",
	}
	for k, v := range entries {
		require.NoError(t, tr.Update([]byte(k), []byte(v)))
	}
	for k, v := range entries {
		got, err := tr.Get([]byte(k))
		require.NoError(t, err)
		require.Equal(t, v, string(got))
	}

	require.NoError(t, tr.Delete([]byte("dodge")))
	got, err := tr.Get([]byte("dodge"))
	require.NoError(t, err)
	require.Nil(t, got)

	require.NoError(t, tr.Delete([]byte("nonexistent")))
}

// Committing and reopening a trie against the same backing Database (after
// flushing it through to the kvstore) returns the exact same key/value set,
// proving the commit actually reaches the backing store rather than only the
// in-memory dirty buffer.
func TestCommitPersistsThroughDatabaseFlush(t *testing.T) {
	db := newTestDB(t)
	tr, err := New(common.Hash{}, common.Hash{}, db)
	require.NoError(t, err)

	entries := map[string]string{
		"do":    "verb",
		"dog":   "puppy",
		"dodge": "a-much-longer-value-so-this-node-is-definitely-hash-addressed",
		"horse": "stallion",
	}
	for k, v := range entries {
		require.NoError(t, tr.Update([]byte(k), []byte(v)))
	}
	root, err := tr.Commit()
	require.NoError(t, err)
	require.NoError(t, db.Commit())
	require.NoError(t, db.kv.Flush())

	reopened, err := New(common.Hash{}, root, db)
	require.NoError(t, err)
	for k, v := range entries {
		got, err := reopened.Get([]byte(k))
		require.NoError(t, err)
		require.Equal(t, v, string(got))
	}
}

// Opening a trie against a root absent from the database fails with
// ErrInvalidStateRoot rather than silently behaving as an empty trie.
func TestOpenUnknownRootFails(t *testing.T) {
	db := newTestDB(t)
	_, err := New(common.Hash{}, common.HexToHash("0xdeadbeef"), db)
	require.Error(t, err)
	var target *ErrInvalidStateRoot
	require.ErrorAs(t, err, &target)
}

// Two distinct owners (the main trie and a storage trie) can store the same
// raw key with different values in the same backing Database without
// collision, per the owner-namespacing scheme.
func TestOwnerNamespacingIsolatesKeys(t *testing.T) {
	db := newTestDB(t)
	owner := common.HexToHash("0x01")

	main, err := New(common.Hash{}, common.Hash{}, db)
	require.NoError(t, err)
	require.NoError(t, main.Update([]byte("slot"), []byte("main-value")))

	storage, err := New(owner, common.Hash{}, db)
	require.NoError(t, err)
	require.NoError(t, storage.Update([]byte("slot"), []byte("storage-value")))

	mv, err := main.Get([]byte("slot"))
	require.NoError(t, err)
	require.Equal(t, "main-value", string(mv))

	sv, err := storage.Get([]byte("slot"))
	require.NoError(t, err)
	require.Equal(t, "storage-value", string(sv))
}
