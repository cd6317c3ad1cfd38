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
	"github.com/ethstatedb/accountdb/crypto"
)

// SecureTrie hashes every raw key before addressing the underlying Trie, so
// lookups by the original key still work and the stored key is unrecoverable
// without the preimage map.
func TestSecureTrieRoundTripAndKeyHashing(t *testing.T) {
	db := newTestDB(t)
	st, err := NewSecure(common.Hash{}, common.Hash{}, db, true)
	require.NoError(t, err)

	key := []byte("account-slot")
	require.NoError(t, st.Update(key, []byte("value")))

	got, err := st.Get(key)
	require.NoError(t, err)
	require.Equal(t, "value", string(got))

	hashedKey := crypto.Keccak256Hash(key)
	raw, err := st.Raw().Get(hashedKey.Bytes())
	require.NoError(t, err)
	require.Equal(t, "value", string(raw))

	require.Equal(t, key, st.GetKey(hashedKey.Bytes()))

	require.NoError(t, st.Delete(key))
	got, err = st.Get(key)
	require.NoError(t, err)
	require.Nil(t, got)
}

// Without keepPreimages, GetKey never recovers the raw key.
func TestSecureTrieWithoutPreimagesDoesNotRecoverKeys(t *testing.T) {
	db := newTestDB(t)
	st, err := NewSecure(common.Hash{}, common.Hash{}, db, false)
	require.NoError(t, err)

	key := []byte("account-slot")
	require.NoError(t, st.Update(key, []byte("value")))
	require.Nil(t, st.GetKey(crypto.Keccak256Hash(key).Bytes()))
}

// Commit/Hash delegate to the underlying Trie and agree with each other, and
// Commit actually persists the node a prior Hash call only fingerprinted:
// calling Hash before Commit must not let Commit skip db.Insert on the
// strength of the node's flags.hash already being set.
func TestSecureTrieCommitMatchesHash(t *testing.T) {
	db := newTestDB(t)
	st, err := NewSecure(common.Hash{}, common.Hash{}, db, false)
	require.NoError(t, err)
	value := []byte("a value long enough to guarantee this node is hash-addressed, not inlined")
	require.NoError(t, st.Update([]byte("k"), value))

	hash := st.Hash()
	root, err := st.Commit()
	require.NoError(t, err)
	require.Equal(t, hash, root)
	require.NoError(t, db.Commit())
	require.True(t, db.Contains(common.Hash{}, root), "node fingerprinted by Hash before Commit must still be inserted into the database")

	require.NoError(t, db.kv.Flush())
	reopened, err := NewSecure(common.Hash{}, root, db, false)
	require.NoError(t, err)
	got, err := reopened.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, value, got)
}
