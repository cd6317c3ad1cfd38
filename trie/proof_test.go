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

func buildCommittedTrie(t *testing.T, entries map[string]string) (*Database, common.Hash) {
	t.Helper()
	db := newTestDB(t)
	tr, err := New(common.Hash{}, common.Hash{}, db)
	require.NoError(t, err)
	for k, v := range entries {
		require.NoError(t, tr.Update([]byte(k), []byte(v)))
	}
	root, err := tr.Commit()
	require.NoError(t, err)
	require.NoError(t, db.Commit())
	require.NoError(t, db.kv.Flush())
	return db, root
}

// A proof built against a committed, reopened trie verifies against the
// trie's root hash alone, without consulting the backing Database.
func TestProveAndVerifyProofRoundTrip(t *testing.T) {
	entries := map[string]string{
		"do":    "verb",
		"dog":   "puppy",
		"dodge": "a value long enough to guarantee this node is hash-addressed",
		"horse": "stallion",
	}
	db, root := buildCommittedTrie(t, entries)

	reopened, err := New(common.Hash{}, root, db)
	require.NoError(t, err)

	for k, v := range entries {
		proof, err := Prove(reopened, []byte(k))
		require.NoError(t, err)
		require.NotEmpty(t, proof)

		value, err := VerifyProof(root, []byte(k), proof)
		require.NoError(t, err)
		require.Equal(t, v, string(value))
	}
}

// A proof whose nodes do not hash-chain back to rootHash is rejected.
func TestVerifyProofRejectsMismatchedRoot(t *testing.T) {
	entries := map[string]string{
		"do":  "verb",
		"dog": "puppy",
	}
	_, root := buildCommittedTrie(t, entries)

	_, err := VerifyProof(root, []byte("do"), nil)
	require.Error(t, err)
}
