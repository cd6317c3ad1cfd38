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
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/ethstatedb/accountdb/common"
	"github.com/ethstatedb/accountdb/kvstore"
	"github.com/ethstatedb/accountdb/trie"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	kv, err := kvstore.Open(t.TempDir(), kvstore.DefaultConfig(), kvstore.OpenMemory)
	require.NoError(t, err)
	return NewDatabase(kv, trie.Config{CleanCacheSizeMiB: 1, Column: kvstore.DefaultColumn})
}

func u256(v uint64) *uint256.Int { return new(uint256.Int).SetUint64(v) }

// S4 — balance and nonce round-trip through commit.
func TestBalanceRoundTripThroughCommit(t *testing.T) {
	db := newTestDatabase(t)
	s, err := New(common.Hash{}, db, Config{})
	require.NoError(t, err)

	a := common.HexToAddress("0xaaaa000000000000000000000000000000aaaa")
	b := common.HexToAddress("0xbbbb000000000000000000000000000000bbbb")

	require.NoError(t, s.AddBalance(a, u256(69)))
	_, err = s.Commit()
	require.NoError(t, err)
	bal, err := s.Balance(a)
	require.NoError(t, err)
	require.Equal(t, uint64(69), bal.Uint64())

	require.NoError(t, s.SubBalance(a, u256(42)))
	_, err = s.Commit()
	require.NoError(t, err)
	bal, err = s.Balance(a)
	require.NoError(t, err)
	require.Equal(t, uint64(27), bal.Uint64())

	require.NoError(t, s.TransferBalance(a, b, u256(18)))
	_, err = s.Commit()
	require.NoError(t, err)

	bal, err = s.Balance(a)
	require.NoError(t, err)
	require.Equal(t, uint64(9), bal.Uint64())
	bal, err = s.Balance(b)
	require.NoError(t, err)
	require.Equal(t, uint64(18), bal.Uint64())
}

// S5 — snapshot basic.
func TestSnapshotRevertAndClear(t *testing.T) {
	db := newTestDatabase(t)
	s, err := New(common.Hash{}, db, Config{})
	require.NoError(t, err)
	a := common.HexToAddress("0xaaaa000000000000000000000000000000aaaa")

	s.Snapshot()
	require.NoError(t, s.AddBalance(a, u256(69)))
	s.ClearSnapshot()
	bal, err := s.Balance(a)
	require.NoError(t, err)
	require.Equal(t, uint64(69), bal.Uint64())

	s.Snapshot()
	require.NoError(t, s.AddBalance(a, u256(1)))
	s.RevertToSnapshot()
	bal, err = s.Balance(a)
	require.NoError(t, err)
	require.Equal(t, uint64(69), bal.Uint64())
}

// S6 — kill account.
func TestKillAccount(t *testing.T) {
	db := newTestDatabase(t)
	s, err := New(common.Hash{}, db, Config{})
	require.NoError(t, err)
	a := common.HexToAddress("0xaaaa000000000000000000000000000000aaaa")

	require.NoError(t, s.IncNonce(a))
	exists, err := s.Exists(a)
	require.NoError(t, err)
	require.True(t, exists)

	s.KillAccount(a)
	exists, err = s.Exists(a)
	require.NoError(t, err)
	require.False(t, exists)
	nonce, err := s.Nonce(a)
	require.NoError(t, err)
	require.True(t, nonce.IsZero())

	root, err := s.Commit()
	require.NoError(t, err)

	reloaded, err := New(root, db, Config{})
	require.NoError(t, err)
	exists, err = reloaded.Exists(a)
	require.NoError(t, err)
	require.False(t, exists)
}

// Checkpoint nesting: a revert only undoes mutations since its matching snapshot.
func TestCheckpointNesting(t *testing.T) {
	db := newTestDatabase(t)
	s, err := New(common.Hash{}, db, Config{})
	require.NoError(t, err)
	a := common.HexToAddress("0xaaaa000000000000000000000000000000aaaa")

	require.NoError(t, s.AddBalance(a, u256(10)))
	s.Snapshot()
	require.NoError(t, s.AddBalance(a, u256(20)))
	s.Snapshot()
	require.NoError(t, s.AddBalance(a, u256(30)))
	s.RevertToSnapshot() // undoes the +30

	bal, err := s.Balance(a)
	require.NoError(t, err)
	require.Equal(t, uint64(30), bal.Uint64())

	s.RevertToSnapshot() // undoes the +20
	bal, err = s.Balance(a)
	require.NoError(t, err)
	require.Equal(t, uint64(10), bal.Uint64())
}

func TestStorageRoundTrip(t *testing.T) {
	db := newTestDatabase(t)
	s, err := New(common.Hash{}, db, Config{})
	require.NoError(t, err)
	a := common.HexToAddress("0xaaaa000000000000000000000000000000aaaa")
	key := common.HexToHash("0x01")
	val := common.HexToHash("0x2a")

	require.NoError(t, s.SetStorage(a, key, val))
	got, err := s.StorageAt(a, key)
	require.NoError(t, err)
	require.Equal(t, val, got)

	root, err := s.Commit()
	require.NoError(t, err)

	reloaded, err := New(root, db, Config{})
	require.NoError(t, err)
	got, err = reloaded.StorageAt(a, key)
	require.NoError(t, err)
	require.Equal(t, val, got)
}

// S7 — a freshly constructed, immediately committed state has the
// well-known empty-trie root.
func TestFreshStateCommitsToEmptyRoot(t *testing.T) {
	db := newTestDatabase(t)
	s, err := New(common.Hash{}, db, Config{})
	require.NoError(t, err)
	root, err := s.Commit()
	require.NoError(t, err)
	require.Equal(t, trie.EmptyRootHash, root)
}

func TestCommitWithOpenCheckpointFails(t *testing.T) {
	db := newTestDatabase(t)
	s, err := New(common.Hash{}, db, Config{})
	require.NoError(t, err)
	s.Snapshot()
	_, err = s.Commit()
	require.ErrorIs(t, err, ErrCommitWithOpenCheckpoint)
}

func TestCloneIsIndependent(t *testing.T) {
	db := newTestDatabase(t)
	s, err := New(common.Hash{}, db, Config{})
	require.NoError(t, err)
	a := common.HexToAddress("0xaaaa000000000000000000000000000000aaaa")
	require.NoError(t, s.AddBalance(a, u256(5)))
	_, err = s.Commit()
	require.NoError(t, err)

	clone, err := s.Clone()
	require.NoError(t, err)
	require.NoError(t, clone.AddBalance(a, u256(100)))

	bal, err := s.Balance(a)
	require.NoError(t, err)
	require.Equal(t, uint64(5), bal.Uint64())

	cbal, err := clone.Balance(a)
	require.NoError(t, err)
	require.Equal(t, uint64(105), cbal.Uint64())
}
