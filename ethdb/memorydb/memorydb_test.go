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

package memorydb

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPutGetHasDelete(t *testing.T) {
	db := New()

	ok, err := db.Has([]byte("k"))
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, db.Put([]byte("k"), []byte("v")))
	ok, err = db.Has([]byte("k"))
	require.NoError(t, err)
	require.True(t, ok)

	got, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), got)

	require.NoError(t, db.Delete([]byte("k")))
	_, err = db.Get([]byte("k"))
	require.ErrorIs(t, err, ErrMemorydbNotFound)
}

func TestGetMissingKeyReturnsNotFound(t *testing.T) {
	db := New()
	_, err := db.Get([]byte("missing"))
	require.ErrorIs(t, err, ErrMemorydbNotFound)
}

func TestBatchWriteResetReplay(t *testing.T) {
	db := New()
	b := db.NewBatch()
	require.NoError(t, b.Put([]byte("a"), []byte("1")))
	require.NoError(t, b.Put([]byte("b"), []byte("2")))
	require.NoError(t, b.Delete([]byte("c")))
	require.Greater(t, b.ValueSize(), 0)

	require.NoError(t, b.Write())
	got, err := db.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("1"), got)

	b.Reset()
	require.Equal(t, 0, b.ValueSize())

	replayTo := New()
	replayBatch := replayTo.NewBatch()
	require.NoError(t, replayBatch.Put([]byte("a"), []byte("1")))
	require.NoError(t, replayBatch.Replay(replayTo))
	got, err = replayTo.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("1"), got)
}

func TestNewIteratorPrefixAndStartFilterInSortedOrder(t *testing.T) {
	db := New()
	for k, v := range map[string]string{
		"acct-0001": "a",
		"acct-0002": "b",
		"acct-0003": "c",
		"other-key": "z",
	} {
		require.NoError(t, db.Put([]byte(k), []byte(v)))
	}

	it := db.NewIterator([]byte("acct-"), []byte("0002"))
	defer it.Release()

	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	require.NoError(t, it.Error())
	require.Equal(t, []string{"acct-0002", "acct-0003"}, keys)
}

func TestCloseRejectsSubsequentOperations(t *testing.T) {
	db := New()
	require.NoError(t, db.Put([]byte("k"), []byte("v")))
	require.NoError(t, db.Close())

	_, err := db.Get([]byte("k"))
	require.True(t, errors.Is(err, ErrMemorydbClosed))

	_, err = db.Has([]byte("k"))
	require.ErrorIs(t, err, ErrMemorydbClosed)

	require.ErrorIs(t, db.Put([]byte("k"), []byte("v")), ErrMemorydbClosed)
	require.ErrorIs(t, db.Delete([]byte("k")), ErrMemorydbClosed)
}

func TestLenTracksEntryCount(t *testing.T) {
	db := New()
	require.Equal(t, 0, db.Len())
	require.NoError(t, db.Put([]byte("k"), []byte("v")))
	require.Equal(t, 1, db.Len())
	require.NoError(t, db.Delete([]byte("k")))
	require.Equal(t, 0, db.Len())
}
