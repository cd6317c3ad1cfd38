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

package kvstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openMemDB(t *testing.T) *Database {
	t.Helper()
	db, err := Open(t.TempDir(), DefaultConfig(), OpenMemory)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// WriteBuffered stages writes in the overlay: Get observes them immediately,
// but the backing engine is untouched until Flush.
func TestWriteBufferedIsVisibleBeforeFlush(t *testing.T) {
	db := openMemDB(t)

	b := db.Transaction()
	b.Put(DefaultColumn, []byte("k"), []byte("v"))
	db.WriteBuffered(b)

	got, err := db.Get(DefaultColumn, []byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), got)

	// Not yet visible to the backing engine directly.
	_, err = db.engine.Get([]byte("k"))
	require.Error(t, err)
}

// Flush pushes the overlay into the backing engine and clears it.
func TestFlushPersistsOverlay(t *testing.T) {
	db := openMemDB(t)

	b := db.Transaction()
	b.Put(DefaultColumn, []byte("k"), []byte("v"))
	db.WriteBuffered(b)
	require.NoError(t, db.Flush())

	raw, err := db.engine.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), raw)

	got, err := db.Get(DefaultColumn, []byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), got)
}

// A PutCompressed entry is snappy-encoded on the way to the backing engine,
// not before: the overlay (and Get, which reads the overlay first) always
// sees the original value.
func TestPutCompressedEncodesOnlyOnFlush(t *testing.T) {
	db := openMemDB(t)

	b := db.Transaction()
	b.PutCompressed(DefaultColumn, []byte("k"), []byte("a value worth compressing, repeated repeated repeated"))
	db.WriteBuffered(b)

	got, err := db.Get(DefaultColumn, []byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("a value worth compressing, repeated repeated repeated"), got)

	require.NoError(t, db.Flush())
	raw, err := db.engine.Get([]byte("k"))
	require.NoError(t, err)
	require.NotEqual(t, []byte("a value worth compressing, repeated repeated repeated"), raw, "flushed compressed entry must not equal the raw value")
}

// Write bypasses the overlay and takes effect on the backing engine directly.
func TestWriteBypassesOverlay(t *testing.T) {
	db := openMemDB(t)

	b := db.Transaction()
	b.Put(DefaultColumn, []byte("k"), []byte("v"))
	require.NoError(t, db.Write(b))

	raw, err := db.engine.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), raw)
}

// Two named columns, plus the default column, keep identical keys separate
// on disk via their "colN\x00" prefixes.
func TestColumnsNamespaceKeysOnDisk(t *testing.T) {
	db, err := Open(t.TempDir(), WithColumns(2), OpenMemory)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	for col, value := range map[int]string{DefaultColumn: "default", 0: "col0", 1: "col1"} {
		b := db.Transaction()
		b.Put(col, []byte("shared-key"), []byte(value))
		require.NoError(t, db.Write(b))
	}

	for col, want := range map[int]string{DefaultColumn: "default", 0: "col0", 1: "col1"} {
		got, err := db.Get(col, []byte("shared-key"))
		require.NoError(t, err)
		require.Equal(t, want, string(got))
	}
}

// GetByPrefix only sees flushed data, never the overlay.
func TestGetByPrefixIgnoresOverlay(t *testing.T) {
	db := openMemDB(t)

	b := db.Transaction()
	b.Put(DefaultColumn, []byte("acct-0001"), []byte("overlaid"))
	db.WriteBuffered(b)
	require.Nil(t, db.GetByPrefix(DefaultColumn, []byte("acct-")))

	require.NoError(t, db.Flush())
	require.Equal(t, []byte("overlaid"), db.GetByPrefix(DefaultColumn, []byte("acct-")))
}

// NewIterator strips the column prefix from returned keys and only surfaces
// flushed data.
func TestNewIteratorStripsColumnPrefixAndSkipsOverlay(t *testing.T) {
	db, err := Open(t.TempDir(), WithColumns(1), OpenMemory)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	b := db.Transaction()
	b.Put(0, []byte("a"), []byte("1"))
	b.Put(0, []byte("b"), []byte("2"))
	db.WriteBuffered(b)

	it := db.NewIterator(0)
	require.False(t, it.Next(), "unflushed overlay entries must not appear in the iterator")
	it.Release()

	require.NoError(t, db.Flush())
	it = db.NewIterator(0)
	defer it.Release()
	seen := make(map[string]string)
	for it.Next() {
		seen[string(it.Key())] = string(it.Value())
	}
	require.Equal(t, map[string]string{"a": "1", "b": "2"}, seen)
}

// Restore swaps in a fresh on-disk copy, holding the old contents under
// backup_db only until the swap succeeds, and subsequent reads reflect the
// new database.
func TestRestoreSwapsInNewDatabase(t *testing.T) {
	root := t.TempDir()
	dbPath := filepath.Join(root, "db")

	db, err := Open(dbPath, DefaultConfig(), OpenPebble)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	b := db.Transaction()
	b.Put(DefaultColumn, []byte("k"), []byte("old"))
	require.NoError(t, db.Write(b))

	newPath := filepath.Join(root, "new")
	newDB, err := Open(newPath, DefaultConfig(), OpenPebble)
	require.NoError(t, err)
	nb := newDB.Transaction()
	nb.Put(DefaultColumn, []byte("k"), []byte("new"))
	require.NoError(t, newDB.Write(nb))
	require.NoError(t, newDB.engine.Close())

	require.NoError(t, db.Restore(newPath))

	got, err := db.Get(DefaultColumn, []byte("k"))
	require.NoError(t, err)
	require.Equal(t, "new", string(got))
}

// Once closed, further operations fail rather than panicking or silently
// succeeding against a stale engine handle.
func TestGetAfterCloseFails(t *testing.T) {
	db := openMemDB(t)
	require.NoError(t, db.Close())
	_, err := db.Get(DefaultColumn, []byte("k"))
	require.Error(t, err)
}
