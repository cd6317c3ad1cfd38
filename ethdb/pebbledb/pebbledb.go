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

// Package pebbledb implements ethdb.KeyValueStore on top of
// github.com/cockroachdb/pebble, the on-disk LSM engine the teacher's
// go.mod pulls in (replacing the historical goleveldb/RocksDB backends).
package pebbledb

import (
	"bytes"

	"github.com/cockroachdb/pebble"

	"github.com/ethstatedb/accountdb/ethdb"
)

// Options mirrors the tuning knobs kvstore.Config translates down to,
// keeping the pebble-specific types out of the kvstore package.
type Options struct {
	MaxOpenFiles int
	CacheSizeMiB int
	// TargetFileSize and FileSizeMultiplier implement the
	// CompactionProfile (default vs hdd) from the original kvdb.rs.
	TargetFileSize     int64
	FileSizeMultiplier int64
	DisableWAL         bool
}

// Database wraps a single *pebble.DB.
type Database struct {
	db      *pebble.DB
	writeOp *pebble.WriteOptions
}

// Open opens (or creates) a pebble database at path.
func Open(path string, opt Options) (*Database, error) {
	cache := pebble.NewCache(int64(opt.CacheSizeMiB) * 1024 * 1024)
	defer cache.Unref()

	base := opt.TargetFileSize
	if base == 0 {
		base = 32 * 1024 * 1024
	}
	mult := opt.FileSizeMultiplier
	if mult == 0 {
		mult = 2
	}
	var levels []pebble.LevelOptions
	size := base
	for i := 0; i < 7; i++ {
		levels = append(levels, pebble.LevelOptions{TargetFileSize: size})
		size *= mult
	}
	opts := &pebble.Options{
		Cache:        cache,
		MaxOpenFiles: opt.MaxOpenFiles,
		Levels:       levels,
		DisableWAL:   opt.DisableWAL,
	}
	opts.EnsureDefaults()

	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, err
	}
	writeOp := pebble.Sync
	if opt.DisableWAL {
		writeOp = pebble.NoSync
	}
	return &Database{db: db, writeOp: writeOp}, nil
}

func (d *Database) Has(key []byte) (bool, error) {
	_, closer, err := d.db.Get(key)
	if err == pebble.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	closer.Close()
	return true, nil
}

func (d *Database) Get(key []byte) ([]byte, error) {
	v, closer, err := d.db.Get(key)
	if err == pebble.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	out := append([]byte{}, v...)
	closer.Close()
	return out, nil
}

func (d *Database) Put(key, value []byte) error {
	return d.db.Set(key, value, d.writeOp)
}

func (d *Database) Delete(key []byte) error {
	return d.db.Delete(key, d.writeOp)
}

func (d *Database) NewBatch() ethdb.Batch {
	return &batch{db: d.db, b: d.db.NewBatch(), writeOp: d.writeOp}
}

func (d *Database) NewBatchWithSize(_ int) ethdb.Batch { return d.NewBatch() }

func (d *Database) NewIterator(prefix []byte, start []byte) ethdb.Iterator {
	var lowerBound, upperBound []byte
	lowerBound = append(append([]byte{}, prefix...), start...)
	if prefix != nil {
		upperBound = upperBoundOf(prefix)
	}
	it, _ := d.db.NewIter(&pebble.IterOptions{LowerBound: lowerBound, UpperBound: upperBound})
	it.First()
	return &iterator{iter: it, first: true}
}

func upperBoundOf(prefix []byte) []byte {
	cp := append([]byte{}, prefix...)
	for i := len(cp) - 1; i >= 0; i-- {
		if cp[i] < 0xff {
			cp[i]++
			return cp[:i+1]
		}
	}
	return nil
}

func (d *Database) Close() error { return d.db.Close() }

// ErrNotFound is returned from Get for missing keys, matching the
// ethdb.KeyValueReader contract (Get returning an absent value is not
// itself an application error at the kvstore layer, which maps this error
// to a nil value).
var ErrNotFound = pebble.ErrNotFound

type batch struct {
	db      *pebble.DB
	b       *pebble.Batch
	writeOp *pebble.WriteOptions
}

func (b *batch) Put(key, value []byte) error { return b.b.Set(key, value, nil) }
func (b *batch) Delete(key []byte) error     { return b.b.Delete(key, nil) }
func (b *batch) ValueSize() int              { return int(b.b.Len()) }
func (b *batch) Write() error                { return b.db.Apply(b.b, b.writeOp) }
func (b *batch) Reset()                      { b.b.Reset() }

func (b *batch) Replay(w ethdb.KeyValueWriter) error {
	reader := b.b.Reader()
	for {
		kind, k, v, ok, err := reader.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		switch kind {
		case pebble.InternalKeyKindSet:
			if err := w.Put(k, v); err != nil {
				return err
			}
		case pebble.InternalKeyKindDelete:
			if err := w.Delete(k); err != nil {
				return err
			}
		}
	}
}

type iterator struct {
	iter  *pebble.Iterator
	first bool
	err   error
}

func (it *iterator) Next() bool {
	if it.first {
		it.first = false
		return it.iter.Valid()
	}
	return it.iter.Next()
}

func (it *iterator) Error() error {
	if it.err != nil {
		return it.err
	}
	return it.iter.Error()
}

func (it *iterator) Key() []byte   { return bytes.Clone(it.iter.Key()) }
func (it *iterator) Value() []byte { return bytes.Clone(it.iter.Value()) }
func (it *iterator) Release()      { it.iter.Close() }
