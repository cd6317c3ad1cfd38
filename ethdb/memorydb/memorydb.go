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

// Package memorydb implements the ethdb.KeyValueStore contract entirely in
// RAM, used for tests and for ephemeral tries (matching the teacher's own
// memorydb-backed test helpers across trie/, triedb/pathdb/ and core/state/).
package memorydb

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/ethstatedb/accountdb/ethdb"
)

var (
	// ErrMemorydbClosed is returned from Has, Get, Put, Delete and batch
	// Write after Close.
	ErrMemorydbClosed = errors.New("memorydb: closed")
	// ErrMemorydbNotFound is returned when a key could not be found.
	ErrMemorydbNotFound = errors.New("memorydb: not found")
)

// Database is an in-memory key-value store.
type Database struct {
	lock sync.RWMutex
	db   map[string][]byte
}

// New returns an empty, ready-to-use in-memory store.
func New() *Database {
	return &Database{db: make(map[string][]byte)}
}

func (d *Database) Has(key []byte) (bool, error) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	if d.db == nil {
		return false, ErrMemorydbClosed
	}
	_, ok := d.db[string(key)]
	return ok, nil
}

func (d *Database) Get(key []byte) ([]byte, error) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	if d.db == nil {
		return nil, ErrMemorydbClosed
	}
	if v, ok := d.db[string(key)]; ok {
		return append([]byte{}, v...), nil
	}
	return nil, ErrMemorydbNotFound
}

func (d *Database) Put(key, value []byte) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.db == nil {
		return ErrMemorydbClosed
	}
	d.db[string(key)] = append([]byte{}, value...)
	return nil
}

func (d *Database) Delete(key []byte) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.db == nil {
		return ErrMemorydbClosed
	}
	delete(d.db, string(key))
	return nil
}

func (d *Database) NewBatch() ethdb.Batch            { return &batch{db: d} }
func (d *Database) NewBatchWithSize(int) ethdb.Batch { return &batch{db: d} }

func (d *Database) NewIterator(prefix []byte, start []byte) ethdb.Iterator {
	d.lock.RLock()
	defer d.lock.RUnlock()

	var keys []string
	for k := range d.db {
		if strings.HasPrefix(k, string(prefix)) && k >= string(prefix)+string(start) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	values := make([][]byte, len(keys))
	for i, k := range keys {
		values[i] = d.db[k]
	}
	return &iterator{keys: keys, values: values, idx: -1}
}

func (d *Database) Close() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.db = nil
	return nil
}

// Len returns the number of entries currently stored.
func (d *Database) Len() int {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return len(d.db)
}

type keyvalue struct {
	key    []byte
	value  []byte
	delete bool
}

type batch struct {
	db     *Database
	writes []keyvalue
	size   int
}

func (b *batch) Put(key, value []byte) error {
	b.writes = append(b.writes, keyvalue{append([]byte{}, key...), append([]byte{}, value...), false})
	b.size += len(key) + len(value)
	return nil
}

func (b *batch) Delete(key []byte) error {
	b.writes = append(b.writes, keyvalue{append([]byte{}, key...), nil, true})
	b.size += len(key)
	return nil
}

func (b *batch) ValueSize() int { return b.size }

func (b *batch) Write() error {
	b.db.lock.Lock()
	defer b.db.lock.Unlock()
	if b.db.db == nil {
		return ErrMemorydbClosed
	}
	for _, kv := range b.writes {
		if kv.delete {
			delete(b.db.db, string(kv.key))
			continue
		}
		b.db.db[string(kv.key)] = kv.value
	}
	return nil
}

func (b *batch) Reset() {
	b.writes = b.writes[:0]
	b.size = 0
}

func (b *batch) Replay(w ethdb.KeyValueWriter) error {
	for _, kv := range b.writes {
		if kv.delete {
			if err := w.Delete(kv.key); err != nil {
				return err
			}
			continue
		}
		if err := w.Put(kv.key, kv.value); err != nil {
			return err
		}
	}
	return nil
}

type iterator struct {
	keys   []string
	values [][]byte
	idx    int
}

func (it *iterator) Next() bool {
	it.idx++
	return it.idx < len(it.keys)
}

func (it *iterator) Error() error { return nil }

func (it *iterator) Key() []byte {
	if it.idx < 0 || it.idx >= len(it.keys) {
		return nil
	}
	return []byte(it.keys[it.idx])
}

func (it *iterator) Value() []byte {
	if it.idx < 0 || it.idx >= len(it.values) {
		return nil
	}
	return it.values[it.idx]
}

func (it *iterator) Release() {}
