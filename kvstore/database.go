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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang/snappy"

	"github.com/ethstatedb/accountdb/ethdb"
	"github.com/ethstatedb/accountdb/ethdb/memorydb"
	"github.com/ethstatedb/accountdb/ethdb/pebbledb"
	"github.com/ethstatedb/accountdb/log"
	"github.com/ethstatedb/accountdb/metrics"
)

// ErrDatabaseClosed names the closed-database condition. Database methods do
// not return it: after Close, each call reaches the closed backing engine and
// reports that engine's own result (memorydb returns ErrMemorydbClosed).
var ErrDatabaseClosed = errors.New("kvstore: database closed")

// Opener constructs (or reopens) the backing engine at path. Restore uses it
// to reopen the database after swapping directories.
type Opener func(path string, cfg Config) (ethdb.KeyValueStore, error)

// OpenPebble is the on-disk Opener, backed by package ethdb/pebbledb.
func OpenPebble(path string, cfg Config) (ethdb.KeyValueStore, error) {
	return pebbledb.Open(path, pebbledb.Options{
		MaxOpenFiles:       cfg.MaxOpenFiles,
		CacheSizeMiB:       cfg.CacheSizeMiB,
		TargetFileSize:     cfg.Compaction.InitialFileSize,
		FileSizeMultiplier: cfg.Compaction.FileSizeMultiplier,
		DisableWAL:         !cfg.WAL,
	})
}

// OpenMemory is an in-memory Opener, useful for tests and ephemeral tries.
// The path argument is ignored.
func OpenMemory(_ string, _ Config) (ethdb.KeyValueStore, error) {
	return memorydb.New(), nil
}

// keyState is the overlay's per-key record: a pending insert (plain or
// snappy-compressed-on-flush) or a pending delete.
type keyState struct {
	compressed bool
	deleted    bool
	value      []byte
}

// Database is a buffered, optionally column-namespaced key-value store.
// Writes accumulate in an in-memory overlay (via WriteBuffered) and only
// reach the backing engine on Flush, or take effect immediately via Write.
type Database struct {
	mu      sync.RWMutex
	engine  ethdb.KeyValueStore
	opener  Opener
	path    string
	config  Config
	overlay []map[string]keyState // index 0 is the default column

	flushMeter  *metrics.Meter
	flushTimer  *metrics.ResettingTimer
	writeMeter  *metrics.Meter
	overlaySize *metrics.Gauge
	overlayLen  int64
}

// Open opens (or creates) a Database at path using the given Opener.
func Open(path string, cfg Config, opener Opener) (*Database, error) {
	engine, err := opener(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("kvstore: open %s: %w", path, err)
	}
	db := &Database{
		engine:  engine,
		opener:  opener,
		path:    path,
		config:  cfg,
		overlay: make([]map[string]keyState, cfg.Columns+1),

		flushMeter:  metrics.NewRegisteredMeter("kvstore/flush/writes", nil),
		flushTimer:  metrics.NewRegisteredResettingTimer("kvstore/flush/time", nil),
		writeMeter:  metrics.NewRegisteredMeter("kvstore/write/writes", nil),
		overlaySize: metrics.NewRegisteredGauge("kvstore/overlay/entries", nil),
	}
	for i := range db.overlay {
		db.overlay[i] = make(map[string]keyState)
	}
	return db, nil
}

// column maps a DefaultColumn/column-index argument to the overlay slot and
// on-disk key prefix used to namespace that column (pebble has no native
// column families, so named columns live under a "colN\x00" key prefix).
func column(col int) (slot int, prefix []byte) {
	if col == DefaultColumn {
		return 0, nil
	}
	return col + 1, []byte(fmt.Sprintf("col%d\x00", col))
}

// prefixForSlot returns the on-disk key prefix for the given overlay slot
// (the inverse of column's slot computation).
func prefixForSlot(slot int) []byte {
	if slot == 0 {
		return nil
	}
	_, prefix := column(slot - 1)
	return prefix
}

func prefixed(col int, key []byte) (slot int, pkey []byte) {
	slot, prefix := column(col)
	if prefix == nil {
		return slot, key
	}
	pkey = make([]byte, 0, len(prefix)+len(key))
	pkey = append(pkey, prefix...)
	pkey = append(pkey, key...)
	return slot, pkey
}

// Transaction begins a new batched write. Operations queued on the returned
// Batch take effect only once passed to Write or WriteBuffered.
func (d *Database) Transaction() *Batch {
	return &Batch{}
}

// WriteBuffered stages the transaction's operations in the in-memory
// overlay. Reads observe them immediately; the backing engine is untouched
// until Flush.
func (d *Database) WriteBuffered(b *Batch) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, op := range b.ops {
		slot, _ := column(op.col)
		d.overlay[slot][string(op.key)] = keyState{compressed: op.compressed, deleted: op.deleted, value: op.value}
	}
	d.overlayLen += int64(len(b.ops))
	d.overlaySize.Update(d.overlayLen)
}

// Flush commits the accumulated overlay to the backing engine atomically,
// snappy-compressing any PutCompressed entries, then clears the overlay.
func (d *Database) Flush() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	start := time.Now()
	defer d.flushTimer.UpdateSince(start)

	batch := d.engine.NewBatch()
	var n int
	for slot, col := range d.overlay {
		prefix := prefixForSlot(slot)
		for key, st := range col {
			pkey := append(append([]byte{}, prefix...), key...)
			if st.deleted {
				if err := batch.Delete(pkey); err != nil {
					return err
				}
			} else {
				value := st.value
				if st.compressed {
					value = snappy.Encode(nil, st.value)
				}
				if err := batch.Put(pkey, value); err != nil {
					return err
				}
			}
			n++
		}
		d.overlay[slot] = make(map[string]keyState)
	}
	if err := batch.Write(); err != nil {
		return err
	}
	d.flushMeter.Mark(int64(n))
	d.overlayLen = 0
	d.overlaySize.Update(0)
	log.Debug("kvstore: flushed overlay", "entries", n)
	return nil
}

// Write commits the transaction directly to the backing engine, bypassing
// the overlay. Concurrent Get calls on the same keys observe the write only
// once this call returns.
func (d *Database) Write(b *Batch) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	batch := d.engine.NewBatch()
	for _, op := range b.ops {
		_, pkey := prefixed(op.col, op.key)
		if op.deleted {
			if err := batch.Delete(pkey); err != nil {
				return err
			}
			continue
		}
		value := op.value
		if op.compressed {
			value = snappy.Encode(nil, op.value)
		}
		if err := batch.Put(pkey, value); err != nil {
			return err
		}
	}
	d.writeMeter.Mark(int64(len(b.ops)))
	return batch.Write()
}

// Get returns the value for key in column col, checking the overlay first
// and falling back to the backing engine. A missing key returns (nil, nil).
func (d *Database) Get(col int, key []byte) ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	slot, pkey := prefixed(col, key)
	if st, ok := d.overlay[slot][string(key)]; ok {
		if st.deleted {
			return nil, nil
		}
		return append([]byte{}, st.value...), nil
	}
	v, err := d.engine.Get(pkey)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return v, nil
}

// GetByPrefix returns the first flushed value whose key starts with prefix,
// in column col. It does not consult the overlay: only data that has
// already reached the backing engine is visible, matching the original
// get_by_prefix contract.
func (d *Database) GetByPrefix(col int, prefix []byte) []byte {
	d.mu.RLock()
	defer d.mu.RUnlock()

	_, pprefix := prefixed(col, prefix)
	it := d.engine.NewIterator(pprefix, nil)
	defer it.Release()
	if it.Next() {
		return append([]byte{}, it.Value()...)
	}
	return nil
}

// NewIterator returns an iterator over the flushed keys of column col. Keys
// yielded by it are stripped of the column's internal on-disk prefix.
// Overlay entries are not visible to the iterator.
func (d *Database) NewIterator(col int) ethdb.Iterator {
	d.mu.RLock()
	defer d.mu.RUnlock()

	_, prefix := column(col)
	return &prefixStrippingIterator{Iterator: d.engine.NewIterator(prefix, nil), prefixLen: len(prefix)}
}

// ColumnPrefix returns the on-disk key prefix used to namespace col, for
// callers that need to interpret raw engine keys (e.g. a backup tool).
func ColumnPrefix(col int) []byte {
	_, prefix := column(col)
	return prefix
}

// prefixStrippingIterator removes a fixed-length column prefix from every
// key Key() returns.
type prefixStrippingIterator struct {
	ethdb.Iterator
	prefixLen int
}

func (it *prefixStrippingIterator) Key() []byte {
	return it.Iterator.Key()[it.prefixLen:]
}

// Close releases the backing engine and clears the overlay.
func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i := range d.overlay {
		d.overlay[i] = nil
	}
	return d.engine.Close()
}

// Restore replaces the database's contents with a copy at newDBPath,
// keeping a backup_db sibling of the old directory until the swap
// succeeds. On failure the backup is restored in place.
func (d *Database) Restore(newDBPath string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.engine.Close(); err != nil {
		return err
	}
	for i := range d.overlay {
		d.overlay[i] = make(map[string]keyState)
	}

	dir := filepath.Dir(d.path)
	backup := filepath.Join(dir, "backup_db")

	existed := true
	if err := os.Rename(d.path, backup); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		existed = false
	}

	if err := os.Rename(newDBPath, d.path); err != nil {
		if existed {
			_ = os.Rename(backup, d.path)
		}
		return err
	}
	if existed {
		if err := os.RemoveAll(backup); err != nil {
			return err
		}
	}

	engine, err := d.opener(d.path, d.config)
	if err != nil {
		return err
	}
	d.engine = engine
	log.Info("kvstore: restored database", "path", d.path)
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, memorydb.ErrMemorydbNotFound) || errors.Is(err, pebbledb.ErrNotFound)
}
