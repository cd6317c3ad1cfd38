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

// Package ethdb defines the low-level key-value store contract that backs
// the buffered overlay in package kvstore. It mirrors go-ethereum's own
// ethdb package shape (KeyValueReader/Writer/Batcher/Iteratee), since every
// repo in the corpus that touches state or trie storage programs against
// that contract rather than a specific engine.
package ethdb

import "io"

// KeyValueReader wraps the Has and Get methods of a backing data store.
type KeyValueReader interface {
	Has(key []byte) (bool, error)
	Get(key []byte) ([]byte, error)
}

// KeyValueWriter wraps the Put and Delete methods of a backing data store.
type KeyValueWriter interface {
	Put(key, value []byte) error
	Delete(key []byte) error
}

// KeyValueRangeDeleter wraps the DeleteRange method of a backing data store.
type KeyValueRangeDeleter interface {
	DeleteRange(start, end []byte) error
}

// Iterator iterates over a database's key/value pairs in ascending key order.
type Iterator interface {
	Next() bool
	Error() error
	Key() []byte
	Value() []byte
	Release()
}

// Iteratee wraps the NewIterator method, constraining iteration to keys
// with the given prefix, starting at the given seek position.
type Iteratee interface {
	NewIterator(prefix []byte, start []byte) Iterator
}

// Batch is a write-only operation accumulator that is committed atomically.
type Batch interface {
	KeyValueWriter

	// ValueSize returns the amount of data queued up for writing.
	ValueSize() int

	// Write flushes any accumulated data to disk.
	Write() error

	// Reset resets the batch for reuse.
	Reset()

	// Replay replays the batch contents in order.
	Replay(w KeyValueWriter) error
}

// Batcher wraps the NewBatch and NewBatchWithSize methods.
type Batcher interface {
	NewBatch() Batch
	NewBatchWithSize(size int) Batch
}

// KeyValueStore is the minimal interface backing both the memory and disk
// implementations used throughout package kvstore.
type KeyValueStore interface {
	KeyValueReader
	KeyValueWriter
	Batcher
	Iteratee
	io.Closer
}
