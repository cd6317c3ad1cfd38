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

// op is a single queued write, recorded against a column (DefaultColumn or
// a named column index) until the batch is handed to Write/WriteBuffered.
type op struct {
	col        int
	key        []byte
	value      []byte
	compressed bool
	deleted    bool
}

// Batch accumulates Put/PutCompressed/Delete operations for a single
// Write or WriteBuffered call. A Batch is not safe for concurrent use.
type Batch struct {
	ops []op
}

// Put queues an insert. Any existing value is overwritten once the batch is
// committed.
func (b *Batch) Put(col int, key, value []byte) {
	b.ops = append(b.ops, op{
		col:   col,
		key:   append([]byte{}, key...),
		value: append([]byte{}, value...),
	})
}

// PutCompressed queues an insert whose value is snappy-compressed before it
// reaches the backing engine, substituting for the original implementation's
// bespoke RLP block-compression scheme.
func (b *Batch) PutCompressed(col int, key, value []byte) {
	b.ops = append(b.ops, op{
		col:        col,
		key:        append([]byte{}, key...),
		value:      append([]byte{}, value...),
		compressed: true,
	})
}

// Delete queues a removal by key.
func (b *Batch) Delete(col int, key []byte) {
	b.ops = append(b.ops, op{
		col:     col,
		key:     append([]byte{}, key...),
		deleted: true,
	})
}

// Len reports the number of queued operations.
func (b *Batch) Len() int { return len(b.ops) }
