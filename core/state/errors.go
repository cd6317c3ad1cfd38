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
	"errors"
	"fmt"
)

// errInvalidAccountRLP is returned when an account trie leaf does not
// decode as the canonical 4-item [nonce, balance, storageRoot, codeHash]
// record, indicating backing-store corruption.
var errInvalidAccountRLP = errors.New("state: invalid account RLP")

// ErrCommitWithOpenCheckpoint is returned by Commit when one or more
// checkpoints (from Snapshot) are still open. mod.rs enforces the
// equivalent precondition with assert!(self.snapshots.borrow().is_empty()),
// a hard panic; panicking across an embedding library's API is
// un-idiomatic Go, so this layer reports it as an ordinary error instead.
var ErrCommitWithOpenCheckpoint = errors.New("state: commit called with an open checkpoint")

// StorageError wraps a failure from the backing trie or kvstore layer,
// distinguishing storage faults from executor (Execution) faults.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("state: storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ExecutionError wraps a failure returned by the transaction executor
// during Apply, as distinct from a storage-layer fault.
type ExecutionError struct {
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("state: transaction execution failed: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
