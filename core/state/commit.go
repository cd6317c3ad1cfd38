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

import "github.com/ethstatedb/accountdb/common"

// Commit folds every cached mutation into the account trie (and, for dirty
// accounts, their storage tries and code) and returns the new root. It
// fails with ErrCommitWithOpenCheckpoint if any Snapshot is still open,
// mirroring mod.rs's assert!(self.snapshots.borrow().is_empty()) as an
// ordinary returned error rather than a panic.
func (s *State) Commit() (common.Hash, error) {
	if len(s.checkpoints) != 0 {
		return common.Hash{}, ErrCommitWithOpenCheckpoint
	}
	root, err := s.commitInto()
	if err != nil {
		return common.Hash{}, err
	}
	s.root = root
	return root, nil
}

// commitInto is the Go counterpart of mod.rs's State::commit_into: commit
// each dirty account's storage and code first, then insert/remove its
// entry in the account trie, then commit the account trie itself.
func (s *State) commitInto() (common.Hash, error) {
	for addr, cell := range s.cache {
		if !cell.present {
			if err := s.trie.raw.Delete(addr.Bytes()); err != nil {
				return common.Hash{}, &StorageError{Op: "remove account", Err: err}
			}
			continue
		}
		acc := cell.account
		if !acc.isDirty() {
			continue
		}
		if err := s.commitAccount(addr, acc); err != nil {
			return common.Hash{}, err
		}
		acc.setClean()
		if err := s.trie.raw.Update(addr.Bytes(), acc.rlp()); err != nil {
			return common.Hash{}, &StorageError{Op: "update account", Err: err}
		}
	}
	root, err := s.trie.commit()
	if err != nil {
		return common.Hash{}, &StorageError{Op: "commit account trie", Err: err}
	}
	// Flush every dirty node this commit produced (account trie, storage
	// tries, all namespaced by owner hash in the same backing trie.Database)
	// through L2 into the L1 kvstore write buffer. Without this, nodes never
	// leave trie.Database's in-memory dirty map and a reopen against the
	// backing store sees only the root, not the tree beneath it.
	if err := s.db.trie.Commit(); err != nil {
		return common.Hash{}, &StorageError{Op: "commit trie database", Err: err}
	}
	return root, nil
}

// commitAccount persists acc's storage overlay into its storage trie and,
// if dirty, its code, updating acc.StorageRoot and acc.CodeHash in place.
func (s *State) commitAccount(addr common.Address, acc *Account) error {
	addrHash := acc.addressHashFor(addr)

	if len(acc.storageOverlay) > 0 {
		st, err := s.db.OpenStorageTrie(addrHash, acc.StorageRoot)
		if err != nil {
			return &StorageError{Op: "open storage trie", Err: err}
		}
		for key, value := range acc.storageOverlay {
			var err error
			if value.IsZero() {
				err = st.Delete(key.Bytes())
			} else {
				err = st.Update(key.Bytes(), encodeStorageValue(value))
			}
			if err != nil {
				return &StorageError{Op: "update storage", Err: err}
			}
		}
		root, err := st.Commit()
		if err != nil {
			return &StorageError{Op: "commit storage trie", Err: err}
		}
		acc.StorageRoot = root
		acc.storageOverlay = nil
	}

	if acc.codeState == codeDirty {
		if err := s.db.commitCode(addrHash, acc.CodeHash, acc.codeCache); err != nil {
			return &StorageError{Op: "commit code", Err: err}
		}
		acc.codeState = codeClean
	}
	return nil
}
