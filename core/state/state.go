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

// Package state implements the account-state layer: a write-through,
// snapshot-journaled cache over the account trie, exposing transactional
// semantics (nested checkpoints, revert, commit) to a transaction executor.
package state

import (
	"github.com/holiman/uint256"

	"github.com/ethstatedb/accountdb/common"
)

// Config configures a State instance.
type Config struct {
	// StartNonce is the nonce reported for an account that has never been
	// written, matching mod.rs's account_start_nonce constructor parameter.
	StartNonce *uint256.Int
}

// State caches address→account decisions over a committed account-trie
// root, supporting nested checkpoints with revert/merge, and lazily
// materializing per-account storage tries.
type State struct {
	db    *Database
	root  common.Hash
	trie  *accountTrieHandle
	cache map[common.Address]cacheCell

	checkpoints []checkpoint
	startNonce  *uint256.Int
}

// accountTrieHandle is the subset of trie.SecureTrie State needs, isolated
// so tests can substitute a fake without pulling in trie.Database.
type accountTrieHandle struct {
	raw  accountTrieView
	hash func() common.Hash
	commit func() (common.Hash, error)
}

// New opens a State rooted at root (the zero hash or trie.EmptyRootHash
// opens a fresh, empty account trie).
func New(root common.Hash, db *Database, cfg Config) (*State, error) {
	t, err := db.OpenAccountTrie(root)
	if err != nil {
		return nil, &StorageError{Op: "open account trie", Err: err}
	}
	startNonce := cfg.StartNonce
	if startNonce == nil {
		startNonce = new(uint256.Int)
	}
	return &State{
		db:   db,
		root: root,
		trie: &accountTrieHandle{raw: t, hash: t.Hash, commit: t.Commit},
		cache: make(map[common.Address]cacheCell),
		startNonce: startNonce,
	}, nil
}

// Root returns the account-trie root as of the last Commit (or the root
// the State was opened with, if nothing has been committed yet).
func (s *State) Root() common.Hash { return s.root }

// Snapshot opens a new checkpoint. Matching calls to RevertToSnapshot or
// ClearSnapshot must be well-balanced with Snapshot calls.
func (s *State) Snapshot() {
	s.checkpoints = append(s.checkpoints, make(checkpoint))
}

// ClearSnapshot discards the innermost checkpoint, folding any journal
// entries it holds into the enclosing checkpoint (or, if there is none,
// simply dropping them, which makes the changes permanent).
func (s *State) ClearSnapshot() {
	if len(s.checkpoints) == 0 {
		return
	}
	last := s.checkpoints[len(s.checkpoints)-1]
	s.checkpoints = s.checkpoints[:len(s.checkpoints)-1]
	if len(s.checkpoints) == 0 {
		return
	}
	prev := s.checkpoints[len(s.checkpoints)-1]
	for addr, entry := range last {
		if _, ok := prev[addr]; !ok {
			prev[addr] = entry
		}
	}
}

// RevertToSnapshot undoes every change recorded since the matching
// Snapshot call and discards that checkpoint.
func (s *State) RevertToSnapshot() {
	if len(s.checkpoints) == 0 {
		return
	}
	last := s.checkpoints[len(s.checkpoints)-1]
	s.checkpoints = s.checkpoints[:len(s.checkpoints)-1]
	for addr, entry := range last {
		if entry.cell == nil {
			delete(s.cache, addr)
			continue
		}
		s.cache[addr] = *entry.cell
	}
}

// insertCache installs cell as addr's cache entry, first recording addr's
// prior cache state in the innermost open checkpoint (if any and if not
// already recorded this checkpoint).
func (s *State) insertCache(addr common.Address, cell cacheCell) {
	if n := len(s.checkpoints); n > 0 {
		top := s.checkpoints[n-1]
		if _, recorded := top[addr]; !recorded {
			if prev, ok := s.cache[addr]; ok {
				prevCopy := prev
				top[addr] = journalEntry{cell: &prevCopy}
			} else {
				top[addr] = journalEntry{cell: nil}
			}
		}
	}
	s.cache[addr] = cell
}

// noteCache records addr's current cache state in the innermost open
// checkpoint, if it has not already been recorded this checkpoint. Used
// before mutating an account already present in the cache in place.
func (s *State) noteCache(addr common.Address) {
	n := len(s.checkpoints)
	if n == 0 {
		return
	}
	top := s.checkpoints[n-1]
	if _, recorded := top[addr]; recorded {
		return
	}
	if cell, ok := s.cache[addr]; ok {
		cellCopy := cacheCell{present: cell.present, account: cell.account.clone()}
		top[addr] = journalEntry{cell: &cellCopy}
	} else {
		top[addr] = journalEntry{cell: nil}
	}
}

// NewContract creates (or resets) the account at contract with the given
// balance, ready for InitCode.
func (s *State) NewContract(contract common.Address, balance *uint256.Int) {
	s.insertCache(contract, cacheCell{present: true, account: newContractAccount(balance, s.startNonce)})
}

// KillAccount marks account as deleted: its trie entry is removed at the
// next Commit.
func (s *State) KillAccount(account common.Address) {
	s.insertCache(account, cacheCell{present: false})
}

// ensureCached returns addr's cache cell, populating it from the account
// trie on first access. requireCode additionally ensures the account's
// code is cached.
func (s *State) ensureCached(addr common.Address, requireCode bool) (*Account, error) {
	cell, ok := s.cache[addr]
	if !ok {
		acc, err := newAccountReader(s.trie.raw).read(addr)
		if err != nil {
			return nil, &StorageError{Op: "read account", Err: err}
		}
		cell = cacheCell{present: acc != nil, account: acc}
		s.insertCache(addr, cell)
	}
	if !cell.present {
		return nil, nil
	}
	if requireCode {
		if err := s.cacheCode(addr, cell.account); err != nil {
			return nil, err
		}
	}
	return cell.account, nil
}

func (s *State) cacheCode(addr common.Address, acc *Account) error {
	if acc.codeCache != nil {
		return nil
	}
	addrHash := acc.addressHashFor(addr)
	code, err := s.db.ContractCode(addrHash, acc.CodeHash)
	if err != nil {
		return &StorageError{Op: "read code", Err: err}
	}
	acc.codeCache = code
	acc.codeState = codeClean
	return nil
}

// requireAccount returns addr's account for mutation, constructing it from
// defaultAcc if it does not yet exist (or is known-missing).
func (s *State) requireAccount(addr common.Address, requireCode bool, defaultAcc func() *Account) (*Account, error) {
	cell, ok := s.cache[addr]
	if !ok {
		acc, err := newAccountReader(s.trie.raw).read(addr)
		if err != nil {
			return nil, &StorageError{Op: "read account", Err: err}
		}
		cell = cacheCell{present: acc != nil, account: acc}
		s.insertCache(addr, cell)
	} else {
		s.noteCache(addr)
	}
	if !cell.present {
		acc := defaultAcc()
		s.cache[addr] = cacheCell{present: true, account: acc}
		cell = s.cache[addr]
	}
	if requireCode {
		if err := s.cacheCode(addr, cell.account); err != nil {
			return nil, err
		}
	}
	return cell.account, nil
}

func (s *State) requireBasic(addr common.Address) (*Account, error) {
	return s.requireAccount(addr, false, func() *Account {
		return newBasicAccount(new(uint256.Int), s.startNonce)
	})
}

// Exists reports whether addr has an account (present, even if empty).
func (s *State) Exists(addr common.Address) (bool, error) {
	acc, err := s.ensureCached(addr, false)
	return acc != nil, err
}

// Balance returns addr's balance, zero for a non-existent account.
func (s *State) Balance(addr common.Address) (*uint256.Int, error) {
	acc, err := s.ensureCached(addr, false)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return new(uint256.Int), nil
	}
	return new(uint256.Int).Set(acc.Balance), nil
}

// Nonce returns addr's nonce, or the configured start nonce for a
// non-existent account.
func (s *State) Nonce(addr common.Address) (*uint256.Int, error) {
	acc, err := s.ensureCached(addr, false)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return new(uint256.Int).Set(s.startNonce), nil
	}
	return new(uint256.Int).Set(acc.Nonce), nil
}

// Code returns addr's contract code, nil for an account with no code or no
// account at all.
func (s *State) Code(addr common.Address) ([]byte, error) {
	acc, err := s.ensureCached(addr, true)
	if err != nil || acc == nil {
		return nil, err
	}
	return acc.codeCache, nil
}

// StorageAt returns the value stored under key in addr's storage trie,
// consulting the account's in-memory overlay first.
func (s *State) StorageAt(addr common.Address, key common.Hash) (common.Hash, error) {
	acc, err := s.ensureCached(addr, false)
	if err != nil || acc == nil {
		return common.Hash{}, err
	}
	if v, ok := acc.storageOverlay[key]; ok {
		return v, nil
	}
	addrHash := acc.addressHashFor(addr)
	st, err := s.db.OpenStorageTrie(addrHash, acc.StorageRoot)
	if err != nil {
		return common.Hash{}, &StorageError{Op: "open storage trie", Err: err}
	}
	v, err := newStorageReader(st).get(key)
	if err != nil {
		return common.Hash{}, &StorageError{Op: "read storage", Err: err}
	}
	return v, nil
}

// AddBalance adds incr to addr's balance.
func (s *State) AddBalance(addr common.Address, incr *uint256.Int) error {
	acc, err := s.requireBasic(addr)
	if err != nil {
		return err
	}
	acc.addBalance(incr)
	return nil
}

// SubBalance subtracts decr from addr's balance.
func (s *State) SubBalance(addr common.Address, decr *uint256.Int) error {
	acc, err := s.requireBasic(addr)
	if err != nil {
		return err
	}
	acc.subBalance(decr)
	return nil
}

// TransferBalance moves by from the from account's balance to the to
// account's, as two ordinary balance mutations (mod.rs's transfer_balance).
func (s *State) TransferBalance(from, to common.Address, by *uint256.Int) error {
	if err := s.SubBalance(from, by); err != nil {
		return err
	}
	return s.AddBalance(to, by)
}

// IncNonce increments addr's nonce by one.
func (s *State) IncNonce(addr common.Address) error {
	acc, err := s.requireBasic(addr)
	if err != nil {
		return err
	}
	acc.incNonce()
	return nil
}

// SetStorage sets addr's storage slot key to value.
func (s *State) SetStorage(addr common.Address, key, value common.Hash) error {
	acc, err := s.requireBasic(addr)
	if err != nil {
		return err
	}
	acc.setStorage(key, value)
	return nil
}

// InitCode installs code on an account created via NewContract.
func (s *State) InitCode(addr common.Address, code []byte) error {
	acc, err := s.requireAccount(addr, true, func() *Account {
		return newContractAccount(new(uint256.Int), s.startNonce)
	})
	if err != nil {
		return err
	}
	acc.initCode(code)
	return nil
}

// ResetCode replaces addr's existing code.
func (s *State) ResetCode(addr common.Address, code []byte) error {
	acc, err := s.requireAccount(addr, true, func() *Account {
		return newContractAccount(new(uint256.Int), s.startNonce)
	})
	if err != nil {
		return err
	}
	acc.resetCode(code)
	return nil
}

// Clear drops the entire cache, losing all uncommitted reads and writes.
// Any open checkpoints are dropped along with it.
func (s *State) Clear() {
	s.cache = make(map[common.Address]cacheCell)
	s.checkpoints = nil
}

// Populate seeds the cache directly from accounts, bypassing Commit. Used
// by genesis-block construction and test setup (mod.rs's populate_from).
func (s *State) Populate(accounts map[common.Address]*Account) {
	for addr, acc := range accounts {
		s.cache[addr] = cacheCell{present: true, account: acc}
	}
}

// Clone returns an independent State sharing this one's backing Database
// but with its own deep copies of the cache and checkpoint stack, the clone-per-worker model
// spec.md §5 parallelizes block execution across (mod.rs's impl Clone).
func (s *State) Clone() (*State, error) {
	t, err := s.db.OpenAccountTrie(s.root)
	if err != nil {
		return nil, &StorageError{Op: "open account trie", Err: err}
	}
	cp := &State{
		db:         s.db,
		root:       s.root,
		trie:       &accountTrieHandle{raw: t, hash: t.Hash, commit: t.Commit},
		cache:      make(map[common.Address]cacheCell, len(s.cache)),
		startNonce: new(uint256.Int).Set(s.startNonce),
	}
	for addr, cell := range s.cache {
		cp.cache[addr] = cacheCell{present: cell.present, account: cell.account.clone()}
	}
	for _, frame := range s.checkpoints {
		cpFrame := make(checkpoint, len(frame))
		for addr, entry := range frame {
			if entry.cell != nil {
				cell := cacheCell{present: entry.cell.present, account: entry.cell.account.clone()}
				entry = journalEntry{cell: &cell}
			}
			cpFrame[addr] = entry
		}
		cp.checkpoints = append(cp.checkpoints, cpFrame)
	}
	return cp, nil
}
