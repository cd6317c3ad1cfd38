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

// cacheCell is a single cell of the address→account cache: either not yet
// populated (handled by the containing map's absence of the key), known
// to be absent (present==false), or known to hold an account.
type cacheCell struct {
	account *Account
	present bool
}

// journalEntry is the Option<Option<Account>> of mod.rs's snapshot
// journal: cell == nil means the address was not present in the cache at
// all before this checkpoint first saw it (restore by deleting it from the
// cache on revert); a non-nil cell captures the address's prior cache
// state, known-missing (present == false) or known-present (present ==
// true, account holding the value).
type journalEntry struct {
	cell *cacheCell
}

// checkpoint is one frame of the snapshot stack: the addresses it has
// already recorded prior state for, keyed by address.
type checkpoint map[common.Address]journalEntry
