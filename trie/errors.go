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

package trie

import (
	"fmt"

	"github.com/ethstatedb/accountdb/common"
)

// ErrInvalidStateRoot is returned when a trie is opened against a root hash
// that does not exist in the backing database at all.
type ErrInvalidStateRoot struct {
	Root common.Hash
}

func (e *ErrInvalidStateRoot) Error() string {
	return fmt.Sprintf("trie: invalid state root %x", e.Root)
}

// ErrIncompleteDatabase is returned when a lookup needs a node that is
// referenced by its parent but missing from the backing database: the
// trie's root is known, but some subtree (typically a pruned or
// not-yet-synced branch) is absent.
type ErrIncompleteDatabase struct {
	NodeHash common.Hash
}

func (e *ErrIncompleteDatabase) Error() string {
	return fmt.Sprintf("trie: missing trie node %x", e.NodeHash)
}
