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
	"github.com/holiman/uint256"

	"github.com/ethstatedb/accountdb/common"
)

// PodAccount is a flat, trie-independent snapshot of one cached account,
// the Go counterpart of pod_account.rs's PodAccount.
type PodAccount struct {
	Nonce       *uint256.Int
	Balance     *uint256.Int
	StorageRoot common.Hash
	CodeHash    common.Hash
}

// ToPod dumps every currently cached account as a PodAccount map. As in
// mod.rs's to_pod, this is a cache-only snapshot: an account that exists
// only in the committed trie and has never been read into the cache does
// not appear here. This limitation is intentional (spec.md §9's open
// question on to_pod/diff_from) and is not "fixed" by walking the trie.
func (s *State) ToPod() map[common.Address]PodAccount {
	out := make(map[common.Address]PodAccount, len(s.cache))
	for addr, cell := range s.cache {
		if !cell.present {
			continue
		}
		out[addr] = PodAccount{
			Nonce:       new(uint256.Int).Set(cell.account.Nonce),
			Balance:     new(uint256.Int).Set(cell.account.Balance),
			StorageRoot: cell.account.StorageRoot,
			CodeHash:    cell.account.CodeHash,
		}
	}
	return out
}

// AccountDiff describes the change in one account's pod view between two
// states, the Go counterpart of types::state_diff's per-account entry.
type AccountDiff struct {
	Before, After *PodAccount
}

// warmFrom pre-populates s's cache with every address appearing in other,
// reading each through ensureCached so a subsequent ToPod/DiffFrom
// comparison is fair (mod.rs's query_pod).
func (s *State) warmFrom(other map[common.Address]PodAccount) error {
	for addr := range other {
		if _, err := s.ensureCached(addr, false); err != nil {
			return err
		}
	}
	return nil
}

// DiffFrom returns the set of accounts that differ between orig and s,
// warming orig's cache with every address s's pod view touches first so
// the comparison is not skewed by orig never having read them (mod.rs's
// diff_from / query_pod pairing).
func (s *State) DiffFrom(orig *State) (map[common.Address]AccountDiff, error) {
	after := s.ToPod()
	if err := orig.warmFrom(after); err != nil {
		return nil, err
	}
	before := orig.ToPod()

	diff := make(map[common.Address]AccountDiff)
	for addr, a := range after {
		b, ok := before[addr]
		if !ok {
			diff[addr] = AccountDiff{Before: nil, After: podPtr(a)}
			continue
		}
		if !podEqual(a, b) {
			diff[addr] = AccountDiff{Before: podPtr(b), After: podPtr(a)}
		}
	}
	for addr, b := range before {
		if _, ok := after[addr]; !ok {
			diff[addr] = AccountDiff{Before: podPtr(b), After: nil}
		}
	}
	return diff, nil
}

func podPtr(p PodAccount) *PodAccount { return &p }

func podEqual(a, b PodAccount) bool {
	return a.Nonce.Eq(b.Nonce) && a.Balance.Eq(b.Balance) &&
		a.StorageRoot == b.StorageRoot && a.CodeHash == b.CodeHash
}
