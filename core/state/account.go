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
	"github.com/ethstatedb/accountdb/crypto"
	"github.com/ethstatedb/accountdb/rlp"
	"github.com/ethstatedb/accountdb/trie"
)

// codeState tracks whether Account.codeCache is known to match the
// persisted code for this account, mirroring account.rs's Clean/Dirty
// code-cache tag referenced by mod.rs's cache_code/commit_code call sites.
type codeState int

const (
	codeClean codeState = iota
	codeDirty
)

// Account is the persistent per-address record: nonce, balance, the root of
// its storage trie, and the Keccak-256 hash of its code. The remaining
// fields are cache-only bookkeeping, never serialized.
type Account struct {
	Nonce       *uint256.Int
	Balance     *uint256.Int
	StorageRoot common.Hash
	CodeHash    common.Hash

	addressHash    common.Hash
	addressHashSet bool
	codeCache      []byte
	codeState      codeState
	storageOverlay map[common.Hash]common.Hash
	dirty          bool
}

// newBasicAccount returns a fresh Account with the given balance and nonce,
// no code and an empty storage trie, matching mod.rs's Account::new_basic.
func newBasicAccount(balance *uint256.Int, nonce *uint256.Int) *Account {
	return &Account{
		Nonce:       cloneUint256(nonce),
		Balance:     cloneUint256(balance),
		StorageRoot: trie.EmptyRootHash,
		CodeHash:    crypto.EmptyCodeHash(),
		codeState:   codeClean,
		dirty:       true,
	}
}

// newContractAccount returns a fresh Account suitable as the target of
// new_contract: same shape as newBasicAccount, code is then installed via
// initCode.
func newContractAccount(balance *uint256.Int, nonce *uint256.Int) *Account {
	return newBasicAccount(balance, nonce)
}

func cloneUint256(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(v)
}

// clone returns a deep copy of a, used by State.requireAccount/checkpoint
// bookkeeping so that mutating the returned account never aliases a's
// cached storage overlay.
func (a *Account) clone() *Account {
	if a == nil {
		return nil
	}
	cp := &Account{
		Nonce:          cloneUint256(a.Nonce),
		Balance:        cloneUint256(a.Balance),
		StorageRoot:    a.StorageRoot,
		CodeHash:       a.CodeHash,
		addressHash:    a.addressHash,
		addressHashSet: a.addressHashSet,
		codeState:      a.codeState,
		dirty:          a.dirty,
	}
	if a.codeCache != nil {
		cp.codeCache = common.CopyBytes(a.codeCache)
	}
	if a.storageOverlay != nil {
		cp.storageOverlay = make(map[common.Hash]common.Hash, len(a.storageOverlay))
		for k, v := range a.storageOverlay {
			cp.storageOverlay[k] = v
		}
	}
	return cp
}

// isDirty reports whether a has pending edits (balance/nonce/storage/code)
// not yet reflected in the trie.
func (a *Account) isDirty() bool { return a.dirty }

// setClean clears the dirty flag once the account's storage and code have
// been committed and it has been written into the account trie.
func (a *Account) setClean() { a.dirty = false }

func (a *Account) addBalance(v *uint256.Int) {
	a.Balance = new(uint256.Int).Add(a.Balance, v)
	a.dirty = true
}

func (a *Account) subBalance(v *uint256.Int) {
	a.Balance = new(uint256.Int).Sub(a.Balance, v)
	a.dirty = true
}

func (a *Account) incNonce() {
	a.Nonce = new(uint256.Int).AddUint64(a.Nonce, 1)
	a.dirty = true
}

// addressHashFor returns (and caches) KECCAK(address), the namespace an
// account's storage and code live under in the backing trie.Database.
func (a *Account) addressHashFor(addr common.Address) common.Hash {
	if !a.addressHashSet {
		a.addressHash = crypto.Keccak256Hash(addr.Bytes())
		a.addressHashSet = true
	}
	return a.addressHash
}

// setStorage stages key=value in the in-memory overlay; it is folded into
// the account's storage trie at commitStorage time.
func (a *Account) setStorage(key, value common.Hash) {
	if a.storageOverlay == nil {
		a.storageOverlay = make(map[common.Hash]common.Hash)
	}
	a.storageOverlay[key] = value
	a.dirty = true
}

// initCode installs code on a freshly created contract account.
func (a *Account) initCode(code []byte) {
	a.codeCache = common.CopyBytes(code)
	a.codeState = codeDirty
	a.CodeHash = common.BytesToHash(crypto.Keccak256(code))
	a.dirty = true
}

// resetCode replaces an existing account's code (used by CREATE2 redeploy
// and similar executor-driven resets).
func (a *Account) resetCode(code []byte) {
	a.initCode(code)
}

// rlp encodes the persistent fields of a as the canonical 4-item account
// record: [nonce, balance, storageRoot, codeHash].
func (a *Account) rlp() []byte {
	return rlp.EncodeList(
		rlp.EncodeUint256(a.Nonce),
		rlp.EncodeUint256(a.Balance),
		rlp.EncodeString(a.StorageRoot.Bytes()),
		rlp.EncodeString(a.CodeHash.Bytes()),
	)
}

// accountFromRLP decodes the 4-item account record produced by (*Account).rlp.
func accountFromRLP(blob []byte) (*Account, error) {
	content, _, err := rlp.SplitList(blob)
	if err != nil {
		return nil, err
	}
	items, err := rlp.ListElements(content)
	if err != nil {
		return nil, err
	}
	if len(items) != 4 {
		return nil, errInvalidAccountRLP
	}
	nonceContent, _, err := rlp.SplitString(items[0])
	if err != nil {
		return nil, err
	}
	nonce, err := rlp.ParseUint256(nonceContent)
	if err != nil {
		return nil, err
	}
	balanceContent, _, err := rlp.SplitString(items[1])
	if err != nil {
		return nil, err
	}
	balance, err := rlp.ParseUint256(balanceContent)
	if err != nil {
		return nil, err
	}
	storageContent, _, err := rlp.SplitString(items[2])
	if err != nil {
		return nil, err
	}
	codeContent, _, err := rlp.SplitString(items[3])
	if err != nil {
		return nil, err
	}
	return &Account{
		Nonce:       nonce,
		Balance:     balance,
		StorageRoot: common.BytesToHash(storageContent),
		CodeHash:    common.BytesToHash(codeContent),
		codeState:   codeClean,
	}, nil
}
