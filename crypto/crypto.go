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

// Package crypto provides the single hashing primitive the account-state
// stack depends on: Keccak-256.
package crypto

import (
	"hash"
	"sync"

	"golang.org/x/crypto/sha3"

	"github.com/ethstatedb/accountdb/common"
)

// KeccakState wraps sha3.state to allow hashing in parallel without
// allocating a new state object each time, matching the pattern used by
// the teacher's trie committer (sha3.NewLegacyKeccak256().(keccakState)).
type KeccakState interface {
	hash.Hash
	Read([]byte) (int, error)
}

var hasherPool = sync.Pool{
	New: func() interface{} { return sha3.NewLegacyKeccak256().(KeccakState) },
}

// NewKeccakState returns a recycled Keccak-256 hasher from the pool.
func NewKeccakState() KeccakState {
	return hasherPool.Get().(KeccakState)
}

// PutKeccakState returns h to the pool after Reset-ing it.
func PutKeccakState(h KeccakState) {
	h.Reset()
	hasherPool.Put(h)
}

// Keccak256 computes the Keccak-256 hash of the concatenation of the inputs.
func Keccak256(data ...[]byte) []byte {
	h := NewKeccakState()
	defer PutKeccakState(h)
	for _, b := range data {
		h.Write(b)
	}
	var out [32]byte
	h.Read(out[:])
	return out[:]
}

// Keccak256Hash computes the Keccak-256 hash of the concatenation of the
// inputs and returns it as a common.Hash.
func Keccak256Hash(data ...[]byte) (h common.Hash) {
	d := NewKeccakState()
	defer PutKeccakState(d)
	for _, b := range data {
		d.Write(b)
	}
	d.Read(h[:])
	return h
}

// emptyCodeHash is the Keccak256 hash of the empty string, the distinguished
// constant used by Account to denote "no code" (spec.md §3).
var emptyCodeHash = Keccak256Hash(nil)

// EmptyCodeHash returns KECCAK("") — the code hash of an account with no code.
func EmptyCodeHash() common.Hash { return emptyCodeHash }
