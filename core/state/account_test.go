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
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/ethstatedb/accountdb/crypto"
	"github.com/ethstatedb/accountdb/trie"
)

func TestNewBasicAccountInvariants(t *testing.T) {
	acc := newBasicAccount(new(uint256.Int), new(uint256.Int))
	require.Equal(t, crypto.EmptyCodeHash(), acc.CodeHash)
	require.Equal(t, trie.EmptyRootHash, acc.StorageRoot)
	require.True(t, acc.isDirty())
}

func TestAccountRLPRoundTrip(t *testing.T) {
	acc := newBasicAccount(u256(7), u256(42))
	acc.Nonce = u256(3)
	blob := acc.rlp()

	decoded, err := accountFromRLP(blob)
	require.NoError(t, err)
	require.True(t, decoded.Nonce.Eq(acc.Nonce))
	require.True(t, decoded.Balance.Eq(acc.Balance))
	require.Equal(t, acc.StorageRoot, decoded.StorageRoot)
	require.Equal(t, acc.CodeHash, decoded.CodeHash)
}

func TestInitCodeSetsCodeHash(t *testing.T) {
	acc := newContractAccount(new(uint256.Int), new(uint256.Int))
	code := []byte{0x60, 0x00, 0x60, 0x00}
	acc.initCode(code)
	require.Equal(t, crypto.Keccak256Hash(code), acc.CodeHash)
	require.Equal(t, codeDirty, acc.codeState)
}
