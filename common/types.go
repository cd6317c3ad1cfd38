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

// Package common holds the fixed-size types shared by every layer of the
// account-state stack: 160-bit addresses and 256-bit hashes.
package common

import (
	"encoding/hex"
	"fmt"
)

const (
	// HashLength is the expected length of the hash in bytes.
	HashLength = 32
	// AddressLength is the expected length of the address in bytes.
	AddressLength = 20
)

// Hash represents the 32 byte Keccak256 hash of arbitrary data.
type Hash [HashLength]byte

// BytesToHash sets b to hash. If b is larger than len(h), b will be cropped
// from the left.
func BytesToHash(b []byte) Hash {
	var h Hash
	h.SetBytes(b)
	return h
}

// SetBytes sets the hash to the value of b, right-aligned, truncating on the left.
func (h *Hash) SetBytes(b []byte) {
	if len(b) > len(h) {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
}

// Bytes returns the raw bytes of h.
func (h Hash) Bytes() []byte { return h[:] }

// Hex returns a 0x-prefixed hex string representation.
func (h Hash) Hex() string { return "0x" + hex.EncodeToString(h[:]) }

func (h Hash) String() string { return h.Hex() }

// IsZero reports whether h is the zero hash.
func (h Hash) IsZero() bool { return h == Hash{} }

// Cmp compares two hashes lexically.
func (h Hash) Cmp(other Hash) int {
	for i := range h {
		if h[i] != other[i] {
			if h[i] < other[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Address represents the 20 byte address of an Ethereum-class account.
type Address [AddressLength]byte

// BytesToAddress sets a to address. If b is larger than len(a), b will be
// cropped from the left.
func BytesToAddress(b []byte) Address {
	var a Address
	a.SetBytes(b)
	return a
}

// SetBytes sets the address to the value of b, right-aligned, truncating on the left.
func (a *Address) SetBytes(b []byte) {
	if len(b) > len(a) {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
}

// Bytes returns the raw bytes of a.
func (a Address) Bytes() []byte { return a[:] }

// Hex returns a 0x-prefixed hex string representation.
func (a Address) Hex() string { return "0x" + hex.EncodeToString(a[:]) }

func (a Address) String() string { return a.Hex() }

// IsZero reports whether a is the zero address.
func (a Address) IsZero() bool { return a == Address{} }

// HexToAddress parses a (optionally 0x-prefixed) hex string into an Address.
func HexToAddress(s string) Address { return BytesToAddress(FromHex(s)) }

// HexToHash parses a (optionally 0x-prefixed) hex string into a Hash.
func HexToHash(s string) Hash { return BytesToHash(FromHex(s)) }

// FromHex decodes a 0x-prefixed or bare hex string, left-padding an
// odd-length string with a zero nibble. It panics if s is not valid hex.
func FromHex(s string) []byte {
	if len(s) >= 2 && (s[0:2] == "0x" || s[0:2] == "0X") {
		s = s[2:]
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(fmt.Sprintf("common: invalid hex string %q: %v", s, err))
	}
	return b
}

// CopyBytes returns an exact copy of the provided slice.
func CopyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	cpy := make([]byte, len(b))
	copy(cpy, b)
	return cpy
}

// StorageSize is a number of bytes rendered human-readable by String, mirroring
// the teacher's common.StorageSize used in its flush-progress log lines.
type StorageSize float64

func (s StorageSize) String() string {
	switch {
	case s >= 1099511627776:
		return fmt.Sprintf("%.2f TiB", s/1099511627776)
	case s >= 1073741824:
		return fmt.Sprintf("%.2f GiB", s/1073741824)
	case s >= 1048576:
		return fmt.Sprintf("%.2f MiB", s/1048576)
	case s >= 1024:
		return fmt.Sprintf("%.2f KiB", s/1024)
	default:
		return fmt.Sprintf("%.2f B", s)
	}
}
