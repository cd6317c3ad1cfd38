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
	"errors"

	"github.com/ethstatedb/accountdb/common"
	"github.com/ethstatedb/accountdb/crypto"
)

// Recorder observes every node blob read off the backing database during a
// lookup, depth included, mirroring the original Recorder/NoOp hook used to
// build Merkle proofs alongside an ordinary get.
type Recorder interface {
	Record(hash common.Hash, blob []byte, depth int)
}

// noopRecorder discards every record, used for plain lookups.
type noopRecorder struct{}

func (noopRecorder) Record(common.Hash, []byte, int) {}

// proofRecorder accumulates the node blobs visited while answering a single
// lookup, in root-to-leaf order, forming a Merkle proof for that key.
type proofRecorder struct {
	nodes [][]byte
}

func (r *proofRecorder) Record(_ common.Hash, blob []byte, _ int) {
	r.nodes = append(r.nodes, common.CopyBytes(blob))
}

// Prove returns the Merkle proof for key: the RLP encoding of every node
// visited on the path from the root to key's leaf (or to the point lookup
// diverges, for a non-membership proof).
func Prove(t *Trie, key []byte) ([][]byte, error) {
	rec := &proofRecorder{}
	_, err := getRecorded(t, key, rec)
	if err != nil {
		return nil, err
	}
	return rec.nodes, nil
}

// getRecorded behaves like Trie.Get but additionally calls rec.Record for
// every node blob it has to fetch from the database (including the root).
func getRecorded(t *Trie, key []byte, rec Recorder) ([]byte, error) {
	if t.root == nil {
		return nil, nil
	}
	n := t.root
	if hn, ok := n.(hashNode); ok {
		blob, err := t.db.NodeBlob(t.owner, common.BytesToHash(hn))
		if err != nil {
			return nil, err
		}
		if blob == nil {
			return nil, &ErrIncompleteDatabase{NodeHash: common.BytesToHash(hn)}
		}
		rec.Record(common.BytesToHash(hn), blob, 0)
		n = mustDecodeNode(hn, blob)
	}
	return getFromNode(t, n, keybytesToHex(key), 0, rec)
}

func getFromNode(t *Trie, n node, key []byte, depth int, rec Recorder) ([]byte, error) {
	switch n := n.(type) {
	case nil:
		return nil, nil
	case valueNode:
		return []byte(n), nil
	case *shortNode:
		if len(key)-0 < len(n.Key) || !equalHex(n.Key, key[:len(n.Key)]) {
			return nil, nil
		}
		return getFromNode(t, n.Val, key[len(n.Key):], depth+1, rec)
	case *fullNode:
		if len(key) == 0 {
			if v, ok := n.Children[16].(valueNode); ok {
				return []byte(v), nil
			}
			return nil, nil
		}
		return getFromNode(t, n.Children[key[0]], key[1:], depth+1, rec)
	case hashNode:
		blob, err := t.db.NodeBlob(t.owner, common.BytesToHash(n))
		if err != nil {
			return nil, err
		}
		if blob == nil {
			return nil, &ErrIncompleteDatabase{NodeHash: common.BytesToHash(n)}
		}
		rec.Record(common.BytesToHash(n), blob, depth)
		return getFromNode(t, mustDecodeNode(n, blob), key, depth, rec)
	default:
		panic("trie: invalid node type")
	}
}

var errProofMismatch = errors.New("trie: proof does not match root hash")

// VerifyProof checks that proof is a valid Merkle proof for key against
// rootHash: it indexes the proof's nodes by their own hash and replays the
// same root-to-leaf walk Get would perform, never touching a real Database.
func VerifyProof(rootHash common.Hash, key []byte, proof [][]byte) ([]byte, error) {
	nodes := make(map[common.Hash][]byte, len(proof))
	for _, blob := range proof {
		nodes[crypto.Keccak256Hash(blob)] = blob
	}
	rootBlob, ok := nodes[rootHash]
	if !ok {
		return nil, errProofMismatch
	}
	n := mustDecodeNode(rootHash.Bytes(), rootBlob)
	return verifyGet(n, keybytesToHex(key), nodes)
}

func verifyGet(n node, key []byte, nodes map[common.Hash][]byte) ([]byte, error) {
	switch n := n.(type) {
	case nil:
		return nil, nil
	case valueNode:
		return []byte(n), nil
	case *shortNode:
		if len(key) < len(n.Key) || !equalHex(n.Key, key[:len(n.Key)]) {
			return nil, nil
		}
		return verifyGet(n.Val, key[len(n.Key):], nodes)
	case *fullNode:
		if len(key) == 0 {
			if v, ok := n.Children[16].(valueNode); ok {
				return []byte(v), nil
			}
			return nil, nil
		}
		return verifyGet(n.Children[key[0]], key[1:], nodes)
	case hashNode:
		blob, ok := nodes[common.BytesToHash(n)]
		if !ok {
			return nil, errProofMismatch
		}
		return verifyGet(mustDecodeNode(n, blob), key, nodes)
	default:
		panic("trie: invalid node type")
	}
}
