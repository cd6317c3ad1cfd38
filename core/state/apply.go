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

// Transaction is the opaque view of a signed transaction the executor
// needs; the concrete implementation (signature recovery, RLP framing,
// gas pricing) lives with the transaction-executor collaborator, out of
// scope for this layer.
type Transaction interface {
	Hash() common.Hash
	Sender() common.Address
	To() *common.Address
	Data() []byte
	Gas() uint64
	Value() *common.Hash
}

// Log is a single event log entry produced by executing a transaction.
type Log struct {
	Address common.Address
	Topics  []common.Hash
	Data    []byte
}

// Receipt is the outcome of applying one transaction: the post-state root
// (mod.rs's Receipt::new(self.root().clone(), ...)), cumulative gas used,
// and the logs it emitted.
type Receipt struct {
	PostStateRoot     common.Hash
	CumulativeGasUsed uint64
	Logs              []Log
	// Trace carries the structured execution trace produced when
	// TransactOptions.Tracing was set; nil otherwise.
	Trace []byte
}

// EnvInfo carries the block-level context a transaction executes under
// (block number, timestamp, gas limit, coinbase, ...); its fields are an
// external collaborator's concern and are therefore left opaque here.
type EnvInfo interface{}

// Engine is the consensus-engine collaborator, invoked by Apply after a
// transaction has executed and before its state changes are committed, to
// apply any engine-specific rewards.
type Engine interface {
	ApplyBlockReward(s *State, env EnvInfo) error
}

// TransactOptions mirrors mod.rs's TransactOptions: whether to record an
// execution trace, a VM-level trace, and whether to enforce nonce checks.
type TransactOptions struct {
	Tracing   bool
	VMTracing bool
	CheckNonce bool
}

// ExecutionResult is what a TxExecutor hands back after running a
// transaction against a State: cumulative gas used, emitted logs, and an
// execution trace (present only when TransactOptions.Tracing is set).
type ExecutionResult struct {
	CumulativeGasUsed uint64
	Logs              []Log
	Trace             []byte
}

// TxExecutor runs one transaction against s, mutating its cache exactly as
// the real EVM would (balance transfers, nonce increments, storage
// writes, new contracts); the concrete VM is an external collaborator out
// of scope for this layer. Apply calls Transact, and on success commits
// the resulting state before building a Receipt.
type TxExecutor interface {
	Transact(s *State, env EnvInfo, engine Engine, tx Transaction, opts TransactOptions) (ExecutionResult, error)
}

// Apply executes tx against s via executor and, on success, applies the
// engine's block reward and commits the resulting state, building a Receipt
// from the post-commit root — the Go counterpart of mod.rs's State::apply.
// On executor failure, s is left uncommitted and the error is returned
// wrapped as an ExecutionError. The reward is applied before commit so it is
// reflected in the Receipt's PostStateRoot exactly like any other state
// change the transaction caused.
func (s *State) Apply(env EnvInfo, engine Engine, executor TxExecutor, tx Transaction, opts TransactOptions) (*Receipt, error) {
	result, err := executor.Transact(s, env, engine, tx, opts)
	if err != nil {
		return nil, &ExecutionError{Err: err}
	}
	if engine != nil {
		if err := engine.ApplyBlockReward(s, env); err != nil {
			return nil, &ExecutionError{Err: err}
		}
	}
	root, err := s.Commit()
	if err != nil {
		return nil, err
	}
	return &Receipt{
		PostStateRoot:     root,
		CumulativeGasUsed: result.CumulativeGasUsed,
		Logs:              result.Logs,
		Trace:             result.Trace,
	}, nil
}
