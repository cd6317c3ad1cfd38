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

// Command accountdb-bench exercises the full L1/L2/L3 stack end to end:
// it opens a pebble-backed kvstore.Database, wraps it with a trie.Database
// and core/state.Database, runs a batch of account mutations through
// core/state.State, commits, flushes, and reports timing.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/holiman/uint256"

	"github.com/ethstatedb/accountdb/common"
	"github.com/ethstatedb/accountdb/core/state"
	"github.com/ethstatedb/accountdb/kvstore"
	"github.com/ethstatedb/accountdb/log"
	"github.com/ethstatedb/accountdb/trie"
)

func main() {
	var (
		dir      = flag.String("datadir", "", "on-disk database directory (empty: in-memory)")
		accounts = flag.Int("accounts", 10_000, "number of distinct accounts to mutate")
	)
	flag.Parse()

	opener := kvstore.OpenMemory
	path := ""
	if *dir != "" {
		opener = kvstore.OpenPebble
		path = *dir
	}
	kv, err := kvstore.Open(path, kvstore.DefaultConfig(), opener)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer kv.Close()

	db := state.NewDatabase(kv, trie.Config{CleanCacheSizeMiB: 32, Column: kvstore.DefaultColumn})
	s, err := state.New(common.Hash{}, db, state.Config{})
	if err != nil {
		fmt.Fprintln(os.Stderr, "new state:", err)
		os.Exit(1)
	}

	start := time.Now()
	for i := 0; i < *accounts; i++ {
		addr := common.BytesToAddress([]byte(fmt.Sprintf("acct-%d", i)))
		if err := s.AddBalance(addr, new(uint256.Int).SetUint64(uint64(i)+1)); err != nil {
			fmt.Fprintln(os.Stderr, "add balance:", err)
			os.Exit(1)
		}
		if err := s.IncNonce(addr); err != nil {
			fmt.Fprintln(os.Stderr, "inc nonce:", err)
			os.Exit(1)
		}
	}
	mutated := time.Since(start)

	root, err := s.Commit()
	if err != nil {
		fmt.Fprintln(os.Stderr, "commit:", err)
		os.Exit(1)
	}
	if err := kv.Flush(); err != nil {
		fmt.Fprintln(os.Stderr, "flush:", err)
		os.Exit(1)
	}
	committed := time.Since(start)

	log.Info("accountdb-bench done", "accounts", *accounts, "root", root, "mutate", mutated, "total", committed)
}
