// Copyright 2018 The klaytn Authors
// Copyright 2015 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.
//
// This file is derived from core/vm/gas.go. Modified for the shard-local
// script VM: opcode costs replace the account-model's call/sstore/sha3
// schedule, but the GasBox accounting style (consume-and-fail) is kept.

package vm

import "github.com/shardflow/shardflow-node/blockchain/types"

// Per-instruction gas costs.
const (
	GasQuickStep uint64 = 2  // push/pop/dup
	GasFastStep  uint64 = 5  // arithmetic, comparisons
	GasSlowStep  uint64 = 10 // assert
	GasStorage   uint64 = 200 // load/store against contract state
)

// GasBox meters a single execution: Consume deducts or fails with
// OutOfGas, never going negative.
type GasBox struct {
	remaining uint64
}

func NewGasBox(amount uint64) *GasBox {
	return &GasBox{remaining: amount}
}

func (g *GasBox) Remaining() uint64 { return g.remaining }

// Consume deducts cost, returning OutOfGas (and leaving remaining at 0)
// if cost exceeds what's left.
func (g *GasBox) Consume(cost uint64) error {
	if cost > g.remaining {
		g.remaining = 0
		return types.OutOfGas
	}
	g.remaining -= cost
	return nil
}

// Used reports gas spent so far relative to a starting amount, matching
// spec.md §4.3's "Gas used = gasAmount − gasRemaining".
func Used(startAmount uint64, box *GasBox) uint64 {
	return startAmount - box.remaining
}
