// Copyright 2018 The go-klaytn Authors
// This file is part of the go-klaytn library.
//
// The go-klaytn library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-klaytn library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-klaytn library. If not, see <http://www.gnu.org/licenses/>.

package vm

import (
	"github.com/shardflow/shardflow-node/blockchain/state"
	"github.com/shardflow/shardflow-node/common"
)

// Context is the tagged-variant the two script dialects run against:
// Stateless for unlock scripts (read-only, no world state at all) and
// Stateful for tx scripts (read/write against a scratch WorldState).
type Context interface {
	isVMContext()
	// Load/Store are no-ops (returning ok=false / a silent drop) under
	// StatelessContext; they are meaningful only under StatefulContext.
	Load(contractID common.Hash) ([]byte, bool)
	Store(contractID common.Hash, data []byte)
	Writable() bool
}

// StatelessContext backs unlock-script execution (P2SH): it has no access
// to world state, matching spec.md §4.2's "stateless (read-only, used for
// unlock scripts)".
type StatelessContext struct{}

func NewStatelessContext() *StatelessContext { return &StatelessContext{} }

func (*StatelessContext) isVMContext()                                 {}
func (*StatelessContext) Load(common.Hash) ([]byte, bool)              { return nil, false }
func (*StatelessContext) Store(common.Hash, []byte)                    {}
func (*StatelessContext) Writable() bool                               { return false }

// StatefulContext backs tx-script execution: reads and writes flow
// through a scratch WorldState so a failed script leaves no visible
// effect (the caller discards the scratch view on failure).
type StatefulContext struct {
	World *state.WorldState
}

func NewStatefulContext(world *state.WorldState) *StatefulContext {
	return &StatefulContext{World: world}
}

func (*StatefulContext) isVMContext() {}

func (c *StatefulContext) Load(contractID common.Hash) ([]byte, bool) {
	data, ok, err := c.World.GetContractState(contractID)
	if err != nil || !ok {
		return nil, false
	}
	return data, true
}

func (c *StatefulContext) Store(contractID common.Hash, data []byte) {
	c.World.SetContractState(contractID, data)
}

func (*StatefulContext) Writable() bool { return true }
