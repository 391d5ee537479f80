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

import "github.com/shardflow/shardflow-node/blockchain/state"

// Result is the outcome of one script execution: its return value and the
// gas actually consumed, per spec.md §4.2's determinism contract — for a
// fixed (script, fields, args, world_state) both fields are identical on
// every node.
type Result struct {
	ReturnValue uint64
	GasUsed     uint64
}

// ExecuteStateless runs script with the read-only unlock-script dialect
// (used by P2SH). startGas bounds total work; any mid-execution failure
// halts with no visible side effect, since StatelessContext has none to
// give.
func ExecuteStateless(script *Script, fields, args []uint64, startGas uint64) (Result, error) {
	return execute(NewStatelessContext(), script, fields, args, startGas)
}

// ExecuteStateful runs script with the read/write tx-script dialect
// against a scratch WorldState. On failure, the caller must discard world
// (never call Persist on it) so no effect becomes visible.
func ExecuteStateful(world *state.WorldState, script *Script, fields, args []uint64, startGas uint64) (Result, error) {
	return execute(NewStatefulContext(world), script, fields, args, startGas)
}

func execute(ctx Context, script *Script, fields, args []uint64, startGas uint64) (Result, error) {
	box := NewGasBox(startGas)
	rt := NewRuntime(ctx, box)
	if err := rt.StartFrame(script, fields, args); err != nil {
		return Result{}, err
	}
	ret, err := rt.Run()
	used := Used(startGas, box)
	if err != nil {
		return Result{GasUsed: used}, err
	}
	return Result{ReturnValue: ret, GasUsed: used}, nil
}
