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
	"encoding/binary"

	"github.com/shardflow/shardflow-node/blockchain/types"
	"github.com/shardflow/shardflow-node/params"
)

// frame is one activation of a Script: an instruction pointer plus the
// frame-local value stack. Frames are pushed by startFrame and popped by
// the Runtime's execute loop once their pc runs past the script.
type frame struct {
	script *Script
	pc     int
	stack  []uint64
}

func (f *frame) push(v uint64) { f.stack = append(f.stack, v) }

func (f *frame) pop() (uint64, error) {
	if len(f.stack) == 0 {
		return 0, types.StackUnderflow
	}
	v := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	return v, nil
}

func (f *frame) complete() bool { return f.pc >= len(f.script.Instructions) }

// Runtime holds the bounded frame stack and gas box for one script
// execution, implementing the "execute loop" contract of spec.md §4.2:
// while the stack is non-empty, inspect the top frame; if complete, pop;
// else advance it by one step.
type Runtime struct {
	ctx        Context
	frames     []*frame
	gas        *GasBox
	returnSink uint64
	hasReturn  bool
}

func NewRuntime(ctx Context, gas *GasBox) *Runtime {
	return &Runtime{ctx: ctx, gas: gas}
}

// StartFrame pushes a new frame running script with the given initial
// stack (fields ++ args, in that order). Returns StackOverflow if the
// frame stack is already at frameStackMaxSize.
func (rt *Runtime) StartFrame(script *Script, fields, args []uint64) error {
	if len(rt.frames) >= params.FrameStackMaxSize {
		return types.StackOverflow
	}
	f := &frame{script: script}
	f.stack = append(f.stack, fields...)
	f.stack = append(f.stack, args...)
	rt.frames = append(rt.frames, f)
	return nil
}

// Run drives the execute loop to completion, returning the final
// return-sink value (0 if the script never executed OpReturn with a
// value on the stack) and the error that halted it, if any.
func (rt *Runtime) Run() (uint64, error) {
	for len(rt.frames) > 0 {
		top := rt.frames[len(rt.frames)-1]
		if top.complete() {
			rt.frames = rt.frames[:len(rt.frames)-1]
			continue
		}
		if err := rt.step(top); err != nil {
			return 0, err
		}
	}
	return rt.returnSink, nil
}

func (rt *Runtime) step(f *frame) error {
	ins := f.script.Instructions[f.pc]
	f.pc++

	switch ins.Op {
	case OpConst:
		if err := rt.gas.Consume(GasQuickStep); err != nil {
			return err
		}
		f.push(ins.Operand)

	case OpPop:
		if err := rt.gas.Consume(GasQuickStep); err != nil {
			return err
		}
		if _, err := f.pop(); err != nil {
			return err
		}

	case OpDup:
		if err := rt.gas.Consume(GasQuickStep); err != nil {
			return err
		}
		if len(f.stack) == 0 {
			return types.StackUnderflow
		}
		f.push(f.stack[len(f.stack)-1])

	case OpAdd, OpSub, OpEq:
		if err := rt.gas.Consume(GasFastStep); err != nil {
			return err
		}
		b, err := f.pop()
		if err != nil {
			return err
		}
		a, err := f.pop()
		if err != nil {
			return err
		}
		switch ins.Op {
		case OpAdd:
			f.push(a + b)
		case OpSub:
			f.push(a - b)
		case OpEq:
			if a == b {
				f.push(1)
			} else {
				f.push(0)
			}
		}

	case OpAssert:
		if err := rt.gas.Consume(GasSlowStep); err != nil {
			return err
		}
		v, err := f.pop()
		if err != nil {
			return err
		}
		if v == 0 {
			return types.AssertionFailed
		}

	case OpLoad:
		if err := rt.gas.Consume(GasStorage); err != nil {
			return err
		}
		data, ok := rt.ctx.Load(ins.Hash)
		if !ok || len(data) < 8 {
			f.push(0)
		} else {
			f.push(binary.BigEndian.Uint64(data[:8]))
		}

	case OpStore:
		if !rt.ctx.Writable() {
			return types.TypeMismatch
		}
		if err := rt.gas.Consume(GasStorage); err != nil {
			return err
		}
		v, err := f.pop()
		if err != nil {
			return err
		}
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], v)
		rt.ctx.Store(ins.Hash, b[:])

	case OpReturn:
		if len(f.stack) > 0 {
			rt.returnSink = f.stack[len(f.stack)-1]
			rt.hasReturn = true
		}
		f.pc = len(f.script.Instructions)

	default:
		return types.InvalidInstruction
	}
	return nil
}
