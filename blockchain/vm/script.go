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
	"github.com/shardflow/shardflow-node/common"
)

// Op is one instruction of a Script's bytecode.
type Op byte

const (
	OpConst Op = iota // push a constant operand onto the stack
	OpPop             // discard the top of stack
	OpDup             // duplicate the top of stack
	OpAdd             // pop b,a; push a+b (64-bit wraparound)
	OpSub             // pop b,a; push a-b
	OpEq              // pop b,a; push 1 if equal else 0
	OpAssert          // pop v; halt with AssertionFailed if v == 0
	OpLoad            // push the bytes stored under the instruction's Hash (contract id), first 8 bytes as uint64, 0 if absent
	OpStore           // pop value; store its 8-byte encoding under the instruction's Hash (contract id)
	OpReturn          // halt normally; top of stack (if any) becomes the return value
)

// Instruction is one decoded bytecode step. Operand is only meaningful for
// OpConst (the constant); OpLoad/OpStore take their contract id from Hash.
type Instruction struct {
	Op      Op
	Operand uint64
	Hash    common.Hash // used by OpLoad/OpStore
}

// Script is a parsed, runnable sequence of Instructions — the concrete
// implementation of blockchain/types.Script.
type Script struct {
	Instructions []Instruction
	raw          []byte
}

var _ types.Script = (*Script)(nil)

// Bytes returns the encoding gas is charged against (script-size cost) and
// that participates in a P2SH lockup's Hash(script.bytes) check.
func (s *Script) Bytes() []byte {
	if s.raw != nil {
		return s.raw
	}
	buf := make([]byte, 0, len(s.Instructions)*9)
	for _, ins := range s.Instructions {
		buf = append(buf, byte(ins.Op))
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], ins.Operand)
		buf = append(buf, b[:]...)
	}
	s.raw = buf
	return buf
}

// NewScript builds a Script from a decoded instruction sequence.
func NewScript(instructions ...Instruction) *Script {
	return &Script{Instructions: instructions}
}

// DecodeScript parses the byte encoding Bytes() produces, used to run a
// P2SH unlock script supplied as raw bytes over the wire.
func DecodeScript(raw []byte) (*Script, error) {
	if len(raw)%9 != 0 {
		return nil, types.InvalidInstruction
	}
	instructions := make([]Instruction, 0, len(raw)/9)
	for i := 0; i < len(raw); i += 9 {
		op := Op(raw[i])
		operand := binary.BigEndian.Uint64(raw[i+1 : i+9])
		instructions = append(instructions, Instruction{Op: op, Operand: operand})
	}
	return &Script{Instructions: instructions, raw: raw}, nil
}

func Const(v uint64) Instruction  { return Instruction{Op: OpConst, Operand: v} }
func Pop() Instruction            { return Instruction{Op: OpPop} }
func Dup() Instruction            { return Instruction{Op: OpDup} }
func Add() Instruction            { return Instruction{Op: OpAdd} }
func Sub() Instruction            { return Instruction{Op: OpSub} }
func Eq() Instruction             { return Instruction{Op: OpEq} }
func Assert() Instruction         { return Instruction{Op: OpAssert} }
func Return() Instruction         { return Instruction{Op: OpReturn} }
func Load(id common.Hash) Instruction  { return Instruction{Op: OpLoad, Hash: id} }
func Store(id common.Hash) Instruction { return Instruction{Op: OpStore, Hash: id} }
