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

package types

import (
	"math/big"

	"github.com/shardflow/shardflow-node/common"
	"github.com/shardflow/shardflow-node/params"
)

// Script is a parsed, runnable tx script (the VM's stateful dialect). Its
// concrete representation belongs to blockchain/vm; the validation layer
// only needs to execute it, so it is carried here as an opaque interface.
type Script interface {
	Bytes() []byte
}

// UnsignedTransaction is the part of a transaction that gets hashed and
// signed.
type UnsignedTransaction struct {
	Version      byte
	NetworkID    params.NetworkID
	ScriptOpt    Script // nil when the tx carries no tx script
	GasAmount    uint64
	GasPrice     *big.Int
	Inputs       []TxInput
	FixedOutputs []TxOutput
}

// Hash returns the commitment used as both the tx's identity and the
// message signed by every P2PKH/P2MPKH signature. See encoding.go for the
// (placeholder, locally-fixed) serialization this is built over.
func (u *UnsignedTransaction) Hash() common.Hash {
	return common.BytesToHash(hashBytes(encodeUnsignedTransaction(u)))
}

// Transaction is a signed, fully-formed transaction as it travels the
// network and is embedded in blocks.
type Transaction struct {
	Unsigned         UnsignedTransaction
	InputSignatures  []Signature
	ContractInputs   []ContractOutputRef
	GeneratedOutputs []TxOutput
}

// Hash is the transaction's own identity, distinct from Unsigned.Hash():
// it also commits to the witness data, so two transactions spending the
// same inputs with different signatures are different transactions.
func (tx *Transaction) Hash() common.Hash {
	return common.BytesToHash(hashBytes(encodeTransaction(tx)))
}

// IsCoinbase reports the coinbase shape required by Invariant 3: zero
// inputs, exactly one output, zero signature.
func (tx *Transaction) IsCoinbase() bool {
	if len(tx.Unsigned.Inputs) != 0 {
		return false
	}
	if len(tx.Unsigned.FixedOutputs)+len(tx.GeneratedOutputs) != 1 {
		return false
	}
	if len(tx.InputSignatures) != 1 {
		return false
	}
	return tx.InputSignatures[0] == nil || isZeroSignature(tx.InputSignatures[0])
}

func isZeroSignature(sig Signature) bool {
	for _, b := range sig {
		if b != 0 {
			return false
		}
	}
	return true
}

// NewCoinbaseTransaction builds the shape-1 coinbase transaction awarding
// reward to a single output.
func NewCoinbaseTransaction(networkID params.NetworkID, reward TxOutput) *Transaction {
	return &Transaction{
		Unsigned: UnsignedTransaction{
			NetworkID:    networkID,
			GasAmount:    0,
			GasPrice:     big.NewInt(0),
			Inputs:       nil,
			FixedOutputs: []TxOutput{reward},
		},
		InputSignatures: []Signature{make(Signature, common.HashLength)},
	}
}

// AllOutputs returns FixedOutputs followed by GeneratedOutputs, the order
// used by checkOutputStats/checkOutputNum.
func (tx *Transaction) AllOutputs() []TxOutput {
	out := make([]TxOutput, 0, len(tx.Unsigned.FixedOutputs)+len(tx.GeneratedOutputs))
	out = append(out, tx.Unsigned.FixedOutputs...)
	out = append(out, tx.GeneratedOutputs...)
	return out
}
