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

// This file implements the fixed-field binary writer every Hash() in this
// package is built over. The exact byte layout is this implementation's
// choice, not a claim about any specific network's wire encoding — see
// the "Transaction/Block hashing" Open Question resolution.
package types

import (
	"encoding/binary"
	"math/big"

	"github.com/shardflow/shardflow-node/crypto"
)

func hashBytes(b []byte) []byte {
	return crypto.Hash256(b)
}

type encoder struct {
	buf []byte
}

func (e *encoder) writeBytes(b []byte) {
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(b)))
	e.buf = append(e.buf, lenBuf[:]...)
	e.buf = append(e.buf, b...)
}

func (e *encoder) writeUint64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

func (e *encoder) writeInt64(v int64) { e.writeUint64(uint64(v)) }

func (e *encoder) writeBigInt(v *big.Int) {
	if v == nil {
		e.writeBytes(nil)
		return
	}
	e.writeBytes(v.Bytes())
}

func (e *encoder) writeHash(h [32]byte) { e.buf = append(e.buf, h[:]...) }

func encodeLockupScript(l LockupScript) []byte {
	e := &encoder{}
	e.buf = append(e.buf, byte(l.Kind))
	switch l.Kind {
	case LockupP2PKH:
		e.writeHash(l.PubKeyHash)
	case LockupP2MPKH:
		e.writeUint64(uint64(len(l.PubKeys)))
		for _, pk := range l.PubKeys {
			e.writeBytes(pk)
		}
		e.writeUint64(uint64(l.Threshold))
	case LockupP2SH:
		e.writeHash(l.ScriptHash)
	}
	return e.buf
}

func encodeTokens(tokens []TokenAmount) []byte {
	e := &encoder{}
	e.writeUint64(uint64(len(tokens)))
	for _, t := range tokens {
		e.writeHash(t.ID)
		e.writeBigInt(t.Amount)
	}
	return e.buf
}

func encodeTxOutput(o TxOutput) []byte {
	e := &encoder{}
	e.writeBigInt(o.Amount)
	e.buf = append(e.buf, encodeLockupScript(o.LockupScript)...)
	e.writeInt64(o.LockTimeMs)
	e.buf = append(e.buf, encodeTokens(o.Tokens)...)
	e.writeBytes(o.AdditionalData)
	return e.buf
}

func encodeOutputRef(r AssetOutputRef) []byte {
	e := &encoder{}
	e.writeUint64(uint64(r.Hint))
	e.writeHash(r.Key)
	return e.buf
}

func encodeUnlockScript(u UnlockScript) []byte {
	e := &encoder{}
	e.buf = append(e.buf, byte(u.Kind))
	switch u.Kind {
	case LockupP2PKH:
		e.writeBytes(u.PubKey)
	case LockupP2MPKH:
		e.writeUint64(uint64(len(u.P2MPKHEntries)))
		for _, entry := range u.P2MPKHEntries {
			e.writeBytes(entry.PubKey)
			e.writeUint64(uint64(entry.Index))
		}
	case LockupP2SH:
		e.writeBytes(u.Script)
		e.writeUint64(uint64(len(u.ScriptArgs)))
		for _, a := range u.ScriptArgs {
			e.writeBytes(a)
		}
	}
	return e.buf
}

func encodeUnsignedTransaction(u *UnsignedTransaction) []byte {
	e := &encoder{}
	e.buf = append(e.buf, u.Version)
	e.buf = append(e.buf, byte(u.NetworkID))
	if u.ScriptOpt != nil {
		e.buf = append(e.buf, 1)
		e.writeBytes(u.ScriptOpt.Bytes())
	} else {
		e.buf = append(e.buf, 0)
	}
	e.writeUint64(u.GasAmount)
	e.writeBigInt(u.GasPrice)
	e.writeUint64(uint64(len(u.Inputs)))
	for _, in := range u.Inputs {
		e.buf = append(e.buf, encodeOutputRef(in.OutputRef)...)
		e.buf = append(e.buf, encodeUnlockScript(in.UnlockScript)...)
	}
	e.writeUint64(uint64(len(u.FixedOutputs)))
	for _, o := range u.FixedOutputs {
		e.buf = append(e.buf, encodeTxOutput(o)...)
	}
	return e.buf
}

func encodeTransaction(tx *Transaction) []byte {
	e := &encoder{}
	e.buf = append(e.buf, encodeUnsignedTransaction(&tx.Unsigned)...)
	e.writeUint64(uint64(len(tx.InputSignatures)))
	for _, sig := range tx.InputSignatures {
		e.writeBytes(sig)
	}
	e.writeUint64(uint64(len(tx.ContractInputs)))
	for _, ci := range tx.ContractInputs {
		e.writeUint64(uint64(ci.Hint))
		e.writeHash(ci.Key)
	}
	e.writeUint64(uint64(len(tx.GeneratedOutputs)))
	for _, o := range tx.GeneratedOutputs {
		e.buf = append(e.buf, encodeTxOutput(o)...)
	}
	return e.buf
}

func encodeTransactionList(txs []*Transaction) []byte {
	e := &encoder{}
	e.writeUint64(uint64(len(txs)))
	for _, tx := range txs {
		h := tx.Hash()
		e.writeHash(h)
	}
	return e.buf
}

func encodeBlockHeader(h *BlockHeader) []byte {
	e := &encoder{}
	e.writeHash(h.ParentHash)
	e.writeUint64(uint64(len(h.BlockDeps)))
	for _, d := range h.BlockDeps {
		e.writeHash(d)
	}
	e.writeHash(h.TxsHash)
	e.writeInt64(h.TimestampMs)
	e.writeBigInt(h.Target)
	e.writeUint64(h.Nonce)
	return e.buf
}
