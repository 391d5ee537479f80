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
	"encoding/binary"
	"math/big"

	"github.com/shardflow/shardflow-node/common"
)

// TokenId names a non-ALF asset carried inside an AssetOutput's Tokens.
type TokenId common.Hash

// TokenAmount pairs a TokenId with the amount of it an output carries.
type TokenAmount struct {
	ID     TokenId
	Amount *big.Int
}

// AssetOutput is a single spendable UTXO: an ALF amount, a spending
// condition, an optional time lock, a set of token sub-balances, and
// arbitrary application data.
type AssetOutput struct {
	Amount         *big.Int
	LockupScript   LockupScript
	LockTimeMs     int64
	Tokens         []TokenAmount
	AdditionalData []byte
}

// ContractOutput is an output owned by a contract rather than directly
// spendable by a signature; it participates in the same state root as
// AssetOutput but is looked up by ContractOutputRef.
type ContractOutput struct {
	Amount         *big.Int
	ContractID     common.Hash
	Tokens         []TokenAmount
	AdditionalData []byte
}

// OutputRef identifies one output (asset or contract) in the global UTXO
// set. Hint encodes the owning group so group routing never needs a state
// lookup; Key is the output's unique identifier.
type OutputRef struct {
	Hint uint32
	Key  common.Hash
}

// AssetOutputRef is an OutputRef known to name an AssetOutput.
type AssetOutputRef OutputRef

// ContractOutputRef is an OutputRef known to name a ContractOutput.
type ContractOutputRef OutputRef

// TxInput spends exactly one AssetOutput by reference, authorizing the
// spend with UnlockScript.
type TxInput struct {
	OutputRef    AssetOutputRef
	UnlockScript UnlockScript
}

// TxOutput is the common shape of an output as it appears inside a
// transaction, before it is committed to world state and assigned a key.
type TxOutput struct {
	Amount         *big.Int
	LockupScript   LockupScript
	LockTimeMs     int64
	Tokens         []TokenAmount
	AdditionalData []byte
}

func (o TxOutput) toAssetOutput() AssetOutput {
	return AssetOutput(o)
}

// groupHash returns the hash whose low bits determine which group a
// LockupScript routes to: its public-key hash for P2PKH, its script hash
// for P2SH, and the hash of its first signer's public key for P2MPKH —
// mirroring txvalidation's outputGroup.
func (l LockupScript) groupHash() common.Hash {
	switch l.Kind {
	case LockupP2PKH:
		return l.PubKeyHash
	case LockupP2SH:
		return l.ScriptHash
	case LockupP2MPKH:
		if len(l.PubKeys) == 0 {
			return common.Hash{}
		}
		return common.BytesToHash(hashBytes(l.PubKeys[0]))
	default:
		return common.Hash{}
	}
}

// ScriptHint derives an OutputRef.Hint from a LockupScript: the low 4
// bytes of groupHash, the same low-bits a chainindex.Groups computes a
// GroupIndex from, so GroupFromHint(out.LockupScript.ScriptHint())
// always agrees with GroupFromHash(out.LockupScript.groupHash()).
func (l LockupScript) ScriptHint() uint32 {
	b := l.groupHash()
	return binary.BigEndian.Uint32(b[common.HashLength-4:])
}

// NewOutputKey derives the unique key an output gets once committed to
// world state: a tx's outputs are keyed by hashing the owning
// transaction's hash together with the output's index, so two outputs of
// the same transaction never collide.
func NewOutputKey(txHash common.Hash, index int) common.Hash {
	var idxBuf [8]byte
	binary.BigEndian.PutUint64(idxBuf[:], uint64(index))
	return common.BytesToHash(hashBytes(append(txHash.Bytes(), idxBuf[:]...)))
}
