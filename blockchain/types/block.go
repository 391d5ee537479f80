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

	"github.com/shardflow/shardflow-node/chainindex"
	"github.com/shardflow/shardflow-node/common"
)

// BlockHeader is the §3 BlockHeader tuple. BlockDeps has length G*G-1 in
// chainindex.Groups.DepOrder order; ParentHash is kept separate per the
// spec's "plus the parent is separate" wording.
type BlockHeader struct {
	ParentHash  common.Hash
	BlockDeps   []common.Hash
	TxsHash     common.Hash
	TimestampMs int64
	Target      *big.Int
	Nonce       uint64
}

// Hash is the header's identity, used as the DAG node key everywhere
// (chain storage, deps, parent pointers).
func (h *BlockHeader) Hash() common.Hash {
	return common.BytesToHash(hashBytes(encodeBlockHeader(h)))
}

// ChainIndex derives the header's chain coordinate from its own hash, per
// the Invariant 1 requirement `ChainIndex.fromHash(block.hash) ==
// block.chainIndex`.
func (h *BlockHeader) ChainIndex(groups chainindex.Groups) chainindex.ChainIndex {
	return groups.ChainIndexFromHash(h.Hash())
}

// Block is a non-empty ordered sequence of transactions under one header;
// Transactions[0] is always the coinbase.
type Block struct {
	Header       BlockHeader
	Transactions []*Transaction
}

// Hash delegates to the header, since the header alone identifies the
// block in the DAG (the body is authenticated separately via TxsHash).
func (b *Block) Hash() common.Hash { return b.Header.Hash() }

// ChainIndex delegates to the header.
func (b *Block) ChainIndex(groups chainindex.Groups) chainindex.ChainIndex {
	return b.Header.ChainIndex(groups)
}

// Coinbase returns the mandatory first transaction.
func (b *Block) Coinbase() *Transaction {
	if len(b.Transactions) == 0 {
		return nil
	}
	return b.Transactions[0]
}

// NonCoinbaseTransactions returns every transaction after the coinbase.
func (b *Block) NonCoinbaseTransactions() []*Transaction {
	if len(b.Transactions) <= 1 {
		return nil
	}
	return b.Transactions[1:]
}

// HashTransactions computes the Merkle-root-style commitment over
// Transactions, compared against Header.TxsHash by validateMerkleRoot.
func HashTransactions(txs []*Transaction) common.Hash {
	return common.BytesToHash(hashBytes(encodeTransactionList(txs)))
}
