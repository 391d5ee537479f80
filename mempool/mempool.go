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

// Package mempool holds transactions that have passed
// txvalidation.CheckStateless but are not yet included in a block,
// keyed by the chain.ChainIndex they route to so PrepareBlockFlow can
// pull candidates for exactly one chain at a time (spec.md §6's
// mempool collaborator).
package mempool

import (
	"sync"

	"github.com/shardflow/shardflow-node/blockchain/types"
	"github.com/shardflow/shardflow-node/chainindex"
	"github.com/shardflow/shardflow-node/common"
	"github.com/shardflow/shardflow-node/log"
)

var logger = log.NewModuleLogger(log.Mempool)

// Pool is an in-memory, per-chain set of pending transactions.
type Pool struct {
	mu sync.RWMutex
	// txs[idx][txHash] = tx
	txs map[chainindex.ChainIndex]map[common.Hash]*types.Transaction
}

// New constructs an empty Pool.
func New() *Pool {
	return &Pool{txs: make(map[chainindex.ChainIndex]map[common.Hash]*types.Transaction)}
}

// Add inserts tx under idx, overwriting any prior entry with the same
// hash (re-adding a transaction is a no-op in substance).
func (p *Pool) Add(idx chainindex.ChainIndex, tx *types.Transaction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	bucket, ok := p.txs[idx]
	if !ok {
		bucket = make(map[common.Hash]*types.Transaction)
		p.txs[idx] = bucket
	}
	bucket[tx.Hash()] = tx
}

// Remove drops tx from idx's bucket, called once it lands in an
// accepted block.
func (p *Pool) Remove(idx chainindex.ChainIndex, tx *types.Transaction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.txs[idx], tx.Hash())
}

// CollectTransactions returns up to limit pending transactions for idx,
// in no particular order — fee-based ordering belongs to a future
// PrepareBlockFlow refinement, not to the pool itself.
func (p *Pool) CollectTransactions(idx chainindex.ChainIndex, limit int) []*types.Transaction {
	p.mu.RLock()
	defer p.mu.RUnlock()
	bucket := p.txs[idx]
	out := make([]*types.Transaction, 0, limit)
	for _, tx := range bucket {
		if len(out) >= limit {
			break
		}
		out = append(out, tx)
	}
	return out
}

// Size reports how many transactions are pending for idx.
func (p *Pool) Size(idx chainindex.ChainIndex) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.txs[idx])
}
