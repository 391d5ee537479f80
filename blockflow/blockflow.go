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

package blockflow

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/shardflow/shardflow-node/blockchain/state"
	"github.com/shardflow/shardflow-node/blockchain/types"
	"github.com/shardflow/shardflow-node/chainindex"
	"github.com/shardflow/shardflow-node/common"
	"github.com/shardflow/shardflow-node/log"
)

var logger = log.NewModuleLogger(log.BlockFlow)

// BlockFlow is the full G*G matrix of per-(from,to) chains plus the one
// persisted WorldState they all fold onto, matching spec.md §4.6: the
// single object flowhandler owns and the only thing block/header
// validation reads from. It satisfies blockvalidation.ChainReader.
type BlockFlow struct {
	groups    chainindex.Groups
	serviced  map[chainindex.GroupIndex]bool
	chains    [][]*chainState // chains[from][to]
	persisted *state.WorldState

	mu sync.RWMutex
}

// New builds an empty BlockFlow for the given sharding degree. servicedGroups
// lists the groups this node holds outputs/state for — blocks outside that
// set are still tracked (for DAG completeness) but never mined.
func New(groups chainindex.Groups, servicedGroups []chainindex.GroupIndex, db *state.CachingDB) *BlockFlow {
	serviced := make(map[chainindex.GroupIndex]bool, len(servicedGroups))
	for _, g := range servicedGroups {
		serviced[g] = true
	}
	chains := make([][]*chainState, groups)
	for from := range chains {
		chains[from] = make([]*chainState, groups)
		for to := range chains[from] {
			chains[from][to] = newChainState()
		}
	}
	return &BlockFlow{
		groups:    groups,
		serviced:  serviced,
		chains:    chains,
		persisted: state.NewWorldState(db),
	}
}

func (bf *BlockFlow) chainFor(idx chainindex.ChainIndex) *chainState {
	return bf.chains[idx.From][idx.To]
}

// ServicesGroup reports whether this node holds state for g.
func (bf *BlockFlow) ServicesGroup(g chainindex.GroupIndex) bool {
	return bf.serviced[g]
}

// HasHeader reports whether hash has been accepted as a header on any
// of the G*G chains.
func (bf *BlockFlow) HasHeader(hash common.Hash) bool {
	bf.mu.RLock()
	defer bf.mu.RUnlock()
	for _, row := range bf.chains {
		for _, c := range row {
			if c.hasHeader(hash) {
				return true
			}
		}
	}
	return false
}

// HasBlock reports whether hash has been accepted as a full block on
// any of the G*G chains.
func (bf *BlockFlow) HasBlock(hash common.Hash) bool {
	bf.mu.RLock()
	defer bf.mu.RUnlock()
	for _, row := range bf.chains {
		for _, c := range row {
			if c.hasBlock(hash) {
				return true
			}
		}
	}
	return false
}

// Block looks up a previously accepted full block by hash across every
// chain.
func (bf *BlockFlow) Block(hash common.Hash) (*types.Block, bool) {
	bf.mu.RLock()
	defer bf.mu.RUnlock()
	for _, row := range bf.chains {
		for _, c := range row {
			if b, ok := c.block(hash); ok {
				return b, true
			}
		}
	}
	return nil, false
}

// Header looks up a previously accepted header by hash across every
// chain.
func (bf *BlockFlow) Header(hash common.Hash) (*types.BlockHeader, bool) {
	bf.mu.RLock()
	defer bf.mu.RUnlock()
	for _, row := range bf.chains {
		for _, c := range row {
			if h, ok := c.header(hash); ok {
				return h, true
			}
		}
	}
	return nil, false
}

// ExpectedTarget implements blockvalidation.ChainReader by delegating to
// the per-chain retarget window of idx.
func (bf *BlockFlow) ExpectedTarget(idx chainindex.ChainIndex, _ int64) *big.Int {
	bf.mu.RLock()
	defer bf.mu.RUnlock()
	return bf.chainFor(idx).expectedTarget()
}

// AddHeader records h as accepted on chain idx. Returns false if it was
// already known.
func (bf *BlockFlow) AddHeader(h *types.BlockHeader, idx chainindex.ChainIndex) bool {
	bf.mu.Lock()
	defer bf.mu.Unlock()
	return bf.chainFor(idx).addHeader(h)
}

// AddBlock records b's header (if new) and body on chain idx, then folds
// its transactions onto the persisted WorldState. The WorldState
// mutation is intentionally simple in this implementation: since every
// chain ultimately commits to the same single Merkle-committed state
// (state/commitment.go's sortedLeaves tree, not a per-chain fork), a
// block is applied directly to bf.persisted once accepted rather than
// merged from a per-chain scratch overlay.
func (bf *BlockFlow) AddBlock(b *types.Block, idx chainindex.ChainIndex) error {
	bf.mu.Lock()
	defer bf.mu.Unlock()

	bf.chainFor(idx).addHeader(&b.Header)
	bf.chainFor(idx).addBlock(b)

	for _, tx := range b.Transactions {
		for _, in := range tx.Unsigned.Inputs {
			bf.persisted.RemoveAsset(in.OutputRef)
		}
		outHash := tx.Hash()
		for i, out := range tx.AllOutputs() {
			ref := types.AssetOutputRef{Hint: out.LockupScript.ScriptHint(), Key: types.NewOutputKey(outHash, i)}
			bf.persisted.AddAsset(ref, out)
		}
	}
	if _, err := bf.persisted.Persist(); err != nil {
		return fmt.Errorf("blockflow: persist block %s: %w", b.Hash(), err)
	}
	return nil
}

// GetTrie returns a scratch WorldState view suitable for validating a
// candidate block: a copy-on-write overlay of the chain's currently
// persisted state.
func (bf *BlockFlow) GetTrie() *state.WorldState {
	bf.mu.RLock()
	defer bf.mu.RUnlock()
	return bf.persisted.Cached()
}

// BestTip returns the current highest-height accepted header on chain
// idx, used by PrepareBlockFlow to set a mining template's ParentHash.
func (bf *BlockFlow) BestTip(idx chainindex.ChainIndex) (common.Hash, bool) {
	bf.mu.RLock()
	defer bf.mu.RUnlock()
	return bf.chainFor(idx).bestTip()
}

// DepTips returns, in chainindex.Groups.DepOrder for idx, the current
// best-tip hash of every chain idx must depend on. A mining template's
// BlockDeps is built directly from this.
func (bf *BlockFlow) DepTips(idx chainindex.ChainIndex) []common.Hash {
	bf.mu.RLock()
	defer bf.mu.RUnlock()
	order := bf.groups.DepOrder(idx)
	deps := make([]common.Hash, len(order))
	for i, depIdx := range order {
		tip, _ := bf.chainFor(depIdx).bestTip()
		deps[i] = tip
	}
	return deps
}
