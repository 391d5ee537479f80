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

// Package blockflow is the aggregate of all per-(from,to) chains that
// make up the BlockFlow DAG (spec.md §4.6): the only read interface
// block/header validation and mining-template preparation consume.
package blockflow

import (
	"math/big"
	"sync"

	"github.com/shardflow/shardflow-node/blockchain/types"
	"github.com/shardflow/shardflow-node/common"
	"github.com/shardflow/shardflow-node/consensus"
	"github.com/shardflow/shardflow-node/params"
)

// headerEntry tracks one accepted header's DAG position within a single
// (from,to) chain.
type headerEntry struct {
	header *types.BlockHeader
	height int64
}

// chainState is one of the G*G per-pair append structures of spec.md
// §2's "Header Chain / Block Chain": headers keyed by hash, with parent
// links resolved to a monotonic height, plus the bodies for hashes whose
// block (not just header) has been accepted.
type chainState struct {
	mu sync.RWMutex

	headers map[common.Hash]*headerEntry
	blocks  map[common.Hash]*types.Block
	tips    map[common.Hash]bool // hashes with no known child header yet
}

func newChainState() *chainState {
	return &chainState{
		headers: make(map[common.Hash]*headerEntry),
		blocks:  make(map[common.Hash]*types.Block),
		tips:    make(map[common.Hash]bool),
	}
}

func (c *chainState) hasHeader(h common.Hash) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.headers[h]
	return ok
}

func (c *chainState) hasBlock(h common.Hash) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.blocks[h]
	return ok
}

func (c *chainState) block(h common.Hash) (*types.Block, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.blocks[h]
	return b, ok
}

func (c *chainState) header(h common.Hash) (*types.BlockHeader, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.headers[h]
	if !ok {
		return nil, false
	}
	return e.header, true
}

func (c *chainState) heightOf(h common.Hash) (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.headers[h]
	if !ok {
		return 0, false
	}
	return e.height, true
}

// addHeader inserts h, computing its height from its parent (0 for a
// genesis header with a zero ParentHash). Returns false if h is already
// known, matching spec.md §4.5's "if already exists, ignore".
func (c *chainState) addHeader(h *types.BlockHeader) bool {
	hash := h.Hash()
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.headers[hash]; ok {
		return false
	}
	height := int64(0)
	if !h.ParentHash.IsZero() {
		if parent, ok := c.headers[h.ParentHash]; ok {
			height = parent.height + 1
		}
		delete(c.tips, h.ParentHash)
	}
	c.headers[hash] = &headerEntry{header: h, height: height}
	c.tips[hash] = true
	return true
}

func (c *chainState) addBlock(b *types.Block) bool {
	hash := b.Hash()
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.blocks[hash]; ok {
		return false
	}
	c.blocks[hash] = b
	return true
}

// bestTip returns the tip with the greatest height, tie-broken by the
// hash's total order (common.Hash.Less) so every node picks the same
// chain deterministically.
func (c *chainState) bestTip() (common.Hash, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var best common.Hash
	var bestHeight int64 = -1
	found := false
	for hash := range c.tips {
		height := c.headers[hash].height
		if !found || height > bestHeight || (height == bestHeight && best.Less(hash)) {
			best, bestHeight, found = hash, height, true
		}
	}
	return best, found
}

// retargetWindow collects up to params.RetargetWindow consensus.ChainSample
// entries ending at (and including) tipHash, oldest first.
func (c *chainState) retargetWindow(tipHash common.Hash) []consensus.ChainSample {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var samples []consensus.ChainSample
	hash := tipHash
	for i := 0; i < params.RetargetWindow; i++ {
		e, ok := c.headers[hash]
		if !ok {
			break
		}
		samples = append(samples, consensus.ChainSample{TimestampMs: e.header.TimestampMs, Target: e.header.Target})
		if e.header.ParentHash.IsZero() {
			break
		}
		hash = e.header.ParentHash
	}
	// reverse to oldest-first
	for i, j := 0, len(samples)-1; i < j; i, j = i+1, j-1 {
		samples[i], samples[j] = samples[j], samples[i]
	}
	return samples
}

// expectedTarget computes the retarget-algorithm target a header
// extending this chain's current best tip must carry, or nil if the
// chain has no headers yet — the only case a genesis header's own
// target is exempt from the retarget check (blockvalidation.ChainReader's
// contract).
func (c *chainState) expectedTarget() *big.Int {
	tip, ok := c.bestTip()
	if !ok {
		return nil
	}
	height, _ := c.heightOf(tip)
	return consensus.CalcNextTarget(c.retargetWindow(tip), height+1)
}
