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

package flowhandler

import (
	"math/big"

	"github.com/shardflow/shardflow-node/blockchain/types"
	"github.com/shardflow/shardflow-node/chainindex"
	"github.com/shardflow/shardflow-node/common"
)

// AddResult is the outcome of submitting a header or block: exactly one
// of Rejected/IOErr is set on failure, Pending is set if the item was
// parked awaiting deps, and Accepted means it is now part of BlockFlow.
type AddResult struct {
	Accepted bool
	Pending  bool
	Rejected string // human-readable rejection reason, empty unless rejected
	IOErr    error
}

// addHeaderCmd is spec.md §4.5's addHeaderCmd: submit a header alone
// (e.g. during header-first sync).
type addHeaderCmd struct {
	header *types.BlockHeader
	index  chainindex.ChainIndex
	reply  chan AddResult
}

// addBlockCmd is spec.md §4.5's addBlockCmd: submit a full block.
type addBlockCmd struct {
	block *types.Block
	index chainindex.ChainIndex
	reply chan AddResult
}

// getBlocksCmd answers which of the requested hashes are known full
// blocks.
type getBlocksCmd struct {
	hashes []common.Hash
	reply  chan []*types.Block
}

// getHeadersCmd answers which of the requested hashes are known headers.
type getHeadersCmd struct {
	hashes []common.Hash
	reply  chan []*types.BlockHeader
}

// getSyncInfoCmd asks for this node's current best-tip summary, one per
// chain this node services.
type getSyncInfoCmd struct {
	reply chan map[chainindex.ChainIndex]common.Hash
}

// getSyncDataCmd asks for the blocks a peer is missing, given the chain
// tip it last reported.
type getSyncDataCmd struct {
	index    chainindex.ChainIndex
	fromHash common.Hash
	limit    int
	reply    chan []*types.Block
}

// MiningTemplate is the shape PrepareBlockFlow hands to a miner: a
// header ready to have its nonce/timestamp searched, plus the
// transactions it commits to.
type MiningTemplate struct {
	Index        chainindex.ChainIndex
	ParentHash   common.Hash
	BlockDeps    []common.Hash
	Target       *big.Int
	Transactions []*types.Transaction
}

// prepareBlockFlowCmd is spec.md §4.5's prepareBlockFlowCmd: build a
// mining template for index from the current BlockFlow tips plus
// whatever transactions the caller supplies (mempool selection happens
// above this layer).
type prepareBlockFlowCmd struct {
	index        chainindex.ChainIndex
	transactions []*types.Transaction
	reply        chan *MiningTemplate
}

// registerCmd/unregisterCmd subscribe/unsubscribe an Event channel,
// mirroring the teacher's worker.register/unregister over Agent.
type registerCmd struct {
	ch chan Event
}

type unregisterCmd struct {
	ch chan Event
}
