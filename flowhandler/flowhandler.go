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

// Package flowhandler implements spec.md §4.5: the single goroutine that
// owns BlockFlow and is the only writer to it. Every mutation — adding a
// header, adding a block, preparing a mining template — is a command
// struct sent over a buffered channel and handled one at a time inside
// run()'s select loop, the same actor-via-channel shape as the teacher's
// work/worker.go (self.txsCh/self.chainHeadCh feeding a single update()
// loop) and work/agent.go (a workCh/stop/returnCh-driven actor). Callers
// never touch BlockFlow directly; they only see the methods below, which
// build a command, send it, and block on its reply channel.
package flowhandler

import (
	"time"

	"github.com/shardflow/shardflow-node/blockchain/types"
	"github.com/shardflow/shardflow-node/blockflow"
	"github.com/shardflow/shardflow-node/blockvalidation"
	"github.com/shardflow/shardflow-node/chainindex"
	"github.com/shardflow/shardflow-node/common"
	"github.com/shardflow/shardflow-node/log"
	"github.com/shardflow/shardflow-node/params"
)

var logger = log.NewModuleLogger(log.FlowHandler)

// cmdQueueSize bounds the command channel; a single writer that falls
// behind applies backpressure to callers rather than growing without
// bound.
const cmdQueueSize = 256

// pendingItem is a header or a full block parked because one or more of
// its parent/deps hashes are not yet known. Exactly one of block/header
// is set; AddBlock parks blocks, AddHeader parks headers, and both are
// swept by the same promote() loop once their deps land.
type pendingItem struct {
	id          uint64
	block       *types.Block
	header      *types.BlockHeader
	index       chainindex.ChainIndex
	missingDeps map[common.Hash]bool
}

// FlowHandler is the single writer to a *blockflow.BlockFlow.
type FlowHandler struct {
	bf            *blockflow.BlockFlow
	groups        chainindex.Groups
	localNetworkID params.NetworkID

	cmdCh chan interface{}
	quit  chan struct{}

	subscribers map[chan Event]bool

	pending      map[uint64]*pendingItem
	pendingSeq   uint64
	pendingLimit int
}

// New constructs a FlowHandler over bf. Call Start to launch its
// goroutine.
func New(bf *blockflow.BlockFlow, groups chainindex.Groups, localNetworkID params.NetworkID) *FlowHandler {
	return &FlowHandler{
		bf:             bf,
		groups:         groups,
		localNetworkID: localNetworkID,
		cmdCh:          make(chan interface{}, cmdQueueSize),
		quit:           make(chan struct{}),
		subscribers:    make(map[chan Event]bool),
		pending:        make(map[uint64]*pendingItem),
		pendingLimit:   params.PendingPoolLimit,
	}
}

// SetPendingLimit overrides the pending-pool eviction bound (config's
// statusSizeLimit option) in place of the params.PendingPoolLimit
// default. Call before Start; it is not safe to change concurrently
// with a running handler.
func (fh *FlowHandler) SetPendingLimit(n int) {
	fh.pendingLimit = n
}

// Start launches the handler's single writer goroutine.
func (fh *FlowHandler) Start() {
	go fh.run()
}

// Stop shuts the handler down; pending commands already queued are
// still processed before it exits.
func (fh *FlowHandler) Stop() {
	close(fh.quit)
}

func (fh *FlowHandler) run() {
	for {
		select {
		case cmd := <-fh.cmdCh:
			fh.dispatch(cmd)
		case <-fh.quit:
			for {
				select {
				case cmd := <-fh.cmdCh:
					fh.dispatch(cmd)
				default:
					return
				}
			}
		}
	}
}

func (fh *FlowHandler) dispatch(cmd interface{}) {
	switch c := cmd.(type) {
	case addHeaderCmd:
		c.reply <- fh.handleAddHeader(c.header, c.index)
	case addBlockCmd:
		c.reply <- fh.handleAddBlock(c.block, c.index)
	case getBlocksCmd:
		c.reply <- fh.handleGetBlocks(c.hashes)
	case getHeadersCmd:
		c.reply <- fh.handleGetHeaders(c.hashes)
	case getSyncInfoCmd:
		c.reply <- fh.handleGetSyncInfo()
	case getSyncDataCmd:
		c.reply <- fh.handleGetSyncData(c.index, c.fromHash, c.limit)
	case prepareBlockFlowCmd:
		c.reply <- fh.handlePrepareBlockFlow(c.index, c.transactions)
	case registerCmd:
		fh.subscribers[c.ch] = true
	case unregisterCmd:
		delete(fh.subscribers, c.ch)
	default:
		logger.Error("flowhandler: unknown command", "type", cmd)
	}
}

func (fh *FlowHandler) broadcast(ev Event) {
	for ch := range fh.subscribers {
		select {
		case ch <- ev:
		default:
			logger.Warn("flowhandler: subscriber channel full, dropping event", "kind", ev.Kind)
		}
	}
}

// AddHeader submits a header for insertion, blocking until it is
// accepted, parked pending its deps, or rejected.
func (fh *FlowHandler) AddHeader(header *types.BlockHeader, index chainindex.ChainIndex) AddResult {
	reply := make(chan AddResult, 1)
	fh.cmdCh <- addHeaderCmd{header: header, index: index, reply: reply}
	return <-reply
}

// AddBlock submits a full block for insertion.
func (fh *FlowHandler) AddBlock(block *types.Block, index chainindex.ChainIndex) AddResult {
	reply := make(chan AddResult, 1)
	fh.cmdCh <- addBlockCmd{block: block, index: index, reply: reply}
	return <-reply
}

// GetBlocks returns whichever of hashes are currently known full blocks.
func (fh *FlowHandler) GetBlocks(hashes []common.Hash) []*types.Block {
	reply := make(chan []*types.Block, 1)
	fh.cmdCh <- getBlocksCmd{hashes: hashes, reply: reply}
	return <-reply
}

// GetHeaders returns whichever of hashes are currently known headers.
func (fh *FlowHandler) GetHeaders(hashes []common.Hash) []*types.BlockHeader {
	reply := make(chan []*types.BlockHeader, 1)
	fh.cmdCh <- getHeadersCmd{hashes: hashes, reply: reply}
	return <-reply
}

// GetSyncInfo returns this node's current best tip per serviced chain.
func (fh *FlowHandler) GetSyncInfo() map[chainindex.ChainIndex]common.Hash {
	reply := make(chan map[chainindex.ChainIndex]common.Hash, 1)
	fh.cmdCh <- getSyncInfoCmd{reply: reply}
	return <-reply
}

// GetSyncData returns up to limit blocks on chain index, starting after
// fromHash, for catching a peer's sync state up to ours.
func (fh *FlowHandler) GetSyncData(index chainindex.ChainIndex, fromHash common.Hash, limit int) []*types.Block {
	reply := make(chan []*types.Block, 1)
	fh.cmdCh <- getSyncDataCmd{index: index, fromHash: fromHash, limit: limit, reply: reply}
	return <-reply
}

// PrepareBlockFlow builds a mining template for index over the supplied
// candidate transactions.
func (fh *FlowHandler) PrepareBlockFlow(index chainindex.ChainIndex, transactions []*types.Transaction) *MiningTemplate {
	reply := make(chan *MiningTemplate, 1)
	fh.cmdCh <- prepareBlockFlowCmd{index: index, transactions: transactions, reply: reply}
	return <-reply
}

// Register subscribes ch to every Event the handler broadcasts. ch
// should be buffered; a full channel drops events rather than blocking
// the single writer.
func (fh *FlowHandler) Register(ch chan Event) {
	fh.cmdCh <- registerCmd{ch: ch}
}

// UnRegister stops ch from receiving further events.
func (fh *FlowHandler) UnRegister(ch chan Event) {
	fh.cmdCh <- unregisterCmd{ch: ch}
}

func (fh *FlowHandler) missingDeps(h *types.BlockHeader) map[common.Hash]bool {
	missing := make(map[common.Hash]bool)
	if !h.ParentHash.IsZero() && !fh.bf.HasHeader(h.ParentHash) {
		missing[h.ParentHash] = true
	}
	for _, dep := range h.BlockDeps {
		if !dep.IsZero() && !fh.bf.HasHeader(dep) {
			missing[dep] = true
		}
	}
	return missing
}

// handleAddHeader mirrors handleAddBlock's park-then-promote contract:
// a header whose deps aren't known yet is buffered rather than dropped,
// so it is retried once promote() sees the dependency land.
func (fh *FlowHandler) handleAddHeader(header *types.BlockHeader, index chainindex.ChainIndex) AddResult {
	if fh.bf.HasHeader(header.Hash()) {
		return AddResult{Accepted: true}
	}
	if missing := fh.missingDeps(header); len(missing) > 0 {
		fh.park(&pendingItem{header: header, index: index, missingDeps: missing})
		return AddResult{Pending: true}
	}
	result := fh.validateAndInsertHeader(header, index)
	if result.Accepted {
		fh.promote(header.Hash())
	}
	return result
}

func (fh *FlowHandler) validateAndInsertHeader(header *types.BlockHeader, index chainindex.ChainIndex) AddResult {
	if s := blockvalidation.ValidateHeader(header, index, fh.bf, nowMs(), false); s != nil {
		return AddResult{Rejected: s.String()}
	}
	fh.bf.AddHeader(header, index)
	fh.broadcast(Event{Kind: HeaderAdded, Header: header, Index: index})
	return AddResult{Accepted: true}
}

// handleAddBlock implements spec.md §4.5's addBlockCmd: if header/block
// deps are missing, park the block (bounded, oldest-first eviction);
// otherwise validate and, on success, insert and sweep the pending
// buffer for anything the new block unblocks.
func (fh *FlowHandler) handleAddBlock(block *types.Block, index chainindex.ChainIndex) AddResult {
	hash := block.Hash()
	if fh.bf.HasBlock(hash) {
		return AddResult{Accepted: true}
	}
	if missing := fh.missingDeps(&block.Header); len(missing) > 0 {
		fh.park(&pendingItem{block: block, index: index, missingDeps: missing})
		return AddResult{Pending: true}
	}
	return fh.validateAndInsert(block, index)
}

func (fh *FlowHandler) validateAndInsert(block *types.Block, index chainindex.ChainIndex) AddResult {
	scratch := fh.bf.GetTrie()
	status, ioErr := blockvalidation.ValidateBlock(block, index, fh.bf, scratch, fh.groups, fh.localNetworkID, nowMs(), false)
	if ioErr != nil {
		return AddResult{IOErr: ioErr}
	}
	if status != nil {
		return AddResult{Rejected: status.String()}
	}
	if err := fh.bf.AddBlock(block, index); err != nil {
		return AddResult{IOErr: err}
	}
	fh.broadcast(Event{Kind: BlockAdded, Block: block, Index: index})
	fh.broadcast(Event{Kind: BlockNotify, Block: block, Index: index})
	fh.promote(block.Hash())
	return AddResult{Accepted: true}
}

// park buffers item (a header or a block; see pendingItem) behind its
// still-missing deps, evicting the oldest parked item first once the
// pool is full — a Pending status is not a promise of eventual
// delivery.
func (fh *FlowHandler) park(item *pendingItem) {
	if len(fh.pending) >= fh.pendingLimit {
		var oldestID uint64 = ^uint64(0)
		for id := range fh.pending {
			if id < oldestID {
				oldestID = id
			}
		}
		delete(fh.pending, oldestID)
		logger.Warn("flowhandler: pending pool full, evicting oldest parked item")
	}
	fh.pendingSeq++
	item.id = fh.pendingSeq
	fh.pending[fh.pendingSeq] = item
}

// promote sweeps the pending buffer after a successful insertion: any
// parked item (header or block) whose deps are now all satisfied is
// validated and inserted in turn, which may itself unblock further
// parked items, so the sweep repeats to a fixed point.
func (fh *FlowHandler) promote(newlyAdded common.Hash) {
	frontier := []common.Hash{newlyAdded}
	for len(frontier) > 0 {
		hash := frontier[0]
		frontier = frontier[1:]

		var ready []*pendingItem
		for _, item := range fh.pending {
			delete(item.missingDeps, hash)
			if len(item.missingDeps) == 0 {
				ready = append(ready, item)
			}
		}
		for _, item := range ready {
			delete(fh.pending, item.id)
			var result AddResult
			var landed common.Hash
			if item.block != nil {
				result = fh.validateAndInsert(item.block, item.index)
				landed = item.block.Hash()
			} else {
				result = fh.validateAndInsertHeader(item.header, item.index)
				landed = item.header.Hash()
			}
			if result.Accepted {
				frontier = append(frontier, landed)
			}
		}
	}
}

func (fh *FlowHandler) handleGetBlocks(hashes []common.Hash) []*types.Block {
	out := make([]*types.Block, 0, len(hashes))
	for _, h := range hashes {
		if b, ok := fh.bf.Block(h); ok {
			out = append(out, b)
		}
	}
	return out
}

func (fh *FlowHandler) handleGetHeaders(hashes []common.Hash) []*types.BlockHeader {
	out := make([]*types.BlockHeader, 0, len(hashes))
	for _, h := range hashes {
		if hdr, ok := fh.bf.Header(h); ok {
			out = append(out, hdr)
		}
	}
	return out
}

func (fh *FlowHandler) handleGetSyncInfo() map[chainindex.ChainIndex]common.Hash {
	out := make(map[chainindex.ChainIndex]common.Hash)
	for _, idx := range fh.groups.AllChains() {
		if !fh.bf.ServicesGroup(idx.From) && !fh.bf.ServicesGroup(idx.To) {
			continue
		}
		if tip, ok := fh.bf.BestTip(idx); ok {
			out[idx] = tip
		}
	}
	return out
}

// handleGetSyncData walks back from the chain's current tip to fromHash
// (exclusive) and returns, oldest-first, the first limit blocks that
// follow fromHash.
func (fh *FlowHandler) handleGetSyncData(index chainindex.ChainIndex, fromHash common.Hash, limit int) []*types.Block {
	tip, ok := fh.bf.BestTip(index)
	if !ok {
		return nil
	}
	var chain []*types.Block
	hash := tip
	for {
		if hash == fromHash || hash.IsZero() {
			break
		}
		b, ok := fh.bf.Block(hash)
		if !ok {
			break
		}
		chain = append(chain, b)
		hash = b.Header.ParentHash
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	if len(chain) > limit {
		chain = chain[:limit]
	}
	return chain
}

func (fh *FlowHandler) handlePrepareBlockFlow(index chainindex.ChainIndex, transactions []*types.Transaction) *MiningTemplate {
	parent, _ := fh.bf.BestTip(index)
	return &MiningTemplate{
		Index:        index,
		ParentHash:   parent,
		BlockDeps:    fh.bf.DepTips(index),
		Target:       fh.bf.ExpectedTarget(index, nowMs()),
		Transactions: transactions,
	}
}

func nowMs() int64 {
	return time.Now().UnixNano() / int64(time.Millisecond)
}
