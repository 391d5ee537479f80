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
	"github.com/shardflow/shardflow-node/blockchain/types"
	"github.com/shardflow/shardflow-node/chainindex"
)

// EventKind tags the payload carried by an Event, mirroring the
// notifications the teacher's worker posts to its event.TypeMux
// (blockchain.ChainEvent, blockchain.ChainHeadEvent,
// blockchain.NewMinedBlockEvent in work/worker.go) — generalized here to
// the DAG-shaped notifications spec.md §4.5 lists.
type EventKind int

const (
	// BlockAdded fires once a block clears validation and is folded into
	// BlockFlow's persisted state.
	BlockAdded EventKind = iota
	// HeaderAdded fires once a header (with or without its body) is
	// recorded on its chain.
	HeaderAdded
	// BlockNotify fires for every accepted block, intended for
	// subscribers that only care about "something changed", not the
	// full BlockAdded payload.
	BlockNotify
	// BlocksLocated, SendHeaders, SyncInfo and SyncData name the replies to
	// GetBlocks, GetHeaders, GetSyncInfo and GetSyncData. FlowHandler
	// returns each reply on the query's own reply channel and broadcasts no
	// Event of these kinds.
	BlocksLocated
	SendHeaders
	SyncInfo
	SyncData
	// UpdateTemplate and MinedBlockAdded name miner notifications.
	// FlowHandler never broadcasts them: PrepareBlockFlow returns its
	// template to the caller only, and a locally mined block is announced
	// with the same BlockAdded/BlockNotify events as any other block.
	UpdateTemplate
	MinedBlockAdded
)

// Event is the single notification shape broadcast to every registered
// subscriber channel. Only the fields relevant to Kind are populated.
type Event struct {
	Kind   EventKind
	Block  *types.Block
	Header *types.BlockHeader
	Index  chainindex.ChainIndex
}
