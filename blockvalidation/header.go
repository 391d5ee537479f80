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

// Package blockvalidation implements spec.md §4.4: the header and block
// acceptance checks run before anything is handed to flowhandler for
// insertion into BlockFlow.
package blockvalidation

import (
	"math/big"

	"github.com/shardflow/shardflow-node/blockchain/types"
	"github.com/shardflow/shardflow-node/chainindex"
	"github.com/shardflow/shardflow-node/common"
	"github.com/shardflow/shardflow-node/consensus"
	"github.com/shardflow/shardflow-node/log"
	"github.com/shardflow/shardflow-node/params"
)

var logger = log.NewModuleLogger(log.BlockValidation)

// ChainReader is the read-only view block/header validation consumes —
// satisfied by *blockflow.BlockFlow (spec.md §4.6's "only read interface
// the validators consume").
type ChainReader interface {
	HasHeader(hash common.Hash) bool
	HasBlock(hash common.Hash) bool
	ServicesGroup(g chainindex.GroupIndex) bool
	// ExpectedTarget returns the retarget algorithm's expected target for
	// a header on chain idx timestamped at headerTimestampMs, or nil if
	// idx has no chain yet (only valid for a genesis header).
	ExpectedTarget(idx chainindex.ChainIndex, headerTimestampMs int64) *big.Int
}

func headerStatus(s types.InvalidHeaderStatus) *types.InvalidHeaderStatus { return &s }

// ValidateTimeStamp implements spec.md §4.4's validateTimeStamp: a header
// may not claim to be more than an hour in the future, and (unless the
// node is syncing historical data) not more than an hour in the past.
func ValidateTimeStamp(headerTimestampMs, nowMs int64, syncing bool) *types.InvalidHeaderStatus {
	if headerTimestampMs > nowMs+params.TimestampFutureToleranceMs {
		return headerStatus(types.InvalidTimeStamp)
	}
	if !syncing && headerTimestampMs < nowMs-params.TimestampPastToleranceMs {
		return headerStatus(types.InvalidTimeStamp)
	}
	return nil
}

// ValidateHeader runs validateTimeStamp, validateWorkAmount,
// validateWorkTarget, validateParent and validateDeps in order,
// short-circuiting on the first failure.
func ValidateHeader(h *types.BlockHeader, idx chainindex.ChainIndex, reader ChainReader, nowMs int64, syncing bool) *types.InvalidHeaderStatus {
	if s := ValidateTimeStamp(h.TimestampMs, nowMs, syncing); s != nil {
		return s
	}
	if !consensus.ValidateWorkAmount(h.Hash(), h.Target) {
		return headerStatus(types.InvalidWorkAmount)
	}
	if expected := reader.ExpectedTarget(idx, h.TimestampMs); expected != nil && h.Target.Cmp(expected) != 0 {
		return headerStatus(types.InvalidWorkTarget)
	}
	if !h.ParentHash.IsZero() && !reader.HasHeader(h.ParentHash) {
		return headerStatus(types.MissingParent)
	}
	for _, dep := range h.BlockDeps {
		// A zero dep hash means that dependency chain hasn't produced a
		// block yet (blockflow.DepTips returns zero for it); nothing to
		// wait on, matching flowhandler.missingDeps's own pre-check.
		if !dep.IsZero() && !reader.HasHeader(dep) {
			return headerStatus(types.MissingDeps)
		}
	}
	return nil
}
