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

// Package txvalidation implements the stateless and stateful transaction
// checks of spec.md §4.3: the pipeline consulted by block validation for
// every non-coinbase transaction.
package txvalidation

import (
	"math/big"

	"github.com/shardflow/shardflow-node/blockchain/types"
	"github.com/shardflow/shardflow-node/chainindex"
	"github.com/shardflow/shardflow-node/common"
	"github.com/shardflow/shardflow-node/log"
	"github.com/shardflow/shardflow-node/params"
)

var logger = log.NewModuleLogger(log.TxValidation)

// CurrentTxVersion is the only transaction wire version this node accepts.
const CurrentTxVersion = 0

func reject(reason types.TxRejectReason) *types.InvalidTxStatus {
	return types.NewInvalidTxStatus(reason)
}

// CheckStateless runs the version/networkId/shape checks of spec.md §4.3
// steps 1-7, in order, short-circuiting on the first failure. groups and
// localNetworkID describe this node's configuration.
func CheckStateless(tx *types.Transaction, groups chainindex.Groups, localNetworkID params.NetworkID) (chainindex.ChainIndex, *types.InvalidTxStatus) {
	u := &tx.Unsigned

	if u.Version != CurrentTxVersion {
		return chainindex.ChainIndex{}, reject(types.InvalidNetworkId)
	}
	if u.NetworkID != localNetworkID {
		return chainindex.ChainIndex{}, reject(types.InvalidNetworkId)
	}

	if len(u.Inputs) < 1 || len(u.Inputs) > params.MaxTxInputNum {
		return chainindex.ChainIndex{}, reject(types.TooManyInputs)
	}

	allOutputs := tx.AllOutputs()
	if len(allOutputs) < 1 || len(allOutputs) > params.MaxTxOutputNum {
		return chainindex.ChainIndex{}, reject(types.TooManyOutputs)
	}

	if u.GasAmount < params.MinimalGas || u.GasAmount > params.MaxGasPerTx {
		return chainindex.ChainIndex{}, reject(types.InvalidStartGas)
	}
	if u.GasPrice == nil || u.GasPrice.Sign() <= 0 || u.GasPrice.Cmp(params.MaxALFValue) >= 0 {
		return chainindex.ChainIndex{}, reject(types.InvalidGasPrice)
	}

	if status := checkOutputStats(allOutputs); status != nil {
		return chainindex.ChainIndex{}, status
	}

	chainIdx, status := resolveChainIndex(tx, groups)
	if status != nil {
		return chainindex.ChainIndex{}, status
	}

	if len(tx.ContractInputs) > 0 && !chainIdx.IsIntraGroup() {
		return chainindex.ChainIndex{}, reject(types.ContractInputForInterGroupTx)
	}
	if len(tx.GeneratedOutputs) > 0 && !chainIdx.IsIntraGroup() {
		return chainindex.ChainIndex{}, reject(types.GeneratedOutputForInterGroupTx)
	}

	if status := checkUniqueInputs(tx, chainIdx.IsIntraGroup()); status != nil {
		return chainindex.ChainIndex{}, status
	}

	return chainIdx, nil
}

func checkOutputStats(outputs []types.TxOutput) *types.InvalidTxStatus {
	amounts := make([]*big.Int, 0, len(outputs))
	for _, o := range outputs {
		amounts = append(amounts, o.Amount)
	}
	if _, overflow := common.SumU256(amounts...); overflow {
		return reject(types.BalanceOverFlow)
	}

	for _, o := range outputs {
		if o.Amount == nil || o.Amount.Sign() <= 0 {
			return reject(types.InvalidOutputStats)
		}
		if len(o.Tokens) > params.MaxTokenPerUtxo {
			return reject(types.InvalidOutputStats)
		}
		for _, t := range o.Tokens {
			if t.Amount == nil || t.Amount.Sign() <= 0 {
				return reject(types.InvalidOutputStats)
			}
		}
		if len(o.AdditionalData) > params.MaxOutputDataSize {
			return reject(types.OutputDataSizeExceeded)
		}
	}
	return nil
}

// resolveChainIndex implements getChainIndex: every input's hint must
// resolve to chainIndex.from; every output belongs to from (intra-group)
// or from/to (inter-group, with at least one output in `to`).
func resolveChainIndex(tx *types.Transaction, groups chainindex.Groups) (chainindex.ChainIndex, *types.InvalidTxStatus) {
	if len(tx.Unsigned.Inputs) == 0 {
		return chainindex.ChainIndex{}, reject(types.InvalidInputGroupIndex)
	}
	from := groups.GroupFromHint(tx.Unsigned.Inputs[0].OutputRef.Hint)
	for _, in := range tx.Unsigned.Inputs {
		if groups.GroupFromHint(in.OutputRef.Hint) != from {
			return chainindex.ChainIndex{}, reject(types.InvalidInputGroupIndex)
		}
	}

	outputs := tx.AllOutputs()
	groupSet := make(map[chainindex.GroupIndex]bool, 2)
	for _, o := range outputs {
		g := outputGroup(o, groups)
		groupSet[g] = true
	}

	if len(groupSet) == 1 {
		for g := range groupSet {
			return chainindex.ChainIndex{From: from, To: g}, nil
		}
	}

	if len(groupSet) == 2 {
		if !groupSet[from] {
			return chainindex.ChainIndex{}, reject(types.InvalidOutputGroupIndex)
		}
		var to chainindex.GroupIndex
		found := false
		for g := range groupSet {
			if g != from {
				to = g
				found = true
			}
		}
		if !found {
			return chainindex.ChainIndex{}, reject(types.InvalidOutputGroupIndex)
		}
		return chainindex.ChainIndex{From: from, To: to}, nil
	}

	return chainindex.ChainIndex{}, reject(types.InvalidOutputGroupIndex)
}

func outputGroup(o types.TxOutput, groups chainindex.Groups) chainindex.GroupIndex {
	switch o.LockupScript.Kind {
	case types.LockupP2PKH:
		return groups.GroupFromHash(o.LockupScript.PubKeyHash)
	case types.LockupP2SH:
		return groups.GroupFromHash(o.LockupScript.ScriptHash)
	default:
		if len(o.LockupScript.PubKeys) > 0 {
			return groups.GroupFromHash(common.BytesToHash(o.LockupScript.PubKeys[0]))
		}
		return 0
	}
}

func checkUniqueInputs(tx *types.Transaction, intraGroup bool) *types.InvalidTxStatus {
	seen := make(map[types.AssetOutputRef]bool, len(tx.Unsigned.Inputs))
	for _, in := range tx.Unsigned.Inputs {
		if seen[in.OutputRef] {
			return reject(types.TxDoubleSpending)
		}
		seen[in.OutputRef] = true
	}
	if intraGroup {
		seenContract := make(map[types.ContractOutputRef]bool, len(tx.ContractInputs))
		for _, ci := range tx.ContractInputs {
			if seenContract[ci] {
				return reject(types.TxDoubleSpending)
			}
			seenContract[ci] = true
		}
	}
	return nil
}
