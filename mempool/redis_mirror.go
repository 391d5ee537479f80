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

package mempool

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math/big"

	"github.com/go-redis/redis/v7"
	"github.com/shardflow/shardflow-node/blockchain/types"
	"github.com/shardflow/shardflow-node/blockchain/vm"
	"github.com/shardflow/shardflow-node/chainindex"
	"github.com/shardflow/shardflow-node/params"
)

// RedisMirror gives every broker process in a cluster visibility into
// transactions a peer broker accepted into its local Pool, by mirroring
// Add/Remove into a shared Redis set keyed per chain. It wraps a Pool
// rather than replacing it: local reads still hit the in-memory Pool,
// so a Redis outage degrades to single-broker visibility instead of
// taking transaction intake down. Encoding is gob, the same disk-serde
// choice blockchain/state/serde.go makes for non-consensus-critical
// data — distinct from the fixed hashing encoder in
// blockchain/types/encoding.go, which Transaction.Hash() is built over.
type RedisMirror struct {
	local  *Pool
	client *redis.Client
}

// NewRedisMirror wraps local with a mirror onto the Redis instance at
// addr.
func NewRedisMirror(local *Pool, addr string) *RedisMirror {
	client := redis.NewClient(&redis.Options{Addr: addr})
	return &RedisMirror{local: local, client: client}
}

func redisKey(idx chainindex.ChainIndex) string {
	return fmt.Sprintf("mempool:%d:%d", idx.From, idx.To)
}

// wireTransaction is Transaction's gob-safe shadow: ScriptOpt is an
// interface whose concrete type (vm.Script) lives below blockchain/types
// in the import graph, so it is carried here as the same raw encoding
// vm.DecodeScript/Script.Bytes() use for P2SH unlock scripts rather than
// as a gob-registered interface value.
type wireTransaction struct {
	Unsigned struct {
		Version      byte
		NetworkID    byte
		HasScript    bool
		ScriptBytes  []byte
		GasAmount    uint64
		GasPrice     []byte
		Inputs       []types.TxInput
		FixedOutputs []types.TxOutput
	}
	InputSignatures  []types.Signature
	ContractInputs   []types.ContractOutputRef
	GeneratedOutputs []types.TxOutput
}

func encodeTx(tx *types.Transaction) ([]byte, error) {
	w := wireTransaction{
		InputSignatures:  tx.InputSignatures,
		ContractInputs:   tx.ContractInputs,
		GeneratedOutputs: tx.GeneratedOutputs,
	}
	w.Unsigned.Version = tx.Unsigned.Version
	w.Unsigned.NetworkID = byte(tx.Unsigned.NetworkID)
	w.Unsigned.GasAmount = tx.Unsigned.GasAmount
	if tx.Unsigned.GasPrice != nil {
		w.Unsigned.GasPrice = tx.Unsigned.GasPrice.Bytes()
	}
	w.Unsigned.Inputs = tx.Unsigned.Inputs
	w.Unsigned.FixedOutputs = tx.Unsigned.FixedOutputs
	if tx.Unsigned.ScriptOpt != nil {
		w.Unsigned.HasScript = true
		w.Unsigned.ScriptBytes = tx.Unsigned.ScriptOpt.Bytes()
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(w); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeTx(raw []byte) (*types.Transaction, error) {
	var w wireTransaction
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&w); err != nil {
		return nil, err
	}
	tx := &types.Transaction{
		InputSignatures:  w.InputSignatures,
		ContractInputs:   w.ContractInputs,
		GeneratedOutputs: w.GeneratedOutputs,
	}
	tx.Unsigned.Version = w.Unsigned.Version
	tx.Unsigned.NetworkID = params.NetworkID(w.Unsigned.NetworkID)
	tx.Unsigned.GasAmount = w.Unsigned.GasAmount
	tx.Unsigned.GasPrice = new(big.Int).SetBytes(w.Unsigned.GasPrice)
	tx.Unsigned.Inputs = w.Unsigned.Inputs
	tx.Unsigned.FixedOutputs = w.Unsigned.FixedOutputs
	if w.Unsigned.HasScript {
		script, err := vm.DecodeScript(w.Unsigned.ScriptBytes)
		if err != nil {
			return nil, err
		}
		tx.Unsigned.ScriptOpt = script
	}
	return tx, nil
}

// Add inserts tx locally and mirrors its encoded bytes into Redis so
// other brokers subscribed to the same key can pick it up.
func (m *RedisMirror) Add(idx chainindex.ChainIndex, tx *types.Transaction) error {
	m.local.Add(idx, tx)
	encoded, err := encodeTx(tx)
	if err != nil {
		return err
	}
	return m.client.SAdd(redisKey(idx), encoded).Err()
}

// Remove drops tx locally and from the shared Redis set.
func (m *RedisMirror) Remove(idx chainindex.ChainIndex, tx *types.Transaction) error {
	m.local.Remove(idx, tx)
	encoded, err := encodeTx(tx)
	if err != nil {
		return err
	}
	return m.client.SRem(redisKey(idx), encoded).Err()
}

// Sync pulls any transactions mirrored by other brokers into the local
// pool, decoding each member of idx's Redis set.
func (m *RedisMirror) Sync(idx chainindex.ChainIndex) error {
	members, err := m.client.SMembers(redisKey(idx)).Result()
	if err != nil {
		return err
	}
	for _, raw := range members {
		tx, err := decodeTx([]byte(raw))
		if err != nil {
			logger.Warn("mempool: skipping undecodable mirrored transaction", "err", err)
			continue
		}
		m.local.Add(idx, tx)
	}
	return nil
}

// Close releases the Redis client's connections.
func (m *RedisMirror) Close() error {
	return m.client.Close()
}
