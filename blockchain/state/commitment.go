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

// This file computes the state root WorldState commits to: a sorted-leaf
// Merkle tree over each of the three logical maps (asset outputs, contract
// outputs, contract states), folded into one root. It is a deliberate
// simplification of the Merkle-Patricia trie a production node would keep
// incrementally updated node-by-node; the tree here is recomputed in full
// on every persist() instead of being updated path-by-path. Functionally
// equivalent for the commitment invariant in spec.md §4.1, just not
// incremental — see DESIGN.md.
package state

import (
	"sort"

	"github.com/shardflow/shardflow-node/common"
	"github.com/shardflow/shardflow-node/crypto"
)

func leafHash(key, value []byte) common.Hash {
	return common.BytesToHash(crypto.Hash256(key, value))
}

// merkleRoot builds a binary hash tree over leaves, duplicating the last
// leaf of an odd-length level so every level halves cleanly. An empty leaf
// set commits to the zero hash.
func merkleRoot(leaves []common.Hash) common.Hash {
	if len(leaves) == 0 {
		return common.Hash{}
	}
	level := make([]common.Hash, len(leaves))
	copy(level, leaves)

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([]common.Hash, len(level)/2)
		for i := 0; i < len(next); i++ {
			l, r := level[2*i], level[2*i+1]
			next[i] = common.BytesToHash(crypto.Hash256(l.Bytes(), r.Bytes()))
		}
		level = next
	}
	return level[0]
}

// sortedLeaves hashes each (key,value) pair and returns them ordered by key
// so the resulting root is independent of map iteration order.
func sortedLeaves(entries map[string][]byte) []common.Hash {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	leaves := make([]common.Hash, len(keys))
	for i, k := range keys {
		leaves[i] = leafHash([]byte(k), entries[k])
	}
	return leaves
}

// stateRoot folds the three sub-commitments spec.md §3's WorldState
// describes ("all three participate in a single state root") into one
// hash.
func stateRoot(assets, contractOutputs, contractStates map[string][]byte) common.Hash {
	return merkleRoot([]common.Hash{
		merkleRoot(sortedLeaves(assets)),
		merkleRoot(sortedLeaves(contractOutputs)),
		merkleRoot(sortedLeaves(contractStates)),
	})
}
