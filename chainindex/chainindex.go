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

// Package chainindex defines the shard coordinates of the BlockFlow DAG:
// GroupIndex names one shard group, ChainIndex names one of the G*G
// directed chains between groups.
package chainindex

import (
	"fmt"

	"github.com/shardflow/shardflow-node/common"
)

// GroupIndex is a shard group number in [0, G).
type GroupIndex int

// ChainIndex identifies one of the G*G chains of the BlockFlow DAG: the
// chain carrying blocks moving value (or headers) from group From to
// group To. From == To is an intra-group chain.
type ChainIndex struct {
	From GroupIndex
	To   GroupIndex
}

func (c ChainIndex) String() string {
	return fmt.Sprintf("%d->%d", c.From, c.To)
}

// IsIntraGroup reports whether this chain never crosses a shard boundary.
func (c ChainIndex) IsIntraGroup() bool { return c.From == c.To }

// Groups holds the shard count G agreed on by the network; every
// GroupIndex used against a Groups value must be in [0, G).
type Groups int

// GroupFromHash maps the low bits of a hash (the "script hint" for
// addresses, the hash itself for blocks) to a GroupIndex, per spec.md §3's
// ChainIndex.fromHash invariant.
func (g Groups) GroupFromHash(h common.Hash) GroupIndex {
	b := h.Bytes()
	last := uint32(b[len(b)-4])<<24 | uint32(b[len(b)-3])<<16 | uint32(b[len(b)-2])<<8 | uint32(b[len(b)-1])
	return GroupIndex(int(last) % int(g))
}

// GroupFromHint maps an AssetOutputRef's hint (spec.md §3 OutputRef) to a
// GroupIndex using the same low-bits rule as GroupFromHash, so an output's
// group can be recovered without touching its full key.
func (g Groups) GroupFromHint(hint uint32) GroupIndex {
	return GroupIndex(int(hint) % int(g))
}

// ChainIndexFromHash derives the ChainIndex a block belongs to from its own
// hash: it always returns the intra-group chain
// From==To==GroupFromHash(blockHash). The To of an inter-group block is
// not recovered here.
func (g Groups) ChainIndexFromHash(blockHash common.Hash) ChainIndex {
	idx := g.GroupFromHash(blockHash)
	return ChainIndex{From: idx, To: idx}
}

// AllChains returns every ChainIndex for a G-group network, in the
// canonical row-major order also used for header dependency ordering (see
// DepOrder).
func (g Groups) AllChains() []ChainIndex {
	out := make([]ChainIndex, 0, int(g)*int(g))
	for from := GroupIndex(0); int(from) < int(g); from++ {
		for to := GroupIndex(0); int(to) < int(g); to++ {
			out = append(out, ChainIndex{From: from, To: to})
		}
	}
	return out
}

// DepOrder returns the canonical order of the G*G-1 chains a header of
// chain `self` must carry a dependency hash for: row-major over all
// (from,to) pairs, fastest-varying `to` within each `from`, skipping
// `self`. spec.md §9 flags the exact canonical order as an external,
// consensus-critical contract; this fixed order is this implementation's
// choice of that contract, not a claim about any specific network's wire
// encoding.
func (g Groups) DepOrder(self ChainIndex) []ChainIndex {
	out := make([]ChainIndex, 0, int(g)*int(g)-1)
	for _, ci := range g.AllChains() {
		if ci == self {
			continue
		}
		out = append(out, ci)
	}
	return out
}
