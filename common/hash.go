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

package common

import (
	"encoding/hex"
	"math/big"
)

// HashLength is the length in bytes of a Hash, the opaque 256-bit digest
// spec.md §3 uses to identify blocks, headers and outputs.
const HashLength = 32

// Hash is a 256-bit opaque digest. Its zero value is the all-zero hash,
// used as the coinbase signature placeholder and as the "no parent" marker
// for a genesis header.
type Hash [HashLength]byte

// BytesToHash right-aligns b into a Hash, truncating from the left if b is
// longer than HashLength, matching the teacher's common.BytesToHash.
func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
	return h
}

func (h Hash) Bytes() []byte { return h[:] }

func (h Hash) Hex() string { return "0x" + hex.EncodeToString(h[:]) }

func (h Hash) String() string { return h.Hex() }

func (h Hash) IsZero() bool { return h == (Hash{}) }

// Big interprets the hash as a big-endian unsigned integer, the form
// spec.md §3 uses for the PoW comparison BigUInt(header.hash) <= target.
func (h Hash) Big() *big.Int {
	return new(big.Int).SetBytes(h[:])
}

// Less provides a total order over hashes, used wherever the spec asks for
// a canonical ordering (e.g. tie-breaking equal-weight tips).
func (h Hash) Less(other Hash) bool {
	for i := range h {
		if h[i] != other[i] {
			return h[i] < other[i]
		}
	}
	return false
}

// getShardIndex implements CacheKey so a Hash can key a sharded LRU cache
// (see cache.go) without contending on a single shard's lock.
func (h Hash) getShardIndex(shardMask int) int {
	return int(h[HashLength-1]) & shardMask
}

func HexToHash(s string) Hash {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	b, _ := hex.DecodeString(s)
	return BytesToHash(b)
}
