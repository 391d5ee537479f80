// Copyright 2015 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package params

import (
	"math/big"
	"time"
)

const (
	// Gas schedule: tx-level base costs

	TxBaseGas       uint64 = 1000 // Once per transaction, covers header/signature bookkeeping.         // G_txbase
	TxInputBaseGas  uint64 = 2000 // Per TxInput, covers preOutput lookup and spend bookkeeping.         // G_txinput
	TxOutputBaseGas uint64 = 4500 // Per output (fixed or generated), covers state-root insertion.      // G_txoutput

	// Gas schedule: unlock-script costs

	P2pkUnlockGas      uint64 = 2060 // Per P2PKH/P2MPKH signature verified.                             // G_p2pkunlock
	P2shHashGas        uint64 = 60   // Per 32 bytes hashed to check a P2SH script hash.                 // G_p2shhash
	P2shCallGas        uint64 = 200  // Flat overhead of invoking a P2SH unlock script.                  // G_p2shcall
	ScriptBytesGasStep uint64 = 1    // Per byte of an executed P2SH script's bytecode.                  // G_scriptbyte

	// Gas bounds

	MinimalGas  uint64 = 14060      // Smallest gasAmount accepted by checkGasBound.
	MaxGasPerTx uint64 = 62_500_000 // Largest gasAmount accepted by checkGasBound.

	// VM limits

	FrameStackMaxSize = 1024 // Maximum depth of the VM's frame stack.

	// Output / transaction shape caps

	MaxTxInputNum     = 256  // checkInputNum upper bound.
	MaxTxOutputNum    = 256  // checkOutputNum upper bound (fixed + generated).
	MaxTokenPerUtxo   = 64   // checkOutputStats: max distinct tokens carried by one output.
	MaxOutputDataSize = 4096 // checkOutputStats: max bytes of AssetOutput.AdditionalData.

	// Header/block timing

	TimestampFutureToleranceMs = int64(time.Hour / time.Millisecond) // validateTimeStamp future skew.
	TimestampPastToleranceMs   = int64(time.Hour / time.Millisecond) // validateTimeStamp past skew (non-syncing).

	// Difficulty retarget

	RetargetWindow        = 90            // Number of preceding blocks a chain's retarget averages over.
	TargetBlockTimeMs     = int64(64_000) // Desired average block interval, matching the teacher's order-of-magnitude epoch constant.
	MaxTargetAdjustFactor = 4             // Retarget clamps the new target within [old/4, old*4].

	// PendingPoolLimit bounds how many header/block-deps-incomplete items
	// flowhandler parks waiting for their dependencies; the oldest parked
	// item is evicted first once the pool is full.
	PendingPoolLimit = 1024
)

var (
	// MaxALFValue bounds every ALF amount (ref §4.3 checkGasBound / checkOutputStats).
	MaxALFValue = new(big.Int).Mul(big.NewInt(1_000_000_000), big.NewInt(1_000_000_000_000_000_000))

	// MaxMiningTarget is the easiest allowed PoW target (softest difficulty floor).
	MaxMiningTarget = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	// GenesisTarget seeds new chains before any retarget has run.
	GenesisTarget = new(big.Int).Rsh(MaxMiningTarget, 8)
)

// NetworkID distinguishes otherwise-identical transactions/blocks signed for
// different networks (checkNetworkId).
type NetworkID byte

const (
	Mainnet NetworkID = iota
	Testnet
	Devnet
)

func (n NetworkID) String() string {
	switch n {
	case Mainnet:
		return "mainnet"
	case Testnet:
		return "testnet"
	case Devnet:
		return "devnet"
	default:
		return "unknown"
	}
}
