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

package types

import "github.com/shardflow/shardflow-node/common"

// LockupKind tags which spending condition an AssetOutput's LockupScript
// enforces.
type LockupKind byte

const (
	LockupP2PKH LockupKind = iota
	LockupP2MPKH
	LockupP2SH
)

// PublicKey is an opaque verifying key, deliberately not tied to a specific
// curve: §1 assumes "a Schnorr/Ed-style signature scheme" as a primitive and
// leaves the concrete curve to the crypto package.
type PublicKey []byte

// Signature is an opaque signature over Hash(unsigned).
type Signature []byte

// LockupScript is the spending condition attached to an AssetOutput.
// Exactly one of the three fields is populated, selected by Kind.
type LockupScript struct {
	Kind LockupKind

	// P2PKH
	PubKeyHash common.Hash

	// P2MPKH
	PubKeys   []PublicKey
	Threshold int

	// P2SH
	ScriptHash common.Hash
}

// P2PKHLockup builds a pay-to-public-key-hash lockup script.
func P2PKHLockup(pubKeyHash common.Hash) LockupScript {
	return LockupScript{Kind: LockupP2PKH, PubKeyHash: pubKeyHash}
}

// P2MPKHLockup builds an m-of-n multisig lockup script. threshold ("m") must
// be <= len(pubKeys), enforced by checkGasAndWitnesses at validation time.
func P2MPKHLockup(pubKeys []PublicKey, threshold int) LockupScript {
	return LockupScript{Kind: LockupP2MPKH, PubKeys: pubKeys, Threshold: threshold}
}

// P2SHLockup builds a pay-to-script-hash lockup script.
func P2SHLockup(scriptHash common.Hash) LockupScript {
	return LockupScript{Kind: LockupP2SH, ScriptHash: scriptHash}
}

// UnlockScript is the witness data an input supplies to satisfy its
// preOutput's LockupScript. Exactly one of the fields is populated,
// matching the Kind of the preOutput it unlocks.
type UnlockScript struct {
	Kind LockupKind

	// P2PKH
	PubKey PublicKey

	// P2MPKH: one (pubKey, index into lockup.PubKeys) pair per signature
	// supplied, in strictly increasing index order.
	P2MPKHEntries []P2MPKHEntry

	// P2SH
	Script     []byte
	ScriptArgs [][]byte
}

// P2MPKHEntry names one signer participating in an m-of-n unlock.
type P2MPKHEntry struct {
	PubKey PublicKey
	Index  int
}

func UnlockP2PKH(pubKey PublicKey) UnlockScript {
	return UnlockScript{Kind: LockupP2PKH, PubKey: pubKey}
}

func UnlockP2MPKH(entries []P2MPKHEntry) UnlockScript {
	return UnlockScript{Kind: LockupP2MPKH, P2MPKHEntries: entries}
}

func UnlockP2SH(script []byte, args [][]byte) UnlockScript {
	return UnlockScript{Kind: LockupP2SH, Script: script, ScriptArgs: args}
}
