// Copyright 2014 The go-ethereum Authors
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

// Package crypto backs the two primitives spec.md §1 assumes but leaves
// unimplemented: a 256-bit hash and a Schnorr/Ed-style signature scheme.
package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/sha3"
)

// Hash256 is the 256-bit digest function every commitment in
// blockchain/types is built over.
func Hash256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}

// PrivateKey is an Ed25519 signing key, the concrete instantiation of the
// assumed Schnorr/Ed-style scheme.
type PrivateKey = ed25519.PrivateKey

// PublicKey is the matching verification key.
type PublicKey = ed25519.PublicKey

// GenerateKey produces a fresh signing keypair.
func GenerateKey() (PublicKey, PrivateKey, error) {
	return ed25519.GenerateKey(rand.Reader)
}

// Sign signs msg (already the tx/unsigned hash) with priv.
func Sign(priv PrivateKey, msg []byte) ([]byte, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, errors.New("crypto: invalid private key size")
	}
	return ed25519.Sign(priv, msg), nil
}

// Verify checks sig against msg under pub.
func Verify(pub PublicKey, msg, sig []byte) bool {
	if len(pub) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(pub, msg, sig)
}
