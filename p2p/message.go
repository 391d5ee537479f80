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

// Package p2p is a minimal peer wire protocol for exchanging headers,
// blocks and sync bookkeeping between broker processes, grounded on
// node/sc/bridgepeer.go's peer/known-set management and the
// length-prefixed framing networks/p2p uses underneath devp2p. It is
// deliberately far smaller than devp2p: no discovery, no RLPx
// handshake/encryption, just a TCP connection doing a length-prefixed
// gob frame exchange, suitable for a private or already-trusted set of
// broker addresses.
package p2p

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"

	"github.com/shardflow/shardflow-node/blockchain/types"
	"github.com/shardflow/shardflow-node/chainindex"
	"github.com/shardflow/shardflow-node/common"
)

// Kind identifies a message's payload type, so the reader knows which
// concrete struct to gob-decode into.
type Kind uint8

const (
	KindHello Kind = iota
	KindHelloAck
	KindPing
	KindPong
	KindGetHeaders
	KindSendHeaders
	KindGetBlocks
	KindSendBlocks
)

func (k Kind) String() string {
	switch k {
	case KindHello:
		return "Hello"
	case KindHelloAck:
		return "HelloAck"
	case KindPing:
		return "Ping"
	case KindPong:
		return "Pong"
	case KindGetHeaders:
		return "GetHeaders"
	case KindSendHeaders:
		return "SendHeaders"
	case KindGetBlocks:
		return "GetBlocks"
	case KindSendBlocks:
		return "SendBlocks"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// HelloMsg is the first message either side of a connection sends,
// identifying itself and the chain groups it services.
type HelloMsg struct {
	NodeID    string
	Version   uint32
	Serviced  []chainindex.GroupIndex
	ListenTCP string
}

// HelloAckMsg completes the handshake, mirroring the peer's own Hello.
type HelloAckMsg struct {
	NodeID   string
	Serviced []chainindex.GroupIndex
}

// PingMsg/PongMsg carry a nonce the sender can match against its own
// send time to measure round-trip latency (see peer.go's use of
// aristanetworks/goarista/monotime for the clock source).
type PingMsg struct{ Nonce uint64 }
type PongMsg struct{ Nonce uint64 }

// GetHeadersMsg requests the headers for idx that follow From (the zero
// hash means "from genesis"); Server answers with at most syncBatchLimit
// of them.
type GetHeadersMsg struct {
	Index chainindex.ChainIndex
	From  common.Hash
}

type SendHeadersMsg struct {
	Index   chainindex.ChainIndex
	Headers []*types.BlockHeader
}

type GetBlocksMsg struct {
	Index  chainindex.ChainIndex
	Hashes []common.Hash
}

type SendBlocksMsg struct {
	Index  chainindex.ChainIndex
	Blocks []*types.Block
}

// Message is one frame on the wire: a Kind tag plus its gob-encoded
// payload, already separated so the reader can dispatch on Kind before
// decoding Payload into the matching concrete type.
type Message struct {
	Kind    Kind
	Payload interface{}
}

// WriteMessage frames msg as [4-byte big-endian length][1-byte
// kind][gob payload] and writes it to w.
func WriteMessage(w io.Writer, kind Kind, payload interface{}) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(payload); err != nil {
		return fmt.Errorf("p2p: encode %s: %w", kind, err)
	}
	body := buf.Bytes()

	header := make([]byte, 5)
	binary.BigEndian.PutUint32(header[0:4], uint32(len(body)))
	header[4] = byte(kind)
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("p2p: write header: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("p2p: write body: %w", err)
	}
	return nil
}

// ReadMessage reads one frame from r and decodes its payload into the
// struct matching its Kind, returning both.
func ReadMessage(r io.Reader) (Kind, interface{}, error) {
	header := make([]byte, 5)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, nil, err
	}
	length := binary.BigEndian.Uint32(header[0:4])
	kind := Kind(header[4])

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return 0, nil, fmt.Errorf("p2p: read body: %w", err)
	}

	payload, err := emptyPayload(kind)
	if err != nil {
		return 0, nil, err
	}
	if err := gob.NewDecoder(bytes.NewReader(body)).Decode(payload); err != nil {
		return 0, nil, fmt.Errorf("p2p: decode %s: %w", kind, err)
	}
	return kind, payload, nil
}

func emptyPayload(kind Kind) (interface{}, error) {
	switch kind {
	case KindHello:
		return &HelloMsg{}, nil
	case KindHelloAck:
		return &HelloAckMsg{}, nil
	case KindPing:
		return &PingMsg{}, nil
	case KindPong:
		return &PongMsg{}, nil
	case KindGetHeaders:
		return &GetHeadersMsg{}, nil
	case KindSendHeaders:
		return &SendHeadersMsg{}, nil
	case KindGetBlocks:
		return &GetBlocksMsg{}, nil
	case KindSendBlocks:
		return &SendBlocksMsg{}, nil
	default:
		return nil, fmt.Errorf("p2p: unknown message kind %d", uint8(kind))
	}
}
