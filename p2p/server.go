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

package p2p

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/pborman/uuid"
	"github.com/shardflow/shardflow-node/blockchain/types"
	"github.com/shardflow/shardflow-node/chainindex"
	"github.com/shardflow/shardflow-node/flowhandler"
	"github.com/shardflow/shardflow-node/log"
)

var logger = log.NewModuleLogger(log.P2P)

const (
	pingInterval   = 15 * time.Second
	syncBatchLimit = 128
)

// Server accepts and dials connections to other brokers, answering
// GetHeaders/GetBlocks from a FlowHandler and relaying its broadcast
// events (BlockAdded/HeaderAdded) onward to every connected peer —
// the same "single writer, fan-out reader" shape flowhandler itself
// uses internally, one level up the stack.
type Server struct {
	localID  string
	serviced []chainindex.GroupIndex
	fh       *flowhandler.FlowHandler

	listener net.Listener

	mu    sync.RWMutex
	peers map[string]*Peer

	events chan flowhandler.Event
	quit   chan struct{}
}

// NewServer constructs a Server identified by a freshly generated
// uuid, servicing the given groups against fh.
func NewServer(fh *flowhandler.FlowHandler, serviced []chainindex.GroupIndex) *Server {
	return &Server{
		localID:  uuid.New(),
		serviced: serviced,
		fh:       fh,
		peers:    make(map[string]*Peer),
		events:   make(chan flowhandler.Event, 256),
		quit:     make(chan struct{}),
	}
}

// ID returns this server's self-identifier, handed to peers during
// the Hello handshake.
func (s *Server) ID() string { return s.localID }

// Listen starts accepting inbound connections on addr and subscribes
// to fh's broadcast events so every newly accepted block/header is
// relayed to connected peers.
func (s *Server) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("p2p: listen %s: %w", addr, err)
	}
	s.listener = ln
	s.fh.Register(s.events)
	go s.relayEvents()
	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return
			default:
				logger.Warn("p2p: accept failed", "err", err)
				return
			}
		}
		go s.handleConn(conn)
	}
}

// Dial connects out to a known peer address and performs the Hello
// handshake from the dialing side.
func (s *Server) Dial(addr string) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("p2p: dial %s: %w", addr, err)
	}
	if err := WriteMessage(conn, KindHello, &HelloMsg{NodeID: s.localID, Version: 1, Serviced: s.serviced}); err != nil {
		conn.Close()
		return err
	}
	go s.handleConn(conn)
	return nil
}

func (s *Server) handleConn(conn net.Conn) {
	kind, payload, err := ReadMessage(conn)
	if err != nil {
		logger.Warn("p2p: handshake read failed", "err", err)
		conn.Close()
		return
	}

	var peerID string
	var peerServiced []chainindex.GroupIndex
	switch kind {
	case KindHello:
		hello := payload.(*HelloMsg)
		peerID, peerServiced = hello.NodeID, hello.Serviced
		if err := WriteMessage(conn, KindHelloAck, &HelloAckMsg{NodeID: s.localID, Serviced: s.serviced}); err != nil {
			conn.Close()
			return
		}
	case KindHelloAck:
		ack := payload.(*HelloAckMsg)
		peerID, peerServiced = ack.NodeID, ack.Serviced
	default:
		logger.Warn("p2p: expected handshake message, got", "kind", kind)
		conn.Close()
		return
	}

	peer := newPeer(peerID, conn, peerServiced)
	s.mu.Lock()
	s.peers[peerID] = peer
	s.mu.Unlock()
	logger.Info("p2p: peer connected", "id", peerID, "serviced", peerServiced)

	go s.pingLoop(peer)
	s.readLoop(peer)

	s.mu.Lock()
	delete(s.peers, peerID)
	s.mu.Unlock()
}

func (s *Server) pingLoop(peer *Peer) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	var nonce uint64
	for {
		select {
		case <-ticker.C:
			nonce++
			if err := peer.sendPing(nonce); err != nil {
				return
			}
		case <-s.quit:
			return
		}
	}
}

func (s *Server) readLoop(peer *Peer) {
	for {
		kind, payload, err := ReadMessage(peer.conn)
		if err != nil {
			logger.Debug("p2p: peer disconnected", "id", peer.id, "err", err)
			return
		}
		s.dispatch(peer, kind, payload)
	}
}

func (s *Server) dispatch(peer *Peer, kind Kind, payload interface{}) {
	switch kind {
	case KindPing:
		ping := payload.(*PingMsg)
		peer.send(KindPong, &PongMsg{Nonce: ping.Nonce})
	case KindPong:
		peer.onPong()
	case KindGetHeaders:
		// Headers-from-a-point sync piggybacks on GetSyncData (the
		// only chain-scoped range query FlowHandler exposes) and
		// strips each returned block down to its header.
		req := payload.(*GetHeadersMsg)
		blocks := s.fh.GetSyncData(req.Index, req.From, syncBatchLimit)
		headers := make([]*types.BlockHeader, len(blocks))
		for i, b := range blocks {
			headers[i] = &b.Header
		}
		peer.send(KindSendHeaders, &SendHeadersMsg{Index: req.Index, Headers: headers})
	case KindSendHeaders:
		msg := payload.(*SendHeadersMsg)
		for _, h := range msg.Headers {
			s.fh.AddHeader(h, msg.Index)
			peer.MarkHeader(h.Hash().Hex())
		}
	case KindGetBlocks:
		req := payload.(*GetBlocksMsg)
		blocks := s.fh.GetBlocks(req.Hashes)
		peer.send(KindSendBlocks, &SendBlocksMsg{Index: req.Index, Blocks: blocks})
	case KindSendBlocks:
		msg := payload.(*SendBlocksMsg)
		for _, b := range msg.Blocks {
			result := s.fh.AddBlock(b, msg.Index)
			if result.Accepted {
				peer.MarkBlock(b.Hash().Hex())
			}
		}
	default:
		logger.Warn("p2p: unexpected message kind after handshake", "kind", kind)
	}
}

// relayEvents forwards flowhandler's BlockAdded/HeaderAdded events to
// every connected peer that hasn't already seen that hash.
func (s *Server) relayEvents() {
	for {
		select {
		case ev := <-s.events:
			s.broadcast(ev)
		case <-s.quit:
			return
		}
	}
}

func (s *Server) broadcast(ev flowhandler.Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch ev.Kind {
	case flowhandler.BlockAdded:
		hash := ev.Block.Hash().Hex()
		for _, peer := range s.peers {
			if peer.KnowsBlock(hash) {
				continue
			}
			peer.send(KindSendBlocks, &SendBlocksMsg{Index: ev.Index, Blocks: []*types.Block{ev.Block}})
			peer.MarkBlock(hash)
		}
	case flowhandler.HeaderAdded:
		hash := ev.Header.Hash().Hex()
		for _, peer := range s.peers {
			peer.mu.Lock()
			knowsHeader := peer.knownHeaders.Has(hash)
			peer.mu.Unlock()
			if knowsHeader || peer.KnowsBlock(hash) {
				continue
			}
			peer.send(KindSendHeaders, &SendHeadersMsg{Index: ev.Index, Headers: []*types.BlockHeader{ev.Header}})
			peer.MarkHeader(hash)
		}
	}
}

// Close stops accepting connections and disconnects every peer.
func (s *Server) Close() {
	close(s.quit)
	if s.listener != nil {
		s.listener.Close()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, peer := range s.peers {
		peer.Close()
	}
}
