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

	"github.com/aristanetworks/goarista/monotime"
	"github.com/shardflow/shardflow-node/chainindex"
	set "gopkg.in/fatih/set.v0"
)

const (
	maxKnownBlocks = 1024
	maxKnownHeaders = 4096
)

// Peer wraps one connection, tracking what it already has so the
// broker doesn't re-announce blocks/headers it knows the peer holds,
// the same role node/sc/bridgepeer.go's knownBlocks/knownTxs sets play.
type Peer struct {
	id       string
	conn     net.Conn
	serviced []chainindex.GroupIndex

	mu          sync.Mutex
	knownBlocks *set.Set
	knownHeaders *set.Set

	lastPingSent time.Time
	rtt          time.Duration

	writeMu sync.Mutex
}

func newPeer(id string, conn net.Conn, serviced []chainindex.GroupIndex) *Peer {
	return &Peer{
		id:           id,
		conn:         conn,
		serviced:     serviced,
		knownBlocks:  set.New(),
		knownHeaders: set.New(),
	}
}

// ID returns the remote node's self-reported identifier.
func (p *Peer) ID() string { return p.id }

// RTT returns the round-trip time measured by the most recently
// answered Ping, or zero if none has completed yet.
func (p *Peer) RTT() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rtt
}

// MarkBlock records that hash is now known to the peer, evicting an
// arbitrary entry (the set is unordered) once the set is at capacity
// (mirrors maxKnownBlocks in node/sc/bridgepeer.go).
func (p *Peer) MarkBlock(hash string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.knownBlocks.Size() >= maxKnownBlocks {
		p.knownBlocks.Pop()
	}
	p.knownBlocks.Add(hash)
}

func (p *Peer) KnowsBlock(hash string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.knownBlocks.Has(hash)
}

func (p *Peer) MarkHeader(hash string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.knownHeaders.Size() >= maxKnownHeaders {
		p.knownHeaders.Pop()
	}
	p.knownHeaders.Add(hash)
}

// send serializes writes so concurrent goroutines (the read loop's
// replies and the server's broadcast fan-out) never interleave frames
// on the same connection.
func (p *Peer) send(kind Kind, payload interface{}) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return WriteMessage(p.conn, kind, payload)
}

// sendPing records the send time using a monotonic clock (wall-clock
// adjustments during NTP sync must not corrupt an RTT measurement) and
// transmits a Ping carrying a nonce the reply must echo.
func (p *Peer) sendPing(nonce uint64) error {
	p.mu.Lock()
	p.lastPingSent = monotime.Now()
	p.mu.Unlock()
	return p.send(KindPing, &PingMsg{Nonce: nonce})
}

func (p *Peer) onPong() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastPingSent.IsZero() {
		return
	}
	p.rtt = monotime.Now().Sub(p.lastPingSent)
}

func (p *Peer) Close() error {
	return p.conn.Close()
}

func (p *Peer) String() string {
	return fmt.Sprintf("peer{%s}", p.id)
}
