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

package eventbus

import (
	"sync"

	"github.com/shardflow/shardflow-node/flowhandler"
	"github.com/shardflow/shardflow-node/log"
)

var logger = log.NewModuleLogger(log.EventBus)

// LocalBus is an in-process Bus: every Publish call runs the topic's
// handlers synchronously, in the caller's goroutine. Suitable for a
// single-process node or tests; a multi-process deployment wants
// KafkaBus instead.
type LocalBus struct {
	mu       sync.RWMutex
	handlers map[string][]func(flowhandler.Event)
}

// NewLocalBus constructs an empty LocalBus.
func NewLocalBus() *LocalBus {
	return &LocalBus{handlers: make(map[string][]func(flowhandler.Event))}
}

func (b *LocalBus) Publish(topic string, ev flowhandler.Event) error {
	b.mu.RLock()
	handlers := append([]func(flowhandler.Event){}, b.handlers[topic]...)
	b.mu.RUnlock()
	for _, h := range handlers {
		h(ev)
	}
	return nil
}

func (b *LocalBus) Subscribe(topic string, handler func(flowhandler.Event)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], handler)
	return nil
}

func (b *LocalBus) Close() {}
