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

// Package eventbus fans flowhandler.Event notifications out to
// consumers outside the node process — chain explorers, archivers,
// other shards' gateways — beyond the in-process subscriber channels
// flowhandler.Register already serves. Bus has two implementations:
// LocalBus (in-memory, for single-process/test wiring) and KafkaBus
// (a real broker, adapted from datasync/chaindatafetcher's kafka
// broker).
package eventbus

import "github.com/shardflow/shardflow-node/flowhandler"

// Bus publishes flowhandler.Event notifications under a topic name and
// lets handlers subscribe to a topic.
type Bus interface {
	Publish(topic string, ev flowhandler.Event) error
	Subscribe(topic string, handler func(flowhandler.Event)) error
	Close()
}
