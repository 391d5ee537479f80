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

// Package database abstracts the key-value store the rest of the node
// persists to: chain headers/bodies, the world-state commitment trie, and
// the pending buffer's durable shadow all go through one Database.
package database

import "github.com/shardflow/shardflow-node/log"

const (
	LEVELDB = "leveldb"
	BADGER  = "badger"
)

var logger = log.NewModuleLogger(log.StorageDatabase)

// Putter wraps the stand-alone Put method, the part of Batch that
// Database shares.
type Putter interface {
	Put(key []byte, value []byte) error
}

// Database is the full key-value contract every storage backend
// (goleveldb, badger) must satisfy.
type Database interface {
	Type() string
	Put(key []byte, value []byte) error
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	Delete(key []byte) error
	Close()
	NewBatch() Batch
	Meter(prefix string)
}

// Batch buffers writes for an atomic commit.
type Batch interface {
	Putter
	ValueSize() int
	Write() error
	Reset()
}

// NewTable returns a Database that transparently prefixes every key with
// prefix, giving independent logical namespaces (headers, state, pending
// buffer) over one physical store.
func NewTable(db Database, prefix string) Database {
	return &table{db: db, prefix: prefix}
}

// Config picks and opens a backend by name.
type Config struct {
	Backend string // LEVELDB or BADGER
	Dir     string
	CacheMB int
	Handles int
}

func OpenDatabase(cfg Config) (Database, error) {
	switch cfg.Backend {
	case BADGER:
		return NewBadgerDB(cfg.Dir)
	default:
		return NewLDBDatabase(cfg.Dir, cfg.CacheMB, cfg.Handles)
	}
}
