// Copyright 2018 The klaytn Authors
// This file is part of the klaytn library.
//
// The klaytn library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The klaytn library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the klaytn library. If not, see <http://www.gnu.org/licenses/>.

package log

// ModuleName identifies the subsystem a logger belongs to, mirroring
// klaytn's log.StorageDatabase / log.Common module tags.
type ModuleName string

const (
	Common           ModuleName = "common"
	StorageDatabase  ModuleName = "storage/database"
	BlockchainState  ModuleName = "blockchain/state"
	BlockchainVM     ModuleName = "blockchain/vm"
	TxValidation     ModuleName = "txvalidation"
	BlockValidation  ModuleName = "blockvalidation"
	Consensus        ModuleName = "consensus"
	BlockFlow        ModuleName = "blockflow"
	FlowHandler      ModuleName = "flowhandler"
	EventBus         ModuleName = "eventbus"
	Mempool          ModuleName = "mempool"
	P2P              ModuleName = "p2p"
	Archive          ModuleName = "archive"
	Config           ModuleName = "config"
	Metrics          ModuleName = "metrics"
	CMD              ModuleName = "cmd"
)

// NewModuleLogger returns a Logger pre-tagged with the module's name, so
// every line it emits is attributable without the caller repeating it.
func NewModuleLogger(module ModuleName) Logger {
	return New("module", string(module))
}
