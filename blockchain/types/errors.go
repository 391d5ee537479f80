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

import "fmt"

// IOError is the storage-failure taxonomy: transient or systemic, never
// fatal to the process. Callers log it and may retry.
type IOError struct {
	Kind IOErrorKind
	Err  error
}

type IOErrorKind int

const (
	KeyNotFound IOErrorKind = iota
	Serde
	IOOther
)

func (e *IOError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("io error (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("io error (%s)", e.Kind)
}

func (k IOErrorKind) String() string {
	switch k {
	case KeyNotFound:
		return "KeyNotFound"
	case Serde:
		return "Serde"
	default:
		return "Other"
	}
}

func NewKeyNotFoundError(err error) *IOError { return &IOError{Kind: KeyNotFound, Err: err} }
func NewSerdeError(err error) *IOError        { return &IOError{Kind: Serde, Err: err} }
func NewIOOtherError(err error) *IOError      { return &IOError{Kind: IOOther, Err: err} }

// InvalidHeaderStatus enumerates the reasons a header may be rejected.
type InvalidHeaderStatus int

const (
	InvalidTimeStamp InvalidHeaderStatus = iota
	InvalidWorkAmount
	InvalidWorkTarget
	MissingParent
	MissingDeps
	InvalidGroup
)

func (s InvalidHeaderStatus) String() string {
	switch s {
	case InvalidTimeStamp:
		return "InvalidTimeStamp"
	case InvalidWorkAmount:
		return "InvalidWorkAmount"
	case InvalidWorkTarget:
		return "InvalidWorkTarget"
	case MissingParent:
		return "MissingParent"
	case MissingDeps:
		return "MissingDeps"
	case InvalidGroup:
		return "InvalidGroup"
	default:
		return "Unknown"
	}
}

func (s InvalidHeaderStatus) Error() string { return s.String() }

// InvalidBlockStatus extends InvalidHeaderStatus with block-body reasons.
type InvalidBlockStatus int

const (
	// The header-level reasons are re-declared here (rather than embedding
	// InvalidHeaderStatus) so a block rejection always carries one flat
	// status value, matching how §7 enumerates it as a single taxonomy.
	BlockInvalidTimeStamp InvalidBlockStatus = iota
	BlockInvalidWorkAmount
	BlockInvalidWorkTarget
	BlockMissingParent
	BlockMissingDeps
	BlockInvalidGroup
	EmptyTransactionList
	InvalidCoinbase
	InvalidMerkleRoot
	DoubleSpent
	InvalidCoins
)

func (s InvalidBlockStatus) String() string {
	switch s {
	case BlockInvalidTimeStamp:
		return "InvalidTimeStamp"
	case BlockInvalidWorkAmount:
		return "InvalidWorkAmount"
	case BlockInvalidWorkTarget:
		return "InvalidWorkTarget"
	case BlockMissingParent:
		return "MissingParent"
	case BlockMissingDeps:
		return "MissingDeps"
	case BlockInvalidGroup:
		return "InvalidGroup"
	case EmptyTransactionList:
		return "EmptyTransactionList"
	case InvalidCoinbase:
		return "InvalidCoinbase"
	case InvalidMerkleRoot:
		return "InvalidMerkleRoot"
	case DoubleSpent:
		return "DoubleSpent"
	case InvalidCoins:
		return "InvalidCoins"
	default:
		return "Unknown"
	}
}

func (s InvalidBlockStatus) Error() string { return s.String() }

// FromHeaderStatus lifts a header rejection reason into the block taxonomy,
// used when ValidateBlock runs the header-level checks first.
func FromHeaderStatus(h InvalidHeaderStatus) InvalidBlockStatus {
	switch h {
	case InvalidTimeStamp:
		return BlockInvalidTimeStamp
	case InvalidWorkAmount:
		return BlockInvalidWorkAmount
	case InvalidWorkTarget:
		return BlockInvalidWorkTarget
	case MissingParent:
		return BlockMissingParent
	case MissingDeps:
		return BlockMissingDeps
	case InvalidGroup:
		return BlockInvalidGroup
	default:
		return BlockInvalidGroup
	}
}

// VmError is the reason a script halted; surfaced wrapped inside
// TxScriptExeFailed/UnlockScriptExeFailed.
type VmError int

const (
	OutOfGas VmError = iota
	StackOverflow
	StackUnderflow
	AssertionFailed
	TypeMismatch
	InvalidInstruction
)

func (e VmError) String() string {
	switch e {
	case OutOfGas:
		return "OutOfGas"
	case StackOverflow:
		return "StackOverflow"
	case StackUnderflow:
		return "StackUnderflow"
	case AssertionFailed:
		return "AssertionFailed"
	case TypeMismatch:
		return "TypeMismatch"
	case InvalidInstruction:
		return "InvalidInstruction"
	default:
		return "Unknown"
	}
}

func (e VmError) Error() string { return e.String() }

// InvalidTxStatus enumerates every rejection reason the transaction
// validation pipeline (stateless + stateful) can produce.
type InvalidTxStatus struct {
	Reason TxRejectReason
	// VmErr is set only when Reason is TxScriptExeFailed or
	// UnlockScriptExeFailed.
	VmErr VmError
}

type TxRejectReason int

const (
	InvalidNetworkId TxRejectReason = iota
	TooManyInputs
	ContractInputForInterGroupTx
	NoOutputs
	TooManyOutputs
	GeneratedOutputForInterGroupTx
	InvalidStartGas
	InvalidGasPrice
	BalanceOverFlow
	InvalidOutputStats
	InvalidInputGroupIndex
	InvalidOutputGroupIndex
	TxDoubleSpending
	OutputDataSizeExceeded
	NonExistInput
	TimeLockedTx
	InvalidAlfBalance
	InvalidTokenBalance
	NotEnoughSignature
	TooManySignatures
	InvalidPublicKeyHash
	InvalidSignature
	InvalidNumberOfPublicKey
	InvalidP2mpkhUnlockScript
	InvalidScriptHash
	UnlockScriptExeFailed
	TxScriptExeFailed
)

var txRejectReasonNames = map[TxRejectReason]string{
	InvalidNetworkId:               "InvalidNetworkId",
	TooManyInputs:                  "TooManyInputs",
	ContractInputForInterGroupTx:   "ContractInputForInterGroupTx",
	NoOutputs:                      "NoOutputs",
	TooManyOutputs:                 "TooManyOutputs",
	GeneratedOutputForInterGroupTx: "GeneratedOutputForInterGroupTx",
	InvalidStartGas:                "InvalidStartGas",
	InvalidGasPrice:                "InvalidGasPrice",
	BalanceOverFlow:                "BalanceOverFlow",
	InvalidOutputStats:             "InvalidOutputStats",
	InvalidInputGroupIndex:         "InvalidInputGroupIndex",
	InvalidOutputGroupIndex:        "InvalidOutputGroupIndex",
	TxDoubleSpending:               "TxDoubleSpending",
	OutputDataSizeExceeded:         "OutputDataSizeExceeded",
	NonExistInput:                  "NonExistInput",
	TimeLockedTx:                   "TimeLockedTx",
	InvalidAlfBalance:              "InvalidAlfBalance",
	InvalidTokenBalance:            "InvalidTokenBalance",
	NotEnoughSignature:             "NotEnoughSignature",
	TooManySignatures:              "TooManySignatures",
	InvalidPublicKeyHash:           "InvalidPublicKeyHash",
	InvalidSignature:               "InvalidSignature",
	InvalidNumberOfPublicKey:       "InvalidNumberOfPublicKey",
	InvalidP2mpkhUnlockScript:      "InvalidP2mpkhUnlockScript",
	InvalidScriptHash:              "InvalidScriptHash",
	UnlockScriptExeFailed:          "UnlockScriptExeFailed",
	TxScriptExeFailed:              "TxScriptExeFailed",
}

func (r TxRejectReason) String() string {
	if s, ok := txRejectReasonNames[r]; ok {
		return s
	}
	return "Unknown"
}

func NewInvalidTxStatus(reason TxRejectReason) *InvalidTxStatus {
	return &InvalidTxStatus{Reason: reason}
}

func NewVmFailure(reason TxRejectReason, vmErr VmError) *InvalidTxStatus {
	return &InvalidTxStatus{Reason: reason, VmErr: vmErr}
}

func (e *InvalidTxStatus) Error() string {
	if e.Reason == TxScriptExeFailed || e.Reason == UnlockScriptExeFailed {
		return fmt.Sprintf("%s(%s)", e.Reason, e.VmErr)
	}
	return e.Reason.String()
}
