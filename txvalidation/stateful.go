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

package txvalidation

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/shardflow/shardflow-node/blockchain/state"
	"github.com/shardflow/shardflow-node/blockchain/types"
	"github.com/shardflow/shardflow-node/blockchain/vm"
	"github.com/shardflow/shardflow-node/common"
	"github.com/shardflow/shardflow-node/crypto"
	"github.com/shardflow/shardflow-node/params"
)

// CheckStateful runs spec.md §4.3's stateful checks against world (a
// caller-supplied scratch view — on any rejection the caller must discard
// it rather than Persist). headerTimestampMs is the including block's
// timestamp, the clock checkLockTime compares against. world is mutated
// only by a successful tx script; the caller still owns committing it.
//
// Returns the gas actually used (gasAmount - gasRemaining) alongside a nil
// status on success. A non-nil *types.IOError means preOutputs could not
// be resolved for a reason other than a missing key (already folded into
// NonExistInput below) — a genuine storage fault the caller should treat
// as retryable, not as tx rejection.
func CheckStateful(tx *types.Transaction, world *state.WorldState, headerTimestampMs int64) (uint64, *types.InvalidTxStatus, *types.IOError) {
	u := &tx.Unsigned

	preOutputs, ioErr := world.GetPreOutputs(tx)
	if ioErr != nil {
		if ioErr.Kind == types.KeyNotFound {
			return 0, reject(types.NonExistInput), nil
		}
		return 0, nil, ioErr
	}

	if status := checkLockTime(preOutputs, headerTimestampMs); status != nil {
		return 0, status, nil
	}

	gas := vm.NewGasBox(u.GasAmount)
	if status := chargeBaseGas(tx, gas); status != nil {
		return vm.Used(u.GasAmount, gas), status, nil
	}

	if status := checkAlfBalance(preOutputs, tx); status != nil {
		return vm.Used(u.GasAmount, gas), status, nil
	}
	if status := checkTokenBalance(preOutputs, tx); status != nil {
		return vm.Used(u.GasAmount, gas), status, nil
	}

	if u.ScriptOpt != nil {
		if status := checkTxScript(world, u.ScriptOpt, gas); status != nil {
			return vm.Used(u.GasAmount, gas), status, nil
		}
	}

	if status := checkGasAndWitnesses(tx, preOutputs, gas); status != nil {
		return vm.Used(u.GasAmount, gas), status, nil
	}

	return vm.Used(u.GasAmount, gas), nil, nil
}

func checkLockTime(preOutputs []types.AssetOutput, headerTimestampMs int64) *types.InvalidTxStatus {
	for _, o := range preOutputs {
		if o.LockTimeMs > 0 && headerTimestampMs < o.LockTimeMs {
			return reject(types.TimeLockedTx)
		}
	}
	return nil
}

// chargeBaseGas consumes the fixed per-shape costs: once per tx, once per
// input, once per output. This is the part of gasUsed that never depends
// on witness verification — for a 1-input/2-output P2PKH transfer it
// contributes txBaseGas+txInputBaseGas+2*txOutputBaseGas = 12000, leaving
// exactly p2pkUnlockGas (2060) for checkGasAndWitnesses below.
func chargeBaseGas(tx *types.Transaction, gas *vm.GasBox) *types.InvalidTxStatus {
	cost := params.TxBaseGas
	cost += params.TxInputBaseGas * uint64(len(tx.Unsigned.Inputs))
	cost += params.TxOutputBaseGas * uint64(len(tx.AllOutputs()))
	if err := gas.Consume(cost); err != nil {
		return types.NewVmFailure(types.TxScriptExeFailed, types.OutOfGas)
	}
	return nil
}

func checkAlfBalance(preOutputs []types.AssetOutput, tx *types.Transaction) *types.InvalidTxStatus {
	inAmounts := make([]*big.Int, 0, len(preOutputs))
	for _, o := range preOutputs {
		inAmounts = append(inAmounts, o.Amount)
	}
	inSum, overflow := common.SumU256(inAmounts...)
	if overflow {
		return reject(types.BalanceOverFlow)
	}

	outputs := tx.AllOutputs()
	outAmounts := make([]*big.Int, 0, len(outputs))
	for _, o := range outputs {
		outAmounts = append(outAmounts, o.Amount)
	}
	outSum, overflow := common.SumU256(outAmounts...)
	if overflow {
		return reject(types.BalanceOverFlow)
	}

	gasCost, overflow := common.MulU256(new(big.Int).SetUint64(tx.Unsigned.GasAmount), tx.Unsigned.GasPrice)
	if overflow {
		return reject(types.BalanceOverFlow)
	}
	totalOut, overflow := common.AddU256(outSum, gasCost)
	if overflow {
		return reject(types.BalanceOverFlow)
	}

	if inSum.Cmp(totalOut) != 0 {
		return reject(types.InvalidAlfBalance)
	}
	return nil
}

// checkTokenBalance requires every token id to balance exactly between
// inputs and outputs, with one exception: a tx carrying a tx script may
// mint a token id that appears only in the outputs (or in larger amount
// than the inputs carry), modeling token issuance by contract logic.
func checkTokenBalance(preOutputs []types.AssetOutput, tx *types.Transaction) *types.InvalidTxStatus {
	in := map[types.TokenId]*big.Int{}
	for _, o := range preOutputs {
		for _, t := range o.Tokens {
			if !addToken(in, t) {
				return reject(types.BalanceOverFlow)
			}
		}
	}
	out := map[types.TokenId]*big.Int{}
	for _, o := range tx.AllOutputs() {
		for _, t := range o.Tokens {
			if !addToken(out, t) {
				return reject(types.BalanceOverFlow)
			}
		}
	}

	hasScript := tx.Unsigned.ScriptOpt != nil
	for id, outAmt := range out {
		inAmt, ok := in[id]
		if !ok {
			inAmt = big.NewInt(0)
		}
		if inAmt.Cmp(outAmt) == 0 {
			continue
		}
		if hasScript && outAmt.Cmp(inAmt) > 0 {
			continue // newly issued by the tx script
		}
		return reject(types.InvalidTokenBalance)
	}
	for id, inAmt := range in {
		if _, ok := out[id]; !ok && inAmt.Sign() > 0 {
			return reject(types.InvalidTokenBalance)
		}
	}
	return nil
}

func addToken(m map[types.TokenId]*big.Int, t types.TokenAmount) bool {
	cur, ok := m[t.ID]
	if !ok {
		cur = big.NewInt(0)
	}
	sum, overflow := common.AddU256(cur, t.Amount)
	if overflow {
		return false
	}
	m[t.ID] = sum
	return true
}

func checkTxScript(world *state.WorldState, script types.Script, gas *vm.GasBox) *types.InvalidTxStatus {
	s, ok := script.(*vm.Script)
	if !ok {
		return types.NewVmFailure(types.TxScriptExeFailed, types.InvalidInstruction)
	}
	result, err := vm.ExecuteStateful(world, s, nil, nil, gas.Remaining())
	if err != nil {
		_ = gas.Consume(gas.Remaining())
		vmErr, _ := err.(types.VmError)
		return types.NewVmFailure(types.TxScriptExeFailed, vmErr)
	}
	_ = gas.Consume(result.GasUsed)
	return nil
}

// witnessGroup is one run of inputs sharing an identical (lockup script,
// unlock script) pair — spec.md §4.3's signature compression: such a run
// is verified, and its gas charged, only once.
type witnessGroup struct {
	lockup   types.LockupScript
	unlock   types.UnlockScript
	sigCount int
	sigStart int
}

func requiredSignatures(lockup types.LockupScript) int {
	switch lockup.Kind {
	case types.LockupP2PKH:
		return 1
	case types.LockupP2MPKH:
		return lockup.Threshold
	default: // LockupP2SH: a script check, not a signature
		return 0
	}
}

func fingerprintOf(lockup types.LockupScript, unlock types.UnlockScript) string {
	return fmt.Sprintf("%+v|%+v", lockup, unlock)
}

// checkGasAndWitnesses verifies every input's unlock script against its
// pre-output's lockup script, charging the corresponding unlock gas once
// per distinct (lockup, unlock) pair and requiring exactly the resulting
// total of witness signatures — neither fewer (NotEnoughSignature) nor
// more (TooManySignatures).
func checkGasAndWitnesses(tx *types.Transaction, preOutputs []types.AssetOutput, gas *vm.GasBox) *types.InvalidTxStatus {
	msg := tx.Unsigned.Hash().Bytes()

	groupIndex := make(map[string]int, len(tx.Unsigned.Inputs))
	var groups []*witnessGroup
	assign := make([]int, len(tx.Unsigned.Inputs))

	for i, in := range tx.Unsigned.Inputs {
		lockup := preOutputs[i].LockupScript
		unlock := in.UnlockScript
		fp := fingerprintOf(lockup, unlock)
		idx, ok := groupIndex[fp]
		if !ok {
			idx = len(groups)
			groupIndex[fp] = idx
			groups = append(groups, &witnessGroup{lockup: lockup, unlock: unlock, sigCount: requiredSignatures(lockup)})
		}
		assign[i] = idx
	}

	offset := 0
	for _, g := range groups {
		g.sigStart = offset
		offset += g.sigCount
	}
	if len(tx.InputSignatures) < offset {
		return reject(types.NotEnoughSignature)
	}
	if len(tx.InputSignatures) > offset {
		return reject(types.TooManySignatures)
	}

	verified := make([]bool, len(groups))
	for i := range tx.Unsigned.Inputs {
		gi := assign[i]
		if verified[gi] {
			continue
		}
		if status := verifyWitnessGroup(groups[gi], tx.InputSignatures, msg, gas); status != nil {
			return status
		}
		verified[gi] = true
	}
	return nil
}

func verifyWitnessGroup(g *witnessGroup, sigs []types.Signature, msg []byte, gas *vm.GasBox) *types.InvalidTxStatus {
	if g.lockup.Kind != g.unlock.Kind {
		switch g.lockup.Kind {
		case types.LockupP2PKH:
			return reject(types.InvalidPublicKeyHash)
		case types.LockupP2MPKH:
			return reject(types.InvalidP2mpkhUnlockScript)
		default:
			return reject(types.InvalidScriptHash)
		}
	}

	switch g.lockup.Kind {
	case types.LockupP2PKH:
		return verifyP2PKH(g, sigs, msg, gas)
	case types.LockupP2MPKH:
		return verifyP2MPKH(g, sigs, msg, gas)
	default:
		return verifyP2SH(g, gas)
	}
}

func verifyP2PKH(g *witnessGroup, sigs []types.Signature, msg []byte, gas *vm.GasBox) *types.InvalidTxStatus {
	if len(g.unlock.PubKey) == 0 {
		return reject(types.InvalidPublicKeyHash)
	}
	if !bytes.Equal(crypto.Hash256(g.unlock.PubKey), g.lockup.PubKeyHash.Bytes()) {
		return reject(types.InvalidPublicKeyHash)
	}
	sig := sigs[g.sigStart]
	if !crypto.Verify(crypto.PublicKey(g.unlock.PubKey), msg, sig) {
		return reject(types.InvalidSignature)
	}
	if err := gas.Consume(params.P2pkUnlockGas); err != nil {
		return types.NewVmFailure(types.TxScriptExeFailed, types.OutOfGas)
	}
	return nil
}

func verifyP2MPKH(g *witnessGroup, sigs []types.Signature, msg []byte, gas *vm.GasBox) *types.InvalidTxStatus {
	entries := g.unlock.P2MPKHEntries
	if len(entries) != g.lockup.Threshold {
		return reject(types.InvalidNumberOfPublicKey)
	}
	lastIndex := -1
	for _, e := range entries {
		if int(e.Index) <= lastIndex {
			return reject(types.InvalidP2mpkhUnlockScript)
		}
		lastIndex = int(e.Index)
		if int(e.Index) >= len(g.lockup.PubKeys) || !bytes.Equal(g.lockup.PubKeys[e.Index], e.PubKey) {
			return reject(types.InvalidP2mpkhUnlockScript)
		}
	}
	for i, e := range entries {
		sig := sigs[g.sigStart+i]
		if !crypto.Verify(crypto.PublicKey(e.PubKey), msg, sig) {
			return reject(types.InvalidSignature)
		}
	}
	if err := gas.Consume(params.P2pkUnlockGas * uint64(len(entries))); err != nil {
		return types.NewVmFailure(types.TxScriptExeFailed, types.OutOfGas)
	}
	return nil
}

func verifyP2SH(g *witnessGroup, gas *vm.GasBox) *types.InvalidTxStatus {
	if !bytes.Equal(crypto.Hash256(g.unlock.Script), g.lockup.ScriptHash.Bytes()) {
		return reject(types.InvalidScriptHash)
	}

	scriptBytesCost := params.ScriptBytesGasStep * uint64(len(g.unlock.Script))
	hashCost := params.P2shHashGas * uint64((len(g.unlock.Script)+31)/32)
	if err := gas.Consume(scriptBytesCost + hashCost + params.P2shCallGas); err != nil {
		return types.NewVmFailure(types.TxScriptExeFailed, types.OutOfGas)
	}

	script, err := vm.DecodeScript(g.unlock.Script)
	if err != nil {
		return types.NewVmFailure(types.UnlockScriptExeFailed, types.InvalidInstruction)
	}
	fields := make([]uint64, 0, len(g.unlock.ScriptArgs))
	for _, a := range g.unlock.ScriptArgs {
		fields = append(fields, common.BytesToHash(a).Big().Uint64())
	}
	result, err := vm.ExecuteStateless(script, fields, nil, gas.Remaining())
	if err != nil {
		_ = gas.Consume(gas.Remaining())
		vmErr, _ := err.(types.VmError)
		return types.NewVmFailure(types.UnlockScriptExeFailed, vmErr)
	}
	if err := gas.Consume(result.GasUsed); err != nil {
		return types.NewVmFailure(types.UnlockScriptExeFailed, types.OutOfGas)
	}
	if result.ReturnValue == 0 {
		return types.NewVmFailure(types.UnlockScriptExeFailed, types.AssertionFailed)
	}
	return nil
}
