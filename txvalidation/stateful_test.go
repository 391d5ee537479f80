package txvalidation

import (
	"math/big"
	"testing"

	"github.com/shardflow/shardflow-node/blockchain/state"
	"github.com/shardflow/shardflow-node/blockchain/types"
	"github.com/shardflow/shardflow-node/common"
	"github.com/shardflow/shardflow-node/crypto"
	"github.com/shardflow/shardflow-node/params"
	"github.com/shardflow/shardflow-node/storage/database"
)

func newTestWorldState(t *testing.T) *state.WorldState {
	t.Helper()
	dir := t.TempDir()
	db, err := database.NewLDBDatabase(dir, 16, 16)
	if err != nil {
		t.Fatalf("NewLDBDatabase: %v", err)
	}
	t.Cleanup(db.Close)
	return state.NewWorldState(state.NewCachingDB(db))
}

// p2pkhTransfer builds a 1-input/2-output P2PKH transfer spending `spent`
// and signs it, returning the tx plus the world state it expects to run
// against (with the spent output already present).
func p2pkhTransfer(t *testing.T, gasAmount uint64, spentAmount int64, outAmounts [2]int64, lockTimeMs int64) (*types.Transaction, *state.WorldState) {
	t.Helper()
	pub, priv, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	pubKeyHash := common.BytesToHash(crypto.Hash256(pub))
	ref := types.AssetOutputRef{Key: common.HexToHash("0x01")}

	ws := newTestWorldState(t)
	ws.AddAsset(ref, types.AssetOutput{
		Amount:       big.NewInt(spentAmount),
		LockupScript: types.P2PKHLockup(pubKeyHash),
		LockTimeMs:   lockTimeMs,
	})

	u := types.UnsignedTransaction{
		Version:   CurrentTxVersion,
		NetworkID: params.Devnet,
		GasAmount: gasAmount,
		GasPrice:  big.NewInt(1),
		Inputs: []types.TxInput{
			{OutputRef: ref, UnlockScript: types.UnlockP2PKH(types.PublicKey(pub))},
		},
		FixedOutputs: []types.TxOutput{
			{Amount: big.NewInt(outAmounts[0]), LockupScript: types.P2PKHLockup(common.HexToHash("0xb1"))},
			{Amount: big.NewInt(outAmounts[1]), LockupScript: types.P2PKHLockup(common.HexToHash("0xb2"))},
		},
	}
	sig, err := crypto.Sign(priv, u.Hash().Bytes())
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	tx := &types.Transaction{Unsigned: u, InputSignatures: []types.Signature{sig}}
	return tx, ws
}

func TestCheckStatefulTransferHitsExactGasVector(t *testing.T) {
	// ALF balance must hold: in == out + gasAmount*gasPrice, so a
	// gasAmount of exactly minimalGas (14060) at gasPrice 1 needs
	// spentAmount = outSum + 14060.
	tx, ws := p2pkhTransfer(t, params.MinimalGas, 1_014_060, [2]int64{500_000, 500_000}, 0)

	gasUsed, status, ioErr := CheckStateful(tx, ws, 1000)
	if ioErr != nil {
		t.Fatalf("unexpected IOError: %v", ioErr)
	}
	if status != nil {
		t.Fatalf("unexpected rejection: %v", status)
	}
	if gasUsed != 14060 {
		t.Fatalf("expected gasUsed=14060, got %d", gasUsed)
	}
}

func TestCheckStatefulTimeLockedRejected(t *testing.T) {
	tx, ws := p2pkhTransfer(t, params.MinimalGas, 1_014_060, [2]int64{500_000, 500_000}, 10_000)

	_, status, ioErr := CheckStateful(tx, ws, 1000)
	if ioErr != nil {
		t.Fatalf("unexpected IOError: %v", ioErr)
	}
	if status == nil || status.Reason != types.TimeLockedTx {
		t.Fatalf("expected TimeLockedTx, got %v", status)
	}
}

func TestCheckStatefulWrongSignatureRejected(t *testing.T) {
	tx, ws := p2pkhTransfer(t, params.MinimalGas, 1_014_060, [2]int64{500_000, 500_000}, 0)
	tx.InputSignatures[0][0] ^= 0xff

	_, status, ioErr := CheckStateful(tx, ws, 1000)
	if ioErr != nil {
		t.Fatalf("unexpected IOError: %v", ioErr)
	}
	if status == nil || status.Reason != types.InvalidSignature {
		t.Fatalf("expected InvalidSignature, got %v", status)
	}
}

func TestCheckStatefulImbalancedAlfRejected(t *testing.T) {
	tx, ws := p2pkhTransfer(t, params.MinimalGas, 1_014_060, [2]int64{500_000, 600_000}, 0)

	_, status, ioErr := CheckStateful(tx, ws, 1000)
	if ioErr != nil {
		t.Fatalf("unexpected IOError: %v", ioErr)
	}
	if status == nil || status.Reason != types.InvalidAlfBalance {
		t.Fatalf("expected InvalidAlfBalance, got %v", status)
	}
}

func TestCheckStatefulP2MPKHInvalidOrderingRejected(t *testing.T) {
	pub0, _, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	pub1, _, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	pubKeys := []types.PublicKey{types.PublicKey(pub0), types.PublicKey(pub1)}
	ref := types.AssetOutputRef{Key: common.HexToHash("0x02")}

	ws := newTestWorldState(t)
	ws.AddAsset(ref, types.AssetOutput{
		Amount:       big.NewInt(1_014_060),
		LockupScript: types.P2MPKHLockup(pubKeys, 2),
	})

	// Entries name the same two signers as a valid 2-of-2 unlock would,
	// but out of the strictly increasing index order verifyP2MPKH
	// requires — this must be rejected on ordering alone, before any
	// signature is even checked.
	u := types.UnsignedTransaction{
		Version:   CurrentTxVersion,
		NetworkID: params.Devnet,
		GasAmount: params.MinimalGas,
		GasPrice:  big.NewInt(1),
		Inputs: []types.TxInput{
			{OutputRef: ref, UnlockScript: types.UnlockP2MPKH([]types.P2MPKHEntry{
				{PubKey: pubKeys[1], Index: 1},
				{PubKey: pubKeys[0], Index: 0},
			})},
		},
		FixedOutputs: []types.TxOutput{
			{Amount: big.NewInt(500_000), LockupScript: types.P2PKHLockup(common.HexToHash("0xb1"))},
			{Amount: big.NewInt(500_000), LockupScript: types.P2PKHLockup(common.HexToHash("0xb2"))},
		},
	}
	tx := &types.Transaction{
		Unsigned:        u,
		InputSignatures: []types.Signature{make(types.Signature, 64), make(types.Signature, 64)},
	}

	_, status, ioErr := CheckStateful(tx, ws, 1000)
	if ioErr != nil {
		t.Fatalf("unexpected IOError: %v", ioErr)
	}
	if status == nil || status.Reason != types.InvalidP2mpkhUnlockScript {
		t.Fatalf("expected InvalidP2mpkhUnlockScript, got %v", status)
	}
}

func TestCheckStatefulNonExistInput(t *testing.T) {
	ws := newTestWorldState(t)
	tx := &types.Transaction{
		Unsigned: types.UnsignedTransaction{
			GasAmount: params.MinimalGas,
			GasPrice:  big.NewInt(1),
			Inputs:    []types.TxInput{{OutputRef: types.AssetOutputRef{Key: common.HexToHash("0xff")}}},
		},
		InputSignatures: []types.Signature{make(types.Signature, 64)},
	}
	_, status, ioErr := CheckStateful(tx, ws, 1000)
	if ioErr != nil {
		t.Fatalf("unexpected IOError: %v", ioErr)
	}
	if status == nil || status.Reason != types.NonExistInput {
		t.Fatalf("expected NonExistInput, got %v", status)
	}
}
