package state

import (
	"math/big"
	"testing"

	"github.com/shardflow/shardflow-node/blockchain/types"
	"github.com/shardflow/shardflow-node/common"
	"github.com/shardflow/shardflow-node/storage/database"
)

func newTestCachingDB(t *testing.T) *CachingDB {
	t.Helper()
	dir := t.TempDir()
	db, err := database.NewLDBDatabase(dir, 16, 16)
	if err != nil {
		t.Fatalf("NewLDBDatabase: %v", err)
	}
	t.Cleanup(db.Close)
	return NewCachingDB(db)
}

func sampleAsset(amount int64) types.AssetOutput {
	return types.AssetOutput{
		Amount:       big.NewInt(amount),
		LockupScript: types.P2PKHLockup(common.HexToHash("0xaa")),
	}
}

func TestAddGetRemoveAssetRoundTrip(t *testing.T) {
	ws := NewWorldState(newTestCachingDB(t))
	ref := types.AssetOutputRef{Key: common.HexToHash("0x01")}

	if _, ok, _ := ws.GetAsset(ref); ok {
		t.Fatal("expected absent before add")
	}

	ws.AddAsset(ref, sampleAsset(100))
	out, ok, err := ws.GetAsset(ref)
	if err != nil || !ok {
		t.Fatalf("expected present after add, err=%v ok=%v", err, ok)
	}
	if out.Amount.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected amount 100, got %v", out.Amount)
	}

	ws.RemoveAsset(ref)
	if _, ok, _ := ws.GetAsset(ref); ok {
		t.Fatal("expected absent after remove")
	}
}

func TestCachedViewIsolatesMutation(t *testing.T) {
	root := NewWorldState(newTestCachingDB(t))
	ref := types.AssetOutputRef{Key: common.HexToHash("0x02")}
	root.AddAsset(ref, sampleAsset(50))
	if _, err := root.Persist(); err != nil {
		t.Fatalf("persist: %v", err)
	}

	scratch := root.Cached()
	scratch.RemoveAsset(ref)

	if _, ok, _ := scratch.GetAsset(ref); ok {
		t.Fatal("scratch view should no longer see the removed asset")
	}
	if _, ok, _ := root.GetAsset(ref); !ok {
		t.Fatal("root view must be untouched until the scratch view is persisted")
	}
}

func TestPersistCommitsScratchToParent(t *testing.T) {
	root := NewWorldState(newTestCachingDB(t))
	ref := types.AssetOutputRef{Key: common.HexToHash("0x03")}

	scratch := root.Cached()
	scratch.AddAsset(ref, sampleAsset(7))
	if _, err := scratch.Persist(); err != nil {
		t.Fatalf("persist: %v", err)
	}

	if _, ok, _ := root.GetAsset(ref); !ok {
		t.Fatal("expected root to observe the committed scratch mutation")
	}
}

func TestGetPreOutputsOrderAndKeyNotFound(t *testing.T) {
	ws := NewWorldState(newTestCachingDB(t))
	refA := types.AssetOutputRef{Key: common.HexToHash("0x0a")}
	refB := types.AssetOutputRef{Key: common.HexToHash("0x0b")}
	ws.AddAsset(refA, sampleAsset(1))
	ws.AddAsset(refB, sampleAsset(2))

	tx := &types.Transaction{
		Unsigned: types.UnsignedTransaction{
			Inputs: []types.TxInput{{OutputRef: refA}, {OutputRef: refB}},
		},
	}
	outs, ioErr := ws.GetPreOutputs(tx)
	if ioErr != nil {
		t.Fatalf("unexpected IOError: %v", ioErr)
	}
	if len(outs) != 2 || outs[0].Amount.Cmp(big.NewInt(1)) != 0 || outs[1].Amount.Cmp(big.NewInt(2)) != 0 {
		t.Fatalf("expected preOutputs in input order, got %+v", outs)
	}

	missing := &types.Transaction{
		Unsigned: types.UnsignedTransaction{
			Inputs: []types.TxInput{{OutputRef: types.AssetOutputRef{Key: common.HexToHash("0xff")}}},
		},
	}
	if _, ioErr := ws.GetPreOutputs(missing); ioErr == nil || ioErr.Kind != types.KeyNotFound {
		t.Fatalf("expected KeyNotFound, got %v", ioErr)
	}
}
