package flowhandler

import (
	"math/big"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/shardflow/shardflow-node/blockchain/state"
	"github.com/shardflow/shardflow-node/blockchain/types"
	"github.com/shardflow/shardflow-node/blockflow"
	"github.com/shardflow/shardflow-node/chainindex"
	"github.com/shardflow/shardflow-node/common"
	"github.com/shardflow/shardflow-node/params"
	"github.com/shardflow/shardflow-node/storage/database"
)

func newTestHandler(t *testing.T) *FlowHandler {
	t.Helper()
	dir := t.TempDir()
	db, err := database.NewLDBDatabase(dir, 16, 16)
	if err != nil {
		t.Fatalf("NewLDBDatabase: %v", err)
	}
	t.Cleanup(db.Close)
	bf := blockflow.New(chainindex.Groups(1), []chainindex.GroupIndex{0}, state.NewCachingDB(db))
	fh := New(bf, chainindex.Groups(1), params.Devnet)
	fh.Start()
	t.Cleanup(fh.Stop)
	return fh
}

func coinbaseBlock(parent common.Hash, timestampMs int64) *types.Block {
	tx := types.NewCoinbaseTransaction(params.Devnet, types.TxOutput{
		Amount:       big.NewInt(1000),
		LockupScript: types.P2PKHLockup(common.HexToHash("0xaa")),
	})
	txs := []*types.Transaction{tx}
	header := types.BlockHeader{
		ParentHash:  parent,
		TxsHash:     types.HashTransactions(txs),
		TimestampMs: timestampMs,
		Target:      params.MaxMiningTarget,
	}
	return &types.Block{Header: header, Transactions: txs}
}

func TestAddBlockAcceptsGenesis(t *testing.T) {
	fh := newTestHandler(t)
	idx := chainindex.ChainIndex{From: 0, To: 0}
	genesis := coinbaseBlock(common.Hash{}, time.Now().UnixNano()/int64(time.Millisecond))

	result := fh.AddBlock(genesis, idx)
	if !result.Accepted {
		t.Fatalf("expected genesis to be accepted, got %+v", result)
	}

	blocks := fh.GetBlocks([]common.Hash{genesis.Hash()})
	if len(blocks) != 1 {
		t.Fatalf("expected genesis to be retrievable, got %d blocks", len(blocks))
	}
}

func TestAddBlockParksOnMissingParentThenPromotes(t *testing.T) {
	fh := newTestHandler(t)
	idx := chainindex.ChainIndex{From: 0, To: 0}
	now := time.Now().UnixNano() / int64(time.Millisecond)

	genesis := coinbaseBlock(common.Hash{}, now)
	child := coinbaseBlock(genesis.Hash(), now+1)

	childResult := fh.AddBlock(child, idx)
	if !childResult.Pending {
		t.Fatalf("expected child to be parked pending its parent, got %s", spew.Sdump(childResult))
	}

	genesisResult := fh.AddBlock(genesis, idx)
	if !genesisResult.Accepted {
		t.Fatalf("expected genesis to be accepted, got %+v", genesisResult)
	}

	// The promotion sweep triggered by genesis's insertion should have
	// already admitted child; GetBlocks should now find it without a
	// further AddBlock call.
	blocks := fh.GetBlocks([]common.Hash{child.Hash()})
	if len(blocks) != 1 {
		t.Fatalf("expected child to be promoted after its parent landed, got %d blocks", len(blocks))
	}
}

func TestParkEvictsOldestWhenPendingPoolFull(t *testing.T) {
	fh := newTestHandler(t)
	fh.SetPendingLimit(2)
	idx := chainindex.ChainIndex{From: 0, To: 0}
	now := time.Now().UnixNano() / int64(time.Millisecond)

	// Each block names a parent hash that never arrives, so all three
	// stay parked rather than being promoted.
	b1 := coinbaseBlock(common.HexToHash("0xaa"), now)
	b2 := coinbaseBlock(common.HexToHash("0xbb"), now+1)
	b3 := coinbaseBlock(common.HexToHash("0xcc"), now+2)

	for _, b := range []*types.Block{b1, b2, b3} {
		result := fh.AddBlock(b, idx)
		if !result.Pending {
			t.Fatalf("expected block with missing parent to be parked, got %+v", result)
		}
	}

	if len(fh.pending) != 2 {
		t.Fatalf("expected pending pool capped at 2, got %d", len(fh.pending))
	}
	for _, item := range fh.pending {
		if item.block.Hash() == b1.Hash() {
			t.Fatalf("expected the oldest parked block to be evicted, but it is still pending")
		}
	}
}

func TestGetSyncInfoReportsBestTip(t *testing.T) {
	fh := newTestHandler(t)
	idx := chainindex.ChainIndex{From: 0, To: 0}
	genesis := coinbaseBlock(common.Hash{}, time.Now().UnixNano()/int64(time.Millisecond))
	if result := fh.AddBlock(genesis, idx); !result.Accepted {
		t.Fatalf("expected genesis to be accepted, got %+v", result)
	}

	info := fh.GetSyncInfo()
	if info[idx] != genesis.Hash() {
		t.Fatalf("expected sync info tip %v, got %v", genesis.Hash(), info[idx])
	}
}

// TestCrossChainDependencyBootstrapsWithMultipleGroups exercises the
// cross-chain dependency mechanism end-to-end with G=2: every chain's
// first block depends on every other chain's tip, most of which are
// still empty (zero hash) the first time any chain bootstraps.
func TestCrossChainDependencyBootstrapsWithMultipleGroups(t *testing.T) {
	dir := t.TempDir()
	db, err := database.NewLDBDatabase(dir, 16, 16)
	if err != nil {
		t.Fatalf("NewLDBDatabase: %v", err)
	}
	t.Cleanup(db.Close)

	groups := chainindex.Groups(2)
	bf := blockflow.New(groups, []chainindex.GroupIndex{0, 1}, state.NewCachingDB(db))
	fh := New(bf, groups, params.Devnet)
	fh.Start()
	t.Cleanup(fh.Stop)

	now := time.Now().UnixNano() / int64(time.Millisecond)
	idx00 := chainindex.ChainIndex{From: 0, To: 0}
	idx01 := chainindex.ChainIndex{From: 0, To: 1}
	idx10 := chainindex.ChainIndex{From: 1, To: 0}

	genesis00 := coinbaseBlock(common.Hash{}, now)
	if result := fh.AddBlock(genesis00, idx00); !result.Accepted {
		t.Fatalf("expected chain %v genesis to be accepted, got %+v", idx00, result)
	}
	genesis01 := coinbaseBlock(common.Hash{}, now+1)
	if result := fh.AddBlock(genesis01, idx01); !result.Accepted {
		t.Fatalf("expected chain %v genesis to be accepted, got %+v", idx01, result)
	}

	// Chain 1->0 has never produced a block either, so its own dep set
	// mixes two already-landed tips (0->0, 0->1) with one still-zero tip
	// (1->1) — without the zero-dep skip in both missingDeps and
	// validateDeps, this would be rejected with MissingDeps forever.
	template := fh.PrepareBlockFlow(idx10, nil)
	block10 := coinbaseBlock(common.Hash{}, now+2)
	block10.Header.BlockDeps = template.BlockDeps

	result := fh.AddBlock(block10, idx10)
	if !result.Accepted {
		t.Fatalf("expected chain %v's first block to bootstrap past genesis, got %+v", idx10, result)
	}
}

func TestRegisterReceivesBlockAddedEvent(t *testing.T) {
	fh := newTestHandler(t)
	idx := chainindex.ChainIndex{From: 0, To: 0}
	ch := make(chan Event, 8)
	fh.Register(ch)

	genesis := coinbaseBlock(common.Hash{}, time.Now().UnixNano()/int64(time.Millisecond))
	if result := fh.AddBlock(genesis, idx); !result.Accepted {
		t.Fatalf("expected genesis to be accepted, got %+v", result)
	}

	select {
	case ev := <-ch:
		if ev.Kind != BlockAdded {
			t.Fatalf("expected first event to be BlockAdded, got %v", ev.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for BlockAdded event")
	}
}
