package blockflow

import (
	"math/big"
	"testing"

	"github.com/shardflow/shardflow-node/blockchain/state"
	"github.com/shardflow/shardflow-node/blockchain/types"
	"github.com/shardflow/shardflow-node/chainindex"
	"github.com/shardflow/shardflow-node/common"
	"github.com/shardflow/shardflow-node/params"
	"github.com/shardflow/shardflow-node/storage/database"
)

func newTestBlockFlow(t *testing.T) *BlockFlow {
	t.Helper()
	dir := t.TempDir()
	db, err := database.NewLDBDatabase(dir, 16, 16)
	if err != nil {
		t.Fatalf("NewLDBDatabase: %v", err)
	}
	t.Cleanup(db.Close)
	cachingDB := state.NewCachingDB(db)
	return New(chainindex.Groups(1), []chainindex.GroupIndex{0}, cachingDB)
}

func genesisBlock() *types.Block {
	tx := types.NewCoinbaseTransaction(params.Devnet, types.TxOutput{
		Amount:       big.NewInt(1000),
		LockupScript: types.P2PKHLockup(common.HexToHash("0xaa")),
	})
	txs := []*types.Transaction{tx}
	header := types.BlockHeader{
		TxsHash:     types.HashTransactions(txs),
		TimestampMs: 1000,
		Target:      params.MaxMiningTarget,
	}
	return &types.Block{Header: header, Transactions: txs}
}

func TestAddBlockRecordsHeaderAndBody(t *testing.T) {
	bf := newTestBlockFlow(t)
	b := genesisBlock()
	idx := chainindex.ChainIndex{From: 0, To: 0}

	if err := bf.AddBlock(b, idx); err != nil {
		t.Fatalf("AddBlock: %v", err)
	}
	if !bf.HasHeader(b.Hash()) {
		t.Fatalf("expected header to be recorded")
	}
	if !bf.HasBlock(b.Hash()) {
		t.Fatalf("expected block to be recorded")
	}
	tip, ok := bf.BestTip(idx)
	if !ok || tip != b.Hash() {
		t.Fatalf("expected best tip to be genesis, got %v ok=%v", tip, ok)
	}
}

func TestAddBlockAppliesCoinbaseOutputToWorldState(t *testing.T) {
	bf := newTestBlockFlow(t)
	b := genesisBlock()
	idx := chainindex.ChainIndex{From: 0, To: 0}
	if err := bf.AddBlock(b, idx); err != nil {
		t.Fatalf("AddBlock: %v", err)
	}

	coinbase := b.Coinbase()
	ref := types.AssetOutputRef{
		Hint: coinbase.AllOutputs()[0].LockupScript.ScriptHint(),
		Key:  types.NewOutputKey(coinbase.Hash(), 0),
	}
	out, ok, err := bf.GetTrie().GetAsset(ref)
	if err != nil {
		t.Fatalf("GetAsset: %v", err)
	}
	if !ok {
		t.Fatalf("expected coinbase output to be present in world state")
	}
	if out.Amount.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("expected amount 1000, got %v", out.Amount)
	}
}

func TestDepTipsEmptyForSingleGroupNetwork(t *testing.T) {
	bf := newTestBlockFlow(t)
	deps := bf.DepTips(chainindex.ChainIndex{From: 0, To: 0})
	if len(deps) != 0 {
		t.Fatalf("expected no deps for a single-group network, got %d", len(deps))
	}
}
