package blockvalidation

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

type fakeReader struct {
	headers map[common.Hash]bool
	groups  map[chainindex.GroupIndex]bool
}

func newFakeReader() *fakeReader {
	return &fakeReader{headers: make(map[common.Hash]bool), groups: map[chainindex.GroupIndex]bool{0: true}}
}

func (r *fakeReader) HasHeader(h common.Hash) bool                     { return r.headers[h] }
func (r *fakeReader) HasBlock(h common.Hash) bool                      { return r.headers[h] }
func (r *fakeReader) ServicesGroup(g chainindex.GroupIndex) bool       { return r.groups[g] }
func (r *fakeReader) ExpectedTarget(chainindex.ChainIndex, int64) *big.Int { return nil }

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

func genesisBlock(t *testing.T) *types.Block {
	t.Helper()
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

func TestValidateBlockAcceptsGenesisShape(t *testing.T) {
	b := genesisBlock(t)
	reader := newFakeReader()
	world := newTestWorldState(t)
	groups := chainindex.Groups(1)

	status, ioErr := ValidateBlock(b, chainindex.ChainIndex{From: 0, To: 0}, reader, world, groups, params.Devnet, 2000, false)
	if ioErr != nil {
		t.Fatalf("unexpected IOError: %v", ioErr)
	}
	if status != nil {
		t.Fatalf("unexpected rejection: %v", status)
	}
}

func TestValidateBlockRejectsEmptyTransactionList(t *testing.T) {
	b := genesisBlock(t)
	b.Transactions = nil
	reader := newFakeReader()
	world := newTestWorldState(t)

	status, ioErr := ValidateBlock(b, chainindex.ChainIndex{From: 0, To: 0}, reader, world, chainindex.Groups(1), params.Devnet, 2000, false)
	if ioErr != nil {
		t.Fatalf("unexpected IOError: %v", ioErr)
	}
	if status == nil || *status != types.EmptyTransactionList {
		t.Fatalf("expected EmptyTransactionList, got %v", status)
	}
}

func TestValidateBlockRejectsBadMerkleRoot(t *testing.T) {
	b := genesisBlock(t)
	b.Header.TxsHash = common.HexToHash("0xdead")
	reader := newFakeReader()
	world := newTestWorldState(t)

	status, ioErr := ValidateBlock(b, chainindex.ChainIndex{From: 0, To: 0}, reader, world, chainindex.Groups(1), params.Devnet, 2000, false)
	if ioErr != nil {
		t.Fatalf("unexpected IOError: %v", ioErr)
	}
	if status == nil || *status != types.InvalidMerkleRoot {
		t.Fatalf("expected InvalidMerkleRoot, got %v", status)
	}
}

func TestValidateBlockRejectsDoubleSpend(t *testing.T) {
	world := newTestWorldState(t)
	ref := types.AssetOutputRef{Key: common.HexToHash("0x01")}
	world.AddAsset(ref, types.AssetOutput{Amount: big.NewInt(1000), LockupScript: types.P2PKHLockup(common.HexToHash("0xaa"))})

	coinbase := types.NewCoinbaseTransaction(params.Devnet, types.TxOutput{
		Amount:       big.NewInt(0),
		LockupScript: types.P2PKHLockup(common.HexToHash("0xaa")),
	})
	spend := &types.Transaction{
		Unsigned: types.UnsignedTransaction{
			NetworkID: params.Devnet,
			GasAmount: params.MinimalGas,
			GasPrice:  big.NewInt(0),
			Inputs:    []types.TxInput{{OutputRef: ref}},
			FixedOutputs: []types.TxOutput{
				{Amount: big.NewInt(1000), LockupScript: types.P2PKHLockup(common.HexToHash("0xbb"))},
			},
		},
		InputSignatures: []types.Signature{make(types.Signature, 64)},
	}
	txs := []*types.Transaction{coinbase, spend, spend}
	header := types.BlockHeader{TxsHash: types.HashTransactions(txs), TimestampMs: 1000, Target: params.MaxMiningTarget}
	b := &types.Block{Header: header, Transactions: txs}

	status, ioErr := ValidateBlock(b, chainindex.ChainIndex{From: 0, To: 0}, newFakeReader(), world, chainindex.Groups(1), params.Devnet, 2000, false)
	if ioErr != nil {
		t.Fatalf("unexpected IOError: %v", ioErr)
	}
	if status == nil || *status != types.DoubleSpent {
		t.Fatalf("expected DoubleSpent, got %v", status)
	}
}
