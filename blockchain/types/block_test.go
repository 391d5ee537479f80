package types

import (
	"math/big"
	"testing"

	"github.com/shardflow/shardflow-node/chainindex"
	"github.com/shardflow/shardflow-node/common"
	"github.com/shardflow/shardflow-node/params"
)

func sampleOutput(amount int64) TxOutput {
	return TxOutput{
		Amount:       big.NewInt(amount),
		LockupScript: P2PKHLockup(common.HexToHash("0x01")),
	}
}

func TestCoinbaseShape(t *testing.T) {
	tx := NewCoinbaseTransaction(params.Testnet, sampleOutput(100))
	if !tx.IsCoinbase() {
		t.Fatal("expected coinbase shape to hold")
	}
}

func TestNonCoinbaseRejected(t *testing.T) {
	tx := &Transaction{
		Unsigned: UnsignedTransaction{
			NetworkID:    params.Testnet,
			GasPrice:     big.NewInt(1),
			Inputs:       []TxInput{{OutputRef: AssetOutputRef{Key: common.HexToHash("0x02")}}},
			FixedOutputs: []TxOutput{sampleOutput(10)},
		},
		InputSignatures: []Signature{make(Signature, 64)},
	}
	if tx.IsCoinbase() {
		t.Fatal("tx with an input must not look like a coinbase")
	}
}

func TestTransactionHashStableAndDistinct(t *testing.T) {
	tx1 := NewCoinbaseTransaction(params.Testnet, sampleOutput(100))
	tx2 := NewCoinbaseTransaction(params.Testnet, sampleOutput(100))
	if tx1.Hash() != tx2.Hash() {
		t.Fatal("identical transactions must hash identically")
	}

	tx3 := NewCoinbaseTransaction(params.Testnet, sampleOutput(101))
	if tx1.Hash() == tx3.Hash() {
		t.Fatal("differing transactions must not collide trivially")
	}
}

func TestHeaderChainIndexFromHash(t *testing.T) {
	groups := chainindex.Groups(4)
	h := &BlockHeader{
		ParentHash:  common.HexToHash("0x00"),
		BlockDeps:   make([]common.Hash, 15),
		TxsHash:     common.HexToHash("0x00"),
		TimestampMs: 1,
		Target:      params.GenesisTarget,
		Nonce:       0,
	}
	ci := h.ChainIndex(groups)
	// Invariant 1: ChainIndex.fromHash(block.hash) == block.chainIndex.
	if groups.ChainIndexFromHash(h.Hash()) != ci {
		t.Fatal("ChainIndex derivation must be self-consistent across calls")
	}
}

func TestHashTransactionsMatchesMerkleField(t *testing.T) {
	txs := []*Transaction{NewCoinbaseTransaction(params.Testnet, sampleOutput(50))}
	root := HashTransactions(txs)
	if root.IsZero() {
		t.Fatal("non-empty tx list must not hash to zero")
	}
}
