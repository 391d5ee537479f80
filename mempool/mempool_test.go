package mempool

import (
	"math/big"
	"testing"

	"github.com/shardflow/shardflow-node/blockchain/types"
	"github.com/shardflow/shardflow-node/chainindex"
	"github.com/shardflow/shardflow-node/common"
	"github.com/shardflow/shardflow-node/params"
)

func sampleTx(amount int64) *types.Transaction {
	return types.NewCoinbaseTransaction(params.Devnet, types.TxOutput{
		Amount:       big.NewInt(amount),
		LockupScript: types.P2PKHLockup(common.HexToHash("0xaa")),
	})
}

func TestPoolAddAndCollect(t *testing.T) {
	p := New()
	idx := chainindex.ChainIndex{From: 0, To: 0}
	tx := sampleTx(100)

	p.Add(idx, tx)
	if p.Size(idx) != 1 {
		t.Fatalf("expected size 1, got %d", p.Size(idx))
	}

	collected := p.CollectTransactions(idx, 10)
	if len(collected) != 1 || collected[0].Hash() != tx.Hash() {
		t.Fatalf("expected to collect the added tx, got %v", collected)
	}
}

func TestPoolRemove(t *testing.T) {
	p := New()
	idx := chainindex.ChainIndex{From: 0, To: 0}
	tx := sampleTx(100)

	p.Add(idx, tx)
	p.Remove(idx, tx)
	if p.Size(idx) != 0 {
		t.Fatalf("expected size 0 after remove, got %d", p.Size(idx))
	}
}

func TestPoolSeparatesByChainIndex(t *testing.T) {
	p := New()
	idxA := chainindex.ChainIndex{From: 0, To: 0}
	idxB := chainindex.ChainIndex{From: 0, To: 1}

	p.Add(idxA, sampleTx(100))
	p.Add(idxB, sampleTx(200))

	if p.Size(idxA) != 1 || p.Size(idxB) != 1 {
		t.Fatalf("expected each chain to hold exactly its own tx, got %d/%d", p.Size(idxA), p.Size(idxB))
	}
}

func TestPoolCollectRespectsLimit(t *testing.T) {
	p := New()
	idx := chainindex.ChainIndex{From: 0, To: 0}
	for i := int64(0); i < 5; i++ {
		p.Add(idx, sampleTx(100+i))
	}
	collected := p.CollectTransactions(idx, 3)
	if len(collected) != 3 {
		t.Fatalf("expected limit of 3, got %d", len(collected))
	}
}
