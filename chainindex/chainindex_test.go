package chainindex

import (
	"testing"

	"github.com/shardflow/shardflow-node/common"
)

func TestAllChainsCount(t *testing.T) {
	g := Groups(4)
	chains := g.AllChains()
	if len(chains) != 16 {
		t.Fatalf("expected G*G=16 chains, got %d", len(chains))
	}
}

func TestDepOrderExcludesSelf(t *testing.T) {
	g := Groups(4)
	self := ChainIndex{From: 1, To: 2}
	deps := g.DepOrder(self)
	if len(deps) != 15 {
		t.Fatalf("expected G*G-1=15 deps, got %d", len(deps))
	}
	for _, d := range deps {
		if d == self {
			t.Fatalf("DepOrder must not include self chain %v", self)
		}
	}
}

func TestGroupFromHashStable(t *testing.T) {
	g := Groups(4)
	h := common.HexToHash("0xaabbccdd")
	i1 := g.GroupFromHash(h)
	i2 := g.GroupFromHash(h)
	if i1 != i2 {
		t.Fatalf("GroupFromHash not deterministic: %v != %v", i1, i2)
	}
	if int(i1) < 0 || int(i1) >= int(g) {
		t.Fatalf("GroupFromHash out of range: %v", i1)
	}
}

func TestIsIntraGroup(t *testing.T) {
	if !(ChainIndex{From: 1, To: 1}).IsIntraGroup() {
		t.Fatal("expected intra-group")
	}
	if (ChainIndex{From: 1, To: 2}).IsIntraGroup() {
		t.Fatal("expected inter-group")
	}
}
