package chaincfg

import "testing"

func TestGenesisBlockSanity(t *testing.T) {
	for _, p := range []*Params{MainNetParams(), RegTestParams()} {
		if err := p.GenesisBlock.CheckSanity(); err != nil {
			t.Fatalf("%s: genesis block fails sanity: %v", p.Name, err)
		}
		if p.GenesisBlock.Header.PrevHash.IsZero() == false {
			t.Fatalf("%s: genesis prev hash must be zero", p.Name)
		}
	}
}

func TestCalcBlockSubsidyHalves(t *testing.T) {
	p := MainNetParams()
	first := p.CalcBlockSubsidy(0)
	afterOneHalving := p.CalcBlockSubsidy(p.SubsidyHalvingInterval)
	if afterOneHalving != first/2 {
		t.Fatalf("expected subsidy to halve: got %d want %d", afterOneHalving, first/2)
	}
}
