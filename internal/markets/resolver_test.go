package markets

import "testing"

func TestFindEchelonAsset(t *testing.T) {
	feed := &EchelonFeed{
		Data: EchelonData{
			Assets: []EchelonAsset{
				{Symbol: "USDC"},
				{Symbol: "MOVE"},
			},
		},
	}

	if got := FindEchelonAsset(feed, "usdc"); got == nil || got.Symbol != "USDC" {
		t.Errorf("FindEchelonAsset(usdc) = %+v, want USDC", got)
	}
	if got := FindEchelonAsset(feed, "Move"); got == nil || got.Symbol != "MOVE" {
		t.Errorf("FindEchelonAsset(Move) = %+v, want MOVE", got)
	}
	if got := FindEchelonAsset(feed, "WBTC"); got != nil {
		t.Errorf("FindEchelonAsset(WBTC) = %+v, want nil", got)
	}
	if got := FindEchelonAsset(nil, "USDC"); got != nil {
		t.Errorf("FindEchelonAsset(nil feed) = %+v, want nil", got)
	}
}

func broker(name string) Broker {
	return Broker{UnderlyingAsset: UnderlyingAsset{Name: name}}
}

func TestFindBroker(t *testing.T) {
	synonyms := DefaultSynonyms()
	brokers := []Broker{
		broker("USDC"),
		broker("USDT"),
		broker("movement-solvbtc"),
	}

	t.Run("synonym match", func(t *testing.T) {
		got := FindBroker(brokers, "usdt", synonyms)
		if got == nil || got.UnderlyingAsset.Name != "USDT" {
			t.Errorf("got %+v, want USDT", got)
		}
	})
	t.Run("unknown symbol falls back to lowercase search", func(t *testing.T) {
		got := FindBroker(brokers, "SOLVBTC", synonyms)
		if got == nil || got.UnderlyingAsset.Name != "movement-solvbtc" {
			t.Errorf("got %+v, want movement-solvbtc", got)
		}
	})
	t.Run("no match", func(t *testing.T) {
		if got := FindBroker(brokers, "DOGE", synonyms); got != nil {
			t.Errorf("got %+v, want nil", got)
		}
	})
	t.Run("empty broker list", func(t *testing.T) {
		if got := FindBroker(nil, "USDC", synonyms); got != nil {
			t.Errorf("got %+v, want nil", got)
		}
	})
}

func TestFindBrokerPrefersMoveFA(t *testing.T) {
	// Both orderings resolve to the fungible-asset broker, so the pick
	// does not depend on feed order.
	orders := [][]Broker{
		{broker("movement-move"), broker("movement-move-fa")},
		{broker("movement-move-fa"), broker("movement-move")},
	}
	for _, brokers := range orders {
		got := FindBroker(brokers, "MOVE", DefaultSynonyms())
		if got == nil || got.UnderlyingAsset.Name != "movement-move-fa" {
			t.Errorf("FindBroker(MOVE) = %+v, want movement-move-fa", got)
		}
	}
}

func TestFindBrokerSingleMoveMatch(t *testing.T) {
	brokers := []Broker{broker("USDC"), broker("movement-move")}
	got := FindBroker(brokers, "MOVE", DefaultSynonyms())
	if got == nil || got.UnderlyingAsset.Name != "movement-move" {
		t.Errorf("FindBroker(MOVE) = %+v, want movement-move", got)
	}
}

func TestDefaultSynonymsReturnsFreshCopy(t *testing.T) {
	a := DefaultSynonyms()
	delete(a, "USDC")
	a["XYZ"] = []string{"xyz"}

	b := DefaultSynonyms()
	if _, ok := b["USDC"]; !ok {
		t.Error("USDC missing from a fresh table")
	}
	if _, ok := b["XYZ"]; ok {
		t.Error("mutation of one table leaked into a fresh one")
	}
}
