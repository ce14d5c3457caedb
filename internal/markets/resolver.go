package markets

import "strings"

// SynonymTable maps an uppercase asset symbol to the broker-name
// substrings that identify it, in priority order. Symbols without an
// entry fall back to their lowercased form.
type SynonymTable map[string][]string

// DefaultSynonyms returns a fresh copy of the Movement broker naming
// table, so callers can extend it without affecting other holders.
func DefaultSynonyms() SynonymTable {
	return SynonymTable{
		"USDC":  {"movement-usdc", "usdc"},
		"USDT":  {"movement-usdt", "usdt"},
		"MOVE":  {"movement-move-fa", "movement-move", "move"},
		"WBTC":  {"movement-wbtc", "wbtc"},
		"WETH":  {"movement-weth", "weth"},
		"EZETH": {"movement-ezeth", "ezeth"},
		"LBTC":  {"movement-lbtc", "lbtc"},
		"USDA":  {"movement-usda", "usda"},
	}
}

// FindEchelonAsset returns the first asset whose symbol matches,
// case-insensitively, or nil when none does.
func FindEchelonAsset(feed *EchelonFeed, symbol string) *EchelonAsset {
	if feed == nil {
		return nil
	}
	for i := range feed.Data.Assets {
		if strings.EqualFold(feed.Data.Assets[i].Symbol, symbol) {
			return &feed.Data.Assets[i]
		}
	}
	return nil
}

// FindBroker resolves a user-facing symbol against broker names, which
// use forms like "movement-usdc" instead of plain symbols. Every broker
// whose lowercased name contains one of the symbol's search substrings
// is a candidate; the first candidate wins, except that an ambiguous
// MOVE lookup prefers the fungible-asset broker over the legacy coin
// broker.
func FindBroker(brokers []Broker, symbol string, synonyms SynonymTable) *Broker {
	upper := strings.ToUpper(symbol)
	searchNames, ok := synonyms[upper]
	if !ok {
		searchNames = []string{strings.ToLower(symbol)}
	}

	var matches []*Broker
	for i := range brokers {
		name := strings.ToLower(brokers[i].UnderlyingAsset.Name)
		for _, search := range searchNames {
			if strings.Contains(name, search) {
				matches = append(matches, &brokers[i])
				break
			}
		}
	}
	if len(matches) == 0 {
		return nil
	}

	if upper == "MOVE" && len(matches) > 1 {
		for _, m := range matches {
			name := strings.ToLower(m.UnderlyingAsset.Name)
			if strings.Contains(name, "move-fa") || strings.Contains(name, "move_fa") {
				return m
			}
		}
	}
	return matches[0]
}
