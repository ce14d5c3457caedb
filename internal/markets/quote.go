package markets

import "strings"

// Protocol identifies one of the compared lending protocols.
type Protocol string

const (
	ProtocolEchelon      Protocol = "Echelon"
	ProtocolMovePosition Protocol = "MovePosition"
)

// AssetQuote is a normalized per-asset snapshot of one protocol's
// market. Supply rates are always on an APY basis so quotes from
// different protocols compare directly; borrow rates stay on each
// protocol's native basis. Dollar fields use the feed's own USD price.
type AssetQuote struct {
	Protocol       Protocol `json:"protocol"`
	Symbol         string   `json:"symbol"`
	SupplyRateAPY  float64  `json:"supply_rate_apy"`
	BorrowRate     float64  `json:"borrow_rate"`
	PriceUSD       float64  `json:"price_usd"`
	TVLUSD         float64  `json:"tvl_usd"`
	SuppliedUSD    float64  `json:"supplied_usd"`
	BorrowedUSD    float64  `json:"borrowed_usd"`
	LiquidityUSD   float64  `json:"liquidity_usd"`
	UtilizationPct float64  `json:"utilization_pct"`
}

func clampZero(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// QuoteFromEchelon builds a quote for an Echelon asset, converting its
// simple APR to APY and pricing the market totals in USD. Assets with no
// marketStats row keep zero-valued dollar metrics; that is distinct from
// the asset being absent from the feed entirely.
func QuoteFromEchelon(feed *EchelonFeed, a *EchelonAsset) *AssetQuote {
	q := &AssetQuote{
		Protocol:      ProtocolEchelon,
		Symbol:        strings.ToUpper(a.Symbol),
		SupplyRateAPY: AprToApy(a.SupplyAPRPct()),
		BorrowRate:    a.BorrowAPRPct(),
		PriceUSD:      clampZero(a.Price),
	}
	if stats, ok := feed.StatsFor(a); ok {
		q.SuppliedUSD = clampZero(stats.TotalShares * a.Price)
		q.BorrowedUSD = clampZero(stats.TotalLiability * a.Price)
		q.LiquidityUSD = clampZero(stats.TotalCash * a.Price)
		q.TVLUSD = q.SuppliedUSD
		q.UtilizationPct = UtilizationPct(stats.TotalLiability, stats.TotalCash)
	}
	return q
}

// QuoteFromBroker builds a quote for a MovePosition broker under the
// given display symbol. Broker rates already compound, so the supply
// rate passes through as APY.
func QuoteFromBroker(b *Broker, symbol string) *AssetQuote {
	price := clampZero(b.UnderlyingAsset.Price)
	available := b.AvailableUnderlying()
	supplied := b.SuppliedUnderlying() * price
	return &AssetQuote{
		Protocol:       ProtocolMovePosition,
		Symbol:         strings.ToUpper(symbol),
		SupplyRateAPY:  b.SupplyAPY(),
		BorrowRate:     b.BorrowAPRPct(),
		PriceUSD:       price,
		TVLUSD:         supplied,
		SuppliedUSD:    supplied,
		BorrowedUSD:    b.BorrowedUnderlying() * price,
		LiquidityUSD:   available * price,
		UtilizationPct: clampZero(b.Utilization * 100),
	}
}
