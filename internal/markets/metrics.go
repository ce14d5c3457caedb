package markets

// ProtocolMetrics aggregates one protocol's markets into headline
// numbers. Dollar totals use each feed's own USD prices; utilization is
// the dollar-weighted borrowed share of deposits. Average rates keep the
// protocol's native basis and only count markets where that rate is
// positive, so idle markets do not dilute either average.
type ProtocolMetrics struct {
	TVLUSD           float64 `json:"tvl"`
	TotalSuppliedUSD float64 `json:"total_supplied"`
	TotalBorrowedUSD float64 `json:"total_borrowed"`
	UtilizationPct   float64 `json:"utilization_rate"`
	AvgSupplyAPY     float64 `json:"avg_supply_apy"`
	AvgBorrowAPY     float64 `json:"avg_borrow_apy"`
}

// EchelonMetrics aggregates every Echelon asset that has a marketStats
// row. Assets without one contribute nothing, not even to the rate
// averages.
func EchelonMetrics(feed *EchelonFeed) *ProtocolMetrics {
	if feed == nil || len(feed.Data.Assets) == 0 {
		return nil
	}

	m := &ProtocolMetrics{}
	var supplySum, borrowSum float64
	var supplyCount, borrowCount int
	for i := range feed.Data.Assets {
		a := &feed.Data.Assets[i]
		stats, ok := feed.StatsFor(a)
		if !ok {
			continue
		}
		m.TVLUSD += stats.TotalShares * a.Price
		m.TotalSuppliedUSD += stats.TotalShares * a.Price
		m.TotalBorrowedUSD += stats.TotalLiability * a.Price

		if apr := a.SupplyAPRPct(); apr > 0 {
			supplySum += apr
			supplyCount++
		}
		if apr := a.BorrowAPRPct(); apr > 0 {
			borrowSum += apr
			borrowCount++
		}
	}
	finishMetrics(m, supplySum, borrowSum, supplyCount, borrowCount)
	return m
}

// MovePositionMetrics aggregates every broker.
func MovePositionMetrics(brokers []Broker) *ProtocolMetrics {
	if len(brokers) == 0 {
		return nil
	}

	m := &ProtocolMetrics{}
	var supplySum, borrowSum float64
	var supplyCount, borrowCount int
	for i := range brokers {
		b := &brokers[i]
		price := b.UnderlyingAsset.Price
		m.TVLUSD += b.SuppliedUnderlying() * price
		m.TotalSuppliedUSD += b.SuppliedUnderlying() * price
		m.TotalBorrowedUSD += b.BorrowedUnderlying() * price

		if apy := b.SupplyAPY(); apy > 0 {
			supplySum += apy
			supplyCount++
		}
		if apr := b.BorrowAPRPct(); apr > 0 {
			borrowSum += apr
			borrowCount++
		}
	}
	finishMetrics(m, supplySum, borrowSum, supplyCount, borrowCount)
	return m
}

func finishMetrics(m *ProtocolMetrics, supplySum, borrowSum float64, supplyCount, borrowCount int) {
	if supplyCount > 0 {
		m.AvgSupplyAPY = supplySum / float64(supplyCount)
	}
	if borrowCount > 0 {
		m.AvgBorrowAPY = borrowSum / float64(borrowCount)
	}
	if m.TotalSuppliedUSD > 0 {
		m.UtilizationPct = m.TotalBorrowedUSD / m.TotalSuppliedUSD * 100
	}
}
