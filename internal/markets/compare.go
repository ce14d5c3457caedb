package markets

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/movementfi/moveyield/internal/metrics"
)

// Action selects which side of the market a comparison ranks.
type Action string

const (
	ActionLend   Action = "lend"
	ActionBorrow Action = "borrow"
)

// ErrInvalidAction reports an action other than lend or borrow.
var ErrInvalidAction = errors.New(`invalid action: use "lend" or "borrow"`)

// ErrFeedsUnavailable reports that neither protocol feed could be
// fetched, so no comparison is possible at all.
var ErrFeedsUnavailable = errors.New("both protocol feeds are unavailable")

// ErrAssetNotFound reports a symbol that resolved in neither protocol.
var ErrAssetNotFound = errors.New("asset not found in either protocol")

// ErrNoRates reports that at least one feed answered but no market rows
// came back, so a discovery scan has nothing to rank.
var ErrNoRates = errors.New("no rates available")

// ComparisonResult holds one cross-protocol comparison. Either quote may
// be nil when its protocol was unreachable or the asset did not resolve
// there; a nil quote is never the same as a quote with zero rates.
type ComparisonResult struct {
	Asset        string      `json:"asset"`
	Action       Action      `json:"action"`
	Echelon      *AssetQuote `json:"echelon,omitempty"`
	MovePosition *AssetQuote `json:"moveposition,omitempty"`

	// Winner carries the recommendation: with both quotes it is the
	// protocol with the strictly better rate for the action, ties going
	// to MovePosition. With exactly one quote it falls back to the
	// protocol that answered. Empty means no recommendation.
	Winner Protocol `json:"winner,omitempty"`

	// Difference is the Echelon rate minus the MovePosition rate for
	// the compared side, in percentage points. Only meaningful when
	// both quotes are present.
	Difference float64 `json:"difference"`

	// Raw feed records behind the quotes, for callers that need fields
	// the normalized quote does not carry, such as Echelon's LTV.
	EchelonRaw *EchelonAsset `json:"-"`
	BrokerRaw  *Broker       `json:"-"`
}

// HasBoth reports whether both protocols produced a quote.
func (r *ComparisonResult) HasBoth() bool {
	return r.Echelon != nil && r.MovePosition != nil
}

// Advantage returns the winner's margin in percentage points, never
// negative. Zero when fewer than two quotes are present.
func (r *ComparisonResult) Advantage() float64 {
	if !r.HasBoth() {
		return 0
	}
	if r.Difference < 0 {
		return -r.Difference
	}
	return r.Difference
}

// RateEntry is one protocol's supply rate for one asset, used by the
// best-rate scan. SupplyRateAPR is set only for Echelon entries, whose
// feed quotes simple APR before conversion.
type RateEntry struct {
	Protocol      Protocol `json:"protocol"`
	Asset         string   `json:"asset"`
	AssetName     string   `json:"asset_name"`
	SupplyRate    float64  `json:"supply_rate"`
	SupplyRateAPR *float64 `json:"supply_rate_apr,omitempty"`
	RateType      string   `json:"rate_type"`
}

// BestRateResult is the outcome of a best-supply-rate scan, either for
// one asset or across every market of both protocols.
type BestRateResult struct {
	Asset         string      // requested symbol, empty in discovery mode
	BestProtocol  Protocol    // empty when no rate beat zero
	BestAsset     string      // symbol holding the best rate
	BestRate      float64     // percent, APY basis
	AllRates      []RateEntry // in scan order, Echelon before MovePosition
	TotalCompared int
}

// TopRates returns the n highest entries, ordered by rate descending.
// Equal rates keep their scan order.
func (r *BestRateResult) TopRates(n int) []RateEntry {
	sorted := make([]RateEntry, len(r.AllRates))
	copy(sorted, r.AllRates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SupplyRate > sorted[j].SupplyRate
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

// Snapshot pairs one fetch of each protocol feed. A nil side means that
// protocol was unavailable at fetch time.
type Snapshot struct {
	Echelon *EchelonFeed
	Brokers []Broker
}

// Empty reports whether neither feed is usable.
func (s *Snapshot) Empty() bool {
	return s.Echelon == nil && len(s.Brokers) == 0
}

// ServiceConfig configures a comparison Service.
type ServiceConfig struct {
	// EchelonURL and MovePositionURL override the mainnet feed
	// endpoints when non-empty.
	EchelonURL      string
	MovePositionURL string

	// Synonyms overrides the broker-name lookup table. Nil uses
	// DefaultSynonyms.
	Synonyms SynonymTable

	// CacheTTL enables feed memoization when positive.
	CacheTTL time.Duration
}

// Service answers rate questions against live protocol feeds. It holds
// no market state of its own; every method fetches (or reuses a cached)
// snapshot and computes from that.
type Service struct {
	echelon  *EchelonClient
	movepos  *MovePositionClient
	synonyms SynonymTable
	cache    *feedCache
}

// NewService builds a Service from the given config.
func NewService(cfg ServiceConfig) (*Service, error) {
	s := &Service{
		echelon:  NewEchelonClient(cfg.EchelonURL),
		movepos:  NewMovePositionClient(cfg.MovePositionURL),
		synonyms: cfg.Synonyms,
	}
	if s.synonyms == nil {
		s.synonyms = DefaultSynonyms()
	}
	if cfg.CacheTTL > 0 {
		cache, err := newFeedCache(cfg.CacheTTL)
		if err != nil {
			return nil, err
		}
		s.cache = cache
	}
	return s, nil
}

// Snapshot fetches both feeds concurrently. Each fetch fails
// independently; a failed side comes back nil and is logged rather than
// aborting the other.
func (s *Service) Snapshot(ctx context.Context) *Snapshot {
	snap := &Snapshot{}

	var fromCacheEchelon, fromCacheBrokers bool
	if s.cache != nil {
		snap.Echelon, fromCacheEchelon = s.cache.echelon()
		snap.Brokers, fromCacheBrokers = s.cache.brokers()
	}

	var wg sync.WaitGroup
	if !fromCacheEchelon {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			feed, err := s.echelon.FetchMarkets(ctx)
			metrics.FeedFetchDuration.WithLabelValues("echelon").Observe(time.Since(start).Seconds())
			if err != nil {
				metrics.FeedFetchTotal.WithLabelValues("echelon", "error").Inc()
				slog.Warn("echelon feed unavailable", "error", err)
				return
			}
			metrics.FeedFetchTotal.WithLabelValues("echelon", "success").Inc()
			metrics.FeedLastSuccess.WithLabelValues("echelon").SetToCurrentTime()
			snap.Echelon = feed
			if s.cache != nil {
				s.cache.storeEchelon(feed)
			}
		}()
	}
	if !fromCacheBrokers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			brokers, err := s.movepos.FetchBrokers(ctx)
			metrics.FeedFetchDuration.WithLabelValues("moveposition").Observe(time.Since(start).Seconds())
			if err != nil {
				metrics.FeedFetchTotal.WithLabelValues("moveposition", "error").Inc()
				slog.Warn("moveposition feed unavailable", "error", err)
				return
			}
			metrics.FeedFetchTotal.WithLabelValues("moveposition", "success").Inc()
			metrics.FeedLastSuccess.WithLabelValues("moveposition").SetToCurrentTime()
			snap.Brokers = brokers
			if s.cache != nil {
				s.cache.storeBrokers(brokers)
			}
		}()
	}
	wg.Wait()
	return snap
}

// Compare resolves the asset in both protocols and ranks them for the
// given action. The result degrades instead of failing: missing feeds
// or an unresolved symbol leave the corresponding quote nil.
func (s *Service) Compare(ctx context.Context, asset string, action Action) (*ComparisonResult, error) {
	if action != ActionLend && action != ActionBorrow {
		return nil, ErrInvalidAction
	}
	snap := s.Snapshot(ctx)
	return CompareSnapshot(snap, asset, action, s.synonyms)
}

// CompareSnapshot is Compare against an already-fetched snapshot.
func CompareSnapshot(snap *Snapshot, asset string, action Action, synonyms SynonymTable) (*ComparisonResult, error) {
	if action != ActionLend && action != ActionBorrow {
		return nil, ErrInvalidAction
	}

	r := &ComparisonResult{
		Asset:  strings.ToUpper(asset),
		Action: action,
	}
	if a := FindEchelonAsset(snap.Echelon, asset); a != nil {
		r.EchelonRaw = a
		r.Echelon = QuoteFromEchelon(snap.Echelon, a)
	}
	if b := FindBroker(snap.Brokers, asset, synonyms); b != nil {
		r.BrokerRaw = b
		r.MovePosition = QuoteFromBroker(b, r.Asset)
	}

	switch {
	case r.HasBoth():
		var echelonRate, moveRate float64
		if action == ActionLend {
			echelonRate = r.Echelon.SupplyRateAPY
			moveRate = r.MovePosition.SupplyRateAPY
			if echelonRate > moveRate {
				r.Winner = ProtocolEchelon
			} else {
				r.Winner = ProtocolMovePosition
			}
		} else {
			echelonRate = r.Echelon.BorrowRate
			moveRate = r.MovePosition.BorrowRate
			if echelonRate < moveRate {
				r.Winner = ProtocolEchelon
			} else {
				r.Winner = ProtocolMovePosition
			}
		}
		r.Difference = echelonRate - moveRate
	case r.Echelon != nil:
		r.Winner = ProtocolEchelon
	case r.MovePosition != nil:
		r.Winner = ProtocolMovePosition
	}
	return r, nil
}

// BestSupplyRate finds the highest APY for one asset, or for every
// market of both protocols when asset is empty. Echelon rates are
// APR-to-APY converted so the ranking is on one basis.
func (s *Service) BestSupplyRate(ctx context.Context, asset string) (*BestRateResult, error) {
	snap := s.Snapshot(ctx)
	return BestSupplyRateSnapshot(snap, asset, s.synonyms)
}

// BestSupplyRateSnapshot is BestSupplyRate against an already-fetched
// snapshot.
func BestSupplyRateSnapshot(snap *Snapshot, asset string, synonyms SynonymTable) (*BestRateResult, error) {
	if snap.Empty() {
		return nil, ErrFeedsUnavailable
	}
	if asset != "" {
		return bestRateForAsset(snap, asset, synonyms)
	}
	return bestRateOverall(snap)
}

func bestRateForAsset(snap *Snapshot, asset string, synonyms SynonymTable) (*BestRateResult, error) {
	r := &BestRateResult{Asset: strings.ToUpper(asset)}

	if a := FindEchelonAsset(snap.Echelon, asset); a != nil {
		apr := a.SupplyAPRPct()
		apy := AprToApy(apr)
		r.AllRates = append(r.AllRates, RateEntry{
			Protocol:      ProtocolEchelon,
			Asset:         a.Symbol,
			AssetName:     a.Name,
			SupplyRate:    apy,
			SupplyRateAPR: &apr,
			RateType:      "APY",
		})
		if apy > r.BestRate {
			r.BestRate = apy
			r.BestProtocol = ProtocolEchelon
			r.BestAsset = a.Symbol
		}
	}
	if b := FindBroker(snap.Brokers, asset, synonyms); b != nil {
		apy := b.SupplyAPY()
		r.AllRates = append(r.AllRates, RateEntry{
			Protocol:   ProtocolMovePosition,
			Asset:      r.Asset,
			AssetName:  b.UnderlyingAsset.Name,
			SupplyRate: apy,
			RateType:   "APY",
		})
		if apy > r.BestRate {
			r.BestRate = apy
			r.BestProtocol = ProtocolMovePosition
			r.BestAsset = r.Asset
		}
	}

	if len(r.AllRates) == 0 {
		return nil, ErrAssetNotFound
	}
	r.TotalCompared = len(r.AllRates)
	return r, nil
}

func bestRateOverall(snap *Snapshot) (*BestRateResult, error) {
	r := &BestRateResult{}

	if snap.Echelon != nil {
		for i := range snap.Echelon.Data.Assets {
			a := &snap.Echelon.Data.Assets[i]
			apr := a.SupplyAPRPct()
			apy := AprToApy(apr)
			if apy > r.BestRate {
				r.BestRate = apy
				r.BestProtocol = ProtocolEchelon
				r.BestAsset = a.Symbol
			}
			r.AllRates = append(r.AllRates, RateEntry{
				Protocol:      ProtocolEchelon,
				Asset:         a.Symbol,
				AssetName:     a.Name,
				SupplyRate:    apy,
				SupplyRateAPR: &apr,
				RateType:      "APY",
			})
		}
	}
	for i := range snap.Brokers {
		b := &snap.Brokers[i]
		symbol := brokerSymbol(b.UnderlyingAsset.Name)
		apy := b.SupplyAPY()
		if apy > r.BestRate {
			r.BestRate = apy
			r.BestProtocol = ProtocolMovePosition
			r.BestAsset = symbol
		}
		r.AllRates = append(r.AllRates, RateEntry{
			Protocol:   ProtocolMovePosition,
			Asset:      symbol,
			AssetName:  b.UnderlyingAsset.Name,
			SupplyRate: apy,
			RateType:   "APY",
		})
	}

	if len(r.AllRates) == 0 {
		return nil, ErrNoRates
	}
	r.TotalCompared = len(r.AllRates)
	return r, nil
}

// brokerSymbol derives a display symbol from a broker name like
// "movement-usdc". MOVE brokers are special-cased because the network
// has both a coin and a fungible-asset variant.
func brokerSymbol(name string) string {
	lower := strings.ToLower(name)
	if strings.Contains(lower, "move") && strings.Contains(lower, "fa") {
		return "MOVE-FA"
	}
	if strings.Contains(lower, "move") {
		return "MOVE"
	}
	symbol := strings.ReplaceAll(name, "movement-", "")
	symbol = strings.ReplaceAll(symbol, "-fa", "")
	return strings.ToUpper(symbol)
}

// Metrics aggregates both protocols from one snapshot. Either side may
// be nil when its feed was unavailable.
func (s *Service) Metrics(ctx context.Context) (echelon, moveposition *ProtocolMetrics) {
	snap := s.Snapshot(ctx)
	return EchelonMetrics(snap.Echelon), MovePositionMetrics(snap.Brokers)
}
