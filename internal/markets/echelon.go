package markets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultEchelonURL serves every Echelon market on Movement mainnet in a
// single response.
const DefaultEchelonURL = "https://app.echelon.market/api/markets?network=movement_mainnet"

// EchelonAsset is one market row from the Echelon API. Rates arrive as
// decimal fractions (0.05 means 5% APR) and prices in USD.
type EchelonAsset struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	SupplyAPR float64 `json:"supplyApr"`
	BorrowAPR float64 `json:"borrowApr"`
	Price     float64 `json:"price"`
	Market    string  `json:"market"`
	Address   string  `json:"address"`
	FAAddress string  `json:"faAddress"`
	LTV       float64 `json:"ltv"`
	LT        float64 `json:"lt"`
}

// SupplyAPRPct returns the supply rate as a percentage, clamped at zero.
func (a *EchelonAsset) SupplyAPRPct() float64 {
	if a.SupplyAPR < 0 {
		return 0
	}
	return a.SupplyAPR * 100
}

// BorrowAPRPct returns the borrow rate as a percentage, clamped at zero.
func (a *EchelonAsset) BorrowAPRPct() float64 {
	if a.BorrowAPR < 0 {
		return 0
	}
	return a.BorrowAPR * 100
}

// MarketTotals holds the share and cash balances of one Echelon market,
// denominated in the asset's native units.
type MarketTotals struct {
	TotalShares    float64 `json:"totalShares"`
	TotalLiability float64 `json:"totalLiability"`
	TotalCash      float64 `json:"totalCash"`
}

// MarketStat is one entry of the marketStats array, which the API encodes
// as a two-element [address, totals] pair rather than an object.
type MarketStat struct {
	Address string
	Totals  MarketTotals
}

func (s *MarketStat) UnmarshalJSON(b []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("market stat: expected [address, totals] pair, got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &s.Address); err != nil {
		return fmt.Errorf("market stat address: %w", err)
	}
	if err := json.Unmarshal(pair[1], &s.Totals); err != nil {
		return fmt.Errorf("market stat totals: %w", err)
	}
	return nil
}

// EchelonData is the payload under the response's "data" key.
type EchelonData struct {
	Assets      []EchelonAsset `json:"assets"`
	MarketStats []MarketStat   `json:"marketStats"`
}

// EchelonFeed is the full markets response.
type EchelonFeed struct {
	Data EchelonData `json:"data"`
}

// StatsFor finds the market totals for an asset. Stats rows key on a
// market address that may match the asset's coin address, fungible-asset
// address, or market object address, so all three are tried.
func (f *EchelonFeed) StatsFor(a *EchelonAsset) (MarketTotals, bool) {
	for _, s := range f.Data.MarketStats {
		if s.Address == a.Address || s.Address == a.FAAddress || s.Address == a.Market {
			return s.Totals, true
		}
	}
	return MarketTotals{}, false
}

// EchelonClient fetches market data from the Echelon API.
type EchelonClient struct {
	url        string
	httpClient *http.Client
}

// NewEchelonClient returns a client for the given API URL, falling back
// to the Movement mainnet endpoint when url is empty.
func NewEchelonClient(url string) *EchelonClient {
	if url == "" {
		url = DefaultEchelonURL
	}
	return &EchelonClient{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// FetchMarkets retrieves the current markets snapshot.
func (c *EchelonClient) FetchMarkets(ctx context.Context) (*EchelonFeed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating echelon request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching echelon markets: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("echelon API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading echelon response: %w", err)
	}

	var feed EchelonFeed
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("parsing echelon response: %w", err)
	}

	return &feed, nil
}
