package markets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// DefaultMovePositionURL lists every MovePosition broker on Movement
// mainnet.
const DefaultMovePositionURL = "https://api.moveposition.xyz/brokers"

// UnderlyingAsset describes the token a broker lends out. Broker names
// follow a "movement-usdc" style naming scheme rather than plain symbols.
type UnderlyingAsset struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Decimals int     `json:"decimals"`
}

// Broker is one MovePosition lending pool. Utilization and the two rate
// fields are decimal fractions. The scaled liquidity fields arrive as
// strings in the asset's display units.
type Broker struct {
	UnderlyingAsset          UnderlyingAsset `json:"underlyingAsset"`
	Utilization              float64         `json:"utilization"`
	InterestRate             float64         `json:"interestRate"`
	InterestFeeRate          float64         `json:"interestFeeRate"`
	ScaledAvailableLiquidity string          `json:"scaledAvailableLiquidityUnderlying"`
	ScaledTotalBorrowed      string          `json:"scaledTotalBorrowedUnderlying"`
}

// parseScaled converts a string-encoded token amount to a float, treating
// anything malformed as zero.
func parseScaled(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// AvailableUnderlying returns the broker's idle liquidity in token units.
func (b *Broker) AvailableUnderlying() float64 {
	return parseScaled(b.ScaledAvailableLiquidity)
}

// BorrowedUnderlying returns the broker's outstanding borrows in token
// units.
func (b *Broker) BorrowedUnderlying() float64 {
	return parseScaled(b.ScaledTotalBorrowed)
}

// SuppliedUnderlying returns the total deposits backing the broker, the
// sum of idle liquidity and outstanding borrows.
func (b *Broker) SuppliedUnderlying() float64 {
	return b.AvailableUnderlying() + b.BorrowedUnderlying()
}

// SupplyAPY returns the depositor's effective yield as a percentage.
// MovePosition interest already compounds, so no APR conversion applies:
// suppliers earn the borrow interest scaled by utilization, less the
// protocol's fee cut. Negative inputs and a fee at or above 100% both
// yield zero.
func (b *Broker) SupplyAPY() float64 {
	if b.Utilization < 0 || b.InterestRate < 0 || b.InterestFeeRate < 0 {
		return 0
	}
	if b.InterestFeeRate >= 1.0 {
		return 0
	}
	return b.Utilization * b.InterestRate * (1 - b.InterestFeeRate) * 100
}

// BorrowAPRPct returns the borrower's rate as a percentage, clamped at
// zero.
func (b *Broker) BorrowAPRPct() float64 {
	if b.InterestRate < 0 {
		return 0
	}
	return b.InterestRate * 100
}

// MovePositionClient fetches broker data from the MovePosition API.
type MovePositionClient struct {
	url        string
	httpClient *http.Client
}

// NewMovePositionClient returns a client for the given API URL, falling
// back to the mainnet endpoint when url is empty.
func NewMovePositionClient(url string) *MovePositionClient {
	if url == "" {
		url = DefaultMovePositionURL
	}
	return &MovePositionClient{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// FetchBrokers retrieves the current broker list.
func (c *MovePositionClient) FetchBrokers(ctx context.Context) ([]Broker, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating moveposition request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching moveposition brokers: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("moveposition API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading moveposition response: %w", err)
	}

	var brokers []Broker
	if err := json.Unmarshal(body, &brokers); err != nil {
		return nil, fmt.Errorf("parsing moveposition response: %w", err)
	}

	return brokers, nil
}
