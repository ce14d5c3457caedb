// Package indexer queries the Movement Network indexer for fungible
// asset balances over its GraphQL API.
package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Known indexer endpoints. Sentio is a third-party mirror that tends to
// be reachable when the foundation endpoints restrict access.
const (
	MainnetURL = "https://indexer.mainnet.movementnetwork.xyz/v1/graphql"
	TestnetURL = "https://indexer.testnet.movementnetwork.xyz/v1/graphql"
	SentioURL  = "https://rpc.sentio.xyz/movement-indexer/v1/graphql"
)

// DefaultDecimals applies when a token's metadata is missing or does not
// carry a usable decimals value.
const DefaultDecimals = 18

const balancesQuery = `
query GetUserTokenBalances($ownerAddress: String!) {
  current_fungible_asset_balances(
    where: {
      owner_address: {_eq: $ownerAddress},
      amount: {_gt: 0}
    }
  ) {
    asset_type
    amount
    last_transaction_timestamp
    metadata {
      name
      symbol
      decimals
    }
  }
}
`

// ResolveURL picks the indexer endpoint for a request. useSentio wins
// outright, then an explicit custom URL, then the caller's environment
// value, then the network's default endpoint (mainnet unless "testnet").
func ResolveURL(network, customURL, envURL string, useSentio bool) string {
	if useSentio {
		return SentioURL
	}
	if customURL != "" {
		return customURL
	}
	if envURL != "" {
		return envURL
	}
	if network == "testnet" {
		return TestnetURL
	}
	return MainnetURL
}

// ValidateAddress reports whether address looks like a Movement or
// Ethereum style hex address: a 0x prefix followed by at least one hex
// character. Length is not checked beyond that, since Movement addresses
// may be written with leading zeros stripped.
func ValidateAddress(address string) bool {
	if !strings.HasPrefix(address, "0x") {
		return false
	}
	if len(address) < 3 {
		return false
	}
	for i := 2; i < len(address); i++ {
		c := address[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// Amount is a raw token amount in base units. The indexer serves it as a
// JSON string, but some deployments return a bare number, so both decode.
type Amount string

func (a *Amount) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	}
	*a = Amount(bytes.TrimSpace(data))
	return nil
}

// Metadata describes the token behind a balance row. Decimals tolerates
// both numeric and string encodings and falls back to DefaultDecimals.
type Metadata struct {
	Name     string
	Symbol   string
	Decimals int
}

func (m *Metadata) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		m.Decimals = DefaultDecimals
		return nil
	}
	var raw struct {
		Name     string          `json:"name"`
		Symbol   string          `json:"symbol"`
		Decimals json.RawMessage `json:"decimals"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Name = raw.Name
	m.Symbol = raw.Symbol
	m.Decimals = parseDecimals(raw.Decimals)
	return nil
}

func parseDecimals(raw json.RawMessage) int {
	if len(raw) == 0 || string(raw) == "null" {
		return DefaultDecimals
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return DefaultDecimals
}

// Balance is one fungible asset balance row for an address.
type Balance struct {
	AssetType                string   `json:"asset_type"`
	Amount                   Amount   `json:"amount"`
	LastTransactionTimestamp string   `json:"last_transaction_timestamp"`
	Metadata                 Metadata `json:"metadata"`
}

// Formatted returns the balance scaled by its token's decimals, fixed to
// six decimal places.
func (b *Balance) Formatted() string {
	return FormatBalance(b.Amount, b.Metadata.Decimals)
}

// Value returns the balance as a float in display units. The second
// return is false when the raw amount does not parse.
func (b *Balance) Value() (float64, bool) {
	d, err := decimal.NewFromString(string(b.Amount))
	if err != nil {
		return 0, false
	}
	return d.Shift(int32(-b.Metadata.Decimals)).InexactFloat64(), true
}

// FormatBalance scales a raw base-unit amount down by decimals and
// renders it with six decimal places. An unparseable amount comes back
// verbatim so the caller still has something to show.
func FormatBalance(amount Amount, decimals int) string {
	d, err := decimal.NewFromString(string(amount))
	if err != nil {
		return string(amount)
	}
	return d.Shift(int32(-decimals)).StringFixed(6)
}

type graphqlRequest struct {
	Query     string            `json:"query"`
	Variables map[string]string `json:"variables"`
}

type balancesResponse struct {
	Data struct {
		Balances []Balance `json:"current_fungible_asset_balances"`
	} `json:"data"`
	Errors []json.RawMessage `json:"errors"`
}

// Client queries one Movement indexer endpoint.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient returns a client for the given GraphQL endpoint, falling
// back to the mainnet indexer when url is empty.
func NewClient(url string) *Client {
	if url == "" {
		url = MainnetURL
	}
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// URL returns the endpoint the client queries.
func (c *Client) URL() string {
	return c.url
}

// FetchBalances returns every nonzero fungible asset balance held by
// address. The indexer filters zero balances server side.
func (c *Client) FetchBalances(ctx context.Context, address string) ([]Balance, error) {
	body, err := json.Marshal(graphqlRequest{
		Query:     balancesQuery,
		Variables: map[string]string{"ownerAddress": address},
	})
	if err != nil {
		return nil, fmt.Errorf("encoding balances query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating indexer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying movement indexer: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading indexer response: %w", err)
	}
	if resp.StatusCode == http.StatusForbidden {
		return nil, forbiddenError(raw)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("indexer API returned status %d", resp.StatusCode)
	}

	var decoded balancesResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("parsing indexer response: %w", err)
	}
	if len(decoded.Errors) > 0 {
		detail, _ := json.Marshal(decoded.Errors)
		return nil, fmt.Errorf("GraphQL errors: %s", detail)
	}
	return decoded.Data.Balances, nil
}

// forbiddenError surfaces a 403 with whatever detail the endpoint gave,
// since the foundation indexers reject unauthenticated callers this way.
func forbiddenError(body []byte) error {
	const base = "Forbidden - The indexer endpoint may require authentication or have access restrictions."
	var decoded struct {
		Errors []json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(body, &decoded); err == nil && len(decoded.Errors) > 0 {
		detail, _ := json.Marshal(decoded.Errors)
		return fmt.Errorf("%s Details: %s", base, detail)
	}
	snippet := body
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	return fmt.Errorf("%s Response: %s", base, snippet)
}
