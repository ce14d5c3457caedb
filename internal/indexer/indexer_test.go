package indexer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestResolveURL(t *testing.T) {
	tests := []struct {
		name      string
		network   string
		customURL string
		envURL    string
		useSentio bool
		want      string
	}{
		{name: "sentio wins over everything", network: "testnet", customURL: "https://custom/graphql", envURL: "https://env/graphql", useSentio: true, want: SentioURL},
		{name: "custom beats env", network: "mainnet", customURL: "https://custom/graphql", envURL: "https://env/graphql", want: "https://custom/graphql"},
		{name: "env beats network default", network: "testnet", envURL: "https://env/graphql", want: "https://env/graphql"},
		{name: "testnet default", network: "testnet", want: TestnetURL},
		{name: "mainnet default", network: "mainnet", want: MainnetURL},
		{name: "unknown network falls back to mainnet", network: "devnet", want: MainnetURL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveURL(tt.network, tt.customURL, tt.envURL, tt.useSentio)
			if got != tt.want {
				t.Errorf("ResolveURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		address string
		want    bool
	}{
		{"0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb", true},
		{"0x02d969ad6f7cca2c08226eda6ad8971ca99357ba9f192faed1c4186200b789fa", true},
		{"0x1", true},
		{"0x", false},
		{"0xZZ", false},
		{"742d35cc", false},
		{"", false},
		{"0x12g4", false},
	}
	for _, tt := range tests {
		if got := ValidateAddress(tt.address); got != tt.want {
			t.Errorf("ValidateAddress(%q) = %v, want %v", tt.address, got, tt.want)
		}
	}
}

func TestFormatBalance(t *testing.T) {
	tests := []struct {
		amount   Amount
		decimals int
		want     string
	}{
		{"123456789", 6, "123.456789"},
		{"1000000000000000000", 18, "1.000000"},
		{"500", 8, "0.000005"},
		{"13", 8, "0.000000"},
		{"0", 6, "0.000000"},
		{"not-a-number", 6, "not-a-number"},
	}
	for _, tt := range tests {
		if got := FormatBalance(tt.amount, tt.decimals); got != tt.want {
			t.Errorf("FormatBalance(%q, %d) = %q, want %q", tt.amount, tt.decimals, got, tt.want)
		}
	}
}

func TestMetadataDecimalsTolerance(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"numeric decimals", `{"name":"USD Coin","symbol":"USDC","decimals":6}`, 6},
		{"string decimals", `{"name":"Move","symbol":"MOVE","decimals":"8"}`, 8},
		{"missing decimals", `{"name":"Mystery","symbol":"MYS"}`, DefaultDecimals},
		{"garbage decimals", `{"name":"Odd","symbol":"ODD","decimals":"lots"}`, DefaultDecimals},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Metadata
			if err := json.Unmarshal([]byte(tt.in), &m); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if m.Decimals != tt.want {
				t.Errorf("Decimals = %d, want %d", m.Decimals, tt.want)
			}
		})
	}
}

const balancesFixture = `{
  "data": {
    "current_fungible_asset_balances": [
      {
        "asset_type": "0x1::aptos_coin::AptosCoin",
        "amount": "250000000",
        "last_transaction_timestamp": "2025-06-01T12:00:00",
        "metadata": {"name": "Move Coin", "symbol": "MOVE", "decimals": 8}
      },
      {
        "asset_type": "0xabc::usdc::USDC",
        "amount": 1500000,
        "last_transaction_timestamp": "2025-06-02T08:30:00",
        "metadata": {"name": "USD Coin", "symbol": "USDC", "decimals": "6"}
      },
      {
        "asset_type": "0xdef::mystery::Token",
        "amount": "42",
        "last_transaction_timestamp": "2025-06-03T00:00:00",
        "metadata": null
      }
    ]
  }
}`

func TestFetchBalances(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(balancesFixture))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	balances, err := client.FetchBalances(context.Background(), "0xabc123")
	if err != nil {
		t.Fatalf("FetchBalances: %v", err)
	}

	var req struct {
		Query     string            `json:"query"`
		Variables map[string]string `json:"variables"`
	}
	if err := json.Unmarshal(gotBody, &req); err != nil {
		t.Fatalf("request body: %v", err)
	}
	if !strings.Contains(req.Query, "current_fungible_asset_balances") {
		t.Errorf("query missing balances selection: %s", req.Query)
	}
	if req.Variables["ownerAddress"] != "0xabc123" {
		t.Errorf("ownerAddress = %q, want 0xabc123", req.Variables["ownerAddress"])
	}

	if len(balances) != 3 {
		t.Fatalf("got %d balances, want 3", len(balances))
	}
	if balances[0].Amount != "250000000" || balances[0].Metadata.Decimals != 8 {
		t.Errorf("string amount row parsed as %+v", balances[0])
	}
	if got := balances[0].Formatted(); got != "2.500000" {
		t.Errorf("Formatted() = %q, want 2.500000", got)
	}
	if balances[1].Amount != "1500000" {
		t.Errorf("numeric amount decoded as %q, want 1500000", balances[1].Amount)
	}
	if got := balances[1].Formatted(); got != "1.500000" {
		t.Errorf("Formatted() = %q, want 1.500000", got)
	}
	if balances[2].Metadata.Decimals != DefaultDecimals {
		t.Errorf("null metadata decimals = %d, want %d", balances[2].Metadata.Decimals, DefaultDecimals)
	}
}

func TestFetchBalancesForbidden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"errors":[{"message":"access denied"}]}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).FetchBalances(context.Background(), "0xabc")
	if err == nil {
		t.Fatal("expected error on 403")
	}
	if !strings.Contains(err.Error(), "Forbidden") {
		t.Errorf("error = %q, want Forbidden prefix", err)
	}
	if !strings.Contains(err.Error(), "access denied") {
		t.Errorf("error = %q, want embedded detail", err)
	}
}

func TestFetchBalancesGraphQLErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"errors":[{"message":"field not found"}]}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).FetchBalances(context.Background(), "0xabc")
	if err == nil {
		t.Fatal("expected error on GraphQL errors")
	}
	if !strings.Contains(err.Error(), "GraphQL errors") {
		t.Errorf("error = %q, want GraphQL errors prefix", err)
	}
}

func TestFetchBalancesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).FetchBalances(context.Background(), "0xabc")
	if err == nil || !strings.Contains(err.Error(), "status 502") {
		t.Errorf("error = %v, want status 502", err)
	}
}

func TestBalanceValue(t *testing.T) {
	b := Balance{Amount: "13", Metadata: Metadata{Decimals: 8}}
	v, ok := b.Value()
	if !ok {
		t.Fatal("Value() not ok for numeric amount")
	}
	if v < 0.00000012 || v > 0.00000014 {
		t.Errorf("Value() = %v, want ~1.3e-7", v)
	}

	bad := Balance{Amount: "nope", Metadata: Metadata{Decimals: 8}}
	if _, ok := bad.Value(); ok {
		t.Error("Value() ok for unparseable amount")
	}
}
