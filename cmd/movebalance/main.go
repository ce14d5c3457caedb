package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/movementfi/moveyield/internal/indexer"
)

// Prints every fungible asset balance for a Movement address, read from
// the network's indexer GraphQL API.
//
// Usage:
//
//	movebalance [flags] <address>
func main() {
	network := flag.String("network", "", "network to use: mainnet or testnet (default: MOVEMENT_NETWORK or mainnet)")
	indexerURL := flag.String("indexer-url", "", "custom Movement Indexer GraphQL URL (overrides network setting)")
	useSentio := flag.Bool("use-sentio", false, "use the Sentio third-party indexer (may be more accessible)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: movebalance [flags] <address>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	address := flag.Arg(0)

	if *network != "" && *network != "mainnet" && *network != "testnet" {
		fmt.Fprintf(os.Stderr, "Error: invalid network %q (use mainnet or testnet)\n", *network)
		os.Exit(2)
	}

	godotenv.Load()

	if !indexer.ValidateAddress(address) {
		fmt.Printf("Error: Invalid address format: %s\n", address)
		fmt.Println("Address must start with 0x and contain valid hexadecimal characters")
		os.Exit(1)
	}

	net := *network
	if net == "" {
		net = os.Getenv("MOVEMENT_NETWORK")
	}
	if net == "" {
		net = "mainnet"
	}

	url := indexer.ResolveURL(net, *indexerURL, os.Getenv("MOVEMENT_INDEXER_URL"), *useSentio)
	fmt.Printf("Using Movement Indexer: %s\n", url)
	fmt.Printf("Network: %s\n", net)
	fmt.Println()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	balances, err := indexer.NewClient(url).FetchBalances(ctx, address)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	printBalances(address, balances)
}

func printBalances(address string, balances []indexer.Balance) {
	fmt.Printf("Address: %s\n", address)
	if len(balances) == 0 {
		fmt.Println("No balances found (all balances are 0)")
		return
	}
	fmt.Printf("Found %d token balance(s):\n\n", len(balances))

	for i, b := range balances {
		name := b.Metadata.Name
		if name == "" {
			name = "Unknown"
		}
		symbol := b.Metadata.Symbol
		if symbol == "" {
			symbol = "Unknown"
		}
		fmt.Printf("%d. %s (%s)\n", i+1, name, symbol)
		fmt.Printf("   Asset Type: %s\n", b.AssetType)
		fmt.Printf("   Balance: %s %s\n", b.Formatted(), symbol)
		fmt.Printf("   Amount (raw): %s\n", b.Amount)
		if b.LastTransactionTimestamp != "" {
			fmt.Printf("   Last Transaction: %s\n", b.LastTransactionTimestamp)
		}
		fmt.Println()
	}
}
