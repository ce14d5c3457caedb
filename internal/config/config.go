// Package config reads the service configuration from the environment.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config carries everything the binaries need from the environment.
type Config struct {
	Port         string
	AnthropicKey string

	// Model and MaxTokens override the engine defaults when set.
	Model     string
	MaxTokens int64

	// Feed endpoint overrides. Empty uses the mainnet URLs.
	EchelonURL      string
	MovePositionURL string

	// IndexerURL overrides the Movement indexer endpoint; Network
	// selects mainnet or testnet when no override is given.
	IndexerURL string
	Network    string

	// BaseURL is the externally visible URL used in agent cards.
	BaseURL string

	RequirePayment bool
	MemoryEnabled  bool

	// FeedCacheTTL bounds how long a fetched protocol feed is reused.
	// Zero disables the cache.
	FeedCacheTTL time.Duration
}

// Load reads the configuration. Values that fail to parse fall back to
// their defaults with a warning rather than aborting startup.
func Load() Config {
	return Config{
		Port:            envOr("PORT", "8080"),
		AnthropicKey:    os.Getenv("ANTHROPIC_API_KEY"),
		Model:           os.Getenv("MODEL"),
		MaxTokens:       envInt64("MAX_TOKENS", 0),
		EchelonURL:      os.Getenv("ECHELON_API_URL"),
		MovePositionURL: os.Getenv("MOVEPOSITION_API_URL"),
		IndexerURL:      os.Getenv("MOVEMENT_INDEXER_URL"),
		Network:         envOr("MOVEMENT_NETWORK", "mainnet"),
		BaseURL:         os.Getenv("RENDER_EXTERNAL_URL"),
		RequirePayment:  envBool("REQUIRE_PAYMENT", true),
		MemoryEnabled:   envBool("MEMORY_ENABLED", false),
		FeedCacheTTL:    envDuration("FEED_CACHE_TTL", 30*time.Second),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", v)
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid boolean in environment, using default", "key", key, "value", v)
		return fallback
	}
	return b
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("invalid duration in environment, using default", "key", key, "value", v)
		return fallback
	}
	return d
}
