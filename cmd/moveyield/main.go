package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/joho/godotenv"

	"github.com/movementfi/moveyield/engine"
	"github.com/movementfi/moveyield/internal/agent"
	"github.com/movementfi/moveyield/internal/config"
	"github.com/movementfi/moveyield/internal/indexer"
	"github.com/movementfi/moveyield/internal/markets"
	"github.com/movementfi/moveyield/internal/server"
)

func main() {
	// .env is optional; deployments set the environment directly.
	godotenv.Load()

	cfg := config.Load()
	if cfg.AnthropicKey == "" {
		log.Fatal("ANTHROPIC_API_KEY environment variable is required")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	log.Println("🚀 Starting MoveYield agent service...")

	svc, err := markets.NewService(markets.ServiceConfig{
		EchelonURL:      cfg.EchelonURL,
		MovePositionURL: cfg.MovePositionURL,
		CacheTTL:        cfg.FeedCacheTTL,
	})
	if err != nil {
		log.Fatalf("❌ Failed to build markets service: %v", err)
	}

	idx := indexer.NewClient(indexer.ResolveURL(cfg.Network, "", cfg.IndexerURL, false))

	registry := engine.NewToolRegistry()
	agent.RegisterAll(registry, &agent.ToolDeps{Markets: svc, Indexer: idx})
	log.Printf("✅ Registered %d tools", len(registry.Names()))

	opts := []engine.Option{
		engine.WithGuardrails(engine.NewRateLimiter(30, time.Minute)),
		engine.WithAudit(engine.LogAuditor{}),
	}
	if cfg.MemoryEnabled {
		mgr, closeMemory, err := newMemoryManager()
		if err != nil {
			log.Fatalf("❌ Failed to configure memory: %v", err)
		}
		defer closeMemory()
		opts = append(opts, engine.WithMemory(mgr))
		log.Println("✅ Memory system enabled (chromem-go)")
	}

	client := anthropic.NewClient(option.WithAPIKey(cfg.AnthropicKey))
	eng := engine.NewEngine(&client, registry, opts...)

	srv := server.New(server.Config{
		Engine:         eng,
		Addr:           ":" + cfg.Port,
		BaseURL:        cfg.BaseURL,
		RequirePayment: cfg.RequirePayment,
		Model:          cfg.Model,
		MaxTokens:      cfg.MaxTokens,
		Logger:         logger,
	})

	log.Printf("🌐 Listening on :%s (payment required: %v)", cfg.Port, cfg.RequirePayment)
	log.Println("   GET  /health")
	log.Println("   GET  /metrics")
	log.Println("   GET  /ws")
	log.Println("   POST /agents/lending/messages")
	log.Println("   POST /agents/balance/messages")

	if err := srv.Run(context.Background()); err != nil {
		log.Fatalf("❌ Server error: %v", err)
	}
}
