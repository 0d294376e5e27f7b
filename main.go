package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/feastline/concierge/internal/adapter/engine"
	"github.com/feastline/concierge/internal/capability"
	"github.com/feastline/concierge/internal/config"
	"github.com/feastline/concierge/internal/memory"
	"github.com/feastline/concierge/internal/orchestrator"
	"github.com/feastline/concierge/internal/provider"
	"github.com/feastline/concierge/internal/repository"
	"github.com/feastline/concierge/internal/service"
	transport "github.com/feastline/concierge/internal/transport/http"
	"github.com/feastline/concierge/internal/workflow"
	"github.com/feastline/concierge/policy"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log.Printf("Starting concierge...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Database: %s", cfg.DatabaseURL)
	log.Printf("Model: %s", cfg.AnthropicModel)

	if cfg.AnthropicAPIKey == "" {
		log.Fatal("ANTHROPIC_API_KEY is required")
	}

	// Initialize store
	db, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer db.Close()

	// Initialize policy engine for refund screening
	ctx := context.Background()
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		log.Fatalf("Failed to initialize policy engine: %v", err)
	}

	// Initialize food data provider
	food := provider.NewClient(cfg.ProviderBaseURL, cfg.ProviderTimeout)

	// Initialize capability registry
	registry := capability.NewRegistry()
	err = capability.RegisterAll(registry, capability.Deps{
		Food:             food,
		Orders:           db,
		Workflows:        workflow.NewStore(),
		Screen:           policyEngine,
		Vision:           engine.NewVision(cfg.AnthropicAPIKey, cfg.AnthropicModel),
		DefaultLatitude:  cfg.DefaultLatitude,
		DefaultLongitude: cfg.DefaultLongitude,
	})
	if err != nil {
		log.Fatalf("Failed to register capabilities: %v", err)
	}

	// Initialize reasoning engine and orchestrator
	eng := engine.NewAnthropic(cfg.AnthropicAPIKey, cfg.AnthropicModel, registry, cfg.MaxEngineSteps)
	orch := orchestrator.New(eng)

	// Initialize service
	svc := service.New(db, orch, memory.New(cfg.MemoryWindow), food, cfg)

	// Create HTTP server
	server := transport.NewServer(svc)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("API started on port %d", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down concierge...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown server gracefully: %v", err)
	}

	log.Println("Concierge stopped")
}
