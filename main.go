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

	"github.com/evergreenbh/intake/config"
	"github.com/evergreenbh/intake/internal/adapter/llm"
	"github.com/evergreenbh/intake/internal/adapter/notify"
	"github.com/evergreenbh/intake/internal/extract"
	"github.com/evergreenbh/intake/internal/history"
	"github.com/evergreenbh/intake/internal/policy"
	store "github.com/evergreenbh/intake/internal/repository"
	"github.com/evergreenbh/intake/internal/risk"
	"github.com/evergreenbh/intake/internal/service"
	transport "github.com/evergreenbh/intake/internal/transport/http"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log.Printf("Starting intake service...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Database: %s", cfg.DatabaseURL)
	log.Printf("LLM URL: %s", cfg.LLMBaseURL)

	// Initialize store
	db, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer db.Close()

	// Initialize LLM client
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMTimeout)

	// Initialize clinician notification client
	notifier := notify.NewClient(cfg.NotifyURL)

	// Initialize safety policy engine
	ctx := context.Background()
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		log.Fatalf("Failed to initialize policy engine: %v", err)
	}

	// Initialize core components
	classifier := risk.NewClassifier(risk.DefaultTable)
	extractor := extract.New(llmClient, cfg.LLMModel)
	hist := history.NewManager(db, cfg.ContextWindowSize)

	// Initialize service
	svc := service.New(db, llmClient, notifier, classifier, extractor, hist, policyEngine, cfg)

	// Create HTTP server
	e := transport.NewServer(svc)

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Intake API started on port %d", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down intake service...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown server gracefully: %v", err)
	}

	log.Println("Intake service stopped")
}
