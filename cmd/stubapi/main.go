package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"admitcrm/internal/platform/config"
	"admitcrm/internal/platform/logger"
	"admitcrm/internal/stubapi"
)

// main wires the stub API server and keeps its lifecycle small. All request
// handling lives in internal/stubapi.
func main() {
	cfg := config.StubFromEnv()
	log := logger.New()

	stub, err := stubapi.New(cfg, log)
	if err != nil {
		log.Error("seeding dataset failed", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      stub.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info("starting stub api",
		"addr", cfg.Addr,
		"seed_password", stubapi.SeedPassword,
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown on SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	log.Info("shutting down stub api")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
