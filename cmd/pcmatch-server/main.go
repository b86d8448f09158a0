package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guarzo/pcmatch/internal/api"
	"github.com/guarzo/pcmatch/internal/app"
	"github.com/guarzo/pcmatch/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize price service: %v", err)
	}
	log.Printf("PriceCharting requests spaced %s apart", a.Throttle.Delay())
	stats := a.Cache.Stats()
	log.Printf("Loaded %d cached responses (%d still valid) from %s", stats.Entries, stats.Valid, stats.Path)

	stopSweeper, err := a.StartSweeper()
	if err != nil {
		log.Fatalf("Failed to schedule cache sweep: %v", err)
	}

	router := api.SetupRouter(a.Service, api.RouterConfig{CORSOrigins: cfg.CORSOrigins})

	// Create HTTP server for graceful shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	stopSweeper()

	// A search can wait on the throttle and then on the catalog timeout.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.Throttle.Delay()+cfg.Timeout+5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
