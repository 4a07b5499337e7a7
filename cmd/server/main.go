package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/tamagocat/office-booking-backend/internal/app"
	"github.com/tamagocat/office-booking-backend/internal/config"
	"github.com/tamagocat/office-booking-backend/internal/db"
)

func main() {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Connect DB
	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer pool.Close()

	// Assemble modules
	container, err := app.NewContainer(app.Config{
		DBPool:              pool,
		JWTSecret:           cfg.JWTSecret,
		JWTTTL:              cfg.JWTAccessTokenTTL,
		BcryptCost:          cfg.BcryptCost,
		StoragePath:         cfg.StoragePath,
		SlotDuration:        cfg.SlotDuration,
		OperatingHoursStart: cfg.OperatingHoursStart,
		OperatingHoursEnd:   cfg.OperatingHoursEnd,
		CheckInGrace:        cfg.CheckInGrace,
		SuggestionHorizon:   cfg.SuggestionHorizon,
		SuggestionLimit:     cfg.SuggestionLimit,
	})
	if err != nil {
		log.Fatalf("failed to init application: %v", err)
	}

	// Periodic sweep marking overdue approved/checked-in bookings as completed.
	// Read paths also fold the status lazily; the sweep keeps the table consistent
	// for anything querying it directly.
	sweeper := cron.New()
	if _, err := sweeper.AddFunc(cfg.CompletionSweepSpec, func() {
		sweepCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		n, err := container.BookingService.CompleteOverdue(sweepCtx)
		if err != nil {
			log.Printf("completion sweep failed: %v", err)
			return
		}
		if n > 0 {
			log.Printf("completion sweep: %d bookings completed", n)
		}
	}); err != nil {
		log.Fatalf("failed to schedule completion sweep: %v", err)
	}
	sweeper.Start()

	// Use http.Server for graceful shutdown
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: container.Router,
	}

	// Run server in separate goroutine
	go func() {
		log.Printf("server running on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Wait for Ctrl+C
	<-ctx.Done()
	log.Println("shutdown signal received")

	// Stop scheduling new sweeps and wait for a running one to finish.
	<-sweeper.Stop().Done()

	// Create a shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}

	log.Println("server exited gracefully")
}
