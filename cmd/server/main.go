/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the shift payroll server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, environment, then flags)
  2. Configure structured logging
  3. Open the store (SQLite or PostgreSQL) and migrate
  4. Create the time zone cache and API handler
  5. Start the month-close scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS (override the environment):
  -addr    Listen address (PAYROLL_ADDR, default :8080)
  -db      Database DSN (PAYROLL_DATABASE_URL, default payroll.db)
           Use ":memory:" for an in-memory database,
           postgres://... for PostgreSQL
  -tz      Fallback platform time zone (PAYROLL_TIMEZONE)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

SEE ALSO:
  - config/config.go: Environment variables
  - api/server.go: Router configuration
  - api/scheduler.go: Month close
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/warp/shift-payroll/api"
	"github.com/warp/shift-payroll/calendar"
	"github.com/warp/shift-payroll/config"
	"github.com/warp/shift-payroll/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	// Flags
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	flag.StringVar(&cfg.DatabaseURL, "db", cfg.DatabaseURL, "Database DSN (SQLite path or postgres:// URL)")
	flag.StringVar(&cfg.Timezone, "tz", cfg.Timezone, "Fallback platform time zone")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Initialize store
	st, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	// Initialize handler
	zone := calendar.NewZoneCache(st.TimezoneLoader(cfg.Timezone), cfg.TimezoneTTL)
	handler := api.NewHandler(st, zone, logger)
	handler.Bounds = cfg.Bounds()
	handler.Workers = cfg.Workers

	scheduler := api.NewMonthCloseScheduler(handler)
	scheduler.Enabled = cfg.MonthClose > 0
	if scheduler.Enabled {
		scheduler.CheckInterval = cfg.MonthClose
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Create server
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      api.NewRouter(handler, cfg.AllowedOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			"addr", cfg.Addr,
			"driver", st.Driver(),
			"timezone", cfg.Timezone)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	logger.Info("shutting down server")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
