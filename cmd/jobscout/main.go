// Package main wires together the job aggregation service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/careerpilot/jobscout/internal/aggregator"
	"github.com/careerpilot/jobscout/internal/api"
	"github.com/careerpilot/jobscout/internal/clock/system"
	"github.com/careerpilot/jobscout/internal/config"
	"github.com/careerpilot/jobscout/internal/fetch"
	"github.com/careerpilot/jobscout/internal/history"
	"github.com/careerpilot/jobscout/internal/logging"
	"github.com/careerpilot/jobscout/internal/ratelimit"
	"github.com/careerpilot/jobscout/internal/scrape/indeed"
	"github.com/careerpilot/jobscout/internal/scrape/internshala"
	"github.com/careerpilot/jobscout/internal/scrape/linkedin"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := system.New()
	fetcher := fetch.New(fetch.Config{
		UserAgent: cfg.Scraper.UserAgent,
		Referer:   cfg.Scraper.Referer,
		Timeout:   cfg.FetchTimeout(),
	}, cfg.Scraper.PolitenessRPS, cfg.Scraper.PolitenessBurst)

	agg := aggregator.New(logger,
		linkedin.New(fetcher, linkedin.Config{
			USDToINR:           cfg.Currency.USDToINR,
			SecondaryThreshold: cfg.Scraper.SecondaryThreshold,
		}, logger),
		indeed.New(fetcher, indeed.Config{
			USDToINR:           cfg.Currency.USDToINR,
			SecondaryThreshold: cfg.Scraper.SecondaryThreshold,
		}, logger),
		internshala.New(fetcher, internshala.Config{
			SecondaryThreshold: cfg.Scraper.SecondaryThreshold,
		}, logger),
	)

	limiter := ratelimit.New(ratelimit.Config{
		Window:      cfg.Window(),
		MaxRequests: cfg.RateLimit.MaxRequests,
	}, clock)
	go pruneLoop(ctx, limiter, cfg.Window())

	hist := buildHistory(ctx, cfg, logger)
	defer hist.Close()

	apiServer := api.NewServer(agg, limiter, hist, clock,
		time.Duration(cfg.Server.TimeoutSeconds)*time.Second, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

// buildHistory selects the Postgres store when a DSN is configured and falls
// back to the in-memory store otherwise.
func buildHistory(ctx context.Context, cfg config.Config, logger *zap.Logger) history.Store {
	if cfg.DB.DSN == "" {
		return history.NewMemoryStore()
	}
	store, err := history.NewPostgresStore(ctx, history.PostgresConfig{
		DSN:      cfg.DB.DSN,
		Table:    cfg.DB.Table,
		MaxConns: cfg.DB.MaxConns,
	})
	if err != nil {
		logger.Warn("postgres history unavailable, using memory store", zap.Error(err))
		return history.NewMemoryStore()
	}
	return store
}

// pruneLoop evicts idle limiter identities once per window.
func pruneLoop(ctx context.Context, limiter *ratelimit.Limiter, window time.Duration) {
	ticker := time.NewTicker(window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Prune()
		}
	}
}
