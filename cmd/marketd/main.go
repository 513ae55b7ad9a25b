package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cryptodash/marketdata/internal/cache"
	"github.com/cryptodash/marketdata/internal/config"
	"github.com/cryptodash/marketdata/internal/database"
	"github.com/cryptodash/marketdata/internal/fetch"
	"github.com/cryptodash/marketdata/internal/model"
	"github.com/cryptodash/marketdata/internal/poller"
	"github.com/cryptodash/marketdata/internal/ratelimit"
	"github.com/cryptodash/marketdata/internal/service"
	"github.com/cryptodash/marketdata/internal/stream"
	"github.com/cryptodash/marketdata/internal/upstream"
	"github.com/cryptodash/marketdata/internal/version"
	"github.com/cryptodash/marketdata/internal/writer"
)

func main() {
	configPath := flag.String("config", "configs/marketd.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting marketd",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"upstream_url", cfg.Upstream.RestURL,
		"stream_url", cfg.Stream.URL,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Upstream REST client
	client := upstream.NewClient(cfg.Upstream.RestURL,
		upstream.WithAPIKey(cfg.Upstream.APIKey),
		upstream.WithTimeout(cfg.Upstream.Timeout),
		upstream.WithLogger(logger),
	)

	// TTL cache
	store := cache.NewStore(cache.Config{
		TTLs: map[cache.Category]time.Duration{
			cache.CategoryMarketData: cfg.Cache.MarketDataTTL,
			cache.CategoryTrades:     cfg.Cache.TradesTTL,
			cache.CategoryPortfolio:  cfg.Cache.PortfolioTTL,
			cache.CategoryRisk:       cfg.Cache.RiskTTL,
		},
		DefaultTTL:    cfg.Cache.MarketDataTTL,
		SweepInterval: cfg.Cache.SweepInterval,
	}, logger)
	if err := store.Start(ctx); err != nil {
		logger.Error("failed to start cache", "error", err)
		os.Exit(1)
	}
	defer stopComponent(store.Stop)

	// Rate-limited historical fetcher
	limiter := ratelimit.New(ratelimit.Config{
		MaxRequests:   cfg.RateLimit.MaxRequests,
		ResetInterval: cfg.RateLimit.ResetInterval,
	}, logger)
	fetcher := fetch.New(limiter, client, store, logger)

	// Streaming session
	var session *stream.Session
	if cfg.Stream.URL != "" {
		session = stream.NewSession(stream.SessionConfig{
			URL:                  cfg.Stream.URL,
			APIKey:               cfg.Upstream.APIKey,
			MaxReconnectAttempts: cfg.Stream.MaxReconnectAttempts,
			ReconnectDelay:       cfg.Stream.ReconnectDelay,
			PingTimeout:          cfg.Stream.PingTimeout,
			WriteTimeout:         cfg.Stream.WriteTimeout,
		}, logger)

		if err := session.Connect(ctx); err != nil {
			logger.Error("failed to start stream session", "error", err)
			os.Exit(1)
		}
		defer stopComponent(session.Close)
	}

	// Time-series persistence, enabled when a database is configured
	var db *pgxpool.Pool
	if cfg.Database.Timescale.Host != "" {
		logger.Info("connecting to database",
			"host", cfg.Database.Timescale.Host,
			"port", cfg.Database.Timescale.Port,
			"database", cfg.Database.Timescale.Name,
		)

		db, err = database.Connect(ctx, cfg.Database.Timescale)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		logger.Info("database connected")

		writerCfg := writer.Config{
			BatchSize:     cfg.Writers.BatchSize,
			FlushInterval: cfg.Writers.FlushInterval,
			BufferSize:    cfg.Writers.BufferSize,
		}

		tradeBuf := writer.NewBuffer[model.Trade](writerCfg.BufferSize)
		tickBuf := writer.NewBuffer[model.MarketData](writerCfg.BufferSize)

		tradeWriter := writer.NewTradeWriter(writerCfg, tradeBuf, db, logger)
		if err := tradeWriter.Start(ctx); err != nil {
			logger.Error("failed to start trade writer", "error", err)
			os.Exit(1)
		}
		defer stopComponent(tradeWriter.Stop)

		tickWriter := writer.NewTickWriter(writerCfg, tickBuf, db, logger)
		if err := tickWriter.Start(ctx); err != nil {
			logger.Error("failed to start tick writer", "error", err)
			os.Exit(1)
		}
		defer stopComponent(tickWriter.Stop)

		if session != nil {
			feed := writer.NewFeed(tradeBuf, tickBuf, logger)
			defer session.Subscribe(feed.Handler())()
		}
	}

	// Consumer service
	var streamer service.Streamer
	if session != nil {
		streamer = session
	}
	svc := service.New(client, store, streamer, logger)
	if err := svc.Start(ctx); err != nil {
		logger.Error("failed to start service", "error", err)
		os.Exit(1)
	}
	defer stopComponent(svc.Stop)

	// Snapshot poller, enabled when symbols are configured
	if len(cfg.Poll.Symbols) > 0 {
		p := poller.New(poller.Config{
			Interval:    cfg.Poll.Interval,
			Concurrency: cfg.Poll.Concurrency,
			Timeout:     cfg.Poll.Timeout,
			Symbols:     cfg.Poll.Symbols,
		}, svc, nil, logger)

		if err := p.Start(ctx); err != nil {
			logger.Error("failed to start poller", "error", err)
			os.Exit(1)
		}
		defer stopComponent(p.Stop)
	}

	// Health server
	healthServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Instance.HealthPort),
		Handler: createHealthHandler(svc, session, store, fetcher, cfg, db, logger),
	}
	go func() {
		logger.Info("starting health server", "port", cfg.Instance.HealthPort)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	logger.Info("marketd running",
		"instance_id", cfg.Instance.ID,
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Instance.HealthPort),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	healthServer.Shutdown(shutdownCtx)

	logger.Info("marketd stopped")
}

// stopComponent runs one Stop function with a bounded shutdown context.
func stopComponent(stop func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	stop(ctx)
}

// createHealthHandler exposes service health and a candle debug endpoint.
func createHealthHandler(
	svc *service.Service,
	session *stream.Session,
	store *cache.Store,
	fetcher *fetch.Fetcher,
	cfg *config.ServiceConfig,
	db *pgxpool.Pool,
	logger *slog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := svc.Status()
		health := struct {
			Status     string         `json:"status"`
			Components map[string]any `json:"components"`
		}{
			Status:     string(status.Health),
			Components: make(map[string]any),
		}

		if session != nil {
			stats := session.Stats()
			health.Components["stream"] = map[string]any{
				"state":        stats.State.String(),
				"subscribers":  stats.Subscribers,
				"delivered":    stats.Delivered,
				"parse_errors": stats.ParseErrors,
			}
		}

		cacheStats := store.Stats()
		health.Components["cache"] = map[string]any{
			"entries": cacheStats.Entries,
			"hits":    cacheStats.Hits,
			"misses":  cacheStats.Misses,
		}

		fetchStats := fetcher.Stats()
		health.Components["fetcher"] = map[string]any{
			"fetches":    fetchStats.Fetches,
			"cache_hits": fetchStats.CacheHits,
			"errors":     fetchStats.Errors,
		}

		if db != nil {
			if err := db.Ping(ctx); err != nil {
				health.Status = string(service.HealthOffline)
				health.Components["timescaledb"] = map[string]string{
					"status": "disconnected",
					"error":  err.Error(),
				}
			} else {
				health.Components["timescaledb"] = "connected"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == string(service.HealthOffline) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	mux.HandleFunc("/debug/candles", func(w http.ResponseWriter, r *http.Request) {
		intervalID := r.URL.Query().Get("interval")
		iv, ok := cfg.RateLimit.Interval(intervalID)
		if !ok {
			http.Error(w, "unknown interval", http.StatusBadRequest)
			return
		}

		days := 1
		if d, err := strconv.Atoi(r.URL.Query().Get("days")); err == nil && d > 0 {
			days = d
		}

		req := upstream.ChartRequest{
			CoinID:     r.URL.Query().Get("coin"),
			VsCurrency: "usd",
			Days:       days,
		}
		if req.CoinID == "" {
			http.Error(w, "missing coin", http.StatusBadRequest)
			return
		}

		candles, err := fetcher.FetchInterval(r.Context(), iv, req)
		if err != nil {
			logger.Warn("candle fetch failed", "error", err)
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"interval": iv.ID,
			"count":    len(candles),
			"candles":  candles,
		})
	})

	return mux
}
