// streamprobe connects to the streaming endpoint and prints parsed updates
// to the console.
//
// Usage: go run ./cmd/streamprobe --config configs/marketd.local.yaml
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cryptodash/marketdata/internal/config"
	"github.com/cryptodash/marketdata/internal/stream"
)

func main() {
	configPath := flag.String("config", "configs/marketd.local.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "print full update JSON")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Stream.URL == "" {
		logger.Error("no stream url configured")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	session := stream.NewSession(stream.SessionConfig{
		URL:                  cfg.Stream.URL,
		APIKey:               cfg.Upstream.APIKey,
		MaxReconnectAttempts: cfg.Stream.MaxReconnectAttempts,
		ReconnectDelay:       cfg.Stream.ReconnectDelay,
		PingTimeout:          cfg.Stream.PingTimeout,
		WriteTimeout:         cfg.Stream.WriteTimeout,
	}, logger)

	session.Subscribe(func(u stream.Update) {
		if *verbose {
			var pretty json.RawMessage = u.Data
			data, _ := json.MarshalIndent(pretty, "", "  ")
			fmt.Printf("[%s] %s\n", u.Type, data)
		} else {
			fmt.Printf("[%s] received_at=%s bytes=%d\n",
				u.Type, u.ReceivedAt.Format(time.RFC3339Nano), len(u.Data))
		}
	})

	if err := session.Connect(ctx); err != nil {
		logger.Error("failed to start session", "error", err)
		os.Exit(1)
	}

	// Stats printer
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats := session.Stats()
				logger.Info("stats",
					"state", stats.State.String(),
					"delivered", stats.Delivered,
					"parse_errors", stats.ParseErrors,
					"skipped", stats.Skipped,
				)
			}
		}
	}()

	logger.Info("streaming started - press Ctrl+C to stop")

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	logger.Info("shutting down...")
	session.Close(shutdownCtx)
	logger.Info("shutdown complete")
}
