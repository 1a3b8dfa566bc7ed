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

	"github.com/cardclash/battle-sim/internal/archive"
	"github.com/cardclash/battle-sim/internal/catalog"
	"github.com/cardclash/battle-sim/internal/config"
	"github.com/cardclash/battle-sim/internal/game"
	"github.com/cardclash/battle-sim/internal/stream"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting replay stream server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cat *catalog.Catalog
	if cfg.Catalog.Path == "" {
		cat, err = catalog.Starter()
	} else {
		cat, err = catalog.Load(cfg.Catalog.Path)
	}
	if err != nil {
		logger.Fatal("failed to load catalog", zap.Error(err))
	}
	logger.Info("catalog loaded",
		zap.Int("cards", len(cat.Cards())),
		zap.Strings("decks", cat.DeckNames()),
	)

	store, err := archive.Open(ctx, cfg.Archive, logger)
	if err != nil {
		logger.Fatal("failed to open archive", zap.Error(err))
	}
	defer store.Close()
	if store.Source == nil {
		logger.Warn("no archive sink configured; replay requests disabled")
	}

	srv := stream.NewServer(
		game.NewEngine(logger, game.WithRules(cfg.Rules)),
		cat,
		store.Source,
		store.Archive,
		stream.Options{
			StepInterval: cfg.Stream.StepInterval,
			WriteTimeout: cfg.Stream.WriteTimeout,
			MaxSteps:     cfg.Match.MaxSteps,
		},
		logger,
	)
	httpServer := &http.Server{
		Addr:              cfg.Stream.Address,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("address", cfg.Stream.Address))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
	logger.Info("server stopped")
}
