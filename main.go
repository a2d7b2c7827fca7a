package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/exp/slog"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server run error", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped")
}

func run() error {
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		AddSource: false,
		Level:     cfg.LogLevel,
	}))

	slog.SetDefault(logger)

	if cfg.GeneratedSecret {
		slog.Warn("JWT_SECRET_KEY is not set, using a random secret for this process")
	}

	backend, closeBackend, err := openBackend(cfg)
	if err != nil {
		return fmt.Errorf("init the %s store: %w", cfg.StoreDriver, err)
	}
	defer closeBackend.Close()

	store := NewStore(backend)

	// A corrupted document must stop the server before it accepts requests.
	if err := store.View(context.Background(), func(doc *Document) error {
		slog.Info("Document loaded",
			"users", len(doc.Users),
			"posts", len(doc.Posts),
			"tokens", len(doc.Tokens),
		)
		return nil
	}); err != nil {
		return fmt.Errorf("load the document: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := NewAPIServer(store, cfg)
	if err := server.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func openBackend(cfg Config) (Backend, io.Closer, error) {
	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		pg, err := NewPostgreSQLBackend(cfg)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg, nil
	case StoreDriverSQLite:
		lite, err := NewSQLiteBackend(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return lite, lite, nil
	default:
		slog.Info("Using file store", "path", cfg.DataFile)
		return NewFileBackend(cfg.DataFile), nopCloser{}, nil
	}
}
