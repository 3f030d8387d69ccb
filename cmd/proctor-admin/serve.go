package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/pgxstore"
	"github.com/alexedwards/scs/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/examwatch/proctor-admin/internal/auth/providers"
	"github.com/examwatch/proctor-admin/internal/backend"
	"github.com/examwatch/proctor-admin/internal/config"
	httpapp "github.com/examwatch/proctor-admin/internal/http"
	"github.com/examwatch/proctor-admin/internal/http/authn"
	"github.com/examwatch/proctor-admin/internal/metrics"
	"github.com/examwatch/proctor-admin/internal/risk"
)

var serveCmd = &cobra.Command{
	Use:         "serve",
	Short:       "Run the admin dashboard HTTP server.",
	Args:        cobra.NoArgs,
	Annotations: structuredLogAnnotation(),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if parent == nil {
		parent = context.Background()
	}
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := backend.New(cfg.BackendURL, cfg.BackendTimeout)
	if err != nil {
		return err
	}

	var store scs.Store
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		pgStore := pgxstore.New(pool)
		defer pgStore.StopCleanup()
		store = pgStore
		logger.Info("dashboard sessions stored in postgres")
	}
	sessions := authn.NewSessionManager(store, cfg.TokenLifetime, cfg.AuthCookieSecure)

	var boards risk.BoardStore
	if cfg.RedisURL != "" {
		rdb, err := risk.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		boards = risk.NewRedisBoards(rdb, cfg.BoardTTL)
		logger.Info("sessions boards stored in redis")
	} else {
		boards = risk.NewMemoryBoards(cfg.BoardTTL)
	}

	srv, err := httpapp.NewEchoServer(httpapp.Options{
		Config:   cfg,
		Backend:  client,
		Auth:     providers.NewBackendProvider(client, cfg.TokenLifetime),
		Sessions: sessions,
		Risk:     risk.NewAggregator(client, logger),
		Boards:   boards,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	_, metricsErrCh := metrics.StartServer(ctx, cfg.MetricsAddr)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr, "backend", cfg.BackendURL)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return httpServer.Shutdown(shutdownCtx)
	case err := <-metricsErrCh:
		return err
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
