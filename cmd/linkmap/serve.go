package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"linkmap/core-go/internal/cache"
	"linkmap/core-go/internal/config"
	"linkmap/core-go/internal/db"
	"linkmap/core-go/internal/httpapi"
	"linkmap/core-go/internal/metrics"
	"linkmap/core-go/internal/observability"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API and map model",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.HTTP.Addr = addr
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8081", "Address to listen on")
	return cmd
}

func (a *app) serve(parent context.Context) error {
	cfg, logger := a.cfg, a.log

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, logger)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, logger)

	var pool *db.Pool
	if cfg.Database.URL != "" {
		p, err := db.Open(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer p.Close()
		pool = p

		if cfg.Database.ApplySchema {
			applied, err := pool.ApplySchema(ctx)
			if err != nil {
				return err
			}
			logger.Info().Strs("files", applied).Msg("schema applied")
		}
	} else {
		logger.Warn().Msg("DATABASE_URL not set; serving without storage")
	}

	mapCache, err := newCache(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	defer mapCache.Close()

	h := httpapi.NewHandler(logger, pool,
		httpapi.WithMetrics(metrics.New()),
		httpapi.WithCache(mapCache, cfg.Cache.TTL),
		httpapi.WithMapDefaults(cfg.Map.Options()),
		httpapi.WithMaxUploadBytes(cfg.HTTP.MaxUploadBytes),
		httpapi.WithRequestTimeout(cfg.HTTP.RequestTimeout),
	)
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTP.Addr).Str("cache", cfg.Cache.Backend).Msg("linkmap listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	logger.Info().Msg("shutdown complete")
	return nil
}

// newCache builds the map cache for the configured backend.
func newCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Backend {
	case "", "none":
		return cache.NewNullCache(), nil
	case "memory":
		return cache.NewMemoryCache(cache.WithMaxEntries(cfg.MaxEntries)), nil
	case "redis":
		c, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("connect map cache: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
