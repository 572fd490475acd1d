package httpserver

import (
	"context"
	"net/http"
	"time"

	"finsim/internal/config"
	"finsim/internal/store"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v4/pgxpool"
	"go.uber.org/zap"
)

// Listen builds and starts the HTTP server described in SPEC_FULL §6.1,
// blocking until the server stops or ctx is cancelled.
func Listen(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	var cache *responseCache
	var rl *rateLimiter
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		cache = newResponseCache(client, cfg.RedisCacheTTL)
		rl = newRateLimiter(client, 120)
	}

	var runStore *store.RunStore
	if cfg.AuditTrailEnabled && cfg.PostgresDSN != "" {
		pool, err := pgxpool.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Warn("audit trail disabled: failed to connect to postgres", zap.Error(err))
		} else {
			runStore = store.New(pool, log)
			if err := runStore.EnsureSchema(ctx); err != nil {
				log.Warn("audit trail disabled: failed to ensure schema", zap.Error(err))
				runStore = nil
			}
		}
	}

	srv := NewServer(log, cache, rl, runStore, cfg.MaxBodyBytes)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("finsim http server listening", zap.String("addr", cfg.Addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}
