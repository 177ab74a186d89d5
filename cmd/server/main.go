// cmd/server/main.go
//
// Scambodia game service entrypoint.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/adidanco/scambodia/internal/auth"
	"github.com/adidanco/scambodia/internal/config"
	"github.com/adidanco/scambodia/internal/engine"
	"github.com/adidanco/scambodia/internal/feed"
	"github.com/adidanco/scambodia/internal/payout"
	"github.com/adidanco/scambodia/internal/server"
	"github.com/adidanco/scambodia/internal/store"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load config")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.WithField("level", cfg.LogLevel).Warn("unknown log level, using info")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var gameStore engine.Store
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.WithError(err).Fatal("connect postgres")
		}
		defer pool.Close()
		pg := store.NewPostgres(pool)
		if err := pg.Migrate(ctx); err != nil {
			log.WithError(err).Fatal("migrate postgres")
		}
		gameStore = pg
		log.Info("using postgres store")
	} else {
		gameStore = store.NewMemory()
		log.Warn("DATABASE_URL unset, using in-memory store")
	}

	hub := feed.NewHub(log)
	publisher := feed.Fanout{hub}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.WithError(err).Fatal("connect redis")
		}
		defer rdb.Close()
		publisher = append(publisher, feed.NewRedisPublisher(rdb, log))
		log.Info("redis feed enabled")
	}

	var ledger engine.PayoutService
	if cfg.LedgerURL != "" {
		ledger = payout.NewHTTPLedger(cfg.LedgerURL, log)
	} else {
		ledger = payout.NewLogOnly(log)
		log.Warn("LEDGER_URL unset, payouts are log-only")
	}

	eng := engine.New(gameStore, publisher, ledger, log, engine.Config{
		MaxRetries: cfg.MaxCommitRetries,
	})
	verifier := auth.NewVerifier(cfg.JWTSecret)
	gateway := server.New(eng, hub, verifier, log)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           gateway,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Addr).Info("scambodia server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
	log.Info("server stopped")
}
