package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"

	"github.com/tinoosan/banking/internal/cache"
	"github.com/tinoosan/banking/internal/config"
	"github.com/tinoosan/banking/internal/errs"
	"github.com/tinoosan/banking/internal/httpapi"
	"github.com/tinoosan/banking/internal/service/account"
	"github.com/tinoosan/banking/internal/service/admin"
	"github.com/tinoosan/banking/internal/service/statement"
	"github.com/tinoosan/banking/internal/storage/memory"
	pgstore "github.com/tinoosan/banking/internal/storage/postgres"
)

// ledgerStore is what the services need from a storage backend.
type ledgerStore interface {
	account.Store
	statement.Repo
	admin.Repo
}

type backend struct {
	store ledgerStore
	ready []httpapi.ReadyChecker
	close func()
}

func retryPolicy(ctx context.Context) backoff.BackOff {
	return backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)
}

// openStore picks postgres when a database URL is configured and the memory
// store otherwise. The initial connection is retried with exponential backoff.
func openStore(ctx context.Context, cfg config.Config, l *slog.Logger) (backend, error) {
	if cfg.DatabaseURL == "" {
		l.Info("storage backend: memory")
		return backend{store: memory.New(), close: func() {}}, nil
	}
	var pg *pgstore.Store
	err := backoff.RetryNotify(func() error {
		s, err := pgstore.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			if !errors.Is(err, errs.ErrStoreUnavailable) {
				return backoff.Permanent(err)
			}
			return err
		}
		pg = s
		return nil
	}, retryPolicy(ctx), func(err error, wait time.Duration) {
		l.Warn("postgres not reachable, retrying", "err", err, "wait", wait.String())
	})
	if err != nil {
		return backend{}, err
	}
	l.Info("storage backend: postgres")
	return backend{store: pg, ready: []httpapi.ReadyChecker{pg}, close: pg.Close}, nil
}

// openCache connects the statement cache. A cache that cannot be reached is
// logged and skipped; statements are then always computed.
func openCache(ctx context.Context, cfg config.Config, l *slog.Logger) (*cache.RedisCache, func()) {
	if cfg.RedisAddr == "" {
		return nil, func() {}
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	err := backoff.RetryNotify(func() error {
		return client.Ping(ctx).Err()
	}, retryPolicy(ctx), func(err error, wait time.Duration) {
		l.Warn("redis not reachable, retrying", "err", err, "wait", wait.String())
	})
	if err != nil {
		l.Warn("statement cache disabled", "err", err)
		_ = client.Close()
		return nil, func() {}
	}
	l.Info("statement cache: redis", "addr", cfg.RedisAddr)
	return cache.NewRedis(client, time.Minute), func() { _ = client.Close() }
}
