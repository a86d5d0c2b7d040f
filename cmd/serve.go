package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/tinoosan/banking/internal/cache"
	"github.com/tinoosan/banking/internal/httpapi"
	"github.com/tinoosan/banking/internal/observe"
	"github.com/tinoosan/banking/internal/service/account"
	"github.com/tinoosan/banking/internal/service/admin"
	"github.com/tinoosan/banking/internal/service/statement"
)

// statementGrace is how long after a month ends before its statement is cached.
const statementGrace = 5 * time.Minute

func serveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg, logger := a.cfg, a.log

	be, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer be.close()

	metrics := observe.NewMetrics(prometheus.DefaultRegisterer)
	ledgerSvc := observe.NewLedger(account.New(be.store, account.WithCurrency(cfg.Currency)), logger, metrics)

	stmtOpts := []statement.Option{statement.WithLocation(cfg.Location())}
	ready := be.ready
	rc, closeCache := openCache(ctx, cfg, logger)
	defer closeCache()
	if rc != nil {
		stmtOpts = append(stmtOpts, statement.WithCache(cache.NewStatements(rc, cfg.StatementCacheTTL), statementGrace))
		ready = append(ready, rc)
	}
	statements := observe.NewStatements(statement.New(be.store, stmtOpts...), logger, metrics)

	threshold, err := cfg.Threshold()
	if err != nil {
		return err
	}
	adminSvc := admin.New(be.store, cfg.Currency, threshold)

	if cfg.DevSeed {
		if err := seedDev(ctx, ledgerSvc, logger); err != nil {
			logger.Error("dev seed failed", "err", err)
		}
	}

	api := httpapi.New(ledgerSvc, statements, adminSvc, logger, httpapi.Options{
		Ready:          ready,
		JWTSecret:      cfg.JWTSecret,
		JWTIssuer:      cfg.JWTIssuer,
		JWTAudience:    cfg.JWTAudience,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("banking service listening", "addr", srv.Addr, "currency", cfg.Currency)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctxShutdown); err != nil {
			logger.Error("server shutdown error", "err", err)
		}
		return nil
	case err := <-errCh:
		logger.Error("server error", "err", err)
		return err
	}
}
