// Package httpapi wires the HTTP surface of the banking service.
// It keeps handlers thin, delegating business rules to the service layer.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tinoosan/banking/internal/service/account"
	"github.com/tinoosan/banking/internal/service/admin"
	"github.com/tinoosan/banking/internal/service/statement"
)

// ReadyChecker is implemented by dependencies that can report connectivity.
type ReadyChecker interface {
	Ready(ctx context.Context) error
}

// Options holds the optional parts of the HTTP surface.
type Options struct {
	// Ready dependencies are probed by /readyz.
	Ready []ReadyChecker

	// Bearer auth is enforced on /v1 when JWTSecret is set.
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string

	// Rate limiting is enabled when RateLimitRPS > 0.
	RateLimitRPS   float64
	RateLimitBurst int
}

// Server wires handlers and middleware using Chi.
type Server struct {
	ledger     account.Service
	statements statement.Service
	admin      admin.Service
	ready      []ReadyChecker
	log        *slog.Logger
	rt         *chi.Mux
}

// New constructs the HTTP server with routes and middleware.
// The logger is used by request logging and panic recovery.
func New(ledgerSvc account.Service, statements statement.Service, adminSvc admin.Service, logger *slog.Logger, opts Options) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(metricsMiddleware)

	s := &Server{
		ledger:     ledgerSvc,
		statements: statements,
		admin:      adminSvc,
		ready:      opts.Ready,
		log:        logger,
		rt:         r,
	}
	s.routes(opts)
	return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

// routes declares the public HTTP API endpoints and attaches any per-route middleware.
func (s *Server) routes(opts Options) {
	s.rt.Route("/v1", func(r chi.Router) {
		if mw := rateLimit(opts.RateLimitRPS, opts.RateLimitBurst); mw != nil {
			r.Use(mw)
		}
		if mw := authJWT(opts.JWTSecret, opts.JWTIssuer, opts.JWTAudience); mw != nil {
			r.Use(mw)
		}

		// Accounts
		r.With(validateBody[createAccountRequest](ctxKeyCreateAccount)).Post("/accounts", s.postAccount)
		r.Get("/accounts", s.listAccounts)
		r.With(validateBody[transferRequest](ctxKeyTransfer)).Post("/accounts/transfer", s.transfer)
		r.Get("/accounts/transactions/{id}", s.listTransactions)
		r.Get("/accounts/{id}", s.getAccount)
		r.With(validateBody[amountRequest](ctxKeyAmount)).Post("/accounts/{id}/deposit", s.deposit)
		r.With(validateBody[amountRequest](ctxKeyAmount)).Post("/accounts/{id}/withdraw", s.withdraw)
		r.Get("/accounts/{id}/transactions", s.listTransactions)
		r.Get("/accounts/{id}/reconciliation", s.reconcile)

		// Statements
		r.With(validateStatementQuery).Get("/statement/{id}", s.getStatement)

		// Admin
		r.Get("/admin/summary", s.adminSummary)

		// Calculators
		r.With(validateBody[interestRequest](ctxKeyCalculator)).Post("/calculators/interest", s.calcInterest)
		r.With(validateBody[fixedDepositRequest](ctxKeyCalculator)).Post("/calculators/fixed-deposit", s.calcFixedDeposit)
		r.With(validateBody[creditCardBillRequest](ctxKeyCalculator)).Post("/calculators/credit-card-bill", s.calcCreditCardBill)
		r.With(validateBody[loanEligibilityRequest](ctxKeyCalculator)).Post("/calculators/loan-eligibility", s.calcLoanEligibility)
	})

	// Health and metrics (unversioned)
	s.rt.Get("/healthz", s.healthz)
	s.rt.Get("/readyz", s.readyz)
	s.rt.Handle("/metrics", metricsHandler())
}
