// Package statement reconstructs monthly account statements by replaying the
// transaction log from scratch.
package statement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tinoosan/banking/internal/errs"
	"github.com/tinoosan/banking/internal/ledger"
)

// Repo is the read surface the engine needs from the ledger store.
type Repo interface {
	GetAccount(ctx context.Context, id uuid.UUID) (ledger.Account, error)
	// ListTransactionsInRange returns transactions with from <= CreatedAt < to,
	// ascending. A zero from means the beginning of the log.
	ListTransactionsInRange(ctx context.Context, accountID uuid.UUID, from, to time.Time) ([]ledger.Transaction, error)
}

// Cache stores statements of closed periods. A miss reports ok=false.
type Cache interface {
	GetStatement(ctx context.Context, key string) (ledger.Statement, bool, error)
	SetStatement(ctx context.Context, key string, st ledger.Statement) error
}

type Service interface {
	Generate(ctx context.Context, accountID uuid.UUID, month, year int) (ledger.Statement, error)
}

// Option configures the engine.
type Option func(*service)

// WithLocation sets the time zone month boundaries are computed in.
func WithLocation(loc *time.Location) Option {
	return func(s *service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithCache enables caching for statements whose period ended at least grace ago.
func WithCache(c Cache, grace time.Duration) Option {
	return func(s *service) { s.cache = c; s.grace = grace }
}

// WithClock overrides the clock used to decide whether a period is closed.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

type service struct {
	repo  Repo
	loc   *time.Location
	cache Cache
	grace time.Duration
	now   func() time.Time
}

func New(repo Repo, opts ...Option) Service {
	s := &service{repo: repo, loc: time.UTC, grace: 5 * time.Minute, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Period returns the half-open interval [start, end) covering month/year in loc.
func Period(month, year int, loc *time.Location) (start, end time.Time) {
	start = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}

func (s *service) Generate(ctx context.Context, accountID uuid.UUID, month, year int) (ledger.Statement, error) {
	if month < 1 || month > 12 {
		return ledger.Statement{}, fmt.Errorf("%w: month must be in 1..12, got %d", errs.ErrInvalidArgument, month)
	}
	if year < 1 {
		return ledger.Statement{}, fmt.Errorf("%w: year must be >= 1, got %d", errs.ErrInvalidArgument, year)
	}
	acc, err := s.repo.GetAccount(ctx, accountID)
	if errors.Is(err, errs.ErrNotFound) {
		return ledger.Statement{}, fmt.Errorf("%w: %s", errs.ErrAccountNotFound, accountID)
	}
	if err != nil {
		return ledger.Statement{}, err
	}
	start, end := Period(month, year, s.loc)

	closed := s.cache != nil && !end.Add(s.grace).After(s.now())
	key := cacheKey(accountID, month, year, s.loc)
	if closed {
		if st, ok, err := s.cache.GetStatement(ctx, key); err == nil && ok {
			return st, nil
		}
	}

	// One read up to end, split in memory, so the opening balance and the
	// period totals come from the same snapshot.
	txs, err := s.repo.ListTransactionsInRange(ctx, accountID, time.Time{}, end)
	if err != nil {
		return ledger.Statement{}, err
	}
	st := Compute(txs, start)
	st.AccountID = accountID
	st.Month = month
	st.Year = year
	st.Period = strings.ToUpper(time.Month(month).String())
	st.Currency = acc.Balance.Curr().Code()

	if closed {
		_ = s.cache.SetStatement(ctx, key, st)
	}
	return st, nil
}

// Compute folds txs (all strictly before the period end) into opening balance
// and period totals around start. Sums are exact; only the results are rounded.
func Compute(txs []ledger.Transaction, start time.Time) ledger.Statement {
	var opening, deposits, withdrawals decimal.Decimal
	count := 0
	for _, t := range txs {
		amt := ledger.Decimal(t.Amount).Abs()
		if t.CreatedAt.Before(start) {
			switch {
			case t.IsCredit():
				opening = opening.Add(amt)
			case t.IsDebit():
				opening = opening.Sub(amt)
			}
			continue
		}
		count++
		switch {
		case t.IsCredit():
			deposits = deposits.Add(amt)
		case t.IsDebit():
			withdrawals = withdrawals.Add(amt)
		}
	}
	closing := opening.Add(deposits).Sub(withdrawals)
	return ledger.Statement{
		OpeningBalance:   opening.Round(2),
		TotalDeposits:    deposits.Round(2),
		TotalWithdrawals: withdrawals.Round(2),
		ClosingBalance:   closing.Round(2),
		TransactionCount: count,
	}
}

func cacheKey(id uuid.UUID, month, year int, loc *time.Location) string {
	return fmt.Sprintf("statement:%s:%04d-%02d:%s", id, year, month, loc)
}
