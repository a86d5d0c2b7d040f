// Package postgres provides a pgx-backed ledger store.
//
// Every atomic unit is one SQL transaction. Accounts touched by a mutation are
// locked with SELECT ... FOR UPDATE ordered by id, so concurrent processes
// serialize on the same rows in the same order. The schema lives in the
// embedded migrations directory.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tinoosan/banking/internal/errs"
	"github.com/tinoosan/banking/internal/ledger"
	"github.com/tinoosan/banking/internal/service/account"
)

// Store holds a pgx connection pool. All methods are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// Open establishes a pgx pool using the provided connection string.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, unavailable("connect", err)
	}
	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, unavailable("ping", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", errs.ErrStoreUnavailable, op, err)
}

// rowScanner is satisfied by pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

const accountCols = `id, name, currency, balance_minor, created_at`

func scanAccount(r rowScanner) (ledger.Account, error) {
	var a ledger.Account
	var curr string
	var minor int64
	if err := r.Scan(&a.ID, &a.Name, &curr, &minor, &a.CreatedAt); err != nil {
		return ledger.Account{}, err
	}
	bal, err := money.NewAmountFromMinorUnits(strings.TrimSpace(curr), minor)
	if err != nil {
		return ledger.Account{}, err
	}
	a.Balance = bal
	return a, nil
}

const txCols = `seq, id, account_id, kind, amount_minor, currency, transfer_id, created_at`

func scanTransaction(r rowScanner) (ledger.Transaction, error) {
	var t ledger.Transaction
	var kind, curr string
	var minor int64
	var transferID *uuid.UUID
	if err := r.Scan(&t.Seq, &t.ID, &t.AccountID, &kind, &minor, &curr, &transferID, &t.CreatedAt); err != nil {
		return ledger.Transaction{}, err
	}
	amt, err := money.NewAmountFromMinorUnits(strings.TrimSpace(curr), minor)
	if err != nil {
		return ledger.Transaction{}, err
	}
	t.Kind = ledger.Kind(kind)
	t.Amount = amt
	if transferID != nil {
		t.TransferID = *transferID
	}
	return t, nil
}

func collectTransactions(rows pgx.Rows) ([]ledger.Transaction, error) {
	defer rows.Close()
	out := make([]ledger.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, unavailable("scan transaction", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("read transactions", err)
	}
	return out, nil
}

// querier is the subset of pgxpool.Pool and pgx.Tx used for reads.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// --- Account reads ---

// GetAccount fetches a single account by id.
func (s *Store) GetAccount(ctx context.Context, id uuid.UUID) (ledger.Account, error) {
	a, err := scanAccount(s.pool.QueryRow(ctx, `select `+accountCols+` from accounts where id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.Account{}, errs.ErrNotFound
	}
	if err != nil {
		return ledger.Account{}, unavailable("get account", err)
	}
	return a, nil
}

// ListAccounts returns all accounts in creation order.
func (s *Store) ListAccounts(ctx context.Context) ([]ledger.Account, error) {
	rows, err := s.pool.Query(ctx, `select `+accountCols+` from accounts order by created_at asc, id asc`)
	if err != nil {
		return nil, unavailable("list accounts", err)
	}
	defer rows.Close()
	out := make([]ledger.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, unavailable("scan account", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list accounts", err)
	}
	return out, nil
}

// --- Transaction reads ---

// ListTransactions returns an account's log ascending by (created_at, seq).
func (s *Store) ListTransactions(ctx context.Context, accountID uuid.UUID) ([]ledger.Transaction, error) {
	return history(ctx, s.pool, accountID)
}

func history(ctx context.Context, q querier, accountID uuid.UUID) ([]ledger.Transaction, error) {
	rows, err := q.Query(ctx, `
        select `+txCols+`
        from transactions
        where account_id = $1
        order by created_at asc, seq asc
    `, accountID)
	if err != nil {
		return nil, unavailable("list transactions", err)
	}
	return collectTransactions(rows)
}

// ListTransactionsInRange returns transactions with from <= created_at < to.
// A zero bound leaves that side open.
func (s *Store) ListTransactionsInRange(ctx context.Context, accountID uuid.UUID, from, to time.Time) ([]ledger.Transaction, error) {
	var lo, hi *time.Time
	if !from.IsZero() {
		lo = &from
	}
	if !to.IsZero() {
		hi = &to
	}
	rows, err := s.pool.Query(ctx, `
        select `+txCols+`
        from transactions
        where account_id = $1
          and ($2::timestamptz is null or created_at >= $2)
          and ($3::timestamptz is null or created_at < $3)
        order by created_at asc, seq asc
    `, accountID, lo, hi)
	if err != nil {
		return nil, unavailable("list transactions in range", err)
	}
	return collectTransactions(rows)
}

// Totals sums deposits and withdrawals recorded in currency across all accounts.
func (s *Store) Totals(ctx context.Context, currency string) (ledger.Totals, error) {
	var dep, wd int64
	var n int
	err := s.pool.QueryRow(ctx, `
        select
            coalesce(sum(amount_minor) filter (where kind = 'DEPOSIT'), 0)::bigint,
            coalesce(sum(amount_minor) filter (where kind = 'WITHDRAW'), 0)::bigint,
            count(*)
        from transactions
        where currency = $1
    `, currency).Scan(&dep, &wd, &n)
	if err != nil {
		return ledger.Totals{}, unavailable("totals", err)
	}
	deposits, err := money.NewAmountFromMinorUnits(currency, dep)
	if err != nil {
		return ledger.Totals{}, err
	}
	withdrawals, err := money.NewAmountFromMinorUnits(currency, wd)
	if err != nil {
		return ledger.Totals{}, err
	}
	return ledger.Totals{Deposits: deposits, Withdrawals: withdrawals, Count: n}, nil
}

// --- Atomic units ---

// Atomic runs fn inside one SQL transaction, committing only when fn succeeds.
func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, tx account.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return unavailable("begin", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := fn(ctx, &Tx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return unavailable("commit", err)
	}
	return nil
}

// Tx wraps a pgx.Tx and implements account.Tx.
type Tx struct{ tx pgx.Tx }

func (t *Tx) CreateAccount(ctx context.Context, a ledger.Account) error {
	minor, err := ledger.MinorUnits(a.Balance)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrInvalidArgument, err)
	}
	if _, err := t.tx.Exec(ctx, `
        insert into accounts (id, name, currency, balance_minor, created_at)
        values ($1,$2,$3,$4,$5)
    `, a.ID, a.Name, a.Balance.Curr().Code(), minor, a.CreatedAt); err != nil {
		return unavailable("insert account", err)
	}
	return nil
}

func (t *Tx) LockAccounts(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]ledger.Account, error) {
	out := make(map[uuid.UUID]ledger.Account, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := t.tx.Query(ctx, `
        select `+accountCols+`
        from accounts
        where id = any($1)
        order by id
        for update
    `, ids)
	if err != nil {
		return nil, unavailable("lock accounts", err)
	}
	defer rows.Close()
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, unavailable("scan account", err)
		}
		out[a.ID] = a
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("lock accounts", err)
	}
	return out, nil
}

func (t *Tx) PutAccount(ctx context.Context, a ledger.Account) error {
	minor, err := ledger.MinorUnits(a.Balance)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrInvalidArgument, err)
	}
	ct, err := t.tx.Exec(ctx, `update accounts set name=$1, balance_minor=$2 where id=$3`, a.Name, minor, a.ID)
	if err != nil {
		return unavailable("update account", err)
	}
	if ct.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (t *Tx) AppendTransaction(ctx context.Context, tr ledger.Transaction) (ledger.Transaction, error) {
	if err := tr.Validate(); err != nil {
		return ledger.Transaction{}, fmt.Errorf("%w: %v", errs.ErrInvalidArgument, err)
	}
	minor, err := ledger.MinorUnits(tr.Amount)
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("%w: %v", errs.ErrInvalidArgument, err)
	}
	var transferID *uuid.UUID
	if tr.TransferID != uuid.Nil {
		transferID = &tr.TransferID
	}
	err = t.tx.QueryRow(ctx, `
        insert into transactions (id, account_id, kind, amount_minor, currency, transfer_id, created_at)
        values ($1,$2,$3,$4,$5,$6,$7)
        returning seq
    `, tr.ID, tr.AccountID, string(tr.Kind), minor, tr.Amount.Curr().Code(), transferID, tr.CreatedAt).Scan(&tr.Seq)
	if err != nil {
		return ledger.Transaction{}, unavailable("insert transaction", err)
	}
	return tr, nil
}

func (t *Tx) History(ctx context.Context, accountID uuid.UUID) ([]ledger.Transaction, error) {
	return history(ctx, t.tx, accountID)
}
