// Package memory provides an in-memory ledger store used for development and tests.
// Writes made inside Atomic are staged and applied under the write lock on commit.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"
	"github.com/tinoosan/banking/internal/errs"
	"github.com/tinoosan/banking/internal/ledger"
	"github.com/tinoosan/banking/internal/service/account"
)

// Store is an in-memory ledger store guarded by an RWMutex.
type Store struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]ledger.Account
	// creation order of accounts
	order []uuid.UUID
	// per-account log sorted asc by (CreatedAt, Seq)
	logs map[uuid.UUID][]ledger.Transaction
	seq  int64
}

// New constructs an empty in-memory store.
func New() *Store {
	return &Store{
		accounts: make(map[uuid.UUID]ledger.Account),
		logs:     make(map[uuid.UUID][]ledger.Transaction),
	}
}

// Reset drops all accounts and transactions.
func (s *Store) Reset() {
	s.mu.Lock()
	s.accounts = map[uuid.UUID]ledger.Account{}
	s.order = nil
	s.logs = map[uuid.UUID][]ledger.Transaction{}
	s.seq = 0
	s.mu.Unlock()
}

// GetAccount returns an account by id.
func (s *Store) GetAccount(_ context.Context, id uuid.UUID) (ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return ledger.Account{}, errs.ErrNotFound
	}
	return a, nil
}

// ListAccounts returns all accounts in creation order.
func (s *Store) ListAccounts(_ context.Context) ([]ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Account, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.accounts[id])
	}
	return out, nil
}

// ListTransactions returns a copy of an account's log, oldest first.
func (s *Store) ListTransactions(_ context.Context, accountID uuid.UUID) ([]ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rangeLocked(accountID, time.Time{}, time.Time{}), nil
}

// ListTransactionsInRange returns the transactions with from <= CreatedAt < to.
// A zero from or to leaves that side open.
func (s *Store) ListTransactionsInRange(_ context.Context, accountID uuid.UUID, from, to time.Time) ([]ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rangeLocked(accountID, from, to), nil
}

// Totals sums deposits and withdrawals recorded in currency across every account.
func (s *Store) Totals(_ context.Context, currency string) (ledger.Totals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dep, err := money.NewAmountFromMinorUnits(currency, 0)
	if err != nil {
		return ledger.Totals{}, err
	}
	out := ledger.Totals{Deposits: dep, Withdrawals: dep}
	for _, txs := range s.logs {
		for _, t := range txs {
			if t.Amount.Curr().Code() != currency {
				continue
			}
			out.Count++
			switch t.Kind {
			case ledger.KindDeposit:
				out.Deposits, err = out.Deposits.Add(t.Amount)
			case ledger.KindWithdraw:
				out.Withdrawals, err = out.Withdrawals.Add(t.Amount)
			}
			if err != nil {
				return ledger.Totals{}, err
			}
		}
	}
	return out, nil
}

// Atomic stages every write made by fn and applies them together only if fn succeeds.
func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, tx account.Tx) error) error {
	tx := &memTx{s: s, touched: map[uuid.UUID]ledger.Account{}}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range tx.created {
		if _, exists := s.accounts[a.ID]; exists {
			return fmt.Errorf("account %s already exists", a.ID)
		}
	}
	for _, a := range tx.created {
		s.order = append(s.order, a.ID)
	}
	for id, a := range tx.touched {
		s.accounts[id] = a
	}
	for _, t := range tx.appended {
		s.insertLocked(t)
	}
	return nil
}

// memTx sees committed state overlaid with its own staged writes.
type memTx struct {
	s        *Store
	created  []ledger.Account
	touched  map[uuid.UUID]ledger.Account
	appended []ledger.Transaction
}

func (t *memTx) CreateAccount(_ context.Context, a ledger.Account) error {
	t.s.mu.RLock()
	_, exists := t.s.accounts[a.ID]
	t.s.mu.RUnlock()
	if _, staged := t.touched[a.ID]; exists || staged {
		return fmt.Errorf("account %s already exists", a.ID)
	}
	t.created = append(t.created, a)
	t.touched[a.ID] = a
	return nil
}

func (t *memTx) LockAccounts(_ context.Context, ids ...uuid.UUID) (map[uuid.UUID]ledger.Account, error) {
	out := make(map[uuid.UUID]ledger.Account, len(ids))
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	for _, id := range ids {
		if a, ok := t.touched[id]; ok {
			out[id] = a
			continue
		}
		if a, ok := t.s.accounts[id]; ok {
			out[id] = a
		}
	}
	return out, nil
}

func (t *memTx) PutAccount(_ context.Context, a ledger.Account) error {
	t.touched[a.ID] = a
	return nil
}

func (t *memTx) AppendTransaction(_ context.Context, tr ledger.Transaction) (ledger.Transaction, error) {
	if err := tr.Validate(); err != nil {
		return ledger.Transaction{}, fmt.Errorf("%w: %v", errs.ErrInvalidArgument, err)
	}
	t.s.mu.Lock()
	t.s.seq++
	tr.Seq = t.s.seq
	t.s.mu.Unlock()
	t.appended = append(t.appended, tr)
	return tr, nil
}

func (t *memTx) History(_ context.Context, accountID uuid.UUID) ([]ledger.Transaction, error) {
	t.s.mu.RLock()
	out := t.s.rangeLocked(accountID, time.Time{}, time.Time{})
	t.s.mu.RUnlock()
	for _, tr := range t.appended {
		if tr.AccountID == accountID {
			out = append(out, tr)
		}
	}
	ledger.SortOldestFirst(out)
	return out, nil
}

func lessTx(a, b ledger.Transaction) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.Seq < b.Seq
}

// insertLocked inserts t into its account's sorted log. Caller must hold s.mu (write lock).
func (s *Store) insertLocked(t ledger.Transaction) {
	txs := s.logs[t.AccountID]
	i := sort.Search(len(txs), func(i int) bool { return lessTx(t, txs[i]) })
	if i == len(txs) {
		s.logs[t.AccountID] = append(txs, t)
		return
	}
	txs = append(txs, ledger.Transaction{})
	copy(txs[i+1:], txs[i:])
	txs[i] = t
	s.logs[t.AccountID] = txs
}

// rangeLocked returns a copy of the account's log within [from, to). Caller must hold s.mu.
func (s *Store) rangeLocked(accountID uuid.UUID, from, to time.Time) []ledger.Transaction {
	txs := s.logs[accountID]
	start := 0
	if !from.IsZero() {
		start = sort.Search(len(txs), func(i int) bool { return !txs[i].CreatedAt.Before(from) })
	}
	end := len(txs)
	if !to.IsZero() {
		end = sort.Search(len(txs), func(i int) bool { return !txs[i].CreatedAt.Before(to) })
	}
	if start > end {
		return []ledger.Transaction{}
	}
	out := make([]ledger.Transaction, end-start)
	copy(out, txs[start:end])
	return out
}
