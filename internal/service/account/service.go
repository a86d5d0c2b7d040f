// Package account implements the account ledger: opening accounts, deposits,
// withdrawals, transfers and the read views over accounts and their logs.
//
// Every mutation holds the per-account locks of the accounts it touches and
// runs inside a single Store.Atomic unit, so the cached balance and the log
// never diverge.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"
	"github.com/tinoosan/banking/internal/errs"
	"github.com/tinoosan/banking/internal/ledger"
	"github.com/tinoosan/banking/internal/lock"
)

// DefaultCurrency is the ledger currency when none is configured.
const DefaultCurrency = "INR"

type Service interface {
	CreateAccount(ctx context.Context, req CreateAccountRequest) (ledger.Account, error)
	Deposit(ctx context.Context, req DepositRequest) (ledger.Account, error)
	Withdraw(ctx context.Context, req WithdrawRequest) (ledger.Account, error)
	Transfer(ctx context.Context, req TransferRequest) (TransferResult, error)
	GetAccount(ctx context.Context, id uuid.UUID) (ledger.Account, error)
	ListAccounts(ctx context.Context) ([]ledger.Account, error)
	// Transactions returns an account's log, most recent first.
	Transactions(ctx context.Context, accountID uuid.UUID) ([]ledger.Transaction, error)
	Reconcile(ctx context.Context, accountID uuid.UUID) (ledger.Reconciliation, error)
	Currency() string
}

// Option configures the service.
type Option func(*service)

// WithClock overrides the source of transaction timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// WithCurrency sets the single currency the ledger accepts.
func WithCurrency(code string) Option {
	return func(s *service) { s.currency = strings.ToUpper(strings.TrimSpace(code)) }
}

type service struct {
	store    Store
	locks    *lock.Keyed
	now      func() time.Time
	currency string
}

func New(store Store, opts ...Option) Service {
	s := &service{
		store:    store,
		locks:    lock.New(),
		now:      func() time.Time { return time.Now().UTC() },
		currency: DefaultCurrency,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *service) Currency() string { return s.currency }

func (s *service) CreateAccount(ctx context.Context, req CreateAccountRequest) (ledger.Account, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return ledger.Account{}, fmt.Errorf("%w: name is required", errs.ErrInvalidArgument)
	}
	if req.InitialDeposit.IsNeg() {
		return ledger.Account{}, fmt.Errorf("%w: initial deposit must be >= 0", errs.ErrInvalidArgument)
	}
	withDeposit := !req.InitialDeposit.IsZero()
	if withDeposit {
		if err := s.validAmount(req.InitialDeposit); err != nil {
			return ledger.Account{}, err
		}
	}
	zero, err := money.NewAmountFromMinorUnits(s.currency, 0)
	if err != nil {
		return ledger.Account{}, fmt.Errorf("%w: currency %q: %v", errs.ErrInvalidArgument, s.currency, err)
	}
	acc := ledger.Account{ID: uuid.New(), Name: name, Balance: zero, CreatedAt: s.now()}

	unlock := s.locks.Lock(acc.ID)
	defer unlock()
	err = s.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		if err := tx.CreateAccount(ctx, acc); err != nil {
			return err
		}
		if !withDeposit {
			return nil
		}
		updated, err := s.applyDeposit(ctx, tx, acc.ID, req.InitialDeposit)
		if err != nil {
			return err
		}
		acc = updated
		return nil
	})
	if err != nil {
		return ledger.Account{}, err
	}
	return acc, nil
}

func (s *service) Deposit(ctx context.Context, req DepositRequest) (ledger.Account, error) {
	if err := s.validAmount(req.Amount); err != nil {
		return ledger.Account{}, err
	}
	unlock := s.locks.Lock(req.AccountID)
	defer unlock()
	var out ledger.Account
	err := s.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		acc, err := s.applyDeposit(ctx, tx, req.AccountID, req.Amount)
		out = acc
		return err
	})
	if err != nil {
		return ledger.Account{}, err
	}
	return out, nil
}

// applyDeposit is the single deposit path, shared by Deposit and the opening
// deposit of CreateAccount.
func (s *service) applyDeposit(ctx context.Context, tx Tx, id uuid.UUID, amount money.Amount) (ledger.Account, error) {
	accs, err := tx.LockAccounts(ctx, id)
	if err != nil {
		return ledger.Account{}, err
	}
	acc, ok := accs[id]
	if !ok {
		return ledger.Account{}, notFound(id)
	}
	if acc.Balance, err = acc.Balance.Add(amount); err != nil {
		return ledger.Account{}, fmt.Errorf("%w: %v", errs.ErrInvalidArgument, err)
	}
	if err := tx.PutAccount(ctx, acc); err != nil {
		return ledger.Account{}, err
	}
	t := ledger.Transaction{ID: uuid.New(), AccountID: id, Kind: ledger.KindDeposit, Amount: amount, CreatedAt: s.now()}
	if _, err := tx.AppendTransaction(ctx, t); err != nil {
		return ledger.Account{}, err
	}
	return acc, nil
}

func (s *service) Withdraw(ctx context.Context, req WithdrawRequest) (ledger.Account, error) {
	if err := s.validAmount(req.Amount); err != nil {
		return ledger.Account{}, err
	}
	unlock := s.locks.Lock(req.AccountID)
	defer unlock()
	var out ledger.Account
	err := s.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		accs, err := tx.LockAccounts(ctx, req.AccountID)
		if err != nil {
			return err
		}
		acc, ok := accs[req.AccountID]
		if !ok {
			return notFound(req.AccountID)
		}
		if acc.Balance, err = debit(acc, req.Amount); err != nil {
			return err
		}
		if err := tx.PutAccount(ctx, acc); err != nil {
			return err
		}
		t := ledger.Transaction{ID: uuid.New(), AccountID: acc.ID, Kind: ledger.KindWithdraw, Amount: req.Amount, CreatedAt: s.now()}
		if _, err := tx.AppendTransaction(ctx, t); err != nil {
			return err
		}
		out = acc
		return nil
	})
	if err != nil {
		return ledger.Account{}, err
	}
	return out, nil
}

func (s *service) Transfer(ctx context.Context, req TransferRequest) (TransferResult, error) {
	if req.FromID == req.ToID {
		return TransferResult{}, fmt.Errorf("%w: cannot transfer to the same account", errs.ErrInvalidArgument)
	}
	if err := s.validAmount(req.Amount); err != nil {
		return TransferResult{}, err
	}
	unlock := s.locks.Lock(req.FromID, req.ToID)
	defer unlock()

	res := TransferResult{TransferID: uuid.New(), FromAccountID: req.FromID, ToAccountID: req.ToID, Amount: req.Amount}
	err := s.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		accs, err := tx.LockAccounts(ctx, req.FromID, req.ToID)
		if err != nil {
			return err
		}
		from, ok := accs[req.FromID]
		if !ok {
			return notFound(req.FromID)
		}
		to, ok := accs[req.ToID]
		if !ok {
			return notFound(req.ToID)
		}
		if from.Balance, err = debit(from, req.Amount); err != nil {
			return err
		}
		if to.Balance, err = to.Balance.Add(req.Amount); err != nil {
			return fmt.Errorf("%w: %v", errs.ErrInvalidArgument, err)
		}
		if err := tx.PutAccount(ctx, from); err != nil {
			return err
		}
		if err := tx.PutAccount(ctx, to); err != nil {
			return err
		}
		at := s.now()
		debitLeg := ledger.Transaction{ID: uuid.New(), AccountID: from.ID, Kind: ledger.KindTransfer, Amount: req.Amount.Neg(), TransferID: res.TransferID, CreatedAt: at}
		creditLeg := ledger.Transaction{ID: uuid.New(), AccountID: to.ID, Kind: ledger.KindTransfer, Amount: req.Amount, TransferID: res.TransferID, CreatedAt: at}
		if res.Debit, err = tx.AppendTransaction(ctx, debitLeg); err != nil {
			return err
		}
		if res.Credit, err = tx.AppendTransaction(ctx, creditLeg); err != nil {
			return err
		}
		res.SourceBalance = from.Balance
		return nil
	})
	if err != nil {
		return TransferResult{}, err
	}
	return res, nil
}

func (s *service) GetAccount(ctx context.Context, id uuid.UUID) (ledger.Account, error) {
	acc, err := s.store.GetAccount(ctx, id)
	if errors.Is(err, errs.ErrNotFound) {
		return ledger.Account{}, notFound(id)
	}
	return acc, err
}

func (s *service) ListAccounts(ctx context.Context) ([]ledger.Account, error) {
	return s.store.ListAccounts(ctx)
}

func (s *service) Transactions(ctx context.Context, accountID uuid.UUID) ([]ledger.Transaction, error) {
	if _, err := s.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	txs, err := s.store.ListTransactions(ctx, accountID)
	if err != nil {
		return nil, err
	}
	ledger.SortNewestFirst(txs)
	return txs, nil
}

// Reconcile replays an account's log under its lock and compares the result
// with the cached balance.
func (s *service) Reconcile(ctx context.Context, accountID uuid.UUID) (ledger.Reconciliation, error) {
	unlock := s.locks.Lock(accountID)
	defer unlock()
	var rec ledger.Reconciliation
	err := s.store.Atomic(ctx, func(ctx context.Context, tx Tx) error {
		accs, err := tx.LockAccounts(ctx, accountID)
		if err != nil {
			return err
		}
		acc, ok := accs[accountID]
		if !ok {
			return notFound(accountID)
		}
		hist, err := tx.History(ctx, accountID)
		if err != nil {
			return err
		}
		replayed, err := ledger.Replay(acc.Balance.Curr().Code(), hist)
		if err != nil {
			return err
		}
		cmp, err := replayed.Cmp(acc.Balance)
		if err != nil {
			return err
		}
		rec = ledger.Reconciliation{AccountID: accountID, Cached: acc.Balance, Replayed: replayed, Entries: len(hist), Balanced: cmp == 0}
		return nil
	})
	return rec, err
}

// validAmount accepts only positive amounts in the ledger currency with no
// more precision than the currency's minor unit.
func (s *service) validAmount(a money.Amount) error {
	if code := a.Curr().Code(); code != s.currency {
		return fmt.Errorf("%w: currency %s does not match ledger currency %s", errs.ErrInvalidArgument, code, s.currency)
	}
	if !a.IsPos() {
		return fmt.Errorf("%w: amount must be > 0", errs.ErrInvalidArgument)
	}
	if c, err := a.Cmp(a.RoundToCurr()); err != nil || c != 0 {
		return fmt.Errorf("%w: amount %s exceeds the precision of %s", errs.ErrInvalidArgument, a.Decimal(), s.currency)
	}
	return nil
}

func debit(acc ledger.Account, amount money.Amount) (money.Amount, error) {
	c, err := acc.Balance.Cmp(amount)
	if err != nil {
		return money.Amount{}, fmt.Errorf("%w: %v", errs.ErrInvalidArgument, err)
	}
	if c < 0 {
		return money.Amount{}, fmt.Errorf("%w: account %s has %s, needs %s", errs.ErrInsufficientFunds, acc.ID, ledger.Format(acc.Balance), ledger.Format(amount))
	}
	return acc.Balance.Sub(amount)
}

func notFound(id uuid.UUID) error {
	return fmt.Errorf("%w: %s", errs.ErrAccountNotFound, id)
}
