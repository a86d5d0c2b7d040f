package observe

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tinoosan/banking/internal/ledger"
	"github.com/tinoosan/banking/internal/service/account"
	"github.com/tinoosan/banking/internal/service/statement"
)

// Ledger decorates an account.Service.
type Ledger struct {
	next account.Service
	log  *slog.Logger
	m    *Metrics
}

func NewLedger(next account.Service, l *slog.Logger, m *Metrics) *Ledger {
	return &Ledger{next: next, log: l, m: m}
}

var _ account.Service = (*Ledger)(nil)

func (o *Ledger) Currency() string { return o.next.Currency() }

func (o *Ledger) CreateAccount(ctx context.Context, req account.CreateAccountRequest) (ledger.Account, error) {
	start := time.Now()
	acc, err := o.next.CreateAccount(ctx, req)
	o.m.record(o.log, "create_account", start, err, "account_id", acc.ID.String(), "initial_deposit", ledger.Format(req.InitialDeposit))
	return acc, err
}

func (o *Ledger) Deposit(ctx context.Context, req account.DepositRequest) (ledger.Account, error) {
	start := time.Now()
	acc, err := o.next.Deposit(ctx, req)
	o.m.record(o.log, "deposit", start, err, "account_id", req.AccountID.String(), "amount", ledger.Format(req.Amount))
	return acc, err
}

func (o *Ledger) Withdraw(ctx context.Context, req account.WithdrawRequest) (ledger.Account, error) {
	start := time.Now()
	acc, err := o.next.Withdraw(ctx, req)
	o.m.record(o.log, "withdraw", start, err, "account_id", req.AccountID.String(), "amount", ledger.Format(req.Amount))
	return acc, err
}

func (o *Ledger) Transfer(ctx context.Context, req account.TransferRequest) (account.TransferResult, error) {
	start := time.Now()
	res, err := o.next.Transfer(ctx, req)
	o.m.record(o.log, "transfer", start, err,
		"from_account_id", req.FromID.String(),
		"to_account_id", req.ToID.String(),
		"amount", ledger.Format(req.Amount),
		"transfer_id", res.TransferID.String(),
	)
	return res, err
}

func (o *Ledger) GetAccount(ctx context.Context, id uuid.UUID) (ledger.Account, error) {
	start := time.Now()
	acc, err := o.next.GetAccount(ctx, id)
	o.m.record(nil, "get_account", start, err)
	return acc, err
}

func (o *Ledger) ListAccounts(ctx context.Context) ([]ledger.Account, error) {
	start := time.Now()
	accs, err := o.next.ListAccounts(ctx)
	o.m.record(nil, "list_accounts", start, err)
	return accs, err
}

func (o *Ledger) Transactions(ctx context.Context, accountID uuid.UUID) ([]ledger.Transaction, error) {
	start := time.Now()
	txs, err := o.next.Transactions(ctx, accountID)
	o.m.record(nil, "transactions", start, err)
	return txs, err
}

func (o *Ledger) Reconcile(ctx context.Context, accountID uuid.UUID) (ledger.Reconciliation, error) {
	start := time.Now()
	rec, err := o.next.Reconcile(ctx, accountID)
	o.m.record(o.log, "reconcile", start, err, "account_id", accountID.String(), "balanced", rec.Balanced)
	if err == nil && !rec.Balanced && o.log != nil {
		o.log.Error("balance drift detected",
			"account_id", accountID.String(),
			"cached", ledger.Format(rec.Cached),
			"replayed", ledger.Format(rec.Replayed),
		)
	}
	return rec, err
}

// Statements decorates a statement.Service.
type Statements struct {
	next statement.Service
	log  *slog.Logger
	m    *Metrics
}

func NewStatements(next statement.Service, l *slog.Logger, m *Metrics) *Statements {
	return &Statements{next: next, log: l, m: m}
}

var _ statement.Service = (*Statements)(nil)

func (o *Statements) Generate(ctx context.Context, accountID uuid.UUID, month, year int) (ledger.Statement, error) {
	start := time.Now()
	st, err := o.next.Generate(ctx, accountID, month, year)
	o.m.record(o.log, "statement", start, err, "account_id", accountID.String(), "month", month, "year", year)
	return st, err
}
