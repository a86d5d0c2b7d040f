package account

import (
	"context"

	"github.com/google/uuid"
	"github.com/tinoosan/banking/internal/ledger"
)

// Repo is the read side of the ledger store used by the service.
type Repo interface {
	// GetAccount returns errs.ErrNotFound when the id is unknown.
	GetAccount(ctx context.Context, id uuid.UUID) (ledger.Account, error)
	ListAccounts(ctx context.Context) ([]ledger.Account, error)
	// ListTransactions returns an account's log ascending by (CreatedAt, Seq).
	ListTransactions(ctx context.Context, accountID uuid.UUID) ([]ledger.Transaction, error)
}

// Store is a Repo that can also run atomic units of work.
type Store interface {
	Repo
	// Atomic runs fn in a single unit of work. If fn returns an error nothing
	// it wrote becomes visible; otherwise all of it does.
	Atomic(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the write surface available inside an atomic unit.
type Tx interface {
	CreateAccount(ctx context.Context, a ledger.Account) error
	// LockAccounts loads the given accounts for update, in ascending id order.
	// Unknown ids are absent from the result.
	LockAccounts(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]ledger.Account, error)
	PutAccount(ctx context.Context, a ledger.Account) error
	// AppendTransaction stores t and returns it with its sequence assigned.
	AppendTransaction(ctx context.Context, t ledger.Transaction) (ledger.Transaction, error)
	History(ctx context.Context, accountID uuid.UUID) ([]ledger.Transaction, error)
}
