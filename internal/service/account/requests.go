package account

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/govalues/money"
	"github.com/tinoosan/banking/internal/ledger"
)

// CreateAccountRequest opens an account. A zero InitialDeposit opens it empty.
type CreateAccountRequest struct {
	Name           string
	InitialDeposit money.Amount
}

type DepositRequest struct {
	AccountID uuid.UUID
	Amount    money.Amount
}

type WithdrawRequest struct {
	AccountID uuid.UUID
	Amount    money.Amount
}

type TransferRequest struct {
	FromID uuid.UUID
	ToID   uuid.UUID
	Amount money.Amount
}

// TransferResult describes a committed transfer and both of its legs.
type TransferResult struct {
	TransferID    uuid.UUID
	FromAccountID uuid.UUID
	ToAccountID   uuid.UUID
	Amount        money.Amount
	// SourceBalance is the source account's balance after the transfer.
	SourceBalance money.Amount
	Debit         ledger.Transaction
	Credit        ledger.Transaction
}

// Message is the confirmation shown to the account holder.
func (r TransferResult) Message() string {
	return fmt.Sprintf("Transfer Successful. Remaining balance: %s", ledger.Format(r.SourceBalance))
}
