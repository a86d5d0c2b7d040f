package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Statement summarizes one account's activity over a calendar month.
// All amounts are rounded half-up to two decimal places.
type Statement struct {
	AccountID        uuid.UUID       `json:"account_id"`
	Period           string          `json:"period"`
	Month            int             `json:"month"`
	Year             int             `json:"year"`
	Currency         string          `json:"currency"`
	OpeningBalance   decimal.Decimal `json:"opening_balance"`
	TotalDeposits    decimal.Decimal `json:"total_deposits"`
	TotalWithdrawals decimal.Decimal `json:"total_withdrawals"`
	ClosingBalance   decimal.Decimal `json:"closing_balance"`
	TransactionCount int             `json:"transaction_count"`
}
