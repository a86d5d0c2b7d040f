package httpapi

import (
	"encoding/json"
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tinoosan/banking/internal/ledger"
)

// Amounts travel as JSON numbers or numeric strings and are parsed in the
// ledger currency by the handlers.

type createAccountRequest struct {
	Name           string      `json:"name"`
	InitialDeposit json.Number `json:"initial_deposit"`
}

func (r *createAccountRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.InitialDeposit, validation.By(decimalNumber)),
	)
}

type amountRequest struct {
	Amount json.Number `json:"amount"`
}

func (r *amountRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Amount, validation.Required, validation.By(decimalNumber)),
	)
}

type transferRequest struct {
	FromAccountID string      `json:"from_account_id"`
	ToAccountID   string      `json:"to_account_id"`
	Amount        json.Number `json:"amount"`
}

func (r *transferRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.FromAccountID, validation.Required, validation.By(uuidString)),
		validation.Field(&r.ToAccountID, validation.Required, validation.By(uuidString)),
		validation.Field(&r.Amount, validation.Required, validation.By(decimalNumber)),
	)
}

type statementQuery struct {
	Month int
	Year  int
}

func (q *statementQuery) Validate() error {
	return validation.ValidateStruct(q,
		validation.Field(&q.Month, validation.Min(1), validation.Max(12)),
		validation.Field(&q.Year, validation.Min(1)),
	)
}

type interestRequest struct {
	Principal json.Number `json:"principal"`
	Rate      json.Number `json:"rate"`
	Years     json.Number `json:"years"`
}

func (r *interestRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Principal, validation.Required, validation.By(decimalNumber)),
		validation.Field(&r.Rate, validation.Required, validation.By(decimalNumber)),
		validation.Field(&r.Years, validation.Required, validation.By(decimalNumber)),
	)
}

type fixedDepositRequest struct {
	Amount              json.Number `json:"amount"`
	Rate                json.Number `json:"rate"`
	Tenure              int         `json:"tenure"`
	PrematureWithdrawal bool        `json:"premature_withdrawal"`
}

func (r *fixedDepositRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Amount, validation.Required, validation.By(decimalNumber)),
		validation.Field(&r.Rate, validation.Required, validation.By(decimalNumber)),
		validation.Field(&r.Tenure, validation.Required, validation.Min(1)),
	)
}

type creditCardBillRequest struct {
	TotalSpending json.Number `json:"total_spending"`
	PaymentsMade  json.Number `json:"payments_made"`
	DueDate       string      `json:"due_date"`
	CurrentDate   string      `json:"current_date"`
}

func (r *creditCardBillRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.TotalSpending, validation.Required, validation.By(decimalNumber)),
		validation.Field(&r.PaymentsMade, validation.By(decimalNumber)),
		validation.Field(&r.DueDate, validation.Required, validation.Date(time.DateOnly)),
		validation.Field(&r.CurrentDate, validation.Required, validation.Date(time.DateOnly)),
	)
}

type loanEligibilityRequest struct {
	Age                int         `json:"age"`
	AnnualIncome       json.Number `json:"annual_income"`
	CreditScore        int         `json:"credit_score"`
	ExistingLoanAmount json.Number `json:"existing_loan_amount"`
}

func (r *loanEligibilityRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Age, validation.Required, validation.Min(0)),
		validation.Field(&r.AnnualIncome, validation.Required, validation.By(decimalNumber)),
		validation.Field(&r.CreditScore, validation.Required, validation.Min(0)),
		validation.Field(&r.ExistingLoanAmount, validation.By(decimalNumber)),
	)
}

func decimalNumber(value any) error {
	n, _ := value.(json.Number)
	if n == "" {
		return nil
	}
	if _, err := decimal.NewFromString(string(n)); err != nil {
		return errors.New("must be a decimal number")
	}
	return nil
}

func uuidString(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := uuid.Parse(s); err != nil {
		return errors.New("must be a valid UUID")
	}
	return nil
}

// dec parses a validated optional number, treating empty as zero.
func dec(n json.Number) decimal.Decimal {
	if n == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(string(n))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// --- Responses ---

type accountResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Balance   string    `json:"balance"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
}

func toAccountResponse(a ledger.Account) accountResponse {
	return accountResponse{
		ID:        a.ID,
		Name:      a.Name,
		Balance:   ledger.Format(a.Balance),
		Currency:  a.Balance.Curr().Code(),
		CreatedAt: a.CreatedAt,
	}
}

type transactionResponse struct {
	ID         uuid.UUID  `json:"id"`
	AccountID  uuid.UUID  `json:"account_id"`
	Type       string     `json:"type"`
	Amount     string     `json:"amount"`
	TransferID *uuid.UUID `json:"transfer_id,omitempty"`
	Seq        int64      `json:"seq"`
	CreatedAt  time.Time  `json:"created_at"`
}

func toTransactionResponse(t ledger.Transaction) transactionResponse {
	out := transactionResponse{
		ID:        t.ID,
		AccountID: t.AccountID,
		Type:      string(t.Kind),
		Amount:    ledger.Format(t.Amount),
		Seq:       t.Seq,
		CreatedAt: t.CreatedAt,
	}
	if t.TransferID != uuid.Nil {
		id := t.TransferID
		out.TransferID = &id
	}
	return out
}

type transferResponse struct {
	TransferID    uuid.UUID `json:"transfer_id"`
	FromAccountID uuid.UUID `json:"from_account_id"`
	ToAccountID   uuid.UUID `json:"to_account_id"`
	Amount        string    `json:"amount"`
	SourceBalance string    `json:"source_balance"`
	Message       string    `json:"message"`
}

type reconciliationResponse struct {
	AccountID uuid.UUID `json:"account_id"`
	Cached    string    `json:"cached_balance"`
	Replayed  string    `json:"replayed_balance"`
	Entries   int       `json:"entries"`
	Balanced  bool      `json:"balanced"`
}

type statementResponse struct {
	AccountID        uuid.UUID `json:"account_id"`
	Period           string    `json:"period"`
	Month            int       `json:"month"`
	Year             int       `json:"year"`
	Currency         string    `json:"currency"`
	OpeningBalance   string    `json:"opening_balance"`
	TotalDeposits    string    `json:"total_deposits"`
	TotalWithdrawals string    `json:"total_withdrawals"`
	ClosingBalance   string    `json:"closing_balance"`
	TransactionCount int       `json:"transaction_count"`
}

func toStatementResponse(st ledger.Statement) statementResponse {
	return statementResponse{
		AccountID:        st.AccountID,
		Period:           st.Period,
		Month:            st.Month,
		Year:             st.Year,
		Currency:         st.Currency,
		OpeningBalance:   st.OpeningBalance.StringFixed(2),
		TotalDeposits:    st.TotalDeposits.StringFixed(2),
		TotalWithdrawals: st.TotalWithdrawals.StringFixed(2),
		ClosingBalance:   st.ClosingBalance.StringFixed(2),
		TransactionCount: st.TransactionCount,
	}
}

type summaryResponse struct {
	TotalCustomers    int               `json:"total_customers"`
	TotalDeposits     string            `json:"total_deposits"`
	TotalWithdrawals  string            `json:"total_withdrawals"`
	TotalTransactions int               `json:"total_transactions"`
	TopAccountsCount  int               `json:"top_accounts_count"`
	TopAccounts       []accountResponse `json:"top_accounts"`
}
