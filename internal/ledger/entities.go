package ledger

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"
	"github.com/shopspring/decimal"
)

// Kind classifies a transaction in an account's log.
type Kind string

const (
	// KindDeposit credits the account with a positive amount.
	KindDeposit Kind = "DEPOSIT"
	// KindWithdraw debits the account; the amount is stored as a positive magnitude.
	KindWithdraw Kind = "WITHDRAW"
	// KindTransfer is one leg of a transfer; negative on the source, positive on the destination.
	KindTransfer Kind = "TRANSFER"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindDeposit, KindWithdraw, KindTransfer:
		return true
	}
	return false
}

// Account is a holder of funds. Balance is a cache of the account's log and
// is never negative.
type Account struct {
	ID        uuid.UUID
	Name      string
	Balance   money.Amount
	CreatedAt time.Time
}

// Transaction is an immutable record of one balance change.
type Transaction struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	Kind      Kind
	Amount    money.Amount
	// TransferID links the two legs of a transfer; uuid.Nil for deposits and withdrawals.
	TransferID uuid.UUID
	// Seq is assigned by the store on append and breaks ties between equal timestamps.
	Seq       int64
	CreatedAt time.Time
}

// Validate checks the sign rules for the transaction's kind.
func (t Transaction) Validate() error {
	if t.AccountID == uuid.Nil {
		return errors.New("account id is required")
	}
	switch t.Kind {
	case KindDeposit, KindWithdraw:
		if !t.Amount.IsPos() {
			return fmt.Errorf("%s amount must be > 0", t.Kind)
		}
		if t.TransferID != uuid.Nil {
			return fmt.Errorf("%s must not carry a transfer id", t.Kind)
		}
	case KindTransfer:
		if t.Amount.IsZero() {
			return errors.New("transfer amount must not be zero")
		}
		if t.TransferID == uuid.Nil {
			return errors.New("transfer leg requires a transfer id")
		}
	default:
		return fmt.Errorf("unknown kind %q", t.Kind)
	}
	return nil
}

// IsCredit reports whether the transaction increases the balance.
func (t Transaction) IsCredit() bool {
	return t.Kind == KindDeposit || (t.Kind == KindTransfer && t.Amount.IsPos())
}

// IsDebit reports whether the transaction decreases the balance.
func (t Transaction) IsDebit() bool {
	return t.Kind == KindWithdraw || (t.Kind == KindTransfer && t.Amount.IsNeg())
}

// Effect returns the signed change this transaction applies to its account.
func (t Transaction) Effect() money.Amount {
	if t.Kind == KindWithdraw {
		return t.Amount.Neg()
	}
	return t.Amount
}

// SortNewestFirst orders txs by CreatedAt descending, then Seq descending.
func SortNewestFirst(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].CreatedAt.Equal(txs[j].CreatedAt) {
			return txs[i].CreatedAt.After(txs[j].CreatedAt)
		}
		return txs[i].Seq > txs[j].Seq
	})
}

// SortOldestFirst orders txs by CreatedAt ascending, then Seq ascending.
func SortOldestFirst(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].CreatedAt.Equal(txs[j].CreatedAt) {
			return txs[i].CreatedAt.Before(txs[j].CreatedAt)
		}
		return txs[i].Seq < txs[j].Seq
	})
}

// Replay sums the balance effects of txs starting from zero in currency curr.
func Replay(curr string, txs []Transaction) (money.Amount, error) {
	total, err := money.NewAmountFromMinorUnits(curr, 0)
	if err != nil {
		return money.Amount{}, err
	}
	for _, t := range txs {
		if total, err = total.Add(t.Effect()); err != nil {
			return money.Amount{}, err
		}
	}
	return total, nil
}

// Reconciliation compares an account's cached balance with a replay of its log.
type Reconciliation struct {
	AccountID uuid.UUID
	Cached    money.Amount
	Replayed  money.Amount
	Entries   int
	Balanced  bool
}

// Totals aggregates the log across all accounts.
type Totals struct {
	Deposits    money.Amount
	Withdrawals money.Amount
	Count       int
}

// Decimal converts a money amount into a shopspring decimal at full precision.
func Decimal(a money.Amount) decimal.Decimal {
	return decimal.RequireFromString(a.Decimal().String())
}

// Format renders a with exactly two fractional digits, rounding half-up.
func Format(a money.Amount) string {
	return Decimal(a).Round(2).StringFixed(2)
}

// MinorUnits returns a as an integer count of the currency's minor unit.
func MinorUnits(a money.Amount) (int64, error) {
	m, ok := a.MinorUnits()
	if !ok {
		return 0, fmt.Errorf("amount %s overflows minor units", a)
	}
	return m, nil
}
