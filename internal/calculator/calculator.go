// Package calculator holds the stateless banking calculators: simple interest,
// fixed deposit maturity, credit card bills and loan eligibility.
package calculator

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tinoosan/banking/internal/errs"
)

var (
	hundred = decimal.NewFromInt(100)
	// 36% APR, accrued daily.
	cardAPR    = decimal.RequireFromString("0.36")
	daysInYear = decimal.NewFromInt(365)
)

func positive(name string, d decimal.Decimal) error {
	if !d.IsPositive() {
		return fmt.Errorf("%w: %s must be > 0", errs.ErrInvalidArgument, name)
	}
	return nil
}

// InterestResult is the outcome of a simple interest calculation.
type InterestResult struct {
	Interest    decimal.Decimal
	TotalAmount decimal.Decimal
}

// SimpleInterest computes P*R*T/100. rate is a yearly percentage, years may be fractional.
func SimpleInterest(principal, rate, years decimal.Decimal) (InterestResult, error) {
	for _, in := range []struct {
		name string
		v    decimal.Decimal
	}{{"principal", principal}, {"rate", rate}, {"time", years}} {
		if err := positive(in.name, in.v); err != nil {
			return InterestResult{}, err
		}
	}
	interest := principal.Mul(rate).Mul(years).Div(hundred)
	return InterestResult{Interest: interest.Round(2), TotalAmount: principal.Add(interest).Round(2)}, nil
}

type FixedDepositRequest struct {
	Amount    decimal.Decimal
	Rate      decimal.Decimal // yearly percentage
	Tenure    int             // whole years
	Premature bool
}

type FixedDepositResult struct {
	MaturityAmount decimal.Decimal
	InterestEarned decimal.Decimal
	Message        string
}

// FixedDeposit compounds yearly: A = P*(1 + r/100)^t. A premature withdrawal
// forfeits 1% of the maturity amount. Results are rounded to whole units.
func FixedDeposit(req FixedDepositRequest) (FixedDepositResult, error) {
	if err := positive("amount", req.Amount); err != nil {
		return FixedDepositResult{}, err
	}
	if err := positive("rate", req.Rate); err != nil {
		return FixedDepositResult{}, err
	}
	if req.Tenure <= 0 {
		return FixedDepositResult{}, fmt.Errorf("%w: tenure must be > 0", errs.ErrInvalidArgument)
	}
	factor := decimal.NewFromInt(1).Add(req.Rate.Div(hundred))
	maturity := req.Amount
	for i := 0; i < req.Tenure; i++ {
		maturity = maturity.Mul(factor)
	}
	msg := "Full maturity"
	if req.Premature {
		maturity = maturity.Sub(maturity.Div(hundred))
		msg = "Premature withdrawal applied (1% penalty)"
	}
	return FixedDepositResult{
		MaturityAmount: maturity.Round(0),
		InterestEarned: maturity.Sub(req.Amount).Round(0),
		Message:        msg,
	}, nil
}

// Card bill statuses.
const (
	StatusPaidOnTime = "Paid On Time"
	StatusPending    = "Pending (Not Due)"
	StatusPaidLate   = "Paid (Late)"
	StatusOverdue    = "Overdue"
)

const dateLayout = "2006-01-02"

type CreditCardBillRequest struct {
	TotalSpending decimal.Decimal
	PaymentsMade  decimal.Decimal
	DueDate       string // YYYY-MM-DD
	CurrentDate   string // YYYY-MM-DD
}

type CreditCardBillResult struct {
	PendingAmount decimal.Decimal
	Interest      decimal.Decimal
	LateFee       decimal.Decimal
	TotalDue      decimal.Decimal
	Status        string
	DaysDelayed   int
}

// CreditCardBill works out what is owed on a card statement as of CurrentDate.
// Interest and late fees apply only once the due date has passed with a balance left.
func CreditCardBill(req CreditCardBillRequest) (CreditCardBillResult, error) {
	if req.DueDate == "" || req.CurrentDate == "" {
		return CreditCardBillResult{}, fmt.Errorf("%w: due and current dates are required (YYYY-MM-DD)", errs.ErrInvalidArgument)
	}
	due, err := time.Parse(dateLayout, req.DueDate)
	if err != nil {
		return CreditCardBillResult{}, fmt.Errorf("%w: invalid due date, use YYYY-MM-DD", errs.ErrInvalidArgument)
	}
	now, err := time.Parse(dateLayout, req.CurrentDate)
	if err != nil {
		return CreditCardBillResult{}, fmt.Errorf("%w: invalid current date, use YYYY-MM-DD", errs.ErrInvalidArgument)
	}
	spent := req.TotalSpending.Round(2)
	paid := req.PaymentsMade.Round(2)
	if spent.IsNegative() || paid.IsNegative() {
		return CreditCardBillResult{}, fmt.Errorf("%w: amounts must be non-negative", errs.ErrInvalidArgument)
	}
	pending := decimal.Max(decimal.Zero, spent.Sub(paid))
	settled := paid.GreaterThanOrEqual(spent)

	if !now.After(due) {
		if settled {
			return CreditCardBillResult{Status: StatusPaidOnTime}, nil
		}
		return CreditCardBillResult{PendingAmount: pending, TotalDue: pending, Status: StatusPending}, nil
	}

	days := int(now.Sub(due).Hours() / 24)
	if settled {
		return CreditCardBillResult{Status: StatusPaidLate, DaysDelayed: days}, nil
	}
	fee := lateFee(pending)
	interest := pending.Mul(cardAPR).Div(daysInYear).Mul(decimal.NewFromInt(int64(days))).Round(2)
	return CreditCardBillResult{
		PendingAmount: pending,
		Interest:      interest,
		LateFee:       fee,
		TotalDue:      pending.Add(interest).Add(fee).Round(2),
		Status:        StatusOverdue,
		DaysDelayed:   days,
	}, nil
}

// lateFee slabs: up to 500 nothing, up to 5000 a flat 500, above that 750.
func lateFee(pending decimal.Decimal) decimal.Decimal {
	switch {
	case pending.LessThanOrEqual(decimal.NewFromInt(500)):
		return decimal.Zero
	case pending.LessThanOrEqual(decimal.NewFromInt(5000)):
		return decimal.NewFromInt(500)
	default:
		return decimal.NewFromInt(750)
	}
}

type LoanEligibilityRequest struct {
	Age                int
	AnnualIncome       decimal.Decimal
	CreditScore        int
	ExistingLoanAmount decimal.Decimal
}

type LoanEligibilityResult struct {
	Status        string
	Reason        string
	MaxLoanAmount decimal.Decimal
}

var (
	minIncome      = decimal.NewFromInt(300000)
	maxDebtRatio   = decimal.RequireFromString("0.4")
	incomeMultiple = decimal.RequireFromString("1.2")
)

// LoanEligibility applies the rules in order and reports the first one that fails.
func LoanEligibility(req LoanEligibilityRequest) LoanEligibilityResult {
	no := func(reason string) LoanEligibilityResult {
		return LoanEligibilityResult{Status: "Not Eligible", Reason: reason, MaxLoanAmount: decimal.Zero}
	}
	switch {
	case req.Age < 21:
		return no("Minimum age requirement not met")
	case req.AnnualIncome.LessThanOrEqual(minIncome):
		return no("Annual income below threshold")
	case req.CreditScore < 700:
		return no("Credit score below minimum threshold")
	case req.ExistingLoanAmount.Div(req.AnnualIncome).GreaterThanOrEqual(maxDebtRatio):
		return no("Loan-to-income ratio exceeds limit")
	}
	return LoanEligibilityResult{
		Status:        "Eligible",
		MaxLoanAmount: req.AnnualIncome.Mul(incomeMultiple).Sub(req.ExistingLoanAmount).Round(2),
	}
}
