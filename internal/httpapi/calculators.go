package httpapi

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/tinoosan/banking/internal/calculator"
)

// Calculator responses carry decimals as strings.

func (s *Server) calcInterest(w http.ResponseWriter, r *http.Request) {
	req, ok := r.Context().Value(ctxKeyCalculator).(interestRequest)
	if !ok {
		writeErr(w, http.StatusInternalServerError, "validated request missing", "internal")
		return
	}
	res, err := calculator.SimpleInterest(dec(req.Principal), dec(req.Rate), dec(req.Years))
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, map[string]string{
		"interest":     res.Interest.StringFixed(2),
		"total_amount": res.TotalAmount.StringFixed(2),
	})
}

func (s *Server) calcFixedDeposit(w http.ResponseWriter, r *http.Request) {
	req, ok := r.Context().Value(ctxKeyCalculator).(fixedDepositRequest)
	if !ok {
		writeErr(w, http.StatusInternalServerError, "validated request missing", "internal")
		return
	}
	res, err := calculator.FixedDeposit(calculator.FixedDepositRequest{
		Amount:    dec(req.Amount),
		Rate:      dec(req.Rate),
		Tenure:    req.Tenure,
		Premature: req.PrematureWithdrawal,
	})
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, map[string]string{
		"maturity_amount": res.MaturityAmount.String(),
		"interest_earned": res.InterestEarned.String(),
		"message":         res.Message,
	})
}

func (s *Server) calcCreditCardBill(w http.ResponseWriter, r *http.Request) {
	req, ok := r.Context().Value(ctxKeyCalculator).(creditCardBillRequest)
	if !ok {
		writeErr(w, http.StatusInternalServerError, "validated request missing", "internal")
		return
	}
	res, err := calculator.CreditCardBill(calculator.CreditCardBillRequest{
		TotalSpending: dec(req.TotalSpending),
		PaymentsMade:  dec(req.PaymentsMade),
		DueDate:       req.DueDate,
		CurrentDate:   req.CurrentDate,
	})
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, map[string]any{
		"pending_amount": fixed(res.PendingAmount),
		"interest":       fixed(res.Interest),
		"late_fee":       fixed(res.LateFee),
		"total_due":      fixed(res.TotalDue),
		"status":         res.Status,
		"days_delayed":   res.DaysDelayed,
	})
}

func (s *Server) calcLoanEligibility(w http.ResponseWriter, r *http.Request) {
	req, ok := r.Context().Value(ctxKeyCalculator).(loanEligibilityRequest)
	if !ok {
		writeErr(w, http.StatusInternalServerError, "validated request missing", "internal")
		return
	}
	res := calculator.LoanEligibility(calculator.LoanEligibilityRequest{
		Age:                req.Age,
		AnnualIncome:       dec(req.AnnualIncome),
		CreditScore:        req.CreditScore,
		ExistingLoanAmount: dec(req.ExistingLoanAmount),
	})
	out := map[string]string{
		"status":          res.Status,
		"max_loan_amount": fixed(res.MaxLoanAmount),
	}
	if res.Reason != "" {
		out["reason"] = res.Reason
	}
	toJSON(w, http.StatusOK, out)
}

func fixed(d decimal.Decimal) string { return d.StringFixed(2) }
