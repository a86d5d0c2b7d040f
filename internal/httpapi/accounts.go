package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/tinoosan/banking/internal/errs"
	"github.com/tinoosan/banking/internal/ledger"
	"github.com/tinoosan/banking/internal/service/account"
)

// pathID parses the {id} URL parameter, writing 400 when it is not a UUID.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid account id")
		return uuid.Nil, false
	}
	return id, true
}

// amount parses n in the ledger currency. An empty number is the zero amount.
func (s *Server) amount(n json.Number) (money.Amount, error) {
	if n == "" {
		return money.Amount{}, nil
	}
	a, err := money.ParseAmount(s.ledger.Currency(), string(n))
	if err != nil {
		return money.Amount{}, fmt.Errorf("%w: amount %q: %v", errs.ErrInvalidArgument, n, err)
	}
	return a, nil
}

// POST /v1/accounts
func (s *Server) postAccount(w http.ResponseWriter, r *http.Request) {
	req, ok := r.Context().Value(ctxKeyCreateAccount).(createAccountRequest)
	if !ok {
		writeErr(w, http.StatusInternalServerError, "validated request missing", "internal")
		return
	}
	initial, err := s.amount(req.InitialDeposit)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	acc, err := s.ledger.CreateAccount(r.Context(), account.CreateAccountRequest{Name: req.Name, InitialDeposit: initial})
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	toJSON(w, http.StatusCreated, toAccountResponse(acc))
}

// GET /v1/accounts
func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	accs, err := s.ledger.ListAccounts(r.Context())
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	out := make([]accountResponse, 0, len(accs))
	for _, a := range accs {
		out = append(out, toAccountResponse(a))
	}
	toJSON(w, http.StatusOK, out)
}

// GET /v1/accounts/{id}
func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	acc, err := s.ledger.GetAccount(r.Context(), id)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toAccountResponse(acc))
}

// POST /v1/accounts/{id}/deposit
func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	s.moveFunds(w, r, func(id uuid.UUID, amt money.Amount) (ledger.Account, error) {
		return s.ledger.Deposit(r.Context(), account.DepositRequest{AccountID: id, Amount: amt})
	})
}

// POST /v1/accounts/{id}/withdraw
func (s *Server) withdraw(w http.ResponseWriter, r *http.Request) {
	s.moveFunds(w, r, func(id uuid.UUID, amt money.Amount) (ledger.Account, error) {
		return s.ledger.Withdraw(r.Context(), account.WithdrawRequest{AccountID: id, Amount: amt})
	})
}

func (s *Server) moveFunds(w http.ResponseWriter, r *http.Request, op func(uuid.UUID, money.Amount) (ledger.Account, error)) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	req, ok := r.Context().Value(ctxKeyAmount).(amountRequest)
	if !ok {
		writeErr(w, http.StatusInternalServerError, "validated request missing", "internal")
		return
	}
	amt, err := s.amount(req.Amount)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	acc, err := op(id, amt)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, toAccountResponse(acc))
}

// POST /v1/accounts/transfer
func (s *Server) transfer(w http.ResponseWriter, r *http.Request) {
	req, ok := r.Context().Value(ctxKeyTransfer).(transferRequest)
	if !ok {
		writeErr(w, http.StatusInternalServerError, "validated request missing", "internal")
		return
	}
	amt, err := s.amount(req.Amount)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	res, err := s.ledger.Transfer(r.Context(), account.TransferRequest{
		FromID: uuid.MustParse(req.FromAccountID),
		ToID:   uuid.MustParse(req.ToAccountID),
		Amount: amt,
	})
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, transferResponse{
		TransferID:    res.TransferID,
		FromAccountID: res.FromAccountID,
		ToAccountID:   res.ToAccountID,
		Amount:        ledger.Format(res.Amount),
		SourceBalance: ledger.Format(res.SourceBalance),
		Message:       res.Message(),
	})
}

// GET /v1/accounts/{id}/transactions and /v1/accounts/transactions/{id}
func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	txs, err := s.ledger.Transactions(r.Context(), id)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionResponse(t))
	}
	toJSON(w, http.StatusOK, out)
}

// GET /v1/accounts/{id}/reconciliation
func (s *Server) reconcile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rec, err := s.ledger.Reconcile(r.Context(), id)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	toJSON(w, http.StatusOK, reconciliationResponse{
		AccountID: rec.AccountID,
		Cached:    ledger.Format(rec.Cached),
		Replayed:  ledger.Format(rec.Replayed),
		Entries:   rec.Entries,
		Balanced:  rec.Balanced,
	})
}
