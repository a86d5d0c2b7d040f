package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/govalues/money"

	"github.com/tinoosan/banking/internal/service/account"
	"github.com/tinoosan/banking/internal/service/admin"
	"github.com/tinoosan/banking/internal/service/statement"
	"github.com/tinoosan/banking/internal/storage/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type errResp struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// setup builds a handler over a memory store. clock drives transaction timestamps.
func setup(t *testing.T, opts Options, clock func() time.Time) http.Handler {
	t.Helper()
	store := memory.New()
	var aopts []account.Option
	if clock != nil {
		aopts = append(aopts, account.WithClock(clock))
	}
	threshold, err := money.ParseAmount("INR", "100000")
	if err != nil {
		t.Fatalf("threshold: %v", err)
	}
	return New(
		account.New(store, aopts...),
		statement.New(store),
		admin.New(store, "INR", threshold),
		testLogger(),
		opts,
	).Handler()
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func expectErr(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	expectStatus(t, rec, status)
	if e := decode[errResp](t, rec); e.Code != code {
		t.Fatalf("expected code %q, got %+v", code, e)
	}
}

func createAccount(t *testing.T, h http.Handler, name string, initial any) accountResponse {
	t.Helper()
	body := map[string]any{"name": name}
	if initial != nil {
		body["initial_deposit"] = initial
	}
	rec := do(t, h, http.MethodPost, "/v1/accounts", body)
	expectStatus(t, rec, http.StatusCreated)
	return decode[accountResponse](t, rec)
}

func TestAccounts_Lifecycle(t *testing.T) {
	h := setup(t, Options{}, nil)

	a := createAccount(t, h, "Alice", 1000)
	if a.Balance != "1000.00" || a.Currency != "INR" {
		t.Fatalf("unexpected account: %+v", a)
	}
	b := createAccount(t, h, "Bob", nil)
	if b.Balance != "0.00" {
		t.Fatalf("expected empty account, got %+v", b)
	}

	rec := do(t, h, http.MethodPost, "/v1/accounts/"+a.ID.String()+"/deposit", map[string]any{"amount": "250.25"})
	expectStatus(t, rec, http.StatusOK)
	if got := decode[accountResponse](t, rec).Balance; got != "1250.25" {
		t.Fatalf("balance after deposit = %s", got)
	}

	rec = do(t, h, http.MethodPost, "/v1/accounts/"+b.ID.String()+"/withdraw", map[string]any{"amount": 1})
	expectErr(t, rec, http.StatusUnprocessableEntity, "insufficient_funds")

	rec = do(t, h, http.MethodPost, "/v1/accounts/transfer", map[string]any{
		"from_account_id": a.ID.String(),
		"to_account_id":   b.ID.String(),
		"amount":          300,
	})
	expectStatus(t, rec, http.StatusOK)
	tr := decode[transferResponse](t, rec)
	if tr.SourceBalance != "950.25" || tr.Message != "Transfer Successful. Remaining balance: 950.25" {
		t.Fatalf("unexpected transfer: %+v", tr)
	}

	rec = do(t, h, http.MethodPost, "/v1/accounts/"+b.ID.String()+"/withdraw", map[string]any{"amount": 100})
	expectStatus(t, rec, http.StatusOK)
	if got := decode[accountResponse](t, rec).Balance; got != "200.00" {
		t.Fatalf("b balance = %s", got)
	}

	rec = do(t, h, http.MethodGet, "/v1/accounts/"+a.ID.String(), nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[accountResponse](t, rec).Balance; got != "950.25" {
		t.Fatalf("a balance = %s", got)
	}

	rec = do(t, h, http.MethodGet, "/v1/accounts", nil)
	expectStatus(t, rec, http.StatusOK)
	if list := decode[[]accountResponse](t, rec); len(list) != 2 || list[0].ID != a.ID {
		t.Fatalf("unexpected list: %+v", list)
	}

	for _, path := range []string{"/v1/accounts/" + a.ID.String() + "/transactions", "/v1/accounts/transactions/" + a.ID.String()} {
		rec = do(t, h, http.MethodGet, path, nil)
		expectStatus(t, rec, http.StatusOK)
		txs := decode[[]transactionResponse](t, rec)
		if len(txs) != 3 {
			t.Fatalf("%s: expected 3 transactions, got %d", path, len(txs))
		}
		if txs[0].Type != "TRANSFER" || txs[0].Amount != "-300.00" || txs[0].TransferID == nil || *txs[0].TransferID != tr.TransferID {
			t.Fatalf("%s: newest should be the transfer debit, got %+v", path, txs[0])
		}
		if txs[2].Type != "DEPOSIT" || txs[2].Amount != "1000.00" {
			t.Fatalf("%s: oldest should be the opening deposit, got %+v", path, txs[2])
		}
	}

	rec = do(t, h, http.MethodGet, "/v1/accounts/"+a.ID.String()+"/reconciliation", nil)
	expectStatus(t, rec, http.StatusOK)
	if rc := decode[reconciliationResponse](t, rec); !rc.Balanced || rc.Entries != 3 || rc.Cached != "950.25" {
		t.Fatalf("unexpected reconciliation: %+v", rc)
	}
}

func TestAccounts_Errors(t *testing.T) {
	h := setup(t, Options{}, nil)
	a := createAccount(t, h, "Alice", "10")
	unknown := "/v1/accounts/7b0e4bb4-2b7e-4d6a-9d55-8d1f0c1d2e3f"

	expectErr(t, do(t, h, http.MethodGet, "/v1/accounts/not-a-uuid", nil), http.StatusBadRequest, "invalid_argument")
	expectErr(t, do(t, h, http.MethodGet, unknown, nil), http.StatusNotFound, "account_not_found")
	expectErr(t, do(t, h, http.MethodGet, unknown+"/transactions", nil), http.StatusNotFound, "account_not_found")
	expectErr(t, do(t, h, http.MethodPost, unknown+"/deposit", map[string]any{"amount": 5}), http.StatusNotFound, "account_not_found")

	// blank name, negative opening deposit, unknown field
	expectErr(t, do(t, h, http.MethodPost, "/v1/accounts", map[string]any{"name": ""}), http.StatusBadRequest, "invalid_argument")
	expectErr(t, do(t, h, http.MethodPost, "/v1/accounts", map[string]any{"name": "X", "initial_deposit": -5}), http.StatusBadRequest, "invalid_argument")
	expectErr(t, do(t, h, http.MethodPost, "/v1/accounts", map[string]any{"name": "X", "extra": true}), http.StatusBadRequest, "invalid_argument")

	deposit := "/v1/accounts/" + a.ID.String() + "/deposit"
	expectErr(t, do(t, h, http.MethodPost, deposit, map[string]any{}), http.StatusBadRequest, "invalid_argument")
	expectErr(t, do(t, h, http.MethodPost, deposit, map[string]any{"amount": 0}), http.StatusBadRequest, "invalid_argument")
	expectErr(t, do(t, h, http.MethodPost, deposit, map[string]any{"amount": "0.005"}), http.StatusBadRequest, "invalid_argument")
	expectErr(t, do(t, h, http.MethodPost, deposit, map[string]any{"amount": "ten"}), http.StatusBadRequest, "invalid_argument")

	expectErr(t, do(t, h, http.MethodPost, "/v1/accounts/transfer", map[string]any{
		"from_account_id": a.ID.String(), "to_account_id": a.ID.String(), "amount": 1,
	}), http.StatusBadRequest, "invalid_argument")
	expectErr(t, do(t, h, http.MethodPost, "/v1/accounts/transfer", map[string]any{
		"from_account_id": "nope", "to_account_id": a.ID.String(), "amount": 1,
	}), http.StatusBadRequest, "invalid_argument")

	// content type
	req := httptest.NewRequest(http.MethodPost, deposit, strings.NewReader(`{"amount":1}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	expectErr(t, rec, http.StatusUnsupportedMediaType, "unsupported_media_type")

	// malformed JSON
	req = httptest.NewRequest(http.MethodPost, deposit, strings.NewReader(`{"amount":`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	expectErr(t, rec, http.StatusBadRequest, "invalid_argument")
}

func TestStatement(t *testing.T) {
	now := time.Date(2025, 10, 15, 10, 0, 0, 0, time.UTC)
	h := setup(t, Options{}, func() time.Time { return now })

	a := createAccount(t, h, "Alice", 1000)
	now = time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC)
	expectStatus(t, do(t, h, http.MethodPost, "/v1/accounts/"+a.ID.String()+"/deposit", map[string]any{"amount": 5000}), http.StatusOK)
	now = time.Date(2025, 11, 30, 23, 59, 59, 0, time.UTC)
	expectStatus(t, do(t, h, http.MethodPost, "/v1/accounts/"+a.ID.String()+"/withdraw", map[string]any{"amount": 3000}), http.StatusOK)
	now = time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	expectStatus(t, do(t, h, http.MethodPost, "/v1/accounts/"+a.ID.String()+"/withdraw", map[string]any{"amount": 500}), http.StatusOK)

	rec := do(t, h, http.MethodGet, "/v1/statement/"+a.ID.String()+"?month=11&year=2025", nil)
	expectStatus(t, rec, http.StatusOK)
	st := decode[statementResponse](t, rec)
	if st.Period != "NOVEMBER" || st.OpeningBalance != "1000.00" || st.TotalDeposits != "5000.00" ||
		st.TotalWithdrawals != "3000.00" || st.ClosingBalance != "3000.00" || st.TransactionCount != 2 {
		t.Fatalf("unexpected statement: %+v", st)
	}

	expectErr(t, do(t, h, http.MethodGet, "/v1/statement/"+a.ID.String()+"?month=13&year=2025", nil), http.StatusBadRequest, "invalid_argument")
	expectErr(t, do(t, h, http.MethodGet, "/v1/statement/"+a.ID.String()+"?year=2025", nil), http.StatusBadRequest, "invalid_argument")
	expectErr(t, do(t, h, http.MethodGet, "/v1/statement/7b0e4bb4-2b7e-4d6a-9d55-8d1f0c1d2e3f?month=11&year=2025", nil), http.StatusNotFound, "account_not_found")
}

func TestAdminSummary(t *testing.T) {
	h := setup(t, Options{}, nil)
	createAccount(t, h, "Small", 500)
	big := createAccount(t, h, "Big", 250000)

	rec := do(t, h, http.MethodGet, "/v1/admin/summary", nil)
	expectStatus(t, rec, http.StatusOK)
	sum := decode[summaryResponse](t, rec)
	if sum.TotalCustomers != 2 || sum.TotalDeposits != "250500.00" || sum.TotalTransactions != 2 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if sum.TopAccountsCount != 1 || sum.TopAccounts[0].ID != big.ID {
		t.Fatalf("unexpected top accounts: %+v", sum.TopAccounts)
	}
}

func TestCalculators(t *testing.T) {
	h := setup(t, Options{}, nil)

	rec := do(t, h, http.MethodPost, "/v1/calculators/interest", map[string]any{"principal": 10000, "rate": 5, "years": 2})
	expectStatus(t, rec, http.StatusOK)
	if out := decode[map[string]string](t, rec); out["interest"] != "1000.00" || out["total_amount"] != "11000.00" {
		t.Fatalf("unexpected interest: %+v", out)
	}

	rec = do(t, h, http.MethodPost, "/v1/calculators/fixed-deposit", map[string]any{"amount": 100000, "rate": 7, "tenure": 5})
	expectStatus(t, rec, http.StatusOK)
	if out := decode[map[string]string](t, rec); out["maturity_amount"] != "140255" || out["message"] != "Full maturity" {
		t.Fatalf("unexpected fixed deposit: %+v", out)
	}

	rec = do(t, h, http.MethodPost, "/v1/calculators/credit-card-bill", map[string]any{
		"total_spending": 3650, "payments_made": 0, "due_date": "2025-11-30", "current_date": "2025-12-10",
	})
	expectStatus(t, rec, http.StatusOK)
	if out := decode[map[string]any](t, rec); out["total_due"] != "4186.00" || out["status"] != "Overdue" {
		t.Fatalf("unexpected bill: %+v", out)
	}

	rec = do(t, h, http.MethodPost, "/v1/calculators/loan-eligibility", map[string]any{
		"age": 30, "annual_income": 500000, "credit_score": 650,
	})
	expectStatus(t, rec, http.StatusOK)
	if out := decode[map[string]string](t, rec); out["status"] != "Not Eligible" || out["reason"] != "Credit score below minimum threshold" {
		t.Fatalf("unexpected eligibility: %+v", out)
	}

	expectErr(t, do(t, h, http.MethodPost, "/v1/calculators/interest", map[string]any{"principal": -1, "rate": 5, "years": 2}), http.StatusBadRequest, "invalid_argument")
	expectErr(t, do(t, h, http.MethodPost, "/v1/calculators/credit-card-bill", map[string]any{
		"total_spending": 1, "due_date": "30/11/2025", "current_date": "2025-12-10",
	}), http.StatusBadRequest, "invalid_argument")
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func TestAuthJWT(t *testing.T) {
	const secret = "s3cret"
	h := setup(t, Options{JWTSecret: secret, JWTIssuer: "bank", JWTAudience: "api"}, nil)

	get := func(token string) int {
		req := httptest.NewRequest(http.MethodGet, "/v1/accounts", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	exp := time.Now().Add(time.Hour).Unix()
	if code := get(""); code != http.StatusUnauthorized {
		t.Fatalf("missing token: %d", code)
	}
	if code := get(signToken(t, secret, jwt.MapClaims{"iss": "bank", "aud": "api", "exp": exp})); code != http.StatusOK {
		t.Fatalf("valid token: %d", code)
	}
	if code := get(signToken(t, "other", jwt.MapClaims{"iss": "bank", "aud": "api", "exp": exp})); code != http.StatusUnauthorized {
		t.Fatalf("wrong key: %d", code)
	}
	if code := get(signToken(t, secret, jwt.MapClaims{"iss": "someone", "aud": "api", "exp": exp})); code != http.StatusUnauthorized {
		t.Fatalf("wrong issuer: %d", code)
	}
	if code := get(signToken(t, secret, jwt.MapClaims{"iss": "bank", "aud": "api", "exp": time.Now().Add(-time.Minute).Unix()})); code != http.StatusUnauthorized {
		t.Fatalf("expired: %d", code)
	}

	// health stays open
	rec := do(t, h, http.MethodGet, "/healthz", nil)
	expectStatus(t, rec, http.StatusOK)
}

func TestRateLimit(t *testing.T) {
	h := setup(t, Options{RateLimitRPS: 1, RateLimitBurst: 1}, nil)
	expectStatus(t, do(t, h, http.MethodGet, "/v1/accounts", nil), http.StatusOK)
	expectErr(t, do(t, h, http.MethodGet, "/v1/accounts", nil), http.StatusTooManyRequests, "rate_limited")
	// health is not limited
	expectStatus(t, do(t, h, http.MethodGet, "/healthz", nil), http.StatusOK)
}

type readyFunc func(context.Context) error

func (f readyFunc) Ready(ctx context.Context) error { return f(ctx) }

func TestHealthReadyMetrics(t *testing.T) {
	h := setup(t, Options{Ready: []ReadyChecker{readyFunc(func(context.Context) error { return nil })}}, nil)
	expectStatus(t, do(t, h, http.MethodGet, "/healthz", nil), http.StatusOK)
	expectStatus(t, do(t, h, http.MethodGet, "/readyz", nil), http.StatusOK)

	rec := do(t, h, http.MethodGet, "/metrics", nil)
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "banking_http_requests_total") {
		t.Fatalf("metrics output missing request counter")
	}

	down := setup(t, Options{Ready: []ReadyChecker{readyFunc(func(context.Context) error { return errors.New("down") })}}, nil)
	expectStatus(t, do(t, down, http.MethodGet, "/readyz", nil), http.StatusServiceUnavailable)
}
