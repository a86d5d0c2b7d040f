package httpapi

import (
	"net/http"

	"github.com/tinoosan/banking/internal/ledger"
)

// GET /v1/admin/summary
func (s *Server) adminSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.admin.Summary(r.Context())
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	top := make([]accountResponse, 0, len(sum.TopAccounts))
	for _, a := range sum.TopAccounts {
		top = append(top, toAccountResponse(a))
	}
	toJSON(w, http.StatusOK, summaryResponse{
		TotalCustomers:    sum.TotalCustomers,
		TotalDeposits:     ledger.Format(sum.TotalDeposits),
		TotalWithdrawals:  ledger.Format(sum.TotalWithdrawals),
		TotalTransactions: sum.TotalTransactions,
		TopAccountsCount:  len(top),
		TopAccounts:       top,
	})
}
