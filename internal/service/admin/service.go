// Package admin derives system-wide figures from the ledger store.
package admin

import (
	"context"
	"sort"

	"github.com/govalues/money"
	"github.com/tinoosan/banking/internal/ledger"
)

type Repo interface {
	ListAccounts(ctx context.Context) ([]ledger.Account, error)
	Totals(ctx context.Context, currency string) (ledger.Totals, error)
}

// Summary is the admin dashboard view. Every figure is computed from stored data.
type Summary struct {
	TotalCustomers    int
	TotalDeposits     money.Amount
	TotalWithdrawals  money.Amount
	TotalTransactions int
	// TopAccounts holds accounts whose balance exceeds the threshold, largest first.
	TopAccounts []ledger.Account
}

type Service interface {
	Summary(ctx context.Context) (Summary, error)
}

type service struct {
	repo      Repo
	currency  string
	threshold money.Amount
}

// New builds the admin service. Accounts with a balance strictly above
// threshold are reported as top accounts.
func New(repo Repo, currency string, threshold money.Amount) Service {
	return &service{repo: repo, currency: currency, threshold: threshold}
}

func (s *service) Summary(ctx context.Context) (Summary, error) {
	accs, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return Summary{}, err
	}
	tot, err := s.repo.Totals(ctx, s.currency)
	if err != nil {
		return Summary{}, err
	}
	top := make([]ledger.Account, 0)
	for _, a := range accs {
		if c, err := a.Balance.Cmp(s.threshold); err == nil && c > 0 {
			top = append(top, a)
		}
	}
	sort.SliceStable(top, func(i, j int) bool {
		c, _ := top[i].Balance.Cmp(top[j].Balance)
		return c > 0
	})
	return Summary{
		TotalCustomers:    len(accs),
		TotalDeposits:     tot.Deposits,
		TotalWithdrawals:  tot.Withdrawals,
		TotalTransactions: tot.Count,
		TopAccounts:       top,
	}, nil
}
