package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/govalues/money"

	"github.com/tinoosan/banking/internal/ledger"
	"github.com/tinoosan/banking/internal/service/account"
)

// seedDev opens two demo accounts through the ledger so their opening
// deposits are ordinary audited transactions.
func seedDev(ctx context.Context, svc account.Service, l *slog.Logger) error {
	demo := []struct {
		name    string
		deposit string
	}{
		{"Demo Savings", "150000"},
		{"Demo Current", "2500"},
	}
	accs := make([]ledger.Account, 0, len(demo))
	for _, d := range demo {
		amt, err := money.ParseAmount(svc.Currency(), d.deposit)
		if err != nil {
			return err
		}
		acc, err := svc.CreateAccount(ctx, account.CreateAccountRequest{Name: d.name, InitialDeposit: amt})
		if err != nil {
			return err
		}
		accs = append(accs, acc)
	}
	ids := map[string]string{}
	for _, a := range accs {
		ids[a.Name] = a.ID.String()
	}
	l.Info("DEV seed", "accounts", ids)
	printDevSeedBanner(accs)
	return nil
}

// printDevSeedBanner prints a simple banner to stdout for easy copy/paste of IDs
func printDevSeedBanner(accs []ledger.Account) {
	fmt.Println("==================== DEV SEED ====================")
	for _, a := range accs {
		fmt.Printf("%-14s %s  balance=%s\n", a.Name+":", a.ID, ledger.Format(a.Balance))
	}
	fmt.Println("==================================================")
}
