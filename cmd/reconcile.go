package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tinoosan/banking/internal/ledger"
	"github.com/tinoosan/banking/internal/observe"
	"github.com/tinoosan/banking/internal/service/account"
)

func reconcileCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Replay every account's log and compare it with the cached balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Without a database there is only a fresh memory store to check.
			if a.cfg.DatabaseURL == "" {
				return errNoDatabaseURL
			}
			be, err := openStore(cmd.Context(), a.cfg, a.log)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer be.close()
			svc := observe.NewLedger(account.New(be.store, account.WithCurrency(a.cfg.Currency)), a.log, nil)
			drifted, err := reconcileAll(cmd.Context(), svc, func(rec ledger.Reconciliation) {
				status := "ok"
				if !rec.Balanced {
					status = "DRIFT"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-5s cached=%s replayed=%s entries=%d\n",
					rec.AccountID, status, ledger.Format(rec.Cached), ledger.Format(rec.Replayed), rec.Entries)
			})
			if err != nil {
				return err
			}
			if drifted > 0 {
				return fmt.Errorf("%d account(s) out of balance", drifted)
			}
			return nil
		},
	}
}

// reconcileAll reconciles every account, reporting each result, and returns
// how many drifted.
func reconcileAll(ctx context.Context, svc account.Service, report func(ledger.Reconciliation)) (int, error) {
	accs, err := svc.ListAccounts(ctx)
	if err != nil {
		return 0, err
	}
	drifted := 0
	for _, acc := range accs {
		rec, err := svc.Reconcile(ctx, acc.ID)
		if err != nil {
			return drifted, fmt.Errorf("reconcile %s: %w", acc.ID, err)
		}
		if !rec.Balanced {
			drifted++
		}
		report(rec)
	}
	return drifted, nil
}
