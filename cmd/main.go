package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tinoosan/banking/internal/config"
)

// app carries what every command needs once the root pre-run has loaded it.
type app struct {
	envFile string
	cfg     config.Config
	log     *slog.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "banking",
		Short:         "Single-currency account ledger with monthly statements",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.envFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			a.cfg = cfg
			a.log = cfg.Logger(os.Stdout)
			slog.SetDefault(a.log)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "optional dotenv file loaded before the environment")

	root.AddCommand(serveCommand(a))
	root.AddCommand(migrateCommand(a))
	root.AddCommand(reconcileCommand(a))
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
