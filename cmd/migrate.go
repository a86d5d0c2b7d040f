package main

import (
	"errors"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/spf13/cobra"

	pgstore "github.com/tinoosan/banking/internal/storage/postgres"
)

var errNoDatabaseURL = errors.New("BANKING_DATABASE_URL is not set")

func migrateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the postgres schema",
	}
	cmd.AddCommand(migrateDirectionCommand(a, "up", "Apply pending migrations", migrate.Up))
	cmd.AddCommand(migrateDirectionCommand(a, "down", "Roll back applied migrations", migrate.Down))
	return cmd
}

func migrateDirectionCommand(a *app, use, short string, dir migrate.MigrationDirection) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.DatabaseURL == "" {
				return errNoDatabaseURL
			}
			n, err := pgstore.Migrate(a.cfg.DatabaseURL, dir, limit)
			if err != nil {
				return err
			}
			a.log.Info("migrations executed", "direction", use, "count", n)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of migrations to run (0 = all)")
	return cmd
}
