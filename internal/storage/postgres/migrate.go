package postgres

import (
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	migrate "github.com/rubenv/sql-migrate"

	"github.com/tinoosan/banking/internal/errs"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies (or rolls back) at most limit embedded schema migrations
// against dsn and reports how many ran. limit <= 0 means no limit.
func Migrate(dsn string, dir migrate.MigrationDirection, limit int) (int, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return 0, fmt.Errorf("%w: open: %w", errs.ErrStoreUnavailable, err)
	}
	defer db.Close()

	src := &migrate.EmbedFileSystemMigrationSource{FileSystem: migrations, Root: "migrations"}
	n, err := migrate.ExecMax(db, "postgres", src, dir, limit)
	if err != nil {
		return n, fmt.Errorf("migrate: %w", err)
	}
	return n, nil
}
