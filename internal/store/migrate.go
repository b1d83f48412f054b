package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"carspace-backend/internal/store/migrations"
)

// RunMigrations applies the embedded schema migrations. goose needs a
// database/sql handle, so a short-lived connection is opened via the pgx
// stdlib driver; the runtime pool is managed separately.
func RunMigrations(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("db open error: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	return nil
}
