package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/auth/*.sql migrations/shopping/*.sql
var migrationsFS embed.FS

// gooseUp is a seam for tests.
var gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
	return goose.UpContext(ctx, db, dir)
}

// RunMigrations applies the embedded migrations of one service. Each
// service keeps its own goose version table so they can share a database.
func RunMigrations(ctx context.Context, db *sql.DB, service string) error {
	if service != "auth" && service != "shopping" {
		return fmt.Errorf("no migrations for service %q", service)
	}
	goose.SetBaseFS(migrationsFS)
	goose.SetTableName(service + "_schema_migrations")
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := gooseUp(ctx, db, "migrations/"+service); err != nil {
		return fmt.Errorf("failed to run %s migrations: %w", service, err)
	}
	return nil
}
