package repository

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/contactbook/contactbook-go/internal/repository/migrations"
)

// Supported database drivers.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// NewDB opens a connection pool for the given driver and verifies it is reachable.
func NewDB(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	if driver != DriverMySQL && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	switch driver {
	case DriverMySQL:
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	case DriverSQLite:
		// SQLite has a single writer; one pooled connection serialises it in-process.
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping: %w", ErrUnavailable, err)
	}

	return db, nil
}

// Migrate applies every pending embedded migration for the driver's dialect.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	var (
		dialect goose.Dialect
		dir     string
	)
	switch driver {
	case DriverMySQL:
		dialect, dir = goose.DialectMySQL, "mysql"
	case DriverSQLite:
		dialect, dir = goose.DialectSQLite3, "sqlite"
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}

	fsys, err := fs.Sub(migrations.FS, dir)
	if err != nil {
		return err
	}

	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	if len(results) > 0 {
		slog.Info("database migrations applied", "driver", driver, "count", len(results))
	}

	return nil
}
