package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

type DB struct {
	*pgxpool.Pool
	schema string
}

// Initialise a new database connection. connString should be a valid postgres connection string (such as a postgres-url).
// If schema is not empty, every connection in the pool will use it as its search path.
// The connection is verified before returning, an unreachable database results in an error.
func NewDB(ctx context.Context, connString string, schema string) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("invalid postgres connection string: %w", err)
	}
	if len(schema) > 0 {
		poolConfig.ConnConfig.RuntimeParams["search_path"] = schema
	}
	slog.Info(
		"Connecting to postgres database",
		"host", poolConfig.ConnConfig.Host,
		"database", poolConfig.ConnConfig.Database,
		"schema", schema,
	)
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to postgres database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("cannot reach postgres database: %w", err)
	}
	return &DB{Pool: pool, schema: schema}, nil
}

// CreateSchema creates the schema this database was opened with, if it does not exist already.
func (db *DB) CreateSchema(ctx context.Context) error {
	if len(db.schema) == 0 {
		return nil
	}
	slog.Info("Creating postgres schema", "schema", db.schema)
	_, err := db.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pgx.Identifier{db.schema}.Sanitize())
	if err != nil {
		return fmt.Errorf("cannot create schema %q: %w", db.schema, err)
	}
	return nil
}

// Delete the schema this database was opened with, beware that this will delete all tables and data in the schema.
func (db *DB) DeleteSchema(ctx context.Context) error {
	if len(db.schema) == 0 {
		return nil
	}
	slog.Info("Deleting postgres schema", "schema", db.schema)
	_, err := db.Exec(ctx, "DROP SCHEMA IF EXISTS "+pgx.Identifier{db.schema}.Sanitize()+" CASCADE")
	if err != nil {
		return fmt.Errorf("cannot delete schema %q: %w", db.schema, err)
	}
	return nil
}

func (db *DB) createGooseProvider() (*goose.Provider, error) {
	migrations, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("cannot get embedded migrations folder: %w", err)
	}

	database := stdlib.OpenDBFromPool(db.Pool)

	return goose.NewProvider(
		goose.DialectPostgres,
		database,
		migrations,
		goose.WithVerbose(true), // Enable logging (as with goose.Up)
	)
}

// Migrate the database to the latest version, creating its schema first when needed.
func (db *DB) Migrate(ctx context.Context) error {
	if err := db.CreateSchema(ctx); err != nil {
		return err
	}

	provider, err := db.createGooseProvider()
	if err != nil {
		return fmt.Errorf("cannot create goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("cannot run database migrations: %w", err)
	}
	slog.Info("Database migrated", "applied", len(results))

	if err := provider.Close(); err != nil {
		return fmt.Errorf("cannot close goose provider connection: %w", err)
	}

	return nil
}

// Migrate the database down a single step.
func (db *DB) MigrateDown(ctx context.Context) error {
	provider, err := db.createGooseProvider()
	if err != nil {
		return fmt.Errorf("cannot create goose provider: %w", err)
	}

	_, err = provider.Down(ctx)
	if err != nil {
		return fmt.Errorf("cannot run database down migrations: %w", err)
	}

	if err := provider.Close(); err != nil {
		return fmt.Errorf("cannot close goose provider connection: %w", err)
	}

	return nil
}
