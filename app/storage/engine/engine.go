// Package engine provides a unified database access layer for the supported
// database engines. It wraps sqlx.DB with the engine type and dialect-aware helpers,
// so the table-level stores can keep a single code path for sqlite and postgres.
package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"  // postgres driver loaded here
	_ "modernc.org/sqlite" // sqlite driver loaded here
)

// Type is a type of database engine
type Type string

// enum of supported database engines
const (
	Unknown  Type = ""
	Sqlite   Type = "sqlite"
	Postgres Type = "postgres"
)

// SQL is a wrapper for sqlx.DB with type.
// Type allows distinguishing between different database engines.
type SQL struct {
	sqlx.DB
	dbType Type
}

// NewSqlite creates a new sqlite database
func NewSqlite(file string) (*SQL, error) {
	db, err := sqlx.Connect("sqlite", file)
	if err != nil {
		return &SQL{}, err
	}
	if err := setSqlitePragma(db); err != nil {
		return &SQL{}, err
	}
	return &SQL{DB: *db, dbType: Sqlite}, nil
}

// NewPostgres creates a new postgres database connection
func NewPostgres(ctx context.Context, connURL string) (*SQL, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", connURL)
	if err != nil {
		return &SQL{}, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return &SQL{DB: *db, dbType: Postgres}, nil
}

// Type returns the database engine type
func (e *SQL) Type() Type {
	return e.dbType
}

// Adopt rewrites a query with sqlite-style "?" placeholders to the engine's
// native bindvar format. For sqlite the query is returned as is.
func (e *SQL) Adopt(query string) string {
	if e.dbType == Postgres {
		return sqlx.Rebind(sqlx.DOLLAR, query)
	}
	return query
}

// MakeLock creates a new lock for the database engine
func (e *SQL) MakeLock() RWLocker {
	if e.dbType == Sqlite {
		return new(sync.RWMutex) // sqlite need locking
	}
	return &NoopLocker{} // other engines don't need locking
}

func setSqlitePragma(db *sqlx.DB) error {
	pragmas := map[string]string{
		"busy_timeout": "5000",
		"foreign_keys": "ON",
	}
	for name, value := range pragmas {
		if _, err := db.Exec("PRAGMA " + name + " = " + value); err != nil {
			return err
		}
	}
	return nil
}

// TableConfig defines how to initialize a table: schema and indexes commands
// picked from the queries map, plus an optional migration function invoked for
// pre-existing tables.
type TableConfig struct {
	Name          string
	CreateTable   DBCmd
	CreateIndexes DBCmd
	MigrateFunc   func(ctx context.Context, tx *sqlx.Tx) error
	QueriesMap    *QueryMap
}

// InitTable initializes a table with a schema and handles migration in a transaction
func InitTable(ctx context.Context, db *SQL, cfg TableConfig) error {
	if db == nil {
		return fmt.Errorf("db connection is nil")
	}

	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	exists, err := tableExists(ctx, tx, db, cfg.Name)
	if err != nil {
		return fmt.Errorf("failed to check for %s table existence: %w", cfg.Name, err)
	}

	if !exists {
		schema, perr := cfg.QueriesMap.Pick(db.Type(), cfg.CreateTable)
		if perr != nil {
			return fmt.Errorf("failed to get create query for %s: %w", cfg.Name, perr)
		}
		if _, err = tx.ExecContext(ctx, schema); err != nil {
			return fmt.Errorf("failed to create schema for %s: %w", cfg.Name, err)
		}
	}

	if exists && cfg.MigrateFunc != nil {
		if err = cfg.MigrateFunc(ctx, tx); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", cfg.Name, err)
		}
	}

	if cfg.CreateIndexes != 0 {
		indexes, perr := cfg.QueriesMap.Pick(db.Type(), cfg.CreateIndexes)
		if perr != nil {
			return fmt.Errorf("failed to get indexes query for %s: %w", cfg.Name, perr)
		}
		if _, err = tx.ExecContext(ctx, indexes); err != nil {
			return fmt.Errorf("failed to create indexes for %s: %w", cfg.Name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func tableExists(ctx context.Context, tx *sqlx.Tx, db *SQL, tableName string) (bool, error) {
	var count int
	switch db.Type() {
	case Sqlite:
		err := tx.GetContext(ctx, &count, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", tableName)
		if err != nil {
			return false, err
		}
	case Postgres:
		err := tx.GetContext(ctx, &count,
			"SELECT COUNT(*) FROM information_schema.tables WHERE table_schema='public' AND table_name=$1", tableName)
		if err != nil {
			return false, err
		}
	default:
		return false, fmt.Errorf("unsupported database type %q", db.Type())
	}
	return count > 0, nil
}
