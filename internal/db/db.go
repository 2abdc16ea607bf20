// Package db provides database adapters behind small DB and Tx interfaces so
// the batch jobs stay storage-agnostic. Two adapters exist: SQL Server via
// database/sql (the production target, with IDENTITY_INSERT support) and
// Postgres via pgx (native COPY; identity columns accept explicit values
// without a session toggle).
package db

import (
	"context"
	"fmt"
)

// DB is a connection capable of starting transactions and executing DDL/DML.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) error
	BeginTx(ctx context.Context) (Tx, error)
	Close(ctx context.Context) error
}

// Tx is one transaction. All data-mutating statements issued through a Tx
// commit or roll back as a unit.
type Tx interface {
	Exec(ctx context.Context, sql string, args ...any) error

	// QueryIDs runs a query whose result is a single integer column and
	// returns the values in row order.
	QueryIDs(ctx context.Context, sql string, args ...any) ([]int64, error)

	// CopyInto bulk-appends rows into schema.table. Returns rows written.
	CopyInto(ctx context.Context, schema, table string, columns []string, rows [][]any) (int64, error)

	// SetIdentityInsert toggles explicit-identity-value insertion for
	// schema.table. On engines whose identity columns already accept
	// explicit values this is a no-op.
	SetIdentityInsert(ctx context.Context, schema, table string, on bool) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Open connects with the adapter matching driver ("mssql" or "postgres").
func Open(ctx context.Context, driver, dsn string) (DB, error) {
	switch driver {
	case "mssql":
		return NewMSSQL(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
}
