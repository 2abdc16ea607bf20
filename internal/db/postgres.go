// Postgres adapter wrapping pgx.Conn/pgx.Tx. Bulk appends use the native
// COPY protocol, which is the fast path for imports. The adapter mirrors the
// MSSQL one where possible and stays mockable via the pgConnLike seam.
package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgConnLike is the minimal subset of *pgx.Conn the adapter uses, so tests
// can inject a double without a live server.
type pgConnLike interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Close(ctx context.Context) error
}

type pgDB struct{ conn pgConnLike }

// NewPostgres connects via pgx.Connect and wraps the connection. Callers are
// responsible for closing it via Close.
func NewPostgres(ctx context.Context, dsn string) (DB, error) {
	c, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &pgDB{conn: c}, nil
}

// Exec executes sql with args, discarding the command tag.
func (p *pgDB) Exec(ctx context.Context, q string, args ...any) error {
	_, err := p.conn.Exec(ctx, q, args...)
	return err
}

// BeginTx starts a transaction and returns the pgTx wrapper.
func (p *pgDB) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := p.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &pgTx{tx: tx}, nil
}

// Close closes the underlying connection.
func (p *pgDB) Close(ctx context.Context) error { return p.conn.Close(ctx) }

type pgTx struct{ tx pgx.Tx }

// Exec executes a statement within the transaction.
func (t *pgTx) Exec(ctx context.Context, q string, args ...any) error {
	_, err := t.tx.Exec(ctx, q, args...)
	return err
}

// QueryIDs runs q and scans the single result column as int64 values.
func (t *pgTx) QueryIDs(ctx context.Context, q string, args ...any) ([]int64, error) {
	rows, err := t.tx.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CopyInto bulk-appends rows using the COPY protocol.
func (t *pgTx) CopyInto(ctx context.Context, schema, table string, columns []string, rows [][]any) (int64, error) {
	return t.tx.CopyFrom(ctx, pgx.Identifier{schema, table}, columns, pgx.CopyFromRows(rows))
}

// SetIdentityInsert is a no-op: the destination tables use identity columns
// declared GENERATED BY DEFAULT, which accept explicit key values as-is.
func (t *pgTx) SetIdentityInsert(ctx context.Context, schema, table string, on bool) error {
	return nil
}

// Commit commits the active transaction.
func (t *pgTx) Commit(ctx context.Context) error { return t.tx.Commit(ctx) }

// Rollback aborts the active transaction.
func (t *pgTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }
