// SQL Server adapter over database/sql. Bulk appends use a prepared INSERT
// with @pN placeholders executed once per row inside the transaction; this is
// slower than engine-native bulk copy but keeps the statement text inspectable
// and the adapter portable across database/sql drivers.
//
// Testability seams: the adapter talks to sqlDBCore/sqlTxCore/stmtCore/rowsCore
// instead of the concrete *sql.DB family, so unit tests can inject light fakes
// with no sockets. realSQLDB/realSQLTx wrap the real types for production.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/microsoft/go-mssqldb" // registers the "sqlserver" driver
)

// stmtCore is the minimal subset of *sql.Stmt we use.
type stmtCore interface {
	ExecContext(ctx context.Context, args ...any) (sql.Result, error)
	Close() error
}

// rowsCore is the minimal subset of *sql.Rows we use.
type rowsCore interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// sqlTxCore is the subset of a transaction that sqlTx uses.
type sqlTxCore interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (rowsCore, error)
	PrepareContext(ctx context.Context, query string) (stmtCore, error)
	Commit() error
	Rollback() error
}

// sqlDBCore is the minimal subset of *sql.DB we use.
type sqlDBCore interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	Close() error
}

type realStmt struct{ s *sql.Stmt }

func (r realStmt) ExecContext(ctx context.Context, args ...any) (sql.Result, error) {
	return r.s.ExecContext(ctx, args...)
}
func (r realStmt) Close() error { return r.s.Close() }

type realSQLTx struct{ tx *sql.Tx }

func (r realSQLTx) ExecContext(ctx context.Context, q string, args ...any) (sql.Result, error) {
	return r.tx.ExecContext(ctx, q, args...)
}
func (r realSQLTx) QueryContext(ctx context.Context, q string, args ...any) (rowsCore, error) {
	return r.tx.QueryContext(ctx, q, args...)
}
func (r realSQLTx) PrepareContext(ctx context.Context, q string) (stmtCore, error) {
	st, err := r.tx.PrepareContext(ctx, q)
	if err != nil {
		return nil, err
	}
	return realStmt{st}, nil
}
func (r realSQLTx) Commit() error   { return r.tx.Commit() }
func (r realSQLTx) Rollback() error { return r.tx.Rollback() }

type realSQLDB struct{ db *sql.DB }

func (r realSQLDB) ExecContext(ctx context.Context, q string, args ...any) (sql.Result, error) {
	return r.db.ExecContext(ctx, q, args...)
}
func (r realSQLDB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return r.db.BeginTx(ctx, opts)
}
func (r realSQLDB) Close() error { return r.db.Close() }

type sqlDB struct{ db sqlDBCore }

// NewMSSQL opens a SQL Server connection with the given DSN and pings to
// confirm connectivity before returning.
func NewMSSQL(dsn string) (DB, error) {
	d, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, err
	}
	if err := d.Ping(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return &sqlDB{db: realSQLDB{db: d}}, nil
}

// Exec forwards a statement to the underlying database.
func (s *sqlDB) Exec(ctx context.Context, q string, args ...any) error {
	_, err := s.db.ExecContext(ctx, q, args...)
	return err
}

// BeginTx starts a transaction and returns a Tx adapter.
func (s *sqlDB) BeginTx(ctx context.Context) (Tx, error) {
	raw, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqlTx{tx: realSQLTx{tx: raw}}, nil
}

// Close closes the underlying database connection.
func (s *sqlDB) Close(ctx context.Context) error { return s.db.Close() }

type sqlTx struct{ tx sqlTxCore }

// Exec forwards execution to the transaction and returns any error.
func (t *sqlTx) Exec(ctx context.Context, q string, args ...any) error {
	_, err := t.tx.ExecContext(ctx, q, args...)
	return err
}

// QueryIDs runs q and scans the single result column as int64 values.
func (t *sqlTx) QueryIDs(ctx context.Context, q string, args ...any) ([]int64, error) {
	rows, err := t.tx.QueryContext(ctx, q, args...)
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

// CopyInto emulates bulk insert by preparing an INSERT and executing once per
// row. Example: INSERT INTO dbo.tbl (c1,c2) VALUES (@p1,@p2)
func (t *sqlTx) CopyInto(ctx context.Context, schema, table string, columns []string, rows [][]any) (int64, error) {
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("@p%d", i+1) // SQL Server style
	}
	stmtText := fmt.Sprintf(
		"INSERT INTO %s.%s (%s) VALUES (%s)",
		schema, table,
		strings.Join(columns, ","),
		strings.Join(placeholders, ","),
	)

	stmt, err := t.tx.PrepareContext(ctx, stmtText)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

// SetIdentityInsert toggles SET IDENTITY_INSERT for schema.table so the
// loader can write pre-assigned identity key values verbatim.
func (t *sqlTx) SetIdentityInsert(ctx context.Context, schema, table string, on bool) error {
	mode := "OFF"
	if on {
		mode = "ON"
	}
	_, err := t.tx.ExecContext(ctx, fmt.Sprintf("SET IDENTITY_INSERT %s.%s %s;", schema, table, mode))
	return err
}

// Commit commits the active transaction.
func (t *sqlTx) Commit(ctx context.Context) error { return t.tx.Commit() }

// Rollback aborts the active transaction.
func (t *sqlTx) Rollback(ctx context.Context) error { return t.tx.Rollback() }

// newSQLTxForTest wraps a fake sqlTxCore as a Tx.
func newSQLTxForTest(core sqlTxCore) *sqlTx { return &sqlTx{tx: core} }

// newSQLDBForTest wraps a fake sqlDBCore as a DB.
func newSQLDBForTest(core sqlDBCore) *sqlDB { return &sqlDB{db: core} }
