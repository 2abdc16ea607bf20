package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
)

//
// Fakes over the adapter seams. No sockets; they validate statement text,
// per-row execution, and resource cleanup.
//

type fakeStmt struct {
	execs  int
	errOn  int // fail on Nth Exec; 0 = never
	closed bool
	args   [][]any
}

func (s *fakeStmt) ExecContext(ctx context.Context, args ...any) (sql.Result, error) {
	s.execs++
	s.args = append(s.args, args)
	if s.errOn > 0 && s.execs == s.errOn {
		return nil, errors.New("stmt failed")
	}
	return nil, nil
}
func (s *fakeStmt) Close() error { s.closed = true; return nil }

type fakeRows struct {
	ids     []int64
	i       int
	scanErr error
	rowsErr error
	closed  bool
}

func (r *fakeRows) Next() bool { return r.i < len(r.ids) }
func (r *fakeRows) Scan(dest ...any) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	*(dest[0].(*int64)) = r.ids[r.i]
	r.i++
	return nil
}
func (r *fakeRows) Err() error   { return r.rowsErr }
func (r *fakeRows) Close() error { r.closed = true; return nil }

type fakeTxCore struct {
	stmt     *fakeStmt
	rows     *fakeRows
	prepErr  error
	queryErr error
	execSQL  []string
}

func (t *fakeTxCore) ExecContext(ctx context.Context, q string, args ...any) (sql.Result, error) {
	t.execSQL = append(t.execSQL, q)
	return nil, nil
}
func (t *fakeTxCore) QueryContext(ctx context.Context, q string, args ...any) (rowsCore, error) {
	if t.queryErr != nil {
		return nil, t.queryErr
	}
	if t.rows == nil {
		t.rows = &fakeRows{}
	}
	return t.rows, nil
}
func (t *fakeTxCore) PrepareContext(ctx context.Context, q string) (stmtCore, error) {
	if t.prepErr != nil {
		return nil, t.prepErr
	}
	if t.stmt == nil {
		t.stmt = &fakeStmt{}
	}
	return t.stmt, nil
}
func (t *fakeTxCore) Commit() error   { return nil }
func (t *fakeTxCore) Rollback() error { return nil }

// TestCopyInto_StatementAndCount verifies the @pN placeholder INSERT shape,
// one exec per row, the returned count, and statement cleanup.
func TestCopyInto_StatementAndCount(t *testing.T) {
	t.Parallel()
	core := &fakeTxCore{stmt: &fakeStmt{}}
	tx := newSQLTxForTest(core)

	rows := [][]any{{1, "a"}, {2, "b"}, {3, nil}}
	n, err := tx.CopyInto(context.Background(), "dbo", "Abrechnung_Kunden", []string{"Kdnr", "Name"}, rows)
	if err != nil {
		t.Fatalf("CopyInto: %v", err)
	}
	if n != 3 {
		t.Errorf("inserted = %d, want 3", n)
	}
	if core.stmt.execs != 3 {
		t.Errorf("execs = %d, want 3", core.stmt.execs)
	}
	if !core.stmt.closed {
		t.Errorf("prepared statement not closed")
	}
}

// TestCopyInto_PlaceholderSQL pins the exact statement text the adapter
// prepares, since it must match SQL Server's @pN convention.
func TestCopyInto_PlaceholderSQL(t *testing.T) {
	t.Parallel()
	var prepared string
	core := &fakeTxCore{}
	tx := &sqlTx{tx: &capturePrepare{core: core, prepared: &prepared}}

	if _, err := tx.CopyInto(context.Background(), "dbo", "T", []string{"a", "b"}, nil); err != nil {
		t.Fatalf("CopyInto: %v", err)
	}
	want := "INSERT INTO dbo.T (a,b) VALUES (@p1,@p2)"
	if prepared != want {
		t.Errorf("prepared = %q, want %q", prepared, want)
	}
}

// capturePrepare wraps a fakeTxCore and records the prepared statement text.
type capturePrepare struct {
	core     *fakeTxCore
	prepared *string
}

func (c *capturePrepare) ExecContext(ctx context.Context, q string, args ...any) (sql.Result, error) {
	return c.core.ExecContext(ctx, q, args...)
}
func (c *capturePrepare) QueryContext(ctx context.Context, q string, args ...any) (rowsCore, error) {
	return c.core.QueryContext(ctx, q, args...)
}
func (c *capturePrepare) PrepareContext(ctx context.Context, q string) (stmtCore, error) {
	*c.prepared = q
	return c.core.PrepareContext(ctx, q)
}
func (c *capturePrepare) Commit() error   { return c.core.Commit() }
func (c *capturePrepare) Rollback() error { return c.core.Rollback() }

// TestCopyInto_MidwayFailure checks the partial count and error when a row
// insert fails.
func TestCopyInto_MidwayFailure(t *testing.T) {
	t.Parallel()
	core := &fakeTxCore{stmt: &fakeStmt{errOn: 2}}
	tx := newSQLTxForTest(core)

	n, err := tx.CopyInto(context.Background(), "dbo", "T", []string{"a"}, [][]any{{1}, {2}, {3}})
	if err == nil {
		t.Fatalf("expected error on second row")
	}
	if n != 1 {
		t.Errorf("inserted = %d, want 1 before failure", n)
	}
}

// TestSetIdentityInsert_SQL pins the session toggle statements.
func TestSetIdentityInsert_SQL(t *testing.T) {
	t.Parallel()
	core := &fakeTxCore{}
	tx := newSQLTxForTest(core)

	if err := tx.SetIdentityInsert(context.Background(), "dbo", "Abrechnung_Kunden", true); err != nil {
		t.Fatalf("SetIdentityInsert(on): %v", err)
	}
	if err := tx.SetIdentityInsert(context.Background(), "dbo", "Abrechnung_Kunden", false); err != nil {
		t.Fatalf("SetIdentityInsert(off): %v", err)
	}
	want := []string{
		"SET IDENTITY_INSERT dbo.Abrechnung_Kunden ON;",
		"SET IDENTITY_INSERT dbo.Abrechnung_Kunden OFF;",
	}
	if len(core.execSQL) != 2 || core.execSQL[0] != want[0] || core.execSQL[1] != want[1] {
		t.Errorf("execSQL = %v, want %v", core.execSQL, want)
	}
}

// TestQueryIDs_ScanAndClose verifies scanning, ordering, and rows cleanup.
func TestQueryIDs_ScanAndClose(t *testing.T) {
	t.Parallel()
	rows := &fakeRows{ids: []int64{10, 20, 30}}
	tx := newSQLTxForTest(&fakeTxCore{rows: rows})

	ids, err := tx.QueryIDs(context.Background(), "SELECT id FROM t")
	if err != nil {
		t.Fatalf("QueryIDs: %v", err)
	}
	if len(ids) != 3 || ids[0] != 10 || ids[2] != 30 {
		t.Errorf("ids = %v", ids)
	}
	if !rows.closed {
		t.Errorf("rows not closed")
	}
}

// TestQueryIDs_Errors covers query, scan, and iteration failures.
func TestQueryIDs_Errors(t *testing.T) {
	t.Parallel()
	tx := newSQLTxForTest(&fakeTxCore{queryErr: errors.New("bad query")})
	if _, err := tx.QueryIDs(context.Background(), "SELECT"); err == nil {
		t.Errorf("expected query error")
	}

	tx = newSQLTxForTest(&fakeTxCore{rows: &fakeRows{ids: []int64{1}, scanErr: errors.New("scan")}})
	if _, err := tx.QueryIDs(context.Background(), "SELECT"); err == nil {
		t.Errorf("expected scan error")
	}

	tx = newSQLTxForTest(&fakeTxCore{rows: &fakeRows{rowsErr: errors.New("iter")}})
	if _, err := tx.QueryIDs(context.Background(), "SELECT"); err == nil {
		t.Errorf("expected iteration error")
	}
}

// TestNewMSSQL_BadDSN ensures constructor failures surface without leaking
// a connection. The sqlserver driver rejects a malformed DSN at Open/Ping.
func TestNewMSSQL_BadDSN(t *testing.T) {
	t.Parallel()
	if _, err := NewMSSQL("not-a-valid-dsn://%%"); err == nil {
		t.Fatalf("expected error for malformed DSN")
	}
}

// TestOpen_UnknownDriver ensures Open rejects drivers it has no adapter for.
func TestOpen_UnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := Open(context.Background(), "oracle", "dsn"); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}

// fakeDBCore exercises the sqlDB wrapper.
type fakeDBCore struct {
	execSQL []string
	closed  bool
}

func (d *fakeDBCore) ExecContext(ctx context.Context, q string, args ...any) (sql.Result, error) {
	d.execSQL = append(d.execSQL, q)
	return nil, nil
}
func (d *fakeDBCore) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return &sql.Tx{}, nil
}
func (d *fakeDBCore) Close() error { d.closed = true; return nil }

// TestSQLDB_ExecAndClose verifies pass-through behavior of the DB wrapper.
func TestSQLDB_ExecAndClose(t *testing.T) {
	t.Parallel()
	core := &fakeDBCore{}
	d := newSQLDBForTest(core)

	if err := d.Exec(context.Background(), "SELECT 1"); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if err := d.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(core.execSQL) != 1 || !core.closed {
		t.Errorf("wrapper did not forward: exec=%v closed=%v", core.execSQL, core.closed)
	}
}
