// Package loader moves one CSV's contents into one destination table as a
// single logical transaction. The source data carries pre-assigned identity
// key values that must be preserved verbatim, so the insert runs with
// explicit-identity-value mode enabled and deterministically restored.
package loader

import (
	"context"
	"fmt"
	"log"

	"billingetl/internal/csvutil"
	"billingetl/internal/db"
)

// ExecInsertTransaction bulk-appends all rows of t into schema.table inside
// one transaction, returning the inserted row count.
//
// Phases, in order:
//  1. optional TRUNCATE of the destination table,
//  2. identity-insert ON,
//  3. bulk append (absent cells become SQL NULL),
//  4. identity-insert OFF — on both the success and failure paths,
//  5. any insert error is re-surfaced after cleanup; the transaction
//     (truncate included) rolls back as a unit.
//
// Post-condition: identity-insert is OFF after return regardless of outcome.
func ExecInsertTransaction(ctx context.Context, d db.DB, t *csvutil.Table, table, schema string, truncate bool) (int64, error) {
	tx, err := d.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	if truncate {
		log.Printf("Truncating table '%s.%s'", schema, table)
		if err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s.%s;", schema, table)); err != nil {
			return 0, fmt.Errorf("truncate %s.%s: %w", schema, table, err)
		}
	}

	if err := tx.SetIdentityInsert(ctx, schema, table, true); err != nil {
		return 0, fmt.Errorf("identity insert on: %w", err)
	}

	rows := make([][]any, t.Len())
	for i, src := range t.Rows {
		row := make([]any, len(src))
		for j, c := range src {
			if c != nil {
				row[j] = *c
			}
		}
		rows[i] = row
	}

	inserted, insErr := tx.CopyInto(ctx, schema, table, t.Columns, rows)

	// Restore the identity mode before surfacing any insert failure.
	if offErr := tx.SetIdentityInsert(ctx, schema, table, false); offErr != nil && insErr == nil {
		insErr = fmt.Errorf("identity insert off: %w", offErr)
	}
	if insErr != nil {
		return 0, fmt.Errorf("insert into %s.%s: %w", schema, table, insErr)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	committed = true
	return inserted, nil
}

// InsertFile reads the CSV at path with the given encoding and loads it into
// schema.table. On success it reports the inserted row count.
func InsertFile(ctx context.Context, d db.DB, path, encoding, table, schema string, truncate bool) (int64, error) {
	log.Printf("Inserting data from '%s' into table '%s.%s'", path, schema, table)

	t, err := csvutil.Read(path, encoding)
	if err != nil {
		return 0, err
	}

	n, err := ExecInsertTransaction(ctx, d, t, table, schema, truncate)
	if err != nil {
		return 0, err
	}
	log.Printf("%d rows inserted into '%s.%s' table successfully", n, schema, table)
	return n, nil
}
