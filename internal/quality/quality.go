// Package quality runs the post-load integrity checks against the loaded
// billing tables and persists findings into the audit table. All three
// checks and their inserts share one transaction: a failed insert rolls the
// whole batch of audit rows back, so reruns never leave a partial trail.
package quality

import (
	"context"
	"fmt"
	"log"

	"billingetl/internal/db"
	"billingetl/internal/domain"
)

var auditColumns = []string{"TableName", "RecordId", "IssueType", "Notes"}

// logIssues bulk-inserts the findings into the audit table.
func logIssues(ctx context.Context, tx db.Tx, issues []domain.QualityIssue) error {
	if len(issues) == 0 {
		return nil
	}
	rows := make([][]any, len(issues))
	for i, is := range issues {
		rows[i] = []any{is.TableName, is.RecordID, is.IssueType, is.Notes}
	}
	_, err := tx.CopyInto(ctx, domain.Schema, domain.QualityTable, auditColumns, rows)
	return err
}

// MissingPaymentCheck finds positions whose invoice lacks a payment date or
// amount, logs them as missing_payment, and returns the count logged.
func MissingPaymentCheck(ctx context.Context, tx db.Tx) (int, error) {
	ids, err := tx.QueryIDs(ctx, fmt.Sprintf(`
		SELECT AP.id
		FROM %[1]s.%[2]s AP
		JOIN %[1]s.%[3]s AR ON AP.ReId = AR.ReNummer
		WHERE AR.Zahlungsdatum IS NULL OR AR.ZahlungsbetragBrutto IS NULL
	`, domain.Schema, domain.PositionsTable, domain.InvoicesTable))
	if err != nil {
		return 0, fmt.Errorf("query missing payments: %w", err)
	}

	issues := make([]domain.QualityIssue, len(ids))
	for i, id := range ids {
		issues[i] = domain.QualityIssue{
			TableName: domain.PositionsTable,
			RecordID:  id,
			IssueType: "missing_payment",
			Notes:     "Position linked to invoice without payment data",
		}
	}
	if err := logIssues(ctx, tx, issues); err != nil {
		return 0, fmt.Errorf("log missing payments: %w", err)
	}
	return len(issues), nil
}

// PlaceholderMediaCheck finds positions still using the reserved placeholder
// media ID, logs them as placeholder_media, and returns the count logged.
func PlaceholderMediaCheck(ctx context.Context, tx db.Tx) (int, error) {
	ids, err := tx.QueryIDs(ctx, fmt.Sprintf(`
		SELECT id
		FROM %s.%s
		WHERE Bildnummer = %d
	`, domain.Schema, domain.PositionsTable, domain.PlaceholderMediaID))
	if err != nil {
		return 0, fmt.Errorf("query placeholder media: %w", err)
	}

	issues := make([]domain.QualityIssue, len(ids))
	for i, id := range ids {
		issues[i] = domain.QualityIssue{
			TableName: domain.PositionsTable,
			RecordID:  id,
			IssueType: "placeholder_media",
			Notes:     "Position using placeholder media ID",
		}
	}
	if err := logIssues(ctx, tx, issues); err != nil {
		return 0, fmt.Errorf("log placeholder media: %w", err)
	}
	return len(issues), nil
}

// EmptyInvoiceCheck finds invoices with no associated positions via a left
// join, logs them as empty_invoice, and returns the count logged.
func EmptyInvoiceCheck(ctx context.Context, tx db.Tx) (int, error) {
	ids, err := tx.QueryIDs(ctx, fmt.Sprintf(`
		SELECT AR.ReNummer
		FROM %[1]s.%[2]s AR
		LEFT JOIN %[1]s.%[3]s AP ON AR.ReNummer = AP.ReId
		WHERE AP.id IS NULL
	`, domain.Schema, domain.InvoicesTable, domain.PositionsTable))
	if err != nil {
		return 0, fmt.Errorf("query empty invoices: %w", err)
	}

	issues := make([]domain.QualityIssue, len(ids))
	for i, id := range ids {
		issues[i] = domain.QualityIssue{
			TableName: domain.InvoicesTable,
			RecordID:  id,
			IssueType: "empty_invoice",
			Notes:     "Invoice has no associated positions",
		}
	}
	if err := logIssues(ctx, tx, issues); err != nil {
		return 0, fmt.Errorf("log empty invoices: %w", err)
	}
	return len(issues), nil
}

// Run executes the full check battery inside the caller's transaction and
// returns the total number of audit rows logged.
func Run(ctx context.Context, tx db.Tx) (int, error) {
	total := 0

	log.Printf("Performing data quality checks:")

	log.Printf("Checking payment data...")
	n, err := MissingPaymentCheck(ctx, tx)
	if err != nil {
		return total, err
	}
	total += n

	log.Printf("Checking media data...")
	n, err = PlaceholderMediaCheck(ctx, tx)
	if err != nil {
		return total, err
	}
	total += n

	log.Printf("Checking invoice data...")
	n, err = EmptyInvoiceCheck(ctx, tx)
	if err != nil {
		return total, err
	}
	total += n

	log.Printf("Finished data quality check process, %d records were logged", total)
	return total, nil
}
