// Package validator cross-references the three in-memory billing tables and
// produces an ordered list of human-readable issues. Check order is fixed so
// output is reproducible run to run: invoice checks first (missing required
// fields, then invalid customer reference), then position checks (missing
// invoice reference, invalid invoice reference, invalid customer reference,
// placeholder media warning).
package validator

import (
	"fmt"
	"io"
	"strconv"

	"billingetl/internal/csvutil"
	"billingetl/internal/domain"
)

// fmtID renders a key cell for an issue message: absent values print as NaN,
// parseable numbers as integers with no decimal places, anything else as the
// raw text.
func fmtID(c csvutil.Cell) string {
	if c == nil {
		return "NaN"
	}
	if v, ok := csvutil.ParseID(c); ok {
		return strconv.FormatInt(v, 10)
	}
	return *c
}

// inSet reports whether a non-null cell resolves into the valid-key set.
// A value that fails numeric coercion is "not found", never "missing".
func inSet(c csvutil.Cell, set map[int64]struct{}) bool {
	v, ok := csvutil.ParseID(c)
	if !ok {
		return false
	}
	_, found := set[v]
	return found
}

// InvoiceChecks validates the invoices table against the set of known
// customer numbers. A row with a null KdNr is reported once under the
// missing-fields rule and excluded from the invalid-reference rule.
func InvoiceChecks(invoices *csvutil.Table, validCustomerIDs map[int64]struct{}) ([]string, error) {
	reNummer, err := invoices.Column("ReNummer")
	if err != nil {
		return nil, err
	}
	kdNr, err := invoices.Column("KdNr")
	if err != nil {
		return nil, err
	}

	var issues []string

	// Missing required fields.
	for idx := range invoices.Rows {
		if kdNr[idx] == nil || reNummer[idx] == nil {
			issues = append(issues, fmt.Sprintf(
				"Invoice (ID:%s, Index:%d): Missing KdNr or ReNummer", fmtID(reNummer[idx]), idx))
		}
	}

	// Invalid customer reference (KdNr). Null KdNr rows are excluded here.
	for idx := range invoices.Rows {
		if kdNr[idx] == nil {
			continue
		}
		if !inSet(kdNr[idx], validCustomerIDs) {
			issues = append(issues, fmt.Sprintf(
				"Invoice %s: Invalid KdNr %s", fmtID(reNummer[idx]), fmtID(kdNr[idx])))
		}
	}
	return issues, nil
}

// PositionChecks validates the positions table against the sets of known
// invoice and customer numbers, and flags the reserved placeholder media ID.
func PositionChecks(positions *csvutil.Table, validInvoiceIDs, validCustomerIDs map[int64]struct{}) ([]string, error) {
	id, err := positions.Column("id")
	if err != nil {
		return nil, err
	}
	reID, err := positions.Column("ReId")
	if err != nil {
		return nil, err
	}
	kdNr, err := positions.Column("KdNr")
	if err != nil {
		return nil, err
	}
	bildnummer, err := positions.Column("Bildnummer")
	if err != nil {
		return nil, err
	}

	var issues []string

	// Missing invoice reference.
	for idx := range positions.Rows {
		if reID[idx] == nil {
			issues = append(issues, fmt.Sprintf(
				"Position (ID:%s, Index:%d): Missing ReId", fmtID(id[idx]), idx))
		}
	}

	// Invalid invoice reference. Null ReId rows were reported above.
	for idx := range positions.Rows {
		if reID[idx] == nil {
			continue
		}
		if !inSet(reID[idx], validInvoiceIDs) {
			issues = append(issues, fmt.Sprintf(
				"Position %s: Invalid ReId %s", fmtID(id[idx]), fmtID(reID[idx])))
		}
	}

	// Invalid customer reference. Positions may legitimately omit KdNr.
	for idx := range positions.Rows {
		if kdNr[idx] == nil {
			continue
		}
		if !inSet(kdNr[idx], validCustomerIDs) {
			issues = append(issues, fmt.Sprintf(
				"Position %s: Invalid KdNr %s", fmtID(id[idx]), fmtID(kdNr[idx])))
		}
	}

	// Placeholder media warning.
	for idx := range positions.Rows {
		if v, ok := csvutil.ParseID(bildnummer[idx]); ok && v == domain.PlaceholderMediaID {
			issues = append(issues, fmt.Sprintf(
				"Position %s: Uses placeholder Bildnummer", fmtID(id[idx])))
		}
	}
	return issues, nil
}

// Run builds the valid-key lookup sets and executes all checks, returning the
// full ordered issue list. Printing a capped sample is a separate
// presentation concern; see PrintIssues.
func Run(invoices, positions, customers *csvutil.Table) ([]string, error) {
	validCustomerIDs, err := csvutil.KeySet(customers, "Kdnr")
	if err != nil {
		return nil, err
	}
	validInvoiceIDs, err := csvutil.KeySet(invoices, "ReNummer")
	if err != nil {
		return nil, err
	}

	all, err := InvoiceChecks(invoices, validCustomerIDs)
	if err != nil {
		return nil, err
	}
	positionIssues, err := PositionChecks(positions, validInvoiceIDs, validCustomerIDs)
	if err != nil {
		return nil, err
	}
	return append(all, positionIssues...), nil
}

// PrintIssues writes the total issue count followed by at most top issues,
// each prefixed with its 1-based rank. Zero issues is stated explicitly.
func PrintIssues(w io.Writer, issues []string, top int) {
	if len(issues) == 0 {
		fmt.Fprintln(w, "No issues identified by simple validation.")
		return
	}
	if top > len(issues) {
		top = len(issues)
	}
	fmt.Fprintf(w, "Validation identified %d potential issues, printing top %d:\n", len(issues), top)
	for i := 0; i < top; i++ {
		fmt.Fprintf(w, "#%d: %s\n", i+1, issues[i])
	}
}
