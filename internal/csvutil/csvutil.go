// Package csvutil reads the semicolon-delimited billing exports into an
// in-memory table. The exports use ISO 8859-1 (German umlauts), the literal
// token NULL for absent values, and carry no schema: a missing column is only
// detected when a caller asks for it, and then fails loudly instead of
// defaulting.
package csvutil

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// nullToken is the literal string the export writes for absent values.
const nullToken = "NULL"

// Cell is one field of a row. Nil means the source value was absent
// (the NULL token).
type Cell *string

// Table is a parsed CSV file: ordered column names and rows of optional
// string cells. Columns are untyped at read time; numeric coercion happens
// when a caller parses a cell.
type Table struct {
	Columns []string
	Rows    [][]Cell

	index map[string]int
}

// New builds a Table from columns and rows directly, for callers that
// already hold parsed data (and for tests).
func New(columns []string, rows [][]Cell) *Table {
	t := &Table{
		Columns: columns,
		Rows:    rows,
		index:   make(map[string]int, len(columns)),
	}
	for i, name := range columns {
		t.index[strings.TrimSpace(name)] = i
	}
	return t
}

// decoderFor maps an encoding name to its charmap decoder. The export is
// produced as ISO 8859-1; Windows-1252 is accepted as its common superset.
func decoderFor(name string) (*encoding.Decoder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "iso-8859-1", "iso8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1.NewDecoder(), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder(), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}

// Read parses the semicolon-delimited CSV at path using the named text
// encoding. The first record is the header. The literal token NULL becomes
// an absent cell. Returns an I/O error if the file is missing or unreadable,
// and a decode error if the bytes are invalid for the declared encoding.
func Read(path, encodingName string) (*Table, error) {
	dec, err := decoderFor(encodingName)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(transform.NewReader(f, dec))
	r.Comma = ';'
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read csv %s: empty file (no header)", path)
	}

	header := records[0]
	t := New(header, make([][]Cell, 0, len(records)-1))

	for _, rec := range records[1:] {
		row := make([]Cell, len(header))
		for i := range header {
			if i >= len(rec) {
				continue // short record: trailing cells absent
			}
			v := rec[i]
			if v == nullToken {
				continue
			}
			s := v
			row[i] = &s
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// Column returns the cells of the named column in row order. A column the
// header does not carry is an explicit error, never a silent default.
func (t *Table) Column(name string) ([]Cell, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("missing column %q (have %v)", name, t.Columns)
	}
	out := make([]Cell, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = row[i]
	}
	return out, nil
}

// Cell returns the cell at (row, column name), with the same missing-column
// contract as Column.
func (t *Table) Cell(row int, name string) (Cell, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("missing column %q (have %v)", name, t.Columns)
	}
	return t.Rows[row][i], nil
}

// ParseID coerces a cell to an integer key. Absent cells and unparseable
// text both report ok=false; callers distinguish the two via the cell itself.
// Values written as floats by the exporter ("5.0") still parse.
func ParseID(c Cell) (int64, bool) {
	if c == nil {
		return 0, false
	}
	s := strings.TrimSpace(*c)
	if s == "" {
		return 0, false
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int64(f)) {
		return 0, false
	}
	return int64(f), true
}

// KeySet builds the set of distinct, successfully parsed integer keys in the
// named column. Absent and unparseable values are discarded. Both the
// validator and the loader use this to resolve reference targets.
func KeySet(t *Table, column string) (map[int64]struct{}, error) {
	cells, err := t.Column(column)
	if err != nil {
		return nil, err
	}
	set := make(map[int64]struct{}, len(cells))
	for _, c := range cells {
		if v, ok := ParseID(c); ok {
			set[v] = struct{}{}
		}
	}
	return set, nil
}
