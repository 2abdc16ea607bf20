// Package domain holds the fixed names of the billing database objects the
// batch jobs read and write, the table-to-CSV source map, and the audit row
// type. The German column names (ReNummer, KdNr, ...) come from the upstream
// billing export and are used verbatim in CSV headers and table definitions.
package domain

// PlaceholderMediaID is the reserved Bildnummer meaning "no real media
// assigned yet". Positions still carrying it are flagged by both the
// validator and the quality checker.
const PlaceholderMediaID = 100000000

// Database object names. All destination tables live under one schema.
const (
	Schema = "dbo"

	PositionsTable = "Abrechnung_Positionen"
	InvoicesTable  = "Abrechnung_Rechnungen"
	CustomersTable = "Abrechnung_Kunden"
	QualityTable   = "Abrechnung_Data_Quality"
)

// TableSource pairs a destination table with its source CSV file.
type TableSource struct {
	Table string
	File  string
}

// Sources returns the fixed table/file pairs relative to dataDir, in load order.
func Sources(dataDir string) []TableSource {
	return []TableSource{
		{Table: PositionsTable, File: dataDir + "/positions.csv"},
		{Table: InvoicesTable, File: dataDir + "/invoices.csv"},
		{Table: CustomersTable, File: dataDir + "/customers.csv"},
	}
}

// QualityIssue is one row of the audit table written by the quality checker.
type QualityIssue struct {
	TableName string
	RecordID  int64
	IssueType string
	Notes     string
}
