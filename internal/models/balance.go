package models

// Balance table modes.
const (
	BalanceModeBalance = "balance" // Classified debit/credit/balance table.
	BalanceModeRaw     = "raw"     // Unclassified passthrough of the original columns.
)

// BalanceRow is one aggregated account line. Amounts are rounded to two
// decimal places.
type BalanceRow struct {
	Account string  `json:"account"`
	Debit   float64 `json:"debit"`
	Credit  float64 `json:"credit"`
	Balance float64 `json:"balance"`
}

// BalanceSummary totals the already-rounded per-account values.
type BalanceSummary struct {
	Debit   float64 `json:"debit"`
	Credit  float64 `json:"credit"`
	Balance float64 `json:"balance"`
}

// BalanceTable is the aggregation result for one uploaded sheet. In balance
// mode Rows and Summary are set; in raw mode RawRows carries every original
// column in input order.
type BalanceTable struct {
	Mode    string            `json:"mode"`
	Columns []string          `json:"columns"`
	Rows    []BalanceRow      `json:"rows,omitempty"`
	RawRows []map[string]string `json:"rawRows,omitempty"`
	Summary *BalanceSummary   `json:"summary,omitempty"`
}

// BalanceUpload is one stored spreadsheet aggregation, owned by the
// uploading user and visible to that user and administrators only.
type BalanceUpload struct {
	ID        int64           `json:"id"` // Primary key, monotonic.
	UserID    int64           `json:"userId"`
	FileName  string          `json:"fileName"`
	SheetName string          `json:"sheetName"`
	Mode      string          `json:"mode"`
	RowCount  int             `json:"rowCount"`
	Summary   *BalanceSummary `json:"summary,omitempty"`
	Data      *BalanceTable   `json:"data,omitempty"`
	CreatedAt int64           `json:"createdAt"`
}
