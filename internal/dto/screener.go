package dto

// StockDetail is the per-stock payload returned by the screener source.
// Sections are typed but leaves stay loosely typed: the source mixes numbers,
// formatted strings ("1,057.27") and nulls, so all leaf access goes through
// the tolerant parser in internal/scoring.
type StockDetail struct {
	Stock            map[string]interface{}   `json:"Stock"`
	StockIndicator   map[string]interface{}   `json:"StockIndicator"`
	FinancialReports []map[string]interface{} `json:"FinancialReport"`
	BalanceSheet     map[string]interface{}   `json:"stock_bs"`
}
