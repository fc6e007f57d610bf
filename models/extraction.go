package models

import "github.com/shopspring/decimal"

// ExtractedTrade is the best-effort result of running a brokerage
// screenshot through a vision model. Any field the model could not
// read is left nil/empty; the UI treats missing fields as requiring
// manual entry, so a partial extraction is a valid result.
type ExtractedTrade struct {
	Success   bool             `json:"success"`
	TradeType string           `json:"trade_type,omitempty"`
	Ticker    string           `json:"ticker,omitempty"`
	Quantity  *decimal.Decimal `json:"quantity,omitempty"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Date      string           `json:"date,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// ExtractionFailure builds a failed result carrying a diagnostic for
// the "please retry or enter manually" path.
func ExtractionFailure(reason string) *ExtractedTrade {
	return &ExtractedTrade{Success: false, Error: reason}
}
