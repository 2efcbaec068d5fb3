// Package dto defines data transfer objects for the Market Data API responses.
package dto

import "github.com/shopspring/decimal"

// Response statuses of the Market Data API.
const (
	StatusOK     = "ok"
	StatusNoData = "no_data"
	StatusError  = "error"
)

// CandlesResponse represents the JSON response from the stocks/candles endpoint.
// Only the closing prices are read; the remaining arrays are ignored.
type CandlesResponse struct {
	S      string             `json:"s"`
	Errmsg string             `json:"errmsg,omitempty"`
	C      []*decimal.Decimal `json:"c"`
}
