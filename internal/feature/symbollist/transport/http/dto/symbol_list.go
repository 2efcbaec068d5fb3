// Package dto defines data transfer objects for the symbollist HTTP API.
package dto

import "time"

// SymbolItem represents a symbol in the API response.
type SymbolItem struct {
	Symbol     string    `json:"symbol"`
	IngestedAt time.Time `json:"ingested_at"`
}
