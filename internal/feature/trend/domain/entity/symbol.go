// Package entity defines the domain models for the trend feature.
package entity

import (
	"fmt"
	"strings"
	"time"

	"stock_trend/internal/feature/trend/domain"
)

// MaxSymbolLength is the maximum number of characters of a ticker symbol.
const MaxSymbolLength = 10

// Symbol represents a ticker that has been ingested at least once.
// A Symbol is created on first successful ingestion and never mutated afterwards.
type Symbol struct {
	ID        uint
	Name      string // normalized ticker, e.g. "AAPL"
	CreatedAt time.Time
}

// NormalizeSymbol trims and upper-cases a raw ticker.
// Blank input and tickers longer than MaxSymbolLength yield domain.ErrInvalidSymbol.
func NormalizeSymbol(raw string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return "", fmt.Errorf("%w: empty", domain.ErrInvalidSymbol)
	}
	if len([]rune(s)) > MaxSymbolLength {
		return "", fmt.Errorf("%w: %q exceeds %d characters", domain.ErrInvalidSymbol, s, MaxSymbolLength)
	}
	return s, nil
}
