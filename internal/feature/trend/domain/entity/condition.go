package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Classification is the day-over-day trend of a symbol.
type Classification string

const (
	Increased Classification = "increased"
	Decreased Classification = "decreased"
	Stable    Classification = "stable"
)

// Valid reports whether c is one of the known classifications.
func (c Classification) Valid() bool {
	switch c {
	case Increased, Decreased, Stable:
		return true
	}
	return false
}

// Classify compares the newest closing price with the previous one.
// Comparison is exact; there is no tolerance.
func Classify(newest, previous decimal.Decimal) Classification {
	switch newest.Cmp(previous) {
	case 1:
		return Increased
	case -1:
		return Decreased
	default:
		return Stable
	}
}

// DailyCondition is one analysis result. Conditions form an append-only log;
// the current trend of a symbol is the condition with the latest ObservedAt.
type DailyCondition struct {
	Symbol         string         `json:"symbol"`
	Classification Classification `json:"classification"`
	ObservedAt     time.Time      `json:"observed_at"`
}
