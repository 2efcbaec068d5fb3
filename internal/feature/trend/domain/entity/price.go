package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Prices are kept at a fixed scale so that every storage backend compares the same values.
const (
	// PriceScale is the number of decimal places a price is rounded to.
	PriceScale = 8
	// PriceIntegerDigits is the maximum number of digits before the decimal point.
	PriceIntegerDigits = 16
)

var maxPrice = decimal.New(1, PriceIntegerDigits)

// NormalizePrice rounds d to PriceScale decimal places.
// Negative prices and prices with more than PriceIntegerDigits integer digits are rejected.
func NormalizePrice(d decimal.Decimal) (decimal.Decimal, error) {
	if d.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("price %s is negative", d)
	}
	r := d.Round(PriceScale)
	if r.Cmp(maxPrice) >= 0 {
		return decimal.Decimal{}, fmt.Errorf("price %s exceeds %d integer digits", d, PriceIntegerDigits)
	}
	return r, nil
}

// PricePoint is one closing price of a symbol on a trading date.
// PricePoints are immutable once stored.
type PricePoint struct {
	Symbol    string
	Price     decimal.Decimal // non-negative fixed-point closing price
	TradeDate time.Time       // calendar date, time of day is not significant
}

// PriceSeries is a provider answer: closing prices ordered oldest to newest.
type PriceSeries struct {
	Symbol string
	Closes []decimal.Decimal
}

// Len returns the number of closing prices in the series.
func (s PriceSeries) Len() int {
	return len(s.Closes)
}

// Date truncates t to its calendar date in t's location.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SyntheticPoints maps the series onto consecutive calendar dates ending at today:
// index i of N closes gets the date today - (N - i - 1) days.
// Provider trading-calendar dates are intentionally not used.
// Prices are rounded to PriceScale.
func (s PriceSeries) SyntheticPoints(today time.Time) []PricePoint {
	n := len(s.Closes)
	day := Date(today)
	points := make([]PricePoint, 0, n)
	for i, c := range s.Closes {
		points = append(points, PricePoint{
			Symbol:    s.Symbol,
			Price:     c.Round(PriceScale),
			TradeDate: day.AddDate(0, 0, -(n - i - 1)),
		})
	}
	return points
}
