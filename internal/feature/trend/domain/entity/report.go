package entity

import "time"

// TrendStatus describes the outcome of a trend query.
type TrendStatus string

const (
	// StatusOK means a classification is available.
	StatusOK TrendStatus = "ok"
	// StatusNoData means the symbol is known but has no recorded condition.
	StatusNoData TrendStatus = "no_data"
	// StatusUnavailable means on-demand ingestion or the lookup failed.
	StatusUnavailable TrendStatus = "unavailable"
	// StatusNotFound means the symbol is still unknown after ingestion was attempted.
	StatusNotFound TrendStatus = "not_found"
	// StatusInvalid means the requested ticker could not be normalized.
	StatusInvalid TrendStatus = "invalid"
)

// Messages returned to interactive callers instead of errors.
const (
	MessageUnavailable = "could not fetch data for ticker"
	MessageNoData      = "no data"
	MessageNotFound    = "ticker not found"
	MessageInvalid     = "invalid ticker"
)

// TrendReport is the answer to an interactive trend query.
type TrendReport struct {
	Symbol         string
	Status         TrendStatus
	Classification Classification
	ObservedAt     time.Time
}

// Message returns the classification, or the sentinel text for non-ok statuses.
func (r TrendReport) Message() string {
	switch r.Status {
	case StatusOK:
		return string(r.Classification)
	case StatusNoData:
		return MessageNoData
	case StatusNotFound:
		return MessageNotFound
	case StatusInvalid:
		return MessageInvalid
	default:
		return MessageUnavailable
	}
}
