// Package domain defines domain-level errors for the trend feature.
package domain

import "errors"

// Acquisition errors returned by a PriceProvider.
// None of them are retried by the provider itself.
var (
	// ErrProviderUnavailable indicates a network or transport failure, including timeouts.
	ErrProviderUnavailable = errors.New("price provider unavailable")

	// ErrProviderRejected indicates that the provider answered with a non-success response.
	ErrProviderRejected = errors.New("price provider rejected request")

	// ErrMalformedResponse indicates that the provider payload could not be parsed
	// or did not contain any closing prices.
	ErrMalformedResponse = errors.New("malformed price provider response")
)

// Persistence errors returned by a PriceStore.
var (
	// ErrDuplicateSymbol is returned by CreateSymbol and CreateSymbolWithPrices when the symbol already exists.
	// During concurrent ingestion the loser treats it as success.
	ErrDuplicateSymbol = errors.New("symbol already exists")

	// ErrStorage wraps any other failure of the storage layer.
	ErrStorage = errors.New("storage error")

	// ErrNotFound is returned by lookups that match no record.
	ErrNotFound = errors.New("not found")
)

// ErrInvalidSymbol is returned when a raw ticker is blank or too long after normalization.
var ErrInvalidSymbol = errors.New("invalid ticker symbol")
