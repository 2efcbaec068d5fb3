// Package usecase implements the business logic for symbol-related operations.
package usecase

import (
	"context"

	"stock_trend/internal/feature/symbollist/domain/entity"
)

// SymbolRepository abstracts read access to the tickers the service has ingested.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type SymbolRepository interface {
	ListKnown(ctx context.Context) ([]entity.Symbol, error)
}

// SymbolUsecase provides business logic for symbol operations.
type SymbolUsecase struct {
	repo SymbolRepository
}

// NewSymbolUsecase creates a new SymbolUsecase with the given repository.
func NewSymbolUsecase(r SymbolRepository) *SymbolUsecase {
	return &SymbolUsecase{repo: r}
}

// ListKnownSymbols returns every ingested symbol ordered by code.
func (u *SymbolUsecase) ListKnownSymbols(ctx context.Context) ([]entity.Symbol, error) {
	return u.repo.ListKnown(ctx)
}
