package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock_trend/internal/feature/trend/domain"
	"stock_trend/internal/feature/trend/domain/entity"
)

func seriesProvider(closes ...string) *mockPriceProvider {
	return &mockPriceProvider{
		FetchRecentPricesFunc: func(ctx context.Context, symbol string, from, to time.Time) (entity.PriceSeries, error) {
			return entity.PriceSeries{Symbol: symbol, Closes: decimals(closes...)}, nil
		},
	}
}

func TestIngestUsecase_Ingest(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name           string
		input          string
		seed           []string
		provider       *mockPriceProvider
		storeSetup     func(s *memStore)
		analyzerErr    error
		wantIngested   bool
		wantErr        error
		wantFetchCalls int
		wantAnalyze    int
		wantPrices     int
	}{
		{
			name:           "success: new symbol is fetched, stored and analyzed",
			input:          " aapl ",
			provider:       seriesProvider("100", "101", "105"),
			wantIngested:   true,
			wantFetchCalls: 1,
			wantAnalyze:    1,
			wantPrices:     3,
		},
		{
			name:           "no-op: symbol already ingested",
			input:          "AAPL",
			seed:           []string{"AAPL"},
			provider:       seriesProvider("100", "105"),
			wantIngested:   false,
			wantFetchCalls: 0,
			wantAnalyze:    0,
		},
		{
			name:  "error: provider failure persists nothing",
			input: "AAPL",
			provider: &mockPriceProvider{
				FetchRecentPricesFunc: func(ctx context.Context, symbol string, from, to time.Time) (entity.PriceSeries, error) {
					return entity.PriceSeries{}, domain.ErrProviderUnavailable
				},
			},
			wantErr:        domain.ErrProviderUnavailable,
			wantFetchCalls: 1,
		},
		{
			name:     "error: invalid symbol",
			input:    "   ",
			provider: seriesProvider("100"),
			wantErr:  domain.ErrInvalidSymbol,
		},
		{
			name:           "error: lookup failure",
			input:          "AAPL",
			provider:       seriesProvider("100"),
			storeSetup:     func(s *memStore) { s.FindErr = domain.ErrStorage },
			wantErr:        domain.ErrStorage,
			wantFetchCalls: 0,
		},
		{
			name:           "race: concurrent ingestion created the symbol first",
			input:          "AAPL",
			provider:       seriesProvider("100", "105"),
			storeSetup:     func(s *memStore) { s.CreateErr = domain.ErrDuplicateSymbol },
			wantIngested:   false,
			wantFetchCalls: 1,
			wantAnalyze:    0,
		},
		{
			name:           "error: create symbol fails",
			input:          "AAPL",
			provider:       seriesProvider("100", "105"),
			storeSetup:     func(s *memStore) { s.CreateErr = ErrDB },
			wantErr:        ErrDB,
			wantFetchCalls: 1,
		},
		{
			name:           "error: append prices fails",
			input:          "AAPL",
			provider:       seriesProvider("100", "105"),
			storeSetup:     func(s *memStore) { s.AppendErr = ErrDB },
			wantErr:        ErrDB,
			wantFetchCalls: 1,
		},
		{
			name:           "error: analysis fails",
			input:          "AAPL",
			provider:       seriesProvider("100", "105"),
			analyzerErr:    ErrDB,
			wantErr:        ErrDB,
			wantFetchCalls: 1,
			wantAnalyze:    1,
			wantPrices:     2,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := newMemStore()
			for _, s := range tc.seed {
				_, err := store.CreateSymbol(ctx, s)
				require.NoError(t, err)
			}
			if tc.storeSetup != nil {
				tc.storeSetup(store)
			}
			analyzer := &mockAnalyzer{
				AnalyzeAndRecordFunc: func(ctx context.Context, symbol string) error { return tc.analyzerErr },
			}
			limiter := &mockRateLimiter{}

			uc := NewIngestUsecase(tc.provider, store, analyzer, limiter, WithClock(fixedClock))
			ingested, err := uc.Ingest(ctx, tc.input)

			if tc.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tc.wantErr), "expected %v, got %v", tc.wantErr, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tc.wantIngested, ingested)
			assert.Equal(t, tc.wantFetchCalls, tc.provider.calls())
			assert.Equal(t, tc.wantFetchCalls, limiter.WaitIfNeededCalls, "every provider call goes through the rate limiter")
			assert.Equal(t, tc.wantAnalyze, analyzer.AnalyzeAndRecordCalls)
			store.mu.Lock()
			assert.Len(t, store.prices["AAPL"], tc.wantPrices)
			store.mu.Unlock()
		})
	}
}

func TestIngestUsecase_Ingest_FetchWindowAndSyntheticDates(t *testing.T) {
	ctx := context.Background()
	var gotFrom, gotTo time.Time
	provider := &mockPriceProvider{
		FetchRecentPricesFunc: func(ctx context.Context, symbol string, from, to time.Time) (entity.PriceSeries, error) {
			assert.Equal(t, "MSFT", symbol)
			gotFrom, gotTo = from, to
			return entity.PriceSeries{Closes: decimals("10", "11", "12")}, nil
		},
	}
	store := newMemStore()

	uc := NewIngestUsecase(provider, store, NewTrendAnalyzer(store, WithClock(fixedClock)), nil, WithClock(fixedClock))
	ingested, err := uc.Ingest(ctx, "msft")
	require.NoError(t, err)
	assert.True(t, ingested)

	today := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, today, gotTo)
	assert.Equal(t, today.AddDate(0, 0, -FetchWindowDays), gotFrom)

	store.mu.Lock()
	points := store.prices["MSFT"]
	store.mu.Unlock()
	require.Len(t, points, 3)
	assert.Equal(t, today.AddDate(0, 0, -2), points[0].TradeDate)
	assert.Equal(t, today.AddDate(0, 0, -1), points[1].TradeDate)
	assert.Equal(t, today, points[2].TradeDate)
	assert.Equal(t, "MSFT", points[2].Symbol)
	assert.True(t, points[2].Price.Equal(decimals("12")[0]))

	cond, err := store.LatestCondition(ctx, "MSFT")
	require.NoError(t, err)
	assert.Equal(t, entity.Increased, cond.Classification)
}

func TestIngestUsecase_Ingest_Idempotent(t *testing.T) {
	ctx := context.Background()
	provider := seriesProvider("100", "105")
	store := newMemStore()
	uc := NewIngestUsecase(provider, store, NewTrendAnalyzer(store, WithClock(fixedClock)), nil, WithClock(fixedClock))

	first, err := uc.Ingest(ctx, "AAPL")
	require.NoError(t, err)
	assert.True(t, first)

	symbols, prices, conditions := store.counts("AAPL")

	second, err := uc.Ingest(ctx, "aapl")
	require.NoError(t, err)
	assert.False(t, second)

	s2, p2, c2 := store.counts("AAPL")
	assert.Equal(t, symbols, s2)
	assert.Equal(t, prices, p2)
	assert.Equal(t, conditions, c2)
	assert.Equal(t, 1, provider.calls(), "second ingest must not call the provider")
}

func TestIngestUsecase_Ingest_RateLimiterCanceled(t *testing.T) {
	ctx := context.Background()
	provider := seriesProvider("100")
	store := newMemStore()
	limiter := &mockRateLimiter{WaitIfNeededErr: context.Canceled}

	uc := NewIngestUsecase(provider, store, &mockAnalyzer{}, limiter, WithClock(fixedClock))
	ingested, err := uc.Ingest(ctx, "AAPL")

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ingested)
	assert.Equal(t, 0, provider.calls())
}

func TestIngestUsecase_Ingest_RetryAfterStoreFailure(t *testing.T) {
	ctx := context.Background()
	provider := seriesProvider("100", "105")
	store := newMemStore()
	store.AppendErr = ErrDB
	uc := NewIngestUsecase(provider, store, NewTrendAnalyzer(store, WithClock(fixedClock)), nil, WithClock(fixedClock))

	ingested, err := uc.Ingest(ctx, "AAPL")
	require.ErrorIs(t, err, ErrDB)
	assert.False(t, ingested)

	// 失敗した取り込みは銘柄を残さない
	_, err = store.FindSymbol(ctx, "AAPL")
	require.ErrorIs(t, err, domain.ErrNotFound)

	store.mu.Lock()
	store.AppendErr = nil
	store.mu.Unlock()

	ingested, err = uc.Ingest(ctx, "AAPL")
	require.NoError(t, err)
	assert.True(t, ingested)
	assert.Equal(t, 2, provider.calls())

	cond, err := store.LatestCondition(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, entity.Increased, cond.Classification)
}
