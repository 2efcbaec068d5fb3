package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"stock_trend/internal/feature/trend/domain"
	"stock_trend/internal/feature/trend/domain/entity"
)

var (
	ErrDB       = errors.New("database error")
	ErrProvider = errors.New("provider error")
)

var fixedNow = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func decimals(vs ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(vs))
	for _, v := range vs {
		out = append(out, decimal.RequireFromString(v))
	}
	return out
}

// mockPriceProvider is a mock implementation of the PriceProvider interface.
type mockPriceProvider struct {
	mu                     sync.Mutex
	FetchRecentPricesFunc  func(ctx context.Context, symbol string, from, to time.Time) (entity.PriceSeries, error)
	FetchRecentPricesCalls int
}

func (m *mockPriceProvider) FetchRecentPrices(ctx context.Context, symbol string, from, to time.Time) (entity.PriceSeries, error) {
	m.mu.Lock()
	m.FetchRecentPricesCalls++
	m.mu.Unlock()
	if m.FetchRecentPricesFunc != nil {
		return m.FetchRecentPricesFunc(ctx, symbol, from, to)
	}
	return entity.PriceSeries{}, errors.New("FetchRecentPricesFunc is not implemented")
}

func (m *mockPriceProvider) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.FetchRecentPricesCalls
}

// mockAnalysisStore is a mock implementation of the AnalysisStore interface.
type mockAnalysisStore struct {
	LatestTwoPricesFunc  func(ctx context.Context, symbol string) ([]entity.PricePoint, error)
	AppendConditionFunc  func(ctx context.Context, symbol string, c entity.Classification, observedAt time.Time) error
	AppendConditionCalls int
}

func (m *mockAnalysisStore) LatestTwoPrices(ctx context.Context, symbol string) ([]entity.PricePoint, error) {
	if m.LatestTwoPricesFunc != nil {
		return m.LatestTwoPricesFunc(ctx, symbol)
	}
	return nil, errors.New("LatestTwoPricesFunc is not implemented")
}

func (m *mockAnalysisStore) AppendCondition(ctx context.Context, symbol string, c entity.Classification, observedAt time.Time) error {
	m.AppendConditionCalls++
	if m.AppendConditionFunc != nil {
		return m.AppendConditionFunc(ctx, symbol, c, observedAt)
	}
	return nil
}

// mockAnalyzer is a mock implementation of the Analyzer interface.
type mockAnalyzer struct {
	AnalyzeAndRecordFunc  func(ctx context.Context, symbol string) error
	AnalyzeAndRecordCalls int
}

func (m *mockAnalyzer) AnalyzeAndRecord(ctx context.Context, symbol string) error {
	m.AnalyzeAndRecordCalls++
	if m.AnalyzeAndRecordFunc != nil {
		return m.AnalyzeAndRecordFunc(ctx, symbol)
	}
	return nil
}

// mockRateLimiter is a mock implementation of the RateLimiterInterface.
type mockRateLimiter struct {
	WaitIfNeededErr   error
	WaitIfNeededCalls int
}

func (m *mockRateLimiter) WaitIfNeeded(ctx context.Context) error {
	m.WaitIfNeededCalls++
	return m.WaitIfNeededErr
}

// mockIngester is a mock implementation of the Ingester interface.
type mockIngester struct {
	mu          sync.Mutex
	IngestFunc  func(ctx context.Context, symbol string) (bool, error)
	IngestCalls map[string]int
}

func (m *mockIngester) Ingest(ctx context.Context, symbol string) (bool, error) {
	m.mu.Lock()
	if m.IngestCalls == nil {
		m.IngestCalls = map[string]int{}
	}
	m.IngestCalls[symbol]++
	m.mu.Unlock()
	if m.IngestFunc != nil {
		return m.IngestFunc(ctx, symbol)
	}
	return true, nil
}

// memStore is an in-memory PriceStore used to exercise the whole pipeline.
type memStore struct {
	mu         sync.Mutex
	nextID     uint
	symbols    map[string]entity.Symbol
	prices     map[string][]entity.PricePoint
	conditions map[string][]entity.DailyCondition

	// 任意のメソッドにエラーを注入する
	FindErr   error
	CreateErr error
	AppendErr error
}

var _ PriceStore = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		symbols:    map[string]entity.Symbol{},
		prices:     map[string][]entity.PricePoint{},
		conditions: map[string][]entity.DailyCondition{},
	}
}

func (s *memStore) FindSymbol(_ context.Context, name string) (entity.Symbol, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FindErr != nil {
		return entity.Symbol{}, s.FindErr
	}
	sym, ok := s.symbols[name]
	if !ok {
		return entity.Symbol{}, domain.ErrNotFound
	}
	return sym, nil
}

func (s *memStore) CreateSymbol(_ context.Context, name string) (entity.Symbol, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return entity.Symbol{}, s.CreateErr
	}
	if _, ok := s.symbols[name]; ok {
		return entity.Symbol{}, domain.ErrDuplicateSymbol
	}
	s.nextID++
	sym := entity.Symbol{ID: s.nextID, Name: name, CreatedAt: fixedNow}
	s.symbols[name] = sym
	return sym, nil
}

func (s *memStore) AppendPrices(_ context.Context, symbol string, points []entity.PricePoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.AppendErr != nil {
		return s.AppendErr
	}
	s.prices[symbol] = append(s.prices[symbol], points...)
	return nil
}

func (s *memStore) CreateSymbolWithPrices(_ context.Context, name string, points []entity.PricePoint) (entity.Symbol, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return entity.Symbol{}, s.CreateErr
	}
	if _, ok := s.symbols[name]; ok {
		return entity.Symbol{}, domain.ErrDuplicateSymbol
	}
	// 価格の挿入に失敗した場合は銘柄も登録しない
	if s.AppendErr != nil {
		return entity.Symbol{}, s.AppendErr
	}
	s.nextID++
	sym := entity.Symbol{ID: s.nextID, Name: name, CreatedAt: fixedNow}
	s.symbols[name] = sym
	s.prices[name] = append(s.prices[name], points...)
	return sym, nil
}

func (s *memStore) LatestTwoPrices(_ context.Context, symbol string) ([]entity.PricePoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := s.prices[symbol]
	points := make([]entity.PricePoint, 0, len(stored))
	// 挿入順を id とみなし、同日の場合は後から挿入したものを優先する
	for i := len(stored) - 1; i >= 0; i-- {
		points = append(points, stored[i])
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].TradeDate.After(points[j].TradeDate) })
	if len(points) > 2 {
		points = points[:2]
	}
	return points, nil
}

func (s *memStore) AppendCondition(_ context.Context, symbol string, c entity.Classification, observedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conditions[symbol] = append(s.conditions[symbol], entity.DailyCondition{Symbol: symbol, Classification: c, ObservedAt: observedAt})
	return nil
}

func (s *memStore) LatestCondition(_ context.Context, symbol string) (entity.DailyCondition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conds := s.conditions[symbol]
	if len(conds) == 0 {
		return entity.DailyCondition{}, domain.ErrNotFound
	}
	latest := conds[0]
	for _, c := range conds[1:] {
		if !c.ObservedAt.Before(latest.ObservedAt) {
			latest = c
		}
	}
	return latest, nil
}

func (s *memStore) counts(symbol string) (symbols, prices, conditions int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.symbols), len(s.prices[symbol]), len(s.conditions[symbol])
}
