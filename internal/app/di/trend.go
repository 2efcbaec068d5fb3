// Package di provides dependency injection factories for creating application components.
package di

import (
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	symboladapters "stock_trend/internal/feature/symbollist/adapters"
	symbolusecase "stock_trend/internal/feature/symbollist/usecase"
	trendadapters "stock_trend/internal/feature/trend/adapters"
	"stock_trend/internal/feature/trend/usecase"
	"stock_trend/internal/platform/cache"
	"stock_trend/internal/platform/config"
	"stock_trend/internal/platform/externalapi/marketdata"
	"stock_trend/internal/platform/externalapi/twelvedata"
	platformhttp "stock_trend/internal/platform/http"
	"stock_trend/internal/shared/ratelimiter"
)

// NewPriceProvider creates the PriceProvider selected by cfg.Provider.
func NewPriceProvider(cfg *config.Config) (usecase.PriceProvider, error) {
	switch cfg.Provider {
	case config.ProviderMarketData:
		mc := cfg.MarketData.WithDefaults()
		client := platformhttp.NewHTTPClient(mc.Timeout, platformhttp.WithBearerToken(mc.Token))
		return marketdata.NewMarketDataProvider(mc, client), nil
	case config.ProviderTwelveData:
		tc := cfg.TwelveData.WithDefaults()
		return twelvedata.NewTwelveDataProvider(tc, platformhttp.NewHTTPClient(tc.Timeout)), nil
	default:
		return nil, fmt.Errorf("unknown price provider %q", cfg.Provider)
	}
}

// NewPriceStore creates the gorm PriceStore, wrapped in a Redis cache when rdb is not nil.
func NewPriceStore(cfg *config.Config, db *gorm.DB, rdb *redis.Client) usecase.PriceStore {
	store := trendadapters.NewTrendStore(db)
	if rdb == nil {
		return store
	}
	cached := cache.NewCachingTrendStore(rdb, cfg.Cache.TTL, store, cfg.Cache.Namespace)
	if cfg.Cache.RefreshHour >= 0 {
		cached = cached.ExpireDailyAt(cfg.Cache.RefreshHour, cfg.Location())
	}
	return cached
}

// NewTrendService wires the provider, store, analyzer and ingestion into a TrendService.
// rdb may be nil, in which case no cache is used.
func NewTrendService(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*usecase.TrendService, error) {
	provider, err := NewPriceProvider(cfg)
	if err != nil {
		return nil, err
	}
	return NewTrendServiceWith(cfg, provider, NewPriceStore(cfg, db, rdb)), nil
}

// NewTrendServiceWith builds a TrendService around an existing provider and store.
func NewTrendServiceWith(cfg *config.Config, provider usecase.PriceProvider, store usecase.PriceStore) *usecase.TrendService {
	var limiter ratelimiter.RateLimiterInterface
	if rl := cfg.Preload.RateLimit; rl.Calls > 0 && rl.Interval > 0 {
		limiter = ratelimiter.NewRateLimiter(rl.Calls, rl.Interval)
	}

	analyzer := usecase.NewTrendAnalyzer(store)
	ingest := usecase.NewIngestUsecase(provider, store, analyzer, limiter)
	return usecase.NewTrendService(ingest, store, usecase.WithConcurrency(cfg.Preload.Concurrency))
}

// NewSymbolUsecase creates the usecase listing ingested symbols.
func NewSymbolUsecase(db *gorm.DB) *symbolusecase.SymbolUsecase {
	return symbolusecase.NewSymbolUsecase(symboladapters.NewSymbolRepository(db))
}

// NewPreloadSource merges the configured symbol file and the inline symbol list.
// Symbols already in the store are not included: preloading them is a no-op.
func NewPreloadSource(cfg *config.Config) symbolusecase.SymbolSource {
	var sources symbolusecase.MultiSource
	if cfg.Preload.SymbolsFile != "" {
		sources = append(sources, symboladapters.NewFileSource(cfg.Preload.SymbolsFile))
	}
	if len(cfg.Preload.Symbols) > 0 {
		sources = append(sources, symbolusecase.StaticSource(cfg.Preload.Symbols))
	}
	if len(sources) == 0 {
		slog.Warn("no preload symbols configured")
	}
	return sources
}
