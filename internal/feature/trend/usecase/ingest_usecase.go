package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"stock_trend/internal/feature/trend/domain"
	"stock_trend/internal/feature/trend/domain/entity"
	"stock_trend/internal/shared/ratelimiter"
)

// FetchWindowDays は1回の取り込みで取得する過去の暦日数です。
const FetchWindowDays = 30

// PriceProvider は外部の株価データ提供元から直近の終値系列を取得します。
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type PriceProvider interface {
	FetchRecentPrices(ctx context.Context, symbol string, from, to time.Time) (entity.PriceSeries, error)
}

// Analyzer は取り込み後のトレンド分析を行います。
type Analyzer interface {
	AnalyzeAndRecord(ctx context.Context, symbol string) error
}

// IngestUsecase は銘柄ごとに「存在確認 → 取得 → 永続化 → 分析」を行うユースケースです。
// 銘柄間で状態は持ちません。
type IngestUsecase struct {
	provider    PriceProvider
	store       PriceStore
	analyzer    Analyzer
	rateLimiter ratelimiter.RateLimiterInterface
	now         func() time.Time
}

// NewIngestUsecase は新しい IngestUsecase を作成します。rateLimiter は nil でも構いません。
func NewIngestUsecase(provider PriceProvider, store PriceStore, analyzer Analyzer, rateLimiter ratelimiter.RateLimiterInterface, opts ...Option) *IngestUsecase {
	o := applyOptions(opts)
	return &IngestUsecase{
		provider:    provider,
		store:       store,
		analyzer:    analyzer,
		rateLimiter: rateLimiter,
		now:         o.now,
	}
}

// Ingest は銘柄を1回だけ取り込みます。
// 既に登録済みの銘柄、または同時実行中の別の取り込みに先を越された場合は (false, nil) を返します。
// 取得・永続化・分析のいずれかで失敗した場合はエラーを返します。
func (iu *IngestUsecase) Ingest(ctx context.Context, raw string) (bool, error) {
	symbol, err := entity.NormalizeSymbol(raw)
	if err != nil {
		return false, err
	}

	// 1) 存在確認（冪等性ガード）
	if _, err := iu.store.FindSymbol(ctx, symbol); err == nil {
		return false, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return false, fmt.Errorf("check %s: %w", symbol, err)
	}

	// 2) 取得
	if iu.rateLimiter != nil {
		if err := iu.rateLimiter.WaitIfNeeded(ctx); err != nil {
			return false, err
		}
	}
	today := entity.Date(iu.now())
	from := today.AddDate(0, 0, -FetchWindowDays)
	series, err := iu.provider.FetchRecentPrices(ctx, symbol, from, today)
	if err != nil {
		return false, fmt.Errorf("fetch %s: %w", symbol, err)
	}
	series.Symbol = symbol

	// 3) 永続化（銘柄と価格はまとめてコミットし、失敗時は再試行できる状態に戻す）
	if _, err := iu.store.CreateSymbolWithPrices(ctx, symbol, series.SyntheticPoints(today)); err != nil {
		if errors.Is(err, domain.ErrDuplicateSymbol) {
			// 同時に取り込んだ別の呼び出しが先に登録した
			slog.Info("symbol already created by a concurrent ingestion", "symbol", symbol)
			return false, nil
		}
		return false, fmt.Errorf("store %s: %w", symbol, err)
	}

	// 4) 分析
	if err := iu.analyzer.AnalyzeAndRecord(ctx, symbol); err != nil {
		return false, err
	}

	slog.Info("symbol ingested", "symbol", symbol, "prices", series.Len())
	return true, nil
}
