package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"stock_trend/internal/feature/trend/domain/entity"
)

// TrendAnalyzer は保存済みの価格履歴から前日比トレンドを算出し、記録します。
type TrendAnalyzer struct {
	store AnalysisStore
	now   func() time.Time
}

// NewTrendAnalyzer は新しい TrendAnalyzer を作成します。
func NewTrendAnalyzer(store AnalysisStore, opts ...Option) *TrendAnalyzer {
	o := applyOptions(opts)
	return &TrendAnalyzer{store: store, now: o.now}
}

// AnalyzeAndRecord は直近2件の価格を比較し、DailyCondition を1件追記します。
// 価格が2件未満の場合は何もしません（エラーではありません）。
func (a *TrendAnalyzer) AnalyzeAndRecord(ctx context.Context, symbol string) error {
	points, err := a.store.LatestTwoPrices(ctx, symbol)
	if err != nil {
		return fmt.Errorf("load latest prices for %s: %w", symbol, err)
	}
	if len(points) < 2 {
		slog.Debug("not enough prices to analyze", "symbol", symbol, "count", len(points))
		return nil
	}

	classification := entity.Classify(points[0].Price, points[1].Price)
	if err := a.store.AppendCondition(ctx, symbol, classification, a.now()); err != nil {
		return fmt.Errorf("record condition for %s: %w", symbol, err)
	}
	return nil
}
