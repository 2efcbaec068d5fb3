package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"stock_trend/internal/feature/trend/domain"
	"stock_trend/internal/feature/trend/domain/entity"
)

// Ingester は1銘柄の取り込みを行います。
type Ingester interface {
	Ingest(ctx context.Context, symbol string) (bool, error)
}

// TrendReader はトレンド照会に必要な読み取りを抽象化します。
type TrendReader interface {
	FindSymbol(ctx context.Context, name string) (entity.Symbol, error)
	LatestCondition(ctx context.Context, symbol string) (entity.DailyCondition, error)
}

// PreloadFailure は PreloadAll で取り込みに失敗した1銘柄を表します。
type PreloadFailure struct {
	Symbol string
	Err    error
}

// PreloadReport は PreloadAll の結果です。
type PreloadReport struct {
	Requested int      // 空行を除いた入力件数
	Ingested  []string // 今回新たに取り込んだ銘柄
	Skipped   []string // 取り込み済みだった銘柄
	Failed    []PreloadFailure
}

// TrendService は外部の呼び出し元（HTTP・CLI・スケジューラ）に PreloadAll と GetTrend を提供するファサードです。
type TrendService struct {
	ingest      Ingester
	store       TrendReader
	concurrency int
	group       singleflight.Group
}

// NewTrendService は新しい TrendService を作成します。
func NewTrendService(ingest Ingester, store TrendReader, opts ...Option) *TrendService {
	o := applyOptions(opts)
	return &TrendService{
		ingest:      ingest,
		store:       store,
		concurrency: o.concurrency,
	}
}

// PreloadAll は銘柄リストをまとめて取り込みます。
// 空行は無視し、1銘柄の失敗で処理全体を中断しません。失敗はログとレポートに記録されます。
func (s *TrendService) PreloadAll(ctx context.Context, symbols []string) PreloadReport {
	var (
		mu     sync.Mutex
		report PreloadReport
	)
	fail := func(symbol string, err error) {
		mu.Lock()
		defer mu.Unlock()
		report.Failed = append(report.Failed, PreloadFailure{Symbol: symbol, Err: err})
	}

	seen := make(map[string]struct{}, len(symbols))
	targets := make([]string, 0, len(symbols))
	for _, raw := range symbols {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		report.Requested++
		symbol, err := entity.NormalizeSymbol(raw)
		if err != nil {
			slog.Warn("skipping invalid symbol", "symbol", raw, "error", err)
			fail(strings.TrimSpace(raw), err)
			continue
		}
		if _, ok := seen[symbol]; ok {
			continue
		}
		seen[symbol] = struct{}{}
		targets = append(targets, symbol)
	}

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, symbol := range targets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				fail(symbol, err)
				return nil
			}
			ingested, err := s.ingestOnce(ctx, symbol)
			if err != nil {
				// 1つの銘柄でエラーが発生しても処理を止めずにログに出力し、次の銘柄へ進む
				slog.Error("failed to ingest data", "symbol", symbol, "error", err)
				fail(symbol, err)
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			if ingested {
				report.Ingested = append(report.Ingested, symbol)
			} else {
				report.Skipped = append(report.Skipped, symbol)
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(report.Ingested)
	sort.Strings(report.Skipped)
	sort.Slice(report.Failed, func(i, j int) bool { return report.Failed[i].Symbol < report.Failed[j].Symbol })

	slog.Info("preload finished",
		"requested", report.Requested,
		"ingested", len(report.Ingested),
		"skipped", len(report.Skipped),
		"failed", len(report.Failed),
	)
	return report
}

// GetTrend は銘柄の最新トレンド分類を文字列で返します。
// 取り込みに失敗した場合やデータがない場合もエラーにはせず、所定の文言を返します。
func (s *TrendService) GetTrend(ctx context.Context, symbol string) string {
	return s.Trend(ctx, symbol).Message()
}

// Trend は銘柄の最新トレンドを照会します。未登録の銘柄はその場で取り込みを試みます。
func (s *TrendService) Trend(ctx context.Context, raw string) entity.TrendReport {
	symbol, err := entity.NormalizeSymbol(raw)
	if err != nil {
		return entity.TrendReport{Symbol: strings.ToUpper(strings.TrimSpace(raw)), Status: entity.StatusInvalid}
	}
	report := entity.TrendReport{Symbol: symbol}

	if _, err := s.store.FindSymbol(ctx, symbol); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			slog.Error("failed to look up symbol", "symbol", symbol, "error", err)
			report.Status = entity.StatusUnavailable
			return report
		}

		// 未登録の銘柄はオンデマンドで取り込む
		if _, err := s.ingestOnce(ctx, symbol); err != nil {
			slog.Warn("on-demand ingestion failed", "symbol", symbol, "error", err)
			report.Status = entity.StatusUnavailable
			return report
		}
		if _, err := s.store.FindSymbol(ctx, symbol); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				report.Status = entity.StatusNotFound
			} else {
				slog.Error("failed to look up symbol", "symbol", symbol, "error", err)
				report.Status = entity.StatusUnavailable
			}
			return report
		}
	}

	cond, err := s.store.LatestCondition(ctx, symbol)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		report.Status = entity.StatusNoData
	case err != nil:
		slog.Error("failed to load latest condition", "symbol", symbol, "error", err)
		report.Status = entity.StatusUnavailable
	default:
		report.Status = entity.StatusOK
		report.Classification = cond.Classification
		report.ObservedAt = cond.ObservedAt
	}
	return report
}

// ingestOnce は同じ銘柄への同時取り込みを1回にまとめます。
// 共有される取り込みは呼び出し元のキャンセルから切り離して実行し、各呼び出し元は自分の ctx だけを待ちます。
// 外部 API 呼び出しのタイムアウトは PriceProvider 側で適用されます。
func (s *TrendService) ingestOnce(ctx context.Context, symbol string) (bool, error) {
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(symbol, func() (interface{}, error) {
		return s.ingest.Ingest(shared, symbol)
	})
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return false, r.Err
		}
		return r.Val.(bool), nil
	}
}
