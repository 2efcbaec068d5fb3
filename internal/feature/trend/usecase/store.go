// Package usecase はトレンド分析パイプライン（取り込み・分析・照会）のビジネスロジックを実装します。
package usecase

import (
	"context"
	"time"

	"stock_trend/internal/feature/trend/domain/entity"
)

// SymbolStore は銘柄の存在確認と登録を抽象化します。
type SymbolStore interface {
	// FindSymbol は銘柄を検索します。存在しない場合は domain.ErrNotFound を返します。
	FindSymbol(ctx context.Context, name string) (entity.Symbol, error)
	// CreateSymbol は銘柄を登録します。既に存在する場合は domain.ErrDuplicateSymbol を返します。
	CreateSymbol(ctx context.Context, name string) (entity.Symbol, error)
}

// AnalysisStore はトレンド分析に必要な読み書きを抽象化します。
type AnalysisStore interface {
	// LatestTwoPrices は取引日の降順で最大2件の価格を返します。
	LatestTwoPrices(ctx context.Context, symbol string) ([]entity.PricePoint, error)
	// AppendCondition は分類結果を追記します。
	AppendCondition(ctx context.Context, symbol string, classification entity.Classification, observedAt time.Time) error
}

// PriceStore は銘柄・価格履歴・日次コンディションの永続化レイヤーを抽象化します。
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type PriceStore interface {
	SymbolStore
	AnalysisStore
	// AppendPrices は価格をすべて挿入します。日付単位の重複排除は行いません。
	AppendPrices(ctx context.Context, symbol string, points []entity.PricePoint) error
	// CreateSymbolWithPrices は銘柄と価格を1つのトランザクションで登録します。
	// どちらかが失敗した場合は何も残りません。既に存在する場合は domain.ErrDuplicateSymbol を返します。
	CreateSymbolWithPrices(ctx context.Context, name string, points []entity.PricePoint) (entity.Symbol, error)
	// LatestCondition は観測日時が最新のコンディションを返します。存在しない場合は domain.ErrNotFound を返します。
	LatestCondition(ctx context.Context, symbol string) (entity.DailyCondition, error)
}
