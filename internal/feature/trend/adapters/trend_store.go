// Package adapters はtrendフィーチャーの永続化実装を提供します。
package adapters

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"stock_trend/internal/feature/trend/domain"
	"stock_trend/internal/feature/trend/domain/entity"
	"stock_trend/internal/feature/trend/usecase"
	"stock_trend/internal/platform/db"
)

const insertBatchSize = 100

type trendStore struct {
	db *gorm.DB
}

var _ usecase.PriceStore = (*trendStore)(nil)

// NewTrendStore は gorm を使った PriceStore を作成します。
func NewTrendStore(db *gorm.DB) *trendStore {
	return &trendStore{db: db}
}

type SymbolModel struct {
	ID        uint      `gorm:"primaryKey"`
	Symbol    string    `gorm:"size:10;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (SymbolModel) TableName() string {
	return "tickers"
}

type PriceModel struct {
	ID        uint        `gorm:"primaryKey"`
	TickerID  uint        `gorm:"not null;index:price_ticker_date,priority:1"`
	Price     StoredPrice `gorm:"not null"`
	TradeDate time.Time   `gorm:"type:date;not null;index:price_ticker_date,priority:2"`
}

// StoredPrice は価格カラムの値です。entity.PriceScale 桁の固定小数点として読み書きします。
// SQLite の NUMERIC 型は float64 に丸められるため、SQLite では文字列のまま保存します。
type StoredPrice decimal.Decimal

func (p StoredPrice) Value() (driver.Value, error) {
	return decimal.Decimal(p).Round(entity.PriceScale).String(), nil
}

func (p *StoredPrice) Scan(value any) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return err
	}
	*p = StoredPrice(d)
	return nil
}

// GormDBDataType はマイグレーション時のカラム型をドライバごとに返します。
func (StoredPrice) GormDBDataType(gdb *gorm.DB, _ *schema.Field) string {
	if gdb.Dialector.Name() == "sqlite" {
		return "text"
	}
	return fmt.Sprintf("decimal(%d,%d)", entity.PriceIntegerDigits+entity.PriceScale, entity.PriceScale)
}

func (PriceModel) TableName() string {
	return "prices"
}

type ConditionModel struct {
	ID             uint      `gorm:"primaryKey"`
	TickerID       uint      `gorm:"not null;index:condition_ticker_observed,priority:1"`
	Classification string    `gorm:"size:16;not null"`
	ObservedAt     time.Time `gorm:"not null;index:condition_ticker_observed,priority:2"`
}

func (ConditionModel) TableName() string {
	return "daily_conditions"
}

// Models はマイグレーション対象のモデルを返します。
func Models() []any {
	return []any{&SymbolModel{}, &PriceModel{}, &ConditionModel{}}
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorage, err)
}

func (r *trendStore) FindSymbol(ctx context.Context, name string) (entity.Symbol, error) {
	var m SymbolModel
	err := r.db.WithContext(ctx).Where("symbol = ?", name).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entity.Symbol{}, fmt.Errorf("symbol %s: %w", name, domain.ErrNotFound)
	}
	if err != nil {
		return entity.Symbol{}, storageErr("find symbol "+name, err)
	}
	return toSymbol(m), nil
}

func (r *trendStore) CreateSymbol(ctx context.Context, name string) (entity.Symbol, error) {
	m := SymbolModel{Symbol: name}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if db.IsDuplicateKey(err) {
			return entity.Symbol{}, fmt.Errorf("symbol %s: %w", name, domain.ErrDuplicateSymbol)
		}
		return entity.Symbol{}, storageErr("create symbol "+name, err)
	}
	return toSymbol(m), nil
}

// CreateSymbolWithPrices は銘柄と価格を1つのトランザクションで登録します。
func (r *trendStore) CreateSymbolWithPrices(ctx context.Context, name string, points []entity.PricePoint) (entity.Symbol, error) {
	m := SymbolModel{Symbol: name}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&m).Error; err != nil {
			if db.IsDuplicateKey(err) {
				return fmt.Errorf("symbol %s: %w", name, domain.ErrDuplicateSymbol)
			}
			return storageErr("create symbol "+name, err)
		}
		if len(points) == 0 {
			return nil
		}
		ms := toPriceModels(m.ID, points)
		if err := tx.CreateInBatches(&ms, insertBatchSize).Error; err != nil {
			return storageErr("append prices for "+name, err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateSymbol) || errors.Is(err, domain.ErrStorage) {
			return entity.Symbol{}, err
		}
		return entity.Symbol{}, storageErr("store "+name, err)
	}
	return toSymbol(m), nil
}

func (r *trendStore) AppendPrices(ctx context.Context, symbol string, points []entity.PricePoint) error {
	if len(points) == 0 {
		return nil
	}
	tickerID, err := r.tickerID(ctx, symbol)
	if err != nil {
		return err
	}
	ms := toPriceModels(tickerID, points)
	if err := r.db.WithContext(ctx).CreateInBatches(&ms, insertBatchSize).Error; err != nil {
		return storageErr("append prices for "+symbol, err)
	}
	return nil
}

func (r *trendStore) LatestTwoPrices(ctx context.Context, symbol string) ([]entity.PricePoint, error) {
	var rows []PriceModel
	err := r.db.WithContext(ctx).
		Joins("JOIN tickers ON tickers.id = prices.ticker_id").
		Where("tickers.symbol = ?", symbol).
		Order("prices.trade_date DESC").
		Order("prices.id DESC").
		Limit(2).
		Find(&rows).Error
	if err != nil {
		return nil, storageErr("latest prices for "+symbol, err)
	}
	out := make([]entity.PricePoint, 0, len(rows))
	for _, m := range rows {
		out = append(out, entity.PricePoint{Symbol: symbol, Price: decimal.Decimal(m.Price), TradeDate: m.TradeDate})
	}
	return out, nil
}

func (r *trendStore) AppendCondition(ctx context.Context, symbol string, classification entity.Classification, observedAt time.Time) error {
	tickerID, err := r.tickerID(ctx, symbol)
	if err != nil {
		return err
	}
	m := ConditionModel{TickerID: tickerID, Classification: string(classification), ObservedAt: observedAt}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return storageErr("append condition for "+symbol, err)
	}
	return nil
}

func (r *trendStore) LatestCondition(ctx context.Context, symbol string) (entity.DailyCondition, error) {
	var m ConditionModel
	err := r.db.WithContext(ctx).
		Joins("JOIN tickers ON tickers.id = daily_conditions.ticker_id").
		Where("tickers.symbol = ?", symbol).
		Order("daily_conditions.observed_at DESC").
		Order("daily_conditions.id DESC").
		Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entity.DailyCondition{}, fmt.Errorf("condition for %s: %w", symbol, domain.ErrNotFound)
	}
	if err != nil {
		return entity.DailyCondition{}, storageErr("latest condition for "+symbol, err)
	}
	return entity.DailyCondition{
		Symbol:         symbol,
		Classification: entity.Classification(m.Classification),
		ObservedAt:     m.ObservedAt,
	}, nil
}

func (r *trendStore) tickerID(ctx context.Context, symbol string) (uint, error) {
	var m SymbolModel
	err := r.db.WithContext(ctx).Select("id").Where("symbol = ?", symbol).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("symbol %s: %w", symbol, domain.ErrNotFound)
	}
	if err != nil {
		return 0, storageErr("find symbol "+symbol, err)
	}
	return m.ID, nil
}

func toPriceModels(tickerID uint, points []entity.PricePoint) []PriceModel {
	ms := make([]PriceModel, 0, len(points))
	for _, p := range points {
		ms = append(ms, PriceModel{TickerID: tickerID, Price: StoredPrice(p.Price), TradeDate: p.TradeDate})
	}
	return ms
}

func toSymbol(m SymbolModel) entity.Symbol {
	return entity.Symbol{ID: m.ID, Name: m.Symbol, CreatedAt: m.CreatedAt}
}
