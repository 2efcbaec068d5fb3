package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"stock_trend/internal/feature/trend/domain"
	"stock_trend/internal/feature/trend/domain/entity"
	"stock_trend/internal/feature/trend/usecase"
	"stock_trend/internal/platform/externalapi/marketdata/dto"
)

const dateLayout = "2006-01-02"

// MarketDataProvider はMarket Data外部APIから日足の終値を取得するPriceProvider実装です。
type MarketDataProvider struct {
	cfg    Config
	client *http.Client
}

// MarketDataProviderがPriceProviderを実装していることをコンパイル時に検証します。
var _ usecase.PriceProvider = (*MarketDataProvider)(nil)

// NewMarketDataProvider は指定された設定とHTTPクライアントでMarketDataProviderを生成します。
// 認証ヘッダーは client 側（WithBearerToken）で付与されている前提です。
func NewMarketDataProvider(cfg Config, client *http.Client) *MarketDataProvider {
	return &MarketDataProvider{cfg: cfg.WithDefaults(), client: client}
}

// FetchRecentPrices は [from, to] の日足終値を古い順に返します。
// 失敗は domain.ErrProviderUnavailable / ErrProviderRejected / ErrMalformedResponse のいずれかに分類されます。
// 再試行は行いません。
func (m *MarketDataProvider) FetchRecentPrices(ctx context.Context, symbol string, from, to time.Time) (entity.PriceSeries, error) {
	q := url.Values{}
	q.Set("from", from.Format(dateLayout))
	q.Set("to", to.Format(dateLayout))
	q.Set("format", "json")
	q.Set("adjusted", "true")

	u := fmt.Sprintf("%s/v1/stocks/candles/D/%s/?%s", m.cfg.BaseURL, url.PathEscape(symbol), q.Encode())

	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return entity.PriceSeries{}, fmt.Errorf("%w: build request: %v", domain.ErrProviderUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := m.client.Do(req)
	if err != nil {
		// タイムアウト・キャンセルを含むすべての通信エラー
		return entity.PriceSeries{}, fmt.Errorf("%w: %s: %v", domain.ErrProviderUnavailable, symbol, err)
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	var body dto.CandlesResponse
	decodeErr := json.NewDecoder(res.Body).Decode(&body)

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return entity.PriceSeries{}, fmt.Errorf("%w: %s: http %d %s", domain.ErrProviderRejected, symbol, res.StatusCode, body.Errmsg)
	}
	if decodeErr != nil {
		return entity.PriceSeries{}, fmt.Errorf("%w: %s: %v", domain.ErrMalformedResponse, symbol, decodeErr)
	}
	switch body.S {
	case dto.StatusError, dto.StatusNoData:
		return entity.PriceSeries{}, fmt.Errorf("%w: %s: status %q %s", domain.ErrProviderRejected, symbol, body.S, body.Errmsg)
	}

	closes, err := toCloses(body.C)
	if err != nil {
		return entity.PriceSeries{}, fmt.Errorf("%w: %s: %v", domain.ErrMalformedResponse, symbol, err)
	}
	return entity.PriceSeries{Symbol: symbol, Closes: closes}, nil
}

func toCloses(raw []*decimal.Decimal) ([]decimal.Decimal, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("no closing prices")
	}
	closes := make([]decimal.Decimal, 0, len(raw))
	for i, c := range raw {
		if c == nil {
			return nil, fmt.Errorf("closing price %d is null", i)
		}
		price, err := entity.NormalizePrice(*c)
		if err != nil {
			return nil, fmt.Errorf("closing price %d: %w", i, err)
		}
		closes = append(closes, price)
	}
	return closes, nil
}
