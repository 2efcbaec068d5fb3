package twelvedata

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
	"stock_trend/internal/platform/externalapi/twelvedata/dto"
)

const dateLayout = "2006-01-02"

// TwelveDataProvider はTwelve Data外部APIから日足の終値を取得するPriceProvider実装です。
type TwelveDataProvider struct {
	cfg    Config
	client *http.Client
}

// TwelveDataProviderがPriceProviderを実装していることをコンパイル時に検証します。
var _ usecase.PriceProvider = (*TwelveDataProvider)(nil)

// NewTwelveDataProvider は指定された設定とHTTPクライアントでTwelveDataProviderの新しいインスタンスを生成します。
func NewTwelveDataProvider(cfg Config, client *http.Client) *TwelveDataProvider {
	return &TwelveDataProvider{cfg: cfg.WithDefaults(), client: client}
}

// FetchRecentPrices はTwelve Data APIから [from, to] の日足終値を古い順に取得します。
func (t *TwelveDataProvider) FetchRecentPrices(ctx context.Context, symbol string, from, to time.Time) (entity.PriceSeries, error) {
	q := url.Values{}
	// クエリパラメータを追加
	q.Set("symbol", symbol)
	q.Set("interval", "1day")
	q.Set("start_date", from.Format(dateLayout))
	q.Set("end_date", to.Format(dateLayout))
	q.Set("order", "ASC")
	q.Set("apikey", t.cfg.APIKey)

	// URLを生成
	u := fmt.Sprintf("%s/time_series?%s", t.cfg.BaseURL, q.Encode())

	ctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	// リクエストオブジェクトを作成
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return entity.PriceSeries{}, fmt.Errorf("%w: build request: %v", domain.ErrProviderUnavailable, err)
	}

	// リクエストを実行
	res, err := t.client.Do(req)
	if err != nil {
		return entity.PriceSeries{}, fmt.Errorf("%w: %s: %v", domain.ErrProviderUnavailable, symbol, err)
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return entity.PriceSeries{}, fmt.Errorf("%w: twelvedata http %d", domain.ErrProviderRejected, res.StatusCode)
	}

	// JSONレスポンスをDTOにデコード
	var body dto.TimeSeriesResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return entity.PriceSeries{}, fmt.Errorf("%w: %s: %v", domain.ErrMalformedResponse, symbol, err)
	}
	if body.Status == "error" {
		return entity.PriceSeries{}, fmt.Errorf("%w: twelvedata: %s", domain.ErrProviderRejected, body.Message)
	}
	if len(body.Values) == 0 {
		return entity.PriceSeries{}, fmt.Errorf("%w: %s: no closing prices", domain.ErrMalformedResponse, symbol)
	}

	closes := make([]decimal.Decimal, 0, len(body.Values))
	for _, v := range body.Values {
		// 終値をパース
		c, err := decimal.NewFromString(v.Close)
		if err != nil {
			return entity.PriceSeries{}, fmt.Errorf("%w: parse close %q: %v", domain.ErrMalformedResponse, v.Close, err)
		}
		price, err := entity.NormalizePrice(c)
		if err != nil {
			return entity.PriceSeries{}, fmt.Errorf("%w: close %q: %v", domain.ErrMalformedResponse, v.Close, err)
		}
		closes = append(closes, price)
	}
	return entity.PriceSeries{Symbol: symbol, Closes: closes}, nil
}
