package marketdata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock_trend/internal/feature/trend/domain"
	platformhttp "stock_trend/internal/platform/http"
)

var (
	testFrom = time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC)
	testTo   = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
)

func TestNewMarketDataProvider_Defaults(t *testing.T) {
	t.Parallel()

	p := NewMarketDataProvider(Config{Token: "t"}, &http.Client{})

	require.NotNil(t, p)
	assert.Equal(t, DefaultBaseURL, p.cfg.BaseURL)
	assert.Equal(t, DefaultTimeout, p.cfg.Timeout)
	assert.Equal(t, "t", p.cfg.Token)
}

func TestMarketDataProvider_FetchRecentPrices_Success(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/stocks/candles/D/AAPL/", r.URL.Path)
		assert.Equal(t, "2024-02-14", r.URL.Query().Get("from"))
		assert.Equal(t, "2024-03-15", r.URL.Query().Get("to"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "true", r.URL.Query().Get("adjusted"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"s": "ok",
			"o": [99.5, 101],
			"h": [101, 106],
			"l": [98, 100],
			"c": [100.25, 105.5],
			"v": [1000, 2000],
			"t": [1707868800, 1707955200]
		}`))
	}))
	defer server.Close()

	client := platformhttp.NewHTTPClient(time.Second, platformhttp.WithBearerToken("test-token"))
	p := NewMarketDataProvider(Config{BaseURL: server.URL, Timeout: time.Second}, client)

	series, err := p.FetchRecentPrices(context.Background(), "AAPL", testFrom, testTo)
	require.NoError(t, err)

	assert.Equal(t, "AAPL", series.Symbol)
	require.Equal(t, 2, series.Len())
	assert.Equal(t, "100.25", series.Closes[0].String())
	assert.Equal(t, "105.5", series.Closes[1].String())
}

func TestMarketDataProvider_FetchRecentPrices_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"http 401", http.StatusUnauthorized, `{"s":"error","errmsg":"invalid token"}`, domain.ErrProviderRejected},
		{"http 500 with html", http.StatusInternalServerError, `<html>oops</html>`, domain.ErrProviderRejected},
		{"status error", http.StatusOK, `{"s":"error","errmsg":"unknown symbol"}`, domain.ErrProviderRejected},
		{"status no_data", http.StatusOK, `{"s":"no_data"}`, domain.ErrProviderRejected},
		{"invalid json", http.StatusOK, `{"s":"ok","c":[`, domain.ErrMalformedResponse},
		{"closes absent", http.StatusOK, `{"s":"ok"}`, domain.ErrMalformedResponse},
		{"closes null", http.StatusOK, `{"s":"ok","c":null}`, domain.ErrMalformedResponse},
		{"closes empty", http.StatusOK, `{"s":"ok","c":[]}`, domain.ErrMalformedResponse},
		{"null element", http.StatusOK, `{"s":"ok","c":[100,null]}`, domain.ErrMalformedResponse},
		{"negative price", http.StatusOK, `{"s":"ok","c":[100,-1]}`, domain.ErrMalformedResponse},
		{"price too large", http.StatusOK, `{"s":"ok","c":[100,12345678901234567]}`, domain.ErrMalformedResponse},
		{"non numeric price", http.StatusOK, `{"s":"ok","c":["abc"]}`, domain.ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			p := NewMarketDataProvider(Config{BaseURL: server.URL}, server.Client())
			_, err := p.FetchRecentPrices(context.Background(), "AAPL", testFrom, testTo)

			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "expected %v, got %v", tt.wantErr, err)
		})
	}
}

func TestMarketDataProvider_FetchRecentPrices_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	p := NewMarketDataProvider(Config{BaseURL: server.URL, Timeout: 50 * time.Millisecond}, server.Client())
	_, err := p.FetchRecentPrices(context.Background(), "AAPL", testFrom, testTo)

	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestMarketDataProvider_FetchRecentPrices_ConnectionRefused(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	p := NewMarketDataProvider(Config{BaseURL: url, Timeout: time.Second}, &http.Client{})
	_, err := p.FetchRecentPrices(context.Background(), "AAPL", testFrom, testTo)

	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}
