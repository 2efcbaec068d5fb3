package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stock_trend/internal/feature/symbollist/domain/entity"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// mockSymbolUsecase はSymbolUsecaseインターフェースのモック実装です。
type mockSymbolUsecase struct {
	ListKnownSymbolsFunc func(ctx context.Context) ([]entity.Symbol, error)
}

// ListKnownSymbols はモックのListKnownSymbols関数を呼び出します。
func (m *mockSymbolUsecase) ListKnownSymbols(ctx context.Context) ([]entity.Symbol, error) {
	if m.ListKnownSymbolsFunc != nil {
		return m.ListKnownSymbolsFunc(ctx)
	}
	return nil, nil
}

// TestNewSymbolHandler はNewSymbolHandlerコンストラクタが正しくインスタンスを生成することを検証します。
func TestNewSymbolHandler(t *testing.T) {
	t.Parallel()

	handler := NewSymbolHandler(&mockSymbolUsecase{})

	assert.NotNil(t, handler, "handler should not be nil")
	assert.NotNil(t, handler.uc, "usecase should not be nil")
}

// TestSymbolHandler_List はListハンドラーの各種シナリオをテーブル駆動テストで検証します。
func TestSymbolHandler_List(t *testing.T) {
	gin.SetMode(gin.TestMode)

	ingestedAt := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		mockListFunc   func(ctx context.Context) ([]entity.Symbol, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "success: returns list of symbols",
			mockListFunc: func(ctx context.Context) ([]entity.Symbol, error) {
				return []entity.Symbol{
					{ID: 1, Code: "AAPL", CreatedAt: ingestedAt},
					{ID: 2, Code: "MSFT", CreatedAt: ingestedAt},
				}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `[{"symbol":"AAPL","ingested_at":"2024-03-15T09:00:00Z"},{"symbol":"MSFT","ingested_at":"2024-03-15T09:00:00Z"}]`,
		},
		{
			name: "success: returns empty list when no symbols",
			mockListFunc: func(ctx context.Context) ([]entity.Symbol, error) {
				return nil, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `[]`,
		},
		{
			name: "failure: usecase returns error",
			mockListFunc: func(ctx context.Context) ([]entity.Symbol, error) {
				return nil, errors.New("database error")
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"failed to list symbols"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewSymbolHandler(&mockSymbolUsecase{ListKnownSymbolsFunc: tt.mockListFunc})

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/symbols", nil)

			handler.List(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}
