// Package handler はtrendフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"stock_trend/internal/api"
	"stock_trend/internal/feature/trend/domain/entity"
	"stock_trend/internal/feature/trend/transport/http/dto"
	"stock_trend/internal/feature/trend/usecase"
)

// TrendUsecase はトレンド照会と一括取り込みのユースケースインターフェースです。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type TrendUsecase interface {
	Trend(ctx context.Context, symbol string) entity.TrendReport
	PreloadAll(ctx context.Context, symbols []string) usecase.PreloadReport
}

// TrendHandler はトレンドAPIのHTTPリクエストを処理します。
type TrendHandler struct {
	uc TrendUsecase
}

// NewTrendHandler は新しい TrendHandler を作成します。
func NewTrendHandler(uc TrendUsecase) *TrendHandler {
	return &TrendHandler{uc: uc}
}

// GetTrend は銘柄の最新トレンドを返します。
// 取り込み失敗やデータなしも200で返し、statusとmessageで区別します。
// 不正な銘柄コードのみ400 Bad Requestを返します。
//
// エンドポイント例:
// GET /trends/:symbol
func (h *TrendHandler) GetTrend(c *gin.Context) {
	report := h.uc.Trend(c.Request.Context(), c.Param("symbol"))

	out := dto.TrendResponse{
		Symbol:  report.Symbol,
		Status:  string(report.Status),
		Message: report.Message(),
	}
	if report.Status == entity.StatusOK {
		out.Trend = string(report.Classification)
		observedAt := report.ObservedAt.UTC()
		out.ObservedAt = &observedAt
	}

	status := http.StatusOK
	if report.Status == entity.StatusInvalid {
		status = http.StatusBadRequest
	}
	c.JSON(status, out)
}

// Preload はリクエストボディの銘柄をまとめて取り込みます。
// 一部の銘柄が失敗しても200を返し、失敗はレスポンスの failed に含めます。
//
// エンドポイント例:
// POST /preload {"symbols":["AAPL","MSFT"]}
func (h *TrendHandler) Preload(c *gin.Context) {
	var req dto.PreloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}

	report := h.uc.PreloadAll(c.Request.Context(), req.Symbols)
	c.JSON(http.StatusOK, toPreloadResponse(report))
}

func toPreloadResponse(r usecase.PreloadReport) dto.PreloadResponse {
	out := dto.PreloadResponse{
		Requested: r.Requested,
		Ingested:  nonNil(r.Ingested),
		Skipped:   nonNil(r.Skipped),
		Failed:    make([]dto.PreloadFailure, 0, len(r.Failed)),
	}
	for _, f := range r.Failed {
		out.Failed = append(out.Failed, dto.PreloadFailure{Symbol: f.Symbol, Error: f.Err.Error()})
	}
	return out
}

// nonNil はJSONで null ではなく [] を返すためのヘルパーです。
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
