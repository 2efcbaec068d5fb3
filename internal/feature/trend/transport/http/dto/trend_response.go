// Package dto defines request and response bodies of the trend HTTP API.
package dto

import "time"

// TrendResponse はトレンド照会のレスポンスDTOです。
type TrendResponse struct {
	Symbol     string     `json:"symbol"`
	Status     string     `json:"status"`
	Trend      string     `json:"trend,omitempty"`       // increased / decreased / stable
	ObservedAt *time.Time `json:"observed_at,omitempty"` // 分類を記録した時刻
	Message    string     `json:"message"`               // GetTrend と同じ文言
}
