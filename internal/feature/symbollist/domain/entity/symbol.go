// Package entity defines the domain models for the symbollist feature.
package entity

import "time"

// Symbol is a ticker the service has already ingested.
// It is a read-only view over the tickers table written by the trend feature.
type Symbol struct {
	ID        uint      `gorm:"primaryKey"`
	Code      string    `gorm:"column:symbol;size:10;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName maps Symbol onto the tickers table.
func (Symbol) TableName() string {
	return "tickers"
}
