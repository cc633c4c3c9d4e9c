package model

import "time"

// Usage is one immutable billing record for a completed exchange. Only
// bots linked to a client produce usage records.
type Usage struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ClientID     uint      `gorm:"not null;index" json:"client_id"`
	BotID        uint      `gorm:"not null;index" json:"bot_id"`
	InputTokens  int       `gorm:"not null" json:"input_tokens"`
	OutputTokens int       `gorm:"not null" json:"output_tokens"`
	TotalTokens  int       `gorm:"not null" json:"total_tokens"`
	InputCost    float64   `json:"input_cost"`
	OutputCost   float64   `json:"output_cost"`
	TotalCost    float64   `json:"total_cost"`
	Timestamp    time.Time `gorm:"index" json:"timestamp"`
}
