package model

import "time"

// Client is a billable tenant. Bots linked to a client have their token
// usage metered; TokenLimit is an optional advisory monthly ceiling.
type Client struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"size:100;not null" json:"name"`
	Notes      string    `gorm:"type:text" json:"notes"`
	TokenLimit *int64    `json:"token_limit"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
