package model

import "time"

// Bot holds a conversational agent's personality and configuration.
// ClientID is zero for standalone bots, which are not metered.
type Bot struct {
	ID                     uint      `gorm:"primaryKey" json:"id"`
	ClientID               uint      `gorm:"index" json:"client_id"`
	Name                   string    `gorm:"size:100;not null" json:"name"`
	Description            string    `gorm:"type:text" json:"description"`
	Personality            string    `gorm:"type:text" json:"personality"`
	PersonalityDescription string    `gorm:"type:text" json:"personality_description"`
	Tone                   string    `gorm:"size:50" json:"tone"`
	SystemPrompt           string    `gorm:"type:text" json:"system_prompt"`
	Temperature            float64   `json:"temperature"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}
