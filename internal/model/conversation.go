package model

import (
	"encoding/json"
	"time"
)

// Message is one turn in a conversation.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation stores the rolling message window for one (bot, session)
// pair as a JSON array, mirroring how history is read and rewritten as a
// unit on every append. The pair is unique; clearing empties Messages but
// keeps the row.
type Conversation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BotID     uint      `gorm:"not null;uniqueIndex:idx_bot_session" json:"bot_id"`
	SessionID string    `gorm:"size:100;not null;uniqueIndex:idx_bot_session" json:"session_id"`
	Messages  string    `gorm:"type:text" json:"-"` // JSON array of Message
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MessageList returns the parsed messages; empty on parse error.
func (c *Conversation) MessageList() []Message {
	if c.Messages == "" {
		return nil
	}
	var messages []Message
	_ = json.Unmarshal([]byte(c.Messages), &messages)
	return messages
}

// SetMessages stores the messages as JSON.
func (c *Conversation) SetMessages(messages []Message) {
	if len(messages) == 0 {
		c.Messages = "[]"
		return
	}
	b, _ := json.Marshal(messages)
	c.Messages = string(b)
}
