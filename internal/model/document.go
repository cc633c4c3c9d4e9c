package model

import (
	"encoding/json"
	"time"
)

// Document is an ingested knowledge source for a bot. Uploaded files and
// manual snippets share the shape; SourceType is the file type or "manual".
// Content keeps the full raw text so documents ingested before chunking
// existed remain searchable as-is.
type Document struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	BotID      uint      `gorm:"not null;index" json:"bot_id"`
	Filename   string    `gorm:"size:255;not null" json:"filename"`
	SourceType string    `gorm:"size:50;not null" json:"source_type"`
	Content    string    `gorm:"type:text" json:"-"`
	Tags       string    `gorm:"type:text" json:"-"` // JSON array of strings
	IsManual   bool      `json:"is_manual"`
	CreatedAt  time.Time `json:"created_at"`
}

// TagList returns the parsed tags; empty on parse error.
func (d *Document) TagList() []string {
	if d.Tags == "" {
		return nil
	}
	var tags []string
	_ = json.Unmarshal([]byte(d.Tags), &tags)
	return tags
}

// SetTags stores the tags as JSON.
func (d *Document) SetTags(tags []string) {
	if len(tags) == 0 {
		d.Tags = ""
		return
	}
	b, _ := json.Marshal(tags)
	d.Tags = string(b)
}
