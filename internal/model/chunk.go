package model

import "time"

// Chunk is one bounded slice of a document's text. ChunkIndex is a
// contiguous 0-based sequence per document; chunks are recreated wholesale
// when a document is re-ingested and cascade on document deletion.
type Chunk struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DocumentID uint      `gorm:"not null;index" json:"document_id"`
	BotID      uint      `gorm:"not null;index" json:"bot_id"`
	ChunkIndex int       `gorm:"not null" json:"chunk_index"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	TokenCount int       `json:"token_count"`
	CreatedAt  time.Time `json:"created_at"`
}
