package repository

import (
	"fmt"

	"gorm.io/gorm"

	"botforge/internal/model"
)

type ChunkRepository struct {
	db *gorm.DB
}

func NewChunkRepository(db *gorm.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

func (r *ChunkRepository) CreateBatch(chunks []model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := r.db.Create(&chunks).Error; err != nil {
		return fmt.Errorf("create chunks batch failed: %w", err)
	}
	return nil
}

func (r *ChunkRepository) ListByBotID(botID uint) ([]model.Chunk, error) {
	var chunks []model.Chunk
	if err := r.db.Where("bot_id = ?", botID).Find(&chunks).Error; err != nil {
		return nil, fmt.Errorf("list chunks by bot failed: %w", err)
	}
	return chunks, nil
}

func (r *ChunkRepository) CountByDocumentID(documentID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&model.Chunk{}).Where("document_id = ?", documentID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count chunks by document failed: %w", err)
	}
	return count, nil
}

func (r *ChunkRepository) CountByBotID(botID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&model.Chunk{}).Where("bot_id = ?", botID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count chunks by bot failed: %w", err)
	}
	return count, nil
}

func (r *ChunkRepository) DeleteByDocumentID(documentID uint) error {
	if err := r.db.Where("document_id = ?", documentID).Delete(&model.Chunk{}).Error; err != nil {
		return fmt.Errorf("delete chunks by document failed: %w", err)
	}
	return nil
}

func (r *ChunkRepository) DeleteByBotID(botID uint) error {
	if err := r.db.Where("bot_id = ?", botID).Delete(&model.Chunk{}).Error; err != nil {
		return fmt.Errorf("delete chunks by bot failed: %w", err)
	}
	return nil
}
