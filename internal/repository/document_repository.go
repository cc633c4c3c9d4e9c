package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"botforge/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(doc *model.Document) error {
	if err := r.db.Create(doc).Error; err != nil {
		return fmt.Errorf("create document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByIDAndBotID(id, botID uint) (*model.Document, error) {
	var doc model.Document
	if err := r.db.Where("id = ? AND bot_id = ?", id, botID).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) ListByBotID(botID uint) ([]model.Document, error) {
	var list []model.Document
	if err := r.db.Where("bot_id = ?", botID).Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return list, nil
}

// ListIDsByBotID returns document IDs for a bot (for cascade delete).
func (r *DocumentRepository) ListIDsByBotID(botID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.Model(&model.Document{}).Where("bot_id = ?", botID).Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list document ids by bot failed: %w", err)
	}
	return ids, nil
}

func (r *DocumentRepository) Update(doc *model.Document) error {
	if err := r.db.Save(doc).Error; err != nil {
		return fmt.Errorf("update document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) DeleteByIDAndBotID(id, botID uint) error {
	if err := r.db.Where("id = ? AND bot_id = ?", id, botID).Delete(&model.Document{}).Error; err != nil {
		return fmt.Errorf("delete document failed: %w", err)
	}
	return nil
}

// DeleteByBotID deletes all documents for a bot (caller deletes chunks first).
func (r *DocumentRepository) DeleteByBotID(botID uint) error {
	if err := r.db.Where("bot_id = ?", botID).Delete(&model.Document{}).Error; err != nil {
		return fmt.Errorf("delete documents by bot failed: %w", err)
	}
	return nil
}
