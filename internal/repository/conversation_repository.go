package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"botforge/internal/model"
)

type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) GetByBotAndSession(botID uint, sessionID string) (*model.Conversation, error) {
	var conv model.Conversation
	if err := r.db.Where("bot_id = ? AND session_id = ?", botID, sessionID).First(&conv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query conversation failed: %w", err)
	}
	return &conv, nil
}

func (r *ConversationRepository) Create(conv *model.Conversation) error {
	if err := r.db.Create(conv).Error; err != nil {
		return fmt.Errorf("create conversation failed: %w", err)
	}
	return nil
}

func (r *ConversationRepository) Update(conv *model.Conversation) error {
	if err := r.db.Save(conv).Error; err != nil {
		return fmt.Errorf("update conversation failed: %w", err)
	}
	return nil
}

func (r *ConversationRepository) ListByBotID(botID uint) ([]model.Conversation, error) {
	var list []model.Conversation
	if err := r.db.Where("bot_id = ?", botID).Order("updated_at DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list conversations by bot failed: %w", err)
	}
	return list, nil
}

func (r *ConversationRepository) DeleteByBotID(botID uint) error {
	if err := r.db.Where("bot_id = ?", botID).Delete(&model.Conversation{}).Error; err != nil {
		return fmt.Errorf("delete conversations by bot failed: %w", err)
	}
	return nil
}
