package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"botforge/internal/model"
)

type BotRepository struct {
	db *gorm.DB
}

func NewBotRepository(db *gorm.DB) *BotRepository {
	return &BotRepository{db: db}
}

func (r *BotRepository) Create(bot *model.Bot) error {
	if err := r.db.Create(bot).Error; err != nil {
		return fmt.Errorf("create bot failed: %w", err)
	}
	return nil
}

func (r *BotRepository) GetByID(id uint) (*model.Bot, error) {
	var bot model.Bot
	if err := r.db.First(&bot, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query bot by id failed: %w", err)
	}
	return &bot, nil
}

func (r *BotRepository) List() ([]model.Bot, error) {
	var list []model.Bot
	if err := r.db.Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list bots failed: %w", err)
	}
	return list, nil
}

func (r *BotRepository) ListByClientID(clientID uint) ([]model.Bot, error) {
	var list []model.Bot
	if err := r.db.Where("client_id = ?", clientID).Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list bots by client failed: %w", err)
	}
	return list, nil
}

func (r *BotRepository) Update(bot *model.Bot) error {
	if err := r.db.Save(bot).Error; err != nil {
		return fmt.Errorf("update bot failed: %w", err)
	}
	return nil
}

func (r *BotRepository) Delete(id uint) error {
	if err := r.db.Delete(&model.Bot{}, id).Error; err != nil {
		return fmt.Errorf("delete bot failed: %w", err)
	}
	return nil
}
