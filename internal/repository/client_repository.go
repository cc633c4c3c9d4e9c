package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"botforge/internal/model"
)

type ClientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

func (r *ClientRepository) Create(client *model.Client) error {
	if err := r.db.Create(client).Error; err != nil {
		return fmt.Errorf("create client failed: %w", err)
	}
	return nil
}

func (r *ClientRepository) GetByID(id uint) (*model.Client, error) {
	var client model.Client
	if err := r.db.First(&client, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query client by id failed: %w", err)
	}
	return &client, nil
}

func (r *ClientRepository) List() ([]model.Client, error) {
	var list []model.Client
	if err := r.db.Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list clients failed: %w", err)
	}
	return list, nil
}

func (r *ClientRepository) Update(client *model.Client) error {
	if err := r.db.Save(client).Error; err != nil {
		return fmt.Errorf("update client failed: %w", err)
	}
	return nil
}

func (r *ClientRepository) Delete(id uint) error {
	if err := r.db.Delete(&model.Client{}, id).Error; err != nil {
		return fmt.Errorf("delete client failed: %w", err)
	}
	return nil
}
