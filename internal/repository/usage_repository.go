package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"botforge/internal/model"
)

type UsageRepository struct {
	db *gorm.DB
}

func NewUsageRepository(db *gorm.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

func (r *UsageRepository) Create(record *model.Usage) error {
	if err := r.db.Create(record).Error; err != nil {
		return fmt.Errorf("create usage record failed: %w", err)
	}
	return nil
}

// List returns usage records matching the given filters, ascending by
// timestamp. Zero-valued filters are ignored.
func (r *UsageRepository) List(clientID, botID uint, from, to time.Time) ([]model.Usage, error) {
	q := r.db.Model(&model.Usage{})
	if clientID != 0 {
		q = q.Where("client_id = ?", clientID)
	}
	if botID != 0 {
		q = q.Where("bot_id = ?", botID)
	}
	if !from.IsZero() {
		q = q.Where("timestamp >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("timestamp < ?", to)
	}
	var list []model.Usage
	if err := q.Order("timestamp ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list usage records failed: %w", err)
	}
	return list, nil
}

// SumTokensByClientSince returns the total token count for a client from
// the given instant onward.
func (r *UsageRepository) SumTokensByClientSince(clientID uint, since time.Time) (int64, error) {
	var total int64
	err := r.db.Model(&model.Usage{}).
		Where("client_id = ? AND timestamp >= ?", clientID, since).
		Select("COALESCE(SUM(total_tokens), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("sum usage tokens by client failed: %w", err)
	}
	return total, nil
}
