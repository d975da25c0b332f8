package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/agritrack/machinery-booking/internal/model"
)

// MessageLogRepository is the append-only audit trail.
type MessageLogRepository interface {
	Create(ctx context.Context, m *model.MessageLog) error
}

type GormMessageLogRepository struct {
	db *gorm.DB
}

func NewGormMessageLogRepository(db *gorm.DB) *GormMessageLogRepository {
	return &GormMessageLogRepository{db: db}
}

func (r *GormMessageLogRepository) Create(ctx context.Context, m *model.MessageLog) error {
	return r.db.WithContext(ctx).Create(m).Error
}
