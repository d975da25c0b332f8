package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/agritrack/machinery-booking/internal/model"
)

// FarmerRepository is the read-only farmer registry. The engine never
// mutates farmers.
type FarmerRepository interface {
	// Lookup by phone, tolerant of how the row was stored: exact match on
	// the normalized +CC form, or suffix match of the bare national number
	// against phone/alternate_phone. Returns (nil, nil) when unregistered.
	FindByPhone(ctx context.Context, normalized, bare string) (*model.Farmer, error)
}

type GormFarmerRepository struct {
	db *gorm.DB
}

func NewGormFarmerRepository(db *gorm.DB) *GormFarmerRepository {
	return &GormFarmerRepository{db: db}
}

func (r *GormFarmerRepository) FindByPhone(ctx context.Context, normalized, bare string) (*model.Farmer, error) {
	var f model.Farmer
	err := r.db.WithContext(ctx).
		Where("phone = ? OR phone LIKE ? OR alternate_phone LIKE ?",
			normalized, "%"+bare, "%"+bare).
		First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}
