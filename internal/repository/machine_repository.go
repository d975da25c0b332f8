package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agritrack/machinery-booking/internal/model"
)

type MachineRepository interface {
	// Machines registered to a district with status "available", in name
	// order. The resolver picks the first free one, so the order is the
	// tie-breaker and must be stable.
	ListAvailableByDistrict(ctx context.Context, district string) ([]model.Machine, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Machine, error)
}

type GormMachineRepository struct {
	db *gorm.DB
}

func NewGormMachineRepository(db *gorm.DB) *GormMachineRepository {
	return &GormMachineRepository{db: db}
}

func (r *GormMachineRepository) ListAvailableByDistrict(ctx context.Context, district string) ([]model.Machine, error) {
	var machines []model.Machine
	err := r.db.WithContext(ctx).
		Where("district = ? AND status = ?", district, model.MachineStatusAvailable).
		Order("name ASC").
		Find(&machines).Error
	if err != nil {
		return nil, err
	}
	return machines, nil
}

func (r *GormMachineRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Machine, error) {
	var m model.Machine
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
