package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agritrack/machinery-booking/internal/model"
)

var (
	// ErrSlotTaken: another active booking already holds (machine, date).
	ErrSlotTaken = errors.New("machine already booked for that date")
	// ErrFarmerBusy: the farmer already has an active booking.
	ErrFarmerBusy = errors.New("farmer already has an active booking")
)

type BookingRepository interface {
	// CreateIfFree inserts the booking after re-checking both uniqueness
	// invariants inside one transaction: no active booking for the farmer,
	// none for the (machine, scheduled date) pair.
	CreateIfFree(ctx context.Context, b *model.Booking) error

	// Earliest upcoming active (pending/confirmed) booking, machine
	// preloaded. (nil, nil) when none.
	ActiveByFarmer(ctx context.Context, farmerID uuid.UUID, from time.Time) (*model.Booking, error)

	// Earliest confirmed/in_progress booking, the one COMPLETE acts on.
	OpenForCompletion(ctx context.Context, farmerID uuid.UUID) (*model.Booking, error)

	// Most recently completed booking, for RECEIPT.
	LatestCompleted(ctx context.Context, farmerID uuid.UUID) (*model.Booking, error)

	HasActiveOnDate(ctx context.Context, machineID uuid.UUID, date time.Time) (bool, error)

	MarkCancelled(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) error
	// Flips a booking to in_progress once its OTP is verified.
	MarkInProgress(ctx context.Context, id uuid.UUID) error
}

type GormBookingRepository struct {
	db *gorm.DB
}

func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

func (r *GormBookingRepository) CreateIfFree(ctx context.Context, b *model.Booking) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		err := tx.Model(&model.Booking{}).
			Where("farmer_id = ? AND status IN ?", b.FarmerID, model.ActiveBookingStatuses).
			Count(&n).Error
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrFarmerBusy
		}

		err = tx.Model(&model.Booking{}).
			Where("machine_id = ? AND scheduled_date = ? AND status IN ?",
				b.MachineID, b.ScheduledDate, model.ActiveBookingStatuses).
			Count(&n).Error
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrSlotTaken
		}

		return tx.Create(b).Error
	})
}

func (r *GormBookingRepository) ActiveByFarmer(ctx context.Context, farmerID uuid.UUID, from time.Time) (*model.Booking, error) {
	var b model.Booking
	err := r.db.WithContext(ctx).
		Preload("Machine").
		Where("farmer_id = ? AND status IN ? AND scheduled_date >= ?",
			farmerID, []model.BookingStatus{model.BookingStatusPending, model.BookingStatusConfirmed}, from).
		Order("scheduled_date ASC").
		First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *GormBookingRepository) OpenForCompletion(ctx context.Context, farmerID uuid.UUID) (*model.Booking, error) {
	var b model.Booking
	err := r.db.WithContext(ctx).
		Preload("Machine").
		Where("farmer_id = ? AND status IN ?",
			farmerID, []model.BookingStatus{model.BookingStatusConfirmed, model.BookingStatusInProgress}).
		Order("scheduled_date ASC").
		First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *GormBookingRepository) LatestCompleted(ctx context.Context, farmerID uuid.UUID) (*model.Booking, error) {
	var b model.Booking
	err := r.db.WithContext(ctx).
		Preload("Machine").
		Where("farmer_id = ? AND status = ?", farmerID, model.BookingStatusCompleted).
		Order("completed_at DESC").
		First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *GormBookingRepository) HasActiveOnDate(ctx context.Context, machineID uuid.UUID, date time.Time) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("machine_id = ? AND scheduled_date = ? AND status IN ?",
			machineID, date, model.ActiveBookingStatuses).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *GormBookingRepository) MarkCancelled(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       model.BookingStatusCancelled,
			"cancelled_at": at,
		}).Error
}

func (r *GormBookingRepository) MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       model.BookingStatusCompleted,
			"completed_at": at,
		}).Error
}

func (r *GormBookingRepository) MarkInProgress(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       model.BookingStatusInProgress,
			"otp_verified": true,
		}).Error
}
