package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agritrack/machinery-booking/internal/model"
)

type OTPRepository interface {
	Create(ctx context.Context, o *model.BookingOTP) error

	// Valid reports whether an unverified, unexpired OTP with this code
	// exists for the booking. Read-only: CANCEL/COMPLETE check the code
	// without consuming it.
	Valid(ctx context.Context, bookingID uuid.UUID, code string, now time.Time) (bool, error)

	// FindActiveByCode is the operator-side lookup: any unverified,
	// unexpired OTP matching the code. (nil, nil) when none.
	FindActiveByCode(ctx context.Context, code string, now time.Time) (*model.BookingOTP, error)

	// MarkVerified consumes the OTP; the verified=false filter above makes
	// it single-use.
	MarkVerified(ctx context.Context, id uuid.UUID, at time.Time) error
}

type GormOTPRepository struct {
	db *gorm.DB
}

func NewGormOTPRepository(db *gorm.DB) *GormOTPRepository {
	return &GormOTPRepository{db: db}
}

func (r *GormOTPRepository) Create(ctx context.Context, o *model.BookingOTP) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *GormOTPRepository) Valid(ctx context.Context, bookingID uuid.UUID, code string, now time.Time) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.BookingOTP{}).
		Where("booking_id = ? AND code = ? AND verified = ? AND expires_at > ?",
			bookingID, code, false, now).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *GormOTPRepository) FindActiveByCode(ctx context.Context, code string, now time.Time) (*model.BookingOTP, error) {
	var o model.BookingOTP
	err := r.db.WithContext(ctx).
		Where("code = ? AND verified = ? AND expires_at > ?", code, false, now).
		First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormOTPRepository) MarkVerified(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.BookingOTP{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"verified":    true,
			"verified_at": at,
		}).Error
}
