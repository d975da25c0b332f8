package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agritrack/machinery-booking/internal/model"
)

type SessionRepository interface {
	// Latest non-terminal, non-expired session for the phone. Expired rows
	// are simply not returned; nothing sweeps them. (nil, nil) when none.
	GetActive(ctx context.Context, phone string, now time.Time) (*model.Session, error)

	Create(ctx context.Context, s *model.Session) error

	// Touch refreshes the sliding TTL on an inbound message.
	Touch(ctx context.Context, id uuid.UUID, now, expiresAt time.Time) error

	// Update merges fields and stamps last_activity_at.
	Update(ctx context.Context, id uuid.UUID, fields map[string]any, now time.Time) error

	// Reset returns the session to idle and clears the pending payload.
	Reset(ctx context.Context, id uuid.UUID, now time.Time) error

	// Complete marks the session terminal; the next GetActive misses it.
	Complete(ctx context.Context, id uuid.UUID, now time.Time) error
}

type GormSessionRepository struct {
	db *gorm.DB
}

func NewGormSessionRepository(db *gorm.DB) *GormSessionRepository {
	return &GormSessionRepository{db: db}
}

func (r *GormSessionRepository) GetActive(ctx context.Context, phone string, now time.Time) (*model.Session, error) {
	var s model.Session
	err := r.db.WithContext(ctx).
		Where("phone_number = ? AND state NOT IN ? AND expires_at > ?",
			phone,
			[]model.SessionState{model.SessionStateCompleted, model.SessionStateExpired},
			now).
		Order("created_at DESC").
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormSessionRepository) Create(ctx context.Context, s *model.Session) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *GormSessionRepository) Touch(ctx context.Context, id uuid.UUID, now, expiresAt time.Time) error {
	return r.Update(ctx, id, map[string]any{"expires_at": expiresAt}, now)
}

func (r *GormSessionRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]any, now time.Time) error {
	merged := map[string]any{"last_activity_at": now}
	for k, v := range fields {
		merged[k] = v
	}
	return r.db.WithContext(ctx).
		Model(&model.Session{}).
		Where("id = ?", id).
		Updates(merged).Error
}

func (r *GormSessionRepository) Reset(ctx context.Context, id uuid.UUID, now time.Time) error {
	return r.Update(ctx, id, map[string]any{
		"state":              model.SessionStateIdle,
		"pending_date":       nil,
		"pending_machine_id": nil,
		"suggested_dates":    nil,
	}, now)
}

func (r *GormSessionRepository) Complete(ctx context.Context, id uuid.UUID, now time.Time) error {
	return r.Update(ctx, id, map[string]any{
		"state": model.SessionStateCompleted,
	}, now)
}
