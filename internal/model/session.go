package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SessionState string

const (
	SessionStateIdle                 SessionState = "idle"
	SessionStateAwaitingConfirmation SessionState = "awaiting_confirmation"
	SessionStateCompleted            SessionState = "completed"
	SessionStateExpired              SessionState = "expired"
)

// booking_sessions — per-phone conversational state. At most one
// non-terminal, non-expired session per phone number; expired rows are
// treated as absent on lookup, never swept.
//
// PendingDate/PendingMachineID are only meaningful in
// awaiting_confirmation: both set means an alternate-date booking is being
// confirmed, only PendingDate set means a cancellation is.
type Session struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	PhoneNumber string     `gorm:"type:varchar(32);not null;index"`
	FarmerID    *uuid.UUID `gorm:"type:uuid;index"`

	State SessionState `gorm:"type:varchar(32);not null;default:'idle';index"`

	PendingDate      *time.Time `gorm:"type:date"`
	PendingMachineID *uuid.UUID `gorm:"type:uuid"`

	// Alternate dates offered to the user, as YYYY-MM-DD strings.
	SuggestedDates datatypes.JSONSlice[string]

	CreatedAt      time.Time `gorm:"not null"`
	LastActivityAt time.Time `gorm:"not null"`
	ExpiresAt      time.Time `gorm:"not null;index"`

	Farmer *Farmer `gorm:"foreignKey:FarmerID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

func (s *Session) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
