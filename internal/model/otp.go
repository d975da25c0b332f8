package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// booking_otps — one 4-digit code per booking, issued at creation.
// Single-use: verification filters on verified=false, so a code that has
// been consumed can never verify again.
type BookingOTP struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	BookingID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`

	Code string `gorm:"type:varchar(4);not null;index"`

	Verified   bool `gorm:"not null;default:false"`
	VerifiedAt *time.Time

	ExpiresAt time.Time `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null"`

	Booking *Booking `gorm:"foreignKey:BookingID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (o *BookingOTP) BeforeCreate(_ *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
