package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusConfirmed  BookingStatus = "confirmed"
	BookingStatusInProgress BookingStatus = "in_progress"
	BookingStatusCompleted  BookingStatus = "completed"
	BookingStatusCancelled  BookingStatus = "cancelled"
)

// ActiveBookingStatuses are the non-terminal states. A farmer may hold at
// most one booking in these states, and a (machine, date) pair at most one.
var ActiveBookingStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusConfirmed,
	BookingStatusInProgress,
}

type BookingSource string

const (
	BookingSourceSMS      BookingSource = "sms"
	BookingSourceWhatsApp BookingSource = "whatsapp"
	BookingSourceWeb      BookingSource = "web"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// bookings
type Booking struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	FarmerID  uuid.UUID `gorm:"type:uuid;not null;index"`
	MachineID uuid.UUID `gorm:"type:uuid;not null;index"`

	// Date-only; time-of-day is always midnight UTC.
	ScheduledDate time.Time `gorm:"type:date;not null;index"`

	Status BookingStatus `gorm:"type:varchar(32);not null;index"`
	Source BookingSource `gorm:"type:varchar(16);not null"`

	AcresCovered  float64       `gorm:"not null;default:0"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(16);not null;default:'pending'"`

	OTPVerified bool `gorm:"not null;default:false"`

	// Conversational session that produced this booking, if any.
	SessionID *uuid.UUID `gorm:"type:uuid;index"`

	CompletedAt *time.Time
	CancelledAt *time.Time

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Farmer  *Farmer  `gorm:"foreignKey:FarmerID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Machine *Machine `gorm:"foreignKey:MachineID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (b *Booking) BeforeCreate(_ *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
