package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// farmer_profiles — the farmer registry. Read-only for the booking engine;
// rows are created and maintained by the registration flows.
type Farmer struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	FullName       string `gorm:"type:varchar(255);not null"`
	Phone          string `gorm:"type:varchar(32);not null;uniqueIndex"`
	AlternatePhone string `gorm:"type:varchar(32);index"`

	District string `gorm:"type:varchar(128);not null;index"`

	Verified bool `gorm:"not null;default:false"`

	// BCP-47-ish tag used to pick reply wording, e.g. "en", "hi", "pa", "bn".
	Language string `gorm:"type:varchar(8);not null;default:'en'"`

	// Fallback acreage for receipts when the booking has none recorded.
	LandAcres float64 `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (f *Farmer) BeforeCreate(_ *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
