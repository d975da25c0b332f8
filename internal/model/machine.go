package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MachineStatus string

const (
	MachineStatusAvailable   MachineStatus = "available"
	MachineStatusUnavailable MachineStatus = "unavailable"
)

// machines — the shared fleet (tractors, seeders, harvesters). Read-only to
// the booking engine; availability is derived from booking conflicts.
type Machine struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	Name string `gorm:"type:varchar(255);not null"`
	Type string `gorm:"type:varchar(64);not null"`

	District string        `gorm:"type:varchar(128);not null;index"`
	Status   MachineStatus `gorm:"type:varchar(32);not null;default:'available';index"`

	RatePerAcre float64 `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (m *Machine) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
