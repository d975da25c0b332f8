package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageDirection string

const (
	MessageDirectionInbound  MessageDirection = "inbound"
	MessageDirectionOutbound MessageDirection = "outbound"
)

// message_logs — append-only audit trail of every inbound/outbound message.
// Observability only; the engine never reads it back.
type MessageLog struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	Direction   MessageDirection `gorm:"type:varchar(16);not null"`
	PhoneNumber string           `gorm:"type:varchar(32);not null;index"`
	Body        string           `gorm:"type:text"`

	// Command tag the parser assigned, inbound only.
	ParsedCommand string `gorm:"type:varchar(16)"`

	// Vendor message id (Twilio SID, Meta message id).
	TransportMessageID string `gorm:"type:varchar(128)"`

	SessionID *uuid.UUID `gorm:"type:uuid;index"`

	CreatedAt time.Time `gorm:"not null;index"`
}

func (m *MessageLog) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
