package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message is one entry in the officer-applicant thread attached to a case.
// Immutable once created except for the IsRead flip.
type Message struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	ApplicationID uuid.UUID `gorm:"type:uuid;not null;index" json:"application_id"`

	SenderID    uuid.UUID `gorm:"type:uuid;not null;index" json:"sender_id"`
	RecipientID uuid.UUID `gorm:"type:uuid;not null;index" json:"recipient_id"`

	Content string     `gorm:"type:text;not null" json:"content"`
	IsRead  bool       `gorm:"default:false;index" json:"is_read"`
	ReadAt  *time.Time `json:"read_at"`

	// Relationships
	Application Application `gorm:"foreignKey:ApplicationID" json:"-"`
	Sender      User        `gorm:"foreignKey:SenderID" json:"sender"`
	Recipient   User        `gorm:"foreignKey:RecipientID" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// IsOfficerOrigin reports whether the message came from the consulate side.
// Drives thread alignment only; it has no workflow effect.
func (m *Message) IsOfficerOrigin() bool {
	return m.Sender.Role.IsStaff()
}

// MarkRead flips IsRead to true. The flag never goes back to false.
func (m *Message) MarkRead() {
	if m.IsRead {
		return
	}
	now := time.Now()
	m.IsRead = true
	m.ReadAt = &now
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
