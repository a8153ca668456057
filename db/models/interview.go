package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InterviewStatus defines the interview lifecycle. SCHEDULED and
// RESCHEDULED flip back and forth; COMPLETED and CANCELLED are terminal.
type InterviewStatus string

const (
	ScheduledInterview   InterviewStatus = "SCHEDULED"
	RescheduledInterview InterviewStatus = "RESCHEDULED"
	CompletedInterview   InterviewStatus = "COMPLETED"
	CancelledInterview   InterviewStatus = "CANCELLED"
)

func (s InterviewStatus) IsTerminal() bool {
	return s == CompletedInterview || s == CancelledInterview
}

// Interview represents a scheduled consulate interview. Confirmed is an
// orthogonal applicant-set flag: settable only while the interview is
// non-terminal, and never unset again except by a reschedule.
type Interview struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	ApplicationID uuid.UUID `gorm:"type:uuid;not null;index" json:"application_id"`

	ScheduledDate time.Time       `gorm:"not null" json:"scheduled_date"`
	Location      string          `gorm:"not null" json:"location"`
	Status        InterviewStatus `gorm:"type:varchar(20);default:'SCHEDULED';index" json:"status"`

	AssignedOfficerID uuid.UUID `gorm:"type:uuid;not null" json:"assigned_officer_id"`

	// Applicant confirmation
	Confirmed   bool       `gorm:"default:false" json:"confirmed"`
	ConfirmedAt *time.Time `json:"confirmed_at"`

	Notes   *string `gorm:"type:text" json:"notes"`
	Outcome *string `gorm:"type:text" json:"outcome"`

	// Relationships
	Application     Application `gorm:"foreignKey:ApplicationID" json:"-"`
	AssignedOfficer User        `gorm:"foreignKey:AssignedOfficerID" json:"assigned_officer"`

	// Audit fields
	CreatedBy string    `gorm:"not null" json:"created_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (i *Interview) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
