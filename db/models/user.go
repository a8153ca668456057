package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	ApplicantRole Role = "APPLICANT"
	OfficerRole   Role = "OFFICER"
	AdminRole     Role = "ADMIN"
)

// IsStaff reports whether the role belongs to the consulate side of the
// portal. Messages sent by staff render on the officer side of a thread.
func (r Role) IsStaff() bool {
	return r == OfficerRole || r == AdminRole
}

// User represents any actor on the portal: applicants, visa officers and
// administrators share one table and are told apart by Role.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	FirstName string    `gorm:"not null" json:"first_name"`
	LastName  string    `gorm:"not null" json:"last_name"`
	Email     string    `gorm:"unique;not null" json:"email"`
	Phone     *string   `gorm:"unique" json:"phone"`
	Password  string    `json:"-"` // Never include in JSON responses

	Role Role `gorm:"type:varchar(20);not null;index" json:"role"`

	// Status
	Active      bool       `gorm:"default:true" json:"active"`
	LastLoginAt *time.Time `json:"last_login_at"`

	// Audit fields
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}
