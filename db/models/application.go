package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ApplicationStatus defines the current state of a visa application.
type ApplicationStatus string

const (
	PendingApplication     ApplicationStatus = "PENDING"
	UnderReviewApplication ApplicationStatus = "UNDER_REVIEW"
	ApprovedApplication    ApplicationStatus = "APPROVED"
	RejectedApplication    ApplicationStatus = "REJECTED"
)

// IsTerminal reports whether the application has reached a decision.
// Terminal applications freeze document, request and interview mutation.
func (s ApplicationStatus) IsTerminal() bool {
	return s == ApprovedApplication || s == RejectedApplication
}

type PaymentStatus string

const (
	PendingPayment  PaymentStatus = "PENDING"
	PaidPayment     PaymentStatus = "PAID"
	RefundedPayment PaymentStatus = "REFUNDED"
)

// VisaType model for the visa categories the consulate issues
type VisaType struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key;" json:"id"`
	Name         string          `gorm:"unique;not null" json:"name"`
	Code         string          `gorm:"unique;not null" json:"code"`
	Description  string          `gorm:"type:text" json:"description"`
	Fee          decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"fee"`
	ValidityDays int             `gorm:"not null" json:"validity_days"`
	IsActive     bool            `gorm:"default:true" json:"is_active"`

	// Audit fields
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	CreatedBy string         `gorm:"not null" json:"created_by"`
}

// PersonalInfo holds the applicant's identity details as captured on the form
type PersonalInfo struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key;" json:"id"`
	FirstName      string     `gorm:"not null" json:"first_name"`
	LastName       string     `gorm:"not null" json:"last_name"`
	DateOfBirth    time.Time  `gorm:"not null" json:"date_of_birth"`
	Gender         *string    `gorm:"type:varchar(20)" json:"gender"`
	Nationality    string     `gorm:"not null" json:"nationality"`
	PassportNumber string     `gorm:"not null;index" json:"passport_number"`
	PassportExpiry *time.Time `json:"passport_expiry"`
	Phone          *string    `json:"phone"`
	Address        *string    `gorm:"type:text" json:"address"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TravelInfo holds trip details; Itinerary is stored as a free-form JSON
// document since its shape varies per visa type.
type TravelInfo struct {
	ID                uuid.UUID      `gorm:"type:uuid;primary_key;" json:"id"`
	PurposeOfVisit    string         `gorm:"not null" json:"purpose_of_visit"`
	IntendedArrival   time.Time      `gorm:"not null" json:"intended_arrival"`
	IntendedDeparture *time.Time     `json:"intended_departure"`
	HostName          *string        `json:"host_name"`
	HostAddress       *string        `gorm:"type:text" json:"host_address"`
	Itinerary         datatypes.JSON `json:"itinerary,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Payment tracks the application fee captured by the external payment
// collaborator; this layer only records the outcome.
type Payment struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key;" json:"id"`
	Amount    decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Currency  string          `gorm:"type:varchar(3);default:'USD'" json:"currency"`
	Status    PaymentStatus   `gorm:"type:varchar(20);default:'PENDING'" json:"status"`
	Reference *string         `gorm:"index" json:"reference"`
	PaidAt    *time.Time      `json:"paid_at"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Application is the case aggregate root: one visa application and all of
// its attached workflow state.
type Application struct {
	ID                uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	ApplicationNumber string    `gorm:"unique;not null;index" json:"application_number"`

	// Status and dates
	Status          ApplicationStatus `gorm:"type:varchar(20);default:'PENDING';index" json:"status"`
	SubmissionDate  time.Time         `gorm:"not null" json:"submission_date"`
	DecisionDate    *time.Time        `json:"decision_date"`
	RejectionReason *string           `gorm:"type:text" json:"rejection_reason"`

	// Ownership and assignment
	ApplicantID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"applicant_id"`
	AssignedOfficerID *uuid.UUID `gorm:"type:uuid;index" json:"assigned_officer_id"`

	// Form sections
	VisaTypeID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"visa_type_id"`
	PersonalInfoID *uuid.UUID `gorm:"type:uuid" json:"personal_info_id"`
	TravelInfoID   *uuid.UUID `gorm:"type:uuid" json:"travel_info_id"`
	PaymentID      *uuid.UUID `gorm:"type:uuid" json:"payment_id"`

	// Relationships
	Applicant        User              `gorm:"foreignKey:ApplicantID" json:"applicant"`
	AssignedOfficer  *User             `gorm:"foreignKey:AssignedOfficerID" json:"assigned_officer,omitempty"`
	VisaType         VisaType          `gorm:"foreignKey:VisaTypeID" json:"visa_type"`
	PersonalInfo     *PersonalInfo     `gorm:"foreignKey:PersonalInfoID" json:"personal_info,omitempty"`
	TravelInfo       *TravelInfo       `gorm:"foreignKey:TravelInfoID" json:"travel_info,omitempty"`
	Payment          *Payment          `gorm:"foreignKey:PaymentID" json:"payment,omitempty"`
	Documents        []Document        `gorm:"foreignKey:ApplicationID" json:"documents,omitempty"`
	DocumentRequests []DocumentRequest `gorm:"foreignKey:ApplicationID" json:"document_requests,omitempty"`
	Interviews       []Interview       `gorm:"foreignKey:ApplicationID" json:"interviews,omitempty"`
	Notes            []Note            `gorm:"foreignKey:ApplicationID" json:"notes,omitempty"`
	Messages         []Message         `gorm:"foreignKey:ApplicationID" json:"messages,omitempty"`

	// Audit fields
	CreatedBy string         `gorm:"not null" json:"created_by"`
	UpdatedBy *string        `json:"updated_by"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Note is an internal officer annotation on a case. Append-only and never
// exposed to the applicant.
type Note struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	ApplicationID uuid.UUID `gorm:"type:uuid;not null;index" json:"application_id"`
	AuthorID      uuid.UUID `gorm:"type:uuid;not null;index" json:"author_id"`
	Content       string    `gorm:"type:text;not null" json:"content"`

	// Relationships
	Application Application `gorm:"foreignKey:ApplicationID" json:"-"`
	Author      User        `gorm:"foreignKey:AuthorID" json:"author"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Application
func (a *Application) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}

// VisaType
func (vt *VisaType) BeforeCreate(tx *gorm.DB) (err error) {
	if vt.ID == uuid.Nil {
		vt.ID = uuid.New()
	}
	return
}

// PersonalInfo
func (pi *PersonalInfo) BeforeCreate(tx *gorm.DB) (err error) {
	if pi.ID == uuid.Nil {
		pi.ID = uuid.New()
	}
	return
}

// TravelInfo
func (ti *TravelInfo) BeforeCreate(tx *gorm.DB) (err error) {
	if ti.ID == uuid.Nil {
		ti.ID = uuid.New()
	}
	return
}

// Payment
func (p *Payment) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

// Note
func (n *Note) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return
}
