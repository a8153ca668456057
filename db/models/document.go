package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DocumentType is the closed set of document kinds the portal accepts.
type DocumentType string

const (
	PassportCopyDocument     DocumentType = "PASSPORT_COPY"
	PhotosDocument           DocumentType = "PHOTOS"
	YellowFeverCertDocument  DocumentType = "YELLOW_FEVER_CERTIFICATE"
	TravelInsuranceDocument  DocumentType = "TRAVEL_INSURANCE"
	BankStatementDocument    DocumentType = "BANK_STATEMENT"
	EmploymentLetterDocument DocumentType = "EMPLOYMENT_LETTER"
	InvitationLetterDocument DocumentType = "INVITATION_LETTER"
	OtherDocument            DocumentType = "OTHER"
)

// KnownDocumentTypes lists every accepted document type for validation.
var KnownDocumentTypes = []DocumentType{
	PassportCopyDocument,
	PhotosDocument,
	YellowFeverCertDocument,
	TravelInsuranceDocument,
	BankStatementDocument,
	EmploymentLetterDocument,
	InvitationLetterDocument,
	OtherDocument,
}

// VerificationStatus defines the per-document verification state.
// VERIFIED and REJECTED are terminal; a resubmission creates a new
// Document rather than reopening an old one.
type VerificationStatus string

const (
	PendingVerification  VerificationStatus = "PENDING"
	VerifiedVerification VerificationStatus = "VERIFIED"
	RejectedVerification VerificationStatus = "REJECTED"
)

func (s VerificationStatus) IsTerminal() bool {
	return s == VerifiedVerification || s == RejectedVerification
}

// RequestStatus defines the lifecycle of an officer-initiated request for
// an extra document. SUBMITTED and CANCELLED are final.
type RequestStatus string

const (
	SentRequest      RequestStatus = "SENT"
	SubmittedRequest RequestStatus = "SUBMITTED"
	CancelledRequest RequestStatus = "CANCELLED"
)

func (s RequestStatus) IsTerminal() bool {
	return s == SubmittedRequest || s == CancelledRequest
}

// Document represents an uploaded file attached to an application. The
// binary lives with the external storage collaborator; this table only
// stores the reference path. Documents are never deleted, only superseded
// by a resubmission through a DocumentRequest.
type Document struct {
	ID            uuid.UUID    `gorm:"type:uuid;primary_key;" json:"id"`
	ApplicationID uuid.UUID    `gorm:"type:uuid;not null;index" json:"application_id"`
	DocumentType  DocumentType `gorm:"type:varchar(40);not null" json:"document_type"`

	FileName   string    `gorm:"not null" json:"file_name"`
	FileSize   int64     `gorm:"not null" json:"file_size"`
	FilePath   string    `gorm:"not null" json:"file_path"`
	FileHash   *string   `gorm:"index" json:"file_hash"`
	UploadDate time.Time `gorm:"not null" json:"upload_date"`

	// Verification state, mutated only by officer verify/reject actions
	VerificationStatus VerificationStatus `gorm:"type:varchar(20);default:'PENDING';index" json:"verification_status"`
	VerifiedByID       *uuid.UUID         `gorm:"type:uuid" json:"verified_by_id"`
	VerifiedAt         *time.Time         `json:"verified_at"`
	RejectionReason    *string            `gorm:"type:text" json:"rejection_reason"`

	// Set when the document was uploaded to fulfil a DocumentRequest
	RequestID *uuid.UUID `gorm:"type:uuid;index" json:"request_id"`

	// Relationships
	Application Application      `gorm:"foreignKey:ApplicationID" json:"-"`
	VerifiedBy  *User            `gorm:"foreignKey:VerifiedByID" json:"verified_by,omitempty"`
	Request     *DocumentRequest `gorm:"foreignKey:RequestID" json:"request,omitempty"`

	// Audit fields
	CreatedBy string         `gorm:"not null" json:"created_by"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// DocumentRequest tracks an officer asking the applicant for an additional
// document and the applicant fulfilling it.
type DocumentRequest struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	ApplicationID uuid.UUID `gorm:"type:uuid;not null;index" json:"application_id"`

	DocumentName      string        `gorm:"not null" json:"document_name"`
	AdditionalDetails *string       `gorm:"type:text" json:"additional_details"`
	Status            RequestStatus `gorm:"type:varchar(20);default:'SENT';index" json:"status"`

	RequestedByID uuid.UUID  `gorm:"type:uuid;not null" json:"requested_by_id"`
	DocumentID    *uuid.UUID `gorm:"type:uuid" json:"document_id"`
	ResolvedAt    *time.Time `json:"resolved_at"`

	// Relationships
	Application Application `gorm:"foreignKey:ApplicationID" json:"-"`
	RequestedBy User        `gorm:"foreignKey:RequestedByID" json:"requested_by"`
	Document    *Document   `gorm:"foreignKey:DocumentID" json:"document,omitempty"`

	// Audit fields
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.UploadDate.IsZero() {
		d.UploadDate = time.Now()
	}
	return nil
}

func (dr *DocumentRequest) BeforeCreate(tx *gorm.DB) error {
	if dr.ID == uuid.Nil {
		dr.ID = uuid.New()
	}
	return nil
}
