package repositories

import (
	"errors"
	"fmt"
	"time"

	"visa-portal-backend/db/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrRequestNotFound  = errors.New("document request not found")
)

type DocumentRepository interface {
	GetDocumentByID(id uuid.UUID) (*models.Document, error)
	GetDocumentsByApplicationID(applicationID uuid.UUID) ([]models.Document, error)
	SetVerification(id uuid.UUID, status models.VerificationStatus, verifiedBy uuid.UUID, rejectionReason *string) (*models.Document, error)

	// Document requests
	GetRequestByID(id uuid.UUID) (*models.DocumentRequest, error)
	GetRequestsByApplicationID(applicationID uuid.UUID) ([]models.DocumentRequest, error)
	CreateRequest(request *models.DocumentRequest) (*models.DocumentRequest, error)
	MarkRequestCancelled(id uuid.UUID) (*models.DocumentRequest, error)
	AttachSubmission(requestID uuid.UUID, document *models.Document) (*models.DocumentRequest, error)

	// Used by the orphaned-upload sweep
	ListReferencedFilePaths() ([]string, error)
}

type documentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) GetDocumentByID(id uuid.UUID) (*models.Document, error) {
	var document models.Document
	err := r.db.Preload("VerifiedBy").First(&document, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to fetch document: %w", err)
	}
	return &document, nil
}

func (r *documentRepository) GetDocumentsByApplicationID(applicationID uuid.UUID) ([]models.Document, error) {
	var documents []models.Document
	err := r.db.
		Preload("VerifiedBy").
		Where("application_id = ?", applicationID).
		Order("upload_date ASC").
		Find(&documents).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch documents: %w", err)
	}
	return documents, nil
}

// SetVerification persists a verification decision. A nil rejectionReason
// clears any previously stored reason, which is what a verify does after an
// earlier reject-and-resubmit round.
func (r *documentRepository) SetVerification(id uuid.UUID, status models.VerificationStatus, verifiedBy uuid.UUID, rejectionReason *string) (*models.Document, error) {
	updates := map[string]interface{}{
		"verification_status": status,
		"verified_by_id":      verifiedBy,
		"verified_at":         time.Now(),
		"rejection_reason":    rejectionReason,
	}

	result := r.db.Model(&models.Document{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update verification: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrDocumentNotFound
	}

	var document models.Document
	if err := r.db.Preload("VerifiedBy").First(&document, "id = ?", id).Error; err != nil {
		// Update landed, echo failed; caller falls back to a full refresh.
		return nil, nil
	}
	return &document, nil
}

func (r *documentRepository) GetRequestByID(id uuid.UUID) (*models.DocumentRequest, error) {
	var request models.DocumentRequest
	err := r.db.Preload("RequestedBy").Preload("Document").First(&request, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to fetch document request: %w", err)
	}
	return &request, nil
}

func (r *documentRepository) GetRequestsByApplicationID(applicationID uuid.UUID) ([]models.DocumentRequest, error) {
	var requests []models.DocumentRequest
	err := r.db.
		Preload("RequestedBy").
		Preload("Document").
		Where("application_id = ?", applicationID).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document requests: %w", err)
	}
	return requests, nil
}

func (r *documentRepository) CreateRequest(request *models.DocumentRequest) (*models.DocumentRequest, error) {
	if err := r.db.Create(request).Error; err != nil {
		return nil, fmt.Errorf("failed to create document request: %w", err)
	}
	if err := r.db.Preload("RequestedBy").First(request, "id = ?", request.ID).Error; err != nil {
		return nil, nil
	}
	return request, nil
}

func (r *documentRepository) MarkRequestCancelled(id uuid.UUID) (*models.DocumentRequest, error) {
	now := time.Now()
	result := r.db.Model(&models.DocumentRequest{}).
		Where("id = ? AND status = ?", id, models.SentRequest).
		Updates(map[string]interface{}{
			"status":      models.CancelledRequest,
			"resolved_at": now,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to cancel document request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Already terminal or missing; report as a not-found so the caller
		// surfaces the conflict instead of pretending it cancelled.
		return nil, ErrRequestNotFound
	}

	var request models.DocumentRequest
	if err := r.db.Preload("RequestedBy").First(&request, "id = ?", id).Error; err != nil {
		return nil, nil
	}
	return &request, nil
}

// AttachSubmission records a fulfilled request: the new document row and
// the SENT -> SUBMITTED flip commit together or not at all, so a failure
// here leaves the request open for a retry.
func (r *documentRepository) AttachSubmission(requestID uuid.UUID, document *models.Document) (*models.DocumentRequest, error) {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(document).Error; err != nil {
			return fmt.Errorf("failed to create document: %w", err)
		}

		now := time.Now()
		result := tx.Model(&models.DocumentRequest{}).
			Where("id = ? AND status = ?", requestID, models.SentRequest).
			Updates(map[string]interface{}{
				"status":      models.SubmittedRequest,
				"document_id": document.ID,
				"resolved_at": now,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to mark request submitted: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrRequestNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var request models.DocumentRequest
	if err := r.db.Preload("RequestedBy").Preload("Document").First(&request, "id = ?", requestID).Error; err != nil {
		return nil, nil
	}
	return &request, nil
}

// ListReferencedFilePaths returns every file path any document row points
// at, including soft-deleted rows. Anything in storage but not in this list
// is an orphan.
func (r *documentRepository) ListReferencedFilePaths() ([]string, error) {
	var paths []string
	err := r.db.Model(&models.Document{}).Unscoped().Pluck("file_path", &paths).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list referenced file paths: %w", err)
	}
	return paths, nil
}
