package repositories

import (
	"errors"
	"fmt"
	"time"

	"visa-portal-backend/db/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrApplicationNotFound = errors.New("application not found")

type ApplicationRepository interface {
	CreateApplication(tx *gorm.DB, application *models.Application) (*models.Application, error)
	GetApplicationByID(id string) (*models.Application, error)
	GetFilteredApplications(pageSize, offset int, filters map[string]string) ([]models.Application, int64, error)
	UpdateApplicationStatus(id uuid.UUID, status models.ApplicationStatus, rejectionReason *string, updatedBy string) (*models.Application, error)
	NextApplicationSequence(tx *gorm.DB) (int64, error)

	// Notes
	CreateNote(note *models.Note) (*models.Note, error)
	GetApplicationNotes(applicationID uuid.UUID) ([]models.Note, error)
}

type applicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) CreateApplication(tx *gorm.DB, application *models.Application) (*models.Application, error) {
	if err := tx.Create(application).Error; err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}
	return application, nil
}

// GetApplicationByID loads the full case aggregate: every sub-collection the
// case view needs in one fetch.
func (r *applicationRepository) GetApplicationByID(id string) (*models.Application, error) {
	var application models.Application
	err := r.db.
		Preload("Applicant").
		Preload("AssignedOfficer").
		Preload("VisaType").
		Preload("PersonalInfo").
		Preload("TravelInfo").
		Preload("Payment").
		Preload("Documents").
		Preload("Documents.VerifiedBy").
		Preload("DocumentRequests").
		Preload("DocumentRequests.Document").
		Preload("Interviews").
		Preload("Messages").
		Preload("Messages.Sender").
		Preload("Notes").
		Preload("Notes.Author").
		Where("id = ?", id).
		First(&application).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("failed to fetch application: %w", err)
	}
	return &application, nil
}

func (r *applicationRepository) GetFilteredApplications(pageSize, offset int, filters map[string]string) ([]models.Application, int64, error) {
	var applications []models.Application
	var total int64

	query := r.db.Model(&models.Application{}).
		Preload("Applicant").
		Preload("VisaType").
		Preload("AssignedOfficer")

	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if officerID := filters["assigned_officer_id"]; officerID != "" {
		query = query.Where("assigned_officer_id = ?", officerID)
	}
	if applicantID := filters["applicant_id"]; applicantID != "" {
		query = query.Where("applicant_id = ?", applicantID)
	}
	if number := filters["application_number"]; number != "" {
		query = query.Where("application_number ILIKE ?", "%"+number+"%")
	}
	if visaTypeID := filters["visa_type_id"]; visaTypeID != "" {
		query = query.Where("visa_type_id = ?", visaTypeID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count applications: %w", err)
	}

	err := query.
		Order("submission_date DESC").
		Limit(pageSize).
		Offset(offset).
		Find(&applications).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch applications: %w", err)
	}

	return applications, total, nil
}

// UpdateApplicationStatus persists a status transition and returns the
// updated row. Decision timestamps are stamped when the new status is
// terminal.
func (r *applicationRepository) UpdateApplicationStatus(id uuid.UUID, status models.ApplicationStatus, rejectionReason *string, updatedBy string) (*models.Application, error) {
	updates := map[string]interface{}{
		"status":     status,
		"updated_by": updatedBy,
	}
	if status.IsTerminal() {
		updates["decision_date"] = time.Now()
	}
	if status == models.RejectedApplication && rejectionReason != nil {
		updates["rejection_reason"] = *rejectionReason
	}

	result := r.db.Model(&models.Application{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update application status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrApplicationNotFound
	}

	var application models.Application
	if err := r.db.Preload("Applicant").Preload("VisaType").First(&application, "id = ?", id).Error; err != nil {
		// The update landed but the reload failed; let the caller force a
		// full aggregate refresh instead of trusting partial state.
		return nil, nil
	}
	return &application, nil
}

// NextApplicationSequence reserves the next application number within the
// enclosing transaction. The database sequence hands out each value exactly
// once, so concurrent intake cannot collide on a number.
func (r *applicationRepository) NextApplicationSequence(tx *gorm.DB) (int64, error) {
	var sequence int64
	if err := tx.Raw("SELECT nextval('application_number_seq')").Scan(&sequence).Error; err != nil {
		return 0, fmt.Errorf("failed to reserve application sequence: %w", err)
	}
	return sequence, nil
}

func (r *applicationRepository) CreateNote(note *models.Note) (*models.Note, error) {
	if err := r.db.Create(note).Error; err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}
	if err := r.db.Preload("Author").First(note, "id = ?", note.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload note: %w", err)
	}
	return note, nil
}

func (r *applicationRepository) GetApplicationNotes(applicationID uuid.UUID) ([]models.Note, error) {
	var notes []models.Note
	err := r.db.
		Preload("Author").
		Where("application_id = ?", applicationID).
		Order("created_at ASC").
		Find(&notes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notes: %w", err)
	}
	return notes, nil
}
