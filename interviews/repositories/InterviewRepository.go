package repositories

import (
	"errors"
	"fmt"
	"time"

	"visa-portal-backend/db/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrInterviewNotFound = errors.New("interview not found")

type InterviewRepository interface {
	GetInterviewByID(id uuid.UUID) (*models.Interview, error)
	GetInterviewsByApplicationID(applicationID uuid.UUID) ([]models.Interview, error)
	CreateInterview(interview *models.Interview) (*models.Interview, error)
	RescheduleInterview(id uuid.UUID, newDate time.Time) (*models.Interview, error)
	MarkInterviewCancelled(id uuid.UUID) (*models.Interview, error)
	MarkInterviewCompleted(id uuid.UUID, outcome *string) (*models.Interview, error)
	ConfirmInterview(id uuid.UUID, confirmedAt time.Time) (*models.Interview, error)

	// Used by the interview reminder task
	ListUpcomingInterviews(within time.Duration) ([]models.Interview, error)
}

type interviewRepository struct {
	db *gorm.DB
}

func NewInterviewRepository(db *gorm.DB) InterviewRepository {
	return &interviewRepository{db: db}
}

func (r *interviewRepository) GetInterviewByID(id uuid.UUID) (*models.Interview, error) {
	var interview models.Interview
	err := r.db.Preload("AssignedOfficer").First(&interview, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInterviewNotFound
		}
		return nil, fmt.Errorf("failed to fetch interview: %w", err)
	}
	return &interview, nil
}

func (r *interviewRepository) GetInterviewsByApplicationID(applicationID uuid.UUID) ([]models.Interview, error) {
	var interviews []models.Interview
	err := r.db.
		Preload("AssignedOfficer").
		Where("application_id = ?", applicationID).
		Order("scheduled_date ASC").
		Find(&interviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch interviews: %w", err)
	}
	return interviews, nil
}

func (r *interviewRepository) CreateInterview(interview *models.Interview) (*models.Interview, error) {
	if err := r.db.Create(interview).Error; err != nil {
		return nil, fmt.Errorf("failed to create interview: %w", err)
	}
	if err := r.db.Preload("AssignedOfficer").First(interview, "id = ?", interview.ID).Error; err != nil {
		return nil, nil
	}
	return interview, nil
}

// RescheduleInterview moves the date and drops any prior confirmation: a
// changed date invalidates an old confirmation. Guarded so a terminal
// interview row is never rescheduled by a racing actor.
func (r *interviewRepository) RescheduleInterview(id uuid.UUID, newDate time.Time) (*models.Interview, error) {
	result := r.db.Model(&models.Interview{}).
		Where("id = ? AND status IN ?", id, []models.InterviewStatus{models.ScheduledInterview, models.RescheduledInterview}).
		Updates(map[string]interface{}{
			"scheduled_date": newDate,
			"status":         models.RescheduledInterview,
			"confirmed":      false,
			"confirmed_at":   nil,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to reschedule interview: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrInterviewNotFound
	}

	return r.reload(id)
}

func (r *interviewRepository) MarkInterviewCancelled(id uuid.UUID) (*models.Interview, error) {
	result := r.db.Model(&models.Interview{}).
		Where("id = ? AND status IN ?", id, []models.InterviewStatus{models.ScheduledInterview, models.RescheduledInterview}).
		Update("status", models.CancelledInterview)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to cancel interview: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrInterviewNotFound
	}

	return r.reload(id)
}

func (r *interviewRepository) MarkInterviewCompleted(id uuid.UUID, outcome *string) (*models.Interview, error) {
	updates := map[string]interface{}{"status": models.CompletedInterview}
	if outcome != nil {
		updates["outcome"] = *outcome
	}

	result := r.db.Model(&models.Interview{}).
		Where("id = ? AND status IN ?", id, []models.InterviewStatus{models.ScheduledInterview, models.RescheduledInterview}).
		Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to complete interview: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrInterviewNotFound
	}

	return r.reload(id)
}

// ConfirmInterview stamps the applicant confirmation once. The confirmed
// guard in the WHERE clause keeps a repeat call from moving confirmed_at.
func (r *interviewRepository) ConfirmInterview(id uuid.UUID, confirmedAt time.Time) (*models.Interview, error) {
	result := r.db.Model(&models.Interview{}).
		Where("id = ? AND confirmed = ? AND status IN ?", id, false,
			[]models.InterviewStatus{models.ScheduledInterview, models.RescheduledInterview}).
		Updates(map[string]interface{}{
			"confirmed":    true,
			"confirmed_at": confirmedAt,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to confirm interview: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrInterviewNotFound
	}

	return r.reload(id)
}

func (r *interviewRepository) ListUpcomingInterviews(within time.Duration) ([]models.Interview, error) {
	now := time.Now()
	var interviews []models.Interview
	err := r.db.
		Preload("AssignedOfficer").
		Preload("Application.Applicant").
		Where("status IN ? AND scheduled_date BETWEEN ? AND ?",
			[]models.InterviewStatus{models.ScheduledInterview, models.RescheduledInterview},
			now, now.Add(within)).
		Order("scheduled_date ASC").
		Find(&interviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming interviews: %w", err)
	}
	return interviews, nil
}

func (r *interviewRepository) reload(id uuid.UUID) (*models.Interview, error) {
	var interview models.Interview
	if err := r.db.Preload("AssignedOfficer").First(&interview, "id = ?", id).Error; err != nil {
		// Update landed, echo failed; caller falls back to a full refresh.
		return nil, nil
	}
	return &interview, nil
}
