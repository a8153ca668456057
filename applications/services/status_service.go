package services

import (
	"fmt"
	"strings"

	"visa-portal-backend/config"
	"visa-portal-backend/db/models"
	"visa-portal-backend/workflow"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const opUpdateStatus = "update-status"

// StatusStore is the slice of the application repository the status
// controller dispatches to.
type StatusStore interface {
	UpdateApplicationStatus(id uuid.UUID, status models.ApplicationStatus, rejectionReason *string, updatedBy string) (*models.Application, error)
	CreateNote(note *models.Note) (*models.Note, error)
	GetApplicationNotes(applicationID uuid.UUID) ([]models.Note, error)
}

// StatusService is the top-level application status state machine. It owns
// the one rule this layer enforces locally (no same-state updates, no
// mutation once terminal) and defers transition policy beyond that to the
// store.
type StatusService struct {
	store StatusStore
	guard *workflow.InFlightGuard
}

func NewStatusService(store StatusStore, guard *workflow.InFlightGuard) *StatusService {
	return &StatusService{store: store, guard: guard}
}

// LegalStatusTargets enumerates the status values an officer may pick from.
func (s *StatusService) LegalStatusTargets() []models.ApplicationStatus {
	return []models.ApplicationStatus{
		models.PendingApplication,
		models.UnderReviewApplication,
		models.ApprovedApplication,
		models.RejectedApplication,
	}
}

// UpdateStatus dispatches a status change for the case. A same-state update
// is reported as ErrNoChanges without touching the store; a terminal case
// refuses any further dispatch. When the store does not echo the updated
// application the outcome degrades to a full aggregate refetch.
func (s *StatusService) UpdateStatus(current *models.Application, newStatus models.ApplicationStatus, rejectionReason *string, actor *models.User) (workflow.Outcome, error) {
	if !s.isLegalTarget(newStatus) {
		return workflow.Outcome{}, &workflow.TransitionError{
			Entity: "application",
			From:   string(current.Status),
			Action: "set status " + string(newStatus),
		}
	}

	if newStatus == current.Status {
		return workflow.Outcome{}, workflow.ErrNoChanges
	}

	if current.Status.IsTerminal() {
		return workflow.Outcome{}, &workflow.TransitionError{
			Entity: "application",
			From:   string(current.Status),
			Action: "set status " + string(newStatus),
		}
	}

	if newStatus == models.RejectedApplication && (rejectionReason == nil || strings.TrimSpace(*rejectionReason) == "") {
		return workflow.Outcome{}, workflow.ErrMissingReason
	}

	if err := s.guard.Begin(current.ID, opUpdateStatus); err != nil {
		return workflow.Outcome{}, err
	}
	defer s.guard.End(current.ID, opUpdateStatus)

	updated, err := s.store.UpdateApplicationStatus(current.ID, newStatus, rejectionReason, actor.Email)
	if err != nil {
		return workflow.Outcome{}, fmt.Errorf("status update failed: %w", err)
	}

	if updated == nil {
		// The store accepted the change but could not echo the updated row.
		config.Logger.Warn("Status update response ambiguous, forcing aggregate refresh",
			zap.String("applicationID", current.ID.String()),
			zap.String("newStatus", string(newStatus)))
		return workflow.RequiresRefetch(), nil
	}

	config.Logger.Info("Application status updated",
		zap.String("applicationID", current.ID.String()),
		zap.String("from", string(current.Status)),
		zap.String("to", string(newStatus)),
		zap.String("actor", actor.Email))

	return workflow.Patch(updated), nil
}

// AddNote appends an internal officer note to the case. Notes are
// append-only; blank content is rejected before any store call.
func (s *StatusService) AddNote(applicationID, authorID uuid.UUID, content string) (*models.Note, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, workflow.ErrEmptyNote
	}

	note := &models.Note{
		ApplicationID: applicationID,
		AuthorID:      authorID,
		Content:       content,
	}

	created, err := s.store.CreateNote(note)
	if err != nil {
		return nil, fmt.Errorf("failed to add note: %w", err)
	}
	return created, nil
}

// Notes returns the case's note list, oldest first.
func (s *StatusService) Notes(applicationID uuid.UUID) ([]models.Note, error) {
	return s.store.GetApplicationNotes(applicationID)
}

func (s *StatusService) isLegalTarget(status models.ApplicationStatus) bool {
	for _, legal := range s.LegalStatusTargets() {
		if status == legal {
			return true
		}
	}
	return false
}
