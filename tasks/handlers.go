package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	application_repositories "visa-portal-backend/applications/repositories"
	"visa-portal-backend/config"
	document_repositories "visa-portal-backend/documents/repositories"
	interview_repositories "visa-portal-backend/interviews/repositories"
	"visa-portal-backend/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// TaskHandler owns the background task implementations.
type TaskHandler struct {
	storage         utils.FileStorage
	documentRepo    document_repositories.DocumentRepository
	interviewRepo   interview_repositories.InterviewRepository
	applicationRepo application_repositories.ApplicationRepository
}

func NewTaskHandler(
	storage utils.FileStorage,
	documentRepo document_repositories.DocumentRepository,
	interviewRepo interview_repositories.InterviewRepository,
	applicationRepo application_repositories.ApplicationRepository,
) *TaskHandler {
	return &TaskHandler{
		storage:         storage,
		documentRepo:    documentRepo,
		interviewRepo:   interviewRepo,
		applicationRepo: applicationRepo,
	}
}

// orphanGracePeriod keeps the sweep away from uploads whose metadata
// commit may still be in flight: the blob lands in storage before
// AttachSubmission commits the row that references it.
const orphanGracePeriod = time.Hour

// HandleOrphanSweep reclaims uploaded blobs whose metadata commit never
// landed: anything in storage that no document row points at. A submission
// that fails between upload and metadata leaves exactly this kind of
// stranded file behind.
func (h *TaskHandler) HandleOrphanSweep(ctx context.Context, t *asynq.Task) error {
	stored, err := h.storage.ListFiles()
	if err != nil {
		return fmt.Errorf("orphan sweep: listing storage: %w", err)
	}

	referenced, err := h.documentRepo.ListReferencedFilePaths()
	if err != nil {
		return fmt.Errorf("orphan sweep: listing referenced paths: %w", err)
	}

	known := make(map[string]struct{}, len(referenced))
	for _, path := range referenced {
		known[path] = struct{}{}
	}

	cutoff := time.Now().Add(-orphanGracePeriod)

	var removed int
	for _, file := range stored {
		if _, ok := known[file.Path]; ok {
			continue
		}
		if file.ModTime.After(cutoff) {
			continue
		}
		if err := h.storage.DeleteFile(file.Path); err != nil {
			config.Logger.Error("Orphan sweep failed to delete file",
				zap.String("path", file.Path),
				zap.Error(err))
			continue
		}
		removed++
	}

	config.Logger.Info("Orphan sweep finished",
		zap.Int("stored", len(stored)),
		zap.Int("referenced", len(referenced)),
		zap.Int("removed", removed))
	return nil
}

// HandleInterviewReminder emails the applicant about an upcoming
// interview. Terminal or already-passed interviews are skipped quietly.
func (h *TaskHandler) HandleInterviewReminder(ctx context.Context, t *asynq.Task) error {
	var payload InterviewReminderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("interview reminder: bad payload: %w", err)
	}

	interview, err := h.interviewRepo.GetInterviewByID(payload.InterviewID)
	if err != nil {
		return fmt.Errorf("interview reminder: %w", err)
	}

	if interview.Status.IsTerminal() || interview.ScheduledDate.Before(time.Now()) {
		return nil
	}

	application, err := h.applicationRepo.GetApplicationByID(interview.ApplicationID.String())
	if err != nil {
		return fmt.Errorf("interview reminder: %w", err)
	}

	subject := "Reminder: visa interview for application " + application.ApplicationNumber
	body := fmt.Sprintf(
		"Your visa interview is scheduled for %s at %s. Please confirm your attendance in the portal.",
		interview.ScheduledDate.Format("Monday, 2 January 2006 15:04"),
		interview.Location,
	)
	if err := utils.SendEmail(application.Applicant.Email, subject, body); err != nil {
		return fmt.Errorf("interview reminder: sending email: %w", err)
	}

	config.Logger.Info("Interview reminder sent",
		zap.String("interviewID", interview.ID.String()),
		zap.String("applicationNumber", application.ApplicationNumber))
	return nil
}
