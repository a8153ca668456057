package services

import (
	"fmt"
	"strings"
	"time"

	"visa-portal-backend/config"
	"visa-portal-backend/db/models"
	"visa-portal-backend/workflow"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	opReschedule        = "reschedule-interview"
	opCancelInterview   = "cancel-interview"
	opCompleteInterview = "complete-interview"
	opConfirm           = "confirm-interview"
)

// interviewOps is the full exclusion group: only one mutating interview
// operation may be dispatched per interview at a time.
var interviewOps = []string{opReschedule, opCancelInterview, opCompleteInterview, opConfirm}

var interviewTable = workflow.NewTable("interview").
	Allow(workflow.State(models.ScheduledInterview), "reschedule", workflow.State(models.RescheduledInterview)).
	Allow(workflow.State(models.ScheduledInterview), "cancel", workflow.State(models.CancelledInterview)).
	Allow(workflow.State(models.ScheduledInterview), "complete", workflow.State(models.CompletedInterview)).
	Allow(workflow.State(models.RescheduledInterview), "reschedule", workflow.State(models.RescheduledInterview)).
	Allow(workflow.State(models.RescheduledInterview), "cancel", workflow.State(models.CancelledInterview)).
	Allow(workflow.State(models.RescheduledInterview), "complete", workflow.State(models.CompletedInterview))

// SchedulerStore is the slice of the interview repository the scheduling
// workflow dispatches to.
type SchedulerStore interface {
	GetInterviewByID(id uuid.UUID) (*models.Interview, error)
	CreateInterview(interview *models.Interview) (*models.Interview, error)
	RescheduleInterview(id uuid.UUID, newDate time.Time) (*models.Interview, error)
	MarkInterviewCancelled(id uuid.UUID) (*models.Interview, error)
	MarkInterviewCompleted(id uuid.UUID, outcome *string) (*models.Interview, error)
	ConfirmInterview(id uuid.UUID, confirmedAt time.Time) (*models.Interview, error)
}

// SchedulerService runs the interview lifecycle: officers schedule,
// reschedule, cancel and complete; the applicant confirms attendance.
// Confirmation is an orthogonal flag, settable only while the interview is
// non-terminal and never unset again except by a reschedule.
type SchedulerService struct {
	store SchedulerStore
	guard *workflow.InFlightGuard
}

func NewSchedulerService(store SchedulerStore, guard *workflow.InFlightGuard) *SchedulerService {
	return &SchedulerService{store: store, guard: guard}
}

// Schedule creates a new SCHEDULED interview for an application.
func (s *SchedulerService) Schedule(applicationID uuid.UUID, scheduledDate time.Time, location string, officer *models.User) (*models.Interview, error) {
	location = strings.TrimSpace(location)
	if location == "" || scheduledDate.IsZero() {
		return nil, workflow.ErrIncompleteSchedule
	}

	interview := &models.Interview{
		ApplicationID:     applicationID,
		ScheduledDate:     scheduledDate,
		Location:          location,
		Status:            models.ScheduledInterview,
		AssignedOfficerID: officer.ID,
		CreatedBy:         officer.Email,
	}

	created, err := s.store.CreateInterview(interview)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule interview: %w", err)
	}
	if created == nil {
		created = interview
	}

	config.Logger.Info("Interview scheduled",
		zap.String("applicationID", applicationID.String()),
		zap.Time("scheduledDate", scheduledDate),
		zap.String("officerID", officer.ID.String()))

	return created, nil
}

// Reschedule moves a non-terminal interview to a new date. Both the date
// and the time-of-day must be supplied; a date alone is rejected before
// anything is dispatched, leaving the original schedule untouched.
// Rescheduling drops any prior applicant confirmation, since a changed
// date invalidates it.
func (s *SchedulerService) Reschedule(interviewID uuid.UUID, newDate, newTime string) (workflow.Outcome, error) {
	scheduledDate, err := combineDateTime(newDate, newTime)
	if err != nil {
		return workflow.Outcome{}, err
	}

	if err := s.guard.Begin(interviewID, opReschedule, interviewOps...); err != nil {
		return workflow.Outcome{}, err
	}
	defer s.guard.End(interviewID, opReschedule)

	interview, err := s.store.GetInterviewByID(interviewID)
	if err != nil {
		return workflow.Outcome{}, fmt.Errorf("reschedule failed: %w", err)
	}

	if _, err := interviewTable.Apply(workflow.State(interview.Status), "reschedule"); err != nil {
		return workflow.Outcome{}, err
	}

	updated, err := s.store.RescheduleInterview(interviewID, scheduledDate)
	if err != nil {
		return workflow.Outcome{}, fmt.Errorf("reschedule failed: %w", err)
	}

	if updated == nil {
		return workflow.RequiresRefetch(), nil
	}

	config.Logger.Info("Interview rescheduled",
		zap.String("interviewID", interviewID.String()),
		zap.Time("scheduledDate", scheduledDate))

	return workflow.Patch(updated), nil
}

// Cancel closes a non-terminal interview. Irreversible.
func (s *SchedulerService) Cancel(interviewID uuid.UUID) (workflow.Outcome, error) {
	if err := s.guard.Begin(interviewID, opCancelInterview, interviewOps...); err != nil {
		return workflow.Outcome{}, err
	}
	defer s.guard.End(interviewID, opCancelInterview)

	interview, err := s.store.GetInterviewByID(interviewID)
	if err != nil {
		return workflow.Outcome{}, fmt.Errorf("cancel failed: %w", err)
	}

	if _, err := interviewTable.Apply(workflow.State(interview.Status), "cancel"); err != nil {
		return workflow.Outcome{}, err
	}

	updated, err := s.store.MarkInterviewCancelled(interviewID)
	if err != nil {
		return workflow.Outcome{}, fmt.Errorf("cancel failed: %w", err)
	}

	if updated == nil {
		return workflow.RequiresRefetch(), nil
	}

	config.Logger.Info("Interview cancelled",
		zap.String("interviewID", interviewID.String()))

	return workflow.Patch(updated), nil
}

// Complete closes a non-terminal interview as held, optionally recording
// the officer's outcome.
func (s *SchedulerService) Complete(interviewID uuid.UUID, outcome *string) (workflow.Outcome, error) {
	if err := s.guard.Begin(interviewID, opCompleteInterview, interviewOps...); err != nil {
		return workflow.Outcome{}, err
	}
	defer s.guard.End(interviewID, opCompleteInterview)

	interview, err := s.store.GetInterviewByID(interviewID)
	if err != nil {
		return workflow.Outcome{}, fmt.Errorf("complete failed: %w", err)
	}

	if _, err := interviewTable.Apply(workflow.State(interview.Status), "complete"); err != nil {
		return workflow.Outcome{}, err
	}

	updated, err := s.store.MarkInterviewCompleted(interviewID, outcome)
	if err != nil {
		return workflow.Outcome{}, fmt.Errorf("complete failed: %w", err)
	}

	if updated == nil {
		return workflow.RequiresRefetch(), nil
	}

	config.Logger.Info("Interview completed",
		zap.String("interviewID", interviewID.String()))

	return workflow.Patch(updated), nil
}

// Confirm records the applicant's attendance confirmation. A repeat call
// is reported as ErrAlreadyConfirmed without touching the original
// confirmedAt stamp.
func (s *SchedulerService) Confirm(interviewID uuid.UUID, applicant *models.User) (workflow.Outcome, error) {
	if err := s.guard.Begin(interviewID, opConfirm, interviewOps...); err != nil {
		return workflow.Outcome{}, err
	}
	defer s.guard.End(interviewID, opConfirm)

	interview, err := s.store.GetInterviewByID(interviewID)
	if err != nil {
		return workflow.Outcome{}, fmt.Errorf("confirm failed: %w", err)
	}

	if interview.Status.IsTerminal() {
		return workflow.Outcome{}, &workflow.TransitionError{
			Entity: "interview",
			From:   string(interview.Status),
			Action: "confirm",
		}
	}

	if interview.Confirmed {
		return workflow.Outcome{}, workflow.ErrAlreadyConfirmed
	}

	updated, err := s.store.ConfirmInterview(interviewID, time.Now())
	if err != nil {
		return workflow.Outcome{}, fmt.Errorf("confirm failed: %w", err)
	}

	if updated == nil {
		return workflow.RequiresRefetch(), nil
	}

	config.Logger.Info("Interview confirmed by applicant",
		zap.String("interviewID", interviewID.String()),
		zap.String("applicantID", applicant.ID.String()))

	return workflow.Patch(updated), nil
}

// schedulerActions in the order the officer's action menu renders them.
var schedulerActions = []workflow.Action{"reschedule", "cancel", "complete"}

// AvailableActions lists the scheduler actions currently legal for the
// interview, so clients render only the buttons that will succeed.
func (s *SchedulerService) AvailableActions(interview *models.Interview) []string {
	actions := make([]string, 0, len(schedulerActions))
	for _, action := range schedulerActions {
		if interviewTable.Can(workflow.State(interview.Status), action) {
			actions = append(actions, string(action))
		}
	}
	return actions
}

// combineDateTime merges the "2006-01-02" and "15:04" form fields into one
// timestamp. Blank or malformed halves reject the whole reschedule.
func combineDateTime(newDate, newTime string) (time.Time, error) {
	newDate = strings.TrimSpace(newDate)
	newTime = strings.TrimSpace(newTime)
	if newDate == "" || newTime == "" {
		return time.Time{}, workflow.ErrIncompleteSchedule
	}

	combined, err := time.ParseInLocation("2006-01-02 15:04", newDate+" "+newTime, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", workflow.ErrIncompleteSchedule, err)
	}
	return combined, nil
}
