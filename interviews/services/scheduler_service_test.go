package services

import (
	"errors"
	"testing"
	"time"

	"visa-portal-backend/db/models"
	"visa-portal-backend/workflow"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSchedulerStore struct {
	interviews map[uuid.UUID]*models.Interview

	rescheduleCalls int
	confirmCalls    int
	echoNil         bool
}

func newFakeSchedulerStore() *fakeSchedulerStore {
	return &fakeSchedulerStore{interviews: make(map[uuid.UUID]*models.Interview)}
}

func (f *fakeSchedulerStore) GetInterviewByID(id uuid.UUID) (*models.Interview, error) {
	interview, ok := f.interviews[id]
	if !ok {
		return nil, errors.New("interview not found")
	}
	copied := *interview
	return &copied, nil
}

func (f *fakeSchedulerStore) CreateInterview(interview *models.Interview) (*models.Interview, error) {
	interview.ID = uuid.New()
	f.interviews[interview.ID] = interview
	return interview, nil
}

func (f *fakeSchedulerStore) RescheduleInterview(id uuid.UUID, newDate time.Time) (*models.Interview, error) {
	f.rescheduleCalls++
	interview := f.interviews[id]
	interview.ScheduledDate = newDate
	interview.Status = models.RescheduledInterview
	interview.Confirmed = false
	interview.ConfirmedAt = nil
	if f.echoNil {
		return nil, nil
	}
	copied := *interview
	return &copied, nil
}

func (f *fakeSchedulerStore) MarkInterviewCancelled(id uuid.UUID) (*models.Interview, error) {
	interview := f.interviews[id]
	interview.Status = models.CancelledInterview
	copied := *interview
	return &copied, nil
}

func (f *fakeSchedulerStore) MarkInterviewCompleted(id uuid.UUID, outcome *string) (*models.Interview, error) {
	interview := f.interviews[id]
	interview.Status = models.CompletedInterview
	interview.Outcome = outcome
	copied := *interview
	return &copied, nil
}

func (f *fakeSchedulerStore) ConfirmInterview(id uuid.UUID, confirmedAt time.Time) (*models.Interview, error) {
	f.confirmCalls++
	interview := f.interviews[id]
	interview.Confirmed = true
	interview.ConfirmedAt = &confirmedAt
	copied := *interview
	return &copied, nil
}

func officer() *models.User {
	return &models.User{ID: uuid.New(), Email: "officer@embassy.example", Role: models.OfficerRole}
}

func applicant() *models.User {
	return &models.User{ID: uuid.New(), Email: "applicant@example.com", Role: models.ApplicantRole}
}

func scheduledInterview(store *fakeSchedulerStore) *models.Interview {
	interview := &models.Interview{
		ID:                uuid.New(),
		ApplicationID:     uuid.New(),
		ScheduledDate:     time.Date(2026, 10, 14, 9, 30, 0, 0, time.Local),
		Location:          "Consulate Room 4",
		Status:            models.ScheduledInterview,
		AssignedOfficerID: uuid.New(),
	}
	store.interviews[interview.ID] = interview
	return interview
}

func TestScheduleRequiresDateAndLocation(t *testing.T) {
	store := newFakeSchedulerStore()
	svc := NewSchedulerService(store, workflow.NewInFlightGuard())

	_, err := svc.Schedule(uuid.New(), time.Time{}, "Consulate Room 4", officer())
	assert.ErrorIs(t, err, workflow.ErrIncompleteSchedule)

	_, err = svc.Schedule(uuid.New(), time.Now().Add(48*time.Hour), "  ", officer())
	assert.ErrorIs(t, err, workflow.ErrIncompleteSchedule)

	assert.Empty(t, store.interviews)
}

func TestScheduleCreatesScheduledInterview(t *testing.T) {
	store := newFakeSchedulerStore()
	svc := NewSchedulerService(store, workflow.NewInFlightGuard())
	who := officer()

	interview, err := svc.Schedule(uuid.New(), time.Now().Add(48*time.Hour), "Consulate Room 4", who)

	require.NoError(t, err)
	assert.Equal(t, models.ScheduledInterview, interview.Status)
	assert.Equal(t, who.ID, interview.AssignedOfficerID)
	assert.False(t, interview.Confirmed)
}

func TestRescheduleRequiresBothDateAndTime(t *testing.T) {
	store := newFakeSchedulerStore()
	svc := NewSchedulerService(store, workflow.NewInFlightGuard())
	interview := scheduledInterview(store)
	originalDate := interview.ScheduledDate

	cases := []struct {
		name    string
		date    string
		timeStr string
	}{
		{"date only", "2026-11-02", ""},
		{"time only", "", "14:00"},
		{"both blank", "  ", "  "},
		{"malformed date", "02/11/2026", "14:00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Reschedule(interview.ID, tc.date, tc.timeStr)
			assert.ErrorIs(t, err, workflow.ErrIncompleteSchedule)
		})
	}

	// Nothing was dispatched; the original schedule stands.
	assert.Zero(t, store.rescheduleCalls)
	assert.Equal(t, originalDate, store.interviews[interview.ID].ScheduledDate)
}

func TestRescheduleDropsPriorConfirmation(t *testing.T) {
	store := newFakeSchedulerStore()
	svc := NewSchedulerService(store, workflow.NewInFlightGuard())
	interview := scheduledInterview(store)
	confirmedAt := time.Now().Add(-time.Hour)
	interview.Confirmed = true
	interview.ConfirmedAt = &confirmedAt

	outcome, err := svc.Reschedule(interview.ID, "2026-11-02", "14:00")

	require.NoError(t, err)
	updated := outcome.Entity().(*models.Interview)
	assert.Equal(t, models.RescheduledInterview, updated.Status)
	assert.False(t, updated.Confirmed)
	assert.Nil(t, updated.ConfirmedAt)
	assert.Equal(t, time.Date(2026, 11, 2, 14, 0, 0, 0, time.Local), updated.ScheduledDate)
}

func TestRescheduleAllowedFromRescheduled(t *testing.T) {
	store := newFakeSchedulerStore()
	svc := NewSchedulerService(store, workflow.NewInFlightGuard())
	interview := scheduledInterview(store)
	interview.Status = models.RescheduledInterview

	outcome, err := svc.Reschedule(interview.ID, "2026-11-09", "10:00")

	require.NoError(t, err)
	assert.Equal(t, models.RescheduledInterview, outcome.Entity().(*models.Interview).Status)
}

func TestTerminalInterviewRefusesEverything(t *testing.T) {
	store := newFakeSchedulerStore()
	svc := NewSchedulerService(store, workflow.NewInFlightGuard())

	for _, status := range []models.InterviewStatus{models.CompletedInterview, models.CancelledInterview} {
		interview := scheduledInterview(store)
		interview.Status = status

		_, err := svc.Reschedule(interview.ID, "2026-11-02", "14:00")
		assert.True(t, workflow.IsTransition(err), "reschedule from %s", status)

		_, err = svc.Cancel(interview.ID)
		assert.True(t, workflow.IsTransition(err), "cancel from %s", status)

		_, err = svc.Complete(interview.ID, nil)
		assert.True(t, workflow.IsTransition(err), "complete from %s", status)

		_, err = svc.Confirm(interview.ID, applicant())
		assert.True(t, workflow.IsTransition(err), "confirm from %s", status)
	}
}

func TestCompleteRecordsOutcome(t *testing.T) {
	store := newFakeSchedulerStore()
	svc := NewSchedulerService(store, workflow.NewInFlightGuard())
	interview := scheduledInterview(store)
	outcomeText := "recommended for approval"

	outcome, err := svc.Complete(interview.ID, &outcomeText)

	require.NoError(t, err)
	updated := outcome.Entity().(*models.Interview)
	assert.Equal(t, models.CompletedInterview, updated.Status)
	require.NotNil(t, updated.Outcome)
	assert.Equal(t, outcomeText, *updated.Outcome)
}

func TestConfirmStampsOnce(t *testing.T) {
	store := newFakeSchedulerStore()
	svc := NewSchedulerService(store, workflow.NewInFlightGuard())
	interview := scheduledInterview(store)

	outcome, err := svc.Confirm(interview.ID, applicant())
	require.NoError(t, err)
	first := outcome.Entity().(*models.Interview)
	require.True(t, first.Confirmed)
	require.NotNil(t, first.ConfirmedAt)
	firstStamp := *first.ConfirmedAt

	// Repeat confirmation is reported but never re-dispatched, so the
	// original stamp survives.
	_, err = svc.Confirm(interview.ID, applicant())
	assert.ErrorIs(t, err, workflow.ErrAlreadyConfirmed)
	assert.Equal(t, 1, store.confirmCalls)
	assert.Equal(t, firstStamp, *store.interviews[interview.ID].ConfirmedAt)
}

func TestConfirmBlockedWhileRescheduleInFlight(t *testing.T) {
	store := newFakeSchedulerStore()
	guard := workflow.NewInFlightGuard()
	svc := NewSchedulerService(store, guard)
	interview := scheduledInterview(store)

	require.NoError(t, guard.Begin(interview.ID, opReschedule, interviewOps...))
	defer guard.End(interview.ID, opReschedule)

	_, err := svc.Confirm(interview.ID, applicant())
	assert.ErrorIs(t, err, workflow.ErrOperationInFlight)
}

func TestRescheduleAmbiguousEchoForcesRefresh(t *testing.T) {
	store := newFakeSchedulerStore()
	store.echoNil = true
	svc := NewSchedulerService(store, workflow.NewInFlightGuard())
	interview := scheduledInterview(store)

	outcome, err := svc.Reschedule(interview.ID, "2026-11-02", "14:00")

	require.NoError(t, err)
	assert.True(t, outcome.NeedsRefetch())
	assert.Nil(t, outcome.Entity())
}

func TestAvailableActionsFollowStatus(t *testing.T) {
	svc := NewSchedulerService(newFakeSchedulerStore(), workflow.NewInFlightGuard())

	cases := []struct {
		status  models.InterviewStatus
		actions []string
	}{
		{models.ScheduledInterview, []string{"reschedule", "cancel", "complete"}},
		{models.RescheduledInterview, []string{"reschedule", "cancel", "complete"}},
		{models.CompletedInterview, []string{}},
		{models.CancelledInterview, []string{}},
	}

	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			interview := &models.Interview{Status: tc.status}
			assert.Equal(t, tc.actions, svc.AvailableActions(interview))
		})
	}
}
