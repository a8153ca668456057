package services

import (
	"errors"
	"testing"

	"visa-portal-backend/db/models"
	"visa-portal-backend/utils"
	"visa-portal-backend/workflow"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStatusStore struct {
	updateCalls int
	noteCalls   int

	lastStatus models.ApplicationStatus
	lastReason *string

	updateResult *models.Application
	updateErr    error
	noteErr      error
}

func (f *fakeStatusStore) UpdateApplicationStatus(id uuid.UUID, status models.ApplicationStatus, rejectionReason *string, updatedBy string) (*models.Application, error) {
	f.updateCalls++
	f.lastStatus = status
	f.lastReason = rejectionReason
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.updateResult, nil
}

func (f *fakeStatusStore) CreateNote(note *models.Note) (*models.Note, error) {
	f.noteCalls++
	if f.noteErr != nil {
		return nil, f.noteErr
	}
	note.ID = uuid.New()
	return note, nil
}

func (f *fakeStatusStore) GetApplicationNotes(applicationID uuid.UUID) ([]models.Note, error) {
	return nil, nil
}

func newTestOfficer() *models.User {
	return &models.User{ID: uuid.New(), Email: "officer@visaportal.local", Role: models.OfficerRole}
}

func newTestCase(status models.ApplicationStatus) *models.Application {
	return &models.Application{ID: uuid.New(), Status: status}
}

func TestUpdateStatusSameStateIsNoOp(t *testing.T) {
	store := &fakeStatusStore{}
	svc := NewStatusService(store, workflow.NewInFlightGuard())

	_, err := svc.UpdateStatus(newTestCase(models.PendingApplication), models.PendingApplication, nil, newTestOfficer())

	assert.ErrorIs(t, err, workflow.ErrNoChanges)
	assert.Zero(t, store.updateCalls, "same-state update must not reach the store")
}

func TestUpdateStatusTerminalRefusesDispatch(t *testing.T) {
	store := &fakeStatusStore{}
	svc := NewStatusService(store, workflow.NewInFlightGuard())

	for _, terminal := range []models.ApplicationStatus{models.ApprovedApplication, models.RejectedApplication} {
		_, err := svc.UpdateStatus(newTestCase(terminal), models.UnderReviewApplication, nil, newTestOfficer())
		require.Error(t, err)
		assert.True(t, workflow.IsTransition(err))
	}
	assert.Zero(t, store.updateCalls)
}

func TestUpdateStatusUnknownTargetRejected(t *testing.T) {
	store := &fakeStatusStore{}
	svc := NewStatusService(store, workflow.NewInFlightGuard())

	_, err := svc.UpdateStatus(newTestCase(models.PendingApplication), models.ApplicationStatus("COLLECTED"), nil, newTestOfficer())

	require.Error(t, err)
	assert.True(t, workflow.IsTransition(err))
	assert.Zero(t, store.updateCalls)
}

func TestUpdateStatusRejectionRequiresReason(t *testing.T) {
	store := &fakeStatusStore{}
	svc := NewStatusService(store, workflow.NewInFlightGuard())

	_, err := svc.UpdateStatus(newTestCase(models.UnderReviewApplication), models.RejectedApplication, utils.StringPtr("   "), newTestOfficer())

	assert.ErrorIs(t, err, workflow.ErrMissingReason)
	assert.Zero(t, store.updateCalls)
}

func TestUpdateStatusPatchesOnFullResponse(t *testing.T) {
	current := newTestCase(models.PendingApplication)
	updated := &models.Application{ID: current.ID, Status: models.UnderReviewApplication}
	store := &fakeStatusStore{updateResult: updated}
	svc := NewStatusService(store, workflow.NewInFlightGuard())

	outcome, err := svc.UpdateStatus(current, models.UnderReviewApplication, nil, newTestOfficer())

	require.NoError(t, err)
	assert.False(t, outcome.NeedsRefetch())
	assert.Equal(t, updated, outcome.Entity())
	assert.Equal(t, 1, store.updateCalls)
	assert.Equal(t, models.UnderReviewApplication, store.lastStatus)
}

func TestUpdateStatusAmbiguousResponseForcesRefetch(t *testing.T) {
	store := &fakeStatusStore{updateResult: nil}
	svc := NewStatusService(store, workflow.NewInFlightGuard())

	outcome, err := svc.UpdateStatus(newTestCase(models.PendingApplication), models.UnderReviewApplication, nil, newTestOfficer())

	require.NoError(t, err)
	assert.True(t, outcome.NeedsRefetch())
	assert.Nil(t, outcome.Entity())
}

func TestUpdateStatusStoreFailureSurfaced(t *testing.T) {
	storeErr := errors.New("backend rejected transition")
	store := &fakeStatusStore{updateErr: storeErr}
	svc := NewStatusService(store, workflow.NewInFlightGuard())

	_, err := svc.UpdateStatus(newTestCase(models.PendingApplication), models.ApprovedApplication, nil, newTestOfficer())

	require.Error(t, err)
	assert.ErrorIs(t, err, storeErr)
}

func TestUpdateStatusInFlightGuard(t *testing.T) {
	current := newTestCase(models.PendingApplication)
	store := &fakeStatusStore{}
	guard := workflow.NewInFlightGuard()
	svc := NewStatusService(store, guard)

	require.NoError(t, guard.Begin(current.ID, opUpdateStatus))
	defer guard.End(current.ID, opUpdateStatus)

	_, err := svc.UpdateStatus(current, models.UnderReviewApplication, nil, newTestOfficer())

	assert.ErrorIs(t, err, workflow.ErrOperationInFlight)
	assert.Zero(t, store.updateCalls)
}

func TestAddNote(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantErr   error
		wantCalls int
	}{
		{name: "blank note rejected", content: "   ", wantErr: workflow.ErrEmptyNote},
		{name: "empty note rejected", content: "", wantErr: workflow.ErrEmptyNote},
		{name: "valid note appended", content: " needs embassy follow-up ", wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStatusStore{}
			svc := NewStatusService(store, workflow.NewInFlightGuard())

			note, err := svc.AddNote(uuid.New(), uuid.New(), tt.content)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Zero(t, store.noteCalls, "validation failures must stay local")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCalls, store.noteCalls)
			assert.Equal(t, "needs embassy follow-up", note.Content, "content is trimmed")
		})
	}
}
