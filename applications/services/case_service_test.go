package services

import (
	"testing"

	"visa-portal-backend/db/models"
	"visa-portal-backend/workflow"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCaseStore struct {
	reloads int
	result  *models.Application
}

func (f *fakeCaseStore) GetApplicationByID(id string) (*models.Application, error) {
	f.reloads++
	return f.result, nil
}

type fakeBroadcaster struct {
	refreshed []uuid.UUID
}

func (f *fakeBroadcaster) BroadcastCaseRefresh(applicationID uuid.UUID) {
	f.refreshed = append(f.refreshed, applicationID)
}

func TestApplyOutcomePatchesDocumentInPlace(t *testing.T) {
	doc := models.Document{ID: uuid.New(), VerificationStatus: models.PendingVerification}
	current := &models.Application{
		ID:        uuid.New(),
		Documents: []models.Document{doc},
	}
	store := &fakeCaseStore{}
	events := &fakeBroadcaster{}
	svc := NewCaseService(store, events)

	verified := doc
	verified.VerificationStatus = models.VerifiedVerification

	got, err := svc.ApplyOutcome(current, workflow.Patch(&verified))

	require.NoError(t, err)
	assert.Zero(t, store.reloads, "a patch must not trigger a reload")
	require.Len(t, got.Documents, 1)
	assert.Equal(t, models.VerifiedVerification, got.Documents[0].VerificationStatus)
	assert.Equal(t, []uuid.UUID{current.ID}, events.refreshed)
}

func TestApplyOutcomeAppendsUnknownDocument(t *testing.T) {
	current := &models.Application{ID: uuid.New()}
	svc := NewCaseService(&fakeCaseStore{}, nil)

	newDoc := &models.Document{ID: uuid.New()}
	got, err := svc.ApplyOutcome(current, workflow.Patch(newDoc))

	require.NoError(t, err)
	assert.Len(t, got.Documents, 1)
}

func TestApplyOutcomeRefetchReloadsAggregate(t *testing.T) {
	fresh := &models.Application{ID: uuid.New(), Status: models.UnderReviewApplication}
	store := &fakeCaseStore{result: fresh}
	svc := NewCaseService(store, nil)

	got, err := svc.ApplyOutcome(&models.Application{ID: fresh.ID}, workflow.RequiresRefetch())

	require.NoError(t, err)
	assert.Equal(t, 1, store.reloads)
	assert.Equal(t, fresh, got)
}

func TestApplyOutcomeUnknownEntityReloads(t *testing.T) {
	fresh := &models.Application{ID: uuid.New()}
	store := &fakeCaseStore{result: fresh}
	svc := NewCaseService(store, nil)

	got, err := svc.ApplyOutcome(&models.Application{ID: fresh.ID}, workflow.Patch("not an entity"))

	require.NoError(t, err)
	assert.Equal(t, 1, store.reloads)
	assert.Equal(t, fresh, got)
}

func TestReloadWithoutRowIsAmbiguous(t *testing.T) {
	store := &fakeCaseStore{result: nil}
	svc := NewCaseService(store, nil)

	got, err := svc.Reload(uuid.New())

	require.Error(t, err)
	assert.Nil(t, got)
	assert.True(t, workflow.IsAmbiguous(err))
}

func TestApplyOutcomeMergesApplicationFields(t *testing.T) {
	current := &models.Application{
		ID:        uuid.New(),
		Status:    models.PendingApplication,
		Documents: []models.Document{{ID: uuid.New()}},
	}
	updated := &models.Application{ID: current.ID, Status: models.UnderReviewApplication}
	svc := NewCaseService(&fakeCaseStore{}, nil)

	got, err := svc.ApplyOutcome(current, workflow.Patch(updated))

	require.NoError(t, err)
	assert.Equal(t, models.UnderReviewApplication, got.Status)
	assert.Len(t, got.Documents, 1, "merging top-level fields keeps loaded collections")
}
