package services

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"testing"
	"time"

	"visa-portal-backend/db/models"
	"visa-portal-backend/utils"
	"visa-portal-backend/workflow"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRequestStore struct {
	requests map[uuid.UUID]*models.DocumentRequest

	createErr error
	attachErr error
}

func newFakeRequestStore() *fakeRequestStore {
	return &fakeRequestStore{requests: make(map[uuid.UUID]*models.DocumentRequest)}
}

func (f *fakeRequestStore) GetRequestByID(id uuid.UUID) (*models.DocumentRequest, error) {
	request, ok := f.requests[id]
	if !ok {
		return nil, errors.New("document request not found")
	}
	copied := *request
	return &copied, nil
}

func (f *fakeRequestStore) CreateRequest(request *models.DocumentRequest) (*models.DocumentRequest, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	request.ID = uuid.New()
	f.requests[request.ID] = request
	return request, nil
}

func (f *fakeRequestStore) MarkRequestCancelled(id uuid.UUID) (*models.DocumentRequest, error) {
	request := f.requests[id]
	now := time.Now()
	request.Status = models.CancelledRequest
	request.ResolvedAt = &now
	copied := *request
	return &copied, nil
}

func (f *fakeRequestStore) AttachSubmission(requestID uuid.UUID, document *models.Document) (*models.DocumentRequest, error) {
	if f.attachErr != nil {
		return nil, f.attachErr
	}
	document.ID = uuid.New()
	request := f.requests[requestID]
	now := time.Now()
	request.Status = models.SubmittedRequest
	request.DocumentID = &document.ID
	request.Document = document
	request.ResolvedAt = &now
	copied := *request
	return &copied, nil
}

type fakeStorage struct {
	uploads   []string
	uploadErr error
}

func (f *fakeStorage) UploadFile(file multipart.File, pathHint string) (string, error) {
	return f.UploadFileFromReader(file, pathHint)
}

func (f *fakeStorage) UploadFileFromReader(src io.Reader, pathHint string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	path := "/blobs/" + pathHint
	f.uploads = append(f.uploads, path)
	return path, nil
}

func (f *fakeStorage) DownloadFile(filePath string) (io.ReadCloser, error) { return nil, nil }
func (f *fakeStorage) DeleteFile(filePath string) error                    { return nil }
func (f *fakeStorage) FileExists(filePath string) (bool, error)            { return true, nil }

func (f *fakeStorage) ListFiles() ([]utils.StoredFile, error) {
	files := make([]utils.StoredFile, 0, len(f.uploads))
	for _, path := range f.uploads {
		files = append(files, utils.StoredFile{Path: path, ModTime: time.Now()})
	}
	return files, nil
}

func applicant() *models.User {
	return &models.User{ID: uuid.New(), Email: "applicant@example.com", Role: models.ApplicantRole}
}

func sentRequest(store *fakeRequestStore) *models.DocumentRequest {
	request := &models.DocumentRequest{
		ID:            uuid.New(),
		ApplicationID: uuid.New(),
		DocumentName:  "Bank Statement",
		Status:        models.SentRequest,
		RequestedByID: uuid.New(),
	}
	store.requests[request.ID] = request
	return request
}

func TestCreateRequestRequiresDocumentName(t *testing.T) {
	store := newFakeRequestStore()
	svc := NewRequestService(store, &fakeStorage{}, workflow.NewInFlightGuard())

	for _, blank := range []string{"", "   "} {
		_, err := svc.CreateRequest(uuid.New(), blank, nil, officer())
		assert.ErrorIs(t, err, workflow.ErrMissingDocumentName)
	}
	assert.Empty(t, store.requests)
}

func TestCreateRequestStartsSent(t *testing.T) {
	store := newFakeRequestStore()
	svc := NewRequestService(store, &fakeStorage{}, workflow.NewInFlightGuard())

	request, err := svc.CreateRequest(uuid.New(), "  Bank Statement ", nil, officer())

	require.NoError(t, err)
	assert.Equal(t, models.SentRequest, request.Status)
	assert.Equal(t, "Bank Statement", request.DocumentName)
}

func TestSubmitDocumentFulfilsRequest(t *testing.T) {
	store := newFakeRequestStore()
	storage := &fakeStorage{}
	svc := NewRequestService(store, storage, workflow.NewInFlightGuard())
	request := sentRequest(store)

	outcome, err := svc.SubmitDocument(request.ID, applicant(), models.BankStatementDocument, "statement.pdf", []byte("pdf-bytes"))

	require.NoError(t, err)
	require.False(t, outcome.NeedsRefetch())
	updated := outcome.Entity().(*models.DocumentRequest)
	assert.Equal(t, models.SubmittedRequest, updated.Status)
	require.NotNil(t, updated.Document)
	assert.Equal(t, models.PendingVerification, updated.Document.VerificationStatus)
	assert.Equal(t, int64(len("pdf-bytes")), updated.Document.FileSize)
	require.Len(t, storage.uploads, 1)

	// The terminal request refuses a follow-up cancellation.
	_, err = svc.CancelRequest(request.ID)
	require.Error(t, err)
	assert.True(t, workflow.IsTransition(err))
}

func TestSubmitDocumentUnknownTypeRejectedLocally(t *testing.T) {
	store := newFakeRequestStore()
	storage := &fakeStorage{}
	svc := NewRequestService(store, storage, workflow.NewInFlightGuard())
	request := sentRequest(store)

	_, err := svc.SubmitDocument(request.ID, applicant(), models.DocumentType("SELFIE"), "a.jpg", []byte("x"))

	assert.ErrorIs(t, err, workflow.ErrUnknownDocumentType)
	assert.Empty(t, storage.uploads, "no upload happens for an invalid type")
}

func TestSubmitDocumentUploadFailureLeavesRequestSent(t *testing.T) {
	store := newFakeRequestStore()
	storage := &fakeStorage{uploadErr: fmt.Errorf("storage unreachable")}
	svc := NewRequestService(store, storage, workflow.NewInFlightGuard())
	request := sentRequest(store)

	_, err := svc.SubmitDocument(request.ID, applicant(), models.BankStatementDocument, "statement.pdf", []byte("x"))

	require.Error(t, err)
	assert.Equal(t, models.SentRequest, store.requests[request.ID].Status)
}

func TestSubmitDocumentMetadataFailureLeavesRequestSent(t *testing.T) {
	store := newFakeRequestStore()
	store.attachErr = fmt.Errorf("metadata write failed")
	storage := &fakeStorage{}
	svc := NewRequestService(store, storage, workflow.NewInFlightGuard())
	request := sentRequest(store)

	_, err := svc.SubmitDocument(request.ID, applicant(), models.BankStatementDocument, "statement.pdf", []byte("x"))

	require.Error(t, err)
	// The request must not be silently marked submitted; the uploaded blob
	// is stranded and left for the sweep.
	assert.Equal(t, models.SentRequest, store.requests[request.ID].Status)
	assert.Len(t, storage.uploads, 1)
}

func TestCancelRequestOnlyWhileSent(t *testing.T) {
	store := newFakeRequestStore()
	svc := NewRequestService(store, &fakeStorage{}, workflow.NewInFlightGuard())

	t.Run("sent request cancels", func(t *testing.T) {
		request := sentRequest(store)
		outcome, err := svc.CancelRequest(request.ID)
		require.NoError(t, err)
		updated := outcome.Entity().(*models.DocumentRequest)
		assert.Equal(t, models.CancelledRequest, updated.Status)
	})

	t.Run("terminal request refuses", func(t *testing.T) {
		for _, status := range []models.RequestStatus{models.SubmittedRequest, models.CancelledRequest} {
			request := sentRequest(store)
			request.Status = status

			_, err := svc.CancelRequest(request.ID)
			require.Error(t, err)
			assert.True(t, workflow.IsTransition(err))
		}
	})
}

func TestSubmitDocumentBlockedWhileCancelInFlight(t *testing.T) {
	store := newFakeRequestStore()
	guard := workflow.NewInFlightGuard()
	svc := NewRequestService(store, &fakeStorage{}, guard)
	request := sentRequest(store)

	require.NoError(t, guard.Begin(request.ID, opCancelRequest, opSubmitDocument))
	defer guard.End(request.ID, opCancelRequest)

	_, err := svc.SubmitDocument(request.ID, applicant(), models.BankStatementDocument, "statement.pdf", []byte("x"))
	assert.ErrorIs(t, err, workflow.ErrOperationInFlight)
}
