package tasks

import (
	"context"
	"io"
	"mime/multipart"
	"testing"
	"time"

	"visa-portal-backend/config"
	"visa-portal-backend/db/models"
	"visa-portal-backend/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	config.Logger = zap.NewNop()
	m.Run()
}

type fakeSweepStorage struct {
	files   []utils.StoredFile
	deleted []string
}

func (f *fakeSweepStorage) UploadFile(file multipart.File, pathHint string) (string, error) {
	return "", nil
}
func (f *fakeSweepStorage) UploadFileFromReader(src io.Reader, pathHint string) (string, error) {
	return "", nil
}
func (f *fakeSweepStorage) DownloadFile(filePath string) (io.ReadCloser, error) { return nil, nil }
func (f *fakeSweepStorage) FileExists(filePath string) (bool, error)            { return true, nil }
func (f *fakeSweepStorage) ListFiles() ([]utils.StoredFile, error)              { return f.files, nil }

func (f *fakeSweepStorage) DeleteFile(filePath string) error {
	f.deleted = append(f.deleted, filePath)
	return nil
}

type fakeSweepDocumentRepo struct {
	referenced []string
}

func (f *fakeSweepDocumentRepo) GetDocumentByID(id uuid.UUID) (*models.Document, error) {
	return nil, nil
}
func (f *fakeSweepDocumentRepo) GetDocumentsByApplicationID(applicationID uuid.UUID) ([]models.Document, error) {
	return nil, nil
}
func (f *fakeSweepDocumentRepo) SetVerification(id uuid.UUID, status models.VerificationStatus, verifiedBy uuid.UUID, rejectionReason *string) (*models.Document, error) {
	return nil, nil
}
func (f *fakeSweepDocumentRepo) GetRequestByID(id uuid.UUID) (*models.DocumentRequest, error) {
	return nil, nil
}
func (f *fakeSweepDocumentRepo) GetRequestsByApplicationID(applicationID uuid.UUID) ([]models.DocumentRequest, error) {
	return nil, nil
}
func (f *fakeSweepDocumentRepo) CreateRequest(request *models.DocumentRequest) (*models.DocumentRequest, error) {
	return nil, nil
}
func (f *fakeSweepDocumentRepo) MarkRequestCancelled(id uuid.UUID) (*models.DocumentRequest, error) {
	return nil, nil
}
func (f *fakeSweepDocumentRepo) AttachSubmission(requestID uuid.UUID, document *models.Document) (*models.DocumentRequest, error) {
	return nil, nil
}
func (f *fakeSweepDocumentRepo) ListReferencedFilePaths() ([]string, error) {
	return f.referenced, nil
}

func TestOrphanSweepSparesRecentAndReferencedFiles(t *testing.T) {
	now := time.Now()
	storage := &fakeSweepStorage{
		files: []utils.StoredFile{
			{Path: "/uploads/a/attached.pdf", ModTime: now.Add(-48 * time.Hour)},
			{Path: "/uploads/a/stale-orphan.pdf", ModTime: now.Add(-48 * time.Hour)},
			{Path: "/uploads/a/fresh-orphan.pdf", ModTime: now.Add(-5 * time.Minute)},
		},
	}
	repo := &fakeSweepDocumentRepo{referenced: []string{"/uploads/a/attached.pdf"}}
	handler := NewTaskHandler(storage, repo, nil, nil)

	err := handler.HandleOrphanSweep(context.Background(), NewOrphanSweepTask())

	require.NoError(t, err)
	// A fresh upload may belong to a submission whose metadata commit is
	// still in flight; only the stale orphan goes.
	assert.Equal(t, []string{"/uploads/a/stale-orphan.pdf"}, storage.deleted)
}
