package services

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"visa-portal-backend/config"
	"visa-portal-backend/db/models"
	"visa-portal-backend/utils"
	"visa-portal-backend/workflow"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	opCancelRequest  = "cancel-request"
	opSubmitDocument = "submit-document"
)

var requestTable = workflow.NewTable("document request").
	Allow(workflow.State(models.SentRequest), "submit", workflow.State(models.SubmittedRequest)).
	Allow(workflow.State(models.SentRequest), "cancel", workflow.State(models.CancelledRequest))

// RequestStore is the slice of the document repository the request
// workflow dispatches to.
type RequestStore interface {
	GetRequestByID(id uuid.UUID) (*models.DocumentRequest, error)
	CreateRequest(request *models.DocumentRequest) (*models.DocumentRequest, error)
	MarkRequestCancelled(id uuid.UUID) (*models.DocumentRequest, error)
	AttachSubmission(requestID uuid.UUID, document *models.Document) (*models.DocumentRequest, error)
}

// RequestService runs the officer-initiated document request workflow:
// SENT until the applicant submits or the officer cancels, both terminal.
type RequestService struct {
	store   RequestStore
	storage utils.FileStorage
	guard   *workflow.InFlightGuard
}

func NewRequestService(store RequestStore, storage utils.FileStorage, guard *workflow.InFlightGuard) *RequestService {
	return &RequestService{store: store, storage: storage, guard: guard}
}

// CreateRequest opens a new request in SENT. The document name is the one
// required field.
func (s *RequestService) CreateRequest(applicationID uuid.UUID, documentName string, additionalDetails *string, officer *models.User) (*models.DocumentRequest, error) {
	documentName = strings.TrimSpace(documentName)
	if documentName == "" {
		return nil, workflow.ErrMissingDocumentName
	}

	request := &models.DocumentRequest{
		ApplicationID:     applicationID,
		DocumentName:      documentName,
		AdditionalDetails: additionalDetails,
		Status:            models.SentRequest,
		RequestedByID:     officer.ID,
	}

	created, err := s.store.CreateRequest(request)
	if err != nil {
		return nil, fmt.Errorf("failed to create document request: %w", err)
	}
	if created == nil {
		// Row exists but could not be echoed back; hand the caller the
		// local copy, the next aggregate refresh will reconcile.
		created = request
	}

	config.Logger.Info("Document request sent",
		zap.String("applicationID", applicationID.String()),
		zap.String("documentName", documentName),
		zap.String("officerID", officer.ID.String()))

	return created, nil
}

// CancelRequest closes a SENT request. Terminal requests refuse the action.
func (s *RequestService) CancelRequest(requestID uuid.UUID) (workflow.Outcome, error) {
	if err := s.guard.Begin(requestID, opCancelRequest, opSubmitDocument); err != nil {
		return workflow.Outcome{}, err
	}
	defer s.guard.End(requestID, opCancelRequest)

	request, err := s.store.GetRequestByID(requestID)
	if err != nil {
		return workflow.Outcome{}, fmt.Errorf("cancel failed: %w", err)
	}

	if _, err := requestTable.Apply(workflow.State(request.Status), "cancel"); err != nil {
		return workflow.Outcome{}, err
	}

	updated, err := s.store.MarkRequestCancelled(requestID)
	if err != nil {
		return workflow.Outcome{}, fmt.Errorf("cancel failed: %w", err)
	}

	if updated == nil {
		return workflow.RequiresRefetch(), nil
	}

	config.Logger.Info("Document request cancelled",
		zap.String("requestID", requestID.String()))

	return workflow.Patch(updated), nil
}

// SubmitDocument fulfils a SENT request: the binary goes to the storage
// collaborator first, then the metadata commits and flips the request to
// SUBMITTED. If the metadata step fails after a successful upload the
// request stays SENT and the stranded blob is left for the background
// sweep; it is never silently marked submitted.
func (s *RequestService) SubmitDocument(requestID uuid.UUID, applicant *models.User, documentType models.DocumentType, fileName string, content []byte) (workflow.Outcome, error) {
	if !isKnownDocumentType(documentType) {
		return workflow.Outcome{}, workflow.ErrUnknownDocumentType
	}

	if err := s.guard.Begin(requestID, opSubmitDocument, opCancelRequest); err != nil {
		return workflow.Outcome{}, err
	}
	defer s.guard.End(requestID, opSubmitDocument)

	request, err := s.store.GetRequestByID(requestID)
	if err != nil {
		return workflow.Outcome{}, fmt.Errorf("submission failed: %w", err)
	}

	if _, err := requestTable.Apply(workflow.State(request.Status), "submit"); err != nil {
		return workflow.Outcome{}, err
	}

	pathHint := path.Join(
		"applications", request.ApplicationID.String(),
		"requests", requestID.String(),
		utils.CleanStringForFilename(fileName),
	)

	filePath, err := s.storage.UploadFileFromReader(bytes.NewReader(content), pathHint)
	if err != nil {
		return workflow.Outcome{}, fmt.Errorf("submission failed: upload error: %w", err)
	}

	fileHash, err := utils.HashFileContent(bytes.NewReader(content))
	if err != nil {
		return workflow.Outcome{}, fmt.Errorf("submission failed: %w", err)
	}

	document := &models.Document{
		ApplicationID:      request.ApplicationID,
		DocumentType:       documentType,
		FileName:           fileName,
		FileSize:           int64(len(content)),
		FilePath:           filePath,
		FileHash:           &fileHash,
		VerificationStatus: models.PendingVerification,
		RequestID:          &requestID,
		CreatedBy:          applicant.Email,
	}

	updated, err := s.store.AttachSubmission(requestID, document)
	if err != nil {
		// Upload succeeded but the metadata call did not: the request is
		// still SENT and the blob at filePath is now orphaned. The nightly
		// sweep reclaims it.
		config.Logger.Error("Document submission failed after upload",
			zap.String("requestID", requestID.String()),
			zap.String("orphanedPath", filePath),
			zap.Error(err))
		return workflow.Outcome{}, fmt.Errorf("submission failed: %w", err)
	}

	if updated == nil {
		return workflow.RequiresRefetch(), nil
	}

	config.Logger.Info("Document submitted for request",
		zap.String("requestID", requestID.String()),
		zap.String("documentID", document.ID.String()),
		zap.String("applicantID", applicant.ID.String()))

	return workflow.Patch(updated), nil
}

func isKnownDocumentType(documentType models.DocumentType) bool {
	for _, known := range models.KnownDocumentTypes {
		if documentType == known {
			return true
		}
	}
	return false
}
