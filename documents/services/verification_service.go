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

const (
	opVerify = "verify-document"
	opReject = "reject-document"
)

var verificationTable = workflow.NewTable("document").
	Allow(workflow.State(models.PendingVerification), "verify", workflow.State(models.VerifiedVerification)).
	Allow(workflow.State(models.PendingVerification), "reject", workflow.State(models.RejectedVerification))

// VerificationStore is the slice of the document repository the
// verification engine dispatches to.
type VerificationStore interface {
	GetDocumentByID(id uuid.UUID) (*models.Document, error)
	SetVerification(id uuid.UUID, status models.VerificationStatus, verifiedBy uuid.UUID, rejectionReason *string) (*models.Document, error)
}

// VerificationService enforces the per-document verification state machine.
// VERIFIED and REJECTED are terminal here; a resubmission creates a fresh
// Document through the request workflow instead of reopening an old one.
type VerificationService struct {
	store VerificationStore
	guard *workflow.InFlightGuard
}

func NewVerificationService(store VerificationStore, guard *workflow.InFlightGuard) *VerificationService {
	return &VerificationService{store: store, guard: guard}
}

// Verify marks a pending document VERIFIED, stamping the deciding officer.
// Any rejection reason left over from an earlier round is cleared. When the
// store cannot echo the updated row the outcome degrades to a full refresh
// rather than guessing partial state.
func (s *VerificationService) Verify(documentID uuid.UUID, officer *models.User) (workflow.Outcome, error) {
	// Verify and reject are mutually exclusive while either is dispatched
	// for this document.
	if err := s.guard.Begin(documentID, opVerify, opReject); err != nil {
		return workflow.Outcome{}, err
	}
	defer s.guard.End(documentID, opVerify)

	document, err := s.store.GetDocumentByID(documentID)
	if err != nil {
		return workflow.Outcome{}, fmt.Errorf("verify failed: %w", err)
	}

	next, err := verificationTable.Apply(workflow.State(document.VerificationStatus), "verify")
	if err != nil {
		return workflow.Outcome{}, err
	}

	updated, err := s.store.SetVerification(documentID, models.VerificationStatus(next), officer.ID, nil)
	if err != nil {
		return workflow.Outcome{}, fmt.Errorf("verify failed: %w", err)
	}

	if updated == nil {
		config.Logger.Warn("Verification response ambiguous, forcing document list refresh",
			zap.String("documentID", documentID.String()))
		return workflow.RequiresRefetch(), nil
	}

	config.Logger.Info("Document verified",
		zap.String("documentID", documentID.String()),
		zap.String("officerID", officer.ID.String()))

	return workflow.Patch(updated), nil
}

// Reject marks a pending document REJECTED with the officer's reason. A
// blank reason is refused before any store call.
func (s *VerificationService) Reject(documentID uuid.UUID, reason string, officer *models.User) (workflow.Outcome, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return workflow.Outcome{}, workflow.ErrMissingReason
	}

	if err := s.guard.Begin(documentID, opReject, opVerify); err != nil {
		return workflow.Outcome{}, err
	}
	defer s.guard.End(documentID, opReject)

	document, err := s.store.GetDocumentByID(documentID)
	if err != nil {
		return workflow.Outcome{}, fmt.Errorf("reject failed: %w", err)
	}

	next, err := verificationTable.Apply(workflow.State(document.VerificationStatus), "reject")
	if err != nil {
		return workflow.Outcome{}, err
	}

	updated, err := s.store.SetVerification(documentID, models.VerificationStatus(next), officer.ID, &reason)
	if err != nil {
		return workflow.Outcome{}, fmt.Errorf("reject failed: %w", err)
	}

	if updated == nil {
		config.Logger.Warn("Rejection response ambiguous, forcing document list refresh",
			zap.String("documentID", documentID.String()))
		return workflow.RequiresRefetch(), nil
	}

	config.Logger.Info("Document rejected",
		zap.String("documentID", documentID.String()),
		zap.String("officerID", officer.ID.String()),
		zap.String("reason", reason))

	return workflow.Patch(updated), nil
}
