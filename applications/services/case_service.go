package services

import (
	"fmt"

	"visa-portal-backend/config"
	"visa-portal-backend/db/models"
	"visa-portal-backend/workflow"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CaseStore is the slice of the application repository the aggregate view
// needs for a full reload.
type CaseStore interface {
	GetApplicationByID(id string) (*models.Application, error)
}

// CaseEventBroadcaster pushes case-level refresh events to clients watching
// an application.
type CaseEventBroadcaster interface {
	BroadcastCaseRefresh(applicationID uuid.UUID)
}

// CaseService maintains the cached case aggregate. Sub-workflow mutations
// come back as either a patch (merged into the aggregate in place) or an
// explicit refetch signal, in which case the whole aggregate is reloaded.
type CaseService struct {
	store  CaseStore
	events CaseEventBroadcaster
}

func NewCaseService(store CaseStore, events CaseEventBroadcaster) *CaseService {
	return &CaseService{store: store, events: events}
}

// ApplyOutcome folds a mutation outcome into the aggregate and returns the
// up-to-date case view. An unknown patch shape is treated the same as an
// ambiguous response: reload rather than guess.
func (s *CaseService) ApplyOutcome(current *models.Application, outcome workflow.Outcome) (*models.Application, error) {
	defer s.notifyRefresh(current.ID)

	if outcome.NeedsRefetch() {
		return s.Reload(current.ID)
	}

	switch entity := outcome.Entity().(type) {
	case *models.Application:
		mergeApplication(current, entity)
	case *models.Document:
		current.Documents = upsertDocument(current.Documents, entity)
	case *models.DocumentRequest:
		current.DocumentRequests = upsertRequest(current.DocumentRequests, entity)
	case *models.Interview:
		current.Interviews = upsertInterview(current.Interviews, entity)
	case *models.Note:
		current.Notes = append(current.Notes, *entity)
	case *models.Message:
		current.Messages = append(current.Messages, *entity)
	default:
		config.Logger.Warn("Unknown patch entity, reloading aggregate",
			zap.String("applicationID", current.ID.String()))
		return s.Reload(current.ID)
	}

	return current, nil
}

// Reload fetches the full aggregate from the store. A success with no row
// is reported as an ambiguous response so callers refetch instead of
// dereferencing nothing.
func (s *CaseService) Reload(applicationID uuid.UUID) (*models.Application, error) {
	application, err := s.store.GetApplicationByID(applicationID.String())
	if err != nil {
		return nil, fmt.Errorf("aggregate refresh failed: %w", err)
	}
	if application == nil {
		return nil, &workflow.AmbiguousResponseError{Entity: "application"}
	}
	return application, nil
}

func (s *CaseService) notifyRefresh(applicationID uuid.UUID) {
	if s.events != nil {
		s.events.BroadcastCaseRefresh(applicationID)
	}
}

// mergeApplication copies the mutable top-level fields of an updated row
// into the cached aggregate without discarding loaded collections.
func mergeApplication(dst, src *models.Application) {
	dst.Status = src.Status
	dst.DecisionDate = src.DecisionDate
	dst.RejectionReason = src.RejectionReason
	dst.AssignedOfficerID = src.AssignedOfficerID
	dst.UpdatedBy = src.UpdatedBy
	dst.UpdatedAt = src.UpdatedAt
}

func upsertDocument(documents []models.Document, updated *models.Document) []models.Document {
	for i := range documents {
		if documents[i].ID == updated.ID {
			documents[i] = *updated
			return documents
		}
	}
	return append(documents, *updated)
}

func upsertRequest(requests []models.DocumentRequest, updated *models.DocumentRequest) []models.DocumentRequest {
	for i := range requests {
		if requests[i].ID == updated.ID {
			requests[i] = *updated
			return requests
		}
	}
	return append(requests, *updated)
}

func upsertInterview(interviews []models.Interview, updated *models.Interview) []models.Interview {
	for i := range interviews {
		if interviews[i].ID == updated.ID {
			interviews[i] = *updated
			return interviews
		}
	}
	return append(interviews, *updated)
}
