package repositories

import (
	"visa-portal-backend/config"
	"visa-portal-backend/db/models"

	"github.com/blevesearch/bleve/v2"
	"go.uber.org/zap"
)

const applicationsIndex = "applications"

// ApplicationSearchDoc is the flattened projection of a case that goes
// into the search index.
type ApplicationSearchDoc struct {
	ID                string `json:"id"`
	ApplicationNumber string `json:"application_number"`
	Status            string `json:"status"`
	ApplicantName     string `json:"applicant_name"`
	ApplicantEmail    string `json:"applicant_email"`
	VisaType          string `json:"visa_type"`
	SubmissionDate    string `json:"submission_date"`
}

// NewApplicationSearchDoc projects a case aggregate into its index form.
func NewApplicationSearchDoc(application *models.Application) ApplicationSearchDoc {
	doc := ApplicationSearchDoc{
		ID:                application.ID.String(),
		ApplicationNumber: application.ApplicationNumber,
		Status:            string(application.Status),
		ApplicantName:     application.Applicant.FullName(),
		ApplicantEmail:    application.Applicant.Email,
		VisaType:          application.VisaType.Name,
	}
	if !application.SubmissionDate.IsZero() {
		doc.SubmissionDate = application.SubmissionDate.Format("2006-01-02")
	}
	return doc
}

func (r *SearchRepository) IndexSingleApplication(doc ApplicationSearchDoc) error {
	if err := r.indexer.IndexDocument(applicationsIndex, doc.ID, doc); err != nil {
		config.Logger.Error("Failed to index application",
			zap.Error(err),
			zap.String("application_id", doc.ID))
		return err
	}
	return nil
}

func (r *SearchRepository) IndexExistingApplications(docs []ApplicationSearchDoc) error {
	toIndex := make(map[string]interface{}, len(docs))
	for _, doc := range docs {
		toIndex[doc.ID] = doc
	}
	if len(toIndex) == 0 {
		return nil
	}

	config.Logger.Info("Bulk indexing applications", zap.Int("count", len(toIndex)))
	return r.indexer.BulkIndexDocuments(applicationsIndex, toIndex)
}

func (r *SearchRepository) UpdateApplication(doc ApplicationSearchDoc) error {
	return r.indexer.UpdateDocument(applicationsIndex, doc.ID, doc)
}

// SearchApplications runs a fuzzy match on the query across the indexed
// fields, optionally narrowed to one status.
func (r *SearchRepository) SearchApplications(query, status string) (*bleve.SearchResult, error) {
	matchQuery := bleve.NewMatchQuery(query)
	matchQuery.SetFuzziness(1)

	finalQuery := bleve.NewConjunctionQuery(matchQuery)
	if status != "" {
		statusQuery := bleve.NewMatchQuery(status)
		statusQuery.SetField("status")
		finalQuery.AddQuery(statusQuery)
	}

	return r.indexer.SearchIndex(applicationsIndex, finalQuery, 50)
}

func (r *SearchRepository) GetApplicationDocument(id string) (interface{}, error) {
	return r.indexer.GetDocument(applicationsIndex, id)
}
