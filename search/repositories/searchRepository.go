package repositories

import (
	indexing "visa-portal-backend/search/services"

	"github.com/blevesearch/bleve/v2"
)

// SearchRepository wraps the bleve indexer with typed per-entity indexing
// and query helpers.
type SearchRepository struct {
	indexer *indexing.IndexingService
}

type SearchRepositoryInterface interface {
	// Applications
	IndexSingleApplication(doc ApplicationSearchDoc) error
	IndexExistingApplications(docs []ApplicationSearchDoc) error
	UpdateApplication(doc ApplicationSearchDoc) error
	SearchApplications(query, status string) (*bleve.SearchResult, error)
	GetApplicationDocument(id string) (interface{}, error)
}

// NewSearchRepository returns both the struct and the interface.
func NewSearchRepository(indexer *indexing.IndexingService) (*SearchRepository, SearchRepositoryInterface) {
	repo := &SearchRepository{indexer: indexer}
	return repo, repo
}
