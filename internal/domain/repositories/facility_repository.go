package repositories

import (
	"context"

	"github.com/virtuefdn/medbridge/backend/internal/domain/entities"
)

// FacilitySource loads raw catalog rows from a backing store. Rows are
// pre-dedup: the catalog builder merges duplicates by pk_unique_id.
type FacilitySource interface {
	// LoadAll returns every raw facility row in source order.
	LoadAll(ctx context.Context) ([]*entities.Facility, error)
}

// VectorSearchRepository is the contract with the external vector backend.
type VectorSearchRepository interface {
	// Search runs a single named-vector similarity search with optional
	// metadata pre-filters. A failing leg returns an error; callers treat
	// that as an empty result, never as a pipeline abort.
	Search(ctx context.Context, query string, vector entities.VectorName, topK int, filters entities.SearchFilters) ([]entities.SearchHit, error)

	// Index upserts one facility document with its embedding fields.
	Index(ctx context.Context, facility *entities.Facility) error

	// EnsureSchema creates the collection when missing.
	EnsureSchema(ctx context.Context) error
}
