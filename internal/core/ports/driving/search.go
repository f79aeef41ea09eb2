package driving

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// SearchService provides search operations over stored OCR text.
type SearchService interface {
	// Search returns images whose spans match the query, best first.
	// An empty or whitespace query returns an empty result.
	// Malformed queries return domain.ErrInvalidQuery.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)
}
