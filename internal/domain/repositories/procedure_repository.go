package repositories

import (
	"context"

	"github.com/glowtrip/procedure-recommender/internal/domain/entities"
)

// ProcedureFilter narrows a catalog listing. Language is required; the
// catalog tables are language-scoped and labels are never comparable
// across languages.
type ProcedureFilter struct {
	Language      string
	LargeCategory string
	MidCategory   string
	SmallCategory string
	Search        string
	Limit         int
	Offset        int

	// IncludeInactive also returns deactivated records; the search
	// indexer uses it to prune them from the index.
	IncludeInactive bool
}

// ProcedureRepository is the read-only procedure catalog collaborator.
type ProcedureRepository interface {
	GetByID(ctx context.Context, id string) (*entities.Procedure, error)

	// List returns active catalog records matching the filter.
	List(ctx context.Context, filter ProcedureFilter) ([]*entities.Procedure, error)

	// Count reports the total matching the filter, pagination aside.
	Count(ctx context.Context, filter ProcedureFilter) (int, error)
}

// ProcedureSearchRepository is the free-text search collaborator backing
// the catalog's search box. Optional; callers fall back to the database
// when no search engine is configured.
type ProcedureSearchRepository interface {
	Index(ctx context.Context, procedure *entities.Procedure) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, filter ProcedureFilter) ([]*entities.Procedure, error)
}
