package repositories

import (
	"context"

	"github.com/glowtrip/procedure-recommender/internal/domain/entities"
)

// CategoryRecoveryRepository is the category-recovery metadata
// collaborator. A per-language table is small enough to load in full and
// index in memory, so the port exposes only whole-language reads.
type CategoryRecoveryRepository interface {
	ListByLanguage(ctx context.Context, language string) ([]*entities.CategoryRecovery, error)
}

// CategoryKeywordRepository backs the keyword-to-category lookup.
type CategoryKeywordRepository interface {
	ListByLanguage(ctx context.Context, language string) ([]*entities.CategoryKeyword, error)
}
