package search

import (
	"context"
	"fmt"
	"time"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/glowtrip/procedure-recommender/internal/domain/entities"
	"github.com/glowtrip/procedure-recommender/internal/domain/repositories"
	tsclient "github.com/glowtrip/procedure-recommender/internal/infrastructure/clients/typesense"
)

const collectionName = tsclient.ProceduresCollection

// TypesenseAdapter implements free-text procedure search using Typesense
type TypesenseAdapter struct {
	client *tsclient.Client
}

var _ repositories.ProcedureSearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// InitSchema ensures the collection exists
func (a *TypesenseAdapter) InitSchema(ctx context.Context) error {
	_, err := a.client.Client().Collection(collectionName).Retrieve(ctx)
	if err == nil {
		return nil
	}

	schema := &api.CollectionSchema{
		Name: collectionName,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "name", Type: "string"},
			{Name: "language", Type: "string", Facet: pointer.True()},
			{Name: "large_category", Type: "string", Facet: pointer.True()},
			{Name: "mid_category", Type: "string", Facet: pointer.True()},
			{Name: "small_category", Type: "string", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "price", Type: "float"},
			{Name: "rating", Type: "float"},
			{Name: "review_count", Type: "int32"},
			{Name: "is_active", Type: "bool"},
			{Name: "created_at", Type: "int64"},
		},
		DefaultSortingField: pointer.String("created_at"),
	}

	_, err = a.client.Client().Collections().Create(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create typesense collection: %w", err)
	}

	return nil
}

// Index indexes a procedure
func (a *TypesenseAdapter) Index(ctx context.Context, procedure *entities.Procedure) error {
	document := map[string]interface{}{
		"id":             procedure.ID,
		"name":           procedure.Name,
		"language":       procedure.Language,
		"large_category": procedure.LargeCategory,
		"mid_category":   procedure.MidCategory,
		"small_category": procedure.SmallCategory,
		"price":          procedure.Price,
		"rating":         procedure.Rating,
		"review_count":   procedure.ReviewCount,
		"is_active":      procedure.IsActive,
		"created_at":     procedure.CreatedAt.Unix(),
	}

	_, err := a.client.Client().Collection(collectionName).Documents().Upsert(ctx, document)
	if err != nil {
		return fmt.Errorf("failed to index procedure: %w", err)
	}

	return nil
}

// Delete removes a procedure from the index
func (a *TypesenseAdapter) Delete(ctx context.Context, id string) error {
	_, err := a.client.Client().Collection(collectionName).Document(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete procedure from index: %w", err)
	}
	return nil
}

// Search performs a free-text catalog search scoped to one language
func (a *TypesenseAdapter) Search(ctx context.Context, filter repositories.ProcedureFilter) ([]*entities.Procedure, error) {
	q := filter.Search
	if q == "" {
		q = "*"
	}

	filterBy := fmt.Sprintf("is_active:=true && language:=%s", filter.Language)
	if filter.LargeCategory != "" {
		filterBy += fmt.Sprintf(" && large_category:=%s", filter.LargeCategory)
	}
	if filter.MidCategory != "" {
		filterBy += fmt.Sprintf(" && mid_category:=%s", filter.MidCategory)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	page := 1
	if filter.Offset > 0 {
		page = filter.Offset/limit + 1
	}

	searchParams := &api.SearchCollectionParams{
		Q:        pointer.String(q),
		QueryBy:  pointer.String("name,large_category,mid_category"),
		FilterBy: pointer.String(filterBy),
		SortBy:   pointer.String("rating:desc,review_count:desc"),
		Page:     pointer.Int(page),
		PerPage:  pointer.Int(limit),
	}

	result, err := a.client.Client().Collection(collectionName).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("failed to search procedures: %w", err)
	}

	var procedures []*entities.Procedure
	if result.Hits == nil {
		return procedures, nil
	}

	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		procedures = append(procedures, documentToProcedure(*hit.Document))
	}

	return procedures, nil
}

func documentToProcedure(doc map[string]interface{}) *entities.Procedure {
	p := &entities.Procedure{
		ID:            asString(doc["id"]),
		Name:          asString(doc["name"]),
		Language:      asString(doc["language"]),
		LargeCategory: asString(doc["large_category"]),
		MidCategory:   asString(doc["mid_category"]),
		SmallCategory: asString(doc["small_category"]),
		Price:         asFloat(doc["price"]),
		Rating:        asFloat(doc["rating"]),
		ReviewCount:   int(asFloat(doc["review_count"])),
		IsActive:      true,
	}
	if ts, ok := doc["created_at"].(float64); ok {
		p.CreatedAt = time.Unix(int64(ts), 0)
	}
	return p
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}
