package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/glowtrip/procedure-recommender/internal/domain/entities"
	"github.com/glowtrip/procedure-recommender/internal/domain/repositories"
	"github.com/glowtrip/procedure-recommender/internal/infrastructure/clients/postgres"
	apperrors "github.com/glowtrip/procedure-recommender/pkg/errors"
)

// CategoryRecoveryAdapter implements CategoryRecoveryRepository and
// CategoryKeywordRepository over the taxonomy metadata tables.
//
// The four language tables were migrated at different times and disagree
// on column names for the same facts; the COALESCE projections below fold
// whichever legacy column is populated into the canonical field once, so
// no business logic ever sees the legacy names.
type CategoryRecoveryAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

var _ repositories.CategoryRecoveryRepository = (*CategoryRecoveryAdapter)(nil)

// NewCategoryRecoveryAdapter creates a new category recovery adapter
func NewCategoryRecoveryAdapter(client *postgres.Client) *CategoryRecoveryAdapter {
	return &CategoryRecoveryAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

const (
	categoryRecoveryTable = "category_recovery"
	categoryKeywordTable  = "category_keywords"
)

type categoryRecoveryRow struct {
	ID               string         `db:"id"`
	Language         string         `db:"language"`
	Label            string         `db:"label"`
	GroupKey         string         `db:"group_key"`
	RecoveryMinDays  int            `db:"recovery_min_days"`
	RecoveryMaxDays  int            `db:"recovery_max_days"`
	ProcedureTimeMin int            `db:"procedure_time_min"`
	ProcedureTimeMax int            `db:"procedure_time_max"`
	StayDays         int            `db:"stay_days"`
	Guidance1To3     sql.NullString `db:"guidance_1_3"`
	Guidance4To7     sql.NullString `db:"guidance_4_7"`
	Guidance8To14    sql.NullString `db:"guidance_8_14"`
	Guidance15To21   sql.NullString `db:"guidance_15_21"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

func (r *categoryRecoveryRow) toEntity() *entities.CategoryRecovery {
	return &entities.CategoryRecovery{
		ID:               r.ID,
		Language:         r.Language,
		Label:            r.Label,
		GroupKey:         r.GroupKey,
		RecoveryMinDays:  r.RecoveryMinDays,
		RecoveryMaxDays:  r.RecoveryMaxDays,
		ProcedureTimeMin: r.ProcedureTimeMin,
		ProcedureTimeMax: r.ProcedureTimeMax,
		StayDays:         r.StayDays,
		Guidance1To3:     r.Guidance1To3.String,
		Guidance4To7:     r.Guidance4To7.String,
		Guidance8To14:    r.Guidance8To14.String,
		Guidance15To21:   r.Guidance15To21.String,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

// ListByLanguage returns the full recovery metadata table for a language.
func (a *CategoryRecoveryAdapter) ListByLanguage(ctx context.Context, language string) ([]*entities.CategoryRecovery, error) {
	if language == "" {
		return nil, apperrors.NewValidationError("recovery metadata listing requires a language")
	}

	query, args, err := a.db.Select(
		goqu.I("id"),
		goqu.I("language"),
		goqu.COALESCE(goqu.I("label"), goqu.I("category_name"), goqu.V("")).As("label"),
		goqu.COALESCE(goqu.I("group_key"), goqu.I("category_mid_key"), goqu.V("")).As("group_key"),
		goqu.COALESCE(goqu.I("recovery_min_days"), goqu.I("downtime_min"), goqu.V(0)).As("recovery_min_days"),
		goqu.COALESCE(goqu.I("recovery_max_days"), goqu.I("downtime_max"), goqu.V(0)).As("recovery_max_days"),
		goqu.COALESCE(goqu.I("procedure_time_min"), goqu.I("op_time_min"), goqu.V(0)).As("procedure_time_min"),
		goqu.COALESCE(goqu.I("procedure_time_max"), goqu.I("op_time_max"), goqu.V(0)).As("procedure_time_max"),
		goqu.COALESCE(goqu.I("stay_days"), goqu.I("recommended_stay_days"), goqu.V(0)).As("stay_days"),
		goqu.I("guidance_1_3"),
		goqu.I("guidance_4_7"),
		goqu.I("guidance_8_14"),
		goqu.I("guidance_15_21"),
		goqu.I("created_at"),
		goqu.I("updated_at"),
	).
		From(categoryRecoveryTable).
		Where(goqu.Ex{"language": language}).
		Order(goqu.I("label").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build recovery metadata query", err)
	}

	var rows []categoryRecoveryRow
	if err := a.client.DBX().SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperrors.NewExternalError("failed to list recovery metadata", err)
	}

	records := make([]*entities.CategoryRecovery, len(rows))
	for i := range rows {
		records[i] = rows[i].toEntity()
	}
	return records, nil
}

// CategoryKeywordAdapter implements CategoryKeywordRepository over the
// keyword-to-category table.
type CategoryKeywordAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

var _ repositories.CategoryKeywordRepository = (*CategoryKeywordAdapter)(nil)

// NewCategoryKeywordAdapter creates a new category keyword adapter
func NewCategoryKeywordAdapter(client *postgres.Client) *CategoryKeywordAdapter {
	return &CategoryKeywordAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

type categoryKeywordRow struct {
	ID       string `db:"id"`
	Language string `db:"language"`
	Keyword  string `db:"keyword"`
	GroupKey string `db:"group_key"`
}

// ListByLanguage returns the full keyword table for a language.
func (a *CategoryKeywordAdapter) ListByLanguage(ctx context.Context, language string) ([]*entities.CategoryKeyword, error) {
	if language == "" {
		return nil, apperrors.NewValidationError("keyword listing requires a language")
	}

	query, args, err := a.db.Select(
		goqu.I("id"),
		goqu.I("language"),
		goqu.I("keyword"),
		goqu.COALESCE(goqu.I("group_key"), goqu.I("category_mid_key"), goqu.V("")).As("group_key"),
	).
		From(categoryKeywordTable).
		Where(goqu.Ex{"language": language}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build keyword query", err)
	}

	var rows []categoryKeywordRow
	if err := a.client.DBX().SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperrors.NewExternalError("failed to list category keywords", err)
	}

	keywords := make([]*entities.CategoryKeyword, len(rows))
	for i := range rows {
		keywords[i] = &entities.CategoryKeyword{
			ID:       rows[i].ID,
			Language: rows[i].Language,
			Keyword:  rows[i].Keyword,
			GroupKey: rows[i].GroupKey,
		}
	}
	return keywords, nil
}
