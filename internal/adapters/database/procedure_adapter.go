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

// ProcedureAdapter implements ProcedureRepository over the read-only
// procedure catalog tables.
type ProcedureAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

var _ repositories.ProcedureRepository = (*ProcedureAdapter)(nil)

// NewProcedureAdapter creates a new procedure adapter
func NewProcedureAdapter(client *postgres.Client) *ProcedureAdapter {
	return &ProcedureAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

const proceduresTable = "procedures"

var procedureColumns = []interface{}{
	"id", "name", "clinic_id", "language",
	"large_category", "mid_category", "small_category",
	"price", "currency", "discount_rate", "rating", "review_count",
	"recovery_text", "duration_text",
	"is_active", "created_at", "updated_at",
}

// procedureRow adapts the nullable legacy catalog columns into the
// canonical entity exactly once, at this boundary.
type procedureRow struct {
	ID            string          `db:"id"`
	Name          string          `db:"name"`
	ClinicID      sql.NullString  `db:"clinic_id"`
	Language      string          `db:"language"`
	LargeCategory sql.NullString  `db:"large_category"`
	MidCategory   sql.NullString  `db:"mid_category"`
	SmallCategory sql.NullString  `db:"small_category"`
	Price         sql.NullFloat64 `db:"price"`
	Currency      sql.NullString  `db:"currency"`
	DiscountRate  sql.NullFloat64 `db:"discount_rate"`
	Rating        sql.NullFloat64 `db:"rating"`
	ReviewCount   sql.NullInt64   `db:"review_count"`
	RecoveryText  sql.NullString  `db:"recovery_text"`
	DurationText  sql.NullString  `db:"duration_text"`
	IsActive      bool            `db:"is_active"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

func (r *procedureRow) toEntity() *entities.Procedure {
	return &entities.Procedure{
		ID:            r.ID,
		Name:          r.Name,
		ClinicID:      r.ClinicID.String,
		Language:      r.Language,
		LargeCategory: r.LargeCategory.String,
		MidCategory:   r.MidCategory.String,
		SmallCategory: r.SmallCategory.String,
		Price:         r.Price.Float64,
		Currency:      r.Currency.String,
		DiscountRate:  r.DiscountRate.Float64,
		Rating:        r.Rating.Float64,
		ReviewCount:   int(r.ReviewCount.Int64),
		RecoveryText:  r.RecoveryText.String,
		DurationText:  r.DurationText.String,
		IsActive:      r.IsActive,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// GetByID retrieves a procedure by ID
func (a *ProcedureAdapter) GetByID(ctx context.Context, id string) (*entities.Procedure, error) {
	query, args, err := a.db.Select(procedureColumns...).
		From(proceduresTable).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build procedure query", err)
	}

	var row procedureRow
	if err := a.client.DBX().GetContext(ctx, &row, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NewNotFoundError("procedure not found: " + id)
		}
		return nil, apperrors.NewExternalError("failed to get procedure", err)
	}

	return row.toEntity(), nil
}

// List returns active catalog records matching the filter
func (a *ProcedureAdapter) List(ctx context.Context, filter repositories.ProcedureFilter) ([]*entities.Procedure, error) {
	if filter.Language == "" {
		return nil, apperrors.NewValidationError("procedure listing requires a language")
	}

	ds := a.db.Select(procedureColumns...).
		From(proceduresTable).
		Where(a.filterExpr(filter)).
		Order(goqu.I("rating").Desc(), goqu.I("review_count").Desc(), goqu.I("id").Asc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build procedure list query", err)
	}

	var rows []procedureRow
	if err := a.client.DBX().SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperrors.NewExternalError("failed to list procedures", err)
	}

	procedures := make([]*entities.Procedure, len(rows))
	for i := range rows {
		procedures[i] = rows[i].toEntity()
	}
	return procedures, nil
}

// Count reports the total matching the filter
func (a *ProcedureAdapter) Count(ctx context.Context, filter repositories.ProcedureFilter) (int, error) {
	if filter.Language == "" {
		return 0, apperrors.NewValidationError("procedure count requires a language")
	}

	query, args, err := a.db.Select(goqu.COUNT("*")).
		From(proceduresTable).
		Where(a.filterExpr(filter)).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build procedure count query", err)
	}

	var count int
	if err := a.client.DBX().GetContext(ctx, &count, query, args...); err != nil {
		return 0, apperrors.NewExternalError("failed to count procedures", err)
	}
	return count, nil
}

func (a *ProcedureAdapter) filterExpr(filter repositories.ProcedureFilter) goqu.Expression {
	conditions := []goqu.Expression{
		goqu.Ex{"language": filter.Language},
	}
	if !filter.IncludeInactive {
		conditions = append(conditions, goqu.Ex{"is_active": true})
	}
	if filter.LargeCategory != "" {
		conditions = append(conditions, goqu.Ex{"large_category": filter.LargeCategory})
	}
	if filter.MidCategory != "" {
		conditions = append(conditions, goqu.Ex{"mid_category": filter.MidCategory})
	}
	if filter.SmallCategory != "" {
		conditions = append(conditions, goqu.Ex{"small_category": filter.SmallCategory})
	}
	if filter.Search != "" {
		conditions = append(conditions, goqu.I("name").ILike("%"+filter.Search+"%"))
	}
	return goqu.And(conditions...)
}
