package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/glowtrip/procedure-recommender/internal/adapters/database"
	"github.com/glowtrip/procedure-recommender/internal/domain/repositories"
	"github.com/glowtrip/procedure-recommender/internal/infrastructure/clients/postgres"
	apperrors "github.com/glowtrip/procedure-recommender/pkg/errors"
)

var procedureCols = []string{
	"id", "name", "clinic_id", "language",
	"large_category", "mid_category", "small_category",
	"price", "currency", "discount_rate", "rating", "review_count",
	"recovery_text", "duration_text",
	"is_active", "created_at", "updated_at",
}

func newMockedAdapter(t *testing.T) (*database.ProcedureAdapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	client := postgres.NewClientWithDB(db)
	return database.NewProcedureAdapter(client), mock
}

func TestProcedureAdapter_List(t *testing.T) {
	adapter, mock := newMockedAdapter(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM "procedures" WHERE .+"language" = 'ko'.+"is_active" IS TRUE`).
		WillReturnRows(sqlmock.NewRows(procedureCols).
			AddRow("p1", "코끝 성형", "c1", "ko",
				"코성형", "코끝", "",
				1_500_000.0, "KRW", 10.0, 4.8, 210,
				"3일", "30분",
				true, now, now).
			AddRow("p2", "눈매교정", "c2", "ko",
				"눈성형", "눈매교정", "",
				nil, nil, 0.0, 4.5, 5000,
				nil, nil,
				true, now, now))

	procedures, err := adapter.List(context.Background(), repositories.ProcedureFilter{Language: "ko"})
	require.NoError(t, err)
	require.Len(t, procedures, 2)

	assert.Equal(t, "코끝 성형", procedures[0].Name)
	assert.Equal(t, "코성형::코끝", procedures[0].GroupKey())
	assert.True(t, procedures[0].HasPrice())

	// Nullable legacy columns fold to zero values at the boundary.
	assert.False(t, procedures[1].HasPrice())
	assert.Empty(t, procedures[1].RecoveryText)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcedureAdapter_ListRequiresLanguage(t *testing.T) {
	adapter, _ := newMockedAdapter(t)

	_, err := adapter.List(context.Background(), repositories.ProcedureFilter{})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.TypeOf(err))
}

func TestProcedureAdapter_GetByIDNotFound(t *testing.T) {
	adapter, mock := newMockedAdapter(t)

	mock.ExpectQuery(`SELECT .+ FROM "procedures" WHERE .+"id" = 'missing'`).
		WillReturnRows(sqlmock.NewRows(procedureCols))

	_, err := adapter.GetByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestProcedureAdapter_Count(t *testing.T) {
	adapter, mock := newMockedAdapter(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "procedures"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	count, err := adapter.Count(context.Background(), repositories.ProcedureFilter{Language: "en"})
	require.NoError(t, err)
	assert.Equal(t, 42, count)
}
