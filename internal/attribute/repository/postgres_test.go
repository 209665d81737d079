package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fekuna/marketplace-listing-service/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) (*PGRepository, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	return NewPGRepository(sqlx.NewDb(raw, "pgx")), mock
}

func TestFindActiveByCategoryIDs_ExpandsIn(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "category_id", "key", "label", "type", "unit", "required", "sort_order", "active", "created_at", "updated_at"}).
		AddRow(1, 1, "fuel", "Fuel", "ENUM", nil, true, 0, true, now, now).
		AddRow(2, 3, "mileage", "Mileage", "NUMBER", "km", false, 1, true, now, now)
	mock.ExpectQuery(`category_id IN \(\$1, \$2\)`).
		WithArgs(int64(1), int64(3)).
		WillReturnRows(rows)

	defs, err := repo.FindActiveByCategoryIDs(context.Background(), []int64{1, 3})
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, model.AttributeTypeEnum, defs[0].Type)
	require.NotNil(t, defs[1].Unit)
	assert.Equal(t, "km", *defs[1].Unit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindActiveByCategoryIDs_EmptyInputSkipsQuery(t *testing.T) {
	repo, mock := newRepo(t)

	defs, err := repo.FindActiveByCategoryIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, defs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindDefinitionByKey_NotFoundIsNil(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery("FROM attribute_definitions").
		WithArgs(int64(2), "fuel").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	def, err := repo.FindDefinitionByKey(context.Background(), 2, "fuel")
	require.NoError(t, err)
	assert.Nil(t, def)
}

func TestCreateOption_ReturnsID(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery("INSERT INTO attribute_options").
		WithArgs(int64(5), "diesel", "Diesel", 0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	opt := &model.AttributeOption{AttributeDefinitionID: 5, Value: "diesel", Label: "Diesel"}
	require.NoError(t, repo.CreateOption(context.Background(), opt))
	assert.Equal(t, int64(11), opt.ID)
}
