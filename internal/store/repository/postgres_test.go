package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{"id", "name", "address", "longitude", "latitude", "manager_id", "is_active", "created_at", "updated_at"}

func newMock(t *testing.T) (*PGRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewPGRepository(sqlx.NewDb(db, "pgx")), mock
}

func TestFindByID_MapsLocation(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery(`FROM stores WHERE id = \$1`).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows(columns).AddRow("s1", "North", "1 Main St", -73.98, 40.75, "mgr", true, now, now))

	s, err := repo.FindByID(context.Background(), "s1")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, -73.98, s.Location.Longitude)
	assert.Equal(t, 40.75, s.Location.Latitude)
	assert.Equal(t, "mgr", s.ManagerID)
}

func TestFindByID_NotFound(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(`FROM stores WHERE id = \$1`).WithArgs("nope").WillReturnRows(sqlmock.NewRows(columns))

	s, err := repo.FindByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestListByManager(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM stores WHERE manager_id = $1 AND is_active = TRUE ORDER BY name`)).
		WithArgs("mgr").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("s1", "North", "", 1.0, 2.0, "mgr", true, now, now).
			AddRow("s2", "South", "", 3.0, 4.0, "mgr", true, now, now))

	stores, err := repo.ListByManager(context.Background(), "mgr")
	require.NoError(t, err)
	require.Len(t, stores, 2)
	assert.Equal(t, "South", stores[1].Name)
}

func TestCreate_FlattensLocation(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO stores`).
		WithArgs("s1", "North", "1 Main St", -73.98, 40.75, "mgr", true, now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &model.Store{
		BaseModel: model.BaseModel{ID: "s1", CreatedAt: now, UpdatedAt: now},
		Name:      "North",
		Address:   "1 Main St",
		Location:  model.GeoPoint{Longitude: -73.98, Latitude: 40.75},
		ManagerID: "mgr",
		IsActive:  true,
	})
	assert.NoError(t, err)
}

func TestUpdate_KeepsManager(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(`^UPDATE stores SET name = \$1, address = \$2, longitude = \$3, latitude = \$4, updated_at = \$5 WHERE id = \$6$`).
		WithArgs("North", "2 Main St", 1.0, 2.0, now, "s1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), &model.Store{
		BaseModel: model.BaseModel{ID: "s1", UpdatedAt: now},
		Name:      "North",
		Address:   "2 Main St",
		Location:  model.GeoPoint{Longitude: 1, Latitude: 2},
		ManagerID: "someone-else",
	})
	assert.NoError(t, err)
}

func TestDeactivate(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE stores SET is_active = FALSE, updated_at = NOW() WHERE id = $1`)).
		WithArgs("s1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Deactivate(context.Background(), "s1"))
}
