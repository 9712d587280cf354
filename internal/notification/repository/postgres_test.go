package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/notification/dto"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{
	"id", "type", "title", "message", "store_id", "item_id", "order_id",
	"recipient_id", "is_read", "metadata", "created_at",
}

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

func lowStock(at time.Time) *model.Notification {
	itemID := "i1"
	return &model.Notification{
		ID:          "n1",
		Type:        model.NotificationLowStock,
		Title:       "Low Stock Alert",
		Message:     "Milk is running low",
		StoreID:     "s1",
		ItemID:      &itemID,
		RecipientID: "mgr",
		Metadata:    model.Metadata{"currentQuantity": 2},
		CreatedAt:   at,
	}
}

func TestCreateIfAbsent_Inserts(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	since := now.Add(-24 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock(hashtext($1))`)).
		WithArgs("i1:low_stock").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("i1", "low_stock", since).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`INSERT INTO notifications`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	created, err := repo.CreateIfAbsent(context.Background(), lowStock(now), since)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestCreateIfAbsent_SkipsDuplicate(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	since := now.Add(-24 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectExec(`pg_advisory_xact_lock`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("i1", "low_stock", since).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	created, err := repo.CreateIfAbsent(context.Background(), lowStock(now), since)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestCreateIfAbsent_InsertErrorRollsBack(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(`pg_advisory_xact_lock`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS`).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`INSERT INTO notifications`).WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	created, err := repo.CreateIfAbsent(context.Background(), lowStock(now), now.Add(-time.Hour))
	assert.Error(t, err)
	assert.False(t, created)
}

func TestCreateIfAbsent_RequiresItem(t *testing.T) {
	repo, _ := newMock(t)
	n := lowStock(time.Now())
	n.ItemID = nil

	_, err := repo.CreateIfAbsent(context.Background(), n, time.Now())
	assert.Error(t, err)
}

func TestFindAll_BuildsFilters(t *testing.T) {
	repo, mock := newMock(t)
	since := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	created := since.Add(time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT * FROM notifications WHERE recipient_id = $1 AND store_id IN ($2, $3) AND created_at > $4 AND is_read = FALSE ORDER BY created_at DESC LIMIT 50`,
	)).
		WithArgs("mgr", "s1", "s2", since).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("n1", "low_stock", "Low Stock Alert", "msg", "s1", "i1", nil, "mgr", false, `{"currentQuantity":2}`, created))

	out, err := repo.FindAll(context.Background(), &dto.NotificationFilters{
		RecipientID: "mgr",
		StoreIDs:    []string{"s1", "s2"},
		Since:       &since,
		UnreadOnly:  true,
		Limit:       50,
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, model.NotificationLowStock, out[0].Type)
	assert.Equal(t, "i1", *out[0].ItemID)
	assert.Nil(t, out[0].OrderID)
	assert.Equal(t, float64(2), out[0].Metadata["currentQuantity"])
}

func TestFindAll_EmptyStoreScope(t *testing.T) {
	repo, _ := newMock(t)

	out, err := repo.FindAll(context.Background(), &dto.NotificationFilters{RecipientID: "mgr", StoreIDs: []string{}})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestFindByID_NotFound(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(`SELECT \* FROM notifications WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(columns))

	n, err := repo.FindByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestDeleteOlderThan(t *testing.T) {
	repo, mock := newMock(t)
	cutoff := time.Date(2026, 2, 8, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM notifications WHERE created_at < $1`)).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 7))

	deleted, err := repo.DeleteOlderThan(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(7), deleted)
}

func TestMarkAllRead(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec(`UPDATE notifications SET is_read = TRUE WHERE recipient_id = \$1 AND is_read = FALSE`).
		WithArgs("mgr").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.MarkAllRead(context.Background(), "mgr")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
