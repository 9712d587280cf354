package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/notification/dto"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

const insertQuery = `
    INSERT INTO notifications (
        id, type, title, message, store_id, item_id, order_id,
        recipient_id, is_read, metadata, created_at
    )
    VALUES (
        :id, :type, :title, :message, :store_id, :item_id, :order_id,
        :recipient_id, :is_read, :metadata, :created_at
    )
`

const existsQuery = `
    SELECT EXISTS (
        SELECT 1 FROM notifications
        WHERE item_id = $1 AND type = $2 AND is_read = FALSE AND created_at >= $3
    )
`

func (r *PGRepository) Create(ctx context.Context, n *model.Notification) error {
	_, err := r.DB.NamedExecContext(ctx, insertQuery, n)
	return err
}

func (r *PGRepository) CreateIfAbsent(ctx context.Context, n *model.Notification, since time.Time) (bool, error) {
	if n.ItemID == nil {
		return false, errors.New("dedup insert requires an item reference")
	}

	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	// Serializes writers for the same (item, type) until commit.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, *n.ItemID+":"+string(n.Type)); err != nil {
		return false, fmt.Errorf("advisory lock: %w", err)
	}

	var exists bool
	err = tx.GetContext(ctx, &exists, existsQuery, *n.ItemID, string(n.Type), since)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	if _, err := tx.NamedExecContext(ctx, insertQuery, n); err != nil {
		return false, fmt.Errorf("insert notification: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func (r *PGRepository) ExistsUnreadSince(ctx context.Context, itemID string, typ model.NotificationType, since time.Time) (bool, error) {
	var exists bool
	err := r.DB.GetContext(ctx, &exists, existsQuery, itemID, string(typ), since)
	return exists, err
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Notification, error) {
	var n model.Notification
	err := r.DB.GetContext(ctx, &n, `SELECT * FROM notifications WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.NotificationFilters) ([]model.Notification, error) {
	conditions := []string{}
	args := []interface{}{}

	if f.RecipientID != "" {
		conditions = append(conditions, "recipient_id = ?")
		args = append(args, f.RecipientID)
	}
	if f.StoreIDs != nil {
		if len(f.StoreIDs) == 0 {
			return []model.Notification{}, nil
		}
		conditions = append(conditions, "store_id IN (?)")
		args = append(args, f.StoreIDs)
	}
	if f.Since != nil {
		conditions = append(conditions, "created_at > ?")
		args = append(args, *f.Since)
	}
	if f.UnreadOnly {
		conditions = append(conditions, "is_read = FALSE")
	}

	query := "SELECT * FROM notifications"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, err
	}
	query = r.DB.Rebind(query)

	var out []model.Notification
	if err := r.DB.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PGRepository) CountUnread(ctx context.Context, recipientID string) (int, error) {
	var count int
	err := r.DB.GetContext(ctx, &count, `SELECT count(*) FROM notifications WHERE recipient_id = $1 AND is_read = FALSE`, recipientID)
	return count, err
}

func (r *PGRepository) MarkRead(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1`, id)
	return err
}

func (r *PGRepository) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	return r.exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE recipient_id = $1 AND is_read = FALSE`, recipientID)
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	return err
}

func (r *PGRepository) DeleteByRecipient(ctx context.Context, recipientID string) (int64, error) {
	return r.exec(ctx, `DELETE FROM notifications WHERE recipient_id = $1`, recipientID)
}

func (r *PGRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	return r.exec(ctx, `DELETE FROM notifications WHERE created_at < $1`, before)
}

func (r *PGRepository) exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
