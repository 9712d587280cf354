package notification

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/notification/dto"
)

type Repository interface {
	Create(ctx context.Context, n *model.Notification) error
	// CreateIfAbsent inserts n unless an unread notification of the same type for
	// the same item was created at or after since. The check and the insert are atomic.
	CreateIfAbsent(ctx context.Context, n *model.Notification, since time.Time) (bool, error)
	ExistsUnreadSince(ctx context.Context, itemID string, typ model.NotificationType, since time.Time) (bool, error)

	FindByID(ctx context.Context, id string) (*model.Notification, error)
	FindAll(ctx context.Context, filters *dto.NotificationFilters) ([]model.Notification, error)
	CountUnread(ctx context.Context, recipientID string) (int, error)

	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)

	Delete(ctx context.Context, id string) error
	DeleteByRecipient(ctx context.Context, recipientID string) (int64, error)
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}
