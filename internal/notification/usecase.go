package notification

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/auth"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/notification/dto"
)

type UseCase interface {
	Notify(ctx context.Context, n *model.Notification) error

	ListNotifications(ctx context.Context, user auth.UserContext, query *dto.ListQuery) ([]model.Notification, error)
	UnreadCount(ctx context.Context, recipientID string) (int, error)
	MarkRead(ctx context.Context, recipientID, notificationID string) error
	MarkAllRead(ctx context.Context, recipientID string) error
	DeleteNotification(ctx context.Context, recipientID, notificationID string) error
	DeleteAll(ctx context.Context, recipientID string) error
}
