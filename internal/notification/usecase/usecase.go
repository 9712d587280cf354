package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/auth"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/notification"
	"github.com/fekuna/omnipos-stock-service/internal/notification/dto"
	"github.com/fekuna/omnipos-stock-service/internal/store"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type notificationUseCase struct {
	repo   notification.Repository
	stores store.Repository
	logger logger.ZapLogger
}

func NewNotificationUseCase(repo notification.Repository, stores store.Repository, log logger.ZapLogger) notification.UseCase {
	return &notificationUseCase{
		repo:   repo,
		stores: stores,
		logger: log,
	}
}

func (uc *notificationUseCase) Notify(ctx context.Context, n *model.Notification) error {
	if !n.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", notification.ErrInvalid, n.Type)
	}
	if n.RecipientID == "" {
		return fmt.Errorf("%w: recipient is required", notification.ErrInvalid)
	}
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if n.Metadata == nil {
		n.Metadata = model.Metadata{}
	}
	if err := uc.repo.Create(ctx, n); err != nil {
		return err
	}
	uc.logger.Debug("notification created",
		zap.String("type", string(n.Type)),
		zap.String("recipient_id", n.RecipientID),
	)
	return nil
}

func (uc *notificationUseCase) ListNotifications(ctx context.Context, user auth.UserContext, q *dto.ListQuery) ([]model.Notification, error) {
	filters := &dto.NotificationFilters{
		RecipientID: user.UserID,
		Since:       q.Since,
		UnreadOnly:  q.UnreadOnly,
		Limit:       q.Limit,
	}
	if filters.Limit <= 0 {
		filters.Limit = dto.DefaultListLimit
	}

	// Managers only see notifications of stores they still run.
	if user.IsManager() {
		stores, err := uc.stores.ListByManager(ctx, user.UserID)
		if err != nil {
			return nil, err
		}
		filters.StoreIDs = make([]string, len(stores))
		for i, s := range stores {
			filters.StoreIDs[i] = s.ID
		}
	}

	return uc.repo.FindAll(ctx, filters)
}

func (uc *notificationUseCase) UnreadCount(ctx context.Context, recipientID string) (int, error) {
	return uc.repo.CountUnread(ctx, recipientID)
}

func (uc *notificationUseCase) MarkRead(ctx context.Context, recipientID, notificationID string) error {
	if _, err := uc.owned(ctx, recipientID, notificationID); err != nil {
		return err
	}
	return uc.repo.MarkRead(ctx, notificationID)
}

func (uc *notificationUseCase) MarkAllRead(ctx context.Context, recipientID string) error {
	_, err := uc.repo.MarkAllRead(ctx, recipientID)
	return err
}

func (uc *notificationUseCase) DeleteNotification(ctx context.Context, recipientID, notificationID string) error {
	if _, err := uc.owned(ctx, recipientID, notificationID); err != nil {
		return err
	}
	return uc.repo.Delete(ctx, notificationID)
}

func (uc *notificationUseCase) DeleteAll(ctx context.Context, recipientID string) error {
	deleted, err := uc.repo.DeleteByRecipient(ctx, recipientID)
	if err != nil {
		return err
	}
	uc.logger.Info("notifications deleted", zap.String("recipient_id", recipientID), zap.Int64("count", deleted))
	return nil
}

func (uc *notificationUseCase) owned(ctx context.Context, recipientID, notificationID string) (*model.Notification, error) {
	n, err := uc.repo.FindByID(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, notification.ErrNotFound
	}
	if n.RecipientID != recipientID {
		return nil, notification.ErrForbidden
	}
	return n, nil
}
