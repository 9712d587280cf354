package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/item"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/notification"
	"github.com/fekuna/omnipos-stock-service/internal/store"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	EventOrderPlaced    = "OrderPlaced"
	EventOrderCancelled = "OrderCancelled"
	EventOrderCompleted = "OrderCompleted"
)

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type OrderListener struct {
	consumer      MessageReader
	items         item.UseCase
	notifications notification.UseCase
	stores        store.Repository
	logger        logger.ZapLogger
	retryDelay    time.Duration
}

func NewOrderListener(
	consumer MessageReader,
	items item.UseCase,
	notifications notification.UseCase,
	stores store.Repository,
	logger logger.ZapLogger,
) *OrderListener {
	return &OrderListener{
		consumer:      consumer,
		items:         items,
		notifications: notifications,
		stores:        stores,
		logger:        logger,
		retryDelay:    time.Second,
	}
}

func (l *OrderListener) Start(ctx context.Context) {
	l.logger.Info("Starting Order Kafka Listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping Order Kafka Listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(l.retryDelay):
				}
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type OrderEvent struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Payload   OrderPayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

type OrderPayload struct {
	ID          string             `json:"id"`
	StoreID     string             `json:"store_id"`
	CustomerID  string             `json:"customer_id"`
	TotalAmount float64            `json:"total_amount"`
	Items       []OrderItemPayload `json:"items"`
}

type OrderItemPayload struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

func (l *OrderListener) processMessage(ctx context.Context, value []byte) {
	var event OrderEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	var err error
	switch event.EventType {
	case EventOrderPlaced:
		err = l.orderPlaced(ctx, &event.Payload)
	case EventOrderCancelled:
		err = l.notifyCustomer(ctx, &event.Payload, model.NotificationOrderCancelled, "Order Cancelled", "cancelled")
	case EventOrderCompleted:
		err = l.notifyCustomer(ctx, &event.Payload, model.NotificationOrderCompleted, "Order Completed", "completed")
	default:
		return
	}
	if err != nil {
		l.logger.Error("Failed to process order event",
			zap.String("event_type", event.EventType),
			zap.String("order_id", event.Payload.ID),
			zap.Error(err),
		)
	}
}

// orderPlaced reserves stock for every line and tells the store manager. The
// manager is notified even when the reservation fails.
func (l *OrderListener) orderPlaced(ctx context.Context, p *OrderPayload) error {
	l.logger.Info("Processing OrderPlaced event", zap.String("order_id", p.ID))

	quantities := make(map[string]int, len(p.Items))
	for _, it := range p.Items {
		quantities[it.ItemID] += it.Quantity
	}

	reserved := true
	if err := l.items.ReserveStock(ctx, quantities); err != nil {
		reserved = false
		l.logger.Error("Failed to reserve stock for order", zap.String("order_id", p.ID), zap.Error(err))
	}

	s, err := l.stores.FindByID(ctx, p.StoreID)
	if err != nil {
		return err
	}
	if s == nil {
		return fmt.Errorf("order %s: %w", p.ID, item.ErrStoreNotFound)
	}

	orderID := p.ID
	return l.notifications.Notify(ctx, &model.Notification{
		Type:        model.NotificationOrderPlaced,
		Title:       "New Order Received",
		Message:     fmt.Sprintf("Order #%s has been placed with total amount $%.2f", p.ID, p.TotalAmount),
		StoreID:     s.ID,
		OrderID:     &orderID,
		RecipientID: s.ManagerID,
		Metadata: model.Metadata{
			"totalAmount":   p.TotalAmount,
			"itemCount":     len(p.Items),
			"stockReserved": reserved,
		},
	})
}

func (l *OrderListener) notifyCustomer(ctx context.Context, p *OrderPayload, typ model.NotificationType, title, verb string) error {
	if p.CustomerID == "" {
		return fmt.Errorf("order %s has no customer", p.ID)
	}
	orderID := p.ID
	return l.notifications.Notify(ctx, &model.Notification{
		Type:        typ,
		Title:       title,
		Message:     fmt.Sprintf("Your order #%s has been %s", p.ID, verb),
		StoreID:     p.StoreID,
		OrderID:     &orderID,
		RecipientID: p.CustomerID,
	})
}
