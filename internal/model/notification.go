package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type NotificationType string

const (
	NotificationLowStock          NotificationType = "low_stock"
	NotificationOutOfStock        NotificationType = "out_of_stock"
	NotificationReorderSuggestion NotificationType = "reorder_suggestion"
	NotificationOrderPlaced       NotificationType = "order_placed"
	NotificationOrderCompleted    NotificationType = "order_completed"
	NotificationOrderCancelled    NotificationType = "order_cancelled"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationLowStock, NotificationOutOfStock, NotificationReorderSuggestion,
		NotificationOrderPlaced, NotificationOrderCompleted, NotificationOrderCancelled:
		return true
	}
	return false
}

type Notification struct {
	ID          string           `db:"id" json:"id"`
	Type        NotificationType `db:"type" json:"type"`
	Title       string           `db:"title" json:"title"`
	Message     string           `db:"message" json:"message"`
	StoreID     string           `db:"store_id" json:"store"`
	ItemID      *string          `db:"item_id" json:"item,omitempty"`
	OrderID     *string          `db:"order_id" json:"order,omitempty"`
	RecipientID string           `db:"recipient_id" json:"recipient"`
	IsRead      bool             `db:"is_read" json:"isRead"`
	Metadata    Metadata         `db:"metadata" json:"metadata"`
	CreatedAt   time.Time        `db:"created_at" json:"createdAt"`
}

// Metadata is a free-form JSON object stored in a jsonb column.
type Metadata map[string]interface{}

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *Metadata) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*m = Metadata{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("metadata: unsupported type %T", src)
	}
	out := Metadata{}
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*m = out
	return nil
}
