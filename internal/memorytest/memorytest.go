// Package memorytest holds map-backed repositories with the same semantics as the
// Postgres ones, for driving usecases, the monitor and handlers in tests.
package memorytest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/item"
	itemdto "github.com/fekuna/omnipos-stock-service/internal/item/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/notification"
	notifdto "github.com/fekuna/omnipos-stock-service/internal/notification/dto"
	"github.com/fekuna/omnipos-stock-service/internal/store"
)

var (
	_ item.Repository         = (*ItemRepo)(nil)
	_ store.Repository        = (*StoreRepo)(nil)
	_ notification.Repository = (*NotificationRepo)(nil)
)

// Hook is called before every repository operation; a non-nil error is returned
// to the caller instead of running the operation.
type Hook func(op string, arg interface{}) error

type DB struct {
	mu            sync.Mutex
	items         map[string]*model.Item
	stores        map[string]*model.Store
	notifications []*model.Notification
	hook          Hook
}

func NewDB() *DB {
	return &DB{
		items:  map[string]*model.Item{},
		stores: map[string]*model.Store{},
	}
}

func (db *DB) SetHook(h Hook) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.hook = h
}

func (db *DB) check(op string, arg interface{}) error {
	if db.hook == nil {
		return nil
	}
	return db.hook(op, arg)
}

func (db *DB) PutStore(s model.Store) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.stores[s.ID] = &s
}

func (db *DB) PutItem(i model.Item) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.items[i.ID] = &i
}

func (db *DB) PutNotification(n model.Notification) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.notifications = append(db.notifications, &n)
}

// Notifications returns a snapshot in insertion order.
func (db *DB) Notifications() []model.Notification {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]model.Notification, len(db.notifications))
	for i, n := range db.notifications {
		out[i] = *n
	}
	return out
}

func (db *DB) Item(id string) (model.Item, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	i, ok := db.items[id]
	if !ok {
		return model.Item{}, false
	}
	return *i, true
}

func (db *DB) Store(id string) (model.Store, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	s, ok := db.stores[id]
	if !ok {
		return model.Store{}, false
	}
	return *s, true
}

// Items

type ItemRepo struct{ db *DB }

func (db *DB) ItemRepo() *ItemRepo { return &ItemRepo{db: db} }

func (r *ItemRepo) Create(ctx context.Context, i *model.Item) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.check("items.Create", i); err != nil {
		return err
	}
	cp := *i
	r.db.items[i.ID] = &cp
	return nil
}

func (r *ItemRepo) FindByID(ctx context.Context, id string) (*model.Item, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.check("items.FindByID", id); err != nil {
		return nil, err
	}
	i, ok := r.db.items[id]
	if !ok {
		return nil, nil
	}
	cp := *i
	return &cp, nil
}

func (r *ItemRepo) FindAll(ctx context.Context, f *itemdto.ItemFilters) ([]model.Item, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.check("items.FindAll", f); err != nil {
		return nil, err
	}

	out := []model.Item{}
	for _, i := range r.db.items {
		if len(f.StoreIDs) > 0 && !contains(f.StoreIDs, i.StoreID) {
			continue
		}
		if f.IsActive != nil && i.IsActive != *f.IsActive {
			continue
		}
		if f.LowStock && !i.NeedsReorder() {
			continue
		}
		if f.OutOfStock && !i.OutOfStock() {
			continue
		}
		out = append(out, *i)
	}

	sort.Slice(out, func(a, b int) bool {
		switch f.SortBy {
		case "quantity":
			if out[a].Quantity != out[b].Quantity {
				return out[a].Quantity < out[b].Quantity
			}
			return out[a].Name < out[b].Name
		case "name":
			return out[a].Name < out[b].Name
		default:
			return out[a].ID < out[b].ID
		}
	})
	return out, nil
}

func (r *ItemRepo) Update(ctx context.Context, i *model.Item) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.check("items.Update", i); err != nil {
		return err
	}
	existing, ok := r.db.items[i.ID]
	if !ok {
		return nil
	}
	cp := *i
	cp.SKU = existing.SKU
	cp.IsActive = existing.IsActive
	cp.Quantity = existing.Quantity
	r.db.items[i.ID] = &cp
	return nil
}

func (r *ItemRepo) Deactivate(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.check("items.Deactivate", id); err != nil {
		return err
	}
	if i, ok := r.db.items[id]; ok {
		i.IsActive = false
	}
	return nil
}

func (r *ItemRepo) IsSKUUnique(ctx context.Context, sku string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.check("items.IsSKUUnique", sku); err != nil {
		return false, err
	}
	for _, i := range r.db.items {
		if i.SKU == sku {
			return false, nil
		}
	}
	return true, nil
}

func (r *ItemRepo) AdjustQuantity(ctx context.Context, id string, delta int) (*model.Item, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.check("items.AdjustQuantity", id); err != nil {
		return nil, err
	}
	i, ok := r.db.items[id]
	if !ok || i.Quantity+delta < 0 {
		return nil, item.ErrInsufficientStock
	}
	i.Quantity += delta
	cp := *i
	return &cp, nil
}

func (r *ItemRepo) SetQuantity(ctx context.Context, id string, quantity int) (*model.Item, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.check("items.SetQuantity", id); err != nil {
		return nil, err
	}
	i, ok := r.db.items[id]
	if !ok {
		return nil, item.ErrNotFound
	}
	i.Quantity = quantity
	cp := *i
	return &cp, nil
}

func (r *ItemRepo) ReserveStock(ctx context.Context, items map[string]int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.check("items.ReserveStock", items); err != nil {
		return err
	}
	for id, qty := range items {
		if qty <= 0 {
			continue
		}
		i, ok := r.db.items[id]
		if !ok || !i.IsActive || i.Quantity < qty {
			return item.ErrInsufficientStock
		}
	}
	for id, qty := range items {
		if qty > 0 {
			r.db.items[id].Quantity -= qty
		}
	}
	return nil
}

// Stores

type StoreRepo struct{ db *DB }

func (db *DB) StoreRepo() *StoreRepo { return &StoreRepo{db: db} }

func (r *StoreRepo) Create(ctx context.Context, s *model.Store) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.check("stores.Create", s); err != nil {
		return err
	}
	cp := *s
	r.db.stores[s.ID] = &cp
	return nil
}

func (r *StoreRepo) Update(ctx context.Context, s *model.Store) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.check("stores.Update", s); err != nil {
		return err
	}
	existing, ok := r.db.stores[s.ID]
	if !ok {
		return nil
	}
	existing.Name = s.Name
	existing.Address = s.Address
	existing.Location = s.Location
	existing.UpdatedAt = s.UpdatedAt
	return nil
}

func (r *StoreRepo) Deactivate(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.check("stores.Deactivate", id); err != nil {
		return err
	}
	if s, ok := r.db.stores[id]; ok {
		s.IsActive = false
	}
	return nil
}

func (r *StoreRepo) FindByID(ctx context.Context, id string) (*model.Store, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.check("stores.FindByID", id); err != nil {
		return nil, err
	}
	s, ok := r.db.stores[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *StoreRepo) ListActive(ctx context.Context) ([]model.Store, error) {
	return r.list("stores.ListActive", "", func(s *model.Store) bool { return s.IsActive })
}

func (r *StoreRepo) ListByManager(ctx context.Context, managerID string) ([]model.Store, error) {
	return r.list("stores.ListByManager", managerID, func(s *model.Store) bool {
		return s.IsActive && s.ManagerID == managerID
	})
}

func (r *StoreRepo) list(op string, arg interface{}, keep func(*model.Store) bool) ([]model.Store, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.check(op, arg); err != nil {
		return nil, err
	}
	out := []model.Store{}
	for _, s := range r.db.stores {
		if keep(s) {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out, nil
}

// Notifications

type NotificationRepo struct{ db *DB }

func (db *DB) NotificationRepo() *NotificationRepo { return &NotificationRepo{db: db} }

func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.check("notifications.Create", n); err != nil {
		return err
	}
	cp := *n
	r.db.notifications = append(r.db.notifications, &cp)
	return nil
}

func (r *NotificationRepo) CreateIfAbsent(ctx context.Context, n *model.Notification, since time.Time) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.check("notifications.CreateIfAbsent", n); err != nil {
		return false, err
	}
	if n.ItemID != nil && r.existsLocked(*n.ItemID, n.Type, since) {
		return false, nil
	}
	cp := *n
	r.db.notifications = append(r.db.notifications, &cp)
	return true, nil
}

func (r *NotificationRepo) ExistsUnreadSince(ctx context.Context, itemID string, typ model.NotificationType, since time.Time) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.check("notifications.ExistsUnreadSince", itemID); err != nil {
		return false, err
	}
	return r.existsLocked(itemID, typ, since), nil
}

func (r *NotificationRepo) existsLocked(itemID string, typ model.NotificationType, since time.Time) bool {
	for _, n := range r.db.notifications {
		if n.ItemID != nil && *n.ItemID == itemID && n.Type == typ && !n.IsRead && !n.CreatedAt.Before(since) {
			return true
		}
	}
	return false
}

func (r *NotificationRepo) FindByID(ctx context.Context, id string) (*model.Notification, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.check("notifications.FindByID", id); err != nil {
		return nil, err
	}
	for _, n := range r.db.notifications {
		if n.ID == id {
			cp := *n
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *NotificationRepo) FindAll(ctx context.Context, f *notifdto.NotificationFilters) ([]model.Notification, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.check("notifications.FindAll", f); err != nil {
		return nil, err
	}
	out := []model.Notification{}
	for _, n := range r.db.notifications {
		if f.RecipientID != "" && n.RecipientID != f.RecipientID {
			continue
		}
		if f.StoreIDs != nil && !contains(f.StoreIDs, n.StoreID) {
			continue
		}
		if f.Since != nil && !n.CreatedAt.After(*f.Since) {
			continue
		}
		if f.UnreadOnly && n.IsRead {
			continue
		}
		out = append(out, *n)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *NotificationRepo) CountUnread(ctx context.Context, recipientID string) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.check("notifications.CountUnread", recipientID); err != nil {
		return 0, err
	}
	count := 0
	for _, n := range r.db.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, id string) error {
	_, err := r.update("notifications.MarkRead", id, func(n *model.Notification) bool {
		if n.ID != id {
			return false
		}
		n.IsRead = true
		return true
	})
	return err
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	return r.update("notifications.MarkAllRead", recipientID, func(n *model.Notification) bool {
		if n.RecipientID != recipientID || n.IsRead {
			return false
		}
		n.IsRead = true
		return true
	})
}

func (r *NotificationRepo) update(op, arg string, apply func(*model.Notification) bool) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.check(op, arg); err != nil {
		return 0, err
	}
	var changed int64
	for _, n := range r.db.notifications {
		if apply(n) {
			changed++
		}
	}
	return changed, nil
}

func (r *NotificationRepo) Delete(ctx context.Context, id string) error {
	_, err := r.remove("notifications.Delete", id, func(n *model.Notification) bool { return n.ID == id })
	return err
}

func (r *NotificationRepo) DeleteByRecipient(ctx context.Context, recipientID string) (int64, error) {
	return r.remove("notifications.DeleteByRecipient", recipientID, func(n *model.Notification) bool {
		return n.RecipientID == recipientID
	})
}

func (r *NotificationRepo) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	return r.remove("notifications.DeleteOlderThan", before, func(n *model.Notification) bool {
		return n.CreatedAt.Before(before)
	})
}

func (r *NotificationRepo) remove(op string, arg interface{}, match func(*model.Notification) bool) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.check(op, arg); err != nil {
		return 0, err
	}
	kept := r.db.notifications[:0]
	var removed int64
	for _, n := range r.db.notifications {
		if match(n) {
			removed++
			continue
		}
		kept = append(kept, n)
	}
	r.db.notifications = kept
	return removed, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
