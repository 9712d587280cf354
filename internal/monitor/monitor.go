package monitor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/forecast"
	"github.com/fekuna/omnipos-stock-service/internal/item"
	"github.com/fekuna/omnipos-stock-service/internal/item/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/notification"
	"github.com/fekuna/omnipos-stock-service/internal/store"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	StockAlertCooldown = 24 * time.Hour
	SuggestionCooldown = 7 * 24 * time.Hour
	RetentionPeriod    = 30 * 24 * time.Hour

	basicReasoning = "Basic suggestion (ML service unavailable)"
	mlReasoning    = "ML-powered suggestion"
)

// Monitor watches stock levels and writes stock notifications. It never mutates items.
type Monitor struct {
	items         item.Repository
	stores        store.Repository
	notifications notification.Repository
	forecaster    forecast.Forecaster
	locker        Locker
	logger        logger.ZapLogger
	now           func() time.Time
}

type Option func(*Monitor)

func WithLocker(l Locker) Option {
	return func(m *Monitor) { m.locker = l }
}

func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

func New(
	items item.Repository,
	stores store.Repository,
	notifications notification.Repository,
	forecaster forecast.Forecaster,
	log logger.ZapLogger,
	opts ...Option,
) *Monitor {
	m := &Monitor{
		items:         items,
		stores:        stores,
		notifications: notifications,
		forecaster:    forecaster,
		locker:        NewMutexLocker(),
		logger:        log,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CheckInventoryLevels raises low_stock and out_of_stock alerts. Any store error
// aborts the pass.
func (m *Monitor) CheckInventoryLevels(ctx context.Context) PassResult {
	var res PassResult
	m.logger.Info("starting inventory level check")

	managers := map[string]*model.Store{}
	active := true

	low, err := m.items.FindAll(ctx, &dto.ItemFilters{IsActive: &active, LowStock: true})
	if err != nil {
		return m.abort(res, "find low stock items", err)
	}
	m.logger.Info("found items with low stock", zap.Int("count", len(low)))

	for i := range low {
		it := &low[i]
		res.Scanned++
		created, err := m.raiseStockAlert(ctx, managers, it, lowStockAlert(it))
		if err != nil {
			return m.abort(res, "low stock alert", err)
		}
		countCreated(&res, created)
	}

	out, err := m.items.FindAll(ctx, &dto.ItemFilters{IsActive: &active, OutOfStock: true})
	if err != nil {
		return m.abort(res, "find out of stock items", err)
	}
	m.logger.Info("found out of stock items", zap.Int("count", len(out)))

	for i := range out {
		it := &out[i]
		res.Scanned++
		created, err := m.raiseStockAlert(ctx, managers, it, outOfStockAlert(it))
		if err != nil {
			return m.abort(res, "out of stock alert", err)
		}
		countCreated(&res, created)
	}

	m.logger.Info("inventory level check completed",
		zap.Int("created", res.Created),
		zap.Int("skipped", res.Skipped),
	)
	return res
}

func (m *Monitor) raiseStockAlert(ctx context.Context, stores map[string]*model.Store, it *model.Item, n *model.Notification) (bool, error) {
	s, err := m.storeOf(ctx, stores, it.StoreID)
	if err != nil {
		return false, err
	}
	if s == nil {
		m.logger.Warn("item references a missing store", zap.String("item_id", it.ID), zap.String("store_id", it.StoreID))
		return false, nil
	}

	n.ID = uuid.New().String()
	n.StoreID = s.ID
	n.RecipientID = s.ManagerID
	n.CreatedAt = m.now()

	created, err := m.notifications.CreateIfAbsent(ctx, n, n.CreatedAt.Add(-StockAlertCooldown))
	if err != nil {
		return false, err
	}
	if created {
		m.logger.Info("created stock notification", zap.String("type", string(n.Type)), zap.String("item", it.Name))
	}
	return created, nil
}

func (m *Monitor) storeOf(ctx context.Context, cache map[string]*model.Store, storeID string) (*model.Store, error) {
	if s, ok := cache[storeID]; ok {
		return s, nil
	}
	s, err := m.stores.FindByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	cache[storeID] = s
	return s, nil
}

func lowStockAlert(it *model.Item) *model.Notification {
	return &model.Notification{
		Type:  model.NotificationLowStock,
		Title: "Low Stock Alert",
		Message: fmt.Sprintf("%s (SKU: %s) is running low on stock. Current quantity: %d, Threshold: %d",
			it.Name, it.SKU, it.Quantity, it.ReorderThreshold),
		ItemID: &it.ID,
		Metadata: model.Metadata{
			"currentQuantity":  it.Quantity,
			"reorderThreshold": it.ReorderThreshold,
			"suggestedReorder": it.ReorderThreshold * 2,
		},
	}
}

func outOfStockAlert(it *model.Item) *model.Notification {
	return &model.Notification{
		Type:    model.NotificationOutOfStock,
		Title:   "Out of Stock Alert",
		Message: fmt.Sprintf("%s (SKU: %s) is completely out of stock!", it.Name, it.SKU),
		ItemID:  &it.ID,
		Metadata: model.Metadata{
			"currentQuantity":  0,
			"reorderThreshold": it.ReorderThreshold,
			"suggestedReorder": it.ReorderThreshold * 3,
		},
	}
}

// GenerateReorderSuggestions writes one reorder_suggestion per low-stock item.
// Errors are isolated per store and per item; forecast failures fall back to a
// fixed multiple of the threshold and are never returned.
func (m *Monitor) GenerateReorderSuggestions(ctx context.Context) PassResult {
	var res PassResult
	m.logger.Info("starting reorder suggestions generation")

	stores, err := m.stores.ListActive(ctx)
	if err != nil {
		return m.abort(res, "list active stores", err)
	}

	active := true
	for i := range stores {
		s := &stores[i]
		low, err := m.items.FindAll(ctx, &dto.ItemFilters{
			StoreIDs: []string{s.ID},
			IsActive: &active,
			LowStock: true,
		})
		if err != nil {
			res.Failed++
			m.logger.Error("failed to load low stock items for store", zap.String("store", s.Name), zap.Error(err))
			continue
		}
		if len(low) == 0 {
			m.logger.Debug("no low stock items for store", zap.String("store", s.Name))
			continue
		}

		m.logger.Info("processing low stock items", zap.String("store", s.Name), zap.Int("count", len(low)))
		for j := range low {
			it := &low[j]
			res.Scanned++
			created, err := m.suggestReorder(ctx, s, it)
			if err != nil {
				res.Failed++
				m.logger.Error("failed to process item", zap.String("item", it.Name), zap.Error(err))
				continue
			}
			countCreated(&res, created)
		}
	}

	m.logger.Info("reorder suggestions generation completed",
		zap.Int("created", res.Created),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
	)
	return res
}

func (m *Monitor) suggestReorder(ctx context.Context, s *model.Store, it *model.Item) (created bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	since := m.now().Add(-SuggestionCooldown)
	// Skip the forecast call when a suggestion is already pending.
	exists, err := m.notifications.ExistsUnreadSince(ctx, it.ID, model.NotificationReorderSuggestion, since)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	n := m.reorderSuggestion(ctx, s, it)
	return m.notifications.CreateIfAbsent(ctx, n, since)
}

func (m *Monitor) reorderSuggestion(ctx context.Context, s *model.Store, it *model.Item) *model.Notification {
	meta := model.Metadata{
		"currentQuantity":  it.Quantity,
		"reorderThreshold": it.ReorderThreshold,
	}
	title := "Reorder Suggestion"

	suggestion, err := m.forecast(ctx, s.ID, it.ID)
	if err != nil {
		m.logger.Warn("forecast unavailable, using basic suggestion", zap.String("item", it.Name), zap.Error(err))
		meta["suggestedQuantity"] = FallbackQuantity(it.ReorderThreshold)
		meta["reason"] = basicReasoning
		meta["mlPowered"] = false
	} else {
		reason := suggestion.Reasoning
		if reason == "" {
			reason = mlReasoning
		}
		meta["suggestedQuantity"] = suggestion.SuggestedQty
		meta["confidence"] = suggestion.Confidence
		meta["reason"] = reason
		meta["mlPowered"] = true
		title = "ML-Powered Reorder Suggestion"
	}

	return &model.Notification{
		ID:    uuid.New().String(),
		Type:  model.NotificationReorderSuggestion,
		Title: title,
		Message: fmt.Sprintf("Consider reordering %s (SKU: %s). Suggested quantity: %v",
			it.Name, it.SKU, meta["suggestedQuantity"]),
		StoreID:     s.ID,
		ItemID:      &it.ID,
		RecipientID: s.ManagerID,
		Metadata:    meta,
		CreatedAt:   m.now(),
	}
}

func (m *Monitor) forecast(ctx context.Context, storeID, itemID string) (*forecast.Suggestion, error) {
	if m.forecaster == nil {
		return nil, errors.New("no forecaster configured")
	}
	s, err := m.forecaster.Forecast(ctx, storeID, itemID)
	if err != nil {
		return nil, err
	}
	if s == nil || s.SuggestedQty < 0 {
		return nil, forecast.ErrInvalidForecast
	}
	return s, nil
}

// FallbackQuantity is the deterministic non-ML suggestion.
func FallbackQuantity(threshold int) int {
	return int(math.Ceil(float64(threshold) * 2))
}

// EnhancedInventoryMonitoring runs both passes in order. Each pass is guarded on
// its own, so a failure in the first still lets the second run. A run that finds
// the lock held is skipped.
func (m *Monitor) EnhancedInventoryMonitoring(ctx context.Context) RunResult {
	return m.run(ctx, m.locker.Lock)
}

// RunNow is EnhancedInventoryMonitoring that waits for an in-flight run to
// finish instead of skipping. It is skipped only when ctx ends first.
func (m *Monitor) RunNow(ctx context.Context) RunResult {
	return m.run(ctx, m.locker.Wait)
}

func (m *Monitor) run(ctx context.Context, acquire func(context.Context) (func(), error)) RunResult {
	res := RunResult{StartedAt: m.now()}

	unlock, err := acquire(ctx)
	switch {
	case errors.Is(err, ErrLockNotAcquired):
		m.logger.Warn("skipping inventory monitoring, previous run still active")
		res.Status = StatusSkipped
		res.Cause = err
		return res
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		m.logger.Warn("inventory monitoring abandoned while waiting for run lock", zap.Error(err))
		res.Status = StatusSkipped
		res.Cause = err
		return res
	case err != nil:
		m.logger.Warn("run lock unavailable, continuing unlocked", zap.Error(err))
	default:
		defer unlock()
	}

	m.logger.Info("starting enhanced inventory monitoring")
	res.Levels = guard(func() PassResult { return m.CheckInventoryLevels(ctx) })
	res.Suggestions = guard(func() PassResult { return m.GenerateReorderSuggestions(ctx) })
	res.Duration = m.now().Sub(res.StartedAt)
	summarize(&res)

	if res.Status == StatusSuccess {
		m.logger.Info("enhanced inventory monitoring completed", zap.Duration("duration", res.Duration))
	} else {
		m.logger.Error("enhanced inventory monitoring completed with errors",
			zap.String("status", string(res.Status)),
			zap.Error(res.Cause),
		)
	}
	return res
}

// CleanupOldNotifications deletes every notification older than RetentionPeriod,
// read or not.
func (m *Monitor) CleanupOldNotifications(ctx context.Context) (int64, error) {
	deleted, err := m.notifications.DeleteOlderThan(ctx, m.now().Add(-RetentionPeriod))
	if err != nil {
		m.logger.Error("notification cleanup failed", zap.Error(err))
		return 0, err
	}
	m.logger.Info("cleaned up old notifications", zap.Int64("deleted", deleted))
	return deleted, nil
}

func (m *Monitor) abort(res PassResult, op string, err error) PassResult {
	res.Err = fmt.Errorf("%s: %w", op, err)
	m.logger.Error("inventory pass aborted", zap.Error(res.Err))
	return res
}

func guard(pass func() PassResult) (res PassResult) {
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("panic: %v", r)
		}
	}()
	return pass()
}

func countCreated(res *PassResult, created bool) {
	if created {
		res.Created++
	} else {
		res.Skipped++
	}
}
