package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/fekuna/omnipos-stock-service/internal/item"
	"github.com/fekuna/omnipos-stock-service/internal/item/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/store"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const skuAttempts = 3

type itemUseCase struct {
	repo   item.Repository
	stores store.Repository
	logger logger.ZapLogger
	now    func() time.Time
}

func NewItemUseCase(repo item.Repository, stores store.Repository, log logger.ZapLogger) item.UseCase {
	return &itemUseCase{
		repo:   repo,
		stores: stores,
		logger: log,
		now:    time.Now,
	}
}

func (uc *itemUseCase) CreateItem(ctx context.Context, input *dto.CreateItemInput) (*model.Item, error) {
	s, err := uc.ownedStore(ctx, input.StoreID, input.ManagerID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" || input.Price < 0 {
		return nil, fmt.Errorf("%w: name is required and price must be non-negative", item.ErrInvalidInput)
	}

	quantity := 0
	if input.Quantity != nil {
		quantity = *input.Quantity
	}
	threshold := model.DefaultReorderThreshold
	if input.ReorderThreshold != nil {
		threshold = *input.ReorderThreshold
	}
	if quantity < 0 || threshold < 0 {
		return nil, fmt.Errorf("%w: quantity and reorder threshold must be non-negative", item.ErrInvalidInput)
	}

	now := uc.now()
	sku, err := uc.uniqueSKU(ctx, s.Name, name, now)
	if err != nil {
		return nil, err
	}

	i := &model.Item{
		BaseModel:        model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		StoreID:          s.ID,
		Name:             name,
		SKU:              sku,
		Description:      optional(input.Description),
		Category:         optional(input.Category),
		Price:            input.Price,
		Quantity:         quantity,
		ReorderThreshold: threshold,
		IsActive:         true,
	}

	if err := uc.repo.Create(ctx, i); err != nil {
		return nil, err
	}

	uc.logger.Info("item created", zap.String("item_id", i.ID), zap.String("sku", i.SKU), zap.String("store_id", s.ID))
	return i, nil
}

// uniqueSKU bumps the timestamp suffix on collision.
func (uc *itemUseCase) uniqueSKU(ctx context.Context, storeName, itemName string, at time.Time) (string, error) {
	for attempt := 0; attempt < skuAttempts; attempt++ {
		sku := GenerateSKU(storeName, itemName, at.Add(time.Duration(attempt)*time.Millisecond))
		unique, err := uc.repo.IsSKUUnique(ctx, sku)
		if err != nil {
			return "", err
		}
		if unique {
			return sku, nil
		}
	}
	return "", fmt.Errorf("%w: could not allocate a unique SKU", item.ErrInvalidInput)
}

// GenerateSKU builds STO-ITE-123456 from the first three letters of the store and
// item names and the last six digits of the unix millisecond timestamp.
func GenerateSKU(storeName, itemName string, at time.Time) string {
	ts := strconv.FormatInt(at.UnixMilli(), 10)
	if len(ts) > 6 {
		ts = ts[len(ts)-6:]
	}
	return fmt.Sprintf("%s-%s-%s", skuPrefix(storeName), skuPrefix(itemName), ts)
}

func skuPrefix(s string) string {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, s)
	runes := []rune(compact)
	if len(runes) > 3 {
		runes = runes[:3]
	}
	return string(runes)
}

func (uc *itemUseCase) GetItem(ctx context.Context, id string) (*model.Item, error) {
	i, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if i == nil {
		return nil, item.ErrNotFound
	}
	return i, nil
}

func (uc *itemUseCase) ListStoreItems(ctx context.Context, storeID string) ([]model.Item, error) {
	active := true
	return uc.repo.FindAll(ctx, &dto.ItemFilters{
		StoreIDs: []string{storeID},
		IsActive: &active,
		SortBy:   "name",
	})
}

func (uc *itemUseCase) UpdateItem(ctx context.Context, input *dto.UpdateItemInput) (*model.Item, error) {
	i, err := uc.ownedItem(ctx, input.ItemID, input.ManagerID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name is required", item.ErrInvalidInput)
		}
		i.Name = name
	}
	if input.Description != nil {
		i.Description = optional(*input.Description)
	}
	if input.Category != nil {
		i.Category = optional(*input.Category)
	}
	if input.Price != nil {
		if *input.Price < 0 {
			return nil, fmt.Errorf("%w: price must be non-negative", item.ErrInvalidInput)
		}
		i.Price = *input.Price
	}
	if input.Quantity != nil && *input.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must be non-negative", item.ErrInvalidInput)
	}
	if input.ReorderThreshold != nil {
		if *input.ReorderThreshold < 0 {
			return nil, fmt.Errorf("%w: reorder threshold must be non-negative", item.ErrInvalidInput)
		}
		i.ReorderThreshold = *input.ReorderThreshold
	}

	i.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, i); err != nil {
		return nil, err
	}
	if input.Quantity != nil {
		updated, err := uc.repo.SetQuantity(ctx, i.ID, *input.Quantity)
		if err != nil {
			return nil, err
		}
		i.Quantity = updated.Quantity
	}
	return i, nil
}

func (uc *itemUseCase) AdjustStock(ctx context.Context, input *dto.AdjustStockInput) (*model.Item, error) {
	i, err := uc.ownedItem(ctx, input.ItemID, input.ManagerID)
	if err != nil {
		return nil, err
	}
	if i.Quantity+input.Delta < 0 {
		return nil, item.ErrInsufficientStock
	}

	updated, err := uc.repo.AdjustQuantity(ctx, i.ID, input.Delta)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("stock adjusted",
		zap.String("item_id", i.ID),
		zap.Int("delta", input.Delta),
		zap.Int("quantity", updated.Quantity),
	)
	return updated, nil
}

func (uc *itemUseCase) DeactivateItem(ctx context.Context, managerID, itemID string) error {
	i, err := uc.ownedItem(ctx, itemID, managerID)
	if err != nil {
		return err
	}
	return uc.repo.Deactivate(ctx, i.ID)
}

func (uc *itemUseCase) ListLowStock(ctx context.Context, managerID string) ([]model.Item, error) {
	stores, err := uc.stores.ListByManager(ctx, managerID)
	if err != nil {
		return nil, err
	}
	if len(stores) == 0 {
		return []model.Item{}, nil
	}

	ids := make([]string, len(stores))
	for i, s := range stores {
		ids[i] = s.ID
	}

	active := true
	return uc.repo.FindAll(ctx, &dto.ItemFilters{
		StoreIDs: ids,
		IsActive: &active,
		LowStock: true,
		SortBy:   "quantity",
	})
}

func (uc *itemUseCase) ReserveStock(ctx context.Context, items map[string]int) error {
	return uc.repo.ReserveStock(ctx, items)
}

func (uc *itemUseCase) ownedStore(ctx context.Context, storeID, managerID string) (*model.Store, error) {
	s, err := uc.stores.FindByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if s == nil || !s.IsActive {
		return nil, item.ErrStoreNotFound
	}
	if s.ManagerID != managerID {
		return nil, item.ErrForbidden
	}
	return s, nil
}

func (uc *itemUseCase) ownedItem(ctx context.Context, itemID, managerID string) (*model.Item, error) {
	i, err := uc.repo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if i == nil || !i.IsActive {
		return nil, item.ErrNotFound
	}
	if _, err := uc.ownedStore(ctx, i.StoreID, managerID); err != nil {
		return nil, err
	}
	return i, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
