package item

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/item/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, item *model.Item) error
	FindByID(ctx context.Context, id string) (*model.Item, error)
	FindAll(ctx context.Context, filters *dto.ItemFilters) ([]model.Item, error)
	// Update writes the descriptive fields. Quantity is never touched here.
	Update(ctx context.Context, item *model.Item) error
	Deactivate(ctx context.Context, id string) error

	IsSKUUnique(ctx context.Context, sku string) (bool, error)

	// AdjustQuantity applies delta atomically and fails with ErrInsufficientStock
	// instead of going below zero.
	AdjustQuantity(ctx context.Context, id string, delta int) (*model.Item, error)
	SetQuantity(ctx context.Context, id string, quantity int) (*model.Item, error)
	// ReserveStock decrements every item in one transaction, all or nothing.
	ReserveStock(ctx context.Context, items map[string]int) error
}
