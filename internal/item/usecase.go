package item

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/item/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type UseCase interface {
	CreateItem(ctx context.Context, input *dto.CreateItemInput) (*model.Item, error)
	GetItem(ctx context.Context, id string) (*model.Item, error)
	ListStoreItems(ctx context.Context, storeID string) ([]model.Item, error)
	UpdateItem(ctx context.Context, input *dto.UpdateItemInput) (*model.Item, error)
	AdjustStock(ctx context.Context, input *dto.AdjustStockInput) (*model.Item, error)
	DeactivateItem(ctx context.Context, managerID, itemID string) error
	ListLowStock(ctx context.Context, managerID string) ([]model.Item, error)

	ReserveStock(ctx context.Context, items map[string]int) error
}
