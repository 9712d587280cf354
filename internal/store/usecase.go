package store

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/auth"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/store/dto"
)

type UseCase interface {
	CreateStore(ctx context.Context, input *dto.CreateStoreInput) (*model.Store, error)
	GetStore(ctx context.Context, id string) (*model.Store, error)
	ListStores(ctx context.Context, user auth.UserContext) ([]model.Store, error)
	ListPublic(ctx context.Context) ([]model.Store, error)
	UpdateStore(ctx context.Context, input *dto.UpdateStoreInput) (*model.Store, error)
	DeactivateStore(ctx context.Context, managerID, storeID string) error
}
