package store

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, store *model.Store) error
	FindByID(ctx context.Context, id string) (*model.Store, error)
	ListActive(ctx context.Context) ([]model.Store, error)
	ListByManager(ctx context.Context, managerID string) ([]model.Store, error)
	// Update writes name, address and location. The manager never changes.
	Update(ctx context.Context, store *model.Store) error
	Deactivate(ctx context.Context, id string) error
}
