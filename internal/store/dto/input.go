package dto

import "github.com/fekuna/omnipos-stock-service/internal/model"

type CreateStoreInput struct {
	ManagerID string
	Name      string
	Address   string
	Location  *model.GeoPoint
}

// UpdateStoreInput leaves nil fields untouched. The manager is fixed at creation.
type UpdateStoreInput struct {
	ManagerID string
	StoreID   string
	Name      *string
	Address   *string
	Location  *model.GeoPoint
}
