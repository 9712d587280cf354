package dto

type CreateItemInput struct {
	ManagerID        string
	StoreID          string
	Name             string
	Description      string
	Category         string
	Price            float64
	Quantity         *int
	ReorderThreshold *int
}

// UpdateItemInput leaves nil fields untouched. SKU is not updatable.
type UpdateItemInput struct {
	ManagerID        string
	ItemID           string
	Name             *string
	Description      *string
	Category         *string
	Price            *float64
	Quantity         *int
	ReorderThreshold *int
}

type AdjustStockInput struct {
	ManagerID string
	ItemID    string
	Delta     int
}
