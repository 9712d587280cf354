package model

const DefaultReorderThreshold = 10

type Item struct {
	BaseModel
	StoreID          string  `db:"store_id" json:"store"`
	Name             string  `db:"name" json:"name"`
	SKU              string  `db:"sku" json:"sku"`
	Description      *string `db:"description" json:"description,omitempty"`
	Category         *string `db:"category" json:"category,omitempty"`
	Price            float64 `db:"price" json:"price"`
	Quantity         int     `db:"quantity" json:"quantity"`
	ReorderThreshold int     `db:"reorder_threshold" json:"reorderThreshold"`
	IsActive         bool    `db:"is_active" json:"isActive"`
}

// NeedsReorder reports whether stock has fallen to or below the threshold.
func (i *Item) NeedsReorder() bool {
	return i.Quantity <= i.ReorderThreshold
}

func (i *Item) OutOfStock() bool {
	return i.Quantity == 0
}
