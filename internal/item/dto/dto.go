package dto

type ItemFilters struct {
	StoreIDs   []string
	IsActive   *bool
	LowStock   bool // quantity <= reorder_threshold
	OutOfStock bool // quantity = 0
	SortBy     string
}
