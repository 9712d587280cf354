package item

import "errors"

var (
	ErrNotFound          = errors.New("item not found")
	ErrStoreNotFound     = errors.New("store not found")
	ErrForbidden         = errors.New("you can only manage items of your own stores")
	ErrInsufficientStock = errors.New("insufficient inventory")
	ErrInvalidInput      = errors.New("invalid item input")
)
