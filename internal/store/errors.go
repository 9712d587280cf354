package store

import "errors"

var (
	ErrNotFound     = errors.New("store not found")
	ErrForbidden    = errors.New("you can only manage your own stores")
	ErrInvalidInput = errors.New("invalid store input")
)
