package notification

import "errors"

var (
	ErrNotFound  = errors.New("notification not found")
	ErrForbidden = errors.New("notification belongs to another recipient")
	ErrInvalid   = errors.New("invalid notification")
)
