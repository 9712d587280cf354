package dto

import "time"

const DefaultListLimit = 50

type NotificationFilters struct {
	RecipientID string
	StoreIDs    []string // nil means any store
	Since       *time.Time
	UnreadOnly  bool
	Limit       int
}

type ListQuery struct {
	Since      *time.Time
	Limit      int
	UnreadOnly bool
}
