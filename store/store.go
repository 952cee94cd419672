package store

import (
	"errors"
	"time"

	"shop_backend/model"
)

var (
	ErrNotFound     = errors.New("order not found")
	ErrDuplicateKey = errors.New("duplicate order number")
)

// OrderPatch is a partial update; nil fields are left untouched.
// UpdatedAt is always refreshed by the store, never by the caller.
type OrderPatch struct {
	Status         *model.OrderStatus
	TrackingNumber *string
	Notes          *string
	EmailSent      *bool
}

type ListFilter struct {
	Status model.OrderStatus
}

// Page is one page of orders sorted by createdAt descending.
type Page struct {
	Orders     []model.Order
	Total      int64
	TotalPages int
	Page       int
	Limit      int
}

type OrderStore interface {
	// Create persists a new order. A colliding order number yields
	// ErrDuplicateKey, never an overwrite.
	Create(order *model.Order) error
	GetByNumber(orderNumber string) (*model.Order, error)
	Update(orderNumber string, patch OrderPatch) (*model.Order, error)
	List(filter ListFilter, page, limit int) (*Page, error)
}

// ChargeLog journals gateway charges for post-charge reconciliation.
type ChargeLog interface {
	Record(rec *model.ChargeRecord) error
	MarkRecorded(transactionID string) error
	Unrecorded(olderThan time.Duration) ([]model.ChargeRecord, error)
}

func clampPagination(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

func totalPages(total int64, limit int) int {
	if total == 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
