package store

import (
	"sort"
	"sync"
	"time"

	"shop_backend/model"
)

// MemoryOrderStore keeps orders in process memory. It is a cache and a test
// double, never the durable source of truth.
type MemoryOrderStore struct {
	mu     sync.RWMutex
	orders map[string]*model.Order
	nextID uint
}

func NewMemoryOrderStore() *MemoryOrderStore {
	return &MemoryOrderStore{orders: make(map[string]*model.Order)}
}

func (s *MemoryOrderStore) Create(order *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[order.OrderNumber]; exists {
		return ErrDuplicateKey
	}

	s.nextID++
	order.ID = s.nextID
	now := time.Now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	cp := cloneOrder(order)
	s.orders[order.OrderNumber] = &cp
	return nil
}

func (s *MemoryOrderStore) GetByNumber(orderNumber string) (*model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[orderNumber]
	if !ok {
		return nil, ErrNotFound
	}
	cp := cloneOrder(order)
	return &cp, nil
}

func (s *MemoryOrderStore) Update(orderNumber string, patch OrderPatch) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderNumber]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.Status != nil {
		order.OrderStatus = *patch.Status
	}
	if patch.TrackingNumber != nil {
		order.TrackingNumber = *patch.TrackingNumber
	}
	if patch.Notes != nil {
		order.Notes = *patch.Notes
	}
	if patch.EmailSent != nil {
		order.EmailSent = *patch.EmailSent
	}
	order.UpdatedAt = time.Now()

	cp := cloneOrder(order)
	return &cp, nil
}

func (s *MemoryOrderStore) List(filter ListFilter, page, limit int) (*Page, error) {
	page, limit = clampPagination(page, limit)

	s.mu.RLock()
	matched := make([]model.Order, 0, len(s.orders))
	for _, order := range s.orders {
		if filter.Status != "" && order.OrderStatus != filter.Status {
			continue
		}
		matched = append(matched, cloneOrder(order))
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := limit * (page - 1)
	if start > len(matched) {
		start = len(matched)
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}

	return &Page{
		Orders:     matched[start:end],
		Total:      total,
		TotalPages: totalPages(total, limit),
		Page:       page,
		Limit:      limit,
	}, nil
}

func cloneOrder(o *model.Order) model.Order {
	cp := *o
	cp.Items = append([]model.OrderItem(nil), o.Items...)
	return cp
}

// MemoryChargeLog is the in-process counterpart of GormChargeLog.
type MemoryChargeLog struct {
	mu   sync.Mutex
	recs []model.ChargeRecord
}

func NewMemoryChargeLog() *MemoryChargeLog {
	return &MemoryChargeLog{}
}

func (l *MemoryChargeLog) Record(rec *model.ChargeRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.ID = uint(len(l.recs) + 1)
	l.recs = append(l.recs, *rec)
	return nil
}

func (l *MemoryChargeLog) MarkRecorded(transactionID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.recs {
		if l.recs[i].TransactionID == transactionID {
			l.recs[i].Recorded = true
		}
	}
	return nil
}

func (l *MemoryChargeLog) Unrecorded(olderThan time.Duration) ([]model.ChargeRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := time.Now().Add(-olderThan)
	var out []model.ChargeRecord
	for _, rec := range l.recs {
		if !rec.Recorded && rec.CreatedAt.Before(cutoff) {
			out = append(out, rec)
		}
	}
	return out, nil
}
