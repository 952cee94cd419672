package store

import (
	"errors"
	"time"

	"shop_backend/model"

	"gorm.io/gorm"
)

// GormOrderStore is the durable store backed by Postgres through the
// shared GORM handle. Uniqueness of orderNumber rides on the DB index.
type GormOrderStore struct {
	DB *gorm.DB
}

func NewGormOrderStore(db *gorm.DB) *GormOrderStore {
	return &GormOrderStore{DB: db}
}

func (s *GormOrderStore) Create(order *model.Order) error {
	if err := s.DB.Create(order).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateKey
		}
		return err
	}
	return nil
}

func (s *GormOrderStore) GetByNumber(orderNumber string) (*model.Order, error) {
	var order model.Order
	err := s.DB.Preload("Items").
		Where("order_number = ?", orderNumber).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (s *GormOrderStore) Update(orderNumber string, patch OrderPatch) (*model.Order, error) {
	updates := map[string]any{"updated_at": time.Now()}
	if patch.Status != nil {
		updates["order_status"] = *patch.Status
	}
	if patch.TrackingNumber != nil {
		updates["tracking_number"] = *patch.TrackingNumber
	}
	if patch.Notes != nil {
		updates["notes"] = *patch.Notes
	}
	if patch.EmailSent != nil {
		updates["email_sent"] = *patch.EmailSent
	}

	res := s.DB.Model(&model.Order{}).
		Where("order_number = ?", orderNumber).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetByNumber(orderNumber)
}

func (s *GormOrderStore) List(filter ListFilter, page, limit int) (*Page, error) {
	page, limit = clampPagination(page, limit)

	query := s.DB.Model(&model.Order{})
	if filter.Status != "" {
		query = query.Where("order_status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var orders []model.Order
	if err := query.Preload("Items").
		Order("created_at desc").
		Limit(limit).
		Offset(limit * (page - 1)).
		Find(&orders).Error; err != nil {
		return nil, err
	}

	return &Page{
		Orders:     orders,
		Total:      total,
		TotalPages: totalPages(total, limit),
		Page:       page,
		Limit:      limit,
	}, nil
}

type GormChargeLog struct {
	DB *gorm.DB
}

func NewGormChargeLog(db *gorm.DB) *GormChargeLog {
	return &GormChargeLog{DB: db}
}

func (l *GormChargeLog) Record(rec *model.ChargeRecord) error {
	return l.DB.Create(rec).Error
}

func (l *GormChargeLog) MarkRecorded(transactionID string) error {
	return l.DB.Model(&model.ChargeRecord{}).
		Where("transaction_id = ?", transactionID).
		Update("recorded", true).Error
}

func (l *GormChargeLog) Unrecorded(olderThan time.Duration) ([]model.ChargeRecord, error) {
	var recs []model.ChargeRecord
	cutoff := time.Now().Add(-olderThan)
	err := l.DB.Where("recorded = ? AND created_at < ?", false, cutoff).
		Order("created_at asc").
		Find(&recs).Error
	return recs, err
}
