package model

import "time"

// ChargeRecord journals every successful gateway charge before the order
// row is written. A charge that never gets a matching recorded order means
// money was captured with nothing to show for it, which the reconciliation
// sweep escalates to the ops channel.
type ChargeRecord struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	TransactionID string    `gorm:"uniqueIndex;size:64" json:"transactionId"`
	OrderNumber   string    `gorm:"size:32" json:"orderNumber"`
	Amount        float64   `json:"amount"`
	Currency      string    `gorm:"size:8" json:"currency"`
	Email         string    `gorm:"size:120" json:"email"`
	Recorded      bool      `gorm:"default:false;index" json:"recorded"`
	CreatedAt     time.Time `json:"createdAt"`
}
