package model

import "time"

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderPaid       OrderStatus = "paid"
	OrderProcessing OrderStatus = "processing"
	OrderFulfilled  OrderStatus = "fulfilled"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

type Order struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	OrderNumber    string        `gorm:"uniqueIndex;size:32" json:"orderNumber"`
	Customer       CustomerInfo  `gorm:"embedded;embeddedPrefix:customer_" json:"customer"`
	Items          []OrderItem   `gorm:"foreignKey:OrderID" json:"items"`
	PaymentInfo    PaymentInfo   `gorm:"embedded;embeddedPrefix:payment_" json:"paymentInfo"`
	OrderStatus    OrderStatus   `gorm:"size:20;index" json:"orderStatus"`
	TrackingNumber string        `json:"trackingNumber,omitempty"`
	Notes          string        `json:"notes,omitempty"`
	EmailSent      bool          `json:"emailSent"`
	CreatedAt      time.Time     `gorm:"index" json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

type OrderItem struct {
	ID          uint    `gorm:"primaryKey" json:"-"`
	OrderID     uint    `gorm:"index" json:"-"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
}

type CustomerInfo struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
}

type PaymentInfo struct {
	TransactionID    string        `gorm:"size:64;index" json:"transactionId"`
	ProcessorOrderID string        `gorm:"size:64" json:"processorOrderId"`
	Amount           float64       `json:"amount"`
	Currency         string        `gorm:"size:8" json:"currency"`
	PaymentStatus    PaymentStatus `gorm:"size:20" json:"paymentStatus"`
}

// CheckoutInput is the body of POST /api/orders.
type CheckoutInput struct {
	CustomerInfo CustomerItemInput `json:"customerInfo" validate:"required"`
	Items        []ItemInput       `json:"items" validate:"required,min=1,dive"`
	PaymentToken string            `json:"paymentToken" validate:"required"`
	Total        float64           `json:"total" validate:"required,gt=0"`
	Currency     string            `json:"currency"`
	// RequestId is a client-generated nonce; when present it becomes the
	// gateway idempotency key so retried submissions do not double-charge.
	RequestId string `json:"requestId"`
}

type CustomerItemInput struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required"`
	Address   string `json:"address" validate:"required"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state" validate:"required"`
	Zip       string `json:"zip" validate:"required"`
	Country   string `json:"country"`
}

type ItemInput struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" validate:"gte=0"`
	Quantity    int     `json:"quantity" validate:"required,gte=1"`
}

type UpdateOrderStatusInput struct {
	Status         string  `json:"status" validate:"required"`
	TrackingNumber *string `json:"trackingNumber"`
	Notes          *string `json:"notes"`
}

func IsValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderPending, OrderPaid, OrderProcessing, OrderFulfilled,
		OrderShipped, OrderDelivered, OrderCancelled:
		return true
	default:
		return false
	}
}

func IsTerminalStatus(s OrderStatus) bool {
	return s == OrderDelivered || s == OrderCancelled
}

// CanTransition reports whether an order may move from one status to
// another. Terminal states are locked and a paid order never reverts to
// pending; everything else is allowed, cancel included.
func CanTransition(from, to OrderStatus) bool {
	if !IsValidOrderStatus(to) {
		return false
	}
	if from == to {
		return true
	}
	if IsTerminalStatus(from) {
		return false
	}
	if to == OrderPending && from != OrderPending {
		return false
	}
	return true
}
