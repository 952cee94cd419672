package payment

import (
	"context"
	"fmt"

	"shop_backend/model"
)

// ChargeRequest carries everything the processor needs for one capture
// attempt. Amount is in minor currency units (cents).
type ChargeRequest struct {
	Token          string
	Amount         int64
	Currency       string
	IdempotencyKey string
	Description    string
	Billing        model.CustomerInfo
}

type ChargeResult struct {
	TransactionID    string
	ProcessorOrderID string
	Status           string
}

// ChargeError is the normalized decline. Processor-internal error shapes
// never leak past the adapter.
type ChargeError struct {
	Reason  string
	Details []string
}

func (e *ChargeError) Error() string {
	if len(e.Details) > 0 {
		return fmt.Sprintf("payment declined: %s (%v)", e.Reason, e.Details)
	}
	return "payment declined: " + e.Reason
}

type Gateway interface {
	// Charge performs one synchronous capture round trip. A processor
	// decline comes back as *ChargeError; anything else is transport
	// failure. A result with any status other than "completed" must be
	// treated as a failed charge by callers.
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}
