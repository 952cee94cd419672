package helper

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewOrderNumber builds a public order code like ORD-20250115-3F9A2C:
// a date stamp for human sortability plus a random suffix against
// collisions. True uniqueness is enforced by the store's key constraint.
func NewOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:6])
	return fmt.Sprintf("ORD-%s-%s", time.Now().Format("20060102"), suffix)
}
