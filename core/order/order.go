package order

import (
	"context"
	"errors"
	"time"
)

type Status string

const (
	Pending Status = "pending"
	Paid    Status = "paid"
)

const (
	ProviderStripe = "stripe"
	ProviderPaypal = "paypal"
)

var ErrNotFound = errors.New("purchase not found")

// Purchase is one membership checkout, bound to the payment provider's
// session or order id.
type Purchase struct {
	ID         string    `json:"id" db:"purchase_id"`
	UserID     string    `json:"-" db:"user_id"`
	Provider   string    `json:"provider" db:"provider"`
	ProviderID string    `json:"providerId" db:"provider_id"`
	Amount     int       `json:"amount" db:"amount"`
	Status     Status    `json:"status" db:"status"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}

// Ledger records purchases. MarkPaid is idempotent and returns
// ErrNotFound for an unknown provider id.
type Ledger interface {
	Create(ctx context.Context, p Purchase) error
	MarkPaid(ctx context.Context, providerID string, at time.Time) (Purchase, error)
	ListByUser(ctx context.Context, userID string) ([]Purchase, error)
}
