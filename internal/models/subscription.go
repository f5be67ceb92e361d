package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscription plans and statuses (statuses mirror Stripe's).
const (
	PlanMonthly = "monthly"
	PlanYearly  = "yearly"

	SubscriptionIncomplete = "incomplete"
	SubscriptionActive     = "active"
	SubscriptionCanceled   = "canceled"
)

// Subscription is an organizer plan purchased through Stripe Checkout.
type Subscription struct {
	ID                   uuid.UUID  `json:"id"`
	UserID               uuid.UUID  `json:"user_id"`
	StripeSessionID      string     `json:"-"`
	StripeSubscriptionID string     `json:"-"`
	Plan                 string     `json:"plan"`
	Status               string     `json:"status"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// IsActive reports whether the subscription currently lifts limits.
func (s *Subscription) IsActive() bool {
	if s.Status != SubscriptionActive {
		return false
	}
	return s.CurrentPeriodEnd == nil || s.CurrentPeriodEnd.After(time.Now())
}
