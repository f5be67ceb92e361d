package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventmate/backend/internal/models"
)

// Repository handles subscription persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a billing repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const subscriptionColumns = `id, user_id, stripe_session_id, stripe_subscription_id, plan, status, current_period_end, created_at, updated_at`

func scanSubscription(row pgx.Row) (*models.Subscription, error) {
	var s models.Subscription
	err := row.Scan(&s.ID, &s.UserID, &s.StripeSessionID, &s.StripeSubscriptionID, &s.Plan, &s.Status, &s.CurrentPeriodEnd, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts an incomplete subscription pointing at a checkout session.
func (r *Repository) Create(ctx context.Context, s *models.Subscription) error {
	const q = `INSERT INTO subscriptions (id, user_id, stripe_session_id, plan, status)
		VALUES (gen_random_uuid(), $1, $2, $3, $4)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, s.UserID, s.StripeSessionID, s.Plan, models.SubscriptionIncomplete).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

// GetActiveByUser returns the user's newest active subscription, or nil.
func (r *Repository) GetActiveByUser(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	const q = `SELECT ` + subscriptionColumns + ` FROM subscriptions
		WHERE user_id = $1 AND status = 'active' AND (current_period_end IS NULL OR current_period_end > NOW())
		ORDER BY created_at DESC LIMIT 1`
	s, err := scanSubscription(r.pool.QueryRow(ctx, q, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

// GetLatestByUser returns the user's newest subscription of any status, or nil.
func (r *Repository) GetLatestByUser(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	const q = `SELECT ` + subscriptionColumns + ` FROM subscriptions
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`
	s, err := scanSubscription(r.pool.QueryRow(ctx, q, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

// ActivateBySession marks the subscription paid after checkout completes.
func (r *Repository) ActivateBySession(ctx context.Context, sessionID, stripeSubscriptionID string) error {
	const q = `UPDATE subscriptions
		SET status = 'active', stripe_subscription_id = $2, updated_at = NOW()
		WHERE stripe_session_id = $1`
	_, err := r.pool.Exec(ctx, q, sessionID, stripeSubscriptionID)
	return err
}

// CancelByStripeID marks the subscription canceled when Stripe reports the
// customer ended it.
func (r *Repository) CancelByStripeID(ctx context.Context, stripeSubscriptionID string) error {
	const q = `UPDATE subscriptions SET status = 'canceled', updated_at = NOW()
		WHERE stripe_subscription_id = $1`
	_, err := r.pool.Exec(ctx, q, stripeSubscriptionID)
	return err
}

// HasActiveSubscription reports whether the user currently has a paid plan.
// Satisfies the events package's subscription check.
func (r *Repository) HasActiveSubscription(ctx context.Context, userID uuid.UUID) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM subscriptions
		WHERE user_id = $1 AND status = 'active' AND (current_period_end IS NULL OR current_period_end > NOW()))`
	var ok bool
	err := r.pool.QueryRow(ctx, q, userID).Scan(&ok)
	return ok, err
}
