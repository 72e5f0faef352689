package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/worktally/worktally-backend/internal/domain/subscription"
	"github.com/worktally/worktally-backend/internal/pkg/database"
)

const subscriptionColumns = `id, project_id, tier, status, max_seats, price_per_seat,
		current_period_start, current_period_end, created_at, updated_at`

type subscriptionRepository struct {
	db *database.DB
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *database.DB) subscription.Repository {
	return &subscriptionRepository{db: db}
}

func scanSubscription(row rowScanner) (subscription.Subscription, error) {
	var s subscription.Subscription
	err := row.Scan(
		&s.ID,
		&s.ProjectID,
		&s.Tier,
		&s.Status,
		&s.MaxSeats,
		&s.PricePerSeat,
		&s.CurrentPeriodStart,
		&s.CurrentPeriodEnd,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	return s, err
}

// Create stores the first subscription of a project
func (r *subscriptionRepository) Create(ctx context.Context, s subscription.Subscription) (subscription.Subscription, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO subscriptions (project_id, tier, status, max_seats, price_per_seat, current_period_start, current_period_end)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + subscriptionColumns

	created, err := scanSubscription(q.QueryRow(ctx, query,
		s.ProjectID,
		s.Tier,
		s.Status,
		s.MaxSeats,
		s.PricePerSeat,
		s.CurrentPeriodStart,
		s.CurrentPeriodEnd,
	))
	if err != nil {
		return subscription.Subscription{}, fmt.Errorf("failed to create subscription: %w", err)
	}
	return created, nil
}

// GetByProjectID retrieves the subscription of a project
func (r *subscriptionRepository) GetByProjectID(ctx context.Context, projectID string) (subscription.Subscription, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE project_id = $1`
	s, err := scanSubscription(q.QueryRow(ctx, query, projectID))
	if err != nil {
		if isNoRows(err) {
			return subscription.Subscription{}, subscription.ErrSubscriptionNotFound
		}
		return subscription.Subscription{}, fmt.Errorf("failed to get subscription: %w", err)
	}
	return s, nil
}

// Update overwrites tier, status, seat limit, price and billing period
func (r *subscriptionRepository) Update(ctx context.Context, s subscription.Subscription) (subscription.Subscription, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE subscriptions
		SET tier = $1,
			status = $2,
			max_seats = $3,
			price_per_seat = $4,
			current_period_start = $5,
			current_period_end = $6,
			updated_at = NOW()
		WHERE project_id = $7
		RETURNING ` + subscriptionColumns

	updated, err := scanSubscription(q.QueryRow(ctx, query,
		s.Tier,
		s.Status,
		s.MaxSeats,
		s.PricePerSeat,
		s.CurrentPeriodStart,
		s.CurrentPeriodEnd,
		s.ProjectID,
	))
	if err != nil {
		if isNoRows(err) {
			return subscription.Subscription{}, subscription.ErrSubscriptionNotFound
		}
		return subscription.Subscription{}, fmt.Errorf("failed to update subscription: %w", err)
	}
	return updated, nil
}

// ListLapsed returns non-free subscriptions whose period ended before now
func (r *subscriptionRepository) ListLapsed(ctx context.Context, now time.Time) ([]subscription.Subscription, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE tier <> 'free'
			AND status <> 'expired'
			AND current_period_end IS NOT NULL
			AND current_period_end < $1
		ORDER BY current_period_end
	`

	rows, err := q.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list lapsed subscriptions: %w", err)
	}
	defer rows.Close()

	var out []subscription.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
