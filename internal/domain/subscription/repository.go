package subscription

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, s Subscription) (Subscription, error)
	GetByProjectID(ctx context.Context, projectID string) (Subscription, error)
	Update(ctx context.Context, s Subscription) (Subscription, error)
	// ListLapsed returns paid subscriptions whose period ended before now and are not yet expired.
	ListLapsed(ctx context.Context, now time.Time) ([]Subscription, error)
}
