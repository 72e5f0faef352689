package calendar

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, e Entry) (Entry, error)
	GetByID(ctx context.Context, projectID, id string) (Entry, error)
	Update(ctx context.Context, e Entry) (Entry, error)
	Delete(ctx context.Context, projectID, id string) error
	// ListOverlapping returns the user's entries that intersect [from, to), ordered by start.
	ListOverlapping(ctx context.Context, projectID, userID string, from, to time.Time) ([]Entry, error)
	// UpsertExternal inserts or refreshes entries keyed by (user_id, source, external_id).
	UpsertExternal(ctx context.Context, entries []Entry) (int, error)
}
