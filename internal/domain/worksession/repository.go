package worksession

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, s WorkSession) (WorkSession, error)
	GetByID(ctx context.Context, id string) (WorkSession, error)
	// GetOpenByUser returns ErrNoOpenSession when the user is not clocked in.
	GetOpenByUser(ctx context.Context, userID string) (WorkSession, error)
	// FindOpenByUser is GetOpenByUser without the row lock, for read paths.
	FindOpenByUser(ctx context.Context, userID string) (WorkSession, error)
	Close(ctx context.Context, id string, endAt time.Time) error
	UpdateTimes(ctx context.Context, id string, startAt, endAt time.Time, description *string) error
	Delete(ctx context.Context, id string) error

	StartBreak(ctx context.Context, sessionID string, at time.Time) (Break, error)
	// EndOpenBreak returns ErrNoOpenBreak when nothing was running.
	EndOpenBreak(ctx context.Context, sessionID string, at time.Time) error
	ReplaceBreaks(ctx context.Context, sessionID string, breaks []Break) error

	// ListByUserBetween returns the user's sessions in a project (with breaks) starting in [from, to), oldest first.
	ListByUserBetween(ctx context.Context, projectID, userID string, from, to time.Time) ([]WorkSession, error)
	List(ctx context.Context, projectID string, filter SessionFilter, loc *time.Location) ([]WorkSession, int64, error)
	// ListOpenStartedBefore finds sessions still running since before cutoff.
	ListOpenStartedBefore(ctx context.Context, cutoff time.Time) ([]WorkSession, error)
}
