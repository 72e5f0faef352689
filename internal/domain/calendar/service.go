package calendar

import (
	"context"

	"github.com/worktally/worktally-backend/internal/domain/project"
)

type Service interface {
	// View merges the user's entries with per-day worked totals.
	View(ctx context.Context, actor project.Actor, filter ViewFilter) (CalendarResponse, error)
	Create(ctx context.Context, actor project.Actor, req EntryRequest) (EntryResponse, error)
	Update(ctx context.Context, actor project.Actor, id string, req EntryRequest) (EntryResponse, error)
	Delete(ctx context.Context, actor project.Actor, id string) error
	ImportExternal(ctx context.Context, actor project.Actor, req ImportRequest) (ImportResponse, error)
}
