package balance

import (
	"context"

	"github.com/worktally/worktally-backend/internal/domain/project"
)

// Service serves every balance view from the same calculation.
type Service interface {
	// Today returns the dashboard figures; userID empty means the actor.
	Today(ctx context.Context, actor project.Actor, userID string) (TodayResponse, error)
	Report(ctx context.Context, actor project.Actor, req ReportRequest) (ReportResponse, error)
	// DailyTotals returns one entry per date in r, for calendar overlays.
	DailyTotals(ctx context.Context, actor project.Actor, userID string, r DateRange) ([]DayBalanceResponse, error)
}
