package worksession

import (
	"context"

	"github.com/worktally/worktally-backend/internal/domain/project"
)

type Service interface {
	ClockIn(ctx context.Context, actor project.Actor, req ClockInRequest) (SessionResponse, error)
	ClockOut(ctx context.Context, actor project.Actor) (SessionResponse, error)
	StartBreak(ctx context.Context, actor project.Actor) (SessionResponse, error)
	EndBreak(ctx context.Context, actor project.Actor) (SessionResponse, error)
	Status(ctx context.Context, actor project.Actor) (StatusResponse, error)

	CreateManual(ctx context.Context, actor project.Actor, req SessionRequest) (SessionResponse, error)
	List(ctx context.Context, actor project.Actor, filter SessionFilter) (ListSessionsResponse, error)
	Update(ctx context.Context, actor project.Actor, id string, req SessionRequest) (SessionResponse, error)
	Delete(ctx context.Context, actor project.Actor, id string) error

	// AutoCloseStale ends sessions left running longer than the maximum session length.
	AutoCloseStale(ctx context.Context) (int, error)
}
