package balance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/worktally/worktally-backend/internal/domain/balance"
	"github.com/worktally/worktally-backend/internal/domain/project"
	"github.com/worktally/worktally-backend/internal/domain/user"
	"github.com/worktally/worktally-backend/internal/domain/worksession"
	"golang.org/x/sync/errgroup"
)

// loadSlack widens the storage query so sessions near a range edge are bucketed
// in the user's timezone rather than dropped by a UTC cut.
const loadSlack = 24 * time.Hour

// MemberAuthorizer decides whether an actor may read another member's time.
type MemberAuthorizer interface {
	AuthorizeMemberAccess(ctx context.Context, actor project.Actor, targetUserID string) error
}

type BalanceServiceImpl struct {
	userRepo    user.UserRepository
	sessionRepo worksession.Repository
	access      MemberAuthorizer
	calc        *Calculator
	now         func() time.Time
}

func NewBalanceService(userRepo user.UserRepository, sessionRepo worksession.Repository, access MemberAuthorizer) *BalanceServiceImpl {
	return &BalanceServiceImpl{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		access:      access,
		calc:        NewCalculator(),
		now:         time.Now,
	}
}

// Today implements balance.Service.
func (s *BalanceServiceImpl) Today(ctx context.Context, actor project.Actor, userID string) (balance.TodayResponse, error) {
	target, err := s.resolveTarget(ctx, actor, userID)
	if err != nil {
		return balance.TodayResponse{}, err
	}

	loc := target.Location()
	now := s.now()
	local := now.In(loc)
	monthToDate := balance.NewDateRange(time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc), local)

	var (
		sessions []worksession.WorkSession
		open     *worksession.WorkSession
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		sessions, err = s.loadSessions(gCtx, actor.ProjectID, target.ID, monthToDate, loc)
		return err
	})

	// the running session may have started before the month did
	g.Go(func() error {
		found, err := s.sessionRepo.FindOpenByUser(gCtx, target.ID)
		switch {
		case err == nil:
			if found.ProjectID == actor.ProjectID {
				open = &found
			}
			return nil
		case errors.Is(err, worksession.ErrNoOpenSession):
			return nil
		default:
			return fmt.Errorf("failed to load open session: %w", err)
		}
	})

	if err := g.Wait(); err != nil {
		return balance.TodayResponse{}, err
	}

	var activeID *string
	if open != nil {
		activeID = &open.ID
		if !containsSession(sessions, open.ID) {
			sessions = append(sessions, *open)
		}
	}

	result := s.calc.Calculate(balance.Input{
		Sessions: sessions,
		Schedule: target.Schedule,
		Now:      now,
		Range:    &monthToDate,
		Location: loc,
	})

	todayTarget := target.Schedule.TargetFor(local.Weekday())
	return balance.TodayResponse{
		UserID:          target.ID,
		Date:            result.Today,
		Timezone:        loc.String(),
		WorkedHours:     worksession.Hours(result.TodayWorked),
		TargetHours:     worksession.Hours(todayTarget),
		BalanceHours:    worksession.Hours(result.TodayWorked - todayTarget),
		CurrentlyActive: result.CurrentlyActive,
		ActiveSessionID: activeID,
		MonthToDate:     balance.NewSummaryResponse(result.Summary),
		CalculatedAt:    now.In(loc).Format(time.RFC3339),
	}, nil
}

// Report implements balance.Service.
func (s *BalanceServiceImpl) Report(ctx context.Context, actor project.Actor, req balance.ReportRequest) (balance.ReportResponse, error) {
	if err := req.Validate(); err != nil {
		return balance.ReportResponse{}, err
	}

	target, err := s.resolveTarget(ctx, actor, req.UserID)
	if err != nil {
		return balance.ReportResponse{}, err
	}

	r := req.Range()
	result, err := s.calculateRange(ctx, actor.ProjectID, target, r)
	if err != nil {
		return balance.ReportResponse{}, err
	}

	return balance.ReportResponse{
		UserID:    target.ID,
		StartDate: r.Start.Format(balance.DateLayout),
		EndDate:   r.End.Format(balance.DateLayout),
		Timezone:  target.Location().String(),
		Schedule:  user.NewScheduleResponse(target.Schedule),
		Days:      dayResponses(result.Days, target.Schedule),
		Summary:   balance.NewSummaryResponse(result.Summary),
	}, nil
}

// DailyTotals implements balance.Service.
func (s *BalanceServiceImpl) DailyTotals(ctx context.Context, actor project.Actor, userID string, r balance.DateRange) ([]balance.DayBalanceResponse, error) {
	target, err := s.resolveTarget(ctx, actor, userID)
	if err != nil {
		return nil, err
	}
	return s.DailyTotalsFor(ctx, actor.ProjectID, target, r)
}

// DailyTotalsFor is DailyTotals for a target the caller has already loaded and authorized.
func (s *BalanceServiceImpl) DailyTotalsFor(ctx context.Context, projectID string, target user.User, r balance.DateRange) ([]balance.DayBalanceResponse, error) {
	if r.Days() > balance.MaxRangeDays {
		return nil, balance.ErrRangeTooLong
	}

	result, err := s.calculateRange(ctx, projectID, target, r)
	if err != nil {
		return nil, err
	}
	return dayResponses(result.Days, target.Schedule), nil
}

func (s *BalanceServiceImpl) calculateRange(ctx context.Context, projectID string, target user.User, r balance.DateRange) (balance.Result, error) {
	loc := target.Location()
	sessions, err := s.loadSessions(ctx, projectID, target.ID, r, loc)
	if err != nil {
		return balance.Result{}, err
	}

	return s.calc.Calculate(balance.Input{
		Sessions: sessions,
		Schedule: target.Schedule,
		Now:      s.now(),
		Range:    &r,
		Location: loc,
	}), nil
}

func (s *BalanceServiceImpl) loadSessions(ctx context.Context, projectID, userID string, r balance.DateRange, loc *time.Location) ([]worksession.WorkSession, error) {
	from, to := r.Bounds(loc)
	sessions, err := s.sessionRepo.ListByUserBetween(ctx, projectID, userID, from.Add(-loadSlack), to.Add(loadSlack))
	if err != nil {
		return nil, fmt.Errorf("failed to load work sessions: %w", err)
	}
	return sessions, nil
}

// resolveTarget loads the user whose balance is requested, enforcing access.
func (s *BalanceServiceImpl) resolveTarget(ctx context.Context, actor project.Actor, userID string) (user.User, error) {
	if userID == "" {
		userID = actor.UserID
	}
	if userID != actor.UserID {
		if err := s.access.AuthorizeMemberAccess(ctx, actor, userID); err != nil {
			slog.Debug("Balance access denied", "actor_id", actor.UserID, "target_id", userID, "error", err)
			return user.User{}, err
		}
	}

	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return user.User{}, fmt.Errorf("failed to load user: %w", err)
	}
	return u, nil
}

func dayResponses(days []balance.DayBalance, schedule user.ScheduleConfig) []balance.DayBalanceResponse {
	out := make([]balance.DayBalanceResponse, 0, len(days))
	for _, d := range days {
		out = append(out, balance.NewDayBalanceResponse(d, schedule.IsWorkDay(d.Weekday)))
	}
	return out
}

func containsSession(sessions []worksession.WorkSession, id string) bool {
	for _, s := range sessions {
		if s.ID == id {
			return true
		}
	}
	return false
}
