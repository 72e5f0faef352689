package calendar

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/worktally/worktally-backend/internal/domain/balance"
	"github.com/worktally/worktally-backend/internal/domain/calendar"
	"github.com/worktally/worktally-backend/internal/domain/project"
	"github.com/worktally/worktally-backend/internal/domain/user"
	"golang.org/x/sync/errgroup"
)

// MemberAuthorizer decides whether an actor may read another member's calendar.
type MemberAuthorizer interface {
	AuthorizeMemberAccess(ctx context.Context, actor project.Actor, targetUserID string) error
}

// DailyTotals supplies the worked-hours overlay for a user View has already authorized.
type DailyTotals interface {
	DailyTotalsFor(ctx context.Context, projectID string, target user.User, r balance.DateRange) ([]balance.DayBalanceResponse, error)
}

type CalendarServiceImpl struct {
	repo     calendar.Repository
	users    user.UserRepository
	access   MemberAuthorizer
	balances DailyTotals
}

func NewCalendarService(repo calendar.Repository, users user.UserRepository, access MemberAuthorizer, balances DailyTotals) *CalendarServiceImpl {
	return &CalendarServiceImpl{
		repo:     repo,
		users:    users,
		access:   access,
		balances: balances,
	}
}

func (s *CalendarServiceImpl) View(ctx context.Context, actor project.Actor, filter calendar.ViewFilter) (calendar.CalendarResponse, error) {
	if actor.ProjectID == "" {
		return calendar.CalendarResponse{}, project.ErrProjectRequired
	}
	if err := filter.Validate(); err != nil {
		return calendar.CalendarResponse{}, err
	}

	userID := filter.UserID
	if userID == "" {
		userID = actor.UserID
	}
	if userID != actor.UserID {
		if err := s.access.AuthorizeMemberAccess(ctx, actor, userID); err != nil {
			return calendar.CalendarResponse{}, err
		}
	}

	target, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return calendar.CalendarResponse{}, fmt.Errorf("failed to load user: %w", err)
	}
	loc := target.Location()
	r := filter.Range()
	from, to := r.Bounds(loc)

	var (
		entries []calendar.Entry
		days    []balance.DayBalanceResponse
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		entries, err = s.repo.ListOverlapping(gCtx, actor.ProjectID, userID, from, to)
		if err != nil {
			return fmt.Errorf("failed to list calendar entries: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		days, err = s.balances.DailyTotalsFor(gCtx, actor.ProjectID, target, r)
		return err
	})

	if err := g.Wait(); err != nil {
		return calendar.CalendarResponse{}, err
	}

	responses := make([]calendar.EntryResponse, 0, len(entries))
	for _, e := range entries {
		responses = append(responses, calendar.NewEntryResponse(e))
	}

	return calendar.CalendarResponse{
		UserID:    userID,
		StartDate: r.Start.Format(balance.DateLayout),
		EndDate:   r.End.Format(balance.DateLayout),
		Timezone:  loc.String(),
		Entries:   responses,
		Days:      days,
	}, nil
}

func (s *CalendarServiceImpl) Create(ctx context.Context, actor project.Actor, req calendar.EntryRequest) (calendar.EntryResponse, error) {
	if actor.ProjectID == "" {
		return calendar.EntryResponse{}, project.ErrProjectRequired
	}
	if err := req.Validate(); err != nil {
		return calendar.EntryResponse{}, err
	}

	start, end := req.Times()
	created, err := s.repo.Create(ctx, calendar.Entry{
		ProjectID:   actor.ProjectID,
		UserID:      actor.UserID,
		Title:       req.Title,
		Description: req.Description,
		StartAt:     start,
		EndAt:       end,
		AllDay:      req.AllDay,
		Source:      calendar.SourceManual,
	})
	if err != nil {
		return calendar.EntryResponse{}, fmt.Errorf("failed to create calendar entry: %w", err)
	}
	return calendar.NewEntryResponse(created), nil
}

func (s *CalendarServiceImpl) Update(ctx context.Context, actor project.Actor, id string, req calendar.EntryRequest) (calendar.EntryResponse, error) {
	if err := req.Validate(); err != nil {
		return calendar.EntryResponse{}, err
	}
	e, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return calendar.EntryResponse{}, err
	}

	e.Title, e.Description, e.AllDay = req.Title, req.Description, req.AllDay
	e.StartAt, e.EndAt = req.Times()

	updated, err := s.repo.Update(ctx, e)
	if err != nil {
		return calendar.EntryResponse{}, fmt.Errorf("failed to update calendar entry: %w", err)
	}
	return calendar.NewEntryResponse(updated), nil
}

func (s *CalendarServiceImpl) Delete(ctx context.Context, actor project.Actor, id string) error {
	if _, err := s.loadOwned(ctx, actor, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, actor.ProjectID, id)
}

func (s *CalendarServiceImpl) ImportExternal(ctx context.Context, actor project.Actor, req calendar.ImportRequest) (calendar.ImportResponse, error) {
	if actor.ProjectID == "" {
		return calendar.ImportResponse{}, project.ErrProjectRequired
	}
	if err := req.Validate(); err != nil {
		return calendar.ImportResponse{}, err
	}

	entries := req.Entries()
	for i := range entries {
		entries[i].ProjectID = actor.ProjectID
		entries[i].UserID = actor.UserID
	}

	n, err := s.repo.UpsertExternal(ctx, entries)
	if err != nil {
		return calendar.ImportResponse{}, fmt.Errorf("failed to import calendar events: %w", err)
	}

	slog.Info("external calendar events imported", "user_id", actor.UserID, "project_id", actor.ProjectID, "count", n)
	return calendar.ImportResponse{Imported: n}, nil
}

// loadOwned returns a manual entry owned by the actor.
func (s *CalendarServiceImpl) loadOwned(ctx context.Context, actor project.Actor, id string) (calendar.Entry, error) {
	if actor.ProjectID == "" {
		return calendar.Entry{}, project.ErrProjectRequired
	}
	e, err := s.repo.GetByID(ctx, actor.ProjectID, id)
	if err != nil {
		return calendar.Entry{}, err
	}
	if e.UserID != actor.UserID {
		return calendar.Entry{}, calendar.ErrEntryAccessDenied
	}
	if e.IsExternal() {
		return calendar.Entry{}, calendar.ErrEntryReadOnly
	}
	return e, nil
}
