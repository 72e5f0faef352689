package worksession

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/worktally/worktally-backend/internal/domain/notification"
	"github.com/worktally/worktally-backend/internal/domain/project"
	"github.com/worktally/worktally-backend/internal/domain/user"
	"github.com/worktally/worktally-backend/internal/domain/worksession"
	"github.com/worktally/worktally-backend/internal/pkg/database"
)

// MemberAuthorizer decides whether an actor may read or edit another member's time.
type MemberAuthorizer interface {
	AuthorizeMemberAccess(ctx context.Context, actor project.Actor, targetUserID string) error
}

type Notifier interface {
	QueueNotification(ctx context.Context, req notification.CreateNotificationRequest) error
}

type WorkSessionServiceImpl struct {
	tx       database.Transactor
	repo     worksession.Repository
	users    user.UserRepository
	members  project.MemberRepository
	access   MemberAuthorizer
	notifier Notifier
	now      func() time.Time
}

func NewWorkSessionService(
	tx database.Transactor,
	repo worksession.Repository,
	users user.UserRepository,
	members project.MemberRepository,
	access MemberAuthorizer,
	notifier Notifier,
) *WorkSessionServiceImpl {
	return &WorkSessionServiceImpl{
		tx:       tx,
		repo:     repo,
		users:    users,
		members:  members,
		access:   access,
		notifier: notifier,
		now:      time.Now,
	}
}

func requireTracking(actor project.Actor) error {
	if actor.ProjectID == "" {
		return project.ErrProjectRequired
	}
	if !actor.Can(project.PermissionAttendanceTrackOwn) {
		return project.ErrInsufficientRole
	}
	return nil
}

// ClockIn implements worksession.Service.
func (s *WorkSessionServiceImpl) ClockIn(ctx context.Context, actor project.Actor, req worksession.ClockInRequest) (worksession.SessionResponse, error) {
	if err := requireTracking(actor); err != nil {
		return worksession.SessionResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return worksession.SessionResponse{}, err
	}

	_, err := s.repo.FindOpenByUser(ctx, actor.UserID)
	switch {
	case err == nil:
		return worksession.SessionResponse{}, worksession.ErrSessionAlreadyOpen
	case !errors.Is(err, worksession.ErrNoOpenSession):
		return worksession.SessionResponse{}, fmt.Errorf("failed to check open session: %w", err)
	}

	now := s.now()
	created, err := s.repo.Create(ctx, worksession.WorkSession{
		ProjectID:   actor.ProjectID,
		UserID:      actor.UserID,
		StartAt:     now,
		Description: req.Description,
	})
	if err != nil {
		return worksession.SessionResponse{}, fmt.Errorf("failed to create work session: %w", err)
	}

	slog.Info("clocked in", "user_id", actor.UserID, "session_id", created.ID)
	s.notifyManager(ctx, actor, notification.TypeSessionClockIn, "Clocked in",
		fmt.Sprintf("%s started working", actor.Email), created.ID)

	return worksession.NewSessionResponse(created, now), nil
}

// ClockOut implements worksession.Service.
func (s *WorkSessionServiceImpl) ClockOut(ctx context.Context, actor project.Actor) (worksession.SessionResponse, error) {
	if err := requireTracking(actor); err != nil {
		return worksession.SessionResponse{}, err
	}

	now := s.now()
	var closed worksession.WorkSession
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		open, err := s.repo.GetOpenByUser(txCtx, actor.UserID)
		if err != nil {
			return err
		}
		if err := s.repo.EndOpenBreak(txCtx, open.ID, now); err != nil && !errors.Is(err, worksession.ErrNoOpenBreak) {
			return fmt.Errorf("failed to end break: %w", err)
		}
		if err := s.repo.Close(txCtx, open.ID, now); err != nil {
			return fmt.Errorf("failed to close work session: %w", err)
		}
		closed, err = s.repo.GetByID(txCtx, open.ID)
		return err
	})
	if err != nil {
		return worksession.SessionResponse{}, err
	}

	resp := worksession.NewSessionResponse(closed, now)
	slog.Info("clocked out", "user_id", actor.UserID, "session_id", closed.ID, "worked_hours", resp.WorkedHours)
	s.notifyManager(ctx, actor, notification.TypeSessionClockOut, "Clocked out",
		fmt.Sprintf("%s finished working after %.2f hours", actor.Email, resp.WorkedHours), closed.ID)

	return resp, nil
}

// StartBreak implements worksession.Service.
func (s *WorkSessionServiceImpl) StartBreak(ctx context.Context, actor project.Actor) (worksession.SessionResponse, error) {
	if err := requireTracking(actor); err != nil {
		return worksession.SessionResponse{}, err
	}

	now := s.now()
	var current worksession.WorkSession
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		open, err := s.repo.GetOpenByUser(txCtx, actor.UserID)
		if err != nil {
			return err
		}
		if open.OpenBreak() != nil {
			return worksession.ErrBreakAlreadyOpen
		}
		if _, err := s.repo.StartBreak(txCtx, open.ID, now); err != nil {
			return fmt.Errorf("failed to start break: %w", err)
		}
		current, err = s.repo.GetByID(txCtx, open.ID)
		return err
	})
	if err != nil {
		return worksession.SessionResponse{}, err
	}
	return worksession.NewSessionResponse(current, now), nil
}

// EndBreak implements worksession.Service.
func (s *WorkSessionServiceImpl) EndBreak(ctx context.Context, actor project.Actor) (worksession.SessionResponse, error) {
	if err := requireTracking(actor); err != nil {
		return worksession.SessionResponse{}, err
	}

	now := s.now()
	var current worksession.WorkSession
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		open, err := s.repo.GetOpenByUser(txCtx, actor.UserID)
		if err != nil {
			return err
		}
		if open.OpenBreak() == nil {
			return worksession.ErrNoOpenBreak
		}
		if err := s.repo.EndOpenBreak(txCtx, open.ID, now); err != nil {
			return err
		}
		current, err = s.repo.GetByID(txCtx, open.ID)
		return err
	})
	if err != nil {
		return worksession.SessionResponse{}, err
	}
	return worksession.NewSessionResponse(current, now), nil
}

// Status implements worksession.Service.
func (s *WorkSessionServiceImpl) Status(ctx context.Context, actor project.Actor) (worksession.StatusResponse, error) {
	open, err := s.repo.FindOpenByUser(ctx, actor.UserID)
	if errors.Is(err, worksession.ErrNoOpenSession) {
		return worksession.StatusResponse{}, nil
	}
	if err != nil {
		return worksession.StatusResponse{}, fmt.Errorf("failed to load open session: %w", err)
	}

	now := s.now()
	resp := worksession.NewSessionResponse(open, now)
	return worksession.StatusResponse{
		Active:         true,
		OnBreak:        open.OpenBreak() != nil,
		Session:        &resp,
		ElapsedSeconds: int64(open.Net(now) / time.Second),
	}, nil
}

// CreateManual implements worksession.Service.
func (s *WorkSessionServiceImpl) CreateManual(ctx context.Context, actor project.Actor, req worksession.SessionRequest) (worksession.SessionResponse, error) {
	if err := requireTracking(actor); err != nil {
		return worksession.SessionResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return worksession.SessionResponse{}, err
	}

	start, end, breaks := req.Parsed()
	now := s.now()
	if end.After(now) {
		return worksession.SessionResponse{}, worksession.ErrSessionInFuture
	}

	var created worksession.WorkSession
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.repo.Create(txCtx, worksession.WorkSession{
			ProjectID:   actor.ProjectID,
			UserID:      actor.UserID,
			StartAt:     start,
			EndAt:       &end,
			Description: req.Description,
			IsManual:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create work session: %w", err)
		}
		if len(breaks) > 0 {
			if err := s.repo.ReplaceBreaks(txCtx, created.ID, breaks); err != nil {
				return fmt.Errorf("failed to save breaks: %w", err)
			}
		}
		created, err = s.repo.GetByID(txCtx, created.ID)
		return err
	})
	if err != nil {
		return worksession.SessionResponse{}, err
	}

	slog.Info("manual session created", "user_id", actor.UserID, "session_id", created.ID)
	return worksession.NewSessionResponse(created, now), nil
}

// List implements worksession.Service.
func (s *WorkSessionServiceImpl) List(ctx context.Context, actor project.Actor, filter worksession.SessionFilter) (worksession.ListSessionsResponse, error) {
	if actor.ProjectID == "" {
		return worksession.ListSessionsResponse{}, project.ErrProjectRequired
	}
	if err := filter.Validate(); err != nil {
		return worksession.ListSessionsResponse{}, err
	}

	if filter.UserID == "" {
		filter.UserID = actor.UserID
	}
	if filter.UserID != actor.UserID {
		if err := s.access.AuthorizeMemberAccess(ctx, actor, filter.UserID); err != nil {
			return worksession.ListSessionsResponse{}, err
		}
	}

	target, err := s.users.GetByID(ctx, filter.UserID)
	if err != nil {
		return worksession.ListSessionsResponse{}, fmt.Errorf("failed to load user: %w", err)
	}

	sessions, total, err := s.repo.List(ctx, actor.ProjectID, filter, target.Location())
	if err != nil {
		return worksession.ListSessionsResponse{}, fmt.Errorf("failed to list work sessions: %w", err)
	}

	now := s.now()
	responses := make([]worksession.SessionResponse, 0, len(sessions))
	for _, ws := range sessions {
		responses = append(responses, worksession.NewSessionResponse(ws, now))
	}

	return worksession.ListSessionsResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
		Sessions:   responses,
	}, nil
}

// Update implements worksession.Service.
func (s *WorkSessionServiceImpl) Update(ctx context.Context, actor project.Actor, id string, req worksession.SessionRequest) (worksession.SessionResponse, error) {
	if err := req.Validate(); err != nil {
		return worksession.SessionResponse{}, err
	}

	existing, err := s.loadEditable(ctx, actor, id)
	if err != nil {
		return worksession.SessionResponse{}, err
	}
	if existing.IsOpen() {
		return worksession.SessionResponse{}, worksession.ErrSessionStillOpen
	}

	start, end, breaks := req.Parsed()
	now := s.now()
	if end.After(now) {
		return worksession.SessionResponse{}, worksession.ErrSessionInFuture
	}

	var updated worksession.WorkSession
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.repo.UpdateTimes(txCtx, id, start, end, req.Description); err != nil {
			return fmt.Errorf("failed to update work session: %w", err)
		}
		if err := s.repo.ReplaceBreaks(txCtx, id, breaks); err != nil {
			return fmt.Errorf("failed to save breaks: %w", err)
		}
		updated, err = s.repo.GetByID(txCtx, id)
		return err
	})
	if err != nil {
		return worksession.SessionResponse{}, err
	}

	slog.Info("work session updated", "session_id", id, "editor_id", actor.UserID, "owner_id", existing.UserID)
	if existing.UserID != actor.UserID {
		s.notify(ctx, notification.CreateNotificationRequest{
			ProjectID:   actor.ProjectID,
			RecipientID: existing.UserID,
			SenderID:    &actor.UserID,
			Type:        notification.TypeSessionEdited,
			Title:       "Work session edited",
			Message:     fmt.Sprintf("%s edited your session from %s", actor.Email, existing.StartAt.Format("2006-01-02")),
			Data:        map[string]interface{}{"session_id": id},
		})
	}
	return worksession.NewSessionResponse(updated, now), nil
}

// Delete implements worksession.Service.
func (s *WorkSessionServiceImpl) Delete(ctx context.Context, actor project.Actor, id string) error {
	existing, err := s.loadEditable(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete work session: %w", err)
	}
	slog.Info("work session deleted", "session_id", id, "editor_id", actor.UserID, "owner_id", existing.UserID)
	return nil
}

// loadEditable fetches a session in the actor's project and checks the actor may change it.
// Owners may edit their manual entries; anyone else needs edit rights over the owner.
func (s *WorkSessionServiceImpl) loadEditable(ctx context.Context, actor project.Actor, id string) (worksession.WorkSession, error) {
	if actor.ProjectID == "" {
		return worksession.WorkSession{}, project.ErrProjectRequired
	}

	ws, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return worksession.WorkSession{}, err
	}
	if ws.ProjectID != actor.ProjectID {
		return worksession.WorkSession{}, worksession.ErrSessionNotFound
	}

	if ws.UserID == actor.UserID {
		if actor.Can(project.PermissionAttendanceEditAll) || ws.IsManual {
			return ws, nil
		}
		return worksession.WorkSession{}, worksession.ErrSessionNotEditable
	}

	if !actor.Can(project.PermissionAttendanceEditAll) {
		return worksession.WorkSession{}, worksession.ErrSessionAccessDenied
	}
	if err := s.access.AuthorizeMemberAccess(ctx, actor, ws.UserID); err != nil {
		if errors.Is(err, project.ErrNotInReportingLine) || errors.Is(err, project.ErrInsufficientRole) {
			return worksession.WorkSession{}, worksession.ErrSessionAccessDenied
		}
		return worksession.WorkSession{}, err
	}
	return ws, nil
}

// AutoCloseStale implements worksession.Service.
func (s *WorkSessionServiceImpl) AutoCloseStale(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-worksession.MaxSessionLength)
	stale, err := s.repo.ListOpenStartedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale sessions: %w", err)
	}

	closed := 0
	for _, ws := range stale {
		end := ws.StartAt.Add(worksession.MaxSessionLength)
		err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
			if b := ws.OpenBreak(); b != nil {
				breakEnd := end
				if b.StartAt.After(breakEnd) {
					breakEnd = b.StartAt
				}
				if err := s.repo.EndOpenBreak(txCtx, ws.ID, breakEnd); err != nil && !errors.Is(err, worksession.ErrNoOpenBreak) {
					return err
				}
			}
			return s.repo.Close(txCtx, ws.ID, end)
		})
		if err != nil {
			slog.Error("auto-close session failed", "session_id", ws.ID, "error", err)
			continue
		}
		closed++

		s.notify(ctx, notification.CreateNotificationRequest{
			ProjectID:   ws.ProjectID,
			RecipientID: ws.UserID,
			Type:        notification.TypeSessionAutoClosed,
			Title:       "Session closed automatically",
			Message:     fmt.Sprintf("Your session started %s ran for 24 hours and was closed. Please correct it if needed.", ws.StartAt.Format(time.RFC3339)),
			Data:        map[string]interface{}{"session_id": ws.ID},
		})
	}

	if closed > 0 {
		slog.Info("auto-closed stale sessions", "count", closed)
	}
	return closed, nil
}

func (s *WorkSessionServiceImpl) notifyManager(ctx context.Context, actor project.Actor, t notification.NotificationType, title, message, sessionID string) {
	if s.notifier == nil || s.members == nil {
		return
	}
	m, err := s.members.Get(ctx, actor.ProjectID, actor.UserID)
	if err != nil {
		slog.Warn("could not resolve manager for notification", "user_id", actor.UserID, "error", err)
		return
	}
	if m.ManagerID == nil {
		return
	}
	s.notify(ctx, notification.CreateNotificationRequest{
		ProjectID:   actor.ProjectID,
		RecipientID: *m.ManagerID,
		SenderID:    &actor.UserID,
		Type:        t,
		Title:       title,
		Message:     message,
		Data:        map[string]interface{}{"session_id": sessionID, "user_id": actor.UserID},
	})
}

func (s *WorkSessionServiceImpl) notify(ctx context.Context, req notification.CreateNotificationRequest) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.QueueNotification(ctx, req); err != nil {
		slog.Error("queue notification failed", "type", req.Type, "recipient_id", req.RecipientID, "error", err)
	}
}
