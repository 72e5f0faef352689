package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/worktally/worktally-backend/internal/domain/notification"
	"github.com/worktally/worktally-backend/internal/domain/project"
	"github.com/worktally/worktally-backend/internal/domain/subscription"
	"github.com/worktally/worktally-backend/internal/domain/user"
	"github.com/worktally/worktally-backend/internal/pkg/database"
)

// SeatChecker reports whether the project's subscription has a free seat.
type SeatChecker interface {
	CanAddMember(ctx context.Context, projectID string) (bool, error)
}

type Notifier interface {
	QueueNotification(ctx context.Context, req notification.CreateNotificationRequest) error
}

type ProjectServiceImpl struct {
	tx            database.Transactor
	projects      project.ProjectRepository
	members       project.MemberRepository
	users         user.UserRepository
	subscriptions subscription.Repository
	seats         SeatChecker
	notifier      Notifier
	now           func() time.Time
}

func NewProjectService(
	tx database.Transactor,
	projects project.ProjectRepository,
	members project.MemberRepository,
	users user.UserRepository,
	subscriptions subscription.Repository,
	seats SeatChecker,
	notifier Notifier,
) *ProjectServiceImpl {
	return &ProjectServiceImpl{
		tx:            tx,
		projects:      projects,
		members:       members,
		users:         users,
		subscriptions: subscriptions,
		seats:         seats,
		notifier:      notifier,
		now:           time.Now,
	}
}

func requirePermission(actor project.Actor, p project.Permission) error {
	if actor.ProjectID == "" {
		return project.ErrProjectRequired
	}
	if !actor.Can(p) {
		return project.ErrInsufficientRole
	}
	return nil
}

func (s *ProjectServiceImpl) ListMine(ctx context.Context, userID string) ([]project.ProjectResponse, error) {
	memberships, err := s.projects.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]project.ProjectResponse, 0, len(memberships))
	for _, m := range memberships {
		out = append(out, project.NewProjectResponse(m.Project, m.Role))
	}
	return out, nil
}

func (s *ProjectServiceImpl) Create(ctx context.Context, userID string, req project.CreateProjectRequest) (project.ProjectResponse, error) {
	if err := req.Validate(); err != nil {
		return project.ProjectResponse{}, err
	}

	slug := req.Slug
	if slug == "" {
		var err error
		if slug, err = project.AvailableSlug(ctx, s.projects, req.Name); err != nil {
			return project.ProjectResponse{}, err
		}
	} else {
		exists, err := s.projects.SlugExists(ctx, slug)
		if err != nil {
			return project.ProjectResponse{}, fmt.Errorf("check slug: %w", err)
		}
		if exists {
			return project.ProjectResponse{}, project.ErrProjectSlugExists
		}
	}

	var created project.Project
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.projects.Create(txCtx, project.Project{Name: req.Name, Slug: slug, OwnerID: userID})
		if err != nil {
			return fmt.Errorf("create project: %w", err)
		}
		if err := s.members.Add(txCtx, project.Member{ProjectID: created.ID, UserID: userID, Role: project.RoleAdmin}); err != nil {
			return fmt.Errorf("add owner membership: %w", err)
		}
		if _, err := s.subscriptions.Create(txCtx, subscription.NewFree(created.ID, s.now())); err != nil {
			return fmt.Errorf("create subscription: %w", err)
		}
		return nil
	})
	if err != nil {
		return project.ProjectResponse{}, err
	}

	slog.Info("project created", "project_id", created.ID, "owner_id", userID)
	return project.NewProjectResponse(created, project.RoleAdmin), nil
}

func (s *ProjectServiceImpl) GetCurrent(ctx context.Context, actor project.Actor) (project.ProjectResponse, error) {
	if actor.ProjectID == "" {
		return project.ProjectResponse{}, project.ErrProjectRequired
	}
	p, err := s.projects.GetByID(ctx, actor.ProjectID)
	if err != nil {
		return project.ProjectResponse{}, err
	}
	return project.NewProjectResponse(p, actor.Role), nil
}

func (s *ProjectServiceImpl) UpdateCurrent(ctx context.Context, actor project.Actor, req project.UpdateProjectRequest) (project.ProjectResponse, error) {
	if err := requirePermission(actor, project.PermissionProjectManage); err != nil {
		return project.ProjectResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return project.ProjectResponse{}, err
	}

	p, err := s.projects.Update(ctx, actor.ProjectID, req)
	if err != nil {
		return project.ProjectResponse{}, err
	}
	return project.NewProjectResponse(p, actor.Role), nil
}

func (s *ProjectServiceImpl) DeleteCurrent(ctx context.Context, actor project.Actor) error {
	if err := requirePermission(actor, project.PermissionProjectManage); err != nil {
		return err
	}
	if err := s.projects.Delete(ctx, actor.ProjectID); err != nil {
		return err
	}
	slog.Info("project deleted", "project_id", actor.ProjectID, "deleted_by", actor.UserID)
	return nil
}

func (s *ProjectServiceImpl) ListMembers(ctx context.Context, actor project.Actor) ([]project.MemberResponse, error) {
	if err := requirePermission(actor, project.PermissionMemberView); err != nil {
		return nil, err
	}
	members, err := s.members.List(ctx, actor.ProjectID)
	if err != nil {
		return nil, err
	}
	return project.NewMemberResponses(members), nil
}

func (s *ProjectServiceImpl) AddMember(ctx context.Context, actor project.Actor, req project.AddMemberRequest) (project.MemberResponse, error) {
	if err := requirePermission(actor, project.PermissionMemberManage); err != nil {
		return project.MemberResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return project.MemberResponse{}, err
	}

	canAdd, err := s.seats.CanAddMember(ctx, actor.ProjectID)
	if err != nil {
		return project.MemberResponse{}, fmt.Errorf("check seats: %w", err)
	}
	if !canAdd {
		return project.MemberResponse{}, subscription.ErrSeatLimitExceeded
	}

	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return project.MemberResponse{}, err
	}

	if _, err := s.members.Get(ctx, actor.ProjectID, u.ID); err == nil {
		return project.MemberResponse{}, project.ErrAlreadyMember
	} else if !errors.Is(err, project.ErrMemberNotFound) {
		return project.MemberResponse{}, err
	}

	if err := s.members.Add(ctx, project.Member{ProjectID: actor.ProjectID, UserID: u.ID, Role: req.Role}); err != nil {
		return project.MemberResponse{}, fmt.Errorf("add member: %w", err)
	}

	added, err := s.members.Get(ctx, actor.ProjectID, u.ID)
	if err != nil {
		return project.MemberResponse{}, err
	}

	s.notify(ctx, notification.CreateNotificationRequest{
		ProjectID:   actor.ProjectID,
		RecipientID: u.ID,
		SenderID:    &actor.UserID,
		Type:        notification.TypeMemberAdded,
		Title:       "Added to project",
		Message:     fmt.Sprintf("You were added to the project as %s.", req.Role),
	})

	return project.NewMemberResponse(added), nil
}

func (s *ProjectServiceImpl) UpdateMemberRole(ctx context.Context, actor project.Actor, userID string, req project.UpdateMemberRoleRequest) (project.MemberResponse, error) {
	if err := requirePermission(actor, project.PermissionMemberManage); err != nil {
		return project.MemberResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return project.MemberResponse{}, err
	}

	member, err := s.members.Get(ctx, actor.ProjectID, userID)
	if err != nil {
		return project.MemberResponse{}, err
	}
	if member.Role == req.Role {
		return project.NewMemberResponse(member), nil
	}

	if member.Role == project.RoleAdmin {
		if err := s.ensureAnotherAdmin(ctx, actor.ProjectID); err != nil {
			return project.MemberResponse{}, err
		}
	}

	if err := s.members.UpdateRole(ctx, actor.ProjectID, userID, req.Role); err != nil {
		return project.MemberResponse{}, err
	}
	member.Role = req.Role
	return project.NewMemberResponse(member), nil
}

func (s *ProjectServiceImpl) RemoveMember(ctx context.Context, actor project.Actor, userID string) error {
	if err := requirePermission(actor, project.PermissionMemberManage); err != nil {
		return err
	}

	p, err := s.projects.GetByID(ctx, actor.ProjectID)
	if err != nil {
		return err
	}
	if p.OwnerID == userID {
		return project.ErrOwnerCannotBeRemoved
	}

	member, err := s.members.Get(ctx, actor.ProjectID, userID)
	if err != nil {
		return err
	}
	if member.Role == project.RoleAdmin {
		if err := s.ensureAnotherAdmin(ctx, actor.ProjectID); err != nil {
			return err
		}
	}

	return s.members.Remove(ctx, actor.ProjectID, userID)
}

func (s *ProjectServiceImpl) ensureAnotherAdmin(ctx context.Context, projectID string) error {
	admins, err := s.members.CountByRole(ctx, projectID, project.RoleAdmin)
	if err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if admins <= 1 {
		return project.ErrLastAdmin
	}
	return nil
}

// AssignManager sets or clears userID's manager. The hierarchy is locked for the duration so two
// concurrent assignments cannot together close a cycle.
func (s *ProjectServiceImpl) AssignManager(ctx context.Context, actor project.Actor, userID string, req project.AssignManagerRequest) (project.MemberResponse, error) {
	if err := requirePermission(actor, project.PermissionHierarchyEdit); err != nil {
		return project.MemberResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return project.MemberResponse{}, err
	}

	var updated project.Member
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.members.LockHierarchy(txCtx, actor.ProjectID); err != nil {
			return fmt.Errorf("lock hierarchy: %w", err)
		}

		members, err := s.members.List(txCtx, actor.ProjectID)
		if err != nil {
			return err
		}
		byID := make(map[string]project.Member, len(members))
		for _, m := range members {
			byID[m.UserID] = m
		}
		lookup := project.NewManagerMap(members)

		target, ok := byID[userID]
		if !ok {
			return project.ErrMemberNotFound
		}

		if req.ManagerID != nil {
			if _, ok := byID[*req.ManagerID]; !ok {
				return project.ErrManagerNotMember
			}
		}
		if !actor.IsAdmin() && !canManagerReassign(lookup, actor.UserID, target, req.ManagerID) {
			return project.ErrNotInReportingLine
		}
		if req.ManagerID != nil {
			if err := project.ValidateManagerAssignment(lookup, userID, *req.ManagerID); err != nil {
				return err
			}
		}

		if err := s.members.UpdateManager(txCtx, actor.ProjectID, userID, req.ManagerID); err != nil {
			return err
		}
		target.ManagerID = req.ManagerID
		updated = target
		return nil
	})
	if err != nil {
		return project.MemberResponse{}, err
	}

	if req.ManagerID != nil {
		s.notify(ctx, notification.CreateNotificationRequest{
			ProjectID:   actor.ProjectID,
			RecipientID: userID,
			SenderID:    &actor.UserID,
			Type:        notification.TypeManagerAssigned,
			Title:       "Manager assigned",
			Message:     "Your manager has been updated.",
			Data:        map[string]interface{}{"manager_id": *req.ManagerID},
		})
	}

	return project.NewMemberResponse(updated), nil
}

// canManagerReassign limits non-admins to members below them, or unassigned members they take on themselves.
func canManagerReassign(lookup project.ManagerLookup, actorID string, target project.Member, newManagerID *string) bool {
	if project.IsInReportingLine(lookup, actorID, target.UserID) {
		return newManagerID == nil || *newManagerID == actorID || project.IsInReportingLine(lookup, actorID, *newManagerID)
	}
	return target.ManagerID == nil && newManagerID != nil && *newManagerID == actorID
}

func (s *ProjectServiceImpl) ListReports(ctx context.Context, actor project.Actor, userID string) ([]project.MemberResponse, error) {
	if err := requirePermission(actor, project.PermissionMemberView); err != nil {
		return nil, err
	}
	if _, err := s.members.Get(ctx, actor.ProjectID, userID); err != nil {
		return nil, err
	}
	reports, err := s.members.ListDirectReports(ctx, actor.ProjectID, userID)
	if err != nil {
		return nil, err
	}
	return project.NewMemberResponses(reports), nil
}

func (s *ProjectServiceImpl) GetChain(ctx context.Context, actor project.Actor, userID string) ([]project.MemberResponse, error) {
	if err := requirePermission(actor, project.PermissionMemberView); err != nil {
		return nil, err
	}

	members, err := s.members.List(ctx, actor.ProjectID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]project.Member, len(members))
	for _, m := range members {
		byID[m.UserID] = m
	}
	if _, ok := byID[userID]; !ok {
		return nil, project.ErrMemberNotFound
	}

	chain := project.ManagerChain(project.NewManagerMap(members), userID)
	out := make([]project.MemberResponse, 0, len(chain))
	for _, id := range chain {
		if m, ok := byID[id]; ok {
			out = append(out, project.NewMemberResponse(m))
		}
	}
	return out, nil
}

func (s *ProjectServiceImpl) AuthorizeMemberAccess(ctx context.Context, actor project.Actor, targetUserID string) error {
	if actor.ProjectID == "" {
		return project.ErrProjectRequired
	}
	if targetUserID == actor.UserID {
		return nil
	}
	if !actor.Can(project.PermissionAttendanceViewAll) {
		return project.ErrInsufficientRole
	}

	members, err := s.members.List(ctx, actor.ProjectID)
	if err != nil {
		return err
	}
	found := false
	for _, m := range members {
		if m.UserID == targetUserID {
			found = true
			break
		}
	}
	if !found {
		return project.ErrNotProjectMember
	}
	if actor.IsAdmin() {
		return nil
	}
	if !project.IsInReportingLine(project.NewManagerMap(members), actor.UserID, targetUserID) {
		return project.ErrNotInReportingLine
	}
	return nil
}

func (s *ProjectServiceImpl) notify(ctx context.Context, req notification.CreateNotificationRequest) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.QueueNotification(ctx, req); err != nil {
		slog.Error("queue notification failed", "type", req.Type, "recipient_id", req.RecipientID, "error", err)
	}
}
