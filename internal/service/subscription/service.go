package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/worktally/worktally-backend/internal/domain/notification"
	"github.com/worktally/worktally-backend/internal/domain/project"
	"github.com/worktally/worktally-backend/internal/domain/subscription"
	"github.com/worktally/worktally-backend/internal/pkg/jwt"
)

// MemberCounter is the slice of the member repository the subscription service needs.
type MemberCounter interface {
	Count(ctx context.Context, projectID string) (int, error)
	List(ctx context.Context, projectID string) ([]project.Member, error)
}

type Notifier interface {
	QueueBulkNotification(ctx context.Context, reqs []notification.CreateNotificationRequest) error
}

type SubscriptionServiceImpl struct {
	repo     subscription.Repository
	members  MemberCounter
	notifier Notifier
	now      func() time.Time
}

func NewSubscriptionService(repo subscription.Repository, members MemberCounter, notifier Notifier) *SubscriptionServiceImpl {
	return &SubscriptionServiceImpl{
		repo:     repo,
		members:  members,
		notifier: notifier,
		now:      time.Now,
	}
}

func (s *SubscriptionServiceImpl) ListPlans() []subscription.PlanResponse {
	plans := subscription.Plans()
	responses := make([]subscription.PlanResponse, len(plans))
	for i, p := range plans {
		responses[i] = subscription.NewPlanResponse(p)
	}
	return responses
}

func (s *SubscriptionServiceImpl) GetCurrent(ctx context.Context, projectID string) (subscription.SubscriptionResponse, error) {
	sub, err := s.repo.GetByProjectID(ctx, projectID)
	if err != nil {
		return subscription.SubscriptionResponse{}, err
	}
	used, err := s.members.Count(ctx, projectID)
	if err != nil {
		return subscription.SubscriptionResponse{}, fmt.Errorf("count members: %w", err)
	}
	return subscription.NewSubscriptionResponse(sub, used, s.now()), nil
}

func (s *SubscriptionServiceImpl) ChangeTier(ctx context.Context, actor project.Actor, req subscription.ChangeTierRequest) (subscription.SubscriptionResponse, error) {
	if !actor.Can(project.PermissionSubscriptionManage) {
		return subscription.SubscriptionResponse{}, project.ErrInsufficientRole
	}
	if err := req.Validate(); err != nil {
		return subscription.SubscriptionResponse{}, err
	}

	sub, err := s.repo.GetByProjectID(ctx, actor.ProjectID)
	if err != nil {
		return subscription.SubscriptionResponse{}, err
	}
	now := s.now()
	if sub.Tier == req.Tier && sub.IsActive(now) {
		return subscription.SubscriptionResponse{}, subscription.ErrSameTier
	}

	plan, _ := subscription.PlanFor(req.Tier)
	used, err := s.members.Count(ctx, actor.ProjectID)
	if err != nil {
		return subscription.SubscriptionResponse{}, fmt.Errorf("count members: %w", err)
	}
	if plan.MaxSeats != nil && used > *plan.MaxSeats {
		return subscription.SubscriptionResponse{}, subscription.ErrSeatsBelowMembers
	}

	sub.Tier = plan.Tier
	sub.Status = subscription.StatusActive
	sub.MaxSeats = plan.MaxSeats
	sub.PricePerSeat = plan.PricePerSeat
	sub.CurrentPeriodStart = now
	sub.CurrentPeriodEnd = nil
	if plan.Tier != subscription.TierFree {
		end := now.AddDate(0, req.PeriodMonths, 0)
		sub.CurrentPeriodEnd = &end
	}

	updated, err := s.repo.Update(ctx, sub)
	if err != nil {
		return subscription.SubscriptionResponse{}, fmt.Errorf("update subscription: %w", err)
	}

	slog.Info("subscription tier changed", "project_id", actor.ProjectID, "tier", updated.Tier, "changed_by", actor.UserID)
	s.notifyAdmins(ctx, actor.ProjectID, &actor.UserID, notification.TypeSubscriptionChanged,
		"Subscription updated", fmt.Sprintf("The project is now on the %s plan.", plan.Name))

	return subscription.NewSubscriptionResponse(updated, used, now), nil
}

func (s *SubscriptionServiceImpl) HasFeature(ctx context.Context, projectID, featureCode string) (bool, error) {
	sub, err := s.repo.GetByProjectID(ctx, projectID)
	if err != nil {
		return false, err
	}
	return sub.HasFeature(featureCode, s.now()), nil
}

func (s *SubscriptionServiceImpl) CanAddMember(ctx context.Context, projectID string) (bool, error) {
	sub, err := s.repo.GetByProjectID(ctx, projectID)
	if err != nil {
		return false, err
	}
	used, err := s.members.Count(ctx, projectID)
	if err != nil {
		return false, fmt.Errorf("count members: %w", err)
	}
	return sub.CanAddMember(used), nil
}

func (s *SubscriptionServiceImpl) TokenClaims(ctx context.Context, projectID string) (*jwt.SubscriptionClaims, error) {
	sub, err := s.repo.GetByProjectID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &jwt.SubscriptionClaims{
		Features:              sub.Features(s.now()),
		SubscriptionExpiresAt: sub.CurrentPeriodEnd,
	}, nil
}

func (s *SubscriptionServiceImpl) ExpireLapsed(ctx context.Context) (int, error) {
	now := s.now()
	lapsed, err := s.repo.ListLapsed(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list lapsed subscriptions: %w", err)
	}

	free, _ := subscription.PlanFor(subscription.TierFree)
	expired := 0
	for _, sub := range lapsed {
		previous := sub.Plan().Name
		sub.Tier = free.Tier
		sub.Status = subscription.StatusExpired
		sub.MaxSeats = free.MaxSeats
		sub.PricePerSeat = free.PricePerSeat
		sub.CurrentPeriodStart = now
		sub.CurrentPeriodEnd = nil

		if _, err := s.repo.Update(ctx, sub); err != nil {
			slog.Error("expire subscription failed", "project_id", sub.ProjectID, "error", err)
			continue
		}
		expired++
		s.notifyAdmins(ctx, sub.ProjectID, nil, notification.TypeSubscriptionExpired,
			"Subscription expired", fmt.Sprintf("The %s plan has expired and the project was moved to the Free plan.", previous))
	}
	return expired, nil
}

func (s *SubscriptionServiceImpl) notifyAdmins(ctx context.Context, projectID string, senderID *string, t notification.NotificationType, title, message string) {
	if s.notifier == nil {
		return
	}
	members, err := s.members.List(ctx, projectID)
	if err != nil {
		slog.Error("list members for notification failed", "project_id", projectID, "error", err)
		return
	}

	var reqs []notification.CreateNotificationRequest
	for _, m := range members {
		if m.Role != project.RoleAdmin {
			continue
		}
		reqs = append(reqs, notification.CreateNotificationRequest{
			ProjectID:   projectID,
			RecipientID: m.UserID,
			SenderID:    senderID,
			Type:        t,
			Title:       title,
			Message:     message,
		})
	}
	if len(reqs) > 0 {
		_ = s.notifier.QueueBulkNotification(ctx, reqs)
	}
}
