package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/worktally/worktally-backend/internal/domain/notification"
	"github.com/worktally/worktally-backend/internal/domain/project"
	"github.com/worktally/worktally-backend/internal/domain/subscription"
)

var fixedNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type fakeRepo struct {
	subscription.Repository
	subs    map[string]subscription.Subscription
	lapsed  []subscription.Subscription
	updates int
}

func (f *fakeRepo) GetByProjectID(_ context.Context, projectID string) (subscription.Subscription, error) {
	s, ok := f.subs[projectID]
	if !ok {
		return subscription.Subscription{}, subscription.ErrSubscriptionNotFound
	}
	return s, nil
}

func (f *fakeRepo) Update(_ context.Context, s subscription.Subscription) (subscription.Subscription, error) {
	f.updates++
	f.subs[s.ProjectID] = s
	return s, nil
}

func (f *fakeRepo) ListLapsed(context.Context, time.Time) ([]subscription.Subscription, error) {
	return f.lapsed, nil
}

type fakeMembers struct {
	count   int
	members []project.Member
}

func (f *fakeMembers) Count(context.Context, string) (int, error) { return f.count, nil }

func (f *fakeMembers) List(context.Context, string) ([]project.Member, error) { return f.members, nil }

type fakeNotifier struct {
	reqs []notification.CreateNotificationRequest
}

func (f *fakeNotifier) QueueBulkNotification(_ context.Context, reqs []notification.CreateNotificationRequest) error {
	f.reqs = append(f.reqs, reqs...)
	return nil
}

func newTestService(repo *fakeRepo, members *fakeMembers, notifier Notifier) *SubscriptionServiceImpl {
	svc := NewSubscriptionService(repo, members, notifier)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func adminActor() project.Actor {
	return project.Actor{UserID: "u-admin", ProjectID: "p-1", Role: project.RoleAdmin}
}

func TestChangeTier_UpgradeToPro(t *testing.T) {
	repo := &fakeRepo{subs: map[string]subscription.Subscription{"p-1": subscription.NewFree("p-1", fixedNow)}}
	members := &fakeMembers{count: 3, members: []project.Member{
		{UserID: "u-admin", Role: project.RoleAdmin},
		{UserID: "u-2", Role: project.RoleEmployee},
	}}
	notifier := &fakeNotifier{}
	svc := newTestService(repo, members, notifier)

	resp, err := svc.ChangeTier(context.Background(), adminActor(), subscription.ChangeTierRequest{Tier: subscription.TierPro, PeriodMonths: 2})
	require.NoError(t, err)

	assert.Equal(t, subscription.TierPro, resp.Tier)
	require.NotNil(t, resp.CurrentPeriodEnd)
	assert.Equal(t, fixedNow.AddDate(0, 2, 0), *resp.CurrentPeriodEnd)
	assert.True(t, decimal.RequireFromString("18.00").Equal(resp.MonthlyTotal))
	assert.Contains(t, resp.Features, subscription.FeatureTasks)

	require.Len(t, notifier.reqs, 1)
	assert.Equal(t, "u-admin", notifier.reqs[0].RecipientID)
	assert.Equal(t, notification.TypeSubscriptionChanged, notifier.reqs[0].Type)
}

func TestChangeTier_Rejections(t *testing.T) {
	repo := &fakeRepo{subs: map[string]subscription.Subscription{"p-1": subscription.NewFree("p-1", fixedNow)}}
	svc := newTestService(repo, &fakeMembers{count: 10}, nil)

	employee := adminActor()
	employee.Role = project.RoleEmployee
	_, err := svc.ChangeTier(context.Background(), employee, subscription.ChangeTierRequest{Tier: subscription.TierPro})
	assert.ErrorIs(t, err, project.ErrInsufficientRole)

	_, err = svc.ChangeTier(context.Background(), adminActor(), subscription.ChangeTierRequest{Tier: subscription.TierFree})
	assert.ErrorIs(t, err, subscription.ErrSameTier)

	_, err = svc.ChangeTier(context.Background(), adminActor(), subscription.ChangeTierRequest{Tier: "gold"})
	assert.Error(t, err)

	repo.subs["p-1"] = subscription.Subscription{ProjectID: "p-1", Tier: subscription.TierBusiness, Status: subscription.StatusActive}
	svc.members = &fakeMembers{count: 30}
	_, err = svc.ChangeTier(context.Background(), adminActor(), subscription.ChangeTierRequest{Tier: subscription.TierPro})
	assert.ErrorIs(t, err, subscription.ErrSeatsBelowMembers)
	assert.Equal(t, 0, repo.updates)
}

func TestCanAddMember(t *testing.T) {
	repo := &fakeRepo{subs: map[string]subscription.Subscription{"p-1": subscription.NewFree("p-1", fixedNow)}}
	members := &fakeMembers{count: 2}
	svc := newTestService(repo, members, nil)

	ok, err := svc.CanAddMember(context.Background(), "p-1")
	require.NoError(t, err)
	assert.True(t, ok)

	members.count = 3
	ok, err = svc.CanAddMember(context.Background(), "p-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasFeature_LapsedFallsBackToFree(t *testing.T) {
	ended := fixedNow.Add(-time.Hour)
	repo := &fakeRepo{subs: map[string]subscription.Subscription{"p-1": {
		ProjectID:        "p-1",
		Tier:             subscription.TierPro,
		Status:           subscription.StatusActive,
		CurrentPeriodEnd: &ended,
	}}}
	svc := newTestService(repo, &fakeMembers{}, nil)

	ok, err := svc.HasFeature(context.Background(), "p-1", subscription.FeatureTasks)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.HasFeature(context.Background(), "p-1", subscription.FeatureAttendance)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestExpireLapsed(t *testing.T) {
	ended := fixedNow.Add(-24 * time.Hour)
	lapsed := subscription.Subscription{ProjectID: "p-9", Tier: subscription.TierPro, Status: subscription.StatusActive, CurrentPeriodEnd: &ended}
	repo := &fakeRepo{subs: map[string]subscription.Subscription{}, lapsed: []subscription.Subscription{lapsed}}
	notifier := &fakeNotifier{}
	svc := newTestService(repo, &fakeMembers{members: []project.Member{{UserID: "u-a", Role: project.RoleAdmin}}}, notifier)

	n, err := svc.ExpireLapsed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got := repo.subs["p-9"]
	assert.Equal(t, subscription.TierFree, got.Tier)
	assert.Equal(t, subscription.StatusExpired, got.Status)
	assert.Nil(t, got.CurrentPeriodEnd)
	require.Len(t, notifier.reqs, 1)
	assert.Equal(t, notification.TypeSubscriptionExpired, notifier.reqs[0].Type)
}

func TestTokenClaims(t *testing.T) {
	end := fixedNow.Add(72 * time.Hour)
	repo := &fakeRepo{subs: map[string]subscription.Subscription{"p-1": {
		ProjectID: "p-1", Tier: subscription.TierBusiness, Status: subscription.StatusActive, CurrentPeriodEnd: &end,
	}}}
	svc := newTestService(repo, &fakeMembers{}, nil)

	claims, err := svc.TokenClaims(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Contains(t, claims.Features, subscription.FeatureHierarchy)
	assert.Equal(t, &end, claims.SubscriptionExpiresAt)
}
