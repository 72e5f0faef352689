package project

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/worktally/worktally-backend/internal/domain/notification"
	"github.com/worktally/worktally-backend/internal/domain/project"
	"github.com/worktally/worktally-backend/internal/domain/subscription"
	"github.com/worktally/worktally-backend/internal/domain/user"
)

type fakeTx struct{}

func (fakeTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeProjects struct {
	project.ProjectRepository
	p project.Project
}

func (f *fakeProjects) GetByID(_ context.Context, id string) (project.Project, error) {
	if id != f.p.ID {
		return project.Project{}, project.ErrProjectNotFound
	}
	return f.p, nil
}

type fakeMembers struct {
	project.MemberRepository
	byID   map[string]project.Member
	locked int
}

func newFakeMembers(members ...project.Member) *fakeMembers {
	f := &fakeMembers{byID: map[string]project.Member{}}
	for _, m := range members {
		m.ProjectID = "p-1"
		f.byID[m.UserID] = m
	}
	return f
}

func (f *fakeMembers) Get(_ context.Context, _, userID string) (project.Member, error) {
	m, ok := f.byID[userID]
	if !ok {
		return project.Member{}, project.ErrMemberNotFound
	}
	return m, nil
}

func (f *fakeMembers) List(context.Context, string) ([]project.Member, error) {
	out := make([]project.Member, 0, len(f.byID))
	for _, m := range f.byID {
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeMembers) Add(_ context.Context, m project.Member) error {
	f.byID[m.UserID] = m
	return nil
}

func (f *fakeMembers) CountByRole(_ context.Context, _ string, role project.Role) (int, error) {
	n := 0
	for _, m := range f.byID {
		if m.Role == role {
			n++
		}
	}
	return n, nil
}

func (f *fakeMembers) UpdateRole(_ context.Context, _, userID string, role project.Role) error {
	m := f.byID[userID]
	m.Role = role
	f.byID[userID] = m
	return nil
}

func (f *fakeMembers) UpdateManager(_ context.Context, _, userID string, managerID *string) error {
	m := f.byID[userID]
	m.ManagerID = managerID
	f.byID[userID] = m
	return nil
}

func (f *fakeMembers) LockHierarchy(context.Context, string) error {
	f.locked++
	return nil
}

func (f *fakeMembers) Remove(_ context.Context, _, userID string) error {
	delete(f.byID, userID)
	return nil
}

type fakeUsers struct {
	user.UserRepository
	users []user.User
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (user.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, user.ErrUserNotFound
}

type fakeSeats struct{ ok bool }

func (f fakeSeats) CanAddMember(context.Context, string) (bool, error) { return f.ok, nil }

type fakeNotifier struct {
	reqs []notification.CreateNotificationRequest
}

func (f *fakeNotifier) QueueNotification(_ context.Context, req notification.CreateNotificationRequest) error {
	f.reqs = append(f.reqs, req)
	return nil
}

func ptr(s string) *string { return &s }

func actor(id string, role project.Role) project.Actor {
	return project.Actor{UserID: id, ProjectID: "p-1", Role: role}
}

// org: admin; m1 (manager) <- e1 <- e2; m2 (manager) <- e3; e4 unassigned
func newOrg() *fakeMembers {
	return newFakeMembers(
		project.Member{UserID: "admin", Role: project.RoleAdmin},
		project.Member{UserID: "m1", Role: project.RoleManager},
		project.Member{UserID: "m2", Role: project.RoleManager},
		project.Member{UserID: "e1", Role: project.RoleEmployee, ManagerID: ptr("m1")},
		project.Member{UserID: "e2", Role: project.RoleEmployee, ManagerID: ptr("e1")},
		project.Member{UserID: "e3", Role: project.RoleEmployee, ManagerID: ptr("m2")},
		project.Member{UserID: "e4", Role: project.RoleEmployee},
	)
}

func newTestService(members *fakeMembers, notifier Notifier) *ProjectServiceImpl {
	projects := &fakeProjects{p: project.Project{ID: "p-1", OwnerID: "admin"}}
	users := &fakeUsers{users: []user.User{{ID: "new", Email: "new@worktally.io"}, {ID: "e1", Email: "e1@worktally.io"}}}
	return NewProjectService(fakeTx{}, projects, members, users, nil, fakeSeats{ok: true}, notifier)
}

func TestAssignManager_RejectsCycles(t *testing.T) {
	members := newOrg()
	svc := newTestService(members, &fakeNotifier{})
	admin := actor("admin", project.RoleAdmin)

	_, err := svc.AssignManager(context.Background(), admin, "m1", project.AssignManagerRequest{ManagerID: ptr("m1")})
	assert.ErrorIs(t, err, project.ErrSelfManagement)

	_, err = svc.AssignManager(context.Background(), admin, "m1", project.AssignManagerRequest{ManagerID: ptr("e1")})
	assert.ErrorIs(t, err, project.ErrCircularReference)

	_, err = svc.AssignManager(context.Background(), admin, "m1", project.AssignManagerRequest{ManagerID: ptr("e2")})
	assert.ErrorIs(t, err, project.ErrCircularReference)

	assert.Equal(t, "m1", *members.byID["e1"].ManagerID)
	assert.Nil(t, members.byID["m1"].ManagerID)
}

func TestAssignManager_Succeeds(t *testing.T) {
	members := newOrg()
	notifier := &fakeNotifier{}
	svc := newTestService(members, notifier)

	resp, err := svc.AssignManager(context.Background(), actor("admin", project.RoleAdmin), "m2", project.AssignManagerRequest{ManagerID: ptr("m1")})
	require.NoError(t, err)
	require.NotNil(t, resp.ManagerID)
	assert.Equal(t, "m1", *resp.ManagerID)
	assert.Equal(t, 1, members.locked)

	require.Len(t, notifier.reqs, 1)
	assert.Equal(t, notification.TypeManagerAssigned, notifier.reqs[0].Type)
	assert.Equal(t, "m2", notifier.reqs[0].RecipientID)

	_, err = svc.AssignManager(context.Background(), actor("admin", project.RoleAdmin), "e2", project.AssignManagerRequest{})
	require.NoError(t, err)
	assert.Nil(t, members.byID["e2"].ManagerID)
	assert.Len(t, notifier.reqs, 1)
}

func TestAssignManager_ManagerScope(t *testing.T) {
	members := newOrg()
	svc := newTestService(members, &fakeNotifier{})
	m1 := actor("m1", project.RoleManager)

	_, err := svc.AssignManager(context.Background(), m1, "e3", project.AssignManagerRequest{ManagerID: ptr("m1")})
	assert.ErrorIs(t, err, project.ErrNotInReportingLine)

	_, err = svc.AssignManager(context.Background(), m1, "e4", project.AssignManagerRequest{ManagerID: ptr("m1")})
	require.NoError(t, err)

	_, err = svc.AssignManager(context.Background(), m1, "e2", project.AssignManagerRequest{ManagerID: ptr("e4")})
	require.NoError(t, err)

	_, err = svc.AssignManager(context.Background(), m1, "e2", project.AssignManagerRequest{ManagerID: ptr("ghost")})
	assert.ErrorIs(t, err, project.ErrManagerNotMember)

	_, err = svc.AssignManager(context.Background(), actor("e1", project.RoleEmployee), "e2", project.AssignManagerRequest{})
	assert.ErrorIs(t, err, project.ErrInsufficientRole)
}

func TestAuthorizeMemberAccess(t *testing.T) {
	svc := newTestService(newOrg(), nil)
	ctx := context.Background()

	assert.NoError(t, svc.AuthorizeMemberAccess(ctx, actor("e1", project.RoleEmployee), "e1"))
	assert.ErrorIs(t, svc.AuthorizeMemberAccess(ctx, actor("e1", project.RoleEmployee), "e2"), project.ErrInsufficientRole)

	assert.NoError(t, svc.AuthorizeMemberAccess(ctx, actor("m1", project.RoleManager), "e2"))
	assert.ErrorIs(t, svc.AuthorizeMemberAccess(ctx, actor("m1", project.RoleManager), "e3"), project.ErrNotInReportingLine)

	assert.NoError(t, svc.AuthorizeMemberAccess(ctx, actor("admin", project.RoleAdmin), "e3"))
	assert.ErrorIs(t, svc.AuthorizeMemberAccess(ctx, actor("admin", project.RoleAdmin), "outsider"), project.ErrNotProjectMember)
}

func TestGetChain(t *testing.T) {
	svc := newTestService(newOrg(), nil)

	chain, err := svc.GetChain(context.Background(), actor("e2", project.RoleEmployee), "e2")
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, "e1", chain[0].UserID)
	assert.Equal(t, "m1", chain[1].UserID)
}

func TestUpdateMemberRole_KeepsLastAdmin(t *testing.T) {
	members := newOrg()
	svc := newTestService(members, nil)
	admin := actor("admin", project.RoleAdmin)

	_, err := svc.UpdateMemberRole(context.Background(), admin, "admin", project.UpdateMemberRoleRequest{Role: project.RoleEmployee})
	assert.ErrorIs(t, err, project.ErrLastAdmin)

	resp, err := svc.UpdateMemberRole(context.Background(), admin, "m1", project.UpdateMemberRoleRequest{Role: project.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, project.RoleAdmin, resp.Role)

	_, err = svc.UpdateMemberRole(context.Background(), admin, "admin", project.UpdateMemberRoleRequest{Role: project.RoleEmployee})
	assert.NoError(t, err)
}

func TestRemoveMember(t *testing.T) {
	members := newOrg()
	svc := newTestService(members, nil)
	admin := actor("admin", project.RoleAdmin)

	assert.ErrorIs(t, svc.RemoveMember(context.Background(), admin, "admin"), project.ErrOwnerCannotBeRemoved)
	assert.ErrorIs(t, svc.RemoveMember(context.Background(), actor("m1", project.RoleManager), "e1"), project.ErrInsufficientRole)

	require.NoError(t, svc.RemoveMember(context.Background(), admin, "e4"))
	_, ok := members.byID["e4"]
	assert.False(t, ok)
}

func TestAddMember(t *testing.T) {
	members := newOrg()
	notifier := &fakeNotifier{}
	svc := newTestService(members, notifier)
	admin := actor("admin", project.RoleAdmin)

	resp, err := svc.AddMember(context.Background(), admin, project.AddMemberRequest{Email: "new@worktally.io"})
	require.NoError(t, err)
	assert.Equal(t, project.RoleEmployee, resp.Role)
	require.Len(t, notifier.reqs, 1)
	assert.Equal(t, notification.TypeMemberAdded, notifier.reqs[0].Type)

	_, err = svc.AddMember(context.Background(), admin, project.AddMemberRequest{Email: "e1@worktally.io"})
	assert.ErrorIs(t, err, project.ErrAlreadyMember)

	_, err = svc.AddMember(context.Background(), admin, project.AddMemberRequest{Email: "missing@worktally.io"})
	assert.ErrorIs(t, err, user.ErrUserNotFound)

	svc.seats = fakeSeats{ok: false}
	_, err = svc.AddMember(context.Background(), admin, project.AddMemberRequest{Email: "new@worktally.io"})
	assert.ErrorIs(t, err, subscription.ErrSeatLimitExceeded)
}
