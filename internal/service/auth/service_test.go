package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/worktally/worktally-backend/internal/domain/auth"
	"github.com/worktally/worktally-backend/internal/domain/project"
	"github.com/worktally/worktally-backend/internal/domain/subscription"
	"github.com/worktally/worktally-backend/internal/domain/user"
	"github.com/worktally/worktally-backend/internal/pkg/jwt"
	"github.com/worktally/worktally-backend/internal/pkg/oauth"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
)

type fakeTx struct{ calls int }

func (f *fakeTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

type fakeUsers struct {
	user.UserRepository
	byID map[string]user.User
}

func newFakeUsers() *fakeUsers { return &fakeUsers{byID: map[string]user.User{}} }

func (f *fakeUsers) GetByID(_ context.Context, id string) (user.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (user.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, user.ErrUserNotFound
}

func (f *fakeUsers) GetByOAuth(_ context.Context, provider, providerID string) (user.User, error) {
	for _, u := range f.byID {
		if u.OAuthProvider != nil && *u.OAuthProvider == provider && *u.OAuthProviderID == providerID {
			return u, nil
		}
	}
	return user.User{}, user.ErrUserNotFound
}

func (f *fakeUsers) Create(_ context.Context, u user.User) (user.User, error) {
	u.ID = "u-" + u.Email
	f.byID[u.ID] = u
	return u, nil
}

func (f *fakeUsers) LinkGoogleAccount(_ context.Context, userID, googleID string) error {
	u := f.byID[userID]
	provider := "google"
	u.OAuthProvider = &provider
	u.OAuthProviderID = &googleID
	f.byID[userID] = u
	return nil
}

func (f *fakeUsers) UpdateLastProject(_ context.Context, userID, projectID string) error {
	u := f.byID[userID]
	u.LastProjectID = &projectID
	f.byID[userID] = u
	return nil
}

type fakeProjects struct {
	project.ProjectRepository
	members  *fakeMembers
	projects map[string]project.Project
}

func (f *fakeProjects) SlugExists(_ context.Context, slug string) (bool, error) {
	for _, p := range f.projects {
		if p.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeProjects) Create(_ context.Context, p project.Project) (project.Project, error) {
	p.ID = "p-" + p.Slug
	f.projects[p.ID] = p
	return p, nil
}

func (f *fakeProjects) ListForUser(_ context.Context, userID string) ([]project.Membership, error) {
	var out []project.Membership
	for _, m := range f.members.list {
		if m.UserID == userID {
			out = append(out, project.Membership{Project: f.projects[m.ProjectID], Role: m.Role})
		}
	}
	return out, nil
}

type fakeMembers struct {
	project.MemberRepository
	list []project.Member
}

func (f *fakeMembers) Add(_ context.Context, m project.Member) error {
	f.list = append(f.list, m)
	return nil
}

func (f *fakeMembers) Get(_ context.Context, projectID, userID string) (project.Member, error) {
	for _, m := range f.list {
		if m.ProjectID == projectID && m.UserID == userID {
			return m, nil
		}
	}
	return project.Member{}, project.ErrMemberNotFound
}

type fakeSubscriptions struct {
	subscription.Repository
	created []subscription.Subscription
}

func (f *fakeSubscriptions) Create(_ context.Context, s subscription.Subscription) (subscription.Subscription, error) {
	f.created = append(f.created, s)
	return s, nil
}

type fakeClaims struct{}

func (fakeClaims) TokenClaims(context.Context, string) (*jwt.SubscriptionClaims, error) {
	return &jwt.SubscriptionClaims{Features: []string{subscription.FeatureAttendance}}, nil
}

type fakeRefreshTokens struct {
	stored  map[string]string
	revoked map[string]bool
}

func (f *fakeRefreshTokens) Create(_ context.Context, userID, token string, _ int64, _ auth.SessionTrackingRequest) error {
	f.stored[token] = userID
	return nil
}

func (f *fakeRefreshTokens) IsRevoked(_ context.Context, token string) (bool, error) {
	_, ok := f.stored[token]
	return !ok || f.revoked[token], nil
}

func (f *fakeRefreshTokens) Revoke(_ context.Context, token string) error {
	f.revoked[token] = true
	return nil
}

func (f *fakeRefreshTokens) RevokeAllForUser(context.Context, string) error { return nil }

type fakeGoogle struct {
	oauth.GoogleService
	info oauth.GoogleUser
}

func (f *fakeGoogle) Exchange(context.Context, string) (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: "t"}, nil
}

func (f *fakeGoogle) FetchUser(context.Context, *oauth2.Token) (oauth.GoogleUser, error) {
	return f.info, nil
}

type fixture struct {
	svc     *AuthServiceImpl
	users   *fakeUsers
	members *fakeMembers
	subs    *fakeSubscriptions
	tokens  *fakeRefreshTokens
	jwt     *jwt.JWTService
	google  *fakeGoogle
}

func newFixture() fixture {
	users := newFakeUsers()
	members := &fakeMembers{}
	projects := &fakeProjects{members: members, projects: map[string]project.Project{}}
	subs := &fakeSubscriptions{}
	tokens := &fakeRefreshTokens{stored: map[string]string{}, revoked: map[string]bool{}}
	jwtSvc := jwt.NewJWTService("secret", 15*time.Minute, time.Hour, false)
	google := &fakeGoogle{}

	svc := NewAuthService(&fakeTx{}, users, projects, members, subs, fakeClaims{}, tokens, jwtSvc, google)
	return fixture{svc: svc, users: users, members: members, subs: subs, tokens: tokens, jwt: jwtSvc, google: google}
}

func registerRequest() auth.RegisterRequest {
	return auth.RegisterRequest{
		Email:           "ada@worktally.io",
		Password:        "correct-horse",
		ConfirmPassword: "correct-horse",
		FullName:        "Ada Lovelace",
		ProjectName:     "Analytical Engines",
	}
}

func TestRegister_CreatesProjectAdminAndFreeSubscription(t *testing.T) {
	f := newFixture()

	resp, err := f.svc.Register(context.Background(), registerRequest(), auth.SessionTrackingRequest{IPAddress: "10.0.0.1"})
	require.NoError(t, err)

	require.NotNil(t, resp.Project)
	assert.Equal(t, "analytical-engines", resp.Project.Slug)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)

	require.Len(t, f.members.list, 1)
	assert.Equal(t, project.RoleAdmin, f.members.list[0].Role)
	require.Len(t, f.subs.created, 1)
	assert.Equal(t, subscription.TierFree, f.subs.created[0].Tier)
	assert.Equal(t, "UTC", resp.User.Timezone)

	stored := f.users.byID[resp.User.ID]
	require.NotNil(t, stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*stored.PasswordHash), []byte("correct-horse")))

	_, err = f.svc.Register(context.Background(), registerRequest(), auth.SessionTrackingRequest{})
	assert.ErrorIs(t, err, user.ErrUserEmailExists)
}

func TestLogin(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Register(context.Background(), registerRequest(), auth.SessionTrackingRequest{})
	require.NoError(t, err)

	_, err = f.svc.Login(context.Background(), auth.LoginRequest{Email: "ada@worktally.io", Password: "wrong-password"}, auth.SessionTrackingRequest{})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = f.svc.Login(context.Background(), auth.LoginRequest{Email: "nobody@worktally.io", Password: "whatever1"}, auth.SessionTrackingRequest{})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	resp, err := f.svc.Login(context.Background(), auth.LoginRequest{Email: "ada@worktally.io", Password: "correct-horse"}, auth.SessionTrackingRequest{})
	require.NoError(t, err)
	require.NotNil(t, resp.Project)
	assert.Equal(t, project.RoleAdmin, resp.Project.Role)
}

func TestRefreshAndLogout(t *testing.T) {
	f := newFixture()
	reg, err := f.svc.Register(context.Background(), registerRequest(), auth.SessionTrackingRequest{})
	require.NoError(t, err)

	refreshed, err := f.svc.RefreshToken(context.Background(), auth.RefreshTokenRequest{RefreshToken: reg.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Empty(t, refreshed.RefreshToken)

	require.NoError(t, f.svc.Logout(context.Background(), reg.RefreshToken, reg.AccessToken, reg.AccessTokenExpiresIn))
	assert.True(t, f.jwt.IsTokenRevoked(reg.AccessToken))

	_, err = f.svc.RefreshToken(context.Background(), auth.RefreshTokenRequest{RefreshToken: reg.RefreshToken})
	assert.ErrorIs(t, err, auth.ErrRefreshTokenRevoked)

	_, err = f.svc.RefreshToken(context.Background(), auth.RefreshTokenRequest{RefreshToken: reg.AccessToken})
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestSwitchProject_RequiresMembership(t *testing.T) {
	f := newFixture()
	reg, err := f.svc.Register(context.Background(), registerRequest(), auth.SessionTrackingRequest{})
	require.NoError(t, err)

	_, err = f.svc.SwitchProject(context.Background(), reg.User.ID, auth.SwitchProjectRequest{ProjectID: "123e4567-e89b-42d3-a456-426614174000"})
	assert.ErrorIs(t, err, project.ErrNotProjectMember)

	_, err = f.svc.SwitchProject(context.Background(), reg.User.ID, auth.SwitchProjectRequest{ProjectID: "not-a-uuid"})
	assert.Error(t, err)
}

func TestGoogleCallback(t *testing.T) {
	f := newFixture()
	f.google.info = oauth.GoogleUser{GoogleID: "g-42", Email: "grace@worktally.io", VerifiedEmail: true, Name: "Grace"}

	_, err := f.svc.GoogleCallback(context.Background(), auth.GoogleCallbackRequest{Code: "c", State: "a", ExpectedState: "b"}, auth.SessionTrackingRequest{})
	assert.ErrorIs(t, err, auth.ErrInvalidOAuthState)

	resp, err := f.svc.GoogleCallback(context.Background(), auth.GoogleCallbackRequest{Code: "c", State: "s", ExpectedState: "s"}, auth.SessionTrackingRequest{})
	require.NoError(t, err)
	require.NotNil(t, resp.Project)
	assert.Equal(t, "grace-s-workspace", resp.Project.Slug)

	// second sign-in matches on the google id and creates nothing new
	_, err = f.svc.GoogleCallback(context.Background(), auth.GoogleCallbackRequest{Code: "c", State: "s", ExpectedState: "s"}, auth.SessionTrackingRequest{})
	require.NoError(t, err)
	assert.Len(t, f.users.byID, 1)
	assert.Len(t, f.subs.created, 1)
}

func TestGoogleCallback_LinksExistingEmail(t *testing.T) {
	f := newFixture()
	reg, err := f.svc.Register(context.Background(), registerRequest(), auth.SessionTrackingRequest{})
	require.NoError(t, err)

	f.google.info = oauth.GoogleUser{GoogleID: "g-7", Email: "ada@worktally.io", VerifiedEmail: true}
	resp, err := f.svc.GoogleCallback(context.Background(), auth.GoogleCallbackRequest{Code: "c", State: "s", ExpectedState: "s"}, auth.SessionTrackingRequest{})
	require.NoError(t, err)

	assert.Equal(t, reg.User.ID, resp.User.ID)
	require.NotNil(t, f.users.byID[reg.User.ID].OAuthProviderID)
	assert.Equal(t, "g-7", *f.users.byID[reg.User.ID].OAuthProviderID)
}
