package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/worktally/worktally-backend/internal/domain/auth"
	"github.com/worktally/worktally-backend/internal/domain/project"
	"github.com/worktally/worktally-backend/internal/domain/subscription"
	"github.com/worktally/worktally-backend/internal/domain/user"
	"github.com/worktally/worktally-backend/internal/pkg/database"
	"github.com/worktally/worktally-backend/internal/pkg/jwt"
	"github.com/worktally/worktally-backend/internal/pkg/oauth"
	"golang.org/x/crypto/bcrypt"
)

const oauthProviderGoogle = "google"

// ClaimsProvider supplies the subscription claims embedded in access tokens.
type ClaimsProvider interface {
	TokenClaims(ctx context.Context, projectID string) (*jwt.SubscriptionClaims, error)
}

type AuthServiceImpl struct {
	tx            database.Transactor
	users         user.UserRepository
	projects      project.ProjectRepository
	members       project.MemberRepository
	subscriptions subscription.Repository
	claims        ClaimsProvider
	refreshTokens auth.RefreshTokenRepository
	jwt           jwt.Service
	google        oauth.GoogleService
	now           func() time.Time
}

func NewAuthService(
	tx database.Transactor,
	users user.UserRepository,
	projects project.ProjectRepository,
	members project.MemberRepository,
	subscriptions subscription.Repository,
	claims ClaimsProvider,
	refreshTokens auth.RefreshTokenRepository,
	jwtService jwt.Service,
	google oauth.GoogleService,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		tx:            tx,
		users:         users,
		projects:      projects,
		members:       members,
		subscriptions: subscriptions,
		claims:        claims,
		refreshTokens: refreshTokens,
		jwt:           jwtService,
		google:        google,
		now:           time.Now,
	}
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (a *AuthServiceImpl) Register(ctx context.Context, req auth.RegisterRequest, session auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return auth.TokenResponse{}, err
	}

	_, err := a.users.GetByEmail(ctx, req.Email)
	if err == nil {
		return auth.TokenResponse{}, user.ErrUserEmailExists
	}
	if !errors.Is(err, user.ErrUserNotFound) {
		return auth.TokenResponse{}, fmt.Errorf("get user by email: %w", err)
	}

	hashed, err := hashPassword(req.Password)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("hash password: %w", err)
	}

	timezone := req.Timezone
	if timezone == "" {
		timezone = "UTC"
	}

	var resp auth.TokenResponse
	err = a.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		newUser, err := a.users.Create(txCtx, user.User{
			Email:        req.Email,
			PasswordHash: &hashed,
			FullName:     req.FullName,
			Timezone:     timezone,
			Schedule:     user.DefaultSchedule(),
		})
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}

		p, err := a.createOwnedProject(txCtx, newUser.ID, req.ProjectName)
		if err != nil {
			return err
		}
		newUser.LastProjectID = &p.ID

		resp, err = a.issueTokens(txCtx, newUser, &session)
		return err
	})
	if err != nil {
		return auth.TokenResponse{}, err
	}

	slog.Info("user registered", "user_id", resp.User.ID, "email", req.Email)
	return resp, nil
}

// createOwnedProject creates a project with userID as its ADMIN and a free subscription.
func (a *AuthServiceImpl) createOwnedProject(ctx context.Context, userID, name string) (project.Project, error) {
	slug, err := project.AvailableSlug(ctx, a.projects, name)
	if err != nil {
		return project.Project{}, err
	}

	p, err := a.projects.Create(ctx, project.Project{Name: name, Slug: slug, OwnerID: userID})
	if err != nil {
		return project.Project{}, fmt.Errorf("create project: %w", err)
	}
	if err := a.members.Add(ctx, project.Member{ProjectID: p.ID, UserID: userID, Role: project.RoleAdmin}); err != nil {
		return project.Project{}, fmt.Errorf("add owner membership: %w", err)
	}
	if _, err := a.subscriptions.Create(ctx, subscription.NewFree(p.ID, a.now())); err != nil {
		return project.Project{}, fmt.Errorf("create subscription: %w", err)
	}
	if err := a.users.UpdateLastProject(ctx, userID, p.ID); err != nil {
		return project.Project{}, fmt.Errorf("set last project: %w", err)
	}
	return p, nil
}

func (a *AuthServiceImpl) Login(ctx context.Context, req auth.LoginRequest, session auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return auth.TokenResponse{}, err
	}

	u, err := a.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return auth.TokenResponse{}, auth.ErrInvalidCredentials
		}
		return auth.TokenResponse{}, fmt.Errorf("get user by email: %w", err)
	}

	// accounts created through Google have no password
	if u.PasswordHash == nil {
		return auth.TokenResponse{}, auth.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*u.PasswordHash), []byte(req.Password)); err != nil {
		return auth.TokenResponse{}, auth.ErrInvalidCredentials
	}

	var resp auth.TokenResponse
	err = a.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		resp, err = a.issueTokens(txCtx, u, &session)
		return err
	})
	if err != nil {
		return auth.TokenResponse{}, err
	}
	return resp, nil
}

func (a *AuthServiceImpl) GoogleRedirect() (auth.GoogleRedirectResponse, error) {
	state, err := a.google.GenerateState()
	if err != nil {
		return auth.GoogleRedirectResponse{}, err
	}
	return auth.GoogleRedirectResponse{URL: a.google.RedirectURL(state), State: state}, nil
}

func (a *AuthServiceImpl) GoogleCallback(ctx context.Context, req auth.GoogleCallbackRequest, session auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return auth.TokenResponse{}, err
	}
	if req.ExpectedState == "" || subtle.ConstantTimeCompare([]byte(req.State), []byte(req.ExpectedState)) != 1 {
		return auth.TokenResponse{}, auth.ErrInvalidOAuthState
	}

	token, err := a.google.Exchange(ctx, req.Code)
	if err != nil {
		return auth.TokenResponse{}, auth.ErrInvalidToken
	}
	info, err := a.google.FetchUser(ctx, token)
	if err != nil {
		return auth.TokenResponse{}, err
	}

	var resp auth.TokenResponse
	err = a.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		u, err := a.findOrCreateGoogleUser(txCtx, info)
		if err != nil {
			return err
		}
		resp, err = a.issueTokens(txCtx, u, &session)
		return err
	})
	if err != nil {
		return auth.TokenResponse{}, err
	}
	return resp, nil
}

// findOrCreateGoogleUser matches on the Google id first, then links an existing account by email,
// and finally signs up a new user with a personal project.
func (a *AuthServiceImpl) findOrCreateGoogleUser(ctx context.Context, info oauth.GoogleUser) (user.User, error) {
	u, err := a.users.GetByOAuth(ctx, oauthProviderGoogle, info.GoogleID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, user.ErrUserNotFound) {
		return user.User{}, fmt.Errorf("get user by oauth: %w", err)
	}

	u, err = a.users.GetByEmail(ctx, info.Email)
	switch {
	case err == nil:
		if err := a.users.LinkGoogleAccount(ctx, u.ID, info.GoogleID); err != nil {
			return user.User{}, fmt.Errorf("link google account: %w", err)
		}
		provider := oauthProviderGoogle
		u.OAuthProvider = &provider
		u.OAuthProviderID = &info.GoogleID
		return u, nil
	case !errors.Is(err, user.ErrUserNotFound):
		return user.User{}, fmt.Errorf("get user by email: %w", err)
	}

	provider := oauthProviderGoogle
	fullName := info.Name
	if fullName == "" {
		fullName = info.Email
	}
	newUser := user.User{
		Email:           info.Email,
		FullName:        fullName,
		OAuthProvider:   &provider,
		OAuthProviderID: &info.GoogleID,
		Timezone:        "UTC",
		Schedule:        user.DefaultSchedule(),
	}
	if info.Picture != "" {
		newUser.AvatarURL = &info.Picture
	}
	u, err = a.users.Create(ctx, newUser)
	if err != nil {
		return user.User{}, fmt.Errorf("create user: %w", err)
	}

	p, err := a.createOwnedProject(ctx, u.ID, fullName+"'s workspace")
	if err != nil {
		return user.User{}, err
	}
	u.LastProjectID = &p.ID
	return u, nil
}

func (a *AuthServiceImpl) RefreshToken(ctx context.Context, req auth.RefreshTokenRequest) (auth.TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return auth.TokenResponse{}, err
	}

	userID, err := a.jwt.ParseRefreshToken(req.RefreshToken)
	if err != nil {
		return auth.TokenResponse{}, auth.ErrInvalidToken
	}

	revoked, err := a.refreshTokens.IsRevoked(ctx, req.RefreshToken)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("check refresh token: %w", err)
	}
	if revoked {
		return auth.TokenResponse{}, auth.ErrRefreshTokenRevoked
	}

	u, err := a.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return auth.TokenResponse{}, auth.ErrInvalidToken
		}
		return auth.TokenResponse{}, err
	}

	return a.issueTokens(ctx, u, nil)
}

func (a *AuthServiceImpl) Logout(ctx context.Context, refreshToken, accessToken string, accessExpiresAt int64) error {
	if accessToken != "" {
		a.jwt.RevokeToken(accessToken, accessExpiresAt)
	}
	if refreshToken == "" {
		return nil
	}
	if err := a.refreshTokens.Revoke(ctx, refreshToken); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (a *AuthServiceImpl) SwitchProject(ctx context.Context, userID string, req auth.SwitchProjectRequest) (auth.TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return auth.TokenResponse{}, err
	}

	if _, err := a.members.Get(ctx, req.ProjectID, userID); err != nil {
		if errors.Is(err, project.ErrMemberNotFound) {
			return auth.TokenResponse{}, project.ErrNotProjectMember
		}
		return auth.TokenResponse{}, err
	}

	u, err := a.users.GetByID(ctx, userID)
	if err != nil {
		return auth.TokenResponse{}, err
	}
	if err := a.users.UpdateLastProject(ctx, userID, req.ProjectID); err != nil {
		return auth.TokenResponse{}, fmt.Errorf("set last project: %w", err)
	}
	u.LastProjectID = &req.ProjectID

	return a.issueTokens(ctx, u, nil)
}

// issueTokens signs an access token scoped to the user's active project. A refresh token is
// issued and persisted only when session is non-nil.
func (a *AuthServiceImpl) issueTokens(ctx context.Context, u user.User, session *auth.SessionTrackingRequest) (auth.TokenResponse, error) {
	membership, err := a.activeMembership(ctx, u)
	if err != nil {
		return auth.TokenResponse{}, err
	}

	claims := jwt.AccessClaims{UserID: u.ID, Email: u.Email}
	var subClaims *jwt.SubscriptionClaims
	resp := auth.TokenResponse{User: user.NewUserResponse(u)}

	if membership != nil {
		projectID := membership.Project.ID
		claims.ProjectID = &projectID
		claims.Role = string(membership.Role)

		subClaims, err = a.claims.TokenClaims(ctx, projectID)
		if err != nil && !errors.Is(err, subscription.ErrSubscriptionNotFound) {
			return auth.TokenResponse{}, fmt.Errorf("load subscription claims: %w", err)
		}

		p := project.NewProjectResponse(membership.Project, membership.Role)
		resp.Project = &p
	}

	resp.AccessToken, resp.AccessTokenExpiresIn, err = a.jwt.GenerateAccessToken(claims, subClaims)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("create access token: %w", err)
	}

	if session == nil {
		return resp, nil
	}

	resp.RefreshToken, resp.RefreshTokenExpiresIn, err = a.jwt.GenerateRefreshToken(u.ID)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("create refresh token: %w", err)
	}
	if err := a.refreshTokens.Create(ctx, u.ID, resp.RefreshToken, resp.RefreshTokenExpiresIn, *session); err != nil {
		return auth.TokenResponse{}, fmt.Errorf("save refresh token: %w", err)
	}
	return resp, nil
}

// activeMembership prefers the last used project and falls back to the earliest joined one.
// A user without any membership gets a token with no project scope.
func (a *AuthServiceImpl) activeMembership(ctx context.Context, u user.User) (*project.Membership, error) {
	memberships, err := a.projects.ListForUser(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	if len(memberships) == 0 {
		return nil, nil
	}
	if u.LastProjectID != nil {
		for i := range memberships {
			if memberships[i].Project.ID == *u.LastProjectID {
				return &memberships[i], nil
			}
		}
	}
	return &memberships[0], nil
}
