package auth

import (
	"github.com/worktally/worktally-backend/internal/domain/project"
	"github.com/worktally/worktally-backend/internal/domain/user"
	"github.com/worktally/worktally-backend/internal/pkg/validator"
)

type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	FullName        string `json:"full_name"`
	ProjectName     string `json:"project_name"`
	Timezone        string `json:"timezone"`
}

func (r *RegisterRequest) Validate() error {
	var errs validator.ValidationErrors

	validateEmail(&errs, r.Email)
	validatePassword(&errs, r.Password)
	if validator.IsEmpty(r.ConfirmPassword) {
		errs.Add("confirm_password", "confirm_password is required")
	} else if r.ConfirmPassword != r.Password {
		errs.Add("confirm_password", "password and confirm_password do not match")
	}

	if validator.IsEmpty(r.FullName) {
		errs.Add("full_name", "full_name is required")
	} else if len(r.FullName) > 255 {
		errs.Add("full_name", "full_name must not exceed 255 characters")
	}

	if validator.IsEmpty(r.ProjectName) {
		errs.Add("project_name", "project_name is required")
	} else if len(r.ProjectName) > 255 {
		errs.Add("project_name", "project_name must not exceed 255 characters")
	}

	if r.Timezone != "" && !validator.IsValidTimezone(r.Timezone) {
		errs.Add("timezone", "timezone must be a valid IANA timezone name")
	}

	return errs.Err()
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	var errs validator.ValidationErrors

	validateEmail(&errs, r.Email)
	if validator.IsEmpty(r.Password) {
		errs.Add("password", "password is required")
	} else if len(r.Password) > 255 {
		errs.Add("password", "password must not exceed 255 characters")
	}

	return errs.Err()
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (r *RefreshTokenRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.RefreshToken) {
		errs.Add("refresh_token", "refresh_token is required")
	} else if len(r.RefreshToken) > 1024 {
		errs.Add("refresh_token", "refresh_token must not exceed 1024 characters")
	}

	return errs.Err()
}

type SwitchProjectRequest struct {
	ProjectID string `json:"project_id"`
}

func (r *SwitchProjectRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ProjectID) {
		errs.Add("project_id", "project_id is required")
	} else if !validator.IsValidUUID(r.ProjectID) {
		errs.Add("project_id", "project_id must be a valid UUID")
	}

	return errs.Err()
}

type GoogleCallbackRequest struct {
	Code  string
	State string
	// ExpectedState is the value stored in the state cookie when the redirect was issued.
	ExpectedState string
}

func (r *GoogleCallbackRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Code) {
		errs.Add("code", "code is required")
	}
	if validator.IsEmpty(r.State) {
		errs.Add("state", "state is required")
	}

	return errs.Err()
}

type SessionTrackingRequest struct {
	UserAgent string
	IPAddress string
}

type TokenResponse struct {
	AccessToken           string                   `json:"access_token"`
	AccessTokenExpiresIn  int64                    `json:"access_token_expires_in"`
	RefreshToken          string                   `json:"refresh_token,omitempty"`
	RefreshTokenExpiresIn int64                    `json:"refresh_token_expires_in,omitempty"`
	User                  user.UserResponse        `json:"user"`
	Project               *project.ProjectResponse `json:"project,omitempty"`
}

type GoogleRedirectResponse struct {
	URL   string `json:"url"`
	State string `json:"-"`
}

func validateEmail(errs *validator.ValidationErrors, email string) {
	switch {
	case validator.IsEmpty(email):
		errs.Add("email", "email is required")
	case len(email) > 254:
		errs.Add("email", "email must not exceed 254 characters")
	case !validator.IsValidEmail(email):
		errs.Add("email", "email must be a valid email address, e.g. user@example.com")
	}
}

func validatePassword(errs *validator.ValidationErrors, password string) {
	switch {
	case validator.IsEmpty(password):
		errs.Add("password", "password is required")
	case len(password) < 8:
		errs.Add("password", "password must be at least 8 characters long")
	case len(password) > 72:
		errs.Add("password", "password must not exceed 72 characters")
	}
}
