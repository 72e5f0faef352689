package project

import (
	"time"

	"github.com/worktally/worktally-backend/internal/pkg/validator"
)

type ProjectResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	OwnerID   string `json:"owner_id"`
	Role      Role   `json:"role,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func NewProjectResponse(p Project, role Role) ProjectResponse {
	return ProjectResponse{
		ID:        p.ID,
		Name:      p.Name,
		Slug:      p.Slug,
		OwnerID:   p.OwnerID,
		Role:      role,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
		UpdatedAt: p.UpdatedAt.Format(time.RFC3339),
	}
}

type MemberResponse struct {
	UserID    string  `json:"user_id"`
	Email     string  `json:"email"`
	FullName  string  `json:"full_name"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	Role      Role    `json:"role"`
	ManagerID *string `json:"manager_id"`
	JoinedAt  string  `json:"joined_at"`
}

func NewMemberResponse(m Member) MemberResponse {
	return MemberResponse{
		UserID:    m.UserID,
		Email:     m.Email,
		FullName:  m.FullName,
		AvatarURL: m.AvatarURL,
		Role:      m.Role,
		ManagerID: m.ManagerID,
		JoinedAt:  m.JoinedAt.Format(time.RFC3339),
	}
}

func NewMemberResponses(members []Member) []MemberResponse {
	out := make([]MemberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, NewMemberResponse(m))
	}
	return out
}

type CreateProjectRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (r *CreateProjectRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Name) {
		errs.Add("name", "name is required")
	} else if len(r.Name) > 255 {
		errs.Add("name", "name must not exceed 255 characters")
	}
	if r.Slug != "" && !validator.IsValidSlug(r.Slug) {
		errs.Add("slug", "slug must be 3-50 lowercase letters, numbers or single hyphens")
	}

	return errs.Err()
}

type UpdateProjectRequest struct {
	Name *string `json:"name,omitempty"`
}

func (r *UpdateProjectRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Name == nil {
		errs.Add("name", "name is required")
	} else if validator.IsEmpty(*r.Name) {
		errs.Add("name", "name must not be empty")
	} else if len(*r.Name) > 255 {
		errs.Add("name", "name must not exceed 255 characters")
	}

	return errs.Err()
}

type AddMemberRequest struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

func (r *AddMemberRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Email) {
		errs.Add("email", "email is required")
	} else if !validator.IsValidEmail(r.Email) {
		errs.Add("email", "invalid email format")
	}
	if r.Role == "" {
		r.Role = RoleEmployee
	}
	if !r.Role.IsValid() {
		errs.Add("role", "role must be one of ADMIN, MANAGER, EMPLOYEE")
	}

	return errs.Err()
}

type UpdateMemberRoleRequest struct {
	Role Role `json:"role"`
}

func (r *UpdateMemberRoleRequest) Validate() error {
	var errs validator.ValidationErrors
	if !r.Role.IsValid() {
		errs.Add("role", "role must be one of ADMIN, MANAGER, EMPLOYEE")
	}
	return errs.Err()
}

// AssignManagerRequest sets or clears (null) a member's manager.
type AssignManagerRequest struct {
	ManagerID *string `json:"manager_id"`
}

func (r *AssignManagerRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.ManagerID != nil && !validator.IsValidUUID(*r.ManagerID) {
		errs.Add("manager_id", "manager_id must be a valid UUID or null")
	}
	return errs.Err()
}
