package project

import "time"

type Role string

const (
	RoleAdmin    Role = "ADMIN"    // Manages project settings, members and billing
	RoleManager  Role = "MANAGER"  // Sees and edits the time of their reports
	RoleEmployee Role = "EMPLOYEE" // Tracks own time and tasks
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleEmployee:
		return true
	}
	return false
}

type Project struct {
	ID        string
	Name      string
	Slug      string
	OwnerID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Member struct {
	ProjectID string
	UserID    string
	Role      Role
	ManagerID *string
	JoinedAt  time.Time

	// Join
	Email     string
	FullName  string
	AvatarURL *string
}

// Membership is a project as seen by one of its members.
type Membership struct {
	Project Project
	Role    Role
}
