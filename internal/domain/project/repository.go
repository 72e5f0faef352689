package project

import "context"

type ProjectRepository interface {
	Create(ctx context.Context, p Project) (Project, error)
	GetByID(ctx context.Context, id string) (Project, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Update(ctx context.Context, id string, req UpdateProjectRequest) (Project, error)
	Delete(ctx context.Context, id string) error
	ListForUser(ctx context.Context, userID string) ([]Membership, error)
}

type MemberRepository interface {
	Add(ctx context.Context, m Member) error
	Get(ctx context.Context, projectID, userID string) (Member, error)
	List(ctx context.Context, projectID string) ([]Member, error)
	ListDirectReports(ctx context.Context, projectID, managerID string) ([]Member, error)
	Count(ctx context.Context, projectID string) (int, error)
	CountByRole(ctx context.Context, projectID string, role Role) (int, error)
	UpdateRole(ctx context.Context, projectID, userID string, role Role) error
	UpdateManager(ctx context.Context, projectID, userID string, managerID *string) error
	// LockHierarchy serialises manager changes within a project until the surrounding transaction ends.
	LockHierarchy(ctx context.Context, projectID string) error
	// Remove deletes the membership and detaches anyone who reported to the user.
	Remove(ctx context.Context, projectID, userID string) error
}
