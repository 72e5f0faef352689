package project

import "context"

type ProjectService interface {
	ListMine(ctx context.Context, userID string) ([]ProjectResponse, error)
	Create(ctx context.Context, userID string, req CreateProjectRequest) (ProjectResponse, error)
	GetCurrent(ctx context.Context, actor Actor) (ProjectResponse, error)
	UpdateCurrent(ctx context.Context, actor Actor, req UpdateProjectRequest) (ProjectResponse, error)
	DeleteCurrent(ctx context.Context, actor Actor) error

	ListMembers(ctx context.Context, actor Actor) ([]MemberResponse, error)
	AddMember(ctx context.Context, actor Actor, req AddMemberRequest) (MemberResponse, error)
	UpdateMemberRole(ctx context.Context, actor Actor, userID string, req UpdateMemberRoleRequest) (MemberResponse, error)
	RemoveMember(ctx context.Context, actor Actor, userID string) error

	AssignManager(ctx context.Context, actor Actor, userID string, req AssignManagerRequest) (MemberResponse, error)
	ListReports(ctx context.Context, actor Actor, userID string) ([]MemberResponse, error)
	GetChain(ctx context.Context, actor Actor, userID string) ([]MemberResponse, error)

	// AuthorizeMemberAccess allows self, admins, and managers above the target in the reporting chain.
	AuthorizeMemberAccess(ctx context.Context, actor Actor, targetUserID string) error
}
