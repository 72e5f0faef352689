package project

// Actor is the authenticated caller acting inside their active project.
type Actor struct {
	UserID    string
	Email     string
	ProjectID string
	Role      Role
}

func (a Actor) Can(p Permission) bool {
	return HasPermission(a.Role, p)
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
