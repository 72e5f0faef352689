package project

import "errors"

var (
	ErrProjectNotFound      = errors.New("project not found")
	ErrProjectSlugExists    = errors.New("project slug already exists")
	ErrMemberNotFound       = errors.New("member not found")
	ErrNotProjectMember     = errors.New("user is not a member of this project")
	ErrAlreadyMember        = errors.New("user is already a member of this project")
	ErrLastAdmin            = errors.New("project must keep at least one admin")
	ErrInvalidRole          = errors.New("invalid role")
	ErrProjectRequired      = errors.New("an active project is required")
	ErrInsufficientRole     = errors.New("insufficient permissions")
	ErrNotInReportingLine   = errors.New("user is not in your reporting line")
	ErrSelfManagement       = errors.New("a member cannot be their own manager")
	ErrCircularReference    = errors.New("manager assignment would create a circular reporting chain")
	ErrHierarchyTooDeep     = errors.New("reporting chain exceeds maximum depth")
	ErrManagerNotMember     = errors.New("manager must be a member of the same project")
	ErrOwnerCannotBeRemoved = errors.New("project owner cannot be removed")
)
