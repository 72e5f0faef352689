package task

import "errors"

var (
	ErrTaskNotFound          = errors.New("task not found")
	ErrChecklistItemNotFound = errors.New("checklist item not found")
	ErrAttachmentNotFound    = errors.New("attachment not found")
	ErrAssigneeNotMember     = errors.New("assignee must be a member of the project")
	ErrTaskAccessDenied      = errors.New("not allowed to modify this task")
)
