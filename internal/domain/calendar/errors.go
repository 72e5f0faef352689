package calendar

import "errors"

var (
	ErrEntryNotFound     = errors.New("calendar entry not found")
	ErrEntryReadOnly     = errors.New("imported calendar entries cannot be edited")
	ErrEntryAccessDenied = errors.New("not allowed to modify this calendar entry")
)
