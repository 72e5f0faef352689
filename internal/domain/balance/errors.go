package balance

import "errors"

var (
	ErrRangeTooLong = errors.New("date range must not exceed 366 days")
	ErrAccessDenied = errors.New("not allowed to view this member's time")
)
