package worksession

import "errors"

var (
	ErrSessionNotFound     = errors.New("work session not found")
	ErrSessionAlreadyOpen  = errors.New("a work session is already running")
	ErrNoOpenSession       = errors.New("no running work session")
	ErrBreakAlreadyOpen    = errors.New("a break is already running")
	ErrNoOpenBreak         = errors.New("no running break")
	ErrSessionNotEditable  = errors.New("only manual sessions can be edited by their owner")
	ErrSessionStillOpen    = errors.New("a running session cannot be edited")
	ErrSessionAccessDenied = errors.New("not allowed to modify this work session")
	ErrSessionInFuture     = errors.New("a work session cannot end in the future")
)
