package subscription

import "errors"

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrSubscriptionExpired  = errors.New("subscription has expired")
	ErrInvalidTier          = errors.New("invalid subscription tier")
	ErrSameTier             = errors.New("project is already on this tier")
	ErrSeatLimitExceeded    = errors.New("seat limit exceeded for current subscription")
	ErrSeatsBelowMembers    = errors.New("tier seat limit is below the current member count")
	ErrFeatureNotAvailable  = errors.New("feature not available in current subscription")
)
