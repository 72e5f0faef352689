package user

import "errors"

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrUserEmailExists       = errors.New("email already registered")
	ErrOAuthProviderIDExists = errors.New("oauth provider id already registered")
	ErrInvalidTimezone       = errors.New("invalid timezone")
	ErrAvatarTooLarge        = errors.New("avatar exceeds maximum size")
	ErrUnsupportedAvatarType = errors.New("avatar must be a JPEG or PNG image")
)
