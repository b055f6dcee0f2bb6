package identity

import "errors"

// Failure categories surfaced to the account flows. Anything else is an
// unexpected error.
var (
	ErrInvalidEmail   = errors.New("identity: invalid email")
	ErrUserNotFound   = errors.New("identity: user not found")
	ErrWrongPassword  = errors.New("identity: wrong password")
	ErrEmailInUse     = errors.New("identity: email already in use")
	ErrWeakPassword   = errors.New("identity: weak password")
	ErrInvalidRefresh = errors.New("identity: invalid refresh token")
	ErrUserDisabled   = errors.New("identity: user disabled")
)
