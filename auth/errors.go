package auth

import "github.com/pkg/errors"

// Errors returned to callers. Internal causes are logged, never wrapped into these.
var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrInvalidAccessToken  = errors.New("invalid access token")
	ErrUnavailable         = errors.New("authentication temporarily unavailable")
)
