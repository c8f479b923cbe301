package service

import "errors"

// Authentication failure taxonomy. Local verification and MFA failures are
// user-facing 401-equivalents; directory connectivity failures stay distinct
// so operators can tell "wrong password" from "directory down".
var (
	ErrInvalidCredentials    = errors.New("invalid username or password")
	ErrServiceUnavailable    = errors.New("directory service unavailable")
	ErrProtocolError         = errors.New("directory protocol error")
	ErrMissingPendingState   = errors.New("no pending authentication state")
	ErrUnknownUser           = errors.New("unknown user")
	ErrInvalidCode           = errors.New("invalid one-time code")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired session token")
)
