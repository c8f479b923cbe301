package domain

import "time"

// User is the authenticated identity record (the principal). Username is the
// immutable identity key and is globally unique.
type User struct {
	ID           string
	Username     string
	PasswordHash *string // argon2 encoded; nil for directory-authenticated users
	MFASecret    *string // TOTP secret (nullable, base32 encoded)
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MFAEnrolled reports whether the user has been provisioned with a TOTP
// secret. A user without one cannot complete login.
func (u User) MFAEnrolled() bool {
	return u.MFASecret != nil && *u.MFASecret != ""
}
