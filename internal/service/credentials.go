package service

import (
	"context"
	"errors"

	"github.com/retrifix/retrifix/internal/directory"
	"github.com/retrifix/retrifix/internal/store"
	"github.com/retrifix/retrifix/pkg/cryptox"
)

// CredentialVerifier is the factor-1 capability. The deployment picks one
// variant at startup (local hash or directory bind); the orchestrator never
// branches on the backend itself.
type CredentialVerifier interface {
	// Verify checks the username/password pair. A nil error means the
	// credential is valid; failures use the service error taxonomy.
	Verify(ctx context.Context, username, password string) error

	// Method returns the AMR label for this backend ("pwd" or "ldap").
	Method() string
}

// LocalVerifier verifies against the argon2 hash stored on the principal.
type LocalVerifier struct {
	Store store.Store
}

func (v *LocalVerifier) Method() string { return "pwd" }

func (v *LocalVerifier) Verify(ctx context.Context, username, password string) error {
	user, err := v.Store.Users().GetUserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return ErrInvalidCredentials
	}
	if err != nil {
		return err
	}

	// Directory-only principals have no local hash and cannot use this path.
	if user.PasswordHash == nil || *user.PasswordHash == "" {
		return ErrInvalidCredentials
	}

	if err := cryptox.VerifyPassword(password, *user.PasswordHash); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// DirectoryVerifier verifies by attempting a live bind against the external
// directory, translating its failure reasons into the service taxonomy.
type DirectoryVerifier struct {
	Directory *directory.Directory
}

func (v *DirectoryVerifier) Method() string { return "ldap" }

func (v *DirectoryVerifier) Verify(ctx context.Context, username, password string) error {
	err := v.Directory.Authenticate(ctx, username, password)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, directory.ErrInvalidCredentials):
		return ErrInvalidCredentials
	case errors.Is(err, directory.ErrServiceUnavailable):
		return ErrServiceUnavailable
	default:
		return ErrProtocolError
	}
}
