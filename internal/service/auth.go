package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/retrifix/retrifix/internal/domain"
	"github.com/retrifix/retrifix/internal/store"
	"github.com/retrifix/retrifix/pkg/idx"
)

// AuthService drives the two-step login state machine:
//
//	Unauthenticated -> PendingMFA -> Authenticated
//
// Login performs factor-1 verification and leaves the caller in PendingMFA;
// VerifyMFA performs factor-2 and mints the session token. There is no path
// to a token that skips the TOTP check.
type AuthService struct {
	Store       store.Store
	Credentials CredentialVerifier
	MFA         *MFAService
	Sessions    *SessionService
}

// Login verifies the credential against the configured backend. On success
// it guarantees a principal exists and is MFA-provisioned: an unknown
// username gets a fresh principal and secret, a known one without a secret
// gets a secret, and an already-enrolled one just proceeds to PendingMFA.
// On failure nothing is created and no cookie state should be set.
func (s *AuthService) Login(ctx context.Context, username, password string) (domain.LoginResult, error) {
	if err := s.Credentials.Verify(ctx, username, password); err != nil {
		return domain.LoginResult{}, err
	}

	user, err := s.Store.Users().GetUserByUsername(ctx, username)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return s.createPrincipal(ctx, username)
	case err != nil:
		return domain.LoginResult{}, fmt.Errorf("failed to load user: %w", err)
	}

	if !user.MFAEnrolled() {
		return s.enrollMFA(ctx, user)
	}

	return domain.LoginResult{User: user}, nil
}

// VerifyMFA completes the PendingMFA -> Authenticated transition for the
// username carried by the pending marker and returns the session token.
func (s *AuthService) VerifyMFA(ctx context.Context, username, code string) (string, domain.User, error) {
	if username == "" {
		return "", domain.User{}, ErrMissingPendingState
	}

	user, err := s.Store.Users().GetUserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return "", domain.User{}, ErrUnknownUser
	}
	if err != nil {
		return "", domain.User{}, fmt.Errorf("failed to load user: %w", err)
	}

	// A principal without a secret cannot complete login; the code cannot
	// possibly match.
	if !user.MFAEnrolled() || !s.MFA.VerifyCode(*user.MFASecret, code) {
		return "", domain.User{}, ErrInvalidCode
	}

	token, err := s.Sessions.Issue(user.Username, []string{s.Credentials.Method(), "otp"})
	if err != nil {
		return "", domain.User{}, fmt.Errorf("failed to issue session token: %w", err)
	}

	return token, user, nil
}

// ResolvePrincipal validates a session token and loads the principal it
// names. Every failure collapses to ErrInvalidOrExpiredToken: an invalid
// token and a vanished subject are both just "not authenticated".
func (s *AuthService) ResolvePrincipal(ctx context.Context, token string) (domain.User, error) {
	subject, err := s.Sessions.Verify(token)
	if err != nil {
		return domain.User{}, err
	}

	user, err := s.Store.Users().GetUserByUsername(ctx, subject)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrInvalidOrExpiredToken
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to load user: %w", err)
	}

	return user, nil
}

// createPrincipal registers a first-time user after a successful factor-1
// verification, provisioning their MFA secret in the same step.
func (s *AuthService) createPrincipal(ctx context.Context, username string) (domain.LoginResult, error) {
	secret, uri, err := s.MFA.GenerateSecret(username)
	if err != nil {
		return domain.LoginResult{}, err
	}

	user := domain.User{
		ID:        idx.New().String(),
		Username:  username,
		MFASecret: &secret,
	}

	err = s.Store.Users().CreateUser(ctx, user)
	if errors.Is(err, store.ErrAlreadyExists) {
		// Lost a race against a concurrent first login. The winner's row is
		// the principal and its provisioning URI was already handed out.
		existing, err := s.Store.Users().GetUserByUsername(ctx, username)
		if err != nil {
			return domain.LoginResult{}, fmt.Errorf("failed to load user: %w", err)
		}
		return domain.LoginResult{User: existing}, nil
	}
	if err != nil {
		return domain.LoginResult{}, fmt.Errorf("failed to create user: %w", err)
	}

	return domain.LoginResult{
		User:            user,
		NewEnrollment:   true,
		ProvisioningURI: uri,
	}, nil
}

// enrollMFA provisions a secret for an existing principal that has none,
// e.g. one created through administrative provisioning.
func (s *AuthService) enrollMFA(ctx context.Context, user domain.User) (domain.LoginResult, error) {
	secret, uri, err := s.MFA.GenerateSecret(user.Username)
	if err != nil {
		return domain.LoginResult{}, err
	}

	if err := s.Store.Users().UpdateMFASecret(ctx, user.ID, secret); err != nil {
		return domain.LoginResult{}, fmt.Errorf("failed to store MFA secret: %w", err)
	}
	user.MFASecret = &secret

	return domain.LoginResult{
		User:            user,
		NewEnrollment:   true,
		ProvisioningURI: uri,
	}, nil
}
