package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/retrifix/retrifix/internal/directory"
	"github.com/retrifix/retrifix/internal/domain"
	"github.com/retrifix/retrifix/internal/store"
	"github.com/retrifix/retrifix/pkg/cryptox"
	"github.com/retrifix/retrifix/pkg/idx"
)

type UserService struct {
	Store store.Store
}

// GetUserByID fetches a user by id.
func (s *UserService) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}

// CountUsers returns the number of registered principals.
func (s *UserService) CountUsers(ctx context.Context) (int64, error) {
	return s.Store.Users().CountUsers(ctx)
}

// ProvisionLocalUsers creates principals with argon2 password hashes for
// deployments using the local verification backend, skipping usernames that
// already exist. MFA secrets are provisioned at first login, not here.
// Returns the usernames that were added.
func (s *UserService) ProvisionLocalUsers(ctx context.Context, users []directory.Credential) ([]string, error) {
	added := make([]string, 0, len(users))
	for _, u := range users {
		_, err := s.Store.Users().GetUserByUsername(ctx, u.Username)
		if err == nil {
			continue // skip existing
		}
		if !errors.Is(err, store.ErrNotFound) {
			return added, fmt.Errorf("failed to look up user %q: %w", u.Username, err)
		}

		hash, err := cryptox.HashPassword(u.Password)
		if err != nil {
			return added, fmt.Errorf("failed to hash password for %q: %w", u.Username, err)
		}

		err = s.Store.Users().CreateUser(ctx, domain.User{
			ID:           idx.New().String(),
			Username:     u.Username,
			PasswordHash: &hash,
		})
		if errors.Is(err, store.ErrAlreadyExists) {
			continue
		}
		if err != nil {
			return added, fmt.Errorf("failed to create user %q: %w", u.Username, err)
		}

		added = append(added, u.Username)
	}

	return added, nil
}
