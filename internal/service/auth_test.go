package service

import (
	"context"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/retrifix/retrifix/internal/domain"
	"github.com/retrifix/retrifix/internal/store"
	"github.com/retrifix/retrifix/pkg/cryptox"
	"github.com/retrifix/retrifix/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newLocalAuthService(t *testing.T) (*AuthService, store.Store) {
	t.Helper()

	st := newTestStore(t)
	auth := &AuthService{
		Store:       st,
		Credentials: &LocalVerifier{Store: st},
		MFA:         &MFAService{Issuer: "Retrifix"},
		Sessions:    newTestSessions(t),
	}
	return auth, st
}

func seedLocalUser(t *testing.T, st store.Store, username, password string) domain.User {
	t.Helper()

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	user := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		PasswordHash: &hash,
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), user))
	return user
}

func TestLogin_FirstLoginEnrollsMFA(t *testing.T) {
	auth, st := newLocalAuthService(t)
	ctx := context.Background()

	seedLocalUser(t, st, "alice", "hunter2-but-better")

	result, err := auth.Login(ctx, "alice", "hunter2-but-better")
	require.NoError(t, err)
	require.True(t, result.NewEnrollment)
	require.Contains(t, result.ProvisioningURI, "otpauth://totp/")
	require.Contains(t, result.ProvisioningURI, "Retrifix")
	require.Contains(t, result.ProvisioningURI, "alice")

	// The secret is persisted so the next login skips enrollment
	user, err := st.Users().GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.True(t, user.MFAEnrolled())

	again, err := auth.Login(ctx, "alice", "hunter2-but-better")
	require.NoError(t, err)
	require.False(t, again.NewEnrollment)
	require.Empty(t, again.ProvisioningURI)
}

func TestLogin_WrongPassword(t *testing.T) {
	auth, st := newLocalAuthService(t)
	ctx := context.Background()

	seedLocalUser(t, st, "alice", "correct-password")

	_, err := auth.Login(ctx, "alice", "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	// A failed factor-1 must not provision anything
	user, err := st.Users().GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.False(t, user.MFAEnrolled())
}

func TestLogin_UnknownLocalUser(t *testing.T) {
	auth, st := newLocalAuthService(t)
	ctx := context.Background()

	_, err := auth.Login(ctx, "nobody", "whatever")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	count, err := st.Users().CountUsers(ctx)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestLogin_DirectoryBackendCreatesPrincipal(t *testing.T) {
	// With a directory backend, a first successful bind registers the
	// principal locally and provisions its MFA secret.
	st := newTestStore(t)
	auth := &AuthService{
		Store:       st,
		Credentials: &stubVerifier{},
		MFA:         &MFAService{Issuer: "Retrifix"},
		Sessions:    newTestSessions(t),
	}
	ctx := context.Background()

	result, err := auth.Login(ctx, "bob", "directory-password")
	require.NoError(t, err)
	require.True(t, result.NewEnrollment)
	require.Contains(t, result.ProvisioningURI, "bob")

	user, err := st.Users().GetUserByUsername(ctx, "bob")
	require.NoError(t, err)
	require.True(t, user.MFAEnrolled())
	require.Nil(t, user.PasswordHash) // directory principals carry no local hash
}

func TestLogin_FailedFactorOneCreatesNothing(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for _, wantErr := range []error{
		ErrInvalidCredentials,
		ErrServiceUnavailable,
		ErrProtocolError,
	} {
		auth := &AuthService{
			Store:       st,
			Credentials: &stubVerifier{err: wantErr},
			MFA:         &MFAService{Issuer: "Retrifix"},
			Sessions:    newTestSessions(t),
		}

		_, err := auth.Login(ctx, "bob", "pw")
		require.ErrorIs(t, err, wantErr)

		// Nothing gets created on failure
		_, err = st.Users().GetUserByUsername(ctx, "bob")
		require.ErrorIs(t, err, store.ErrNotFound)
	}
}

func TestVerifyMFA_CompletesLogin(t *testing.T) {
	auth, st := newLocalAuthService(t)
	ctx := context.Background()

	seedLocalUser(t, st, "alice", "hunter2-but-better")

	_, err := auth.Login(ctx, "alice", "hunter2-but-better")
	require.NoError(t, err)

	user, err := st.Users().GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, user.MFASecret)

	code, err := totp.GenerateCode(*user.MFASecret, time.Now())
	require.NoError(t, err)

	token, verified, err := auth.VerifyMFA(ctx, "alice", code)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, "alice", verified.Username)

	// The token resolves back to the principal
	principal, err := auth.ResolvePrincipal(ctx, token)
	require.NoError(t, err)
	require.Equal(t, user.ID, principal.ID)
}

func TestVerifyMFA_Failures(t *testing.T) {
	auth, st := newLocalAuthService(t)
	ctx := context.Background()

	seedLocalUser(t, st, "alice", "hunter2-but-better")
	_, err := auth.Login(ctx, "alice", "hunter2-but-better")
	require.NoError(t, err)

	t.Run("missing pending state", func(t *testing.T) {
		_, _, err := auth.VerifyMFA(ctx, "", "123456")
		require.ErrorIs(t, err, ErrMissingPendingState)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, _, err := auth.VerifyMFA(ctx, "mallory", "123456")
		require.ErrorIs(t, err, ErrUnknownUser)
	})

	t.Run("wrong code", func(t *testing.T) {
		user, err := st.Users().GetUserByUsername(ctx, "alice")
		require.NoError(t, err)

		code, err := totp.GenerateCode(*user.MFASecret, time.Now())
		require.NoError(t, err)

		wrong := "000000"
		if wrong == code {
			wrong = "000001"
		}

		_, _, err2 := auth.VerifyMFA(ctx, "alice", wrong)
		require.ErrorIs(t, err2, ErrInvalidCode)
	})

	t.Run("unenrolled principal", func(t *testing.T) {
		seedLocalUser(t, st, "carol", "pw")

		_, _, err := auth.VerifyMFA(ctx, "carol", "123456")
		require.ErrorIs(t, err, ErrInvalidCode)
	})
}

func TestResolvePrincipal_BadToken(t *testing.T) {
	auth, _ := newLocalAuthService(t)
	ctx := context.Background()

	_, err := auth.ResolvePrincipal(ctx, "garbage")
	require.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}

func TestResolvePrincipal_VanishedSubject(t *testing.T) {
	auth, _ := newLocalAuthService(t)
	ctx := context.Background()

	// A valid token naming a user that no longer exists is still just
	// "not authenticated"
	token, err := auth.Sessions.Issue("ghost", []string{"pwd", "otp"})
	require.NoError(t, err)

	_, err = auth.ResolvePrincipal(ctx, token)
	require.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}
