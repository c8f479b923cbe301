package service

import (
	"testing"
	"time"

	"github.com/retrifix/retrifix/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestSessionIssueAndVerify(t *testing.T) {
	sessions := newTestSessions(t)

	token, err := sessions.Issue("alice", []string{"pwd", "otp"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	subject, err := sessions.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "alice", subject)
}

func TestSessionVerify_BadTokens(t *testing.T) {
	sessions := newTestSessions(t)

	token, err := sessions.Issue("alice", []string{"pwd", "otp"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"garbage", "not-a-token"},
		{"truncated", token[:len(token)-10]},
		{"tampered", token + "xxxx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sessions.Verify(tt.token)
			require.ErrorIs(t, err, ErrInvalidOrExpiredToken)
		})
	}
}

func TestSessionVerify_Expired(t *testing.T) {
	sessions := newTestSessions(t)

	// Sign claims that expired long ago with the session key
	claims := jwtx.NewSessionClaims("alice", []string{"pwd", "otp"},
		time.Minute, sessions.Issuer, time.Now().UTC().Add(-time.Hour))
	token, err := sessions.Signer.Sign(claims)
	require.NoError(t, err)

	_, err = sessions.Verify(token)
	require.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}

func TestSessionVerify_WrongIssuer(t *testing.T) {
	sessions := newTestSessions(t)

	claims := jwtx.NewSessionClaims("alice", []string{"pwd", "otp"},
		time.Minute, "someone-else", time.Now().UTC())
	token, err := sessions.Signer.Sign(claims)
	require.NoError(t, err)

	_, err = sessions.Verify(token)
	require.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}
