package jwtx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/retrifix/retrifix/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const exampleIssuer = "Retrifix"

func testKey() []byte {
	return []byte("0123456789abcdef0123456789abcdef") // 32 bytes
}

func TestHS256SignAndVerify(t *testing.T) {
	signer, err := jwtx.NewSignerHS256(testKey())
	require.NoError(t, err)
	require.NotNil(t, signer)
	require.NoError(t, signer.Validate())
	require.Equal(t, "HS256", signer.Alg())

	now := time.Now().UTC()
	claims := jwtx.NewSessionClaims(
		"alice",                 // subject
		[]string{"pwd", "otp"},  // AMR
		jwtx.DefaultSessionTTL,  // TTL
		exampleIssuer,           // issuer
		now,                     // issued at time
	)

	token, err := signer.Sign(claims)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	verifier := jwtx.NewVerifierHS256(testKey(), exampleIssuer)

	parsed, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "alice", parsed.Subject)
	require.Equal(t, exampleIssuer, parsed.Issuer)
	require.ElementsMatch(t, []string{"pwd", "otp"}, parsed.AMR)
	require.NotEmpty(t, parsed.ID) // JTI should be set
	require.WithinDuration(t, now.Add(jwtx.DefaultSessionTTL), parsed.ExpiresAt.Time, time.Second)
}

func TestHS256VerifyFailsForWrongKey(t *testing.T) {
	signer, err := jwtx.NewSignerHS256(testKey())
	require.NoError(t, err)

	claims := jwtx.NewSessionClaims("alice", []string{"pwd", "otp"},
		time.Minute, exampleIssuer, time.Now().UTC())
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	verifier := jwtx.NewVerifierHS256([]byte("ffffffffffffffffffffffffffffffff"), exampleIssuer)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrInvalidSig)
}

func TestHS256VerifyFailsForWrongIssuer(t *testing.T) {
	signer, err := jwtx.NewSignerHS256(testKey())
	require.NoError(t, err)

	claims := jwtx.NewSessionClaims("alice", []string{"pwd", "otp"},
		time.Minute, "someone-else", time.Now().UTC())
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	verifier := jwtx.NewVerifierHS256(testKey(), exampleIssuer)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrIssuer)
}

func TestHS256VerifyFailsForExpiredToken(t *testing.T) {
	signer, err := jwtx.NewSignerHS256(testKey())
	require.NoError(t, err)

	// Issued an hour ago with a one-minute TTL
	claims := jwtx.NewSessionClaims("alice", []string{"pwd", "otp"},
		time.Minute, exampleIssuer, time.Now().UTC().Add(-time.Hour))
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	verifier := jwtx.NewVerifierHS256(testKey(), exampleIssuer)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}

func TestHS256VerifyFailsForTamperedToken(t *testing.T) {
	signer, err := jwtx.NewSignerHS256(testKey())
	require.NoError(t, err)

	claims := jwtx.NewSessionClaims("alice", []string{"pwd", "otp"},
		time.Minute, exampleIssuer, time.Now().UTC())
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	// Flip a character in the payload segment
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	verifier := jwtx.NewVerifierHS256(testKey(), exampleIssuer)

	_, err = verifier.Verify(tampered)
	require.Error(t, err)
}

func TestHS256VerifyFailsForGarbage(t *testing.T) {
	verifier := jwtx.NewVerifierHS256(testKey(), exampleIssuer)

	for _, tok := range []string{"", "not-a-jwt", "a.b", "a.b.c.d"} {
		_, err := verifier.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	}
}

func TestNewSignerHS256_RejectsShortKey(t *testing.T) {
	_, err := jwtx.NewSignerHS256([]byte("too-short"))
	require.Error(t, err)
}

func TestClaimsValidateIssuer(t *testing.T) {
	claims := jwtx.NewSessionClaims("alice", nil, time.Minute, exampleIssuer, time.Now().UTC())

	require.NoError(t, claims.ValidateIssuer(exampleIssuer))
	require.NoError(t, claims.ValidateIssuer("")) // empty means "don't care"
	require.ErrorIs(t, claims.ValidateIssuer("other"), jwtx.ErrIssuer)
}

func TestClaimsValidateExpiry(t *testing.T) {
	t.Run("valid window", func(t *testing.T) {
		claims := jwtx.NewSessionClaims("alice", nil, time.Minute, exampleIssuer, time.Now().UTC())
		require.NoError(t, claims.ValidateExpiry())
	})

	t.Run("expired", func(t *testing.T) {
		claims := jwtx.NewSessionClaims("alice", nil, time.Minute, exampleIssuer,
			time.Now().UTC().Add(-time.Hour))
		require.ErrorIs(t, claims.ValidateExpiry(), jwtx.ErrExpired)
	})

	t.Run("not yet valid", func(t *testing.T) {
		claims := jwtx.NewSessionClaims("alice", nil, time.Minute, exampleIssuer,
			time.Now().UTC().Add(time.Hour))
		require.ErrorIs(t, claims.ValidateExpiry(), jwtx.ErrNotYetValid)
	})
}
