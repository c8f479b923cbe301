package service

import (
	"time"

	"github.com/retrifix/retrifix/pkg/jwtx"
)

// SessionService issues and validates the signed session tokens that gate
// every protected request. Tokens are stateless: the lifetime is fixed at
// issuance and there is no server-side revocation list, so logout cannot
// invalidate a token before its expiry.
type SessionService struct {
	Signer   jwtx.Signer
	Verifier jwtx.Verifier
	Issuer   string
	TTL      time.Duration
}

// Issue mints a signed token for the subject with an absolute expiry of
// now + TTL.
func (s *SessionService) Issue(subject string, amr []string) (string, error) {
	ttl := s.TTL
	if ttl <= 0 {
		ttl = jwtx.DefaultSessionTTL
	}

	claims := jwtx.NewSessionClaims(subject, amr, ttl, s.Issuer, time.Now().UTC())
	return s.Signer.Sign(claims)
}

// Verify checks signature integrity and expiry and returns the subject.
// Any tampering, malformed structure, or expiry comes back as
// ErrInvalidOrExpiredToken; callers must treat that as "not authenticated",
// never a crash condition.
func (s *SessionService) Verify(token string) (subject string, err error) {
	claims, err := s.Verifier.Verify(token)
	if err != nil {
		return "", ErrInvalidOrExpiredToken
	}
	return claims.Subject, nil
}
