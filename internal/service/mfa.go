package service

import (
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// MFAService is the TOTP engine: it provisions per-user secrets and checks
// submitted codes against a rolling time window.
type MFAService struct {
	Issuer string // Issuer name embedded in provisioning URIs (e.g. "Retrifix")
}

// GenerateSecret produces a cryptographically random base32 secret for the
// account and the otpauth:// provisioning URI an authenticator app consumes.
// The URI embeds the secret and must only be shown once.
func (s *MFAService) GenerateSecret(username string) (secret, uri string, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: username,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to generate TOTP key: %w", err)
	}

	return key.Secret(), key.URL(), nil
}

// VerifyCode reports whether code matches the secret for the current time
// step, tolerating one step of clock drift either way. Malformed codes and
// empty secrets are simply false, never an error.
func (s *MFAService) VerifyCode(secret, code string) bool {
	return verifyCodeAt(secret, code, time.Now())
}

func verifyCodeAt(secret, code string, t time.Time) bool {
	if secret == "" {
		return false
	}

	ok, err := totp.ValidateCustom(code, secret, t, totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}
