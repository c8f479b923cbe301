package domain

// LoginResult reports the outcome of a successful factor-1 verification.
// The login is not complete until the TOTP code has been verified.
type LoginResult struct {
	User User

	// NewEnrollment is true when an MFA secret was provisioned during this
	// login, either because the principal was just created or because it had
	// no secret yet.
	NewEnrollment bool

	// ProvisioningURI is the otpauth:// URI for authenticator apps. Only set
	// when NewEnrollment is true; it embeds the secret and is shown once.
	ProvisioningURI string
}
