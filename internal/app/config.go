package app

import (
	"os"
	"strconv"
	"time"

	"github.com/retrifix/retrifix/internal/directory"
	"github.com/retrifix/retrifix/pkg/jwtx"
)

type Config struct {
	Issuer      string // Optional: issuer for tokens and TOTP URIs (default: Retrifix)
	AuthBackend string // Optional: factor-1 backend (local, ldap) (default: local)

	SessionSecretFile string        // Optional: path to HS256 signing key file (default: ./session_secret)
	SessionTTL        time.Duration // Optional: session token lifetime (default: 30m)
	PendingTTL        time.Duration // Optional: pending-MFA cookie lifetime (default: 30m)
	CookieSecure      bool          // Optional: Secure attribute on cookies (default: false)

	LDAPURL           string        // Required for ldap backend: e.g. ldap://localhost:389
	LDAPBaseDN        string        // Required for ldap backend: e.g. dc=local
	LDAPUserOU        string        // Optional: OU holding user entries (default: users)
	LDAPAdminDN       string        // Optional: privileged DN for provisioning
	LDAPAdminPassword string        // Optional: password for the admin DN
	LDAPTimeout       time.Duration // Optional: dial and operation timeout (default: 5s)

	DatabaseFile         string        // Optional: path to SQLite database file (default: ./retrifix.db)
	PepperFile           string        // Optional: path to file containing pepper for password hashing (default: ./pepper)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		Issuer:      getEnvOrDefault("RETRIFIX_ISSUER", "Retrifix"),
		AuthBackend: getEnvOrDefault("AUTH_BACKEND", "local"),

		SessionSecretFile: getEnvOrDefault("SESSION_SECRET_FILE", "session_secret"),
		SessionTTL:        getEnvDurationOrDefault("SESSION_TTL", jwtx.DefaultSessionTTL),
		PendingTTL:        getEnvDurationOrDefault("PENDING_TTL", jwtx.DefaultSessionTTL),
		CookieSecure:      getEnvOrDefault("COOKIE_SECURE", "false") == "true",

		LDAPURL:           os.Getenv("LDAP_URL"),
		LDAPBaseDN:        os.Getenv("LDAP_BASE_DN"),
		LDAPUserOU:        getEnvOrDefault("LDAP_USER_OU", "users"),
		LDAPAdminDN:       os.Getenv("LDAP_ADMIN_DN"),
		LDAPAdminPassword: os.Getenv("LDAP_ADMIN_PASSWORD"),
		LDAPTimeout:       getEnvDurationOrDefault("LDAP_TIMEOUT", directory.DefaultTimeout),

		DatabaseFile:         getEnvOrDefault("DATABASE_FILE", "retrifix.db"),
		PepperFile:           getEnvOrDefault("PEPPER_FILE", "pepper"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g. "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
