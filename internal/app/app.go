package app

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/retrifix/retrifix/internal/directory"
	httpapi "github.com/retrifix/retrifix/internal/http"
	"github.com/retrifix/retrifix/internal/service"
	"github.com/retrifix/retrifix/internal/store"
	"github.com/retrifix/retrifix/internal/store/drivers/sqlite"
	"github.com/retrifix/retrifix/pkg/cryptox"
	"github.com/retrifix/retrifix/pkg/jwtx"
	"github.com/retrifix/retrifix/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db        store.Store
	signer    jwtx.Signer
	verifier  jwtx.Verifier
	directory *directory.Directory // nil for the local backend

	// Services
	authService         *service.AuthService
	userService         *service.UserService
	chatService         *service.ChatService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "retrifix",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initSessionKeys(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	// Start housekeeping service
	app.housekeepingService.Start()

	app.logger.Info("retrifix starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"backend", app.cfg.AuthBackend,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down retrifix...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Stop the housekeeping service
	app.housekeepingService.Stop()

	// Close database connection
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("retrifix stopped")
	return nil
}

// databaseDSN builds the modernc.org/sqlite DSN for the given file. Pragmas
// use the driver's _pragma=name(value) form so they apply to every pooled
// connection.
func databaseDSN(file string) string {
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", file)
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(databaseDSN(app.cfg.DatabaseFile))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initSessionKeys loads the symmetric signing key and builds the token
// signer and verifier pair.
func (app *Application) initSessionKeys() error {
	key, err := loadOrGenerateSecret(app.cfg.SessionSecretFile)
	if err != nil {
		return fmt.Errorf("failed to load session secret: %w", err)
	}

	signer, err := jwtx.NewSignerHS256(key)
	if err != nil {
		return fmt.Errorf("failed to initialize token signer: %w", err)
	}

	app.signer = signer
	app.verifier = jwtx.NewVerifierHS256(key, app.cfg.Issuer)
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() error {
	mfaService := &service.MFAService{Issuer: app.cfg.Issuer}
	sessionService := &service.SessionService{
		Signer:   app.signer,
		Verifier: app.verifier,
		Issuer:   app.cfg.Issuer,
		TTL:      app.cfg.SessionTTL,
	}

	var credentials service.CredentialVerifier
	switch app.cfg.AuthBackend {
	case "local":
		credentials = &service.LocalVerifier{Store: app.db}
	case "ldap":
		if app.cfg.LDAPURL == "" || app.cfg.LDAPBaseDN == "" {
			return fmt.Errorf("ldap backend requires LDAP_URL and LDAP_BASE_DN")
		}
		app.directory = &directory.Directory{
			URL:           app.cfg.LDAPURL,
			BaseDN:        app.cfg.LDAPBaseDN,
			UserOU:        app.cfg.LDAPUserOU,
			AdminDN:       app.cfg.LDAPAdminDN,
			AdminPassword: app.cfg.LDAPAdminPassword,
			Timeout:       app.cfg.LDAPTimeout,
		}
		credentials = &service.DirectoryVerifier{Directory: app.directory}
	default:
		return fmt.Errorf("unknown auth backend %q (want local or ldap)", app.cfg.AuthBackend)
	}

	app.authService = &service.AuthService{
		Store:       app.db,
		Credentials: credentials,
		MFA:         mfaService,
		Sessions:    sessionService,
	}
	app.userService = &service.UserService{Store: app.db}
	app.chatService = &service.ChatService{Store: app.db}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
		0, // default retention
	)

	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	cookies := &httpapi.CookieManager{
		Secure:     app.cfg.CookieSecure,
		PendingTTL: app.cfg.PendingTTL,
		SessionTTL: app.cfg.SessionTTL,
	}

	router := httpapi.NewRouter(cookies, BuildVersion, app.db, app.logger)

	// Wire services to router
	router.AuthService = app.authService
	router.UserService = app.userService
	router.ChatService = app.chatService
	router.Directory = app.directory // nil for the local backend
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

// loadOrGenerateSecret reads the HS256 signing key from a file, generating
// and persisting a random 32-byte key on first run. Restarting with the
// same file keeps previously issued tokens valid.
func loadOrGenerateSecret(file string) ([]byte, error) {
	file = filepath.Clean(file)
	if err := os.MkdirAll(filepath.Dir(file), 0750); err != nil {
		return nil, err
	}

	if raw, err := os.ReadFile(file); err == nil {
		return raw, nil
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	if err := os.WriteFile(file, key, 0600); err != nil {
		return nil, err
	}
	return key, nil
}
