package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/retrifix/retrifix/internal/directory"
	"github.com/retrifix/retrifix/internal/service"
	"github.com/retrifix/retrifix/internal/store"
	"github.com/retrifix/retrifix/pkg/httpx"
	"github.com/retrifix/retrifix/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	cookies      *CookieManager
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store       store.Store
	AuthService *service.AuthService
	UserService *service.UserService
	ChatService *service.ChatService
	Directory   *directory.Directory // Optional: only set for LDAP deployments
}

func NewRouter(
	cookies *CookieManager,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		cookies:      cookies,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerUsers()
	r.registerChats()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	loginHandler := &LoginHandler{
		AuthService: r.AuthService,
		Cookies:     r.cookies,
	}

	// POST /login - strict rate limit by IP (credential guessing surface)
	r.Mux.Handle("POST /login",
		httpx.Chain(loginHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /verify-mfa - strict rate limit by IP (6-digit code guessing)
	verifyHandler := &VerifyMFAHandler{
		AuthService: r.AuthService,
		Cookies:     r.cookies,
	}
	r.Mux.Handle("POST /verify-mfa",
		httpx.Chain(verifyHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// DELETE /logout - no session required, clears cookies unconditionally
	logoutHandler := &LogoutHandler{Cookies: r.cookies}
	r.Mux.Handle("DELETE /logout",
		httpx.Chain(logoutHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerUsers() {
	h := &UsersHandler{
		UserService: r.UserService,
		Directory:   r.Directory,
	}

	// POST /add-users - moderate rate limit by user (admin operation)
	securedAdd := httpx.Chain(http.HandlerFunc(h.HandleAddUsers),
		SessionMiddleware(r.AuthService, r.cookies),
		httpx.RateLimitByUser(httpx.ModerateLimit),
	)

	// GET /registered-users - moderate rate limit by user
	securedList := httpx.Chain(http.HandlerFunc(h.HandleRegisteredUsers),
		SessionMiddleware(r.AuthService, r.cookies),
		httpx.RateLimitByUser(httpx.ModerateLimit),
	)

	r.Mux.Handle("POST /add-users", securedAdd)
	r.Mux.Handle("GET /registered-users", securedList)
}

func (r *Router) registerChats() {
	h := &ChatHandler{ChatService: r.ChatService}

	secured := func(next http.HandlerFunc) http.Handler {
		return httpx.Chain(next,
			SessionMiddleware(r.AuthService, r.cookies),
			httpx.RateLimitByUser(httpx.LenientLimit),
		)
	}

	r.Mux.Handle("POST /chats", secured(h.HandleCreate))
	r.Mux.Handle("GET /chats", secured(h.HandleList))
	r.Mux.Handle("GET /chats/{id}", secured(h.HandleGet))
	r.Mux.Handle("POST /chats/{id}/messages", secured(h.HandlePostMessage))
	r.Mux.Handle("DELETE /chats/{id}", secured(h.HandleDelete))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
