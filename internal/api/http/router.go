package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/deskbridge/deskapi/internal/api/service"
	"github.com/deskbridge/deskapi/internal/api/store"
	"github.com/deskbridge/deskapi/pkg/httpx"
	"github.com/deskbridge/deskapi/pkg/jwtx"
	"github.com/deskbridge/deskapi/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store        store.Store
	AuthService  *service.AuthService
	TokenService *service.TokenService
	UserService  *service.UserService
	Signed       *jwtx.Manager
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	return &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}
}

// ApplyRoutes registers all endpoints and installs the global middleware
// chain. Call after the service fields have been wired.
func (r *Router) ApplyRoutes() {
	// Request logging first, then credential resolution. The resolver
	// attaches principals but never rejects; per-route authorization
	// middleware does the enforcing.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		AuthenticationMiddleware(r.AuthService),
	}

	r.registerAuth()
	r.registerUser()
	r.registerAdmin()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		Users:  r.UserService,
		Tokens: r.TokenService,
		Signed: r.Signed,
	}

	// Login is the brute-force target, strict limit by IP.
	r.Mux.Handle("POST /api/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /api/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			RequirePrincipal(),
		),
	)

	r.Mux.Handle("GET /api/login-options", http.HandlerFunc(h.HandleLoginOptions))
}

func (r *Router) registerUser() {
	h := &UserHandler{
		Users:  r.UserService,
		Tokens: r.TokenService,
	}

	r.Mux.Handle("POST /api/currentUser",
		httpx.Chain(http.HandlerFunc(h.HandleCurrentUser),
			RequirePrincipal(),
		),
	)

	r.Mux.Handle("GET /api/user/info",
		httpx.Chain(http.HandlerFunc(h.HandleCurrentUser),
			RequirePrincipal(),
		),
	)

	r.Mux.Handle("POST /api/user/changePassword",
		httpx.Chain(http.HandlerFunc(h.HandleChangePassword),
			RequirePrincipal(),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerAdmin() {
	h := &AdminHandler{
		Users:  r.UserService,
		Tokens: r.TokenService,
	}

	r.Mux.Handle("POST /api/admin/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /api/admin/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			RequireAdmin(),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("POST /api/heartbeat",
		httpx.Chain(HeartbeatHandler(),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	r.Mux.Handle("GET /api/health",
		httpx.Chain(HealthHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
