package http

import (
	"net/http"
	"strings"

	"github.com/deskbridge/deskapi/internal/api/service"
	"github.com/deskbridge/deskapi/pkg/httpx"
	"github.com/deskbridge/deskapi/pkg/slogx"
)

const (
	adminPathPrefix   = "/api/admin/"
	generalPathPrefix = "/api/"

	// AdminTokenHeader carries admin session tokens; general API requests
	// use the standard Authorization bearer scheme instead.
	AdminTokenHeader = "api-token"
)

// classifyPath maps a request path onto an authentication policy. The admin
// prefix wins over the general prefix; everything else is public.
func classifyPath(path string) service.PathClass {
	switch {
	case strings.HasPrefix(path, adminPathPrefix):
		return service.PathClassAdmin
	case strings.HasPrefix(path, generalPathPrefix):
		return service.PathClassGeneral
	default:
		return service.PathClassPublic
	}
}

// bearerToken extracts the credential from an Authorization: Bearer header.
func bearerToken(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))
}

// AuthenticationMiddleware resolves the request credential and attaches the
// principal to the context. It never rejects: endpoints that require a
// principal enforce it with RequirePrincipal/RequireAdmin, so public routes
// under the API prefixes keep working without credentials.
func AuthenticationMiddleware(auth *service.AuthService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			class := classifyPath(r.URL.Path)
			var credential string
			switch class {
			case service.PathClassAdmin:
				credential = strings.TrimSpace(r.Header.Get(AdminTokenHeader))
			case service.PathClassGeneral:
				credential = bearerToken(r)
			default:
				next.ServeHTTP(w, r)
				return
			}

			p, err := auth.Resolve(ctx, class, credential)
			if err != nil {
				slogx.FromContext(ctx).Debug("request not authenticated",
					"path", r.URL.Path, "reason", err)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, p)))
		})
	}
}

// RequirePrincipal rejects requests that did not resolve to a principal.
func RequirePrincipal() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := PrincipalFrom(r.Context()); !ok {
				writeError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin rejects requests whose principal is missing or not an admin.
func RequireAdmin() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if !p.IsAdmin {
				writeError(w, http.StatusForbidden, "Admin privileges required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
