package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/deskbridge/deskapi/internal/api/service"
	"github.com/deskbridge/deskapi/pkg/slogx"
)

// AdminHandler serves the admin console login and logout. The admin surface
// only ever deals in opaque session tokens, presented via the api-token
// header rather than the Authorization header.
type AdminHandler struct {
	Users  *service.UserService
	Tokens *service.TokenService
}

// HandleLogin authenticates an administrator and returns an opaque session
// token. Non-admin accounts are rejected even with valid credentials.
func (h *AdminHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := h.Users.Authenticate(ctx, req.Username, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if err != nil {
		log.Error("admin login failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if !user.Active {
		writeError(w, http.StatusForbidden, "User account is inactive")
		return
	}
	if !user.IsAdmin {
		log.Warn("admin login rejected: not an admin", "user_id", user.ID)
		writeError(w, http.StatusForbidden, "Admin privileges required")
		return
	}

	session, err := h.Tokens.Issue(ctx, user.ID, req.DeviceID, req.DeviceUUID)
	if err != nil {
		log.Error("admin session issue failed", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	log.Info("admin login successful", "user_id", user.ID)
	writeSuccess(w, loginResponse{
		Token:     session.Token,
		User:      userResponseOf(user),
		ExpiredAt: session.ExpiresAt.UnixMilli(),
	})
}

// HandleLogout revokes the admin session presented in the api-token header.
func (h *AdminHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if credential := r.Header.Get(AdminTokenHeader); credential != "" {
		if err := h.Tokens.Revoke(ctx, credential); err != nil {
			slogx.FromContext(ctx).Warn("admin logout revoke failed", "error", err)
		}
	}

	writeMessage(w, "Logout successful")
}
