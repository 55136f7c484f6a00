package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/deskbridge/deskapi/internal/api/domain"
	"github.com/deskbridge/deskapi/internal/api/service"
	"github.com/deskbridge/deskapi/pkg/jwtx"
	"github.com/deskbridge/deskapi/pkg/slogx"
)

// AuthHandler serves login and logout for the general API surface.
type AuthHandler struct {
	Users  *service.UserService
	Tokens *service.TokenService
	Signed *jwtx.Manager
}

type loginRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	DeviceID   string `json:"deviceId"`
	DeviceUUID string `json:"deviceUuid"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	User      userResponse `json:"user"`
	ExpiredAt int64        `json:"expiredAt"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Nickname string `json:"nickname,omitempty"`
	IsAdmin  bool   `json:"isAdmin"`
	Status   int    `json:"status"`
}

func userResponseOf(u domain.User) userResponse {
	status := 0
	if u.Active {
		status = 1
	}
	return userResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Nickname: u.Nickname,
		IsAdmin:  u.IsAdmin,
		Status:   status,
	}
}

// HandleLogin authenticates a username/password pair and returns an access
// token. A session row is always created; when signed tokens are enabled the
// response carries the signed form instead of the opaque value.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
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
		log.Error("login failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if !user.Active {
		log.Warn("login rejected: account inactive", "user_id", user.ID)
		writeError(w, http.StatusForbidden, "User account is inactive")
		return
	}

	session, err := h.Tokens.Issue(ctx, user.ID, req.DeviceID, req.DeviceUUID)
	if err != nil {
		log.Error("session issue failed", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	token := session.Token
	expiredAt := session.ExpiresAt

	if h.Signed.Enabled() {
		now := time.Now()
		signed, err := h.Signed.Issue(user.ID, user.Username, user.IsAdmin, now)
		if err != nil {
			log.Error("signed token issue failed", "user_id", user.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		token = signed
		expiredAt = now.Add(h.Signed.TTL())
	}

	log.Info("login successful", "user_id", user.ID, "username", user.Username)
	writeSuccess(w, loginResponse{
		Token:     token,
		User:      userResponseOf(user),
		ExpiredAt: expiredAt.UnixMilli(),
	})
}

// HandleLogout revokes the presented session token. Signed tokens are
// stateless and simply expire; only opaque credentials have a row to delete.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if credential := bearerToken(r); credential != "" && !jwtx.IsCompactJWS(credential) {
		if err := h.Tokens.Revoke(ctx, credential); err != nil {
			slogx.FromContext(ctx).Warn("logout revoke failed", "error", err)
		}
	}

	writeMessage(w, "Logout successful")
}

// HandleLoginOptions reports which login mechanisms this deployment offers.
func (h *AuthHandler) HandleLoginOptions(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, map[string]any{
		"enableRegistration": false,
		"enableOAuth":        false,
		"enableLDAP":         false,
	})
}
