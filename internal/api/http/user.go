package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/deskbridge/deskapi/internal/api/service"
	"github.com/deskbridge/deskapi/pkg/cryptox"
	"github.com/deskbridge/deskapi/pkg/slogx"
)

// UserHandler serves endpoints about the authenticated user. All routes are
// registered behind RequirePrincipal.
type UserHandler struct {
	Users  *service.UserService
	Tokens *service.TokenService
}

// HandleCurrentUser echoes the account behind the request credential.
func (h *UserHandler) HandleCurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p, ok := PrincipalFrom(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	user, err := h.Users.GetUserByID(ctx, p.UserID)
	if err != nil {
		slogx.FromContext(ctx).Error("current user lookup failed", "user_id", p.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeSuccess(w, userResponseOf(user))
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// HandleChangePassword verifies the old password, stores the new hash and
// revokes every session the user holds, forcing a fresh login everywhere.
func (h *UserHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	p, ok := PrincipalFrom(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.Users.ChangePassword(ctx, p.UserID, req.OldPassword, req.NewPassword)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid old password")
		return
	case errors.Is(err, cryptox.ErrEmptyPassword):
		writeError(w, http.StatusBadRequest, "New password must not be empty")
		return
	case err != nil:
		log.Error("password change failed", "user_id", p.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := h.Tokens.RevokeAllForUser(ctx, p.UserID); err != nil {
		log.Error("session revocation after password change failed", "user_id", p.UserID, "error", err)
	}

	writeMessage(w, "Password changed successfully")
}
