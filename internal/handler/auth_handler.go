package handler

import (
	"errors"
	"go-blog-app/internal/auth"
	"go-blog-app/internal/logger"
	"go-blog-app/internal/middleware"
	"go-blog-app/internal/session"
	"net/http"
)

// AuthHandler holds the dependencies for the admin login handlers.
type AuthHandler struct {
	admin   *auth.Admin
	session session.Manager
	log     logger.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(a *auth.Admin, sm session.Manager, log logger.Logger) *AuthHandler {
	return &AuthHandler{admin: a, session: sm, log: log}
}

type loginRequest struct {
	Password string `json:"password"`
}

// loginHandler checks the admin password and, on success, marks the
// session as admin so later requests need no password.
func (h *AuthHandler) loginHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	var req loginRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		return appErr
	}
	if !h.admin.CheckPassword(req.Password) {
		return &middleware.AppError{Error: errors.New("invalid admin password"), Message: "Invalid password", Code: http.StatusUnauthorized}
	}

	// Renew the token on privilege change to prevent session fixation.
	if err := h.session.RenewToken(r.Context()); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to start session", Code: http.StatusInternalServerError}
	}
	h.session.Put(r.Context(), session.RoleKey, session.RoleAdmin)
	h.log.Info("Admin logged in")

	middleware.WriteJSON(w, http.StatusOK, successBody{Success: true})
	return nil
}

// logoutHandler destroys the session.
func (h *AuthHandler) logoutHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if err := h.session.Destroy(r.Context()); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to log out", Code: http.StatusInternalServerError}
	}
	middleware.WriteJSON(w, http.StatusOK, successBody{Success: true})
	return nil
}
