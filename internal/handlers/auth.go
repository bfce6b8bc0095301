package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/acegraph/graphrag-portal/internal/auth"
	"github.com/acegraph/graphrag-portal/internal/models"
	"github.com/acegraph/graphrag-portal/internal/services"
	pkghttp "github.com/acegraph/graphrag-portal/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Login(ctx context.Context, username, password string) (*services.LoginResult, error)
	ChangePassword(ctx context.Context, username, currentPassword, newPassword string) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service AuthServiceInterface
}

func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest represents the request body for a password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	req.Username = strings.TrimSpace(req.Username)

	result, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		var invalid *services.InvalidCredentialsError
		switch {
		case errors.As(err, &invalid):
			pkghttp.WriteUnauthorized(w, fmt.Sprintf("Invalid credentials. %d attempts left.", invalid.AttemptsRemaining))
		case errors.Is(err, models.ErrAccountLocked),
			errors.Is(err, models.ErrAccountInactive):
			// One message for both states to avoid leaking which applies.
			pkghttp.WriteUnauthorized(w, "Account locked or invalid credentials")
		case errors.Is(err, models.ErrUnauthorized):
			pkghttp.WriteUnauthorized(w, "Account locked or invalid credentials")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, result)
}

// Logout acknowledges the logout; the session token simply stops being used
// client-side and expires on its own.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Logged out successfully",
	})
}

// Me returns the session identity for the presented token.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session := auth.GetSessionFromContext(r)
	if session == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{
		"username":    session.Username,
		"session_id":  session.SessionID,
		"permissions": session.Permissions,
		"index_names": session.IndexNames,
	})
}

// ChangePassword handles a user changing their own password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	session := auth.GetSessionFromContext(r)
	if session == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if req.NewPassword != req.ConfirmPassword {
		pkghttp.WriteBadRequest(w, "Passwords do not match")
		return
	}

	if err := h.service.ChangePassword(r.Context(), session.Username, req.CurrentPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, models.ErrUnauthorized):
			pkghttp.WriteUnauthorized(w, "Current password is incorrect")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, err.Error())
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Password changed successfully",
	})
}
