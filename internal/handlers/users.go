package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/acegraph/graphrag-portal/internal/auth"
	"github.com/acegraph/graphrag-portal/internal/models"
	"github.com/acegraph/graphrag-portal/internal/services"
	pkghttp "github.com/acegraph/graphrag-portal/pkg/http"
	"github.com/go-chi/chi/v5"
)

// UserServiceInterface defines the interface for user management logic
type UserServiceInterface interface {
	CreateUser(ctx context.Context, actor string, input services.CreateUserInput) (*services.UserResponse, error)
	GetUser(ctx context.Context, username string) (*services.UserResponse, error)
	ListUsers(ctx context.Context) ([]*services.UserResponse, error)
	UpdateUser(ctx context.Context, actor, username string, input services.UpdateUserInput) (*services.UserResponse, error)
	DeleteUser(ctx context.Context, actor, username string) error
	ActivateUser(ctx context.Context, actor, username string) (bool, error)
	DeactivateUser(ctx context.Context, actor, username string) error
	ResetPassword(ctx context.Context, actor, username, newPassword string) error
}

// UserHandler handles the admin user-management endpoints.
type UserHandler struct {
	service UserServiceInterface
}

func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// CreateUserRequest represents the request body for user creation
type CreateUserRequest struct {
	Username    string   `json:"username" validate:"required,min=2,max=64"`
	Password    string   `json:"password" validate:"required"`
	Permissions []string `json:"permissions"`
	IndexNames  []string `json:"index_names"`
}

// UpdateUserRequest represents the request body for user updates
type UpdateUserRequest struct {
	Permissions []string `json:"permissions"`
	IndexNames  []string `json:"index_names"`
}

// ResetPasswordRequest represents the request body for an admin password reset
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required"`
}

func actorFrom(r *http.Request) string {
	if session := auth.GetSessionFromContext(r); session != nil {
		return session.Username
	}
	return ""
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	user, err := h.service.CreateUser(r.Context(), actorFrom(r), services.CreateUserInput{
		Username:    req.Username,
		Password:    req.Password,
		Permissions: req.Permissions,
		IndexNames:  req.IndexNames,
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "Username already exists")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, err.Error())
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, user)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	user, err := h.service.GetUser(r.Context(), username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "User not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, user)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	user, err := h.service.UpdateUser(r.Context(), actorFrom(r), username, services.UpdateUserInput{
		Permissions: req.Permissions,
		IndexNames:  req.IndexNames,
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "User not found")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, err.Error())
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, user)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	if err := h.service.DeleteUser(r.Context(), actorFrom(r), username); err != nil {
		switch {
		case errors.Is(err, models.ErrForbidden):
			pkghttp.WriteForbidden(w, "You cannot delete your own account")
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "User not found")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) Activate(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	changed, err := h.service.ActivateUser(r.Context(), actorFrom(r), username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "User not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	message := "Account unlocked"
	if !changed {
		message = "Account is already active"
	}
	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": message})
}

func (h *UserHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	if err := h.service.DeactivateUser(r.Context(), actorFrom(r), username); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "User not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "Account deactivated"})
}

func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.ResetPassword(r.Context(), actorFrom(r), username, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "User not found")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, err.Error())
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "Password reset successfully"})
}
