package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/acegraph/graphrag-portal/internal/models"
	"github.com/acegraph/graphrag-portal/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adminSession() *models.SessionClaims {
	return &models.SessionClaims{
		Username:    "admin",
		SessionID:   "s-admin",
		Permissions: []string{models.PermissionAdministrator},
	}
}

// newRouterRequest routes through chi so URL params resolve.
func serveUserRoute(handler *UserHandler, method, path string, body string, claims *models.SessionClaims) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Post("/users", handler.Create)
	r.Get("/users", handler.List)
	r.Get("/users/{username}", handler.Get)
	r.Put("/users/{username}", handler.Update)
	r.Delete("/users/{username}", handler.Delete)
	r.Post("/users/{username}/activate", handler.Activate)
	r.Post("/users/{username}/deactivate", handler.Deactivate)
	r.Post("/users/{username}/reset-password", handler.ResetPassword)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if claims != nil {
		req = withSession(req, claims)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCreateUserHandler(t *testing.T) {
	svc := &MockUserService{
		CreateUserFunc: func(_ context.Context, actor string, input services.CreateUserInput) (*services.UserResponse, error) {
			assert.Equal(t, "admin", actor)
			assert.Equal(t, "bob", input.Username)
			return &services.UserResponse{Username: "bob", AccountStatus: models.StatusActive}, nil
		},
	}
	handler := NewUserHandler(svc)

	body := `{"username": "bob", "password": "a-decent-password", "permissions": ["AllowQuery"], "index_names": ["wiki"]}`
	rec := serveUserRoute(handler, http.MethodPost, "/users", body, adminSession())

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"bob"`)
}

func TestCreateUserHandler_Duplicate(t *testing.T) {
	svc := &MockUserService{
		CreateUserFunc: func(_ context.Context, _ string, _ services.CreateUserInput) (*services.UserResponse, error) {
			return nil, models.ErrConflict
		},
	}
	handler := NewUserHandler(svc)

	body := `{"username": "bob", "password": "a-decent-password"}`
	rec := serveUserRoute(handler, http.MethodPost, "/users", body, adminSession())

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetUserHandler_NotFound(t *testing.T) {
	handler := NewUserHandler(&MockUserService{})

	rec := serveUserRoute(handler, http.MethodGet, "/users/ghost", "", adminSession())

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteUserHandler_SelfDeleteForbidden(t *testing.T) {
	svc := &MockUserService{
		DeleteUserFunc: func(_ context.Context, actor, username string) error {
			if actor == username {
				return models.ErrForbidden
			}
			return nil
		},
	}
	handler := NewUserHandler(svc)

	rec := serveUserRoute(handler, http.MethodDelete, "/users/admin", "", adminSession())

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "cannot delete your own account")
}

func TestDeleteUserHandler_Success(t *testing.T) {
	handler := NewUserHandler(&MockUserService{})

	rec := serveUserRoute(handler, http.MethodDelete, "/users/bob", "", adminSession())

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestActivateHandler_AlreadyActive(t *testing.T) {
	svc := &MockUserService{
		ActivateUserFunc: func(_ context.Context, _, _ string) (bool, error) {
			return false, nil
		},
	}
	handler := NewUserHandler(svc)

	rec := serveUserRoute(handler, http.MethodPost, "/users/bob/activate", "", adminSession())

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "already active")
}

func TestActivateHandler_Unlocked(t *testing.T) {
	svc := &MockUserService{
		ActivateUserFunc: func(_ context.Context, _, _ string) (bool, error) {
			return true, nil
		},
	}
	handler := NewUserHandler(svc)

	rec := serveUserRoute(handler, http.MethodPost, "/users/bob/activate", "", adminSession())

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Account unlocked")
}

func TestResetPasswordHandler(t *testing.T) {
	var gotUsername, gotPassword string
	svc := &MockUserService{
		ResetPasswordFunc: func(_ context.Context, _, username, newPassword string) error {
			gotUsername = username
			gotPassword = newPassword
			return nil
		},
	}
	handler := NewUserHandler(svc)

	body := `{"new_password": "a-replacement-pass"}`
	rec := serveUserRoute(handler, http.MethodPost, "/users/bob/reset-password", body, adminSession())

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bob", gotUsername)
	assert.Equal(t, "a-replacement-pass", gotPassword)
}

func TestUpdateUserHandler(t *testing.T) {
	svc := &MockUserService{
		UpdateUserFunc: func(_ context.Context, _, username string, input services.UpdateUserInput) (*services.UserResponse, error) {
			assert.Equal(t, "bob", username)
			assert.Equal(t, []string{"AllowQuery", "AllowCreateIndex"}, input.Permissions)
			return &services.UserResponse{Username: "bob", Permissions: input.Permissions}, nil
		},
	}
	handler := NewUserHandler(svc)

	body := `{"permissions": ["AllowQuery", "AllowCreateIndex"]}`
	rec := serveUserRoute(handler, http.MethodPut, "/users/bob", body, adminSession())

	assert.Equal(t, http.StatusOK, rec.Code)
}
