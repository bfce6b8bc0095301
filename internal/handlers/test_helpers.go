package handlers

import (
	"context"
	"net/http"

	"github.com/acegraph/graphrag-portal/internal/auth"
	"github.com/acegraph/graphrag-portal/internal/models"
	"github.com/acegraph/graphrag-portal/internal/services"
)

// withSession injects session claims the way auth.Middleware would.
func withSession(r *http.Request, claims *models.SessionClaims) *http.Request {
	ctx := context.WithValue(r.Context(), auth.SessionContextKey, claims)
	return r.WithContext(ctx)
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	LoginFunc          func(ctx context.Context, username, password string) (*services.LoginResult, error)
	ChangePasswordFunc func(ctx context.Context, username, currentPassword, newPassword string) error
}

func (m *MockAuthService) Login(ctx context.Context, username, password string) (*services.LoginResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, username, password)
	}
	return nil, models.ErrUnauthorized
}

func (m *MockAuthService) ChangePassword(ctx context.Context, username, currentPassword, newPassword string) error {
	if m.ChangePasswordFunc != nil {
		return m.ChangePasswordFunc(ctx, username, currentPassword, newPassword)
	}
	return nil
}

// MockUserService implements UserServiceInterface for testing
type MockUserService struct {
	CreateUserFunc     func(ctx context.Context, actor string, input services.CreateUserInput) (*services.UserResponse, error)
	GetUserFunc        func(ctx context.Context, username string) (*services.UserResponse, error)
	ListUsersFunc      func(ctx context.Context) ([]*services.UserResponse, error)
	UpdateUserFunc     func(ctx context.Context, actor, username string, input services.UpdateUserInput) (*services.UserResponse, error)
	DeleteUserFunc     func(ctx context.Context, actor, username string) error
	ActivateUserFunc   func(ctx context.Context, actor, username string) (bool, error)
	DeactivateUserFunc func(ctx context.Context, actor, username string) error
	ResetPasswordFunc  func(ctx context.Context, actor, username, newPassword string) error
}

func (m *MockUserService) CreateUser(ctx context.Context, actor string, input services.CreateUserInput) (*services.UserResponse, error) {
	if m.CreateUserFunc != nil {
		return m.CreateUserFunc(ctx, actor, input)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserService) GetUser(ctx context.Context, username string) (*services.UserResponse, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, username)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserService) ListUsers(ctx context.Context) ([]*services.UserResponse, error) {
	if m.ListUsersFunc != nil {
		return m.ListUsersFunc(ctx)
	}
	return []*services.UserResponse{}, nil
}

func (m *MockUserService) UpdateUser(ctx context.Context, actor, username string, input services.UpdateUserInput) (*services.UserResponse, error) {
	if m.UpdateUserFunc != nil {
		return m.UpdateUserFunc(ctx, actor, username, input)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserService) DeleteUser(ctx context.Context, actor, username string) error {
	if m.DeleteUserFunc != nil {
		return m.DeleteUserFunc(ctx, actor, username)
	}
	return nil
}

func (m *MockUserService) ActivateUser(ctx context.Context, actor, username string) (bool, error) {
	if m.ActivateUserFunc != nil {
		return m.ActivateUserFunc(ctx, actor, username)
	}
	return false, nil
}

func (m *MockUserService) DeactivateUser(ctx context.Context, actor, username string) error {
	if m.DeactivateUserFunc != nil {
		return m.DeactivateUserFunc(ctx, actor, username)
	}
	return nil
}

func (m *MockUserService) ResetPassword(ctx context.Context, actor, username, newPassword string) error {
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, actor, username, newPassword)
	}
	return nil
}

// MockQueryService implements QueryServiceInterface for testing
type MockQueryService struct {
	ExecuteQueryFunc func(ctx context.Context, session *models.SessionClaims, queryType string, indexNames []string, query string) (*services.QueryResult, error)
}

func (m *MockQueryService) ExecuteQuery(ctx context.Context, session *models.SessionClaims, queryType string, indexNames []string, query string) (*services.QueryResult, error) {
	if m.ExecuteQueryFunc != nil {
		return m.ExecuteQueryFunc(ctx, session, queryType, indexNames, query)
	}
	return nil, models.ErrInternalServer
}

// MockHistoryService implements HistoryServiceInterface for testing
type MockHistoryService struct {
	LoadQueryHistoriesFunc     func(ctx context.Context, key string) []models.QueryRecord
	FetchHistoriesMetadataFunc func(ctx context.Context, username string) ([]models.HistoryMetadata, error)
}

func (m *MockHistoryService) LoadQueryHistories(ctx context.Context, key string) []models.QueryRecord {
	if m.LoadQueryHistoriesFunc != nil {
		return m.LoadQueryHistoriesFunc(ctx, key)
	}
	return []models.QueryRecord{}
}

func (m *MockHistoryService) FetchHistoriesMetadata(ctx context.Context, username string) ([]models.HistoryMetadata, error) {
	if m.FetchHistoriesMetadataFunc != nil {
		return m.FetchHistoriesMetadataFunc(ctx, username)
	}
	return []models.HistoryMetadata{}, nil
}
