package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/acegraph/graphrag-portal/internal/models"
	pkgauth "github.com/acegraph/graphrag-portal/pkg/auth"
	pkglogger "github.com/acegraph/graphrag-portal/pkg/logger"
)

// HistoryPurger removes a user's stored query histories when the account
// goes away.
type HistoryPurger interface {
	DeleteUserHistories(ctx context.Context, username string) error
}

// UserService handles administrative account management.
type UserService struct {
	repo        UserRepository
	histories   HistoryPurger
	bcryptCost  int
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

func NewUserService(repo UserRepository, histories HistoryPurger, bcryptCost int, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *UserService {
	return &UserService{
		repo:        repo,
		histories:   histories,
		bcryptCost:  bcryptCost,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// CreateUserInput carries the fields an administrator sets on a new account.
type CreateUserInput struct {
	Username    string
	Password    string
	Permissions []string
	IndexNames  []string
}

func (s *UserService) CreateUser(ctx context.Context, actor string, input CreateUserInput) (*UserResponse, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", models.ErrBadRequest)
	}

	for _, tag := range input.Permissions {
		if !models.IsValidPermission(tag) {
			return nil, fmt.Errorf("%w: unknown permission %q", models.ErrBadRequest, tag)
		}
	}

	if err := pkgauth.ValidatePassword(input.Password); err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrBadRequest, err.Error())
	}

	hash, err := pkgauth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user := &models.User{
		Username:      username,
		Salt:          s.bcryptCost,
		PasswordHash:  hash,
		Permissions:   input.Permissions,
		IndexNames:    input.IndexNames,
		AccountStatus: models.StatusActive,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogAccountAction("user_created", username, actor, nil)
	return newUserResponse(created), nil
}

func (s *UserService) GetUser(ctx context.Context, username string) (*UserResponse, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return newUserResponse(user), nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]*UserResponse, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list users", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	responses := make([]*UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, newUserResponse(user))
	}
	return responses, nil
}

// UpdateUserInput carries the mutable account fields. Nil slices leave the
// current value unchanged.
type UpdateUserInput struct {
	Permissions []string
	IndexNames  []string
}

func (s *UserService) UpdateUser(ctx context.Context, actor, username string, input UpdateUserInput) (*UserResponse, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if input.Permissions != nil {
		for _, tag := range input.Permissions {
			if !models.IsValidPermission(tag) {
				return nil, fmt.Errorf("%w: unknown permission %q", models.ErrBadRequest, tag)
			}
		}
		user.Permissions = input.Permissions
	}
	if input.IndexNames != nil {
		user.IndexNames = input.IndexNames
	}

	updated, err := s.repo.Update(ctx, username, user)
	if err != nil {
		s.logger.Error("failed to update user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogAccountAction("user_updated", username, actor, nil)
	return newUserResponse(updated), nil
}

// DeleteUser removes an account. Administrators cannot delete themselves.
func (s *UserService) DeleteUser(ctx context.Context, actor, username string) error {
	if actor == username {
		return fmt.Errorf("%w: cannot delete your own account", models.ErrForbidden)
	}

	if err := s.repo.Delete(ctx, username); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete user", slog.Any("error", err))
		return models.ErrInternalServer
	}

	// Orphaned history blobs are worth cleaning up, but the account is
	// already gone; a failed purge is logged, not surfaced.
	if s.histories != nil {
		if err := s.histories.DeleteUserHistories(ctx, username); err != nil {
			s.logger.Error("failed to purge query histories",
				slog.String("username", pkglogger.MaskUsername(username)),
				slog.Any("error", err))
		}
	}

	s.auditLogger.LogAccountAction("user_deleted", username, actor, nil)
	return nil
}

// ActivateUser unlocks an account. Returns false when the account was
// already active.
func (s *UserService) ActivateUser(ctx context.Context, actor, username string) (bool, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return false, err
	}

	if user.IsActive() {
		return false, nil
	}

	if err := s.repo.SetAccountStatus(ctx, username, models.StatusActive); err != nil {
		s.logger.Error("failed to activate user", slog.Any("error", err))
		return false, models.ErrInternalServer
	}

	s.auditLogger.LogAccountAction("account_activated", username, actor, nil)
	return true, nil
}

func (s *UserService) DeactivateUser(ctx context.Context, actor, username string) error {
	if err := s.repo.SetAccountStatus(ctx, username, models.StatusInactive); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to deactivate user", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.auditLogger.LogAccountAction("account_deactivated", username, actor, nil)
	return nil
}

// ResetPassword sets a new password on behalf of an administrator, re-hashed
// with the account's stored cost.
func (s *UserService) ResetPassword(ctx context.Context, actor, username, newPassword string) error {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}

	if err := pkgauth.ValidatePassword(newPassword); err != nil {
		return fmt.Errorf("%w: %s", models.ErrBadRequest, err.Error())
	}

	hash, err := pkgauth.HashPassword(newPassword, user.Salt)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.repo.UpdatePassword(ctx, username, hash, user.Salt); err != nil {
		s.logger.Error("failed to reset password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.auditLogger.LogAccountAction("password_reset", username, actor, nil)
	return nil
}

// EnsureAdminUser creates the bootstrap administrator account when it does
// not exist yet. Called once at startup.
func (s *UserService) EnsureAdminUser(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}

	_, err := s.repo.GetByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check admin user: %w", err)
	}

	_, err = s.CreateUser(ctx, "system", CreateUserInput{
		Username:    username,
		Password:    password,
		Permissions: []string{models.PermissionAdministrator, models.PermissionCreateIndex, models.PermissionQuery},
		IndexNames:  []string{},
	})
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	s.logger.Info("bootstrap administrator created", slog.String("username", pkglogger.MaskUsername(username)))
	return nil
}
