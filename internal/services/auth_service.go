package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/acegraph/graphrag-portal/internal/auth"
	"github.com/acegraph/graphrag-portal/internal/models"
	pkgauth "github.com/acegraph/graphrag-portal/pkg/auth"
	pkglogger "github.com/acegraph/graphrag-portal/pkg/logger"
)

// UserRepository defines the account persistence operations services need.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, username string, user *models.User) (*models.User, error)
	UpdatePassword(ctx context.Context, username, passwordHash string, cost int) error
	SetAccountStatus(ctx context.Context, username, status string) error
	Delete(ctx context.Context, username string) error
}

// LockoutNotifier alerts an operator when the throttle deactivates an account.
type LockoutNotifier interface {
	SendLockoutNotice(ctx context.Context, username string) error
}

// InvalidCredentialsError carries the attempts-remaining hint shown after a
// failed login.
type InvalidCredentialsError struct {
	AttemptsRemaining int
}

func (e *InvalidCredentialsError) Error() string {
	return fmt.Sprintf("invalid credentials, %d attempts left", e.AttemptsRemaining)
}

func (e *InvalidCredentialsError) Unwrap() error { return models.ErrUnauthorized }

// UserResponse represents a user in the HTTP response
type UserResponse struct {
	ID            string   `json:"id"`
	Username      string   `json:"username"`
	Permissions   []string `json:"permissions"`
	IndexNames    []string `json:"index_names"`
	AccountStatus string   `json:"account_status"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
}

func newUserResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:            user.ID,
		Username:      user.Username,
		Permissions:   user.Permissions,
		IndexNames:    user.IndexNames,
		AccountStatus: user.AccountStatus,
		CreatedAt:     user.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:     user.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// LoginResult is the response to a successful login.
type LoginResult struct {
	Token     string        `json:"token"`
	SessionID string        `json:"session_id"`
	User      *UserResponse `json:"user"`
}

// AuthService handles login, logout and password changes.
type AuthService struct {
	repo        UserRepository
	throttle    *auth.LoginThrottle
	sessions    *auth.SessionManager
	notifier    LockoutNotifier
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

func NewAuthService(repo UserRepository, throttle *auth.LoginThrottle, sessions *auth.SessionManager, notifier LockoutNotifier, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AuthService {
	return &AuthService{
		repo:        repo,
		throttle:    throttle,
		sessions:    sessions,
		notifier:    notifier,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// Login authenticates a user and issues a session token. Failed attempts
// feed the throttle; crossing the threshold deactivates the account and
// notifies the operator.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if username = strings.TrimSpace(username); username == "" {
		s.logger.Warn("login attempt with empty username")
		return nil, models.ErrUnauthorized
	}

	if s.throttle.IsAccountLocked(username) {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			Username:      username,
			FailureReason: "account_locked",
			Success:       false,
		})
		return nil, models.ErrAccountLocked
	}

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "login_failed",
				Username:      username,
				FailureReason: "unknown_user",
				Success:       false,
			})
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get user by username", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !user.IsActive() {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			Username:      username,
			FailureReason: "account_inactive",
			Success:       false,
		})
		return nil, models.ErrAccountInactive
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		remaining, throttleErr := s.throttle.RecordFailedAttempt(ctx, username)
		if throttleErr != nil {
			s.logger.Error("failed to record login attempt", slog.Any("error", throttleErr))
			return nil, models.ErrInternalServer
		}

		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			Username:      username,
			FailureReason: "invalid_credentials",
			Success:       false,
		})

		if remaining <= 0 {
			s.notifyLockout(ctx, username)
			return nil, models.ErrAccountLocked
		}
		return nil, &InvalidCredentialsError{AttemptsRemaining: remaining}
	}

	s.throttle.ResetFailedAttempts(username)

	token, sessionID, err := s.sessions.Issue(user)
	if err != nil {
		s.logger.Error("failed to issue session token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		Username:  username,
		Success:   true,
	})

	return &LoginResult{
		Token:     token,
		SessionID: sessionID,
		User:      newUserResponse(user),
	}, nil
}

func (s *AuthService) notifyLockout(ctx context.Context, username string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendLockoutNotice(ctx, username); err != nil {
		s.logger.Error("failed to send lockout notice",
			slog.String("username", pkglogger.MaskUsername(username)),
			slog.Any("error", err))
	}
}

// ChangePassword verifies the caller's current password and replaces it,
// re-hashing with the account's stored cost.
func (s *AuthService) ChangePassword(ctx context.Context, username, currentPassword, newPassword string) error {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrUnauthorized
		}
		s.logger.Error("failed to get user by username", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "password_change_failed",
			Username:      username,
			FailureReason: "invalid_current_password",
			Success:       false,
		})
		return models.ErrUnauthorized
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
		s.logger.Error("failed to update password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.auditLogger.LogAccountAction("password_changed", username, username, nil)
	return nil
}
