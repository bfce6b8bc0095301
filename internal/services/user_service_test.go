package services

import (
	"context"
	"testing"

	"github.com/acegraph/graphrag-portal/internal/models"
	pkgauth "github.com/acegraph/graphrag-portal/pkg/auth"
	pkglogger "github.com/acegraph/graphrag-portal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService(repo UserRepository) *UserService {
	logger := discardLogger()
	return NewUserService(repo, nil, pkgauth.MinCost, logger, pkglogger.NewAuditLogger(logger))
}

func TestCreateUser_Defaults(t *testing.T) {
	var created *models.User
	repo := &MockUserRepository{
		CreateFunc: func(_ context.Context, user *models.User) (*models.User, error) {
			created = user
			return user, nil
		},
	}
	svc := newUserService(repo)

	resp, err := svc.CreateUser(context.Background(), "admin", CreateUserInput{
		Username:    "bob",
		Password:    "a-decent-password",
		Permissions: []string{models.PermissionQuery},
		IndexNames:  []string{"wiki"},
	})

	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, created.AccountStatus)
	assert.Equal(t, pkgauth.MinCost, created.Salt)
	assert.NoError(t, pkgauth.ComparePassword(created.PasswordHash, "a-decent-password"))
	assert.Equal(t, "bob", resp.Username)
}

func TestCreateUser_RejectsUnknownPermission(t *testing.T) {
	svc := newUserService(&MockUserRepository{})

	_, err := svc.CreateUser(context.Background(), "admin", CreateUserInput{
		Username:    "bob",
		Password:    "a-decent-password",
		Permissions: []string{"SuperUser"},
	})

	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestCreateUser_RejectsWeakPassword(t *testing.T) {
	svc := newUserService(&MockUserRepository{})

	_, err := svc.CreateUser(context.Background(), "admin", CreateUserInput{
		Username: "bob",
		Password: "short",
	})

	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	repo := &MockUserRepository{
		CreateFunc: func(_ context.Context, _ *models.User) (*models.User, error) {
			return nil, models.ErrConflict
		},
	}
	svc := newUserService(repo)

	_, err := svc.CreateUser(context.Background(), "admin", CreateUserInput{
		Username: "bob",
		Password: "a-decent-password",
	})

	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestDeleteUser_SelfDeleteForbidden(t *testing.T) {
	svc := newUserService(&MockUserRepository{})

	err := svc.DeleteUser(context.Background(), "admin", "admin")

	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestDeleteUser_OtherUser(t *testing.T) {
	deleted := ""
	repo := &MockUserRepository{
		DeleteFunc: func(_ context.Context, username string) error {
			deleted = username
			return nil
		},
	}
	svc := newUserService(repo)

	err := svc.DeleteUser(context.Background(), "admin", "bob")

	require.NoError(t, err)
	assert.Equal(t, "bob", deleted)
}

func TestDeleteUser_PurgesQueryHistories(t *testing.T) {
	repo := &MockUserRepository{
		DeleteFunc: func(_ context.Context, _ string) error { return nil },
	}
	store := NewInMemoryBlobStore()
	histories := NewHistoryService(store, "query-history", discardLogger())
	logger := discardLogger()
	svc := NewUserService(repo, histories, pkgauth.MinCost, logger, pkglogger.NewAuditLogger(logger))

	ctx := context.Background()
	require.NoError(t, histories.SaveQueryHistories(ctx, HistoryKey("bob", "s1"), []models.QueryRecord{{Query: "what about graphs"}}))
	require.NoError(t, histories.SaveQueryHistories(ctx, HistoryKey("bob", "s2"), []models.QueryRecord{{Query: "second session"}}))
	require.NoError(t, histories.SaveQueryHistories(ctx, HistoryKey("alice", "s1"), []models.QueryRecord{{Query: "keep me"}}))

	require.NoError(t, svc.DeleteUser(ctx, "admin", "bob"))

	metas, err := histories.FetchHistoriesMetadata(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, metas)

	metas, err = histories.FetchHistoriesMetadata(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, metas, 1)
}

func TestActivateUser_AlreadyActiveNoOp(t *testing.T) {
	repo := &MockUserRepository{
		GetByUsernameFunc: func(_ context.Context, _ string) (*models.User, error) {
			return &models.User{Username: "bob", AccountStatus: models.StatusActive}, nil
		},
		SetAccountStatusFunc: func(_ context.Context, _, _ string) error {
			t.Fatal("status should not be written for an active account")
			return nil
		},
	}
	svc := newUserService(repo)

	changed, err := svc.ActivateUser(context.Background(), "admin", "bob")

	require.NoError(t, err)
	assert.False(t, changed)
}

func TestActivateUser_UnlocksInactiveAccount(t *testing.T) {
	var setStatus string
	repo := &MockUserRepository{
		GetByUsernameFunc: func(_ context.Context, _ string) (*models.User, error) {
			return &models.User{Username: "bob", AccountStatus: models.StatusInactive}, nil
		},
		SetAccountStatusFunc: func(_ context.Context, _, status string) error {
			setStatus = status
			return nil
		},
	}
	svc := newUserService(repo)

	changed, err := svc.ActivateUser(context.Background(), "admin", "bob")

	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.StatusActive, setStatus)
}

func TestResetPassword_UsesStoredCost(t *testing.T) {
	repo := &MockUserRepository{
		GetByUsernameFunc: func(_ context.Context, _ string) (*models.User, error) {
			return &models.User{Username: "bob", Salt: pkgauth.MinCost}, nil
		},
		UpdatePasswordFunc: func(_ context.Context, _, passwordHash string, cost int) error {
			assert.Equal(t, pkgauth.MinCost, cost)
			assert.NoError(t, pkgauth.ComparePassword(passwordHash, "replacement-pass"))
			return nil
		},
	}
	svc := newUserService(repo)

	err := svc.ResetPassword(context.Background(), "admin", "bob", "replacement-pass")

	require.NoError(t, err)
}

func TestEnsureAdminUser_SkipsExisting(t *testing.T) {
	repo := &MockUserRepository{
		GetByUsernameFunc: func(_ context.Context, _ string) (*models.User, error) {
			return &models.User{Username: "admin"}, nil
		},
		CreateFunc: func(_ context.Context, _ *models.User) (*models.User, error) {
			t.Fatal("existing admin should not be recreated")
			return nil, nil
		},
	}
	svc := newUserService(repo)

	require.NoError(t, svc.EnsureAdminUser(context.Background(), "admin", "bootstrap-password"))
}

func TestEnsureAdminUser_CreatesWithAllPermissions(t *testing.T) {
	var created *models.User
	repo := &MockUserRepository{
		CreateFunc: func(_ context.Context, user *models.User) (*models.User, error) {
			created = user
			return user, nil
		},
	}
	svc := newUserService(repo)

	require.NoError(t, svc.EnsureAdminUser(context.Background(), "admin", "bootstrap-password"))
	require.NotNil(t, created)
	assert.Contains(t, created.Permissions, models.PermissionAdministrator)
	assert.Contains(t, created.Permissions, models.PermissionCreateIndex)
	assert.Contains(t, created.Permissions, models.PermissionQuery)
}

func TestEnsureAdminUser_NoCredentialsConfigured(t *testing.T) {
	svc := newUserService(&MockUserRepository{})

	require.NoError(t, svc.EnsureAdminUser(context.Background(), "", ""))
}
