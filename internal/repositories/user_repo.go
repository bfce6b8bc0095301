package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/acegraph/graphrag-portal/internal/database"
	"github.com/acegraph/graphrag-portal/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{pool: db.Pool}
}

// rowScanner interface for scanning user rows (supports both single row and multiple rows)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanUserRow populates a User model from a database row
func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User

	err := scanner.Scan(
		&user.ID, &user.Username, &user.Salt, &user.PasswordHash,
		&user.Permissions, &user.IndexNames, &user.AccountStatus,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &user, nil
}

// scanUserRows iterates through rows and scans each into User models
func scanUserRows(rows pgx.Rows) ([]*models.User, error) {
	defer rows.Close()

	users := make([]*models.User, 0)

	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

const userColumns = `id, username, salt, password_hash, permissions, index_names, account_status, created_at, updated_at`

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	user, err := scanUserRow(r.pool.QueryRow(ctx, query, username))
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY username ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}

	return scanUserRows(rows)
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = uuid.New().String()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if user.AccountStatus == "" {
		user.AccountStatus = models.StatusActive
	}
	if user.Permissions == nil {
		user.Permissions = []string{}
	}
	if user.IndexNames == nil {
		user.IndexNames = []string{}
	}

	query := `
		INSERT INTO users (id, username, salt, password_hash, permissions, index_names, account_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + userColumns

	createdUser, err := scanUserRow(r.pool.QueryRow(ctx, query,
		user.ID, user.Username, user.Salt, user.PasswordHash,
		user.Permissions, user.IndexNames, user.AccountStatus,
		user.CreatedAt, user.UpdatedAt,
	))
	if err != nil {
		return nil, err
	}

	return createdUser, nil
}

func (r *UserRepository) Update(ctx context.Context, username string, user *models.User) (*models.User, error) {
	user.UpdatedAt = time.Now()

	query := `
		UPDATE users SET permissions = $1, index_names = $2, account_status = $3, updated_at = $4
		WHERE username = $5
		RETURNING ` + userColumns

	updatedUser, err := scanUserRow(r.pool.QueryRow(ctx, query,
		user.Permissions, user.IndexNames, user.AccountStatus, user.UpdatedAt, username,
	))
	if err != nil {
		return nil, err
	}

	return updatedUser, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, username, passwordHash string, cost int) error {
	query := `UPDATE users SET password_hash = $1, salt = $2, updated_at = $3 WHERE username = $4`

	result, err := r.pool.Exec(ctx, query, passwordHash, cost, time.Now(), username)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *UserRepository) SetAccountStatus(ctx context.Context, username, status string) error {
	query := `UPDATE users SET account_status = $1, updated_at = $2 WHERE username = $3`

	result, err := r.pool.Exec(ctx, query, status, time.Now(), username)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *UserRepository) Delete(ctx context.Context, username string) error {
	query := `DELETE FROM users WHERE username = $1`

	result, err := r.pool.Exec(ctx, query, username)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
