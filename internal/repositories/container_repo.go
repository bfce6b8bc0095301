package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/acegraph/graphrag-portal/internal/database"
	"github.com/acegraph/graphrag-portal/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ContainerRepository reads the container_store table, which maps sanitized
// container names to the human-readable names shown in the UI.
type ContainerRepository struct {
	pool *pgxpool.Pool
}

func NewContainerRepository(db *database.DB) *ContainerRepository {
	return &ContainerRepository{pool: db.Pool}
}

func (r *ContainerRepository) ListNamesByType(ctx context.Context, containerType string) ([]string, error) {
	query := `SELECT human_readable_name FROM container_store WHERE type = $1 ORDER BY human_readable_name ASC`

	rows, err := r.pool.Query(ctx, query, containerType)
	if err != nil {
		return nil, fmt.Errorf("failed to query container store: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, database.MapPostgresError(err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return names, nil
}

func (r *ContainerRepository) GetSanitizedName(ctx context.Context, humanReadableName, containerType string) (string, error) {
	query := `SELECT name FROM container_store WHERE human_readable_name = $1 AND type = $2`

	var name string
	if err := r.pool.QueryRow(ctx, query, humanReadableName, containerType).Scan(&name); err != nil {
		return "", database.MapPostgresError(err)
	}

	return name, nil
}

func (r *ContainerRepository) Create(ctx context.Context, entry *models.ContainerEntry) error {
	entry.ID = uuid.New().String()
	entry.CreatedAt = time.Now()

	query := `
		INSERT INTO container_store (id, name, type, human_readable_name, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	if _, err := r.pool.Exec(ctx, query, entry.ID, entry.Name, entry.Type, entry.HumanReadableName, entry.CreatedAt); err != nil {
		return database.MapPostgresError(err)
	}

	return nil
}
