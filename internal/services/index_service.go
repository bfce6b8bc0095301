package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/acegraph/graphrag-portal/internal/graphrag"
	"github.com/acegraph/graphrag-portal/internal/models"
)

// GraphRAGIndexer is the slice of the GraphRAG API the indexing path uses.
type GraphRAGIndexer interface {
	GetIndexNames(ctx context.Context) ([]string, error)
	GetStorageContainerNames(ctx context.Context) ([]string, error)
	BuildIndex(ctx context.Context, storageName, indexName string) error
	GetIndexStatus(ctx context.Context, indexName string) (*graphrag.IndexStatus, error)
}

// ContainerStore is the registry of known containers: it resolves
// human-readable names to sanitized store names and lists entries by type.
type ContainerStore interface {
	ListNamesByType(ctx context.Context, containerType string) ([]string, error)
	GetSanitizedName(ctx context.Context, humanReadableName, containerType string) (string, error)
	Create(ctx context.Context, entry *models.ContainerEntry) error
}

// IndexService wraps index listing, build scheduling and status checks.
type IndexService struct {
	api        GraphRAGIndexer
	containers ContainerStore
	logger     *slog.Logger
}

func NewIndexService(api GraphRAGIndexer, containers ContainerStore, logger *slog.Logger) *IndexService {
	return &IndexService{
		api:        api,
		containers: containers,
		logger:     logger,
	}
}

// ListAvailableIndexes returns the index names registered in the container
// store, for assigning grants to users.
func (s *IndexService) ListAvailableIndexes(ctx context.Context) ([]string, error) {
	names, err := s.containers.ListNamesByType(ctx, models.ContainerTypeIndex)
	if err != nil {
		s.logger.Error("failed to list registered indexes", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list registered indexes: %w", err)
	}
	return names, nil
}

// ListQueryableIndexes returns the engine's index names narrowed to the
// session's grants, for the query picker.
func (s *IndexService) ListQueryableIndexes(ctx context.Context, session *models.SessionClaims) ([]string, error) {
	names, err := s.api.GetIndexNames(ctx)
	if err != nil {
		s.logger.Error("failed to list indexes", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list indexes: %w", err)
	}

	allowed := make([]string, 0, len(names))
	for _, name := range names {
		if session.CanQueryIndex(name) {
			allowed = append(allowed, name)
		}
	}
	return allowed, nil
}

// ListStorageContainers returns the data containers available as indexing
// sources.
func (s *IndexService) ListStorageContainers(ctx context.Context) ([]string, error) {
	names, err := s.api.GetStorageContainerNames(ctx)
	if err != nil {
		s.logger.Error("failed to list storage containers", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list storage containers: %w", err)
	}
	return names, nil
}

// BuildIndex schedules a build. The storage name passed in is the
// human-readable one; it resolves through the container store when mapped.
func (s *IndexService) BuildIndex(ctx context.Context, storageName, indexName string) error {
	if storageName == "" || indexName == "" {
		return fmt.Errorf("%w: storage and index names are required", models.ErrBadRequest)
	}

	resolved, err := s.containers.GetSanitizedName(ctx, storageName, models.ContainerTypeData)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("failed to resolve storage container", slog.Any("error", err))
			return models.ErrInternalServer
		}
		resolved = storageName
	}

	if err := s.api.BuildIndex(ctx, resolved, indexName); err != nil {
		s.logger.Error("failed to schedule index build",
			slog.String("index", indexName),
			slog.Any("error", err))
		return fmt.Errorf("failed to schedule index build: %w", err)
	}

	s.registerIndex(ctx, indexName)
	return nil
}

// registerIndex records a scheduled index in the container store so it shows
// up in the admin assignment list. Rebuilds of a known index are skipped; a
// failed registration is logged, the build is already under way.
func (s *IndexService) registerIndex(ctx context.Context, indexName string) {
	_, err := s.containers.GetSanitizedName(ctx, indexName, models.ContainerTypeIndex)
	if err == nil {
		return
	}
	if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check index registration",
			slog.String("index", indexName),
			slog.Any("error", err))
		return
	}

	entry := &models.ContainerEntry{
		Name:              indexName,
		Type:              models.ContainerTypeIndex,
		HumanReadableName: indexName,
	}
	if err := s.containers.Create(ctx, entry); err != nil {
		s.logger.Error("failed to register index",
			slog.String("index", indexName),
			slog.Any("error", err))
	}
}

// GetIndexStatus reports build progress for an index.
func (s *IndexService) GetIndexStatus(ctx context.Context, indexName string) (*graphrag.IndexStatus, error) {
	status, err := s.api.GetIndexStatus(ctx, indexName)
	if err != nil {
		var apiErr *graphrag.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == 404 {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get index status",
			slog.String("index", indexName),
			slog.Any("error", err))
		return nil, fmt.Errorf("failed to get index status: %w", err)
	}
	return status, nil
}
