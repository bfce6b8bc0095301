package services

import (
	"context"
	"testing"

	"github.com/acegraph/graphrag-portal/internal/graphrag"
	"github.com/acegraph/graphrag-portal/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockIndexerAPI struct {
	GetIndexNamesFunc            func(ctx context.Context) ([]string, error)
	GetStorageContainerNamesFunc func(ctx context.Context) ([]string, error)
	BuildIndexFunc               func(ctx context.Context, storageName, indexName string) error
	GetIndexStatusFunc           func(ctx context.Context, indexName string) (*graphrag.IndexStatus, error)
}

func (m *mockIndexerAPI) GetIndexNames(ctx context.Context) ([]string, error) {
	if m.GetIndexNamesFunc != nil {
		return m.GetIndexNamesFunc(ctx)
	}
	return []string{}, nil
}

func (m *mockIndexerAPI) GetStorageContainerNames(ctx context.Context) ([]string, error) {
	if m.GetStorageContainerNamesFunc != nil {
		return m.GetStorageContainerNamesFunc(ctx)
	}
	return []string{}, nil
}

func (m *mockIndexerAPI) BuildIndex(ctx context.Context, storageName, indexName string) error {
	if m.BuildIndexFunc != nil {
		return m.BuildIndexFunc(ctx, storageName, indexName)
	}
	return nil
}

func (m *mockIndexerAPI) GetIndexStatus(ctx context.Context, indexName string) (*graphrag.IndexStatus, error) {
	if m.GetIndexStatusFunc != nil {
		return m.GetIndexStatusFunc(ctx, indexName)
	}
	return nil, models.ErrNotFound
}

type mockContainerStore struct {
	ListNamesByTypeFunc  func(ctx context.Context, containerType string) ([]string, error)
	GetSanitizedNameFunc func(ctx context.Context, humanReadableName, containerType string) (string, error)
	CreateFunc           func(ctx context.Context, entry *models.ContainerEntry) error
}

func (m *mockContainerStore) ListNamesByType(ctx context.Context, containerType string) ([]string, error) {
	if m.ListNamesByTypeFunc != nil {
		return m.ListNamesByTypeFunc(ctx, containerType)
	}
	return []string{}, nil
}

func (m *mockContainerStore) GetSanitizedName(ctx context.Context, humanReadableName, containerType string) (string, error) {
	if m.GetSanitizedNameFunc != nil {
		return m.GetSanitizedNameFunc(ctx, humanReadableName, containerType)
	}
	return "", models.ErrNotFound
}

func (m *mockContainerStore) Create(ctx context.Context, entry *models.ContainerEntry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, entry)
	}
	return nil
}

func newIndexService(api GraphRAGIndexer, containers ContainerStore) *IndexService {
	return NewIndexService(api, containers, discardLogger())
}

func TestListAvailableIndexes_ReadsContainerStore(t *testing.T) {
	api := &mockIndexerAPI{
		GetIndexNamesFunc: func(_ context.Context) ([]string, error) {
			t.Fatal("assignment list must not come from the engine")
			return nil, nil
		},
	}
	containers := &mockContainerStore{
		ListNamesByTypeFunc: func(_ context.Context, containerType string) ([]string, error) {
			assert.Equal(t, models.ContainerTypeIndex, containerType)
			return []string{"Contracts Graph", "Wiki Movies"}, nil
		},
	}
	svc := newIndexService(api, containers)

	names, err := svc.ListAvailableIndexes(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"Contracts Graph", "Wiki Movies"}, names)
}

func TestListQueryableIndexes_FiltersToGrants(t *testing.T) {
	api := &mockIndexerAPI{
		GetIndexNamesFunc: func(_ context.Context) ([]string, error) {
			return []string{"wiki-movies", "contracts", "restricted"}, nil
		},
	}
	svc := newIndexService(api, &mockContainerStore{})
	session := &models.SessionClaims{
		Username:   "alice",
		IndexNames: []string{"contracts", "wiki-movies"},
	}

	names, err := svc.ListQueryableIndexes(context.Background(), session)

	require.NoError(t, err)
	assert.Equal(t, []string{"wiki-movies", "contracts"}, names)
}

func TestListStorageContainers_FromAPI(t *testing.T) {
	api := &mockIndexerAPI{
		GetStorageContainerNamesFunc: func(_ context.Context) ([]string, error) {
			return []string{"raw-docs"}, nil
		},
	}
	svc := newIndexService(api, &mockContainerStore{})

	names, err := svc.ListStorageContainers(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"raw-docs"}, names)
}

func TestBuildIndex_ResolvesStorageName(t *testing.T) {
	var builtStorage string
	api := &mockIndexerAPI{
		BuildIndexFunc: func(_ context.Context, storageName, _ string) error {
			builtStorage = storageName
			return nil
		},
	}
	containers := &mockContainerStore{
		GetSanitizedNameFunc: func(_ context.Context, name, containerType string) (string, error) {
			if containerType == models.ContainerTypeData && name == "Raw Documents" {
				return "sanitized-raw-docs", nil
			}
			return "", models.ErrNotFound
		},
	}
	svc := newIndexService(api, containers)

	require.NoError(t, svc.BuildIndex(context.Background(), "Raw Documents", "contracts"))
	assert.Equal(t, "sanitized-raw-docs", builtStorage)
}

func TestBuildIndex_UnmappedStorageNamePassesThrough(t *testing.T) {
	var builtStorage string
	api := &mockIndexerAPI{
		BuildIndexFunc: func(_ context.Context, storageName, _ string) error {
			builtStorage = storageName
			return nil
		},
	}
	svc := newIndexService(api, &mockContainerStore{})

	require.NoError(t, svc.BuildIndex(context.Background(), "adhoc-container", "contracts"))
	assert.Equal(t, "adhoc-container", builtStorage)
}

func TestBuildIndex_RegistersNewIndex(t *testing.T) {
	var registered *models.ContainerEntry
	containers := &mockContainerStore{
		CreateFunc: func(_ context.Context, entry *models.ContainerEntry) error {
			registered = entry
			return nil
		},
	}
	svc := newIndexService(&mockIndexerAPI{}, containers)

	require.NoError(t, svc.BuildIndex(context.Background(), "raw-docs", "contracts"))

	require.NotNil(t, registered)
	assert.Equal(t, models.ContainerTypeIndex, registered.Type)
	assert.Equal(t, "contracts", registered.HumanReadableName)
}

func TestBuildIndex_RebuildSkipsRegistration(t *testing.T) {
	containers := &mockContainerStore{
		GetSanitizedNameFunc: func(_ context.Context, name, containerType string) (string, error) {
			if containerType == models.ContainerTypeIndex && name == "contracts" {
				return "contracts", nil
			}
			return "", models.ErrNotFound
		},
		CreateFunc: func(_ context.Context, _ *models.ContainerEntry) error {
			t.Fatal("a registered index must not be re-registered")
			return nil
		},
	}
	svc := newIndexService(&mockIndexerAPI{}, containers)

	require.NoError(t, svc.BuildIndex(context.Background(), "raw-docs", "contracts"))
}

func TestBuildIndex_MissingNames(t *testing.T) {
	svc := newIndexService(&mockIndexerAPI{}, &mockContainerStore{})

	assert.ErrorIs(t, svc.BuildIndex(context.Background(), "", "contracts"), models.ErrBadRequest)
	assert.ErrorIs(t, svc.BuildIndex(context.Background(), "raw-docs", ""), models.ErrBadRequest)
}

func TestGetIndexStatus_NotFound(t *testing.T) {
	api := &mockIndexerAPI{
		GetIndexStatusFunc: func(_ context.Context, _ string) (*graphrag.IndexStatus, error) {
			return nil, &graphrag.APIError{StatusCode: 404, Body: "not found"}
		},
	}
	svc := newIndexService(api, &mockContainerStore{})

	_, err := svc.GetIndexStatus(context.Background(), "ghost")

	assert.ErrorIs(t, err, models.ErrNotFound)
}
