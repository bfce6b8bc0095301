package services

import (
	"context"
	"strings"

	"github.com/acegraph/graphrag-portal/internal/models"
	"github.com/acegraph/graphrag-portal/internal/storage/blob"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByUsernameFunc    func(ctx context.Context, username string) (*models.User, error)
	ListFunc             func(ctx context.Context) ([]*models.User, error)
	CreateFunc           func(ctx context.Context, user *models.User) (*models.User, error)
	UpdateFunc           func(ctx context.Context, username string, user *models.User) (*models.User, error)
	UpdatePasswordFunc   func(ctx context.Context, username, passwordHash string, cost int) error
	SetAccountStatusFunc func(ctx context.Context, username, status string) error
	DeleteFunc           func(ctx context.Context, username string) error
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) List(ctx context.Context) ([]*models.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []*models.User{}, nil
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) Update(ctx context.Context, username string, user *models.User) (*models.User, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, username, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, username, passwordHash string, cost int) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, username, passwordHash, cost)
	}
	return nil
}

func (m *MockUserRepository) SetAccountStatus(ctx context.Context, username, status string) error {
	if m.SetAccountStatusFunc != nil {
		return m.SetAccountStatusFunc(ctx, username, status)
	}
	return nil
}

func (m *MockUserRepository) Delete(ctx context.Context, username string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, username)
	}
	return nil
}

// MockBlobStore implements BlobStore for testing
type MockBlobStore struct {
	UploadFunc   func(ctx context.Context, bucket, key string, data []byte, metadata map[string]string) error
	DownloadFunc func(ctx context.Context, bucket, key string) ([]byte, error)
	DeleteFunc   func(ctx context.Context, bucket, key string) error
	ListFunc     func(ctx context.Context, bucket, prefix string) ([]blob.ObjectMeta, error)
}

func (m *MockBlobStore) Upload(ctx context.Context, bucket, key string, data []byte, metadata map[string]string) error {
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, bucket, key, data, metadata)
	}
	return nil
}

func (m *MockBlobStore) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	if m.DownloadFunc != nil {
		return m.DownloadFunc(ctx, bucket, key)
	}
	return nil, models.ErrNotFound
}

func (m *MockBlobStore) Delete(ctx context.Context, bucket, key string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, bucket, key)
	}
	return nil
}

func (m *MockBlobStore) List(ctx context.Context, bucket, prefix string) ([]blob.ObjectMeta, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, bucket, prefix)
	}
	return []blob.ObjectMeta{}, nil
}

// InMemoryBlobStore is a map-backed BlobStore for round-trip tests.
type InMemoryBlobStore struct {
	Objects  map[string][]byte
	Metadata map[string]map[string]string
}

func NewInMemoryBlobStore() *InMemoryBlobStore {
	return &InMemoryBlobStore{
		Objects:  make(map[string][]byte),
		Metadata: make(map[string]map[string]string),
	}
}

func (s *InMemoryBlobStore) Upload(_ context.Context, bucket, key string, data []byte, metadata map[string]string) error {
	s.Objects[bucket+"/"+key] = data
	s.Metadata[bucket+"/"+key] = metadata
	return nil
}

func (s *InMemoryBlobStore) Download(_ context.Context, bucket, key string) ([]byte, error) {
	data, ok := s.Objects[bucket+"/"+key]
	if !ok {
		return nil, models.ErrNotFound
	}
	return data, nil
}

func (s *InMemoryBlobStore) Delete(_ context.Context, bucket, key string) error {
	if _, ok := s.Objects[bucket+"/"+key]; !ok {
		return models.ErrNotFound
	}
	delete(s.Objects, bucket+"/"+key)
	delete(s.Metadata, bucket+"/"+key)
	return nil
}

func (s *InMemoryBlobStore) List(_ context.Context, bucket, prefix string) ([]blob.ObjectMeta, error) {
	objects := make([]blob.ObjectMeta, 0)
	for fullKey := range s.Objects {
		key, found := strings.CutPrefix(fullKey, bucket+"/")
		if !found || !strings.HasPrefix(key, prefix) {
			continue
		}
		objects = append(objects, blob.ObjectMeta{Key: key, Metadata: s.Metadata[fullKey]})
	}
	return objects, nil
}
