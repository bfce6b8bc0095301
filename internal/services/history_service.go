package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/acegraph/graphrag-portal/internal/models"
	"github.com/acegraph/graphrag-portal/internal/storage/blob"
)

// BlobStore defines the object-store operations the history and prompt
// services need.
type BlobStore interface {
	Upload(ctx context.Context, bucket, key string, data []byte, metadata map[string]string) error
	Download(ctx context.Context, bucket, key string) ([]byte, error)
	Delete(ctx context.Context, bucket, key string) error
	List(ctx context.Context, bucket, prefix string) ([]blob.ObjectMeta, error)
}

// HistoryKey builds the blob name for a session's history.
func HistoryKey(username, sessionID string) string {
	return username + "__" + sessionID
}

// HistoryPrefix is the listing prefix covering all of a user's sessions.
func HistoryPrefix(username string) string {
	return username + "__"
}

// HistoryService persists per-session query histories as single blobs with
// a sanitized metadata header.
type HistoryService struct {
	store  BlobStore
	bucket string
	logger *slog.Logger
}

func NewHistoryService(store BlobStore, bucket string, logger *slog.Logger) *HistoryService {
	return &HistoryService{
		store:  store,
		bucket: bucket,
		logger: logger,
	}
}

// SaveQueryHistories overwrites the session blob with the full record list
// and attaches metadata derived from the most recent record.
func (s *HistoryService) SaveQueryHistories(ctx context.Context, key string, records []models.QueryRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to serialize query history: %w", err)
	}

	var metadata map[string]string
	if len(records) > 0 {
		metadata = historyMetadata(records[len(records)-1])
	}

	if err := s.store.Upload(ctx, s.bucket, key, data, metadata); err != nil {
		return fmt.Errorf("failed to save query history: %w", err)
	}
	return nil
}

// LoadQueryHistories reads the session blob back. Any failure, download or
// parse, degrades to an empty list with a logged message.
func (s *HistoryService) LoadQueryHistories(ctx context.Context, key string) []models.QueryRecord {
	data, err := s.store.Download(ctx, s.bucket, key)
	if err != nil {
		s.logger.Info("no query history loaded",
			slog.String("key", key),
			slog.Any("error", err))
		return []models.QueryRecord{}
	}

	var records []models.QueryRecord
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.Warn("failed to parse query history blob",
			slog.String("key", key),
			slog.Any("error", err))
		return []models.QueryRecord{}
	}
	if records == nil {
		return []models.QueryRecord{}
	}
	return records
}

// FetchHistoriesMetadata lists all session blobs under the user's prefix and
// returns their metadata headers without downloading bodies.
func (s *HistoryService) FetchHistoriesMetadata(ctx context.Context, username string) ([]models.HistoryMetadata, error) {
	objects, err := s.store.List(ctx, s.bucket, HistoryPrefix(username))
	if err != nil {
		return nil, fmt.Errorf("failed to list query histories: %w", err)
	}

	metas := make([]models.HistoryMetadata, 0, len(objects))
	for _, obj := range objects {
		metas = append(metas, models.HistoryMetadata{
			Name:          obj.Key,
			LastQueryTime: obj.Metadata[models.MetaLastQueryTime],
			LastQuery:     obj.Metadata[models.MetaLastQuery],
			LastIndexes:   obj.Metadata[models.MetaLastIndexes],
			LastQueryType: obj.Metadata[models.MetaLastQueryType],
			LastAnswer:    obj.Metadata[models.MetaLastAnswer],
		})
	}
	return metas, nil
}

// DeleteUserHistories removes every session blob under the user's prefix.
// Called when the account itself is deleted.
func (s *HistoryService) DeleteUserHistories(ctx context.Context, username string) error {
	objects, err := s.store.List(ctx, s.bucket, HistoryPrefix(username))
	if err != nil {
		return fmt.Errorf("failed to list query histories: %w", err)
	}

	for _, obj := range objects {
		if err := s.store.Delete(ctx, s.bucket, obj.Key); err != nil {
			return fmt.Errorf("failed to delete query history %s: %w", obj.Key, err)
		}
	}
	return nil
}

func historyMetadata(last models.QueryRecord) map[string]string {
	return map[string]string{
		models.MetaLastQueryTime: last.AskedAt.Format("2006-01-02 15:04:05"),
		models.MetaLastQuery:     sanitizeMetadataValue(truncateText(last.Query, 200)),
		models.MetaLastIndexes:   sanitizeMetadataValue(strings.Join(last.IndexNames, ", ")),
		models.MetaLastQueryType: sanitizeMetadataValue(last.QueryType),
		models.MetaLastAnswer:    sanitizeMetadataValue(truncateText(last.Content, 200)),
	}
}

const maxMetadataValueLen = 1024

// sanitizeMetadataValue makes a string safe for the blob metadata side
// channel: trimmed, internal whitespace collapsed, non-ASCII stripped and
// hard-capped at 1024 bytes. Applying it twice changes nothing.
func sanitizeMetadataValue(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r > 127 {
			continue
		}
		b.WriteRune(r)
	}

	cleaned := strings.Join(strings.Fields(b.String()), " ")

	if len(cleaned) > maxMetadataValueLen {
		cleaned = cleaned[:maxMetadataValueLen]
		cleaned = strings.TrimRight(cleaned, " ")
	}
	return cleaned
}

// truncateText caps s at maxLen characters, appending "..." when it was cut.
// Counting runes, not bytes, so a multi-byte character is never split.
func truncateText(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
