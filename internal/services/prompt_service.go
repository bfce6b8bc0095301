package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/acegraph/graphrag-portal/internal/models"
)

// PromptGenerator is the slice of the GraphRAG API the prompt path uses.
type PromptGenerator interface {
	GeneratePrompts(ctx context.Context, storageName string, limit int) (map[string]string, error)
}

// PromptService generates prompt templates from sample documents and keeps
// edited copies in blob storage, one blob per user.
type PromptService struct {
	api    PromptGenerator
	store  BlobStore
	bucket string
	logger *slog.Logger
}

func NewPromptService(api PromptGenerator, store BlobStore, bucket string, logger *slog.Logger) *PromptService {
	return &PromptService{
		api:    api,
		store:  store,
		bucket: bucket,
		logger: logger,
	}
}

// GeneratePrompts asks the engine for auto-generated prompt templates.
// Generation over a large sample can fail upstream, so each failure retries
// with half the sample size, down to a single document.
func (s *PromptService) GeneratePrompts(ctx context.Context, storageName string, limit int) (map[string]string, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: sample limit must be at least 1", models.ErrBadRequest)
	}

	var lastErr error
	for limit >= 1 {
		prompts, err := s.api.GeneratePrompts(ctx, storageName, limit)
		if err == nil {
			return prompts, nil
		}
		lastErr = err

		s.logger.Warn("prompt generation failed, retrying with smaller sample",
			slog.String("storage", storageName),
			slog.Int("limit", limit),
			slog.Any("error", err))

		if limit == 1 {
			break
		}
		limit /= 2
	}

	return nil, fmt.Errorf("prompt generation failed: %w", lastErr)
}

// SavePrompts stores a user's edited prompt templates, overwriting any
// previous copy.
func (s *PromptService) SavePrompts(ctx context.Context, username string, prompts map[string]string) error {
	data, err := json.Marshal(prompts)
	if err != nil {
		return fmt.Errorf("failed to serialize prompts: %w", err)
	}

	if err := s.store.Upload(ctx, s.bucket, promptKey(username), data, nil); err != nil {
		return fmt.Errorf("failed to save prompts: %w", err)
	}
	return nil
}

// LoadPrompts reads a user's saved prompt templates. A missing blob returns
// an empty map.
func (s *PromptService) LoadPrompts(ctx context.Context, username string) (map[string]string, error) {
	data, err := s.store.Download(ctx, s.bucket, promptKey(username))
	if err != nil {
		s.logger.Info("no saved prompts loaded",
			slog.String("username", username),
			slog.Any("error", err))
		return map[string]string{}, nil
	}

	var prompts map[string]string
	if err := json.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("failed to parse saved prompts: %w", err)
	}
	if prompts == nil {
		prompts = map[string]string{}
	}
	return prompts, nil
}

func promptKey(username string) string {
	return username + "__prompts"
}
