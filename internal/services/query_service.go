package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/acegraph/graphrag-portal/internal/graphrag"
	"github.com/acegraph/graphrag-portal/internal/models"
	"github.com/acegraph/graphrag-portal/internal/render"
)

// GraphRAGSearcher is the slice of the GraphRAG API the query path uses.
type GraphRAGSearcher interface {
	Search(ctx context.Context, queryType string, indexNames []string, query string) (*graphrag.SearchResponse, error)
}

const minQueryLength = 6

// QueryResult is the answer to a query plus its display segment and the
// updated history length.
type QueryResult struct {
	Answer      string             `json:"answer"`
	Segment     render.Segment     `json:"segment"`
	Record      models.QueryRecord `json:"record"`
	HistorySize int                `json:"history_size"`
}

// QueryService runs queries against the engine and appends them to the
// caller's session history.
type QueryService struct {
	api     GraphRAGSearcher
	history *HistoryService
	logger  *slog.Logger
	now     func() time.Time
}

func NewQueryService(api GraphRAGSearcher, history *HistoryService, logger *slog.Logger) *QueryService {
	return &QueryService{
		api:     api,
		history: history,
		logger:  logger,
		now:     time.Now,
	}
}

// ExecuteQuery validates the request against the session's grants, forwards
// it to the engine, persists the appended history blob and returns the
// rendered answer.
func (s *QueryService) ExecuteQuery(ctx context.Context, session *models.SessionClaims, queryType string, indexNames []string, query string) (*QueryResult, error) {
	if len(query) < minQueryLength {
		return nil, models.ErrQueryTooShort
	}
	if !graphrag.IsValidQueryType(queryType) {
		return nil, fmt.Errorf("%w: unknown query type %q", models.ErrBadRequest, queryType)
	}
	if len(indexNames) == 0 {
		return nil, fmt.Errorf("%w: at least one index is required", models.ErrBadRequest)
	}
	for _, name := range indexNames {
		if !session.CanQueryIndex(name) {
			return nil, models.ErrIndexNotAllowed
		}
	}

	resp, err := s.api.Search(ctx, queryType, indexNames, query)
	if err != nil {
		s.logger.Error("graphrag search failed", slog.Any("error", err))
		return nil, fmt.Errorf("search failed: %w", err)
	}

	record := models.QueryRecord{
		Query:      query,
		QueryType:  queryType,
		IndexNames: indexNames,
		Content:    resp.Result,
		AskedAt:    s.now(),
	}
	fillContextData(&record, resp.ContextData)

	key := HistoryKey(session.Username, session.SessionID)
	records := s.history.LoadQueryHistories(ctx, key)
	records = append(records, record)

	if err := s.history.SaveQueryHistories(ctx, key, records); err != nil {
		// The answer is still usable; history loss is logged, not fatal.
		s.logger.Error("failed to persist query history",
			slog.String("key", key),
			slog.Any("error", err))
	}

	return &QueryResult{
		Answer:      resp.Result,
		Segment:     render.Format(resp.Result),
		Record:      record,
		HistorySize: len(records),
	}, nil
}

// fillContextData splits the engine's context payload into the record's
// reports/entities/relationships sections.
func fillContextData(record *models.QueryRecord, contextData json.RawMessage) {
	if len(contextData) == 0 {
		return
	}

	record.Context = string(contextData)

	var sections map[string]json.RawMessage
	if err := json.Unmarshal(contextData, &sections); err != nil {
		return
	}
	if v, ok := sections["reports"]; ok {
		record.Reports = string(v)
	}
	if v, ok := sections["entities"]; ok {
		record.Entities = string(v)
	}
	if v, ok := sections["relationships"]; ok {
		record.Relationship = string(v)
	}
}
