package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/acegraph/graphrag-portal/internal/graphrag"
	"github.com/acegraph/graphrag-portal/internal/models"
	"github.com/acegraph/graphrag-portal/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSearcher struct {
	resp       *graphrag.SearchResponse
	err        error
	gotType    string
	gotIndexes []string
	gotQuery   string
}

func (m *mockSearcher) Search(_ context.Context, queryType string, indexNames []string, query string) (*graphrag.SearchResponse, error) {
	m.gotType = queryType
	m.gotIndexes = indexNames
	m.gotQuery = query
	return m.resp, m.err
}

func querySession() *models.SessionClaims {
	return &models.SessionClaims{
		Username:    "alice",
		SessionID:   "s1",
		Permissions: []string{models.PermissionQuery},
		IndexNames:  []string{"wiki", "contracts"},
	}
}

func newQueryService(api GraphRAGSearcher, store BlobStore) *QueryService {
	return NewQueryService(api, newHistoryService(store), discardLogger())
}

func TestExecuteQuery_TooShort(t *testing.T) {
	svc := newQueryService(&mockSearcher{}, NewInMemoryBlobStore())

	_, err := svc.ExecuteQuery(context.Background(), querySession(), "Global", []string{"wiki"}, "short")

	assert.ErrorIs(t, err, models.ErrQueryTooShort)
}

func TestExecuteQuery_UnknownQueryType(t *testing.T) {
	svc := newQueryService(&mockSearcher{}, NewInMemoryBlobStore())

	_, err := svc.ExecuteQuery(context.Background(), querySession(), "Drift", []string{"wiki"}, "a long enough query")

	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestExecuteQuery_IndexNotGranted(t *testing.T) {
	svc := newQueryService(&mockSearcher{}, NewInMemoryBlobStore())

	_, err := svc.ExecuteQuery(context.Background(), querySession(), "Global", []string{"classified"}, "a long enough query")

	assert.ErrorIs(t, err, models.ErrIndexNotAllowed)
}

func TestExecuteQuery_NoIndexes(t *testing.T) {
	svc := newQueryService(&mockSearcher{}, NewInMemoryBlobStore())

	_, err := svc.ExecuteQuery(context.Background(), querySession(), "Global", nil, "a long enough query")

	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestExecuteQuery_AppendsToHistory(t *testing.T) {
	store := NewInMemoryBlobStore()
	api := &mockSearcher{resp: &graphrag.SearchResponse{Result: "the answer"}}
	svc := newQueryService(api, store)
	ctx := context.Background()

	first, err := svc.ExecuteQuery(ctx, querySession(), "Global", []string{"wiki"}, "what is in the wiki")
	require.NoError(t, err)
	assert.Equal(t, 1, first.HistorySize)

	second, err := svc.ExecuteQuery(ctx, querySession(), "Local", []string{"contracts"}, "what is in the contracts")
	require.NoError(t, err)
	assert.Equal(t, 2, second.HistorySize)

	records := newHistoryService(store).LoadQueryHistories(ctx, "alice__s1")
	require.Len(t, records, 2)
	assert.Equal(t, "what is in the wiki", records[0].Query)
	assert.Equal(t, "the answer", records[0].Content)
}

func TestExecuteQuery_SearchFailure(t *testing.T) {
	api := &mockSearcher{err: errors.New("upstream down")}
	svc := newQueryService(api, NewInMemoryBlobStore())

	_, err := svc.ExecuteQuery(context.Background(), querySession(), "Global", []string{"wiki"}, "a long enough query")

	assert.Error(t, err)
}

func TestExecuteQuery_RendersRecordAnswer(t *testing.T) {
	api := &mockSearcher{resp: &graphrag.SearchResponse{Result: `[{"title": "Acme", "rank": 1}]`}}
	svc := newQueryService(api, NewInMemoryBlobStore())

	result, err := svc.ExecuteQuery(context.Background(), querySession(), "Global", []string{"wiki"}, "a long enough query")

	require.NoError(t, err)
	assert.Equal(t, render.SegmentRecords, result.Segment.Type)
	assert.Contains(t, result.Segment.Lines, "### Acme")
}

func TestExecuteQuery_ContextDataSections(t *testing.T) {
	contextData := json.RawMessage(`{"reports": [{"id": "r1"}], "entities": [{"id": "e1"}], "relationships": [{"id": "x1"}]}`)
	api := &mockSearcher{resp: &graphrag.SearchResponse{Result: "answer text", ContextData: contextData}}
	svc := newQueryService(api, NewInMemoryBlobStore())

	result, err := svc.ExecuteQuery(context.Background(), querySession(), "Global", []string{"wiki"}, "a long enough query")

	require.NoError(t, err)
	assert.JSONEq(t, `[{"id": "r1"}]`, result.Record.Reports)
	assert.JSONEq(t, `[{"id": "e1"}]`, result.Record.Entities)
	assert.JSONEq(t, `[{"id": "x1"}]`, result.Record.Relationship)
}

func TestExecuteQuery_StreamingTypeAccepted(t *testing.T) {
	api := &mockSearcher{resp: &graphrag.SearchResponse{Result: "streamed"}}
	svc := newQueryService(api, NewInMemoryBlobStore())

	_, err := svc.ExecuteQuery(context.Background(), querySession(), "Global Streaming", []string{"wiki"}, "a long enough query")

	require.NoError(t, err)
	assert.Equal(t, "Global Streaming", api.gotType)
}
