package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/acegraph/graphrag-portal/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveHistoryRoute(handler *HistoryHandler, path string, claims *models.SessionClaims) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Get("/history", handler.List)
	r.Get("/history/{name}", handler.Get)

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if claims != nil {
		req = withSession(req, claims)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHistoryList(t *testing.T) {
	svc := &MockHistoryService{
		FetchHistoriesMetadataFunc: func(_ context.Context, username string) ([]models.HistoryMetadata, error) {
			assert.Equal(t, "alice", username)
			return []models.HistoryMetadata{
				{Name: "alice__s1", LastQuery: "what is graphrag", LastQueryType: "Global"},
			}, nil
		},
	}
	handler := NewHistoryHandler(svc)

	rec := serveHistoryRoute(handler, "/history", querySession())

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alice__s1")
	assert.Contains(t, rec.Body.String(), "what is graphrag")
}

func TestHistoryGet_OwnBlob(t *testing.T) {
	svc := &MockHistoryService{
		LoadQueryHistoriesFunc: func(_ context.Context, key string) []models.QueryRecord {
			assert.Equal(t, "alice__s1", key)
			return []models.QueryRecord{{Query: "what is graphrag", Content: "an approach"}}
		},
	}
	handler := NewHistoryHandler(svc)

	rec := serveHistoryRoute(handler, "/history/alice__s1", querySession())

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "an approach")
}

func TestHistoryGet_ForeignBlobForbidden(t *testing.T) {
	handler := NewHistoryHandler(&MockHistoryService{})

	rec := serveHistoryRoute(handler, "/history/bob__s1", querySession())

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHistory_NoSession(t *testing.T) {
	handler := NewHistoryHandler(&MockHistoryService{})

	rec := serveHistoryRoute(handler, "/history", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
