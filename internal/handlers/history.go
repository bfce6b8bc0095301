package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/acegraph/graphrag-portal/internal/auth"
	"github.com/acegraph/graphrag-portal/internal/models"
	"github.com/acegraph/graphrag-portal/internal/services"
	pkghttp "github.com/acegraph/graphrag-portal/pkg/http"
	"github.com/go-chi/chi/v5"
)

// HistoryServiceInterface defines the interface for history persistence
type HistoryServiceInterface interface {
	LoadQueryHistories(ctx context.Context, key string) []models.QueryRecord
	FetchHistoriesMetadata(ctx context.Context, username string) ([]models.HistoryMetadata, error)
}

// HistoryHandler serves the query-history tab.
type HistoryHandler struct {
	service HistoryServiceInterface
}

func NewHistoryHandler(service HistoryServiceInterface) *HistoryHandler {
	return &HistoryHandler{service: service}
}

// List returns metadata for every session history the caller owns, without
// downloading blob bodies.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	session := auth.GetSessionFromContext(r)
	if session == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	metas, err := h.service.FetchHistoriesMetadata(r.Context(), session.Username)
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to list query histories")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{"histories": metas})
}

// Get returns the full record list of one session history. Callers can only
// read blobs under their own prefix.
func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	session := auth.GetSessionFromContext(r)
	if session == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	name := chi.URLParam(r, "name")
	if !strings.HasPrefix(name, services.HistoryPrefix(session.Username)) {
		pkghttp.WriteForbidden(w, "You do not have access to this history")
		return
	}

	records := h.service.LoadQueryHistories(r.Context(), name)

	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{"records": records})
}
