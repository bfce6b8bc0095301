package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/acegraph/graphrag-portal/internal/auth"
	"github.com/acegraph/graphrag-portal/internal/graphrag"
	"github.com/acegraph/graphrag-portal/internal/models"
	pkghttp "github.com/acegraph/graphrag-portal/pkg/http"
	"github.com/go-chi/chi/v5"
)

// IndexServiceInterface defines the interface for index operations
type IndexServiceInterface interface {
	ListAvailableIndexes(ctx context.Context) ([]string, error)
	ListQueryableIndexes(ctx context.Context, session *models.SessionClaims) ([]string, error)
	ListStorageContainers(ctx context.Context) ([]string, error)
	BuildIndex(ctx context.Context, storageName, indexName string) error
	GetIndexStatus(ctx context.Context, indexName string) (*graphrag.IndexStatus, error)
}

// IndexHandler serves the indexing tab and the admin index picker.
type IndexHandler struct {
	service IndexServiceInterface
}

func NewIndexHandler(service IndexServiceInterface) *IndexHandler {
	return &IndexHandler{service: service}
}

// BuildIndexRequest represents the request body for scheduling a build
type BuildIndexRequest struct {
	StorageName string `json:"storage_name" validate:"required"`
	IndexName   string `json:"index_name" validate:"required,min=2,max=128"`
}

func (h *IndexHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	names, err := h.service.ListAvailableIndexes(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to list indexes")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{"index_names": names})
}

// ListQueryable returns the engine's indexes the caller may query, for the
// query picker.
func (h *IndexHandler) ListQueryable(w http.ResponseWriter, r *http.Request) {
	session := auth.GetSessionFromContext(r)
	if session == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	names, err := h.service.ListQueryableIndexes(r.Context(), session)
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to list indexes")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{"index_names": names})
}

func (h *IndexHandler) ListStorageContainers(w http.ResponseWriter, r *http.Request) {
	names, err := h.service.ListStorageContainers(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to list storage containers")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{"storage_names": names})
}

func (h *IndexHandler) Build(w http.ResponseWriter, r *http.Request) {
	var req BuildIndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.BuildIndex(r.Context(), req.StorageName, req.IndexName); err != nil {
		if errors.Is(err, models.ErrBadRequest) {
			pkghttp.WriteBadRequest(w, err.Error())
			return
		}
		pkghttp.WriteInternalError(w, "Failed to schedule index build")
		return
	}

	pkghttp.WriteJSON(w, http.StatusAccepted, map[string]string{"message": "Index build scheduled"})
}

func (h *IndexHandler) Status(w http.ResponseWriter, r *http.Request) {
	indexName := chi.URLParam(r, "name")

	status, err := h.service.GetIndexStatus(r.Context(), indexName)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Index not found")
			return
		}
		pkghttp.WriteInternalError(w, "Failed to get index status")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, status)
}
