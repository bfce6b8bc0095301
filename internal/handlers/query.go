package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/acegraph/graphrag-portal/internal/auth"
	"github.com/acegraph/graphrag-portal/internal/models"
	"github.com/acegraph/graphrag-portal/internal/services"
	pkghttp "github.com/acegraph/graphrag-portal/pkg/http"
)

// QueryServiceInterface defines the interface for the query path
type QueryServiceInterface interface {
	ExecuteQuery(ctx context.Context, session *models.SessionClaims, queryType string, indexNames []string, query string) (*services.QueryResult, error)
}

// QueryHandler handles query execution requests.
type QueryHandler struct {
	service QueryServiceInterface
}

func NewQueryHandler(service QueryServiceInterface) *QueryHandler {
	return &QueryHandler{service: service}
}

// QueryRequest represents the request body for a query
type QueryRequest struct {
	QueryType  string   `json:"query_type" validate:"required"`
	IndexNames []string `json:"index_names" validate:"required,min=1"`
	Query      string   `json:"query" validate:"required"`
}

func (h *QueryHandler) Execute(w http.ResponseWriter, r *http.Request) {
	session := auth.GetSessionFromContext(r)
	if session == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.service.ExecuteQuery(r.Context(), session, req.QueryType, req.IndexNames, req.Query)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrQueryTooShort):
			pkghttp.WriteBadRequest(w, "Please enter a query of at least 6 characters")
		case errors.Is(err, models.ErrIndexNotAllowed):
			pkghttp.WriteForbidden(w, "You do not have access to one of the requested indexes")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, err.Error())
		default:
			pkghttp.WriteInternalError(w, "Query failed")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, result)
}
