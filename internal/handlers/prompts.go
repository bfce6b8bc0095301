package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/acegraph/graphrag-portal/internal/auth"
	"github.com/acegraph/graphrag-portal/internal/models"
	pkghttp "github.com/acegraph/graphrag-portal/pkg/http"
)

// PromptServiceInterface defines the interface for prompt generation and storage
type PromptServiceInterface interface {
	GeneratePrompts(ctx context.Context, storageName string, limit int) (map[string]string, error)
	SavePrompts(ctx context.Context, username string, prompts map[string]string) error
	LoadPrompts(ctx context.Context, username string) (map[string]string, error)
}

// PromptHandler serves the prompt generation and configuration tabs.
type PromptHandler struct {
	service PromptServiceInterface
}

func NewPromptHandler(service PromptServiceInterface) *PromptHandler {
	return &PromptHandler{service: service}
}

// GeneratePromptsRequest represents the request body for prompt generation
type GeneratePromptsRequest struct {
	StorageName string `json:"storage_name" validate:"required"`
	Limit       int    `json:"limit" validate:"gte=1,lte=50"`
}

// SavePromptsRequest represents the request body for saving edited prompts
type SavePromptsRequest struct {
	Prompts map[string]string `json:"prompts" validate:"required"`
}

func (h *PromptHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GeneratePromptsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.Limit == 0 {
		req.Limit = 5
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	prompts, err := h.service.GeneratePrompts(r.Context(), req.StorageName, req.Limit)
	if err != nil {
		if errors.Is(err, models.ErrBadRequest) {
			pkghttp.WriteBadRequest(w, err.Error())
			return
		}
		pkghttp.WriteInternalError(w, "Prompt generation failed")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{"prompts": prompts})
}

func (h *PromptHandler) Save(w http.ResponseWriter, r *http.Request) {
	session := auth.GetSessionFromContext(r)
	if session == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req SavePromptsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.SavePrompts(r.Context(), session.Username, req.Prompts); err != nil {
		pkghttp.WriteInternalError(w, "Failed to save prompts")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "Prompts saved"})
}

func (h *PromptHandler) Load(w http.ResponseWriter, r *http.Request) {
	session := auth.GetSessionFromContext(r)
	if session == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	prompts, err := h.service.LoadPrompts(r.Context(), session.Username)
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to load prompts")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{"prompts": prompts})
}
