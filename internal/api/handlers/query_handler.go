package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/virtuefdn/medbridge/backend/internal/application/services"
	"github.com/virtuefdn/medbridge/backend/internal/domain/entities"
	"github.com/virtuefdn/medbridge/backend/internal/infrastructure/observability"
	apperrors "github.com/virtuefdn/medbridge/backend/pkg/errors"
)

// QueryHandler exposes the natural-language query pipeline.
type QueryHandler struct {
	orchestrator *services.OrchestratorService
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(orchestrator *services.OrchestratorService) *QueryHandler {
	return &QueryHandler{orchestrator: orchestrator}
}

type queryRequest struct {
	Query   string                 `json:"query"`
	Context *entities.QueryContext `json:"context,omitempty"`
}

// HandleQuery handles POST /api/query
func (h *QueryHandler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	qctx := entities.QueryContext{}
	if req.Context != nil {
		qctx = *req.Context
	}

	response, err := h.orchestrator.HandleQuery(r.Context(), req.Query, qctx)
	if err != nil {
		if appErr, ok := err.(*apperrors.AppError); ok {
			switch appErr.Type {
			case apperrors.ErrorTypeValidation:
				respondWithError(w, http.StatusBadRequest, appErr.Message)
			default:
				respondWithError(w, http.StatusInternalServerError, "internal processing error, please try again")
			}
			return
		}
		observability.LoggerFromContext(r.Context()).Error().Err(err).Msg("query pipeline failed")
		respondWithError(w, http.StatusInternalServerError, "internal processing error, please try again")
		return
	}

	respondWithJSON(w, http.StatusOK, response)
}
