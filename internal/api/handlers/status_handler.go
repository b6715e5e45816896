package handlers

import (
	"net/http"
	"time"

	"github.com/virtuefdn/medbridge/backend/internal/adapters/catalog"
	"github.com/virtuefdn/medbridge/backend/internal/domain/entities"
	tsclient "github.com/virtuefdn/medbridge/backend/internal/infrastructure/clients/typesense"
)

// StatusHandler reports the state of the retrieval pipeline. The
// Typesense client may be nil when the engine runs keyword-only.
type StatusHandler struct {
	table      *catalog.Table
	typesense  *tsclient.Client
	dataSource string
	llmEnabled bool
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(table *catalog.Table, typesense *tsclient.Client, dataSource string, llmEnabled bool) *StatusHandler {
	return &StatusHandler{table: table, typesense: typesense, dataSource: dataSource, llmEnabled: llmEnabled}
}

// GetStatus handles GET /api/mlops/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	vectorHealthy := false
	if h.typesense != nil {
		vectorHealthy = h.typesense.Health(r.Context(), 2*time.Second)
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":                "ok",
		"vector_search_backend": "typesense",
		"vector_search_healthy": vectorHealthy,
		"collection":            tsclient.FacilitiesCollection,
		"embedding_model":       tsclient.EmbeddingModel,
		"llm_fallback_enabled":  h.llmEnabled,
		"facilities_loaded":     h.table.Len(),
		"data_source":           h.dataSource,
	})
}

// GetPipeline handles GET /api/mlops/pipeline. It describes the stages a
// facility record passes through before it becomes searchable.
func (h *StatusHandler) GetPipeline(w http.ResponseWriter, r *http.Request) {
	withCoords := len(h.table.WithCoordinates())

	vectors := make([]string, 0, len(entities.AllVectors))
	for _, v := range entities.AllVectors {
		vectors = append(vectors, string(v))
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"data_source": h.dataSource,
		"preprocessing": map[string]interface{}{
			"steps": []string{
				"load_records",
				"clean_and_parse_fields",
				"deduplicate",
				"geocode_missing_coordinates",
				"build_document_views",
			},
			"records_total":      h.table.Len(),
			"records_geolocated": withCoords,
		},
		"embedding": map[string]interface{}{
			"model":         tsclient.EmbeddingModel,
			"vectors":       vectors,
			"normalization": "cosine",
		},
		"vector_store": map[string]interface{}{
			"backend":    "typesense",
			"collection": tsclient.FacilitiesCollection,
		},
		"search": map[string]interface{}{
			"method":             "reciprocal_rank_fusion",
			"rrf_k":              60,
			"multi_vector":       true,
			"metadata_filtering": true,
		},
	})
}
