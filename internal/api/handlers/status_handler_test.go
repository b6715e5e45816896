package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusHandler_GetStatus_WithoutVectorBackend(t *testing.T) {
	handler := NewStatusHandler(testTable(), nil, "csv", false)

	req := httptest.NewRequest(http.MethodGet, "/api/mlops/status", nil)
	rec := httptest.NewRecorder()
	handler.GetStatus(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)

	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "typesense", body["vector_search_backend"])
	assert.Equal(t, false, body["vector_search_healthy"])
	assert.Equal(t, false, body["llm_fallback_enabled"])
	assert.Equal(t, 5.0, body["facilities_loaded"])
	assert.Equal(t, "csv", body["data_source"])
}

func TestStatusHandler_GetPipeline(t *testing.T) {
	handler := NewStatusHandler(testTable(), nil, "csv", true)

	req := httptest.NewRequest(http.MethodGet, "/api/mlops/pipeline", nil)
	rec := httptest.NewRecorder()
	handler.GetPipeline(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)

	preprocessing := body["preprocessing"].(map[string]any)
	assert.Equal(t, 5.0, preprocessing["records_total"])
	assert.Equal(t, 5.0, preprocessing["records_geolocated"])
	assert.Len(t, preprocessing["steps"].([]any), 5)

	embedding := body["embedding"].(map[string]any)
	assert.Equal(t, "ts/all-MiniLM-L12-v2", embedding["model"])
	vectors := embedding["vectors"].([]any)
	assert.Equal(t, []any{"full_document", "clinical_detail", "specialties_context"}, vectors)

	search := body["search"].(map[string]any)
	assert.Equal(t, "reciprocal_rank_fusion", search["method"])
	assert.Equal(t, 60.0, search["rrf_k"])

	store := body["vector_store"].(map[string]any)
	assert.Equal(t, "facilities", store["collection"])
}
