package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestCatalogHandler_ListFacilities_Pagination(t *testing.T) {
	handler := NewCatalogHandler(testTable())

	req := httptest.NewRequest(http.MethodGet, "/api/facilities?limit=2&offset=1", nil)
	rec := httptest.NewRecorder()
	handler.ListFacilities(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)

	assert.Equal(t, 5.0, body["total"])
	assert.Equal(t, 2.0, body["count"])
	assert.Equal(t, 1.0, body["offset"])

	facilities := body["facilities"].([]any)
	require.Len(t, facilities, 2)
	first := facilities[0].(map[string]any)
	assert.Equal(t, "Tamale Eye Clinic", first["name"])
	assert.Equal(t, "Northern", first["region"])
}

func TestCatalogHandler_ListFacilities_OffsetBeyondEnd(t *testing.T) {
	handler := NewCatalogHandler(testTable())

	req := httptest.NewRequest(http.MethodGet, "/api/facilities?offset=99", nil)
	rec := httptest.NewRecorder()
	handler.ListFacilities(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, 0.0, body["count"])
}

func TestCatalogHandler_GetStats(t *testing.T) {
	handler := NewCatalogHandler(testTable())

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()
	handler.GetStats(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)

	assert.Equal(t, 5.0, body["total_facilities"])
	assert.Equal(t, 5.0, body["with_coordinates"])
	assert.Equal(t, 410.0, body["total_beds"])
	assert.Equal(t, 54.0, body["total_doctors"])
	assert.Equal(t, 4.0, body["unique_specialties"])

	orgTypes := body["organization_types"].(map[string]any)
	assert.Equal(t, 4.0, orgTypes["facility"])
	assert.Equal(t, 1.0, orgTypes["ngo"])

	regions := body["top_regions"].([]any)
	require.NotEmpty(t, regions)
	top := regions[0].(map[string]any)
	assert.Equal(t, "Greater Accra", top["region"])
	assert.Equal(t, 2.0, top["count"])
}

func TestCatalogHandler_ListSpecialties(t *testing.T) {
	handler := NewCatalogHandler(testTable())

	req := httptest.NewRequest(http.MethodGet, "/api/specialties", nil)
	rec := httptest.NewRecorder()
	handler.ListSpecialties(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)

	assert.Equal(t, 4.0, body["total_unique"])
	specialties := body["specialties"].([]any)
	require.Len(t, specialties, 4)

	first := specialties[0].(map[string]any)
	assert.Equal(t, "cardiology", first["name"])
	assert.Equal(t, 2.0, first["count"])
}
