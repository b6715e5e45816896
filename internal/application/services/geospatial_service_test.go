package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/virtuefdn/medbridge/backend/internal/application/services"
)

const (
	accraTestLat = 5.6037
	accraTestLng = -0.1870
)

func TestGeospatial_WithinRadius(t *testing.T) {
	svc := services.NewGeospatialService(testTable(), 0.1)

	payload := svc.WithinRadius(context.Background(), accraTestLat, accraTestLng, 50, "")

	assert.Equal(t, "facilities_within_radius", payload["action"])
	assert.Equal(t, 2, payload["total_found"])
	facilities := payload["facilities"].([]map[string]any)
	require.Len(t, facilities, 2)
	// nearest first
	assert.Equal(t, "Hope Health Foundation", facilities[0]["facility"])
	assert.Equal(t, "Korle Bu Teaching Hospital", facilities[1]["facility"])
}

func TestGeospatial_NearestWithSpecialtyFilter(t *testing.T) {
	svc := services.NewGeospatialService(testTable(), 0.1)

	payload := svc.Nearest(context.Background(), accraTestLat, accraTestLng, 2, "cardiology")

	facilities := payload["facilities"].([]map[string]any)
	require.Len(t, facilities, 2)
	assert.Equal(t, "Korle Bu Teaching Hospital", facilities[0]["facility"])
	assert.Equal(t, "Kumasi South Hospital", facilities[1]["facility"])
	assert.Equal(t, "cardiology", payload["specialty_filter"])
}

func TestGeospatial_DistanceBetweenCities(t *testing.T) {
	svc := services.NewGeospatialService(testTable(), 0.1)

	payload := svc.DistanceBetweenCities("accra", "kumasi")

	assert.Equal(t, "distance_between_cities", payload["action"])
	dist := payload["distance_km"].(float64)
	assert.Greater(t, dist, 150.0)
	assert.Less(t, dist, 260.0)
	assert.Equal(t, 2, payload["facilities_in_a"])
	assert.Equal(t, 1, payload["facilities_in_b"])
}

func TestGeospatial_DistanceBetweenCities_UnknownCity(t *testing.T) {
	svc := services.NewGeospatialService(testTable(), 0.1)

	payload := svc.DistanceBetweenCities("accra", "atlantis")

	assert.Contains(t, payload["error"], "city B")
}

func TestGeospatial_MedicalDeserts(t *testing.T) {
	svc := services.NewGeospatialService(testTable(), 0.1)

	payload := svc.MedicalDeserts(context.Background(), "ophthalmology", 75)

	assert.Equal(t, "medical_desert_detection", payload["action"])
	deserts := payload["deserts"].([]map[string]any)
	require.NotEmpty(t, deserts)

	byRegion := map[string]string{}
	for _, d := range deserts {
		byRegion[d["region"].(string)] = d["severity"].(string)
	}
	// the only ophthalmology site is in Tamale, so the south is a desert
	assert.Equal(t, "critical", byRegion["Greater Accra"])
	assert.NotContains(t, byRegion, "Northern")
}

func TestGeospatial_MedicalDeserts_NoProviders(t *testing.T) {
	svc := services.NewGeospatialService(testTable(), 0.1)

	payload := svc.MedicalDeserts(context.Background(), "dentistry", 75)

	assert.Contains(t, payload["message"], "dentistry")
	assert.Equal(t, 0, payload["deserts_found"])
	assert.Empty(t, payload["deserts"])
}

func TestGeospatial_CoverageGap_CancelledContext(t *testing.T) {
	svc := services.NewGeospatialService(testTable(), 0.1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	payload := svc.CoverageGapAnalysis(ctx, "", 0.5, 50)

	// grid walk stops immediately, reporting zero scanned cells
	assert.Equal(t, "coverage_gap_analysis", payload["action"])
	assert.Equal(t, 0, payload["total_grid_cells"])
	assert.Empty(t, payload["worst_cold_spots"])
}

func TestGeospatial_RegionalEquity(t *testing.T) {
	svc := services.NewGeospatialService(testTable(), 0.1)

	payload := svc.RegionalEquity()

	assert.Equal(t, "regional_equity_analysis", payload["action"])
	assert.Equal(t, 4, payload["total_regions"])
	regions := payload["regions"].([]map[string]any)
	require.Len(t, regions, 4)
	// most facilities first
	assert.Equal(t, "Greater Accra", regions[0]["region"])
	assert.Equal(t, 2, regions[0]["total_facilities"])
	assert.Equal(t, 200, regions[0]["total_beds"])
}

func TestGeospatial_ExecuteParsesRadiusAndCity(t *testing.T) {
	svc := services.NewGeospatialService(testTable(), 0.1)

	payload, _, err := svc.Execute(context.Background(), "Which hospitals are within 25 km of Accra?", services.AgentContext{})
	require.NoError(t, err)

	assert.Equal(t, "facilities_within_radius", payload["action"])
	assert.Equal(t, 25.0, payload["radius_km"])
	assert.Equal(t, 2, payload["total_found"])
	center := payload["center"].(map[string]any)
	assert.InDelta(t, accraTestLat, center["lat"].(float64), 0.2)
}
