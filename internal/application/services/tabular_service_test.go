package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/virtuefdn/medbridge/backend/internal/adapters/catalog"
	"github.com/virtuefdn/medbridge/backend/internal/application/services"
	"github.com/virtuefdn/medbridge/backend/internal/domain/entities"
)

func TestTabular_CountWithSpecialty(t *testing.T) {
	svc := services.NewTabularService(testTable())

	payload, citations, err := svc.Execute(context.Background(), "How many facilities have cardiology?", services.AgentContext{})
	require.NoError(t, err)

	assert.Equal(t, "count_with_specialty", payload["action"])
	assert.Equal(t, 2, payload["count"])
	assert.Contains(t, payload["pseudo_sql"], "'cardiology'")
	assert.Contains(t, payload["pseudo_sql"], "IN specialties")
	assert.Len(t, citations, 2)
	for _, c := range citations {
		assert.Equal(t, "specialties", c.Field)
	}
}

func TestTabular_CountWithSpecialty_Negated(t *testing.T) {
	svc := services.NewTabularService(testTable())

	payload, _, err := svc.Execute(context.Background(), "How many facilities do not have cardiology?", services.AgentContext{})
	require.NoError(t, err)

	assert.Equal(t, 3, payload["count"])
	assert.Contains(t, payload["pseudo_sql"], "NOT IN specialties")
}

func TestTabular_RegionAggregation(t *testing.T) {
	svc := services.NewTabularService(testTable())

	payload, _, err := svc.Execute(context.Background(), "Which region has the most hospitals?", services.AgentContext{})
	require.NoError(t, err)

	assert.Equal(t, "region_aggregation", payload["action"])
	agg := payload["aggregation"].(map[string]int)
	assert.Equal(t, 1, agg["Greater Accra"])
	assert.Equal(t, 1, agg["Ashanti"])
	// tie broken alphabetically
	assert.Equal(t, "Ashanti", payload["top_region"])
	assert.Equal(t, 1, payload["top_count"])
}

func TestTabular_BedDoctorRatioThresholdFloor(t *testing.T) {
	table := catalog.Build([]*entities.Facility{
		{PKUniqueID: "a", Name: "A", Beds: intP(2), Doctors: intP(1)},
		{PKUniqueID: "b", Name: "B", Beds: intP(2), Doctors: intP(1)},
		{PKUniqueID: "c", Name: "C", Beds: intP(2), Doctors: intP(1)},
		{PKUniqueID: "d", Name: "D", Beds: intP(30), Doctors: intP(1)},
	})
	svc := services.NewTabularService(table)

	payload, _, err := svc.Execute(context.Background(), "Find anomalous bed to doctor ratios", services.AgentContext{})
	require.NoError(t, err)

	assert.Equal(t, "anomaly_bed_doctor_ratio", payload["action"])
	// IQR bound falls below the floor, so the threshold clamps to 20
	assert.Equal(t, 20.0, payload["threshold"])
	assert.Equal(t, 1, payload["count"])
	anomalies := payload["anomalies"].([]map[string]any)
	require.Len(t, anomalies, 1)
	assert.Equal(t, "D", anomalies[0]["name"])
}

func TestTabular_BedDoctorRatio_NoValidRows(t *testing.T) {
	table := catalog.Build([]*entities.Facility{
		{PKUniqueID: "a", Name: "A"},
	})
	svc := services.NewTabularService(table)

	payload, _, err := svc.Execute(context.Background(), "bed to doctor ratio analysis", services.AgentContext{})
	require.NoError(t, err)

	assert.Equal(t, 0, payload["count"])
	assert.Nil(t, payload["threshold"])
	assert.Empty(t, payload["anomalies"])
}

func TestTabular_SinglePointOfFailure(t *testing.T) {
	svc := services.NewTabularService(testTable())

	payload, _, err := svc.Execute(context.Background(), "Which specialties are a single point of failure?", services.AgentContext{})
	require.NoError(t, err)

	assert.Equal(t, "single_point_of_failure", payload["action"])
	rare := payload["rare_specialties"].(map[string]int)
	assert.Equal(t, 1, rare["neurosurgery"])
	assert.Equal(t, 1, rare["ophthalmology"])
	assert.Equal(t, 2, rare["cardiology"])
}

func TestTabular_OverviewDefault(t *testing.T) {
	svc := services.NewTabularService(testTable())

	payload, _, err := svc.Execute(context.Background(), "tell me about the data", services.AgentContext{})
	require.NoError(t, err)

	assert.Equal(t, "overview", payload["action"])
	assert.Equal(t, 4, payload["total_facilities"])
	assert.Equal(t, 1, payload["total_ngos"])
}

func TestTabular_SpecialtyDistribution(t *testing.T) {
	svc := services.NewTabularService(testTable())

	payload, _, err := svc.Execute(context.Background(), "show the breakdown by specialty", services.AgentContext{})
	require.NoError(t, err)

	assert.Equal(t, "specialty_distribution", payload["action"])
	dist := payload["distribution"].(map[string]int)
	assert.Equal(t, 2, dist["cardiology"])
	assert.Equal(t, 4, payload["total_unique_specialties"])
}
