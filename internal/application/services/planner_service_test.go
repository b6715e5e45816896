package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/virtuefdn/medbridge/backend/internal/application/services"
)

func TestPlanner_EmergencyRouting(t *testing.T) {
	svc := services.NewPlannerService(testTable())
	lat, lng := accraTestLat, accraTestLng

	payload := svc.EmergencyRouting("cardiology", &lat, &lng)

	assert.Equal(t, "emergency_routing", payload["scenario"])
	assert.Equal(t, 2, payload["total_options"])

	primary := payload["primary_facility"].(map[string]any)
	assert.Equal(t, "Korle Bu Teaching Hospital", primary["facility"])
	// specialty + ICU + beds + doctors + imaging all present
	assert.Equal(t, 100, primary["capability_match"])

	backup := payload["backup_facility"].(map[string]any)
	assert.Equal(t, "Kumasi South Hospital", backup["facility"])

	steps := payload["action_steps"].([]string)
	require.Len(t, steps, 4)
	assert.Contains(t, steps[0], "Korle Bu")
}

func TestPlanner_EmergencyRouting_NoCandidates(t *testing.T) {
	svc := services.NewPlannerService(testTable())

	payload := svc.EmergencyRouting("dentistry", nil, nil)

	assert.Equal(t, "emergency_routing", payload["scenario"])
	assert.Contains(t, payload["error"], "dentistry")
}

func TestPlanner_SpecialistDeployment(t *testing.T) {
	svc := services.NewPlannerService(testTable())

	payload := svc.SpecialistDeployment(context.Background(), "cardiology", 8, false)

	assert.Equal(t, "specialist_deployment", payload["scenario"])
	assert.Equal(t, "greedy_nn + 2-opt", payload["optimisation"])
	assert.Equal(t, 3, payload["total_stops"])
	assert.Equal(t, 3, payload["est_total_days"])
	assert.Equal(t, 3, payload["facilities_needing_specialty"])

	stops := payload["stops"].([]map[string]any)
	require.Len(t, stops, 3)
	// rotation starts next door to the depot
	assert.Equal(t, "Hope Health Foundation", stops[0]["facility"])
	assert.Equal(t, 1, stops[0]["stop"])

	impacts := map[string]string{}
	for _, stop := range stops {
		impacts[stop["facility"].(string)] = stop["population_impact"].(string)
	}
	assert.Equal(t, "high", impacts["Wa District Clinic"])
	assert.Equal(t, "medium", impacts["Tamale Eye Clinic"])
}

func TestPlanner_SpecialistDeployment_QuantumComparison(t *testing.T) {
	svc := services.NewPlannerService(testTable())

	payload := svc.SpecialistDeployment(context.Background(), "cardiology", 8, true)

	quantum, ok := payload["quantum"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, quantum["available"])
	assert.True(t, quantum["feasible"].(bool))
	assert.Equal(t, "qubo_exact_ground_state", quantum["method"])

	comparison := quantum["comparison"].(map[string]any)
	assert.Contains(t, []any{"quantum", "classical"}, comparison["winner"])
	assert.Contains(t, payload["optimisation"], "QUBO (winner:")
}

func TestPlanner_EquipmentDistribution(t *testing.T) {
	svc := services.NewPlannerService(testTable())

	payload := svc.EquipmentDistribution("CT scanner")

	assert.Equal(t, "equipment_distribution", payload["scenario"])
	assert.Equal(t, 1, payload["facilities_with"])
	assert.Equal(t, 4, payload["facilities_without"])

	placements := payload["placements"].([]map[string]any)
	require.Len(t, placements, 4)
	for _, p := range placements {
		assert.Equal(t, 1, p["facilities_served"])
		assert.NotEmpty(t, p["recommended_facility"])
	}
}

func TestPlanner_NewFacilityPlacement(t *testing.T) {
	svc := services.NewPlannerService(testTable())

	payload := svc.NewFacilityPlacement(context.Background(), "")

	assert.Equal(t, "new_facility_placement", payload["scenario"])
	suggestions := payload["suggestions"].([]map[string]any)
	require.Len(t, suggestions, 10)

	prev := suggestions[0]["nearest_existing_facility_km"].(float64)
	for _, sg := range suggestions[1:] {
		gap := sg["nearest_existing_facility_km"].(float64)
		assert.LessOrEqual(t, gap, prev)
		prev = gap
	}
	assert.Contains(t, []any{"critical", "high", "medium"}, suggestions[0]["priority"])
	assert.Equal(t, 1, suggestions[0]["rank"])
}

func TestPlanner_NewFacilityPlacement_FallsBackWhenSpecialtyMissing(t *testing.T) {
	svc := services.NewPlannerService(testTable())

	payload := svc.NewFacilityPlacement(context.Background(), "dentistry")

	// no dentistry sites exist, so siting runs against all facilities
	suggestions := payload["suggestions"].([]map[string]any)
	assert.NotEmpty(t, suggestions)
	assert.Equal(t, "dentistry", payload["specialty"])
}

func TestPlanner_CapacityPlanning(t *testing.T) {
	svc := services.NewPlannerService(testTable())

	payload := svc.CapacityPlanning()

	assert.Equal(t, "capacity_planning", payload["scenario"])
	assert.Equal(t, 4, payload["total_regions"])
	assert.Equal(t, 0, payload["critical_regions"])

	regions := payload["regions"].([]map[string]any)
	require.Len(t, regions, 4)
	// lowest bed ratio first
	assert.Equal(t, "Northern", regions[0]["region"])
	assert.Equal(t, "warning", regions[0]["status"])
	assert.Equal(t, 10.0, regions[0]["beds_per_facility"])
}

func TestPlanner_ExecuteDispatch(t *testing.T) {
	svc := services.NewPlannerService(testTable())

	payload, _, err := svc.Execute(context.Background(), "Plan a specialist rotation for cardiology", services.AgentContext{})
	require.NoError(t, err)
	assert.Equal(t, "specialist_deployment", payload["scenario"])
	assert.Equal(t, "cardiology", payload["specialty"])

	payload, _, err = svc.Execute(context.Background(), "What planning scenarios are available?", services.AgentContext{})
	require.NoError(t, err)
	assert.Equal(t, "list_scenarios", payload["action"])
	assert.Len(t, payload["scenarios"], 5)
}

func TestPlanner_Execute_CancelledContext(t *testing.T) {
	svc := services.NewPlannerService(testTable())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	payload, _, err := svc.Execute(ctx, "Plan a specialist rotation for cardiology", services.AgentContext{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, payload)
}

func TestPlanner_NewFacilityPlacement_CancelledContext(t *testing.T) {
	svc := services.NewPlannerService(testTable())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	payload := svc.NewFacilityPlacement(ctx, "")

	// grid walk stops before producing any candidate site
	assert.Equal(t, 0, payload["total_suggestions"])
	assert.Empty(t, payload["suggestions"])
}
