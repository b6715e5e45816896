package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/virtuefdn/medbridge/backend/internal/application/services"
	"github.com/virtuefdn/medbridge/backend/internal/domain/entities"
)

type fakeAgent struct {
	name      entities.AgentName
	payload   map[string]any
	citations []entities.Citation
	err       error
	panics    bool
	calls     int
}

func (a *fakeAgent) Name() entities.AgentName { return a.name }

func (a *fakeAgent) Execute(ctx context.Context, utterance string, actx services.AgentContext) (map[string]any, []entities.Citation, error) {
	a.calls++
	if a.panics {
		panic("unexpected state")
	}
	return a.payload, a.citations, a.err
}

type fakeCache struct {
	store map[string][]byte
	sets  int
}

func newFakeCache() *fakeCache { return &fakeCache{store: map[string][]byte{}} }

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, error) { return c.store[key], nil }

func (c *fakeCache) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	c.sets++
	c.store[key] = value
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error { delete(c.store, key); return nil }

func (c *fakeCache) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := c.store[key]
	return ok, nil
}

func TestOrchestrator_SingleAgentPipeline(t *testing.T) {
	tabular := &fakeAgent{
		name:    entities.AgentTabular,
		payload: map[string]any{"action": "count_with_specialty", "count": 2},
		citations: []entities.Citation{
			{SourceID: "Korle Bu Teaching Hospital", Field: "specialties", Evidence: "cardiology"},
		},
	}
	supervisor := services.NewSupervisorService(nil, false)
	orch := services.NewOrchestratorService(supervisor, []services.Agent{tabular}, nil, nil, 0, nil)

	resp, err := orch.HandleQuery(context.Background(), "How many facilities have cardiology?", entities.QueryContext{})
	require.NoError(t, err)

	assert.Equal(t, entities.IntentCounting, resp.Intent)
	assert.Equal(t, []entities.AgentName{entities.AgentTabular}, resp.AgentsUsed)
	assert.Equal(t, 2, resp.Response["count"])
	assert.Equal(t, "Found 2 matching facilities.", resp.Summary)
	require.Len(t, resp.Citations, 1)

	// supervisor, one agent, aggregator
	require.Len(t, resp.Trace, 3)
	assert.Equal(t, "supervisor", resp.Trace[0].Agent)
	assert.Equal(t, "classify_intent", resp.Trace[0].Action)
	assert.Equal(t, "tabular", resp.Trace[1].Agent)
	assert.Equal(t, "count_with_specialty", resp.Trace[1].Action)
	assert.Equal(t, "synthesize_response", resp.Trace[2].Action)

	total := 0.0
	for _, entry := range resp.Trace {
		total += entry.DurationMS
	}
	assert.Equal(t, total, resp.TotalDurationMS)
}

func TestOrchestrator_MultiAgentAggregation(t *testing.T) {
	geospatial := &fakeAgent{
		name:    entities.AgentGeospatial,
		payload: map[string]any{"action": "coverage_gap_analysis", "coverage_percentage": 80.0, "cold_spots_found": 3},
	}
	validator := &fakeAgent{
		name:    entities.AgentValidator,
		payload: map[string]any{"action": "coverage_gap_analysis", "gaps_found": 2, "specialty": "pediatrics"},
	}
	supervisor := services.NewSupervisorService(nil, false)
	orch := services.NewOrchestratorService(supervisor, []services.Agent{geospatial, validator}, nil, nil, 0, nil)

	resp, err := orch.HandleQuery(context.Background(), "Where are the coverage gaps for pediatrics?", entities.QueryContext{})
	require.NoError(t, err)

	assert.Equal(t, entities.IntentCoverageGap, resp.Intent)
	assert.Equal(t, []entities.AgentName{entities.AgentGeospatial, entities.AgentValidator}, resp.AgentsUsed)
	require.Len(t, resp.Trace, 4)

	assert.Equal(t, true, resp.Response["multi_agent"])
	byAgent := resp.Response["results"].(map[string]any)
	assert.Contains(t, byAgent, "geospatial")
	assert.Contains(t, byAgent, "validator")

	assert.Contains(t, resp.Summary, "Coverage is 80% with 3 cold spots.")
	assert.Contains(t, resp.Summary, "Found 2 coverage gaps for pediatrics.")
}

func TestOrchestrator_AgentErrorDoesNotStopPipeline(t *testing.T) {
	geospatial := &fakeAgent{name: entities.AgentGeospatial, err: errors.New("index not ready")}
	validator := &fakeAgent{
		name:    entities.AgentValidator,
		payload: map[string]any{"action": "coverage_gap_analysis", "gaps_found": 2, "specialty": "pediatrics"},
	}
	supervisor := services.NewSupervisorService(nil, false)
	orch := services.NewOrchestratorService(supervisor, []services.Agent{geospatial, validator}, nil, nil, 0, nil)

	resp, err := orch.HandleQuery(context.Background(), "Where are the coverage gaps for pediatrics?", entities.QueryContext{})
	require.NoError(t, err)

	byAgent := resp.Response["results"].(map[string]any)
	failed := byAgent["geospatial"].(map[string]any)
	assert.Equal(t, "agent_error", failed["action"])
	assert.Equal(t, "index not ready", failed["error"])

	assert.Equal(t, "Failed: index not ready", resp.Trace[1].Summary)
	assert.Equal(t, 1, validator.calls)
	assert.Len(t, resp.AgentsUsed, 2)
}

func TestOrchestrator_AgentPanicIsContained(t *testing.T) {
	semantic := &fakeAgent{name: entities.AgentSemantic, panics: true}
	supervisor := services.NewSupervisorService(nil, false)
	orch := services.NewOrchestratorService(supervisor, []services.Agent{semantic}, nil, nil, 0, nil)

	resp, err := orch.HandleQuery(context.Background(), "tell me something interesting", entities.QueryContext{})
	require.NoError(t, err)

	assert.Equal(t, "agent_error", resp.Response["action"])
	assert.Contains(t, resp.Response["error"], "semantic")
	assert.True(t, strings.HasPrefix(resp.Trace[1].Summary, "Failed:"))
}

func TestOrchestrator_QueryValidation(t *testing.T) {
	supervisor := services.NewSupervisorService(nil, false)
	orch := services.NewOrchestratorService(supervisor, nil, nil, nil, 0, nil)

	_, err := orch.HandleQuery(context.Background(), "   ", entities.QueryContext{})
	assert.Error(t, err)

	_, err = orch.HandleQuery(context.Background(), strings.Repeat("q", 2001), entities.QueryContext{})
	assert.Error(t, err)
}

func TestOrchestrator_MapOverlayMergesAndDeduplicates(t *testing.T) {
	geospatial := &fakeAgent{
		name: entities.AgentGeospatial,
		payload: map[string]any{
			"action":      "coverage_gap_analysis",
			"total_found": 2,
			"facilities": []map[string]any{
				{"facility": "Korle Bu Teaching Hospital", "latitude": 5.5364, "longitude": -0.2267, "distance_km": 8.6},
				{"facility": "Korle Bu Teaching Hospital", "latitude": 5.5364, "longitude": -0.2267},
				{"facility": "No Coordinates Clinic"},
			},
			"worst_cold_spots": []map[string]any{
				{"region": "Upper East", "grid_lat": 10.9, "grid_lng": -0.9, "distance_km": 120.0},
			},
		},
	}
	supervisor := services.NewSupervisorService(nil, false)
	orch := services.NewOrchestratorService(supervisor, []services.Agent{geospatial}, nil, nil, 0, nil)

	resp, err := orch.HandleQuery(context.Background(), "Show coverage cold spots", entities.QueryContext{})
	require.NoError(t, err)

	require.Len(t, resp.MapPoints, 2)
	assert.Equal(t, "Korle Bu Teaching Hospital", resp.MapPoints[0].Name)
	require.NotNil(t, resp.MapPoints[0].Distance)
	assert.Equal(t, 8.6, *resp.MapPoints[0].Distance)

	assert.Equal(t, "Upper East", resp.MapPoints[1].Name)
	assert.Equal(t, 10.9, resp.MapPoints[1].Lat)
	assert.Equal(t, "worst_cold_spots", resp.MapPoints[1].Kind)
	assert.Equal(t, "geospatial", resp.MapPoints[1].Source)
}

func TestOrchestrator_CacheRoundTrip(t *testing.T) {
	tabular := &fakeAgent{
		name:    entities.AgentTabular,
		payload: map[string]any{"action": "count_with_specialty", "count": 2},
	}
	cache := newFakeCache()
	supervisor := services.NewSupervisorService(nil, false)
	orch := services.NewOrchestratorService(supervisor, []services.Agent{tabular}, nil, cache, 5*time.Minute, nil)

	first, err := orch.HandleQuery(context.Background(), "How many facilities have cardiology?", entities.QueryContext{})
	require.NoError(t, err)
	assert.Equal(t, 1, tabular.calls)
	assert.Equal(t, 1, cache.sets)

	second, err := orch.HandleQuery(context.Background(), "How many facilities have cardiology?", entities.QueryContext{})
	require.NoError(t, err)
	// served from cache, agent not re-run
	assert.Equal(t, 1, tabular.calls)
	assert.Equal(t, first.Summary, second.Summary)
	assert.Equal(t, first.Intent, second.Intent)
}

func TestOrchestrator_ContextChangesCacheKey(t *testing.T) {
	tabular := &fakeAgent{
		name:    entities.AgentTabular,
		payload: map[string]any{"action": "count_with_specialty", "count": 2},
	}
	cache := newFakeCache()
	supervisor := services.NewSupervisorService(nil, false)
	orch := services.NewOrchestratorService(supervisor, []services.Agent{tabular}, nil, cache, 5*time.Minute, nil)

	_, err := orch.HandleQuery(context.Background(), "How many facilities have cardiology?", entities.QueryContext{})
	require.NoError(t, err)

	lat, lng := accraTestLat, accraTestLng
	_, err = orch.HandleQuery(context.Background(), "How many facilities have cardiology?", entities.QueryContext{Lat: &lat, Lng: &lng})
	require.NoError(t, err)

	assert.Equal(t, 2, tabular.calls)
	assert.Equal(t, 2, cache.sets)
}
