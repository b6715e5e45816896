package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/virtuefdn/medbridge/backend/internal/adapters/catalog"
	"github.com/virtuefdn/medbridge/backend/internal/application/services"
	"github.com/virtuefdn/medbridge/backend/internal/domain/entities"
	"github.com/virtuefdn/medbridge/backend/internal/geo"
	"github.com/virtuefdn/medbridge/backend/internal/infrastructure/observability"
)

const routingMapFacilityCap = 200

// scenarioParams names the request fields each scenario reads.
var scenarioParams = map[string][]string{
	"emergency_routing":      {"specialty", "origin_city"},
	"specialist_deployment":  {"specialty"},
	"equipment_distribution": {"equipment_type"},
	"new_facility_placement": {"specialty"},
	"capacity_planning":      {},
}

// PlanningHandler exposes the planning scenarios over HTTP.
type PlanningHandler struct {
	planner    *services.PlannerService
	geospatial *services.GeospatialService
	table      *catalog.Table
}

// NewPlanningHandler creates a new planning handler
func NewPlanningHandler(planner *services.PlannerService, geospatial *services.GeospatialService, table *catalog.Table) *PlanningHandler {
	return &PlanningHandler{planner: planner, geospatial: geospatial, table: table}
}

type planningRequest struct {
	Scenario      string `json:"scenario"`
	Specialty     string `json:"specialty,omitempty"`
	EquipmentType string `json:"equipment_type,omitempty"`
	OriginCity    string `json:"origin_city,omitempty"`
	UseQuantum    bool   `json:"use_quantum,omitempty"`
}

type routingMapRequest struct {
	Scenario   string `json:"scenario"`
	Specialty  string `json:"specialty,omitempty"`
	OriginCity string `json:"origin_city,omitempty"`
}

// ListScenarios handles GET /api/planning/scenarios
func (h *PlanningHandler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	scenarios := make([]map[string]interface{}, 0, len(services.PlanScenarios))
	for _, sc := range services.PlanScenarios {
		params := scenarioParams[sc.ID]
		if params == nil {
			params = []string{}
		}
		scenarios = append(scenarios, map[string]interface{}{
			"id":          sc.ID,
			"name":        sc.Title,
			"description": sc.Description,
			"params":      params,
		})
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"scenarios": scenarios})
}

// ExecutePlan handles POST /api/planning/execute
func (h *PlanningHandler) ExecutePlan(w http.ResponseWriter, r *http.Request) {
	var req planningRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Scenario == "" {
		respondWithError(w, http.StatusBadRequest, "scenario is required")
		return
	}

	qctx := entities.QueryContext{UseQuantum: req.UseQuantum}
	if lat, lng, ok := h.originCoords(req.OriginCity); ok {
		qctx.Lat, qctx.Lng = &lat, &lng
	}

	query := buildScenarioQuery(req.Scenario, req.Specialty, req.EquipmentType, req.OriginCity)
	result, _, err := h.planner.Execute(r.Context(), query, services.AgentContext{Query: &qctx})
	if err != nil {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Str("scenario", req.Scenario).Msg("planning execution failed")
		respondWithError(w, http.StatusInternalServerError, "planning execution failed")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"result": result,
	})
}

// RoutingMap handles POST /api/routing-map. It bundles the plan with the
// facility background layer, medical deserts, route waypoints, and the
// reasoning sidebar in one response.
func (h *PlanningHandler) RoutingMap(w http.ResponseWriter, r *http.Request) {
	var req routingMapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Scenario == "" {
		req.Scenario = "emergency_routing"
	}

	qctx := entities.QueryContext{}
	if lat, lng, ok := h.originCoords(req.OriginCity); ok {
		qctx.Lat, qctx.Lng = &lat, &lng
	}

	query := buildScenarioQuery(req.Scenario, req.Specialty, "", req.OriginCity)
	plan, _, err := h.planner.Execute(r.Context(), query, services.AgentContext{Query: &qctx})
	if err != nil {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Str("scenario", req.Scenario).Msg("routing map plan failed")
		respondWithError(w, http.StatusInternalServerError, "routing map generation failed")
		return
	}

	located := h.table.WithCoordinates()
	background := make([]facilityListItem, 0, routingMapFacilityCap)
	for _, f := range located {
		if len(background) == routingMapFacilityCap {
			break
		}
		background = append(background, toListItem(f))
	}

	deserts := h.geospatial.MedicalDeserts(r.Context(), req.Specialty, 75)
	route := routeWaypoints(plan)

	reasoning := []map[string]interface{}{
		{"step": 1, "title": "Query Analysis", "content": "Scenario: " + req.Scenario, "data": "Specialty: " + orText(req.Specialty, "all")},
		{"step": 2, "title": "Facility Search", "content": fmt.Sprintf("Searched %d geo-located facilities", len(located)), "data": "Filter: " + orText(req.Specialty, "none")},
		{"step": 3, "title": "Route Calculation", "content": fmt.Sprintf("Generated %d waypoints", len(route)), "data": stringOr(plan["title"], "")},
		{"step": 4, "title": "Desert Detection", "content": fmt.Sprintf("Found %d medical deserts", intOr(deserts["deserts_found"])), "data": "Threshold: 75 km"},
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"plan":       plan,
		"facilities": background,
		"route":      route,
		"deserts":    deserts["deserts"],
		"reasoning":  reasoning,
		"stats": map[string]interface{}{
			"distance_km":      routeDistance(plan, route),
			"time_min":         routeTimeMin(plan, route),
			"facilities_count": len(route),
		},
	})
}

// originCoords averages the coordinates of facilities in the city,
// falling back to the geocode tables.
func (h *PlanningHandler) originCoords(city string) (float64, float64, bool) {
	if strings.TrimSpace(city) == "" {
		return 0, 0, false
	}
	needle := strings.ToLower(city)
	var latSum, lngSum float64
	count := 0
	for _, f := range h.table.WithCoordinates() {
		if strings.Contains(strings.ToLower(f.City), needle) {
			latSum += *f.Latitude
			lngSum += *f.Longitude
			count++
		}
	}
	if count > 0 {
		return latSum / float64(count), lngSum / float64(count), true
	}
	if c, ok := geo.Geocode(city, ""); ok {
		return c.Lat, c.Lng, true
	}
	return 0, 0, false
}

// buildScenarioQuery renders the scenario request as the natural-language
// utterance the planner dispatches on.
func buildScenarioQuery(scenario, specialty, equipmentType, originCity string) string {
	parts := []string{strings.ReplaceAll(scenario, "_", " ")}
	if specialty != "" {
		parts = append(parts, "for "+specialty)
	}
	if equipmentType != "" {
		parts = append(parts, equipmentType)
	}
	if originCity != "" {
		parts = append(parts, "from "+originCity)
	}
	return strings.Join(parts, " ")
}

// routeWaypoints flattens whichever waypoint-bearing fields the scenario
// produced into one ordered route list.
func routeWaypoints(plan map[string]interface{}) []map[string]interface{} {
	route := []map[string]interface{}{}

	if pf, ok := plan["primary_facility"].(map[string]interface{}); ok {
		route = append(route, map[string]interface{}{
			"name":             stringOr(pf["facility"], "Origin"),
			"lat":              pf["latitude"],
			"lng":              pf["longitude"],
			"city":             pf["city"],
			"type":             "destination",
			"distance_km":      pf["distance_km"],
			"capability_match": pf["capability_match"],
		})
	}
	for _, stop := range asMapList(plan["stops"]) {
		route = append(route, map[string]interface{}{
			"name":                  stop["facility"],
			"lat":                   stop["latitude"],
			"lng":                   stop["longitude"],
			"city":                  stop["city"],
			"type":                  "stop",
			"distance_from_prev_km": stop["distance_from_prev_km"],
		})
	}
	for _, p := range asMapList(plan["placements"]) {
		route = append(route, map[string]interface{}{
			"name":              p["recommended_facility"],
			"lat":               p["latitude"],
			"lng":               p["longitude"],
			"city":              p["city"],
			"type":              "placement",
			"facilities_served": p["facilities_served"],
		})
	}
	for _, sg := range asMapList(plan["suggestions"]) {
		if sg["suggested_lat"] == nil {
			continue
		}
		route = append(route, map[string]interface{}{
			"name":     "New facility (" + stringOr(sg["region"], "Unknown") + ")",
			"lat":      sg["suggested_lat"],
			"lng":      sg["suggested_lng"],
			"city":     sg["region"],
			"type":     "suggestion",
			"priority": sg["priority"],
		})
	}
	return route
}

func routeDistance(plan map[string]interface{}, route []map[string]interface{}) float64 {
	if v, ok := plan["total_distance_km"].(float64); ok {
		return v
	}
	total := 0.0
	for _, wp := range route {
		if d, ok := wp["distance_km"].(float64); ok {
			total += d
		} else if d, ok := wp["distance_from_prev_km"].(float64); ok {
			total += d
		}
	}
	return total
}

func routeTimeMin(plan map[string]interface{}, route []map[string]interface{}) int {
	if pf, ok := plan["primary_facility"].(map[string]interface{}); ok {
		if mins, ok := pf["est_travel_min"].(int); ok && mins > 0 {
			return mins
		}
	}
	return len(route) * 30
}

func asMapList(v interface{}) []map[string]interface{} {
	switch list := v.(type) {
	case []map[string]interface{}:
		return list
	case []interface{}:
		out := make([]map[string]interface{}, 0, len(list))
		for _, item := range list {
			if m, ok := item.(map[string]interface{}); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

func stringOr(v interface{}, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

func intOr(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}

func orText(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
