package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/virtuefdn/medbridge/backend/internal/domain/entities"
	"github.com/virtuefdn/medbridge/backend/internal/domain/providers"
	"github.com/virtuefdn/medbridge/backend/internal/infrastructure/observability"
	apperrors "github.com/virtuefdn/medbridge/backend/pkg/errors"
)

const maxQueryLength = 2000

// overlayListKeys are the payload keys whose dict items may carry map
// coordinates.
var overlayListKeys = []string{
	"facilities", "results", "flagged_facilities", "stops",
	"placements", "suggestions", "worst_cold_spots",
	"alternatives", "regions", "anomalies", "gaps", "deserts",
}

// overlaySingleKeys are single-facility payload fields.
var overlaySingleKeys = []string{"primary_facility", "backup_facility"}

var latAliases = []string{"latitude", "lat", "center_lat", "suggested_lat", "grid_lat"}
var lngAliases = []string{"longitude", "lng", "center_lng", "suggested_lng", "grid_lng"}

// OrchestratorService runs the linear pipeline: supervisor plan, each
// agent in order, then aggregation with LLM synthesis. Per-request
// state lives on the stack; agents share only the read-only catalog.
type OrchestratorService struct {
	supervisor  *SupervisorService
	agents      map[entities.AgentName]Agent
	synthesizer providers.Synthesizer
	cache       providers.CacheProvider
	cacheTTL    time.Duration
	metrics     *observability.Metrics
}

// NewOrchestratorService wires the pipeline. Synthesizer, cache, and
// metrics are optional.
func NewOrchestratorService(
	supervisor *SupervisorService,
	agents []Agent,
	synthesizer providers.Synthesizer,
	cache providers.CacheProvider,
	cacheTTL time.Duration,
	metrics *observability.Metrics,
) *OrchestratorService {
	byName := make(map[entities.AgentName]Agent, len(agents))
	for _, a := range agents {
		byName[a.Name()] = a
	}
	return &OrchestratorService{
		supervisor:  supervisor,
		agents:      byName,
		synthesizer: synthesizer,
		cache:       cache,
		cacheTTL:    cacheTTL,
		metrics:     metrics,
	}
}

// HandleQuery executes one utterance through the full pipeline.
func (s *OrchestratorService) HandleQuery(ctx context.Context, query string, qctx entities.QueryContext) (*entities.QueryResponse, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, apperrors.NewValidationError("query must not be empty")
	}
	if len(query) > maxQueryLength {
		return nil, apperrors.NewValidationError(fmt.Sprintf("query exceeds %d characters", maxQueryLength))
	}

	cacheKey := queryCacheKey(query, qctx)
	if cached := s.cachedResponse(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	plan := s.supervisor.Plan(ctx, query)

	state := entities.QueryState{
		Query:          query,
		Context:        qctx,
		Intent:         plan.Intent,
		RequiredAgents: plan.Agents,
	}
	state.Trace = []entities.TraceEntry{{
		Step:       1,
		Agent:      "supervisor",
		Action:     "classify_intent",
		DurationMS: plan.DurationMS,
		Summary:    fmt.Sprintf("Intent %s, %d agent(s)", plan.Intent, len(plan.Agents)),
		Metadata: map[string]any{
			"intent":       string(plan.Intent),
			"agents":       agentNameStrings(plan.Agents),
			"confidence":   plan.Confidence,
			"llm_enhanced": plan.LLMUsed,
		},
	}}

	prior := make(map[entities.AgentName]map[string]any)
	for state.Cursor = 0; state.Cursor < len(state.RequiredAgents); state.Cursor++ {
		name := state.RequiredAgents[state.Cursor]
		agent, ok := s.agents[name]
		if !ok {
			continue
		}
		report := s.runAgent(ctx, agent, query, AgentContext{Query: &state.Context, Prior: prior})
		state.Results = append(state.Results, report)
		state.Citations = append(state.Citations, report.Citations...)
		prior[name] = report.Payload

		state.Trace = append(state.Trace, entities.TraceEntry{
			Step:       len(state.Trace) + 1,
			Agent:      string(name),
			Action:     report.Action,
			DurationMS: report.DurationMS,
			Summary:    summarizeReport(report),
		})
		if s.metrics != nil {
			_, failed := report.Payload["error"]
			observability.RecordAgentMetric(ctx, s.metrics, string(name), report.Action, failed,
				time.Duration(report.DurationMS*float64(time.Millisecond)))
		}
	}

	state.Answer = aggregateResults(state.Results)
	mapPoints := mergeMapPoints(state.Results)

	synthStart := time.Now()
	summary := s.synthesize(ctx, query, state.Intent, state.Results, state.Trace, state.Citations)
	state.Trace = append(state.Trace, entities.TraceEntry{
		Step:       len(state.Trace) + 1,
		Agent:      "aggregator",
		Action:     "synthesize_response",
		DurationMS: durationMS(synthStart),
		Summary:    synthesisTraceSummary(summary),
	})

	if state.Citations == nil {
		state.Citations = []entities.Citation{}
	}

	total := 0.0
	for _, entry := range state.Trace {
		total += entry.DurationMS
	}

	response := &entities.QueryResponse{
		Query:           state.Query,
		Intent:          state.Intent,
		Response:        state.Answer,
		Summary:         summary,
		Trace:           state.Trace,
		Citations:       state.Citations,
		AgentsUsed:      agentsUsed(state.Results),
		MapPoints:       mapPoints,
		TotalDurationMS: total,
	}
	s.storeResponse(ctx, cacheKey, response)
	return response, nil
}

// runAgent executes one agent, converting errors and panics into an
// error payload so the pipeline always continues.
func (s *OrchestratorService) runAgent(ctx context.Context, agent Agent, query string, actx AgentContext) (report entities.AgentReport) {
	start := time.Now()
	report.Agent = agent.Name()

	defer func() {
		if r := recover(); r != nil {
			observability.LoggerFromContext(ctx).Error().
				Str("agent", string(agent.Name())).
				Interface("panic", r).
				Msg("agent panicked")
			report.Action = "agent_error"
			report.Payload = map[string]any{
				"error":  fmt.Sprintf("agent %s failed unexpectedly", agent.Name()),
				"action": "agent_error",
			}
			report.DurationMS = durationMS(start)
		}
	}()

	payload, agentCitations, err := agent.Execute(ctx, query, actx)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Str("agent", string(agent.Name())).
			Msg("agent execution failed")
		payload = map[string]any{
			"error":  err.Error(),
			"action": "agent_error",
		}
		agentCitations = nil
	}
	if payload == nil {
		payload = map[string]any{"action": "agent_error", "error": "empty payload"}
	}

	report.Action = payloadAction(payload)
	report.Payload = payload
	report.Citations = agentCitations
	report.DurationMS = durationMS(start)
	if v, ok := toFloat(payload["duration_ms"]); ok {
		report.DurationMS = v
	}
	return report
}

func (s *OrchestratorService) synthesize(ctx context.Context, query string, intent entities.Intent, results []entities.AgentReport, trace []entities.TraceEntry, citations []entities.Citation) string {
	if s.synthesizer != nil {
		summary, err := s.synthesizer.Synthesize(ctx, query, intent, results, trace, citations)
		if err == nil && strings.TrimSpace(summary) != "" {
			return summary
		}
		if err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Msg("synthesis failed, using fallback")
		}
	}
	return fallbackSummary(results)
}

func (s *OrchestratorService) cachedResponse(ctx context.Context, key string) *entities.QueryResponse {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil || len(raw) == 0 {
		if s.metrics != nil {
			observability.RecordCacheMiss(ctx, s.metrics, key)
		}
		return nil
	}
	var resp entities.QueryResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil
	}
	if s.metrics != nil {
		observability.RecordCacheHit(ctx, s.metrics, key)
	}
	return &resp
}

func (s *OrchestratorService) storeResponse(ctx context.Context, key string, resp *entities.QueryResponse) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, int(s.cacheTTL.Seconds())); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("query cache write failed")
	}
}

func queryCacheKey(query string, qctx entities.QueryContext) string {
	ctxJSON, _ := json.Marshal(qctx)
	sum := sha256.Sum256([]byte(query + "|" + string(ctxJSON)))
	return "query:" + hex.EncodeToString(sum[:16])
}

// aggregateResults picks a single payload as the primary response, or
// wraps multiple payloads keyed by agent.
func aggregateResults(results []entities.AgentReport) map[string]any {
	if len(results) == 1 {
		return results[0].Payload
	}
	byAgent := make(map[string]any, len(results))
	for _, r := range results {
		byAgent[string(r.Agent)] = r.Payload
	}
	return map[string]any{
		"multi_agent": true,
		"agents_used": agentNameStrings(agentsUsed(results)),
		"results":     byAgent,
	}
}

// mergeMapPoints collects every coordinate-carrying dict across agent
// payloads into one overlay, deduplicated by entity name.
func mergeMapPoints(results []entities.AgentReport) []entities.MapPoint {
	points := []entities.MapPoint{}
	seen := make(map[string]bool)

	add := func(item map[string]any, source, kind string) {
		lat, latOK := firstCoord(item, latAliases)
		lng, lngOK := firstCoord(item, lngAliases)
		if !latOK || !lngOK {
			return
		}
		name := firstString(item, "name", "facility", "region")
		if name == "" || seen[name] {
			return
		}
		seen[name] = true

		point := entities.MapPoint{
			Name:   name,
			Lat:    lat,
			Lng:    lng,
			Source: source,
			Kind:   kind,
		}
		if d, ok := toFloat(item["distance_km"]); ok {
			point.Distance = &d
		} else if d, ok := toFloat(item["distance_from_prev_km"]); ok {
			point.Distance = &d
		}
		points = append(points, point)
	}

	for _, r := range results {
		source := string(r.Agent)
		for _, key := range overlayListKeys {
			items, ok := r.Payload[key].([]map[string]any)
			if !ok {
				if anyItems, isAny := r.Payload[key].([]any); isAny {
					for _, v := range anyItems {
						if m, isMap := v.(map[string]any); isMap {
							add(m, source, key)
						}
					}
				}
				continue
			}
			for _, item := range items {
				add(item, source, key)
			}
		}
		for _, key := range overlaySingleKeys {
			if m, ok := r.Payload[key].(map[string]any); ok {
				add(m, source, key)
			}
		}
	}
	return points
}

func payloadAction(payload map[string]any) string {
	if action, ok := payload["action"].(string); ok && action != "" {
		return action
	}
	if scenario, ok := payload["scenario"].(string); ok && scenario != "" {
		return scenario
	}
	return "analysis"
}

// summarizeReport renders a one-line trace summary for each agent's
// payload shape.
func summarizeReport(r entities.AgentReport) string {
	p := r.Payload
	if errMsg, ok := p["error"].(string); ok {
		return "Failed: " + errMsg
	}

	switch r.Action {
	case "constraint_validation":
		return fmt.Sprintf("Validated %v facilities, %v flagged", p["total_checked"], p["facilities_with_issues"])
	case "anomaly_detection":
		return fmt.Sprintf("Scanned %v facilities, %v anomalies", p["total_checked"], p["anomalies_found"])
	case "red_flag_detection":
		return fmt.Sprintf("Scanned %v facilities, %v flagged", p["total_scanned"], p["facilities_flagged"])
	case "coverage_gap_analysis":
		if _, isGeo := p["coverage_percentage"]; isGeo {
			return fmt.Sprintf("Coverage %v%%, %v cold spots", p["coverage_percentage"], p["cold_spots_found"])
		}
		return fmt.Sprintf("Found %v coverage gaps for %v", p["gaps_found"], p["specialty"])
	case "single_point_of_failure":
		return fmt.Sprintf("Found %v critical specialties", p["critical_specialties"])
	case "medical_desert_detection":
		return fmt.Sprintf("Found %v medical deserts", p["deserts_found"])
	case "facilities_within_radius":
		return fmt.Sprintf("Found %v facilities within %v km", p["total_found"], p["radius_km"])
	case "nearest_facilities":
		return fmt.Sprintf("Found %d nearest facilities", listLen(p["facilities"]))
	case "regional_equity_analysis":
		return fmt.Sprintf("Analyzed %v regions", p["total_regions"])
	case "semantic_search":
		return fmt.Sprintf("Found %d matching facilities", listLen(p["results"]))
	}
	if title, ok := p["title"].(string); ok && title != "" {
		return title
	}
	if count, ok := p["count"]; ok {
		return fmt.Sprintf("Found %v results", count)
	}
	return "Analysis complete"
}

func synthesisTraceSummary(summary string) string {
	if summary == "" {
		return "Synthesis skipped"
	}
	return "Generated natural language summary"
}

// fallbackSummary builds a deterministic one-liner per agent when the
// synthesizer is unavailable.
func fallbackSummary(results []entities.AgentReport) string {
	var parts []string
	for _, r := range results {
		p := r.Payload
		switch r.Agent {
		case entities.AgentTabular:
			if count, ok := p["count"]; ok {
				parts = append(parts, fmt.Sprintf("Found %v matching facilities.", count))
			} else {
				parts = append(parts, fmt.Sprintf("Retrieved %d results.", listLen(p["results"])))
			}
		case entities.AgentSemantic:
			parts = append(parts, fmt.Sprintf("Found %d semantically matching facilities.", listLen(p["results"])))
		case entities.AgentValidator:
			switch r.Action {
			case "anomaly_detection":
				parts = append(parts, fmt.Sprintf("Detected %v anomalies out of %v facilities.", p["anomalies_found"], p["total_checked"]))
			case "constraint_validation":
				parts = append(parts, fmt.Sprintf("Validated %v facilities; %v have potential issues.", p["total_checked"], p["facilities_with_issues"]))
			case "coverage_gap_analysis":
				parts = append(parts, fmt.Sprintf("Found %v coverage gaps for %v.", p["gaps_found"], p["specialty"]))
			case "red_flag_detection":
				parts = append(parts, fmt.Sprintf("Flagged %v facilities with suspicious claims.", p["facilities_flagged"]))
			case "single_point_of_failure":
				parts = append(parts, fmt.Sprintf("Identified %v specialties with critical dependency risks.", p["critical_specialties"]))
			default:
				parts = append(parts, "Validation analysis complete.")
			}
		case entities.AgentGeospatial:
			switch r.Action {
			case "medical_desert_detection":
				parts = append(parts, fmt.Sprintf("Identified %v medical deserts.", p["deserts_found"]))
			case "facilities_within_radius":
				parts = append(parts, fmt.Sprintf("Found %v facilities within %v km.", p["total_found"], p["radius_km"]))
			case "coverage_gap_analysis":
				parts = append(parts, fmt.Sprintf("Coverage is %v%% with %v cold spots.", p["coverage_percentage"], p["cold_spots_found"]))
			default:
				parts = append(parts, "Geospatial analysis complete.")
			}
		case entities.AgentPlanner:
			if title, ok := p["title"].(string); ok && title != "" {
				parts = append(parts, title)
			} else {
				parts = append(parts, "Planning analysis complete.")
			}
		}
	}
	if len(parts) == 0 {
		return "Analysis complete."
	}
	return strings.Join(parts, " ")
}

func agentsUsed(results []entities.AgentReport) []entities.AgentName {
	used := make([]entities.AgentName, 0, len(results))
	for _, r := range results {
		used = append(used, r.Agent)
	}
	return used
}

func agentNameStrings(agents []entities.AgentName) []string {
	names := make([]string, 0, len(agents))
	for _, a := range agents {
		names = append(names, string(a))
	}
	return names
}

func firstCoord(item map[string]any, aliases []string) (float64, bool) {
	for _, key := range aliases {
		if v, ok := toFloat(item[key]); ok {
			return v, true
		}
	}
	return 0, false
}

func firstString(item map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := item[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func listLen(v any) int {
	switch list := v.(type) {
	case []map[string]any:
		return len(list)
	case []any:
		return len(list)
	}
	return 0
}
