package entities

// Intent is the supervisor's classification of an utterance.
type Intent string

const (
	IntentCounting              Intent = "counting"
	IntentServiceSearch         Intent = "service_search"
	IntentRegionSearch          Intent = "region_search"
	IntentNearbySearch          Intent = "nearby_search"
	IntentCoverageGap           Intent = "coverage_gap"
	IntentEquipmentVerification Intent = "equipment_verification"
	IntentSuspiciousClaims      Intent = "suspicious_claims"
	IntentCorrelation           Intent = "correlation"
	IntentWorkforce             Intent = "workforce"
	IntentResourceDistribution  Intent = "resource_distribution"
	IntentMedicalDesert         Intent = "medical_desert"
	IntentNGOSearch             Intent = "ngo_search"
	IntentGeneralSearch         Intent = "general_search"
)

// AgentName identifies one of the five analytic agents.
type AgentName string

const (
	AgentTabular    AgentName = "tabular"
	AgentSemantic   AgentName = "semantic"
	AgentValidator  AgentName = "validator"
	AgentGeospatial AgentName = "geospatial"
	AgentPlanner    AgentName = "planner"
)

// KnownAgents lists every agent the supervisor may route to, in enum order.
var KnownAgents = []AgentName{AgentTabular, AgentSemantic, AgentValidator, AgentGeospatial, AgentPlanner}

// IsKnownAgent reports whether name is one of the five agents.
func IsKnownAgent(name AgentName) bool {
	for _, a := range KnownAgents {
		if a == name {
			return true
		}
	}
	return false
}

// QueryContext carries caller-supplied hints alongside the utterance.
type QueryContext struct {
	Lat        *float64       `json:"lat,omitempty"`
	Lng        *float64       `json:"lng,omitempty"`
	UseQuantum bool           `json:"use_quantum,omitempty"`
	Extra      map[string]any `json:"extra,omitempty"`
}

// Citation ties one reported fact back to a catalog row.
type Citation struct {
	SourceID string   `json:"source_id"`
	Field    string   `json:"field"`
	Evidence string   `json:"evidence"`
	Score    *float64 `json:"score,omitempty"`
}

// TraceEntry is one append-only step in the execution trace.
type TraceEntry struct {
	Step       int            `json:"step"`
	Agent      string         `json:"agent"`
	Action     string         `json:"action"`
	DurationMS float64        `json:"duration_ms"`
	Summary    string         `json:"summary"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// AgentReport is the result of one agent execution.
type AgentReport struct {
	Agent      AgentName      `json:"agent"`
	Action     string         `json:"action"`
	Payload    map[string]any `json:"payload"`
	DurationMS float64        `json:"duration_ms"`
	Citations  []Citation     `json:"citations,omitempty"`
}

// QueryState is the per-request pipeline state. Born on request, dies
// with the response.
type QueryState struct {
	Query          string
	Context        QueryContext
	Intent         Intent
	RequiredAgents []AgentName
	Cursor         int
	Results        []AgentReport
	Trace          []TraceEntry
	Citations      []Citation
	Answer         map[string]any
}

// MapPoint is one deduplicated overlay marker for the map view.
type MapPoint struct {
	Name     string   `json:"name"`
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	Source   string   `json:"source"`
	Kind     string   `json:"kind,omitempty"`
	Distance *float64 `json:"distance_km,omitempty"`
}

// QueryResponse is the final envelope returned to the caller.
type QueryResponse struct {
	Query           string         `json:"query"`
	Intent          Intent         `json:"intent"`
	Response        map[string]any `json:"response"`
	Summary         string         `json:"summary"`
	Trace           []TraceEntry   `json:"trace"`
	Citations       []Citation     `json:"citations"`
	AgentsUsed      []AgentName    `json:"agents_used"`
	MapPoints       []MapPoint     `json:"map_points"`
	TotalDurationMS float64        `json:"total_duration_ms"`
}
