package evaluation

import (
	"time"

	"github.com/virtuefdn/medbridge/backend/internal/domain/entities"
)

// GoldenQuery represents a labeled utterance with its expected routing.
type GoldenQuery struct {
	ID             string               `json:"id"`
	Query          string               `json:"query"`
	ExpectedIntent entities.Intent      `json:"expected_intent"`
	ExpectedAgents []entities.AgentName `json:"expected_agents"`
	Difficulty     string               `json:"difficulty"` // easy, medium, hard
}

// EvalResult holds the evaluation outcome for a single query.
type EvalResult struct {
	QueryID        string
	Query          string
	ExpectedIntent entities.Intent
	ActualIntent   entities.Intent
	IntentCorrect  bool
	AgentPrecision float64
	AgentRecall    float64
	Confidence     float64
	LLMUsed        bool
	Latency        time.Duration
}

// EvalSummary holds aggregate metrics across all golden queries.
type EvalSummary struct {
	TotalQueries      int
	IntentAccuracy    float64
	AvgAgentPrecision float64
	AvgAgentRecall    float64
	AvgConfidence     float64
	LLMFallbacks      int
	AvgLatency        time.Duration
	ByDifficulty      map[string]*DifficultySummary
	Failures          []EvalResult // queries whose intent was misrouted
}

// DifficultySummary holds metrics grouped by difficulty tier.
type DifficultySummary struct {
	Count          int
	IntentAccuracy float64
	AvgAgentRecall float64
}
