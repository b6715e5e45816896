package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGates_AllPass(t *testing.T) {
	summary := &EvalSummary{
		TotalQueries:   10,
		IntentAccuracy: 0.9,
		AvgAgentRecall: 0.95,
		LLMFallbacks:   1,
	}

	assert.Empty(t, DefaultGates().Check(summary))
}

func TestGates_Violations(t *testing.T) {
	summary := &EvalSummary{
		TotalQueries:   10,
		IntentAccuracy: 0.5,
		AvgAgentRecall: 0.6,
		LLMFallbacks:   5,
	}

	violations := DefaultGates().Check(summary)
	assert.Len(t, violations, 3)
}

func TestGates_EmptyRunSkipsFallbackRate(t *testing.T) {
	summary := &EvalSummary{
		IntentAccuracy: 1.0,
		AvgAgentRecall: 1.0,
	}

	gates := Gates{MinIntentAccuracy: 0.5, MinAgentRecall: 0.5, MaxLLMFallbackRate: 0.0}
	assert.Empty(t, gates.Check(summary))
}
