package evaluation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/virtuefdn/medbridge/backend/internal/application/services"
	"github.com/virtuefdn/medbridge/backend/internal/domain/entities"
)

func TestRunner_ScoresSupervisorRouting(t *testing.T) {
	queries := []GoldenQuery{
		{
			ID:             "q1",
			Query:          "How many hospitals offer cardiology services?",
			ExpectedIntent: entities.IntentCounting,
			ExpectedAgents: []entities.AgentName{entities.AgentTabular},
			Difficulty:     "easy",
		},
		{
			ID:             "q2",
			Query:          "Where are the coverage gaps for pediatrics?",
			ExpectedIntent: entities.IntentCoverageGap,
			ExpectedAgents: []entities.AgentName{entities.AgentGeospatial, entities.AgentValidator},
			Difficulty:     "medium",
		},
		{
			ID:             "q3",
			Query:          "xyzzy",
			ExpectedIntent: entities.IntentWorkforce,
			ExpectedAgents: []entities.AgentName{entities.AgentTabular},
			Difficulty:     "hard",
		},
	}

	runner := NewRunner(services.NewSupervisorService(nil, false))
	summary, err := runner.Run(context.Background(), queries)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalQueries)
	// q1 and q2 route by pattern, q3 falls to general_search
	assert.InDelta(t, 2.0/3.0, summary.IntentAccuracy, 1e-9)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, "q3", summary.Failures[0].QueryID)
	assert.Equal(t, entities.IntentGeneralSearch, summary.Failures[0].ActualIntent)

	assert.Equal(t, 1.0, summary.ByDifficulty["easy"].IntentAccuracy)
	assert.Equal(t, 0.0, summary.ByDifficulty["hard"].IntentAccuracy)
	assert.Equal(t, 0, summary.LLMFallbacks)
}
