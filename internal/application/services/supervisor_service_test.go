package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/virtuefdn/medbridge/backend/internal/application/services"
	"github.com/virtuefdn/medbridge/backend/internal/domain/entities"
)

type fakeClassifier struct {
	intent entities.Intent
	agents []entities.AgentName
	err    error
	calls  int
}

func (c *fakeClassifier) ClassifyIntent(ctx context.Context, query string) (entities.Intent, []entities.AgentName, error) {
	c.calls++
	return c.intent, c.agents, c.err
}

func TestSupervisor_PatternRouting(t *testing.T) {
	cases := []struct {
		name   string
		query  string
		intent entities.Intent
		agents []entities.AgentName
	}{
		{
			name:   "counting",
			query:  "How many hospitals offer cardiology services?",
			intent: entities.IntentCounting,
			agents: []entities.AgentName{entities.AgentTabular},
		},
		{
			name:   "nearby",
			query:  "What is the nearest clinic to Tamale?",
			intent: entities.IntentNearbySearch,
			agents: []entities.AgentName{entities.AgentGeospatial},
		},
		{
			name:   "medical desert",
			query:  "Show me the medical deserts for ophthalmology",
			intent: entities.IntentMedicalDesert,
			agents: []entities.AgentName{entities.AgentGeospatial},
		},
		{
			name:   "suspicious claims",
			query:  "Flag suspicious facility claims",
			intent: entities.IntentSuspiciousClaims,
			agents: []entities.AgentName{entities.AgentValidator},
		},
		{
			name:   "coverage gap",
			query:  "Where are the coverage gaps for pediatrics?",
			intent: entities.IntentCoverageGap,
			agents: []entities.AgentName{entities.AgentGeospatial, entities.AgentValidator},
		},
		{
			name:   "planning",
			query:  "Plan a specialist rotation across the north",
			intent: entities.IntentResourceDistribution,
			agents: []entities.AgentName{entities.AgentPlanner},
		},
		{
			name:   "ngo",
			query:  "Which NGOs work on maternal health?",
			intent: entities.IntentNGOSearch,
			agents: []entities.AgentName{entities.AgentSemantic},
		},
	}

	svc := services.NewSupervisorService(nil, false)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plan := svc.Plan(context.Background(), tc.query)

			assert.Equal(t, tc.intent, plan.Intent)
			assert.Equal(t, tc.agents, plan.Agents)
			assert.False(t, plan.LLMUsed)
			assert.Greater(t, plan.Confidence, 0.2)
		})
	}
}

func TestSupervisor_UnmatchedQueryFallsBackToSemantic(t *testing.T) {
	svc := services.NewSupervisorService(nil, false)

	plan := svc.Plan(context.Background(), "xyzzy")

	assert.Equal(t, entities.IntentGeneralSearch, plan.Intent)
	assert.Equal(t, []entities.AgentName{entities.AgentSemantic}, plan.Agents)
	assert.Equal(t, 0.2, plan.Confidence)
}

func TestSupervisor_LLMFallbackOnZeroScore(t *testing.T) {
	classifier := &fakeClassifier{
		intent: entities.IntentWorkforce,
		agents: []entities.AgentName{entities.AgentTabular},
	}
	svc := services.NewSupervisorService(classifier, true)

	plan := svc.Plan(context.Background(), "xyzzy")

	assert.Equal(t, 1, classifier.calls)
	assert.True(t, plan.LLMUsed)
	assert.Equal(t, entities.IntentWorkforce, plan.Intent)
	assert.Equal(t, []entities.AgentName{entities.AgentTabular}, plan.Agents)
	assert.Equal(t, 0.6, plan.Confidence)
}

func TestSupervisor_LLMNotConsultedWhenPatternsMatch(t *testing.T) {
	classifier := &fakeClassifier{
		intent: entities.IntentWorkforce,
		agents: []entities.AgentName{entities.AgentTabular},
	}
	svc := services.NewSupervisorService(classifier, true)

	plan := svc.Plan(context.Background(), "How many clinics are in Ashanti?")

	assert.Equal(t, 0, classifier.calls)
	assert.False(t, plan.LLMUsed)
	assert.Equal(t, entities.IntentCounting, plan.Intent)
}

func TestSupervisor_LLMErrorStillYieldsPlan(t *testing.T) {
	classifier := &fakeClassifier{err: errors.New("model unavailable")}
	svc := services.NewSupervisorService(classifier, true)

	plan := svc.Plan(context.Background(), "xyzzy")

	require.NotEmpty(t, plan.Agents)
	assert.Equal(t, []entities.AgentName{entities.AgentSemantic}, plan.Agents)
	assert.False(t, plan.LLMUsed)
}

func TestSupervisor_NilClassifierDisablesFallback(t *testing.T) {
	svc := services.NewSupervisorService(nil, true)

	plan := svc.Plan(context.Background(), "xyzzy")

	assert.Equal(t, []entities.AgentName{entities.AgentSemantic}, plan.Agents)
	assert.False(t, plan.LLMUsed)
}

func TestSupervisor_ConfidenceTiers(t *testing.T) {
	svc := services.NewSupervisorService(nil, false)

	// "suspicious" (4) + "anomalies" (3) stacks past the top tier
	plan := svc.Plan(context.Background(), "Find suspicious anomalies in the claims")
	assert.Equal(t, entities.IntentSuspiciousClaims, plan.Intent)
	assert.Equal(t, 0.95, plan.Confidence)

	plan = svc.Plan(context.Background(), "What is the nearest hospital?")
	assert.Equal(t, 0.85, plan.Confidence)
}
