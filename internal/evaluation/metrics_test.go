package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/virtuefdn/medbridge/backend/internal/domain/entities"
)

func TestAgentPrecision(t *testing.T) {
	expected := []entities.AgentName{entities.AgentGeospatial, entities.AgentValidator}

	assert.Equal(t, 1.0, AgentPrecision(expected, []entities.AgentName{entities.AgentGeospatial}))
	assert.Equal(t, 0.5, AgentPrecision(expected, []entities.AgentName{entities.AgentGeospatial, entities.AgentTabular}))
	assert.Equal(t, 0.0, AgentPrecision(expected, []entities.AgentName{entities.AgentPlanner}))
}

func TestAgentPrecision_EmptyRouting(t *testing.T) {
	assert.Equal(t, 1.0, AgentPrecision(nil, nil))
	assert.Equal(t, 0.0, AgentPrecision([]entities.AgentName{entities.AgentTabular}, nil))
}

func TestAgentRecall(t *testing.T) {
	expected := []entities.AgentName{entities.AgentGeospatial, entities.AgentValidator}

	assert.Equal(t, 1.0, AgentRecall(expected, []entities.AgentName{entities.AgentValidator, entities.AgentGeospatial}))
	assert.Equal(t, 0.5, AgentRecall(expected, []entities.AgentName{entities.AgentGeospatial}))
	assert.Equal(t, 0.0, AgentRecall(expected, []entities.AgentName{entities.AgentSemantic}))
}

func TestAgentRecall_NothingExpected(t *testing.T) {
	assert.Equal(t, 1.0, AgentRecall(nil, []entities.AgentName{entities.AgentTabular}))
}
