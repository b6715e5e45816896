package evaluation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/virtuefdn/medbridge/backend/internal/domain/entities"
)

func writeGoldenFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "golden_queries.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadGoldenQueries(t *testing.T) {
	path := writeGoldenFile(t, `[
		{
			"id": "q1",
			"query": "How many hospitals offer cardiology?",
			"expected_intent": "counting",
			"expected_agents": ["tabular"],
			"difficulty": "easy"
		},
		{
			"id": "q2",
			"query": "Where are the coverage gaps for pediatrics?",
			"expected_intent": "coverage_gap",
			"expected_agents": ["geospatial", "validator"],
			"difficulty": "medium"
		}
	]`)

	queries, err := LoadGoldenQueries(path)
	require.NoError(t, err)
	require.Len(t, queries, 2)

	assert.Equal(t, "q1", queries[0].ID)
	assert.Equal(t, entities.IntentCounting, queries[0].ExpectedIntent)
	assert.Equal(t, []entities.AgentName{entities.AgentGeospatial, entities.AgentValidator}, queries[1].ExpectedAgents)
}

func TestLoadGoldenQueries_MissingFile(t *testing.T) {
	_, err := LoadGoldenQueries(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadGoldenQueries_BadJSON(t *testing.T) {
	path := writeGoldenFile(t, `{not json`)
	_, err := LoadGoldenQueries(path)
	assert.Error(t, err)
}

func TestValidateGoldenQueries(t *testing.T) {
	valid := []GoldenQuery{
		{ID: "q1", Query: "How many clinics?", ExpectedIntent: entities.IntentCounting,
			ExpectedAgents: []entities.AgentName{entities.AgentTabular}, Difficulty: "easy"},
	}
	assert.NoError(t, ValidateGoldenQueries(valid))
}

func TestValidateGoldenQueries_Rejections(t *testing.T) {
	cases := []struct {
		name    string
		queries []GoldenQuery
	}{
		{
			name:    "missing id",
			queries: []GoldenQuery{{Query: "x", ExpectedIntent: entities.IntentCounting, Difficulty: "easy"}},
		},
		{
			name: "duplicate id",
			queries: []GoldenQuery{
				{ID: "q1", Query: "x", ExpectedIntent: entities.IntentCounting, Difficulty: "easy"},
				{ID: "q1", Query: "y", ExpectedIntent: entities.IntentCounting, Difficulty: "easy"},
			},
		},
		{
			name:    "missing query text",
			queries: []GoldenQuery{{ID: "q1", ExpectedIntent: entities.IntentCounting, Difficulty: "easy"}},
		},
		{
			name:    "invalid intent",
			queries: []GoldenQuery{{ID: "q1", Query: "x", ExpectedIntent: "bogus", Difficulty: "easy"}},
		},
		{
			name: "unknown agent",
			queries: []GoldenQuery{{ID: "q1", Query: "x", ExpectedIntent: entities.IntentCounting,
				ExpectedAgents: []entities.AgentName{"oracle"}, Difficulty: "easy"}},
		},
		{
			name:    "invalid difficulty",
			queries: []GoldenQuery{{ID: "q1", Query: "x", ExpectedIntent: entities.IntentCounting, Difficulty: "impossible"}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, ValidateGoldenQueries(tc.queries))
		})
	}
}
