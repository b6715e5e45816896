package groq

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/virtuefdn/medbridge/backend/internal/domain/entities"
)

func TestTruncatePayload(t *testing.T) {
	items := make([]any, 25)
	for i := range items {
		items[i] = map[string]any{"n": i}
	}

	out := truncatePayload(map[string]any{
		"results": items,
		"count":   25,
	})

	assert.Len(t, out["results"], 10)
	assert.Equal(t, "Showing 10 of 25 total", out["_results_note"])
	assert.Equal(t, 25, out["count"])
}

func TestBuildSynthesisUserPrompt(t *testing.T) {
	prompt := buildSynthesisUserPrompt(
		"how many hospitals in Accra",
		"counting",
		[]entities.AgentReport{{
			Agent:   entities.AgentTabular,
			Payload: map[string]any{"count": 12},
		}},
		[]entities.Citation{{SourceID: "f1"}},
	)

	assert.Contains(t, prompt, `"how many hospitals in Accra"`)
	assert.Contains(t, prompt, "--- TABULAR AGENT ---")
	assert.Contains(t, prompt, "Citations: 1 data points")
}

func TestStripCodeFence(t *testing.T) {
	fenced := "```json\n{\"intent\": \"counting\"}\n```"
	assert.Equal(t, `{"intent": "counting"}`, stripCodeFence(fenced))

	plain := `{"intent": "counting"}`
	assert.Equal(t, plain, stripCodeFence(plain))
	assert.False(t, strings.Contains(stripCodeFence(fenced), "```"))
}
