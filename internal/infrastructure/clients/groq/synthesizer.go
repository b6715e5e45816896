package groq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/virtuefdn/medbridge/backend/internal/domain/entities"
	"github.com/virtuefdn/medbridge/backend/internal/domain/providers"
)

var _ providers.Synthesizer = (*Client)(nil)
var _ providers.IntentClassifier = (*Client)(nil)

// Synthesize produces a plain-language summary of agent results.
func (c *Client) Synthesize(ctx context.Context, query string, intent entities.Intent, results []entities.AgentReport, trace []entities.TraceEntry, citations []entities.Citation) (string, error) {
	user := buildSynthesisUserPrompt(query, intent, results, citations)
	text, err := c.Chat(ctx, synthesisSystemPrompt, user, 512, 0.3)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

type intentPayload struct {
	Intent    string   `json:"intent"`
	Agents    []string `json:"agents"`
	Reasoning string   `json:"reasoning"`
}

// ClassifyIntent asks the model for an intent label and agent plan.
// Unknown agent names are dropped; an empty plan is an error so the
// caller can fall back to pattern routing.
func (c *Client) ClassifyIntent(ctx context.Context, query string) (entities.Intent, []entities.AgentName, error) {
	text, err := c.Chat(ctx, intentSystemPrompt, query, 256, 0.1)
	if err != nil {
		return "", nil, err
	}

	var payload intentPayload
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &payload); err != nil {
		return "", nil, fmt.Errorf("failed to parse intent payload: %w", err)
	}

	var agents []entities.AgentName
	for _, name := range payload.Agents {
		agent := entities.AgentName(strings.ToLower(strings.TrimSpace(name)))
		if entities.IsKnownAgent(agent) {
			agents = append(agents, agent)
		}
	}
	if len(agents) == 0 {
		return "", nil, errors.New("intent payload named no known agents")
	}

	return entities.Intent(payload.Intent), agents, nil
}
