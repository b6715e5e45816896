package groq

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/virtuefdn/medbridge/backend/internal/domain/entities"
)

const synthesisSystemPrompt = `You are a healthcare intelligence assistant for the Virtue Foundation, an NGO working to improve healthcare access in Ghana.

Your job is to take structured data from multiple AI agents and produce a clear, actionable summary in plain English.

RULES:
1. Write for non-technical NGO planners — no code, no SQL, no technical jargon
2. Lead with the most important finding
3. Include specific numbers, facility names, and regions
4. Highlight actionable recommendations when applicable
5. Mention confidence levels and data quality concerns if relevant
6. Use bullet points for clarity
7. Keep it concise — aim for 3-8 sentences, max 200 words
8. If medical deserts or gaps are found, emphasize the human impact
9. Frame everything in terms of patient access and lives affected

EXAMPLES:
- Good: "There are 23 facilities offering cardiology services in Ghana, but 85% are concentrated in Greater Accra and Ashanti regions. Northern Region, with 2.8M people, has zero cardiology access — patients must travel 300+ km."
- Bad: "The query returned 23 rows from the database with specialty_id = 'cardiology'."

IMPORTANT: If there are suspicious claims or anomalies, explain them in terms NGO planners would understand (e.g., "This facility claims advanced surgery but appears to lack required equipment").`

const intentSystemPrompt = `You are a query classifier for a healthcare intelligence system analyzing Ghana's medical facilities.

Given a user query, determine the PRIMARY INTENT and which agents should handle it.

Available agents:
- tabular: Structured data queries (counts, lists, filters, aggregations)
- semantic: Semantic search in free-text medical records
- validator: Validate capabilities, detect anomalies, check constraints
- geospatial: Distance, radius search, coverage gaps, medical deserts
- planner: Emergency routing, specialist deployment, resource allocation

Return a JSON object with:
{
  "intent": "brief description of what user wants",
  "agents": ["agent1", "agent2"],
  "reasoning": "one sentence why these agents"
}

Rules:
- Use 1-3 agents max
- If unsure, include semantic as fallback
- Complex analytical queries should use multiple agents
- Simple count/list queries only need tabular
- Questions about gaps/deserts need geospatial + validator`

const maxTruncatedItems = 10

// buildSynthesisUserPrompt composes the user message from fused agent
// payloads, with large result lists truncated to stay inside token
// limits.
func buildSynthesisUserPrompt(query string, intent entities.Intent, results []entities.AgentReport, citations []entities.Citation) string {
	var contextParts []string
	for _, r := range results {
		summary := truncatePayload(r.Payload)
		encoded, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			encoded = []byte("{}")
		}
		contextParts = append(contextParts, fmt.Sprintf("--- %s AGENT ---\n%s", strings.ToUpper(string(r.Agent)), encoded))
	}

	citationInfo := ""
	if len(citations) > 0 {
		citationInfo = fmt.Sprintf("\n\nCitations: %d data points were used as evidence.", len(citations))
	}

	return fmt.Sprintf(`User Question: %q
Intent: %s

Agent Results:
%s
%s

Generate a clear, actionable summary for an NGO healthcare planner. Focus on what matters for patient access and resource allocation.`,
		query, intent, strings.Join(contextParts, "\n\n"), citationInfo)
}

// truncatePayload caps list values at maxTruncatedItems and notes what
// was dropped.
func truncatePayload(payload map[string]any) map[string]any {
	truncated := make(map[string]any, len(payload))
	for key, value := range payload {
		list, ok := asAnyList(value)
		if ok && len(list) > maxTruncatedItems {
			truncated[key] = list[:maxTruncatedItems]
			truncated["_"+key+"_note"] = fmt.Sprintf("Showing %d of %d total", maxTruncatedItems, len(list))
			continue
		}
		truncated[key] = value
	}
	return truncated
}

func asAnyList(value any) ([]any, bool) {
	switch v := value.(type) {
	case []any:
		return v, true
	case []map[string]any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = item
		}
		return out, true
	}
	return nil, false
}
