package providers

import (
	"context"

	"github.com/virtuefdn/medbridge/backend/internal/domain/entities"
)

// Synthesizer turns fused agent results into a plain-language summary.
type Synthesizer interface {
	// Synthesize returns a summary of at most ~200 words. Callers fall
	// back to a deterministic per-agent summary on error.
	Synthesize(ctx context.Context, query string, intent entities.Intent, results []entities.AgentReport, trace []entities.TraceEntry, citations []entities.Citation) (string, error)
}

// IntentClassifier is the LLM fallback for the pattern-based supervisor.
type IntentClassifier interface {
	// ClassifyIntent returns an intent label and an ordered agent plan.
	ClassifyIntent(ctx context.Context, query string) (entities.Intent, []entities.AgentName, error)
}
