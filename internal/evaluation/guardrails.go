package evaluation

import "fmt"

// Gates are the pass/fail thresholds a routing evaluation must clear.
type Gates struct {
	MinIntentAccuracy  float64
	MinAgentRecall     float64
	MaxLLMFallbackRate float64
}

// DefaultGates returns the thresholds used in CI.
func DefaultGates() Gates {
	return Gates{
		MinIntentAccuracy:  0.85,
		MinAgentRecall:     0.90,
		MaxLLMFallbackRate: 0.20,
	}
}

// Check returns one error per violated threshold.
func (g Gates) Check(s *EvalSummary) []error {
	var violations []error
	if s.IntentAccuracy < g.MinIntentAccuracy {
		violations = append(violations, fmt.Errorf("intent accuracy %.3f below gate %.3f", s.IntentAccuracy, g.MinIntentAccuracy))
	}
	if s.AvgAgentRecall < g.MinAgentRecall {
		violations = append(violations, fmt.Errorf("agent recall %.3f below gate %.3f", s.AvgAgentRecall, g.MinAgentRecall))
	}
	if s.TotalQueries > 0 {
		rate := float64(s.LLMFallbacks) / float64(s.TotalQueries)
		if rate > g.MaxLLMFallbackRate {
			violations = append(violations, fmt.Errorf("LLM fallback rate %.3f above gate %.3f", rate, g.MaxLLMFallbackRate))
		}
	}
	return violations
}
