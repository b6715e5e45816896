package evaluation

import (
	"context"
	"time"

	"github.com/virtuefdn/medbridge/backend/internal/application/services"
)

// RoutePlanner is the slice of the supervisor the runner needs.
type RoutePlanner interface {
	Plan(ctx context.Context, utterance string) services.ExecutionPlan
}

// Runner scores the supervisor's routing against a golden query set.
type Runner struct {
	planner RoutePlanner
}

func NewRunner(planner RoutePlanner) *Runner {
	return &Runner{planner: planner}
}

func (r *Runner) Run(ctx context.Context, queries []GoldenQuery) (*EvalSummary, error) {
	summary := &EvalSummary{
		TotalQueries: len(queries),
		ByDifficulty: make(map[string]*DifficultySummary),
	}

	for _, gq := range queries {
		start := time.Now()
		plan := r.planner.Plan(ctx, gq.Query)
		duration := time.Since(start)

		result := EvalResult{
			QueryID:        gq.ID,
			Query:          gq.Query,
			ExpectedIntent: gq.ExpectedIntent,
			ActualIntent:   plan.Intent,
			IntentCorrect:  plan.Intent == gq.ExpectedIntent,
			AgentPrecision: AgentPrecision(gq.ExpectedAgents, plan.Agents),
			AgentRecall:    AgentRecall(gq.ExpectedAgents, plan.Agents),
			Confidence:     plan.Confidence,
			LLMUsed:        plan.LLMUsed,
			Latency:        duration,
		}

		r.updateSummary(summary, gq.Difficulty, result)
	}

	r.finalizeSummary(summary)
	return summary, nil
}

func (r *Runner) updateSummary(s *EvalSummary, difficulty string, res EvalResult) {
	if res.IntentCorrect {
		s.IntentAccuracy++
	} else {
		s.Failures = append(s.Failures, res)
	}
	s.AvgAgentPrecision += res.AgentPrecision
	s.AvgAgentRecall += res.AgentRecall
	s.AvgConfidence += res.Confidence
	s.AvgLatency += res.Latency
	if res.LLMUsed {
		s.LLMFallbacks++
	}

	if _, ok := s.ByDifficulty[difficulty]; !ok {
		s.ByDifficulty[difficulty] = &DifficultySummary{}
	}
	ds := s.ByDifficulty[difficulty]
	ds.Count++
	if res.IntentCorrect {
		ds.IntentAccuracy++
	}
	ds.AvgAgentRecall += res.AgentRecall
}

func (r *Runner) finalizeSummary(s *EvalSummary) {
	if s.TotalQueries > 0 {
		n := float64(s.TotalQueries)
		s.IntentAccuracy /= n
		s.AvgAgentPrecision /= n
		s.AvgAgentRecall /= n
		s.AvgConfidence /= n
		s.AvgLatency /= time.Duration(s.TotalQueries)
	}

	for _, ds := range s.ByDifficulty {
		if ds.Count > 0 {
			n := float64(ds.Count)
			ds.IntentAccuracy /= n
			ds.AvgAgentRecall /= n
		}
	}
}
