package evaluation

import "github.com/virtuefdn/medbridge/backend/internal/domain/entities"

// AgentPrecision computes the fraction of routed agents that were
// expected. Returns 1.0 when nothing was routed and nothing expected.
func AgentPrecision(expected, actual []entities.AgentName) float64 {
	if len(actual) == 0 {
		if len(expected) == 0 {
			return 1.0
		}
		return 0.0
	}

	expectedSet := make(map[entities.AgentName]struct{}, len(expected))
	for _, a := range expected {
		expectedSet[a] = struct{}{}
	}

	hits := 0
	for _, a := range actual {
		if _, ok := expectedSet[a]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(actual))
}

// AgentRecall computes the fraction of expected agents that were
// routed. Returns 1.0 when nothing was expected.
func AgentRecall(expected, actual []entities.AgentName) float64 {
	if len(expected) == 0 {
		return 1.0
	}

	actualSet := make(map[entities.AgentName]struct{}, len(actual))
	for _, a := range actual {
		actualSet[a] = struct{}{}
	}

	hits := 0
	for _, a := range expected {
		if _, ok := actualSet[a]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(expected))
}
