package services

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/virtuefdn/medbridge/backend/internal/domain/entities"
	"github.com/virtuefdn/medbridge/backend/internal/domain/providers"
	"github.com/virtuefdn/medbridge/backend/internal/infrastructure/observability"
)

// intentRule scores one pattern toward one intent. Classification is
// table-driven so each row can be tested on its own and new phrasing
// lands in data, not code.
type intentRule struct {
	intent  entities.Intent
	weight  int
	pattern *regexp.Regexp
}

var intentRules = []intentRule{
	{entities.IntentCounting, 3, regexp.MustCompile(`how many|number of`)},
	{entities.IntentCounting, 2, regexp.MustCompile(`\bcount\b|\btotal\b`)},

	{entities.IntentServiceSearch, 2, regexp.MustCompile(`offer|provide|perform`)},
	{entities.IntentServiceSearch, 1, regexp.MustCompile(`service|treatment|which (hospital|clinic|facilit)`)},

	{entities.IntentRegionSearch, 2, regexp.MustCompile(`facilit.* in |hospitals? in |clinics? in `)},
	{entities.IntentRegionSearch, 1, regexp.MustCompile(`\bregion\b|\bcity\b`)},

	{entities.IntentNearbySearch, 3, regexp.MustCompile(`nearest|closest`)},
	{entities.IntentNearbySearch, 2, regexp.MustCompile(`\bnear\b|within|radius|around`)},

	{entities.IntentCoverageGap, 3, regexp.MustCompile(`\bgaps?\b|cold.?spot`)},
	{entities.IntentCoverageGap, 2, regexp.MustCompile(`coverage|underserved`)},

	{entities.IntentEquipmentVerification, 3, regexp.MustCompile(`really (have|offer)|verify|actually (have|offer)`)},
	{entities.IntentEquipmentVerification, 1, regexp.MustCompile(`equipment|scanner|machine`)},

	{entities.IntentSuspiciousClaims, 4, regexp.MustCompile(`suspicious|red.?flag|fraud`)},
	{entities.IntentSuspiciousClaims, 3, regexp.MustCompile(`anomal|outlier|unusual`)},
	{entities.IntentSuspiciousClaims, 2, regexp.MustCompile(`valid|overstat|exaggerat`)},

	{entities.IntentCorrelation, 3, regexp.MustCompile(`correlat|relationship between`)},
	{entities.IntentCorrelation, 1, regexp.MustCompile(`\bratio\b|compare`)},

	{entities.IntentWorkforce, 3, regexp.MustCompile(`workforce|staffing|personnel`)},
	{entities.IntentWorkforce, 1, regexp.MustCompile(`doctors?|nurses?|staff`)},

	{entities.IntentResourceDistribution, 3, regexp.MustCompile(`rotation|deploy|placement|where.*build|new facilit`)},
	{entities.IntentResourceDistribution, 2, regexp.MustCompile(`distribut|capacity|emergency routing|route.*patient`)},
	{entities.IntentResourceDistribution, 1, regexp.MustCompile(`\bplan\b|scenario`)},

	{entities.IntentMedicalDesert, 4, regexp.MustCompile(`desert`)},
	{entities.IntentMedicalDesert, 2, regexp.MustCompile(`no access|far from (any|a) (hospital|facility)`)},

	{entities.IntentNGOSearch, 3, regexp.MustCompile(`\bngos?\b|non.governmental`)},
	{entities.IntentNGOSearch, 2, regexp.MustCompile(`foundation|charit|mission`)},
}

// intentOrder fixes tie-breaking; the first listed intent wins a tie.
var intentOrder = []entities.Intent{
	entities.IntentCounting,
	entities.IntentServiceSearch,
	entities.IntentRegionSearch,
	entities.IntentNearbySearch,
	entities.IntentCoverageGap,
	entities.IntentEquipmentVerification,
	entities.IntentSuspiciousClaims,
	entities.IntentCorrelation,
	entities.IntentWorkforce,
	entities.IntentResourceDistribution,
	entities.IntentMedicalDesert,
	entities.IntentNGOSearch,
	entities.IntentGeneralSearch,
}

// intentRouting maps each intent to its ordered agent plan.
var intentRouting = map[entities.Intent][]entities.AgentName{
	entities.IntentCounting:              {entities.AgentTabular},
	entities.IntentServiceSearch:         {entities.AgentTabular, entities.AgentSemantic},
	entities.IntentRegionSearch:          {entities.AgentTabular},
	entities.IntentNearbySearch:          {entities.AgentGeospatial},
	entities.IntentCoverageGap:           {entities.AgentGeospatial, entities.AgentValidator},
	entities.IntentEquipmentVerification: {entities.AgentValidator},
	entities.IntentSuspiciousClaims:      {entities.AgentValidator},
	entities.IntentCorrelation:           {entities.AgentTabular, entities.AgentValidator},
	entities.IntentWorkforce:             {entities.AgentTabular},
	entities.IntentResourceDistribution:  {entities.AgentPlanner},
	entities.IntentMedicalDesert:         {entities.AgentGeospatial},
	entities.IntentNGOSearch:             {entities.AgentSemantic},
	entities.IntentGeneralSearch:         {entities.AgentSemantic},
}

// ExecutionPlan is the supervisor's routing decision for one utterance.
type ExecutionPlan struct {
	Intent     entities.Intent
	Agents     []entities.AgentName
	Confidence float64
	LLMUsed    bool
	DurationMS float64
}

// SupervisorService classifies utterances with the weighted pattern
// table and falls back to an LLM classifier when no pattern matches.
type SupervisorService struct {
	classifier providers.IntentClassifier
	llmEnabled bool
}

// NewSupervisorService creates the supervisor. The classifier may be
// nil when the LLM fallback is disabled.
func NewSupervisorService(classifier providers.IntentClassifier, llmEnabled bool) *SupervisorService {
	return &SupervisorService{classifier: classifier, llmEnabled: llmEnabled && classifier != nil}
}

// Plan classifies the utterance and returns the ordered agent list.
// A plan is never empty: total classification failure routes to the
// semantic retriever.
func (s *SupervisorService) Plan(ctx context.Context, utterance string) ExecutionPlan {
	start := time.Now()

	intent, score := classifyByPatterns(utterance)
	agents := intentRouting[intent]

	plan := ExecutionPlan{
		Intent:     intent,
		Agents:     agents,
		Confidence: patternConfidence(score),
	}

	if (score == 0 || len(agents) == 0) && s.llmEnabled {
		if llmIntent, llmAgents, err := s.classifier.ClassifyIntent(ctx, utterance); err == nil && len(llmAgents) > 0 {
			plan.Intent = llmIntent
			plan.Agents = llmAgents
			plan.Confidence = 0.6
			plan.LLMUsed = true
		} else if err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Msg("llm intent fallback failed")
		}
	}

	if len(plan.Agents) == 0 {
		plan.Agents = []entities.AgentName{entities.AgentSemantic}
	}

	plan.DurationMS = durationMS(start)
	return plan
}

// classifyByPatterns sums rule weights per intent; the highest score
// wins, ties resolved by intent order. A zero score means general
// search.
func classifyByPatterns(utterance string) (entities.Intent, int) {
	lower := strings.ToLower(utterance)

	scores := make(map[entities.Intent]int)
	for _, rule := range intentRules {
		if rule.pattern.MatchString(lower) {
			scores[rule.intent] += rule.weight
		}
	}

	best := entities.IntentGeneralSearch
	bestScore := 0
	for _, intent := range intentOrder {
		if scores[intent] > bestScore {
			best = intent
			bestScore = scores[intent]
		}
	}
	return best, bestScore
}

func patternConfidence(score int) float64 {
	switch {
	case score >= 5:
		return 0.95
	case score >= 3:
		return 0.85
	case score >= 2:
		return 0.7
	case score == 1:
		return 0.5
	default:
		return 0.2
	}
}
