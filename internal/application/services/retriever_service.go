package services

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/virtuefdn/medbridge/backend/internal/domain/entities"
	"github.com/virtuefdn/medbridge/backend/internal/domain/repositories"
	"github.com/virtuefdn/medbridge/backend/internal/infrastructure/observability"
	"github.com/virtuefdn/medbridge/backend/pkg/utils"
)

const (
	rrfK          = 60
	defaultTopK   = 10
	maxFetchK     = 30
	weightsTotal  = 3.0
	maxTopicBoost = 3
)

var clinicalKeywords = []string{
	"procedure", "equipment", "surgery", "operation", "device",
	"machine", "scanner", "theater", "operating", "diagnostic",
	"ct scan", "mri", "x-ray", "ultrasound", "laboratory",
	"icu", "nicu", "ventilator", "oxygen", "bed capacity",
}

var specialtyTopicKeywords = []string{
	"specialty", "specialties", "speciali",
	"cardiology", "ophthalmology", "orthopedic", "pediatric",
	"obstetric", "gynecology", "neurology", "oncology",
	"dermatology", "psychiatry", "radiology", "anesthesia",
	"dentistry", "dental",
}

// retrieverCities is ordered longest-first so multi-word cities win.
var retrieverCities = []string{
	"Cape Coast", "Bolgatanga", "Koforidua", "Takoradi", "Sunyani",
	"Kumasi", "Tamale", "Accra", "Tema", "Wa", "Ho",
}

var cityPatterns = func() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(retrieverCities))
	for _, city := range retrieverCities {
		patterns[city] = regexp.MustCompile(`\b` + regexp.QuoteMeta(strings.ToLower(city)) + `\b`)
	}
	return patterns
}()

// RetrieverService runs semantic search across the three named vectors
// and fuses the ranked lists with Reciprocal Rank Fusion.
type RetrieverService struct {
	repo    repositories.VectorSearchRepository
	timeout time.Duration
}

// NewRetrieverService creates the semantic retriever.
func NewRetrieverService(repo repositories.VectorSearchRepository, timeout time.Duration) *RetrieverService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RetrieverService{repo: repo, timeout: timeout}
}

func (s *RetrieverService) Name() entities.AgentName { return entities.AgentSemantic }

// Execute runs the fused search for an utterance.
func (s *RetrieverService) Execute(ctx context.Context, utterance string, actx AgentContext) (map[string]any, []entities.Citation, error) {
	start := time.Now()

	filters := extractSearchFilters(utterance)
	weights := vectorWeights(utterance)

	fused := s.fusedSearch(ctx, utterance, defaultTopK, filters, weights)
	if len(fused) == 0 && !filters.IsEmpty() {
		// one-shot retry without filters
		fused = s.fusedSearch(ctx, utterance, defaultTopK, entities.SearchFilters{}, weights)
	}

	citations := make([]entities.Citation, 0, len(fused))
	results := make([]map[string]any, 0, len(fused))
	for _, item := range fused {
		results = append(results, hitRecord(item.hit, item.score))
		score := item.score
		citations = append(citations, entities.Citation{
			SourceID: item.hit.ID,
			Field:    "document",
			Evidence: truncateText(item.hit.DocumentText, 200),
			Score:    &score,
		})
	}

	payload := map[string]any{
		"action":          "semantic_search",
		"query":           utterance,
		"filters_applied": filtersRecord(filters),
		"vector_weights":  weightsRecord(weights),
		"count":           len(results),
		"results":         results,
		"duration_ms":     durationMS(start),
	}
	return payload, citations, nil
}

// SearchForService issues a single clinical-vector search for a named
// service, optionally scoped to a region.
func (s *RetrieverService) SearchForService(ctx context.Context, service, region string, topK int) (map[string]any, error) {
	query := fmt.Sprintf("facility offering %s", service)
	if region != "" {
		query += fmt.Sprintf(" in %s", region)
	}

	start := time.Now()
	filters := entities.SearchFilters{City: region}
	hits := s.searchVector(ctx, query, entities.VectorClinicalDetail, topK, filters)

	results := make([]map[string]any, 0, len(hits))
	for _, h := range hits {
		results = append(results, hitRecord(h, h.Score))
	}

	return map[string]any{
		"action":      "service_search",
		"query":       query,
		"service":     service,
		"region":      region,
		"vector_used": string(entities.VectorClinicalDetail),
		"count":       len(results),
		"results":     results,
		"duration_ms": durationMS(start),
	}, nil
}

type fusedHit struct {
	hit   entities.SearchHit
	score float64
	order int
}

// fusedSearch queries every vector with its rewritten query and fuses
// the ranked lists. A failed vector contributes nothing.
func (s *RetrieverService) fusedSearch(ctx context.Context, utterance string, topK int, filters entities.SearchFilters, weights map[entities.VectorName]float64) []fusedHit {
	fetchK := topK * 3
	if fetchK > maxFetchK {
		fetchK = maxFetchK
	}

	scores := make(map[string]*fusedHit)
	order := 0
	for _, vector := range entities.AllVectors {
		hits := s.searchVector(ctx, rewriteQuery(utterance, vector), vector, fetchK, filters)
		weight := weights[vector]
		for rank, hit := range hits {
			entry, seen := scores[hit.ID]
			if !seen {
				entry = &fusedHit{hit: hit, order: order}
				scores[hit.ID] = entry
				order++
			} else if len(hit.DocumentText) > len(entry.hit.DocumentText) {
				// keep the richest payload seen
				entry.hit = hit
			}
			entry.score += weight / float64(rrfK+rank+1)
		}
	}

	fused := make([]fusedHit, 0, len(scores))
	for _, entry := range scores {
		fused = append(fused, *entry)
	}
	sort.Slice(fused, func(a, b int) bool {
		if fused[a].score != fused[b].score {
			return fused[a].score > fused[b].score
		}
		return fused[a].order < fused[b].order
	})
	if len(fused) > topK {
		fused = fused[:topK]
	}
	return fused
}

func (s *RetrieverService) searchVector(ctx context.Context, query string, vector entities.VectorName, fetchK int, filters entities.SearchFilters) []entities.SearchHit {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	hits, err := s.repo.Search(callCtx, query, vector, fetchK, filters)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Str("vector", string(vector)).
			Msg("vector search leg failed")
		return nil
	}
	return hits
}

// rewriteQuery rephrases the utterance to match how each vector's
// source text was indexed.
func rewriteQuery(query string, vector entities.VectorName) string {
	switch vector {
	case entities.VectorClinicalDetail:
		return fmt.Sprintf("Procedures: %s | Equipment: %s", query, query)
	case entities.VectorSpecialtiesContext:
		return fmt.Sprintf("facility with specialties: %s", query)
	default:
		return query
	}
}

// vectorWeights gives each vector base weight 1 plus up to three topic
// keyword hits, then normalizes the weights to sum to 3.0.
func vectorWeights(query string) map[entities.VectorName]float64 {
	ql := strings.ToLower(query)

	weights := map[entities.VectorName]float64{
		entities.VectorFullDocument:       1,
		entities.VectorClinicalDetail:     1 + float64(topicHits(ql, clinicalKeywords)),
		entities.VectorSpecialtiesContext: 1 + float64(topicHits(ql, specialtyTopicKeywords)),
	}

	var total float64
	for _, w := range weights {
		total += w
	}
	for v, w := range weights {
		weights[v] = w * weightsTotal / total
	}
	return weights
}

func topicHits(ql string, keywords []string) int {
	hits := 0
	for _, kw := range keywords {
		if strings.Contains(ql, kw) {
			hits++
			if hits == maxTopicBoost {
				break
			}
		}
	}
	return hits
}

// extractSearchFilters pulls metadata filters out of the utterance.
func extractSearchFilters(query string) entities.SearchFilters {
	ql := strings.ToLower(query)
	filters := entities.SearchFilters{}

	if strings.Contains(ql, "ngo") || strings.Contains(ql, "foundation") || strings.Contains(ql, "non-governmental") {
		filters.OrgType = "ngo"
	} else if strings.Contains(ql, "facility") {
		filters.OrgType = "facility"
	}

	for _, ft := range facilityTypeKeywords {
		if strings.Contains(ql, ft) {
			filters.FacilityType = ft
			break
		}
	}

	for _, city := range retrieverCities {
		if cityPatterns[city].MatchString(ql) {
			filters.City = city
			break
		}
	}

	filters.Specialties = utils.DetectSpecialties(query)
	return filters
}

func hitRecord(h entities.SearchHit, score float64) map[string]any {
	rec := map[string]any{
		"id":            h.ID,
		"score":         score,
		"name":          h.Name,
		"org_type":      h.OrgType,
		"facility_type": h.FacilityType,
		"city":          h.City,
		"region":        h.Region,
		"specialties":   h.Specialties,
	}
	if h.Lat != nil && h.Lng != nil {
		rec["latitude"] = *h.Lat
		rec["longitude"] = *h.Lng
	}
	if h.Beds != nil {
		rec["beds"] = *h.Beds
	}
	if h.Doctors != nil {
		rec["doctors"] = *h.Doctors
	}
	return rec
}

func filtersRecord(f entities.SearchFilters) map[string]any {
	rec := map[string]any{}
	if f.OrgType != "" {
		rec["org_type"] = f.OrgType
	}
	if f.FacilityType != "" {
		rec["facility_type"] = f.FacilityType
	}
	if f.City != "" {
		rec["city"] = f.City
	}
	if len(f.Specialties) > 0 {
		rec["specialties"] = f.Specialties
	}
	return rec
}

func weightsRecord(weights map[entities.VectorName]float64) map[string]float64 {
	rec := make(map[string]float64, len(weights))
	for v, w := range weights {
		rec[string(v)] = w
	}
	return rec
}

// truncateText cuts s to at most n bytes, backing up to the nearest
// rune boundary so the result is always valid UTF-8.
func truncateText(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
