package services

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/virtuefdn/medbridge/backend/internal/adapters/catalog"
	"github.com/virtuefdn/medbridge/backend/internal/domain/entities"
	"github.com/virtuefdn/medbridge/backend/internal/geo"
	"github.com/virtuefdn/medbridge/backend/pkg/utils"
)

const fuzzyMatchThreshold = 75

var (
	validateCuePattern = regexp.MustCompile(`valid|claim.*lack|claim.*but|really.*offer`)
	anomalyCuePattern  = regexp.MustCompile(`anomal|unusual|suspicious|outlier|isolation`)
	redFlagCuePattern  = regexp.MustCompile(`red flag|temporary|visiting|camp|mission`)
	gapCuePattern      = regexp.MustCompile(`desert|gap|coverage|underserved|cold spot`)
	spofCuePattern     = regexp.MustCompile(`single point|few facilit|depend|rare`)
)

// ValidatorService checks facility claims against medical domain
// constraints, flags statistical outliers, and scans free text for
// red-flag language.
type ValidatorService struct {
	table *catalog.Table
}

// NewValidatorService creates the validator.
func NewValidatorService(table *catalog.Table) *ValidatorService {
	return &ValidatorService{table: table}
}

func (s *ValidatorService) Name() entities.AgentName { return entities.AgentValidator }

// Execute routes the utterance to exactly one analysis; the default
// runs constraint validation and anomaly detection together.
func (s *ValidatorService) Execute(ctx context.Context, utterance string, actx AgentContext) (map[string]any, []entities.Citation, error) {
	start := time.Now()
	q := strings.ToLower(utterance)

	var payload map[string]any
	var citations []entities.Citation

	switch {
	case validateCuePattern.MatchString(q):
		payload, citations = s.ValidateAll(ctx)
	case anomalyCuePattern.MatchString(q):
		payload, citations = s.DetectAnomalies(ctx)
	case redFlagCuePattern.MatchString(q):
		payload = s.DetectRedFlags(ctx)
	case gapCuePattern.MatchString(q):
		specialty, _ := utils.DetectSpecialty(utterance)
		payload = s.CoverageGaps(specialty)
	case spofCuePattern.MatchString(q):
		payload = s.SinglePointOfFailure()
	default:
		validation, valCitations := s.ValidateAll(ctx)
		anomalies, _ := s.DetectAnomalies(ctx)
		payload = map[string]any{
			"action":     "comprehensive_analysis",
			"validation": validation,
			"anomalies":  anomalies,
		}
		citations = valCitations
	}

	payload["query"] = utterance
	payload["duration_ms"] = durationMS(start)
	return payload, citations, nil
}

type facilityIssue struct {
	Type        string
	Severity    string
	Specialty   string
	Requirement string
	Message     string
}

// ValidateFacility checks one facility's specialty claims against the
// procedure requirement table.
func (s *ValidatorService) ValidateFacility(f *entities.Facility) map[string]any {
	allText := strings.ToLower(strings.Join([]string{
		strings.Join(f.Procedures, " "),
		strings.Join(f.Equipment, " "),
		strings.Join(f.Capabilities, " "),
		f.Document,
	}, " "))

	var issues []facilityIssue
	for _, spec := range f.Specialties {
		for _, procClass := range procedureClassOrder {
			if !specialtyMatchesProcedure(spec, procClass) {
				continue
			}
			reqs := procedureRequirements[procClass]

			for _, equip := range reqs.RequiredEquipment {
				if !utils.FuzzyContains(allText, equip, fuzzyMatchThreshold) {
					issues = append(issues, facilityIssue{
						Type:        "missing_equipment",
						Severity:    "high",
						Specialty:   spec,
						Requirement: equip,
						Message:     fmt.Sprintf("Claims '%s' but no mention of required '%s'", spec, equip),
					})
				}
			}

			if f.Beds != nil && *f.Beds < reqs.MinBeds {
				issues = append(issues, facilityIssue{
					Type:        "insufficient_capacity",
					Severity:    "medium",
					Specialty:   spec,
					Requirement: fmt.Sprintf("min %d beds", reqs.MinBeds),
					Message:     fmt.Sprintf("Claims '%s' but only %d beds (need %d+)", spec, *f.Beds, reqs.MinBeds),
				})
			}

			for _, cap := range reqs.RequiredCapability {
				if !utils.FuzzyContains(allText, cap, fuzzyMatchThreshold) {
					issues = append(issues, facilityIssue{
						Type:        "missing_capability",
						Severity:    "medium",
						Specialty:   spec,
						Requirement: cap,
						Message:     fmt.Sprintf("Claims '%s' but no mention of required '%s'", spec, cap),
					})
				}
			}
		}
	}

	confidence, completeness := confidenceScore(f.TotalClaims(), issues)

	issueRecords := make([]map[string]any, 0, len(issues))
	for _, issue := range issues {
		issueRecords = append(issueRecords, map[string]any{
			"type":        issue.Type,
			"severity":    issue.Severity,
			"specialty":   issue.Specialty,
			"requirement": issue.Requirement,
			"message":     issue.Message,
		})
	}

	rec := map[string]any{
		"facility":            f.Name,
		"valid":               len(issues) == 0,
		"confidence":          round2(confidence),
		"issues":              issueRecords,
		"num_issues":          len(issues),
		"specialties_checked": f.Specialties,
		"data_completeness":   round2(completeness),
		"city":                f.City,
		"region":              f.Region,
		"citation": map[string]any{
			"source":           f.Name,
			"specialties":      f.Specialties,
			"equipment_found":  headOf(f.Equipment, 5),
			"procedures_found": headOf(f.Procedures, 5),
			"beds":             f.Beds,
		},
	}
	if f.HasCoordinates() {
		rec["latitude"] = *f.Latitude
		rec["longitude"] = *f.Longitude
	}
	return rec
}

// confidenceScore applies the diminishing penalty model. The first
// high-severity issue costs the most; later issues cost less.
func confidenceScore(totalClaims int, issues []facilityIssue) (confidence, completeness float64) {
	completeness = 0.1
	if totalClaims > 0 {
		completeness = math.Min(1, float64(totalClaims)/10)
	}

	if len(issues) == 0 {
		return 0.7 + 0.3*completeness, completeness
	}

	high, medium := 0, 0
	for _, issue := range issues {
		if issue.Severity == "high" {
			high++
		} else {
			medium++
		}
	}

	penalty := 0.0
	for h := 0; h < high; h++ {
		switch h {
		case 0:
			penalty += 0.15
		case 1:
			penalty += 0.10
		default:
			penalty += 0.05
		}
	}
	for m := 0; m < medium; m++ {
		if m == 0 {
			penalty += 0.08
		} else {
			penalty += 0.04
		}
	}

	confidence = 1 - penalty
	if confidence < 0.10 {
		confidence = 0.10
	}
	if confidence > 0.95 {
		confidence = 0.95
	}
	return confidence, completeness
}

// ValidateAll runs constraint validation over the whole catalog and
// returns the facilities with issues, least confident first.
func (s *ValidatorService) ValidateAll(ctx context.Context) (map[string]any, []entities.Citation) {
	var flagged []map[string]any
	highTotal, mediumTotal := 0, 0
	var confidenceSum float64

	for _, f := range s.table.Facilities() {
		if ctx.Err() != nil {
			break
		}
		rec := s.ValidateFacility(f)
		if rec["num_issues"].(int) == 0 {
			continue
		}
		flagged = append(flagged, rec)
		confidenceSum += rec["confidence"].(float64)
		for _, issue := range rec["issues"].([]map[string]any) {
			if issue["severity"] == "high" {
				highTotal++
			} else {
				mediumTotal++
			}
		}
	}

	sort.SliceStable(flagged, func(a, b int) bool {
		return flagged[a]["confidence"].(float64) < flagged[b]["confidence"].(float64)
	})

	avgConfidence := 1.0
	if len(flagged) > 0 {
		avgConfidence = round2(confidenceSum / float64(len(flagged)))
	}

	top := flagged
	if len(top) > 20 {
		top = top[:20]
	}
	if top == nil {
		top = []map[string]any{}
	}

	citations := make([]entities.Citation, 0, len(top))
	for _, rec := range top {
		citations = append(citations, entities.Citation{
			SourceID: rec["facility"].(string),
			Field:    "constraint_validation",
			Evidence: fmt.Sprintf("%d issues, confidence %.2f", rec["num_issues"].(int), rec["confidence"].(float64)),
		})
	}

	return map[string]any{
		"action":                 "constraint_validation",
		"total_checked":          s.table.Len(),
		"facilities_with_issues": len(flagged),
		"flagged_facilities":     top,
		"summary": map[string]any{
			"high_severity":   highTotal,
			"medium_severity": mediumTotal,
			"avg_confidence":  avgConfidence,
		},
	}, citations
}

// DetectAnomalies runs the two-stage outlier detector. A facility is
// reported only when the isolation forest and the Mahalanobis check
// both flag it.
func (s *ValidatorService) DetectAnomalies(ctx context.Context) (map[string]any, []entities.Citation) {
	facilities := s.table.Facilities()
	n := len(facilities)
	if n == 0 {
		return map[string]any{
			"action":           "anomaly_detection",
			"model":            "IsolationForest + Mahalanobis (two-stage)",
			"total_checked":    0,
			"stage1_outliers":  0,
			"stage2_confirmed": 0,
			"anomalies_found":  0,
			"results":          []map[string]any{},
		}, nil
	}

	var bedsPresent, doctorsPresent []float64
	for _, f := range facilities {
		if f.Beds != nil {
			bedsPresent = append(bedsPresent, float64(*f.Beds))
		}
		if f.Doctors != nil {
			doctorsPresent = append(doctorsPresent, float64(*f.Doctors))
		}
	}
	bedsMedian := medianOf(bedsPresent)
	doctorsMedian := medianOf(doctorsPresent)

	features := make([][]float64, n)
	for i, f := range facilities {
		beds := bedsMedian
		if f.Beds != nil {
			beds = float64(*f.Beds)
		}
		doctors := doctorsMedian
		if f.Doctors != nil {
			doctors = float64(*f.Doctors)
		}
		features[i] = []float64{
			float64(len(f.Specialties)),
			float64(len(f.Procedures)),
			float64(len(f.Equipment)),
			float64(len(f.Capabilities)),
			beds,
			doctors,
		}
	}

	scaled := zscore(features)
	isoScores := isolationScores(scaled)
	mahaSq := mahalanobisSquared(scaled)
	chiThreshold := chiSquareCritical99(len(features[0]))

	stage1 := 0
	type flaggedRow struct {
		idx      int
		decision float64
		mahaDist float64
	}
	var confirmed []flaggedRow
	for i := range facilities {
		isOutlier := isoScores[i] > 0.5
		if isOutlier {
			stage1++
		}
		if isOutlier && mahaSq[i] > chiThreshold {
			confirmed = append(confirmed, flaggedRow{
				idx:      i,
				decision: 0.5 - isoScores[i],
				mahaDist: math.Sqrt(mahaSq[i]),
			})
		}
	}
	sort.Slice(confirmed, func(a, b int) bool {
		return confirmed[a].decision < confirmed[b].decision
	})

	results := make([]map[string]any, 0, len(confirmed))
	for _, row := range confirmed {
		f := facilities[row.idx]
		feats := features[row.idx]
		rec := map[string]any{
			"facility":             f.Name,
			"city":                 f.City,
			"region":               f.Region,
			"anomaly_score":        round3(row.decision),
			"mahalanobis_distance": round2(row.mahaDist),
			"num_specialties":      len(f.Specialties),
			"num_procedures":       len(f.Procedures),
			"num_equipment":        len(f.Equipment),
			"beds":                 feats[4],
			"doctors":              feats[5],
			"reasons":              anomalyReasons(f, feats[4], feats[5]),
		}
		if f.HasCoordinates() {
			rec["latitude"] = *f.Latitude
			rec["longitude"] = *f.Longitude
		}
		results = append(results, rec)
	}
	if len(results) > 20 {
		results = results[:20]
	}

	citations := make([]entities.Citation, 0, len(results))
	for _, rec := range results {
		citations = append(citations, entities.Citation{
			SourceID: rec["facility"].(string),
			Field:    "two_stage_anomaly_detection",
			Evidence: strings.Join(rec["reasons"].([]string), "; "),
		})
	}

	return map[string]any{
		"action":           "anomaly_detection",
		"model":            "IsolationForest + Mahalanobis (two-stage)",
		"total_checked":    n,
		"stage1_outliers":  stage1,
		"stage2_confirmed": len(confirmed),
		"anomalies_found":  len(confirmed),
		"results":          results,
	}, citations
}

func anomalyReasons(f *entities.Facility, beds, doctors float64) []string {
	var reasons []string
	if len(f.Procedures) > 10 && len(f.Equipment) < 2 {
		reasons = append(reasons, "High procedure count but minimal equipment")
	}
	if beds > 0 && doctors > 0 && beds/doctors > 50 {
		reasons = append(reasons, fmt.Sprintf("Extreme bed-to-doctor ratio: %.0f", beds/doctors))
	}
	if len(f.Specialties) > 8 {
		reasons = append(reasons, fmt.Sprintf("Unusually high specialty count: %d", len(f.Specialties)))
	}
	if len(f.Procedures) > 15 && beds < 20 {
		reasons = append(reasons, "Many procedures claimed but very low capacity")
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "Statistical outlier confirmed by both Isolation Forest and Mahalanobis distance")
	}
	return reasons
}

// DetectRedFlags scans facility free text for language suggesting
// temporary or overstated capability.
func (s *ValidatorService) DetectRedFlags(ctx context.Context) map[string]any {
	var flagged []map[string]any

	for _, f := range s.table.Facilities() {
		if ctx.Err() != nil {
			break
		}
		fullText := strings.ToLower(strings.Join([]string{
			f.Document,
			strings.Join(f.Procedures, " "),
			strings.Join(f.Capabilities, " "),
		}, " "))

		var flags []map[string]any
		for _, category := range redFlagCategories {
			for _, pattern := range redFlagPatterns[category] {
				if match := pattern.FindString(fullText); match != "" {
					flags = append(flags, map[string]any{
						"category":     category,
						"pattern":      pattern.String(),
						"matched_text": match,
					})
				}
			}
		}
		if len(flags) == 0 {
			continue
		}

		rec := map[string]any{
			"facility":       f.Name,
			"city":           f.City,
			"region":         f.Region,
			"flags":          flags,
			"num_flags":      len(flags),
			"recommendation": redFlagRecommendation(flags),
		}
		if f.HasCoordinates() {
			rec["latitude"] = *f.Latitude
			rec["longitude"] = *f.Longitude
		}
		flagged = append(flagged, rec)
	}

	sort.SliceStable(flagged, func(a, b int) bool {
		return flagged[a]["num_flags"].(int) > flagged[b]["num_flags"].(int)
	})
	top := flagged
	if len(top) > 20 {
		top = top[:20]
	}
	if top == nil {
		top = []map[string]any{}
	}

	return map[string]any{
		"action":             "red_flag_detection",
		"total_scanned":      s.table.Len(),
		"facilities_flagged": len(flagged),
		"results":            top,
	}
}

func redFlagRecommendation(flags []map[string]any) string {
	categories := make(map[string]bool)
	for _, flag := range flags {
		categories[flag["category"].(string)] = true
	}
	switch {
	case categories["visiting_specialist"]:
		return "Likely relies on visiting specialists — verify permanent staffing"
	case categories["temporary_service"]:
		return "Appears to offer temporary/camp-based services — not permanent capability"
	case categories["vague_claim"]:
		return "Contains vague capability claims — verify specific procedures"
	}
	return "Review flagged language patterns"
}

// CoverageGaps lists regions with at most one facility offering the
// specialty, with centroids attached when known.
func (s *ValidatorService) CoverageGaps(specialty string) map[string]any {
	regionTotals := make(map[string]int)
	specialtyCounts := make(map[string]int)
	for _, f := range s.table.Facilities() {
		region := f.Region
		if region == "" {
			region = "Unknown"
		}
		regionTotals[region]++
		if specialty == "" || f.HasSpecialty(specialty) {
			specialtyCounts[region]++
		}
	}

	var gaps []map[string]any
	for region, total := range regionTotals {
		count := specialtyCounts[region]
		if count > 1 {
			continue
		}
		severity := "high"
		if count == 0 {
			severity = "critical"
		}
		gap := map[string]any{
			"region":           region,
			"specialty_count":  count,
			"total_facilities": total,
			"gap_severity":     severity,
		}
		if c, ok := geo.RegionCentroid(region); ok {
			gap["latitude"] = c.Lat
			gap["longitude"] = c.Lng
		}
		gaps = append(gaps, gap)
	}

	sort.SliceStable(gaps, func(a, b int) bool {
		ca, cb := gaps[a]["specialty_count"].(int), gaps[b]["specialty_count"].(int)
		if ca != cb {
			return ca < cb
		}
		return gaps[a]["region"].(string) < gaps[b]["region"].(string)
	})
	if gaps == nil {
		gaps = []map[string]any{}
	}

	label := specialty
	if label == "" {
		label = "all"
	}
	return map[string]any{
		"action":           "coverage_gap_analysis",
		"specialty":        label,
		"regions_analyzed": len(regionTotals),
		"gaps_found":       len(gaps),
		"gaps":             gaps,
	}
}

// SinglePointOfFailure reports specialties offered by at most three
// facilities, with risk level by count.
func (s *ValidatorService) SinglePointOfFailure() map[string]any {
	counts := make(map[string]int)
	covering := make(map[string][]map[string]any)
	for _, f := range s.table.Facilities() {
		for _, spec := range f.Specialties {
			counts[spec]++
			covering[spec] = append(covering[spec], map[string]any{
				"name":   f.Name,
				"city":   f.City,
				"region": f.Region,
			})
		}
	}

	var critical []map[string]any
	for spec, count := range counts {
		if count > 3 {
			continue
		}
		regions := make(map[string]bool)
		for _, fac := range covering[spec] {
			if r := fac["region"].(string); r != "" {
				regions[r] = true
			}
		}
		regionList := make([]string, 0, len(regions))
		for r := range regions {
			regionList = append(regionList, r)
		}
		sort.Strings(regionList)

		risk := "medium"
		switch count {
		case 1:
			risk = "critical"
		case 2:
			risk = "high"
		}
		critical = append(critical, map[string]any{
			"specialty":       spec,
			"facility_count":  count,
			"facilities":      covering[spec],
			"regions_covered": regionList,
			"risk_level":      risk,
		})
	}

	sort.SliceStable(critical, func(a, b int) bool {
		ca, cb := critical[a]["facility_count"].(int), critical[b]["facility_count"].(int)
		if ca != cb {
			return ca < cb
		}
		return critical[a]["specialty"].(string) < critical[b]["specialty"].(string)
	})
	if critical == nil {
		critical = []map[string]any{}
	}

	return map[string]any{
		"action":               "single_point_of_failure",
		"total_specialties":    len(counts),
		"critical_specialties": len(critical),
		"results":              critical,
	}
}

func headOf(list []string, n int) []string {
	if len(list) <= n {
		return list
	}
	return list[:n]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
