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
	"github.com/virtuefdn/medbridge/backend/pkg/utils"
)

// AgentContext carries the caller-supplied query context plus payloads
// from agents that already ran in this request.
type AgentContext struct {
	Query *entities.QueryContext
	Prior map[entities.AgentName]map[string]any
}

// Agent is a single analytic step in the pipeline.
type Agent interface {
	Name() entities.AgentName
	Execute(ctx context.Context, utterance string, actx AgentContext) (map[string]any, []entities.Citation, error)
}

var (
	negationPattern = regexp.MustCompile(`\b(not|without|don.t|doesn.t|no\s+\w+|lack|missing|absent)\b`)
	countPattern    = regexp.MustCompile(`how many|count|number of`)
	rankPattern     = regexp.MustCompile(`which region|most .*(hospital|clinic)|region.*most`)
	distPattern     = regexp.MustCompile(`distribution|breakdown|by (region|city|specialty)`)
	ratioPattern    = regexp.MustCompile(`bed.to.doctor|ratio|anomal`)
	spofPattern     = regexp.MustCompile(`single point|few facilit|rare|depend`)
)

var knownRegions = []string{
	"Greater Accra", "Ashanti", "Western", "Eastern", "Central",
	"Northern", "Upper East", "Upper West", "Volta", "Bono",
	"Bono East", "Ahafo", "Savannah", "North East", "Oti",
}

var knownCities = []string{
	"Accra", "Kumasi", "Tamale", "Takoradi", "Cape Coast",
	"Sunyani", "Bolgatanga", "Wa", "Koforidua", "Tema", "Ho",
}

var procedureKeywords = []string{
	"cataract", "surgery", "cesarean", "dialysis", "chemotherapy",
	"endoscopy", "ultrasound", "x-ray", "mri", "ct scan",
	"blood transfusion", "dental", "physiotherapy",
}

var facilityTypeKeywords = []string{"hospital", "clinic", "pharmacy", "dentist"}

// TabularService answers structured filter, count, and aggregate
// questions against the facility table, exposing a pseudo-SQL trace for
// transparency.
type TabularService struct {
	table *catalog.Table
}

// NewTabularService creates the tabular analyst.
func NewTabularService(table *catalog.Table) *TabularService {
	return &TabularService{table: table}
}

func (s *TabularService) Name() entities.AgentName { return entities.AgentTabular }

// Execute extracts filters from the utterance and dispatches to exactly
// one handler.
func (s *TabularService) Execute(ctx context.Context, utterance string, actx AgentContext) (map[string]any, []entities.Citation, error) {
	start := time.Now()
	q := strings.ToLower(utterance)

	specialty, _ := utils.DetectSpecialty(utterance)
	ftype := extractFacilityType(q)
	region := extractRegion(q)
	procedure := extractProcedure(q)
	negated := negationPattern.MatchString(q)

	var payload map[string]any
	var citations []entities.Citation

	switch {
	case countPattern.MatchString(q):
		switch {
		case specialty != "":
			payload, citations = s.countWithSpecialty(specialty, ftype, negated)
		case procedure != "":
			payload = s.facilitiesWithProcedure(procedure, region)
		case region != "":
			payload = s.facilitiesInRegion(region, "", "", ftype)
		default:
			payload = s.countAll(ftype)
		}
	case rankPattern.MatchString(q):
		payload = s.regionAggregation(ftype)
	case distPattern.MatchString(q):
		if strings.Contains(q, "specialt") {
			payload = s.specialtyDistribution()
		} else {
			payload = s.regionAggregation(ftype)
		}
	case ratioPattern.MatchString(q):
		payload = s.anomalyBedDoctorRatio()
	case spofPattern.MatchString(q):
		payload = s.singlePointOfFailure()
	case specialty != "" || procedure != "":
		if procedure != "" {
			payload = s.facilitiesWithProcedure(procedure, region)
		} else {
			payload, citations = s.countWithSpecialty(specialty, ftype, negated)
		}
	case region != "":
		payload = s.facilitiesInRegion(region, specialty, procedure, ftype)
	default:
		payload = s.overview()
	}

	payload["query"] = utterance
	payload["duration_ms"] = durationMS(start)
	return payload, citations, nil
}

func (s *TabularService) countWithSpecialty(specialty, ftype string, negated bool) (map[string]any, []entities.Citation) {
	matched := s.table.Select(func(f *entities.Facility) bool {
		has := f.HasSpecialty(specialty)
		if negated {
			has = !has
		}
		if !has {
			return false
		}
		return ftype == "" || strings.EqualFold(f.FacilityType, ftype)
	})

	negWord := ""
	if negated {
		negWord = "NOT "
	}
	sql := fmt.Sprintf("SELECT COUNT(*) FROM facilities WHERE '%s' %sIN specialties", specialty, negWord)
	if ftype != "" {
		sql += fmt.Sprintf(" AND facility_type = '%s'", ftype)
	}

	citations := make([]entities.Citation, 0, len(matched))
	for _, f := range matched {
		citations = append(citations, entities.Citation{SourceID: f.PKUniqueID, Field: "specialties"})
	}

	return map[string]any{
		"action":     "count_with_specialty",
		"pseudo_sql": sql,
		"count":      len(matched),
		"facilities": facilityRecords(matched),
	}, citations
}

func (s *TabularService) facilitiesInRegion(region, specialty, procedure, ftype string) map[string]any {
	rl := strings.ToLower(region)
	matched := s.table.Select(func(f *entities.Facility) bool {
		if !strings.Contains(strings.ToLower(f.City), rl) && !strings.Contains(strings.ToLower(f.Region), rl) {
			return false
		}
		if specialty != "" && !f.HasSpecialty(specialty) {
			return false
		}
		if procedure != "" && !f.OffersProcedure(procedure) {
			return false
		}
		return ftype == "" || strings.EqualFold(f.FacilityType, ftype)
	})

	sql := fmt.Sprintf("SELECT * FROM facilities WHERE region LIKE '%%%s%%'", region)
	if specialty != "" {
		sql += fmt.Sprintf(" AND '%s' IN specialties", specialty)
	}
	if procedure != "" {
		sql += fmt.Sprintf(" AND procedure LIKE '%%%s%%'", procedure)
	}

	return map[string]any{
		"action":     "facilities_in_region",
		"pseudo_sql": sql,
		"count":      len(matched),
		"facilities": facilityRecords(matched),
	}
}

func (s *TabularService) countAll(ftype string) map[string]any {
	matched := s.table.Select(func(f *entities.Facility) bool {
		return ftype == "" || strings.EqualFold(f.FacilityType, ftype)
	})
	return map[string]any{
		"action":     "count_all",
		"pseudo_sql": "SELECT COUNT(*) FROM facilities",
		"count":      len(matched),
	}
}

func (s *TabularService) regionAggregation(ftype string) map[string]any {
	counts := make(map[string]int)
	for _, f := range s.table.Facilities() {
		if ftype != "" && !strings.EqualFold(f.FacilityType, ftype) {
			continue
		}
		region := f.Region
		if region == "" {
			region = "Unknown"
		}
		counts[region]++
	}

	topRegion, topCount := topEntry(counts)
	sql := "SELECT region, COUNT(*) FROM facilities"
	if ftype != "" {
		sql += fmt.Sprintf(" WHERE facility_type = '%s'", ftype)
	}
	sql += " GROUP BY region ORDER BY count DESC"

	return map[string]any{
		"action":      "region_aggregation",
		"pseudo_sql":  sql,
		"aggregation": counts,
		"top_region":  topRegion,
		"top_count":   topCount,
	}
}

func (s *TabularService) specialtyDistribution() map[string]any {
	counts := make(map[string]int)
	for _, f := range s.table.Facilities() {
		for _, spec := range f.Specialties {
			counts[spec]++
		}
	}

	type entry struct {
		name  string
		count int
	}
	entries := make([]entry, 0, len(counts))
	for name, count := range counts {
		entries = append(entries, entry{name, count})
	}
	sort.Slice(entries, func(a, b int) bool {
		if entries[a].count != entries[b].count {
			return entries[a].count > entries[b].count
		}
		return entries[a].name < entries[b].name
	})
	if len(entries) > 30 {
		entries = entries[:30]
	}
	top := make(map[string]int, len(entries))
	for _, e := range entries {
		top[e.name] = e.count
	}

	return map[string]any{
		"action":                   "specialty_distribution",
		"pseudo_sql":               "SELECT specialty, COUNT(*) FROM facility_specialties GROUP BY specialty ORDER BY count DESC",
		"distribution":             top,
		"total_unique_specialties": len(counts),
	}
}

func (s *TabularService) facilitiesWithProcedure(procedure, region string) map[string]any {
	rl := strings.ToLower(region)
	matched := s.table.Select(func(f *entities.Facility) bool {
		if !f.OffersProcedure(procedure) {
			return false
		}
		if region == "" {
			return true
		}
		return strings.Contains(strings.ToLower(f.City), rl) || strings.Contains(strings.ToLower(f.Region), rl)
	})

	return map[string]any{
		"action":     "facilities_with_procedure",
		"pseudo_sql": fmt.Sprintf("SELECT * FROM facilities WHERE procedure LIKE '%%%s%%'", procedure),
		"count":      len(matched),
		"facilities": facilityRecords(matched),
	}
}

func (s *TabularService) anomalyBedDoctorRatio() map[string]any {
	var ratios []float64
	type row struct {
		f     *entities.Facility
		ratio float64
	}
	var rows []row
	for _, f := range s.table.Facilities() {
		if f.Beds == nil || f.Doctors == nil || *f.Beds <= 0 || *f.Doctors <= 0 {
			continue
		}
		r := float64(*f.Beds) / float64(*f.Doctors)
		ratios = append(ratios, r)
		rows = append(rows, row{f, r})
	}

	if len(rows) == 0 {
		return map[string]any{
			"action":     "anomaly_bed_doctor_ratio",
			"pseudo_sql": "SELECT *, beds/doctors AS ratio FROM facilities -- no valid rows",
			"count":      0,
			"anomalies":  []map[string]any{},
			"avg_ratio":  nil,
			"threshold":  nil,
			"iqr_stats":  map[string]any{},
		}
	}

	q1 := quantile(ratios, 0.25)
	q3 := quantile(ratios, 0.75)
	iqr := q3 - q1
	threshold := q3 + 1.5*iqr
	if threshold < 20 {
		threshold = 20
	}

	var sum float64
	for _, r := range ratios {
		sum += r
	}

	var anomalies []map[string]any
	for _, r := range rows {
		if r.ratio > threshold {
			anomalies = append(anomalies, map[string]any{
				"name":          r.f.Name,
				"beds":          *r.f.Beds,
				"doctors":       *r.f.Doctors,
				"bed_to_doctor": round1(r.ratio),
			})
		}
	}
	if anomalies == nil {
		anomalies = []map[string]any{}
	}

	return map[string]any{
		"action":     "anomaly_bed_doctor_ratio",
		"pseudo_sql": fmt.Sprintf("SELECT *, beds/doctors AS ratio FROM facilities WHERE ratio > %.1f (IQR-derived)", threshold),
		"count":      len(anomalies),
		"anomalies":  anomalies,
		"avg_ratio":  round1(sum / float64(len(ratios))),
		"threshold":  round1(threshold),
		"iqr_stats": map[string]any{
			"q25": round1(q1),
			"q75": round1(q3),
			"iqr": round1(iqr),
		},
	}
}

func (s *TabularService) singlePointOfFailure() map[string]any {
	counts := make(map[string]int)
	for _, f := range s.table.Facilities() {
		for _, spec := range f.Specialties {
			counts[spec]++
		}
	}
	rare := make(map[string]int)
	for spec, n := range counts {
		if n <= 2 {
			rare[spec] = n
		}
	}
	return map[string]any{
		"action":           "single_point_of_failure",
		"pseudo_sql":       "SELECT specialty, COUNT(*) FROM facility_specialties GROUP BY specialty HAVING count <= 2",
		"rare_specialties": rare,
		"count":            len(rare),
	}
}

func (s *TabularService) overview() map[string]any {
	facilities, ngos := 0, 0
	types := make(map[string]int)
	for _, f := range s.table.Facilities() {
		switch f.OrganizationType {
		case entities.OrganizationNGO:
			ngos++
		default:
			facilities++
		}
		if f.FacilityType != "" {
			types[f.FacilityType]++
		}
	}
	return map[string]any{
		"action":           "overview",
		"pseudo_sql":       "SELECT overview FROM facilities",
		"total_facilities": facilities,
		"total_ngos":       ngos,
		"facility_types":   types,
	}
}

func extractFacilityType(q string) string {
	for _, ft := range facilityTypeKeywords {
		if strings.Contains(q, ft) {
			return ft
		}
	}
	return ""
}

func extractRegion(q string) string {
	for _, r := range knownRegions {
		if strings.Contains(q, strings.ToLower(r)) {
			return r
		}
	}
	for _, c := range knownCities {
		pattern := regexp.MustCompile(`\b` + regexp.QuoteMeta(strings.ToLower(c)) + `\b`)
		if pattern.MatchString(q) {
			return c
		}
	}
	return ""
}

func extractProcedure(q string) string {
	for _, kw := range procedureKeywords {
		if strings.Contains(q, kw) {
			return kw
		}
	}
	return ""
}

func facilityRecords(facilities []*entities.Facility) []map[string]any {
	records := make([]map[string]any, 0, len(facilities))
	for _, f := range facilities {
		rec := map[string]any{
			"name":          f.Name,
			"city":          f.City,
			"region":        f.Region,
			"facility_type": f.FacilityType,
			"specialties":   f.Specialties,
		}
		if f.HasCoordinates() {
			rec["latitude"] = *f.Latitude
			rec["longitude"] = *f.Longitude
		}
		records = append(records, rec)
	}
	return records
}

func topEntry(counts map[string]int) (string, int) {
	top, topCount := "", 0
	for name, count := range counts {
		if count > topCount || (count == topCount && name < top) {
			top, topCount = name, count
		}
	}
	return top, topCount
}

// quantile uses linear interpolation over the sorted sample.
func quantile(values []float64, q float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	frac := pos - float64(lo)
	if lo+1 >= len(sorted) {
		return sorted[lo]
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func durationMS(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
