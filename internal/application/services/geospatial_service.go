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

const (
	defaultRadiusKm   = 50.0
	radiusResultCap   = 30
	defaultNearestK   = 5
	coverageGridDeg   = 0.5
	coverageMaxKm     = 50.0
	desertThresholdKm = 75.0
	worstColdSpotsCap = 15
)

var (
	radiusValuePattern = regexp.MustCompile(`(\d+)\s*km`)
	withinCuePattern   = regexp.MustCompile(`within|near|radius|around|close|proxim`)
	nearestCuePattern  = regexp.MustCompile(`nearest|closest|find.*near`)
	desertCuePattern   = regexp.MustCompile(`desert|no.*access|unreachable`)
	coverageCuePattern = regexp.MustCompile(`gap|coverage|cold.?spot|underserved`)
	equityCuePattern   = regexp.MustCompile(`equit|distribut|fair|balance|region.*compar`)
	cityPairCuePattern = regexp.MustCompile(`distance.*between|how far`)
	cityPairPattern    = regexp.MustCompile(`(?:between|from)\s+(\w+).*?(?:and|to)\s+(\w+)`)
)

// GeospatialService answers distance, coverage, and equity questions
// over the valid-coordinate subset, building a fresh spatial index per
// specialty-filtered query.
type GeospatialService struct {
	table      *catalog.Table
	gridMinDeg float64
}

// NewGeospatialService creates the geospatial analyst. gridMinDeg
// bounds how fine a coverage grid a request may ask for.
func NewGeospatialService(table *catalog.Table, gridMinDeg float64) *GeospatialService {
	if gridMinDeg <= 0 {
		gridMinDeg = 0.1
	}
	return &GeospatialService{table: table, gridMinDeg: gridMinDeg}
}

func (s *GeospatialService) Name() entities.AgentName { return entities.AgentGeospatial }

// Execute parses a radius and coordinates from the utterance or the
// caller context and routes to one handler; default is coverage gap
// analysis.
func (s *GeospatialService) Execute(ctx context.Context, utterance string, actx AgentContext) (map[string]any, []entities.Citation, error) {
	start := time.Now()
	q := strings.ToLower(utterance)

	specialty, _ := utils.DetectSpecialty(utterance)

	var lat, lng *float64
	if actx.Query != nil {
		lat, lng = actx.Query.Lat, actx.Query.Lng
	}
	if lat == nil || lng == nil {
		if _, coords, ok := geo.FindCityInText(utterance); ok {
			lat, lng = &coords.Lat, &coords.Lng
		}
	}

	radiusKm := defaultRadiusKm
	if m := radiusValuePattern.FindStringSubmatch(q); m != nil {
		fmt.Sscanf(m[1], "%f", &radiusKm)
	}

	var payload map[string]any
	switch {
	case withinCuePattern.MatchString(q) && lat != nil && lng != nil:
		payload = s.WithinRadius(ctx, *lat, *lng, radiusKm, specialty)
	case nearestCuePattern.MatchString(q) && lat != nil && lng != nil:
		payload = s.Nearest(ctx, *lat, *lng, defaultNearestK, specialty)
	case desertCuePattern.MatchString(q):
		payload = s.MedicalDeserts(ctx, specialty, desertThresholdKm)
	case coverageCuePattern.MatchString(q):
		payload = s.CoverageGapAnalysis(ctx, specialty, coverageGridDeg, coverageMaxKm)
	case equityCuePattern.MatchString(q):
		payload = s.RegionalEquity()
	case cityPairCuePattern.MatchString(q):
		if m := cityPairPattern.FindStringSubmatch(q); m != nil {
			payload = s.DistanceBetweenCities(m[1], m[2])
		} else {
			payload = s.RegionalEquity()
		}
	default:
		payload = s.CoverageGapAnalysis(ctx, specialty, coverageGridDeg, coverageMaxKm)
	}

	payload["query"] = utterance
	payload["duration_ms"] = durationMS(start)
	return payload, nil, nil
}

// subsetFor returns the valid-coordinate facilities, optionally
// filtered by specialty, with a spatial index over them.
func (s *GeospatialService) subsetFor(specialty string) ([]*entities.Facility, *geo.Index) {
	subset := s.table.Select(func(f *entities.Facility) bool {
		if !f.HasCoordinates() {
			return false
		}
		return specialty == "" || f.HasSpecialty(specialty)
	})
	return subset, geo.NewIndex(catalog.SpatialPoints(subset))
}

// WithinRadius returns facilities inside the radius, nearest first,
// capped at 30.
func (s *GeospatialService) WithinRadius(ctx context.Context, lat, lng, radiusKm float64, specialty string) map[string]any {
	subset, index := s.subsetFor(specialty)
	neighbors := index.WithinRadius(lat, lng, radiusKm)

	results := make([]map[string]any, 0, len(neighbors))
	for _, n := range neighbors {
		if len(results) == radiusResultCap {
			break
		}
		results = append(results, geoRecord(subset[n.Pos], n.DistanceKm))
	}

	return map[string]any{
		"action":           "facilities_within_radius",
		"center":           map[string]any{"lat": lat, "lng": lng},
		"radius_km":        radiusKm,
		"specialty_filter": orNil(specialty),
		"total_found":      len(neighbors),
		"facilities":       results,
	}
}

// Nearest returns the k closest facilities; k is clamped to the subset
// size.
func (s *GeospatialService) Nearest(ctx context.Context, lat, lng float64, k int, specialty string) map[string]any {
	subset, index := s.subsetFor(specialty)
	neighbors := index.KNearest(lat, lng, k)

	results := make([]map[string]any, 0, len(neighbors))
	for _, n := range neighbors {
		results = append(results, geoRecord(subset[n.Pos], n.DistanceKm))
	}

	return map[string]any{
		"action":           "nearest_facilities",
		"origin":           map[string]any{"lat": lat, "lng": lng},
		"k":                k,
		"specialty_filter": orNil(specialty),
		"facilities":       results,
	}
}

// CoverageGapAnalysis walks a regular grid over the country bounding
// box and reports cells whose nearest facility is beyond maxKm.
func (s *GeospatialService) CoverageGapAnalysis(ctx context.Context, specialty string, gridDeg, maxKm float64) map[string]any {
	if gridDeg < s.gridMinDeg {
		gridDeg = s.gridMinDeg
	}

	subset, index := s.subsetFor(specialty)
	if len(subset) == 0 {
		return map[string]any{
			"action":    "coverage_gap_analysis",
			"specialty": orNil(specialty),
			"message":   fmt.Sprintf("No facilities found with specialty '%s'", specialty),
			"gaps":      []map[string]any{},
		}
	}

	covered, uncovered := 0, 0
	var coldSpots []map[string]any
	bounds := geo.GhanaBounds

	for lat := bounds.South; lat < bounds.North; lat += gridDeg {
		if ctx.Err() != nil {
			break
		}
		for lng := bounds.West; lng < bounds.East; lng += gridDeg {
			nearest := index.KNearest(lat, lng, 1)
			if len(nearest) == 0 {
				continue
			}
			n := nearest[0]
			if n.DistanceKm > maxKm {
				uncovered++
				coldSpots = append(coldSpots, map[string]any{
					"grid_lat":         round2(lat),
					"grid_lng":         round2(lng),
					"nearest_facility": subset[n.Pos].Name,
					"nearest_city":     subset[n.Pos].City,
					"distance_km":      round1(n.DistanceKm),
				})
			} else {
				covered++
			}
		}
	}

	sort.SliceStable(coldSpots, func(a, b int) bool {
		return coldSpots[a]["distance_km"].(float64) > coldSpots[b]["distance_km"].(float64)
	})
	worst := coldSpots
	if len(worst) > worstColdSpotsCap {
		worst = worst[:worstColdSpotsCap]
	}
	if worst == nil {
		worst = []map[string]any{}
	}

	total := covered + uncovered
	coveragePct := 0.0
	if total > 0 {
		coveragePct = round1(float64(covered) / float64(total) * 100)
	}

	return map[string]any{
		"action":              "coverage_gap_analysis",
		"specialty":           orDefault(specialty, "all"),
		"grid_resolution_deg": gridDeg,
		"max_acceptable_km":   maxKm,
		"total_grid_cells":    total,
		"coverage_percentage": coveragePct,
		"cold_spots_found":    len(coldSpots),
		"worst_cold_spots":    worst,
		"coverage_stats":      map[string]any{"covered": covered, "uncovered": uncovered},
	}
}

// MedicalDeserts reports regions whose center is farther than the
// threshold from any matching facility. Region centers are the mean
// facility coordinate, overridden by the centroid table when known.
func (s *GeospatialService) MedicalDeserts(ctx context.Context, specialty string, thresholdKm float64) map[string]any {
	subset, index := s.subsetFor(specialty)
	if len(subset) == 0 {
		return map[string]any{
			"action":        "medical_desert_detection",
			"specialty":     orNil(specialty),
			"message":       fmt.Sprintf("No facilities found for '%s' — entire country is a desert for this specialty", specialty),
			"deserts_found": 0,
			"deserts":       []map[string]any{},
		}
	}

	centers := s.regionCenters()
	var deserts []map[string]any
	for _, rc := range centers {
		if ctx.Err() != nil {
			break
		}
		nearest := index.KNearest(rc.lat, rc.lng, 1)
		if len(nearest) == 0 {
			continue
		}
		dist := nearest[0].DistanceKm
		if dist <= thresholdKm {
			continue
		}
		severity := "medium"
		if dist > 150 {
			severity = "critical"
		} else if dist > 100 {
			severity = "high"
		}
		deserts = append(deserts, map[string]any{
			"region":                     rc.region,
			"center_lat":                 round4(rc.lat),
			"center_lng":                 round4(rc.lng),
			"nearest_distance_km":        round1(dist),
			"total_facilities_in_region": rc.count,
			"severity":                   severity,
		})
	}

	sort.SliceStable(deserts, func(a, b int) bool {
		return deserts[a]["nearest_distance_km"].(float64) > deserts[b]["nearest_distance_km"].(float64)
	})
	if deserts == nil {
		deserts = []map[string]any{}
	}

	return map[string]any{
		"action":           "medical_desert_detection",
		"specialty":        orDefault(specialty, "all"),
		"threshold_km":     thresholdKm,
		"regions_analyzed": len(centers),
		"deserts_found":    len(deserts),
		"deserts":          deserts,
	}
}

type regionCenter struct {
	region string
	lat    float64
	lng    float64
	count  int
}

func (s *GeospatialService) regionCenters() []regionCenter {
	type acc struct {
		latSum, lngSum float64
		count          int
	}
	sums := make(map[string]*acc)
	for _, f := range s.table.WithCoordinates() {
		region := f.Region
		if region == "" || region == "Unknown" {
			continue
		}
		a := sums[region]
		if a == nil {
			a = &acc{}
			sums[region] = a
		}
		a.latSum += *f.Latitude
		a.lngSum += *f.Longitude
		a.count++
	}

	centers := make([]regionCenter, 0, len(sums))
	for region, a := range sums {
		rc := regionCenter{
			region: region,
			lat:    a.latSum / float64(a.count),
			lng:    a.lngSum / float64(a.count),
			count:  a.count,
		}
		if c, ok := geo.RegionCentroid(region); ok {
			rc.lat, rc.lng = c.Lat, c.Lng
		}
		centers = append(centers, rc)
	}
	sort.Slice(centers, func(a, b int) bool { return centers[a].region < centers[b].region })
	return centers
}

// RegionalEquity aggregates facilities, beds, doctors, and specialty
// breadth per region.
func (s *GeospatialService) RegionalEquity() map[string]any {
	type acc struct {
		facilities int
		beds       int
		doctors    int
		specs      map[string]bool
		specOrder  []string
	}
	sums := make(map[string]*acc)
	var order []string
	for _, f := range s.table.Facilities() {
		region := f.Region
		if region == "" || region == "Unknown" {
			continue
		}
		a := sums[region]
		if a == nil {
			a = &acc{specs: make(map[string]bool)}
			sums[region] = a
			order = append(order, region)
		}
		a.facilities++
		a.beds += f.BedCount()
		a.doctors += f.DoctorCount()
		for _, spec := range f.Specialties {
			if !a.specs[spec] {
				a.specs[spec] = true
				a.specOrder = append(a.specOrder, spec)
			}
		}
	}

	regions := make([]map[string]any, 0, len(sums))
	for _, region := range order {
		a := sums[region]
		top := a.specOrder
		if len(top) > 10 {
			top = top[:10]
		}
		bedsPerFacility := 0.0
		if a.facilities > 0 {
			bedsPerFacility = round1(float64(a.beds) / float64(a.facilities))
		}
		regions = append(regions, map[string]any{
			"region":             region,
			"total_facilities":   a.facilities,
			"total_doctors":      a.doctors,
			"total_beds":         a.beds,
			"unique_specialties": len(a.specs),
			"specialties":        top,
			"beds_per_facility":  bedsPerFacility,
		})
	}
	sort.SliceStable(regions, func(a, b int) bool {
		return regions[a]["total_facilities"].(int) > regions[b]["total_facilities"].(int)
	})

	return map[string]any{
		"action":        "regional_equity_analysis",
		"total_regions": len(regions),
		"regions":       regions,
	}
}

// DistanceBetweenCities measures great-circle distance between the
// mean facility coordinates of two cities, falling back to the geocode
// tables when a city has no facilities.
func (s *GeospatialService) DistanceBetweenCities(cityA, cityB string) map[string]any {
	latA, lngA, countA, okA := s.cityCenter(cityA)
	latB, lngB, countB, okB := s.cityCenter(cityB)

	if !okA || !okB {
		missing := "city A"
		if okA {
			missing = "city B"
		}
		return map[string]any{
			"action": "distance_between_cities",
			"error":  fmt.Sprintf("Could not find coordinates for %s", missing),
		}
	}

	return map[string]any{
		"action":          "distance_between_cities",
		"city_a":          cityA,
		"city_b":          cityB,
		"distance_km":     round1(geo.Distance(latA, lngA, latB, lngB)),
		"facilities_in_a": countA,
		"facilities_in_b": countB,
	}
}

func (s *GeospatialService) cityCenter(city string) (lat, lng float64, count int, ok bool) {
	cl := strings.ToLower(city)
	var latSum, lngSum float64
	for _, f := range s.table.WithCoordinates() {
		if strings.Contains(strings.ToLower(f.City), cl) {
			latSum += *f.Latitude
			lngSum += *f.Longitude
			count++
		}
	}
	if count > 0 {
		return latSum / float64(count), lngSum / float64(count), count, true
	}
	if c, found := geo.Geocode(city, ""); found {
		return c.Lat, c.Lng, 0, true
	}
	return 0, 0, 0, false
}

func geoRecord(f *entities.Facility, distanceKm float64) map[string]any {
	return map[string]any{
		"facility":    f.Name,
		"city":        f.City,
		"region":      f.Region,
		"distance_km": round2(distanceKm),
		"latitude":    *f.Latitude,
		"longitude":   *f.Longitude,
		"specialties": f.Specialties,
		"type":        f.FacilityType,
	}
}

func orNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
