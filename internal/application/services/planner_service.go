package services

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/virtuefdn/medbridge/backend/internal/adapters/catalog"
	"github.com/virtuefdn/medbridge/backend/internal/domain/entities"
	"github.com/virtuefdn/medbridge/backend/internal/geo"
	"github.com/virtuefdn/medbridge/backend/pkg/utils"
)

// Accra depot, the staging point for rotations and routing.
const (
	accraLat = 5.6037
	accraLng = -0.1870
)

const (
	maxRotationStops = 8
	placementGridDeg = 0.3
	placementTopN    = 10
)

var (
	emergencyCuePattern = regexp.MustCompile(`emergenc|route.*patient|nearest.*capable|urgent`)
	rotationCuePattern  = regexp.MustCompile(`specialist.*rotat|deploy.*(doctor|specialist|surgeon|cardiolog|dentist|pediatri)|visiting.*route|rotation.*plan|multi.*stop.*tour`)
	equipmentCuePattern = regexp.MustCompile(`equipment.*distribut|mobile.*unit|place.*scanner|deploy.*equip`)
	placementCuePattern = regexp.MustCompile(`new.*facilit|build.*hospital|where.*build|optimal.*location`)
	capacityCuePattern  = regexp.MustCompile(`capacity|bed.*need|staff.*need|overload|bottleneck`)
	scenarioCuePattern  = regexp.MustCompile(`scenario|plan.*option|what.*can.*plan`)
)

var plannerEquipment = []string{
	"ct scanner", "mri", "dialysis", "ultrasound", "x-ray", "ventilator", "oxygen",
}

// PlanScenario describes one planning capability for discovery.
type PlanScenario struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// PlanScenarios lists every scenario the planner can execute.
var PlanScenarios = []PlanScenario{
	{
		ID:          "emergency_routing",
		Title:       "Emergency Patient Routing",
		Description: "Route patient from rural area to nearest facility with required capability",
	},
	{
		ID:          "specialist_deployment",
		Title:       "Specialist Rotation Plan",
		Description: "Optimize specialist's travel route to cover underserved facilities",
	},
	{
		ID:          "equipment_distribution",
		Title:       "Equipment Distribution",
		Description: "Plan mobile unit or equipment placement to maximize coverage",
	},
	{
		ID:          "new_facility_placement",
		Title:       "New Facility Placement",
		Description: "Identify optimal locations for new healthcare centres",
	},
	{
		ID:          "capacity_planning",
		Title:       "Capacity Planning",
		Description: "Forecast bed/staff needs and identify overloaded facilities",
	},
}

// PlannerService turns catalog analysis into deployment plans: routing,
// rotations, equipment placement, facility siting, and capacity review.
type PlannerService struct {
	table *catalog.Table
}

// NewPlannerService creates the planner.
func NewPlannerService(table *catalog.Table) *PlannerService {
	return &PlannerService{table: table}
}

func (s *PlannerService) Name() entities.AgentName { return entities.AgentPlanner }

// Execute routes the utterance to one scenario; default is emergency
// routing.
func (s *PlannerService) Execute(ctx context.Context, utterance string, actx AgentContext) (map[string]any, []entities.Citation, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	start := time.Now()
	q := strings.ToLower(utterance)

	specialty, _ := utils.DetectSpecialty(utterance)
	equipment := extractEquipment(q)

	useQuantum := strings.Contains(q, "quantum")
	var lat, lng *float64
	if actx.Query != nil {
		lat, lng = actx.Query.Lat, actx.Query.Lng
		useQuantum = useQuantum || actx.Query.UseQuantum
	}

	var payload map[string]any
	switch {
	case emergencyCuePattern.MatchString(q):
		payload = s.EmergencyRouting(specialty, lat, lng)
	case rotationCuePattern.MatchString(q):
		payload = s.SpecialistDeployment(ctx, specialty, maxRotationStops, useQuantum)
	case equipmentCuePattern.MatchString(q):
		payload = s.EquipmentDistribution(orDefault(equipment, "CT scanner"))
	case placementCuePattern.MatchString(q):
		payload = s.NewFacilityPlacement(ctx, specialty)
	case capacityCuePattern.MatchString(q):
		payload = s.CapacityPlanning()
	case scenarioCuePattern.MatchString(q):
		payload = s.ListScenarios()
	default:
		payload = s.EmergencyRouting(specialty, lat, lng)
	}

	payload["query"] = utterance
	payload["duration_ms"] = durationMS(start)
	return payload, nil, nil
}

// EmergencyRouting ranks capable facilities by distance from the origin
// and returns a primary, a backup, and close alternatives.
func (s *PlannerService) EmergencyRouting(specialty string, originLat, originLng *float64) map[string]any {
	candidates := s.table.Select(func(f *entities.Facility) bool {
		if !f.HasCoordinates() {
			return false
		}
		return specialty == "" || f.HasSpecialty(specialty)
	})
	if len(candidates) == 0 {
		return map[string]any{
			"scenario": "emergency_routing",
			"error":    fmt.Sprintf("No facilities found for specialty '%s'", specialty),
		}
	}

	oLat, oLng := geo.GhanaCenterLat, geo.GhanaCenterLng
	if originLat != nil && originLng != nil {
		oLat, oLng = *originLat, *originLng
	}

	options := make([]map[string]any, 0, len(candidates))
	for _, f := range candidates {
		dist := geo.Distance(oLat, oLng, *f.Latitude, *f.Longitude)
		options = append(options, map[string]any{
			"facility":         f.Name,
			"city":             f.City,
			"region":           f.Region,
			"distance_km":      round1(dist),
			"est_travel_min":   int(dist + 0.5), // ~60 km/h average
			"latitude":         *f.Latitude,
			"longitude":        *f.Longitude,
			"specialties":      f.Specialties,
			"equipment":        headOf(f.Equipment, 5),
			"capacity":         orNilInt(f.Beds),
			"capability_match": capabilityScore(f, specialty),
		})
	}
	sort.SliceStable(options, func(a, b int) bool {
		return options[a]["distance_km"].(float64) < options[b]["distance_km"].(float64)
	})

	primary := options[0]
	var backup map[string]any
	if len(options) > 1 {
		backup = options[1]
	}
	alternatives := []map[string]any{}
	if len(options) > 2 {
		end := 5
		if end > len(options) {
			end = len(options)
		}
		alternatives = options[2:end]
	}

	steps := []string{
		fmt.Sprintf("1. Contact %s (%s) — %.1f km away", primary["facility"], primary["city"], primary["distance_km"]),
		fmt.Sprintf("2. Estimated travel time: %d minutes", primary["est_travel_min"]),
		fmt.Sprintf("3. Capability match: %d%%", primary["capability_match"]),
	}
	if backup != nil {
		steps = append(steps, fmt.Sprintf("4. Backup: %s (%s) — %.1f km", backup["facility"], backup["city"], backup["distance_km"]))
	}

	return map[string]any{
		"scenario":         "emergency_routing",
		"title":            "Emergency Routing Plan",
		"origin":           map[string]any{"lat": oLat, "lng": oLng},
		"specialty_needed": orDefault(specialty, "general"),
		"primary_facility": primary,
		"backup_facility":  backup,
		"alternatives":     alternatives,
		"action_steps":     steps,
		"total_options":    len(options),
	}
}

// capabilityScore rates how well-equipped a facility is for a need.
// The clinical match dominates; a facility with the right specialty but
// limited imaging beats one with a CT scanner and no relevant staff.
func capabilityScore(f *entities.Facility, specialty string) int {
	score := 20
	if specialty != "" && f.HasSpecialty(specialty) {
		score += 35
	}
	capText := strings.ToLower(strings.Join(f.Capabilities, " "))
	if strings.Contains(capText, "icu") || strings.Contains(capText, "operating theater") || strings.Contains(capText, "operating theatre") {
		score += 20
	}
	if f.Beds != nil && *f.Beds > 20 {
		score += 10
	}
	if f.Doctors != nil && *f.Doctors > 0 {
		score += 10
	}
	equipText := strings.ToLower(strings.Join(f.Equipment, " "))
	if strings.Contains(equipText, "ct") || strings.Contains(equipText, "mri") || strings.Contains(equipText, "scanner") {
		score += 5
	}
	if score > 100 {
		score = 100
	}
	return score
}

// SpecialistDeployment builds a rotation over facilities that LACK the
// specialty: greedy nearest-neighbour from Accra, improved by 2-opt.
// With useQuantum the QUBO solver runs side by side and its route is
// adopted only when feasible and strictly shorter.
func (s *PlannerService) SpecialistDeployment(ctx context.Context, specialty string, maxFacilities int, useQuantum bool) map[string]any {
	needs := s.table.Select(func(f *entities.Facility) bool {
		if !f.HasCoordinates() {
			return false
		}
		return specialty == "" || !f.HasSpecialty(specialty)
	})
	if len(needs) == 0 {
		return map[string]any{
			"scenario": "specialist_deployment",
			"error":    "No underserved facilities found",
		}
	}

	if maxFacilities <= 0 {
		maxFacilities = maxRotationStops
	}
	stops := greedyNearestStops(needs, maxFacilities)
	if len(stops) < 2 {
		return s.deploymentResult(needs, stops, specialty)
	}

	// distance matrix over depot + selected stops
	coords := make([][2]float64, 0, len(stops)+1)
	coords = append(coords, [2]float64{accraLat, accraLng})
	names := []string{"Accra (depot)"}
	for _, idx := range stops {
		f := needs[idx]
		coords = append(coords, [2]float64{*f.Latitude, *f.Longitude})
		names = append(names, f.Name)
	}
	dist := distanceMatrix(coords)

	tour := make([]int, len(coords))
	for i := range tour {
		tour[i] = i
	}
	twoOpt(ctx, dist, tour)

	ordered := make([]int, 0, len(tour)-1)
	for _, node := range tour[1:] {
		ordered = append(ordered, stops[node-1])
	}
	result := s.deploymentResult(needs, ordered, specialty)

	if useQuantum {
		s.attachQuantumComparison(ctx, result, dist, tour, names, needs, stops, specialty)
	}
	return result
}

// greedyNearestStops picks up to n facilities by repeated nearest
// neighbour starting from Accra.
func greedyNearestStops(needs []*entities.Facility, n int) []int {
	if n > len(needs) {
		n = len(needs)
	}
	visited := make(map[int]bool, n)
	stops := make([]int, 0, n)
	curLat, curLng := accraLat, accraLng

	for len(stops) < n {
		bestIdx, bestDist := -1, 0.0
		for i, f := range needs {
			if visited[i] {
				continue
			}
			d := geo.Distance(curLat, curLng, *f.Latitude, *f.Longitude)
			if bestIdx < 0 || d < bestDist {
				bestIdx, bestDist = i, d
			}
		}
		if bestIdx < 0 {
			break
		}
		visited[bestIdx] = true
		stops = append(stops, bestIdx)
		curLat, curLng = *needs[bestIdx].Latitude, *needs[bestIdx].Longitude
	}
	return stops
}

func distanceMatrix(coords [][2]float64) [][]float64 {
	n := len(coords)
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := geo.Distance(coords[i][0], coords[i][1], coords[j][0], coords[j][1])
			dist[i][j] = d
			dist[j][i] = d
		}
	}
	return dist
}

// twoOpt improves the cyclic tour in place by reversing segments until
// no swap shortens it or the context is cancelled. The tour is valid
// after every sweep, so stopping early still yields a usable route.
func twoOpt(ctx context.Context, dist [][]float64, tour []int) {
	n := len(tour)
	improved := true
	for improved {
		if ctx.Err() != nil {
			return
		}
		improved = false
		for i := 1; i < n-1; i++ {
			for j := i + 1; j < n; j++ {
				oldCost := dist[tour[i-1]][tour[i]] + dist[tour[j]][tour[(j+1)%n]]
				newCost := dist[tour[i-1]][tour[j]] + dist[tour[i]][tour[(j+1)%n]]
				if newCost < oldCost-1e-9 {
					for a, b := i, j; a < b; a, b = a+1, b-1 {
						tour[a], tour[b] = tour[b], tour[a]
					}
					improved = true
				}
			}
		}
	}
}

func (s *PlannerService) deploymentResult(needs []*entities.Facility, ordered []int, specialty string) map[string]any {
	stops := make([]map[string]any, 0, len(ordered))
	curLat, curLng := accraLat, accraLng
	totalDistance := 0.0

	for _, idx := range ordered {
		f := needs[idx]
		dist := geo.Distance(curLat, curLng, *f.Latitude, *f.Longitude)
		totalDistance += dist
		impact := "medium"
		if f.Beds != nil && *f.Beds > 30 {
			impact = "high"
		}
		stops = append(stops, map[string]any{
			"stop":                  len(stops) + 1,
			"facility":              f.Name,
			"city":                  f.City,
			"region":                f.Region,
			"distance_from_prev_km": round1(dist),
			"latitude":              *f.Latitude,
			"longitude":             *f.Longitude,
			"current_specialties":   f.Specialties,
			"population_impact":     impact,
		})
		curLat, curLng = *f.Latitude, *f.Longitude
	}

	days := len(stops)
	if days < 1 {
		days = 1
	}
	label := orDefault(specialty, "general")

	return map[string]any{
		"scenario":                     "specialist_deployment",
		"title":                        fmt.Sprintf("Specialist Rotation: %s", label),
		"specialty":                    label,
		"optimisation":                 "greedy_nn + 2-opt",
		"total_stops":                  len(stops),
		"total_distance_km":            round1(totalDistance),
		"est_total_days":               days,
		"stops":                        stops,
		"facilities_needing_specialty": len(needs),
		"action_steps": []string{
			fmt.Sprintf("1. Deploy %s on %d-stop rotation", orDefault(specialty, "specialist"), len(stops)),
			fmt.Sprintf("2. Total travel: %.0f km over %d days", totalDistance, len(stops)),
			"3. Route optimised with 2-opt local search",
			fmt.Sprintf("4. Start from Accra, visit %d underserved facilities", len(stops)),
		},
	}
}

func (s *PlannerService) attachQuantumComparison(ctx context.Context, result map[string]any, dist [][]float64, classicalTour []int, names []string, needs []*entities.Facility, stops []int, specialty string) {
	comparison := compareTours(ctx, dist, classicalTour, names)

	quantum, _ := comparison["quantum"].(map[string]any)
	block := map[string]any{"available": true}
	for k, v := range quantum {
		block[k] = v
	}
	block["comparison"] = map[string]any{
		"winner":     comparison["winner"],
		"saving_km":  comparison["saving_km"],
		"saving_pct": comparison["saving_pct"],
		"summary":    comparison["summary"],
	}
	result["quantum"] = block

	winner, _ := comparison["winner"].(string)
	result["optimisation"] = fmt.Sprintf("greedy_nn + 2-opt + QUBO (winner: %s)", winner)

	feasible, _ := quantum["feasible"].(bool)
	if winner != "quantum" || !feasible {
		return
	}
	qTour, _ := quantum["tour"].([]int)
	if len(qTour) < 2 {
		return
	}
	qOrdered := make([]int, 0, len(qTour)-1)
	for _, node := range qTour[1:] {
		qOrdered = append(qOrdered, stops[node-1])
	}
	qResult := s.deploymentResult(needs, qOrdered, specialty)
	result["quantum_route"] = qResult["stops"]
	result["quantum_distance_km"] = qResult["total_distance_km"]
	if steps, ok := result["action_steps"].([]string); ok {
		result["action_steps"] = append(steps, fmt.Sprintf(
			"5. QUBO found a %.1f km shorter route (%.1f%% saving)",
			comparison["saving_km"], comparison["saving_pct"]))
	}
}

// EquipmentDistribution ranks regions by how many facilities lack the
// equipment and recommends the highest-capacity facility per region as
// the placement site.
func (s *PlannerService) EquipmentDistribution(equipmentType string) map[string]any {
	located := s.table.WithCoordinates()

	var with, without []*entities.Facility
	for _, f := range located {
		if f.HasEquipment(equipmentType) {
			with = append(with, f)
		} else {
			without = append(without, f)
		}
	}

	type regionNeed struct {
		region     string
		count      int
		facilities []string
	}
	needIndex := make(map[string]*regionNeed)
	var needOrder []*regionNeed
	for _, f := range without {
		region := orDefault(f.Region, "Unknown")
		rn := needIndex[region]
		if rn == nil {
			rn = &regionNeed{region: region}
			needIndex[region] = rn
			needOrder = append(needOrder, rn)
		}
		rn.count++
		if len(rn.facilities) < 3 {
			rn.facilities = append(rn.facilities, f.Name)
		}
	}
	sort.SliceStable(needOrder, func(a, b int) bool {
		return needOrder[a].count > needOrder[b].count
	})

	placements := []map[string]any{}
	for _, rn := range needOrder {
		if len(placements) == 5 {
			break
		}
		var best *entities.Facility
		for _, f := range without {
			if orDefault(f.Region, "Unknown") != rn.region {
				continue
			}
			if best == nil || f.BedCount() > best.BedCount() {
				best = f
			}
		}
		if best == nil {
			continue
		}
		placements = append(placements, map[string]any{
			"region":               rn.region,
			"recommended_facility": best.Name,
			"city":                 best.City,
			"latitude":             *best.Latitude,
			"longitude":            *best.Longitude,
			"facilities_served":    rn.count,
			"nearby_facilities":    rn.facilities,
		})
	}

	return map[string]any{
		"scenario":           "equipment_distribution",
		"title":              fmt.Sprintf("%s Distribution Plan", equipmentType),
		"equipment":          equipmentType,
		"facilities_with":    len(with),
		"facilities_without": len(without),
		"placements":         placements,
		"action_steps": []string{
			fmt.Sprintf("1. %d facilities already have %s", len(with), equipmentType),
			fmt.Sprintf("2. %d facilities need %s", len(without), equipmentType),
			fmt.Sprintf("3. Top %d recommended placement regions identified", len(placements)),
			"4. Priority: regions with most underserved facilities",
		},
	}
}

// NewFacilityPlacement runs maximin siting: each suggested location is
// the grid point farthest from any existing facility, so new builds
// maximise the minimum coverage distance instead of clustering where
// facilities already are.
func (s *PlannerService) NewFacilityPlacement(ctx context.Context, specialty string) map[string]any {
	all := s.table.WithCoordinates()
	subset := all
	if specialty != "" {
		subset = s.table.Select(func(f *entities.Facility) bool {
			return f.HasCoordinates() && f.HasSpecialty(specialty)
		})
		if len(subset) == 0 {
			subset = all
		}
	}
	if len(subset) == 0 {
		return map[string]any{
			"scenario": "new_facility_placement",
			"error":    "No facilities with coordinates found",
		}
	}

	specialtyByRegion := make(map[string]int)
	if specialty != "" {
		for _, f := range all {
			if f.HasSpecialty(specialty) {
				specialtyByRegion[orDefault(f.Region, "Unknown")]++
			}
		}
	} else {
		for _, f := range all {
			specialtyByRegion[orDefault(f.Region, "Unknown")]++
		}
	}
	totalByRegion := make(map[string]int)
	for _, f := range all {
		totalByRegion[orDefault(f.Region, "Unknown")]++
	}

	index := geo.NewIndex(catalog.SpatialPoints(subset))

	type gridPoint struct {
		lat, lng float64
		gapKm    float64
		nearest  int
	}
	var points []gridPoint
	bounds := geo.GhanaBounds
	for lat := bounds.South; lat < bounds.North; lat += placementGridDeg {
		if ctx.Err() != nil {
			break
		}
		for lng := bounds.West; lng < bounds.East; lng += placementGridDeg {
			neighbors := index.KNearest(lat, lng, 1)
			if len(neighbors) == 0 {
				continue
			}
			points = append(points, gridPoint{
				lat: lat, lng: lng,
				gapKm:   neighbors[0].DistanceKm,
				nearest: neighbors[0].Pos,
			})
		}
	}
	sort.SliceStable(points, func(a, b int) bool {
		return points[a].gapKm > points[b].gapKm
	})

	suggestions := []map[string]any{}
	for i, pt := range points {
		if i == placementTopN {
			break
		}
		region := orDefault(subset[pt.nearest].Region, "Unknown")
		priority := "medium"
		if pt.gapKm > 100 {
			priority = "critical"
		} else if pt.gapKm > 50 {
			priority = "high"
		}
		suggestions = append(suggestions, map[string]any{
			"rank":                              i + 1,
			"region":                            region,
			"current_facilities_with_specialty": specialtyByRegion[region],
			"total_facilities_in_region":        totalByRegion[region],
			"suggested_lat":                     round4(pt.lat),
			"suggested_lng":                     round4(pt.lng),
			"nearest_existing_facility_km":      round1(pt.gapKm),
			"priority":                          priority,
		})
	}

	critical := 0
	for _, sg := range suggestions {
		if sg["priority"] == "critical" {
			critical++
		}
	}

	return map[string]any{
		"scenario":          "new_facility_placement",
		"title":             fmt.Sprintf("New Facility Recommendations: %s", orDefault(specialty, "General")),
		"algorithm":         "maximin (maximise minimum coverage distance)",
		"specialty":         orDefault(specialty, "general"),
		"total_suggestions": len(suggestions),
		"suggestions":       suggestions,
		"action_steps": []string{
			fmt.Sprintf("1. %d locations are >100 km from any existing facility", critical),
			fmt.Sprintf("2. %d optimal placement sites identified via maximin", len(suggestions)),
			"3. Each coordinate is the point farthest from existing facilities",
			"4. Prioritise 'critical' sites first (>100 km to nearest facility)",
		},
	}
}

// CapacityPlanning aggregates beds and doctors per region and flags
// bottlenecks, lowest bed ratio first.
func (s *PlannerService) CapacityPlanning() map[string]any {
	type acc struct {
		region     string
		facilities int
		beds       int
		doctors    int
	}
	sums := make(map[string]*acc)
	var order []*acc
	for _, f := range s.table.Facilities() {
		if f.Region == "" {
			continue
		}
		a := sums[f.Region]
		if a == nil {
			a = &acc{region: f.Region}
			sums[f.Region] = a
			order = append(order, a)
		}
		a.facilities++
		a.beds += f.BedCount()
		a.doctors += f.DoctorCount()
	}

	regions := make([]map[string]any, 0, len(order))
	var bedRatioSum float64
	critical := 0
	for _, a := range order {
		bedRatio := round1(float64(a.beds) / float64(a.facilities))
		docRatio := round2(float64(a.doctors) / float64(a.facilities))
		status := "adequate"
		if bedRatio < 5 && a.facilities > 3 {
			status = "critical"
			critical++
		} else if bedRatio < 15 {
			status = "warning"
		}
		bedRatioSum += bedRatio
		regions = append(regions, map[string]any{
			"region":               a.region,
			"facilities":           a.facilities,
			"total_beds":           a.beds,
			"total_doctors":        a.doctors,
			"beds_per_facility":    bedRatio,
			"doctors_per_facility": docRatio,
			"status":               status,
		})
	}
	sort.SliceStable(regions, func(a, b int) bool {
		return regions[a]["beds_per_facility"].(float64) < regions[b]["beds_per_facility"].(float64)
	})

	avgBeds := 0.0
	if len(regions) > 0 {
		avgBeds = round1(bedRatioSum / float64(len(regions)))
	}

	return map[string]any{
		"scenario":         "capacity_planning",
		"title":            "Regional Capacity Analysis",
		"total_regions":    len(regions),
		"critical_regions": critical,
		"regions":          regions,
		"action_steps": []string{
			fmt.Sprintf("1. %d regions critically under-resourced", critical),
			fmt.Sprintf("2. Average beds/facility across Ghana: %.1f", avgBeds),
			"3. Focus hiring in regions with lowest doctor ratios",
			"4. Consider bed expansion in critical regions first",
		},
	}
}

// ListScenarios returns the planning scenario catalog.
func (s *PlannerService) ListScenarios() map[string]any {
	scenarios := make([]map[string]any, 0, len(PlanScenarios))
	for _, sc := range PlanScenarios {
		scenarios = append(scenarios, map[string]any{
			"id":          sc.ID,
			"title":       sc.Title,
			"description": sc.Description,
		})
	}
	return map[string]any{
		"action":    "list_scenarios",
		"scenarios": scenarios,
	}
}

func extractEquipment(q string) string {
	for _, eq := range plannerEquipment {
		if strings.Contains(q, eq) {
			return titleCase(eq)
		}
	}
	return ""
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func orNilInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
