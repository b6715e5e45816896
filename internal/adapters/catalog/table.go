package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/virtuefdn/medbridge/backend/internal/domain/entities"
	"github.com/virtuefdn/medbridge/backend/internal/domain/repositories"
	"github.com/virtuefdn/medbridge/backend/internal/geo"
)

// Table is the canonical in-memory facility catalog. It is built once
// at start-up and immutable afterwards; concurrent readers need no
// locking.
type Table struct {
	facilities []*entities.Facility
	byID       map[string]int
}

// Build constructs the catalog from raw source rows: deduplicates by
// pk_unique_id with the richest row as base, enriches missing
// coordinates from the geocoding tables, and composes the document text
// per facility.
func Build(rows []*entities.Facility) *Table {
	merged := deduplicate(rows)

	geocoded := 0
	for _, f := range merged {
		if !f.HasCoordinates() {
			if c, ok := geo.Geocode(f.City, f.Region); ok {
				lat, lng := c.Lat, c.Lng
				f.Latitude = &lat
				f.Longitude = &lng
			}
		}
		if f.HasCoordinates() {
			geocoded++
		}
		f.Document = buildDocument(f)
	}

	byID := make(map[string]int, len(merged))
	for i, f := range merged {
		byID[f.PKUniqueID] = i
	}

	log.Info().
		Int("rows", len(rows)).
		Int("facilities", len(merged)).
		Int("geocoded", geocoded).
		Msg("facility catalog built")

	return &Table{facilities: merged, byID: byID}
}

// Len returns the number of facilities.
func (t *Table) Len() int { return len(t.facilities) }

// At returns the facility at position i.
func (t *Table) At(i int) *entities.Facility { return t.facilities[i] }

// Facilities returns the full ordered facility list. Callers must not
// mutate it.
func (t *Table) Facilities() []*entities.Facility { return t.facilities }

// ByID looks a facility up by pk_unique_id.
func (t *Table) ByID(id string) (*entities.Facility, bool) {
	i, ok := t.byID[id]
	if !ok {
		return nil, false
	}
	return t.facilities[i], true
}

// Select returns the facilities matching the predicate, in table order.
func (t *Table) Select(pred func(*entities.Facility) bool) []*entities.Facility {
	var out []*entities.Facility
	for _, f := range t.facilities {
		if pred(f) {
			out = append(out, f)
		}
	}
	return out
}

// WithCoordinates returns the subset carrying valid coordinates.
func (t *Table) WithCoordinates() []*entities.Facility {
	return t.Select(func(f *entities.Facility) bool { return f.HasCoordinates() })
}

// WithSpecialty returns the subset offering the specialty.
func (t *Table) WithSpecialty(specialty string) []*entities.Facility {
	return t.Select(func(f *entities.Facility) bool { return f.HasSpecialty(specialty) })
}

// Regions returns the distinct non-empty region names, sorted.
func (t *Table) Regions() []string {
	seen := make(map[string]bool)
	for _, f := range t.facilities {
		if f.Region != "" {
			seen[f.Region] = true
		}
	}
	out := make([]string, 0, len(seen))
	for r := range seen {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// SpatialPoints converts a facility subset into index points. Pos is
// the offset into the subset, so neighbors map straight back.
func SpatialPoints(subset []*entities.Facility) []geo.Point {
	points := make([]geo.Point, 0, len(subset))
	for i, f := range subset {
		if !f.HasCoordinates() {
			continue
		}
		points = append(points, geo.Point{Pos: i, Lat: *f.Latitude, Lng: *f.Longitude})
	}
	return points
}

// deduplicate merges rows sharing a pk_unique_id. Rows are visited
// richest first; list fields union across the group preserving first
// insertion, scalars take the first non-empty value.
func deduplicate(rows []*entities.Facility) []*entities.Facility {
	ordered := make([]*entities.Facility, len(rows))
	copy(ordered, rows)
	sort.SliceStable(ordered, func(a, b int) bool {
		return richness(ordered[a]) > richness(ordered[b])
	})

	groups := make(map[string][]*entities.Facility)
	var groupOrder []string
	for _, row := range ordered {
		key := row.PKUniqueID
		if key == "" {
			key = row.UniqueID
		}
		if _, seen := groups[key]; !seen {
			groupOrder = append(groupOrder, key)
		}
		groups[key] = append(groups[key], row)
	}

	merged := make([]*entities.Facility, 0, len(groupOrder))
	for _, key := range groupOrder {
		merged = append(merged, mergeGroup(groups[key]))
	}
	return merged
}

func mergeGroup(group []*entities.Facility) *entities.Facility {
	base := *group[0]

	base.Specialties = unionLists(group, func(f *entities.Facility) []string { return f.Specialties })
	base.Procedures = unionLists(group, func(f *entities.Facility) []string { return f.Procedures })
	base.Equipment = unionLists(group, func(f *entities.Facility) []string { return f.Equipment })
	base.Capabilities = unionLists(group, func(f *entities.Facility) []string { return f.Capabilities })

	for _, row := range group[1:] {
		fillScalars(&base, row)
	}
	return &base
}

func unionLists(group []*entities.Facility, get func(*entities.Facility) []string) []string {
	var combined []string
	seen := make(map[string]bool)
	for _, row := range group {
		for _, item := range get(row) {
			if !seen[item] {
				seen[item] = true
				combined = append(combined, item)
			}
		}
	}
	return combined
}

func fillScalars(base, row *entities.Facility) {
	if base.UniqueID == "" {
		base.UniqueID = row.UniqueID
	}
	if base.Name == "" {
		base.Name = row.Name
	}
	if base.OrganizationType == "" {
		base.OrganizationType = row.OrganizationType
	}
	if base.FacilityType == "" {
		base.FacilityType = row.FacilityType
	}
	if base.AddressLine1 == "" {
		base.AddressLine1 = row.AddressLine1
	}
	if base.City == "" {
		base.City = row.City
	}
	if base.Region == "" {
		base.Region = row.Region
	}
	if base.Country == "" {
		base.Country = row.Country
	}
	if base.OperatorType == "" {
		base.OperatorType = row.OperatorType
	}
	if base.Description == "" {
		base.Description = row.Description
	}
	if base.OrganizationDescription == "" {
		base.OrganizationDescription = row.OrganizationDescription
	}
	if base.MissionStatement == "" {
		base.MissionStatement = row.MissionStatement
	}
	if base.Latitude == nil || base.Longitude == nil {
		if row.Latitude != nil && row.Longitude != nil {
			base.Latitude = row.Latitude
			base.Longitude = row.Longitude
		}
	}
	if base.Beds == nil {
		base.Beds = row.Beds
	}
	if base.Doctors == nil {
		base.Doctors = row.Doctors
	}
	if base.YearEstablished == nil {
		base.YearEstablished = row.YearEstablished
	}
	if base.AreaSqm == nil {
		base.AreaSqm = row.AreaSqm
	}
}

func richness(f *entities.Facility) int {
	score := 0
	for _, s := range []string{
		f.PKUniqueID, f.UniqueID, f.Name, string(f.OrganizationType), f.FacilityType,
		f.AddressLine1, f.City, f.Region, f.Country, f.OperatorType,
		f.Description, f.OrganizationDescription, f.MissionStatement,
	} {
		if !isAbsent(s) {
			score++
		}
	}
	if f.Latitude != nil && f.Longitude != nil {
		score += 2
	}
	for _, p := range []*int{f.Beds, f.Doctors, f.YearEstablished} {
		if p != nil {
			score++
		}
	}
	if f.AreaSqm != nil {
		score++
	}
	for _, list := range [][]string{f.Specialties, f.Procedures, f.Equipment, f.Capabilities} {
		if len(list) > 0 {
			score++
		}
	}
	return score
}

// buildDocument composes the stable text form used for embedding and
// red-flag scanning.
func buildDocument(f *entities.Facility) string {
	var parts []string

	name := f.Name
	if name == "" {
		name = "Unknown Facility"
	}
	parts = append(parts, fmt.Sprintf("Name: %s", name))

	typeLine := fmt.Sprintf("Type: %s", f.OrganizationType)
	if f.FacilityType != "" {
		typeLine += fmt.Sprintf(" (%s)", f.FacilityType)
	}
	parts = append(parts, typeLine)

	var loc []string
	for _, v := range []string{f.AddressLine1, f.City, f.Region, f.Country} {
		if !isAbsent(v) {
			loc = append(loc, v)
		}
	}
	if len(loc) > 0 {
		parts = append(parts, fmt.Sprintf("Location: %s", strings.Join(loc, ", ")))
	}

	if len(f.Specialties) > 0 {
		readable := make([]string, len(f.Specialties))
		for i, s := range f.Specialties {
			readable[i] = CamelToReadable(s)
		}
		parts = append(parts, fmt.Sprintf("Medical Specialties: %s", strings.Join(readable, ", ")))
	}
	if len(f.Procedures) > 0 {
		parts = append(parts, fmt.Sprintf("Procedures: %s", strings.Join(f.Procedures, "; ")))
	}
	if len(f.Equipment) > 0 {
		parts = append(parts, fmt.Sprintf("Equipment: %s", strings.Join(f.Equipment, "; ")))
	}
	if len(f.Capabilities) > 0 {
		parts = append(parts, fmt.Sprintf("Capabilities: %s", strings.Join(f.Capabilities, "; ")))
	}

	if !isAbsent(f.Description) {
		parts = append(parts, fmt.Sprintf("description: %s", f.Description))
	}
	if !isAbsent(f.OrganizationDescription) {
		parts = append(parts, fmt.Sprintf("organizationDescription: %s", f.OrganizationDescription))
	}
	if !isAbsent(f.MissionStatement) {
		parts = append(parts, fmt.Sprintf("missionStatement: %s", f.MissionStatement))
	}

	if !isAbsent(f.OperatorType) {
		parts = append(parts, fmt.Sprintf("Operator: %s", f.OperatorType))
	}
	if f.Doctors != nil {
		parts = append(parts, fmt.Sprintf("Number of Doctors: %d", *f.Doctors))
	}
	if f.Beds != nil {
		parts = append(parts, fmt.Sprintf("Bed Capacity: %d", *f.Beds))
	}
	if f.YearEstablished != nil {
		parts = append(parts, fmt.Sprintf("Year Established: %d", *f.YearEstablished))
	}

	return strings.Join(parts, "\n")
}

// Loader builds the table from a source exactly once and hands out the
// frozen reference afterwards.
type Loader struct {
	source repositories.FacilitySource

	once  sync.Once
	table *Table
	err   error
}

// NewLoader wraps a facility source with a once-guard.
func NewLoader(source repositories.FacilitySource) *Loader {
	return &Loader{source: source}
}

// Load returns the shared table, building it on first use. A failed
// build is surfaced to every caller until process restart.
func (l *Loader) Load(ctx context.Context) (*Table, error) {
	l.once.Do(func() {
		rows, err := l.source.LoadAll(ctx)
		if err != nil {
			l.err = err
			return
		}
		l.table = Build(rows)
	})
	return l.table, l.err
}
