package handlers

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/virtuefdn/medbridge/backend/internal/adapters/catalog"
	"github.com/virtuefdn/medbridge/backend/internal/domain/entities"
)

// CatalogHandler serves the facility catalog for maps and dashboards.
type CatalogHandler struct {
	table *catalog.Table
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(table *catalog.Table) *CatalogHandler {
	return &CatalogHandler{table: table}
}

// facilityListItem is the flat marker shape the frontend consumes.
type facilityListItem struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	City         string   `json:"city,omitempty"`
	Region       string   `json:"region,omitempty"`
	OrgType      string   `json:"org_type,omitempty"`
	FacilityType string   `json:"facility_type,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	Specialties  []string `json:"specialties"`
	Capacity     *int     `json:"capacity,omitempty"`
	Doctors      *int     `json:"doctors,omitempty"`
}

func toListItem(f *entities.Facility) facilityListItem {
	specialties := f.Specialties
	if specialties == nil {
		specialties = []string{}
	}
	return facilityListItem{
		ID:           f.PKUniqueID,
		Name:         f.Name,
		City:         f.City,
		Region:       f.Region,
		OrgType:      string(f.OrganizationType),
		FacilityType: f.FacilityType,
		Latitude:     f.Latitude,
		Longitude:    f.Longitude,
		Specialties:  specialties,
		Capacity:     f.Beds,
		Doctors:      f.Doctors,
	}
}

// ListFacilities handles GET /api/facilities?limit=&offset=
func (h *CatalogHandler) ListFacilities(w http.ResponseWriter, r *http.Request) {
	all := h.table.Facilities()

	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", 0)
	if offset < 0 {
		offset = 0
	}
	if offset > len(all) {
		offset = len(all)
	}
	page := all[offset:]
	if limit > 0 && limit < len(page) {
		page = page[:limit]
	}

	items := make([]facilityListItem, 0, len(page))
	for _, f := range page {
		items = append(items, toListItem(f))
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"total":      h.table.Len(),
		"count":      len(items),
		"offset":     offset,
		"facilities": items,
	})
}

// GetStats handles GET /api/stats
func (h *CatalogHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	withCoords := 0
	totalBeds, totalDoctors := 0, 0
	orgTypes := make(map[string]int)
	regionCounts := make(map[string]int)
	specialties := make(map[string]bool)

	for _, f := range h.table.Facilities() {
		if f.HasCoordinates() {
			withCoords++
		}
		totalBeds += f.BedCount()
		totalDoctors += f.DoctorCount()

		orgType := string(f.OrganizationType)
		if orgType == "" {
			orgType = "Unknown"
		}
		orgTypes[orgType]++

		region := f.Region
		if region == "" {
			region = "Unknown"
		}
		regionCounts[region]++

		for _, s := range f.Specialties {
			specialties[s] = true
		}
	}

	type regionCount struct {
		Region string `json:"region"`
		Count  int    `json:"count"`
	}
	allRegions := make([]regionCount, 0, len(regionCounts))
	for region, count := range regionCounts {
		allRegions = append(allRegions, regionCount{Region: region, Count: count})
	}
	sort.SliceStable(allRegions, func(a, b int) bool {
		if allRegions[a].Count != allRegions[b].Count {
			return allRegions[a].Count > allRegions[b].Count
		}
		return allRegions[a].Region < allRegions[b].Region
	})
	topRegions := allRegions
	if len(topRegions) > 10 {
		topRegions = topRegions[:10]
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"total_facilities":   h.table.Len(),
		"with_coordinates":   withCoords,
		"total_beds":         totalBeds,
		"total_doctors":      totalDoctors,
		"organization_types": orgTypes,
		"unique_specialties": len(specialties),
		"top_regions":        topRegions,
		"all_regions":        allRegions,
	})
}

// ListSpecialties handles GET /api/specialties
func (h *CatalogHandler) ListSpecialties(w http.ResponseWriter, r *http.Request) {
	counts := make(map[string]int)
	for _, f := range h.table.Facilities() {
		for _, s := range f.Specialties {
			counts[s]++
		}
	}

	type specialtyCount struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	sorted := make([]specialtyCount, 0, len(counts))
	for name, count := range counts {
		sorted = append(sorted, specialtyCount{Name: name, Count: count})
	}
	sort.SliceStable(sorted, func(a, b int) bool {
		if sorted[a].Count != sorted[b].Count {
			return sorted[a].Count > sorted[b].Count
		}
		return sorted[a].Name < sorted[b].Name
	})

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"total_unique": len(sorted),
		"specialties":  sorted,
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
