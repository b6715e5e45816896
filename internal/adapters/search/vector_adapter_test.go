package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/virtuefdn/medbridge/backend/internal/domain/entities"
)

func TestBuildFilterBy(t *testing.T) {
	assert.Equal(t, "", buildFilterBy(entities.SearchFilters{}))

	got := buildFilterBy(entities.SearchFilters{
		OrgType:     "ngo",
		City:        "Accra",
		Specialties: []string{"cardiology", "neurosurgery"},
	})
	assert.Equal(t, "org_type:=ngo && city:=Accra && specialties:=[cardiology,neurosurgery]", got)
}

func TestMapHit(t *testing.T) {
	hit := mapHit(map[string]interface{}{
		"id":          "f1",
		"name":        "Ridge Hospital",
		"org_type":    "facility",
		"city":        "Accra",
		"specialties": []interface{}{"cardiology"},
		"beds":        float64(420),
		"location":    []interface{}{float64(5.6), float64(-0.19)},
	})

	assert.Equal(t, "f1", hit.ID)
	assert.Equal(t, "Ridge Hospital", hit.Name)
	assert.Equal(t, []string{"cardiology"}, hit.Specialties)
	assert.Equal(t, 420, *hit.Beds)
	assert.InDelta(t, 5.6, *hit.Lat, 1e-9)
}

func TestDocumentViews(t *testing.T) {
	f := &entities.Facility{
		Name:        "Tema General",
		Specialties: []string{"gynecologyAndObstetrics"},
		Procedures:  []string{"caesarean section"},
		Equipment:   []string{"ultrasound"},
	}

	assert.Equal(t, "Procedures: caesarean section\nEquipment: ultrasound", clinicalText(f))
	assert.Equal(t, "facility with specialties: Gynecology and Obstetrics", specialtiesText(f))

	bare := &entities.Facility{Name: "Bare Clinic"}
	assert.Equal(t, "Bare Clinic", clinicalText(bare))
	assert.Equal(t, "Bare Clinic", specialtiesText(bare))
}
