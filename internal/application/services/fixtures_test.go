package services_test

import (
	"github.com/virtuefdn/medbridge/backend/internal/adapters/catalog"
	"github.com/virtuefdn/medbridge/backend/internal/domain/entities"
)

func intP(v int) *int           { return &v }
func floatP(v float64) *float64 { return &v }

// testTable builds a small catalog spanning four regions, one NGO, and
// a spread of capability profiles.
func testTable() *catalog.Table {
	rows := []*entities.Facility{
		{
			PKUniqueID:       "f1",
			Name:             "Korle Bu Teaching Hospital",
			OrganizationType: entities.OrganizationFacility,
			FacilityType:     "hospital",
			City:             "Accra",
			Region:           "Greater Accra",
			Latitude:         floatP(5.5364),
			Longitude:        floatP(-0.2267),
			Beds:             intP(200),
			Doctors:          intP(50),
			Specialties:      []string{"cardiology", "neurosurgery"},
			Procedures:       []string{"cardiac surgery"},
			Equipment:        []string{"CT scanner", "MRI", "operating microscope"},
			Capabilities:     []string{"ICU", "operating theater"},
		},
		{
			PKUniqueID:       "f2",
			Name:             "Tamale Eye Clinic",
			OrganizationType: entities.OrganizationFacility,
			FacilityType:     "clinic",
			City:             "Tamale",
			Region:           "Northern",
			Latitude:         floatP(9.4008),
			Longitude:        floatP(-0.8393),
			Beds:             intP(10),
			Doctors:          intP(2),
			Specialties:      []string{"ophthalmology"},
			Procedures:       []string{"cataract surgery"},
			Equipment:        []string{"operating microscope", "phaco machine", "keratometer"},
			Capabilities:     []string{"operating theater"},
		},
		{
			PKUniqueID:       "f3",
			Name:             "Kumasi South Hospital",
			OrganizationType: entities.OrganizationFacility,
			FacilityType:     "hospital",
			City:             "Kumasi",
			Region:           "Ashanti",
			Latitude:         floatP(6.6885),
			Longitude:        floatP(-1.6244),
			Beds:             intP(80),
			Doctors:          intP(1),
			Specialties:      []string{"cardiology"},
		},
		{
			PKUniqueID:       "f4",
			Name:             "Hope Health Foundation",
			OrganizationType: entities.OrganizationNGO,
			City:             "Accra",
			Region:           "Greater Accra",
			Latitude:         floatP(5.6037),
			Longitude:        floatP(-0.1870),
		},
		{
			PKUniqueID:       "f5",
			Name:             "Wa District Clinic",
			OrganizationType: entities.OrganizationFacility,
			FacilityType:     "clinic",
			City:             "Wa",
			Region:           "Upper West",
			Latitude:         floatP(10.0601),
			Longitude:        floatP(-2.5099),
			Beds:             intP(120),
			Doctors:          intP(1),
			Specialties:      []string{"pediatrics"},
		},
	}
	return catalog.Build(rows)
}
