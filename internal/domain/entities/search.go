package entities

// VectorName selects one of the three embeddings per facility document.
type VectorName string

const (
	VectorFullDocument       VectorName = "full_document"
	VectorClinicalDetail     VectorName = "clinical_detail"
	VectorSpecialtiesContext VectorName = "specialties_context"
)

// AllVectors lists the named vectors in their canonical order.
var AllVectors = []VectorName{VectorFullDocument, VectorClinicalDetail, VectorSpecialtiesContext}

// SearchFilters are the metadata pre-filters applied to a vector search.
type SearchFilters struct {
	OrgType      string   `json:"org_type,omitempty"`
	FacilityType string   `json:"facility_type,omitempty"`
	City         string   `json:"city,omitempty"`
	Specialties  []string `json:"specialties,omitempty"`
}

// IsEmpty reports whether no filter is set.
func (f SearchFilters) IsEmpty() bool {
	return f.OrgType == "" && f.FacilityType == "" && f.City == "" && len(f.Specialties) == 0
}

// SearchHit is one ranked result from the vector backend.
type SearchHit struct {
	ID           string   `json:"id"`
	Score        float64  `json:"score"`
	Name         string   `json:"name"`
	OrgType      string   `json:"org_type"`
	FacilityType string   `json:"facility_type"`
	City         string   `json:"city"`
	Region       string   `json:"region"`
	Specialties  []string `json:"specialties"`
	Procedures   []string `json:"procedures"`
	Equipment    []string `json:"equipment"`
	Capabilities []string `json:"capabilities"`
	Beds         *int     `json:"beds,omitempty"`
	Doctors      *int     `json:"doctors,omitempty"`
	Lat          *float64 `json:"lat,omitempty"`
	Lng          *float64 `json:"lng,omitempty"`
	DocumentText string   `json:"document_text"`
}
