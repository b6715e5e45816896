package entities

import "strings"

// OrganizationType distinguishes facilities from NGOs in the catalog
type OrganizationType string

const (
	OrganizationFacility OrganizationType = "facility"
	OrganizationNGO      OrganizationType = "ngo"
)

// Facility represents one healthcare facility or NGO in the catalog.
// Instances are immutable once the catalog is built.
type Facility struct {
	PKUniqueID string `json:"pk_unique_id"`
	UniqueID   string `json:"unique_id"`

	Name             string           `json:"name"`
	OrganizationType OrganizationType `json:"org_type"`
	FacilityType     string           `json:"facility_type"`

	AddressLine1 string `json:"address_line1,omitempty"`
	City         string `json:"city"`
	Region       string `json:"region"`
	Country      string `json:"country,omitempty"`
	// Latitude and Longitude are either both set or both nil.
	Latitude  *float64 `json:"lat,omitempty"`
	Longitude *float64 `json:"lng,omitempty"`

	Beds            *int `json:"beds,omitempty"`
	Doctors         *int `json:"doctors,omitempty"`
	YearEstablished *int `json:"year_established,omitempty"`
	AreaSqm         *float64 `json:"area,omitempty"`

	// List fields are deduplicated and keep insertion order from the
	// merged source rows. Membership checks are case-insensitive.
	Specialties  []string `json:"specialties"`
	Procedures   []string `json:"procedures"`
	Equipment    []string `json:"equipment"`
	Capabilities []string `json:"capabilities"`

	OperatorType            string `json:"operator_type,omitempty"`
	Description             string `json:"description,omitempty"`
	OrganizationDescription string `json:"organization_description,omitempty"`
	MissionStatement        string `json:"mission_statement,omitempty"`

	// Document is the stable text form used for embedding and red-flag
	// scanning.
	Document string `json:"document_text"`
}

// HasCoordinates reports whether the facility carries a usable location.
func (f *Facility) HasCoordinates() bool {
	return f.Latitude != nil && f.Longitude != nil
}

// HasSpecialty checks specialty membership case-insensitively.
func (f *Facility) HasSpecialty(specialty string) bool {
	return containsFold(f.Specialties, specialty)
}

// HasEquipment checks equipment membership by case-insensitive substring.
func (f *Facility) HasEquipment(keyword string) bool {
	return anyContainsFold(f.Equipment, keyword)
}

// HasCapability checks capability membership by case-insensitive substring.
func (f *Facility) HasCapability(keyword string) bool {
	return anyContainsFold(f.Capabilities, keyword)
}

// OffersProcedure matches a keyword against procedures or capabilities.
func (f *Facility) OffersProcedure(keyword string) bool {
	return anyContainsFold(f.Procedures, keyword) || anyContainsFold(f.Capabilities, keyword)
}

// CombinedText concatenates every capability claim plus the document,
// lowercased, for fuzzy matching and red-flag scanning.
func (f *Facility) CombinedText() string {
	parts := make([]string, 0, len(f.Procedures)+len(f.Equipment)+len(f.Capabilities)+1)
	parts = append(parts, f.Procedures...)
	parts = append(parts, f.Equipment...)
	parts = append(parts, f.Capabilities...)
	parts = append(parts, f.Document)
	return strings.ToLower(strings.Join(parts, " "))
}

// TotalClaims counts every capability claim the facility makes.
func (f *Facility) TotalClaims() int {
	return len(f.Specialties) + len(f.Procedures) + len(f.Equipment) + len(f.Capabilities)
}

// BedCount returns beds with absent treated as zero.
func (f *Facility) BedCount() int {
	if f.Beds == nil {
		return 0
	}
	return *f.Beds
}

// DoctorCount returns doctors with absent treated as zero.
func (f *Facility) DoctorCount() int {
	if f.Doctors == nil {
		return 0
	}
	return *f.Doctors
}

func containsFold(list []string, want string) bool {
	for _, v := range list {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(want)) {
			return true
		}
	}
	return false
}

func anyContainsFold(list []string, keyword string) bool {
	k := strings.ToLower(keyword)
	for _, v := range list {
		if strings.Contains(strings.ToLower(v), k) {
			return true
		}
	}
	return false
}
