package utils

import "strings"

// SpecialtyIDs lists every canonical specialty id in a stable order.
var SpecialtyIDs = []string{
	"cardiology",
	"ophthalmology",
	"orthopedicSurgery",
	"generalSurgery",
	"pediatrics",
	"gynecologyAndObstetrics",
	"emergencyMedicine",
	"internalMedicine",
	"infectiousDiseases",
	"dentistry",
	"radiology",
	"anesthesia",
	"psychiatry",
	"neurosurgery",
	"plasticSurgery",
}

// SpecialtyKeywords maps a canonical specialty id to the lowercase
// keywords that indicate it in free text.
var SpecialtyKeywords = map[string][]string{
	"cardiology":              {"cardiology", "cardiac", "heart", "cardiovascular"},
	"ophthalmology":           {"ophthalmology", "eye", "cataract", "retina", "ophthalmic"},
	"orthopedicSurgery":       {"orthopedic", "orthopaedic", "bone", "fracture", "joint"},
	"generalSurgery":          {"surgery", "surgical", "operation"},
	"pediatrics":              {"pediatric", "children", "child", "neonatal"},
	"gynecologyAndObstetrics": {"obstetric", "gynecology", "maternal", "maternity", "women"},
	"emergencyMedicine":       {"emergency", "trauma", "accident"},
	"internalMedicine":        {"internal medicine", "general medicine"},
	"infectiousDiseases":      {"infectious", "hiv", "aids", "malaria", "tuberculosis", "tb"},
	"dentistry":               {"dental", "dentist", "tooth", "teeth"},
	"radiology":               {"radiology", "x-ray", "imaging", "ct scan", "mri", "ultrasound"},
	"anesthesia":              {"anesthesia", "anaesthesia", "anesthesiology"},
	"psychiatry":              {"psychiatry", "mental health", "psychiatric"},
	"neurosurgery":            {"neurosurgery", "brain surgery", "neuro"},
	"plasticSurgery":          {"plastic surgery", "reconstructive", "cleft"},
}

// DetectSpecialties returns every specialty whose keywords appear in the
// text, in canonical order.
func DetectSpecialties(text string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, id := range SpecialtyIDs {
		for _, kw := range SpecialtyKeywords[id] {
			if strings.Contains(lower, kw) {
				found = append(found, id)
				break
			}
		}
	}
	return found
}

// DetectSpecialty returns the first specialty matched in the text, if any.
func DetectSpecialty(text string) (string, bool) {
	found := DetectSpecialties(text)
	if len(found) == 0 {
		return "", false
	}
	return found[0], true
}
