package services

import "regexp"

// procedureRequirement names what a facility must plausibly have before
// its claim to an advanced procedure class is credible.
type procedureRequirement struct {
	RequiredEquipment  []string
	RequiredCapability []string
	MinBeds            int
}

var procedureRequirements = map[string]procedureRequirement{
	"neurosurgery": {
		RequiredEquipment:  []string{"CT scanner", "MRI", "operating microscope"},
		RequiredCapability: []string{"ICU", "operating theater"},
		MinBeds:            50,
	},
	"cardiac_surgery": {
		RequiredEquipment:  []string{"cardiac monitor", "bypass machine", "echo", "catheterization lab"},
		RequiredCapability: []string{"ICU", "cardiac care unit", "operating theater"},
		MinBeds:            100,
	},
	"cataract_surgery": {
		RequiredEquipment:  []string{"operating microscope", "phaco machine", "keratometer"},
		RequiredCapability: []string{"operating theater"},
		MinBeds:            5,
	},
	"dialysis": {
		RequiredEquipment:  []string{"dialysis machine", "reverse osmosis"},
		RequiredCapability: []string{"dialysis unit"},
		MinBeds:            10,
	},
	"orthopedic_surgery": {
		RequiredEquipment:  []string{"C-arm fluoroscopy", "orthopedic instruments", "casting materials"},
		RequiredCapability: []string{"operating theater", "recovery ward"},
		MinBeds:            30,
	},
	"oncology": {
		RequiredEquipment:  []string{"radiotherapy", "chemotherapy unit", "pathology lab"},
		RequiredCapability: []string{"isolation rooms", "pharmacy"},
		MinBeds:            50,
	},
}

// procedureClassOrder fixes iteration order for deterministic output.
var procedureClassOrder = []string{
	"neurosurgery", "cardiac_surgery", "cataract_surgery",
	"dialysis", "orthopedic_surgery", "oncology",
}

// specialtyProcedureClasses maps a procedure class to the specialty ids
// whose claims it constrains.
var specialtyProcedureClasses = map[string][]string{
	"neurosurgery":       {"neurosurgery"},
	"cardiac_surgery":    {"cardiology", "cardiacSurgery", "cardiothoracicSurgery"},
	"cataract_surgery":   {"ophthalmology", "corneaOphthalmology"},
	"dialysis":           {"nephrology"},
	"orthopedic_surgery": {"orthopedicSurgery"},
	"oncology":           {"oncology", "hematologyAndOncology", "radiationOncology"},
}

func specialtyMatchesProcedure(specialty, procedureClass string) bool {
	for _, s := range specialtyProcedureClasses[procedureClass] {
		if s == specialty {
			return true
		}
	}
	return false
}

// red-flag language patterns over facility free text
var redFlagPatterns = map[string][]*regexp.Regexp{
	"visiting_specialist": {
		regexp.MustCompile(`visit(?:ing|s)\s+(?:specialist|surgeon|doctor)`),
		regexp.MustCompile(`(?:weekly|monthly|quarterly)\s+(?:clinic|service)`),
		regexp.MustCompile(`outreach\s+(?:program|service|clinic)`),
	},
	"temporary_service": {
		regexp.MustCompile(`(?:surgical|medical)\s+camp`),
		regexp.MustCompile(`mission\s+(?:trip|team|group)`),
		regexp.MustCompile(`temporary\s+(?:service|clinic|facility)`),
		regexp.MustCompile(`mobile\s+(?:unit|clinic|service)`),
	},
	"vague_claim": {
		regexp.MustCompile(`(?:all|any|every)\s+(?:type|kind)\s+of\s+(?:surgery|procedure|service)`),
		regexp.MustCompile(`comprehensive\s+(?:care|service|treatment)`),
		regexp.MustCompile(`world.class`),
		regexp.MustCompile(`state.of.the.art`),
	},
}

// redFlagCategories fixes iteration order for deterministic output.
var redFlagCategories = []string{"visiting_specialist", "temporary_service", "vague_claim"}
