package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/virtuefdn/medbridge/backend/internal/adapters/catalog"
	"github.com/virtuefdn/medbridge/backend/internal/domain/entities"
	"github.com/virtuefdn/medbridge/backend/internal/domain/repositories"
	tsclient "github.com/virtuefdn/medbridge/backend/internal/infrastructure/clients/typesense"
	apperrors "github.com/virtuefdn/medbridge/backend/pkg/errors"
)

// embedding field per named vector
var vectorFields = map[entities.VectorName]string{
	entities.VectorFullDocument:       "full_document_embedding",
	entities.VectorClinicalDetail:     "clinical_embedding",
	entities.VectorSpecialtiesContext: "specialties_embedding",
}

const excludeEmbeddings = "full_document_embedding,clinical_embedding,specialties_embedding"

// VectorAdapter implements vector facility search on Typesense with one
// auto-embedded field per document view.
type VectorAdapter struct {
	client *tsclient.Client
}

var _ repositories.VectorSearchRepository = (*VectorAdapter)(nil)

// NewVectorAdapter creates a new Typesense vector adapter
func NewVectorAdapter(client *tsclient.Client) *VectorAdapter {
	return &VectorAdapter{client: client}
}

// EnsureSchema ensures the facilities collection exists
func (a *VectorAdapter) EnsureSchema(ctx context.Context) error {
	return a.client.InitSchema(ctx)
}

// Index upserts a facility with its three document views. Embeddings are
// computed server-side from the text fields.
func (a *VectorAdapter) Index(ctx context.Context, facility *entities.Facility) error {
	document := map[string]interface{}{
		"id":               facility.PKUniqueID,
		"name":             facility.Name,
		"org_type":         string(facility.OrganizationType),
		"facility_type":    facility.FacilityType,
		"city":             facility.City,
		"region":           facility.Region,
		"specialties":      orEmpty(facility.Specialties),
		"procedures":       orEmpty(facility.Procedures),
		"equipment":        orEmpty(facility.Equipment),
		"capabilities":     orEmpty(facility.Capabilities),
		"document":         facility.Document,
		"clinical_text":    clinicalText(facility),
		"specialties_text": specialtiesText(facility),
	}
	if facility.Beds != nil {
		document["beds"] = *facility.Beds
	}
	if facility.Doctors != nil {
		document["doctors"] = *facility.Doctors
	}
	if facility.HasCoordinates() {
		document["location"] = []float64{*facility.Latitude, *facility.Longitude}
	}

	if err := a.client.IndexFacility(ctx, document); err != nil {
		return apperrors.NewInternalError("failed to index facility", err)
	}
	return nil
}

// Search runs a semantic query against one named vector. Results carry
// similarity scores in [0, 1], highest first.
func (a *VectorAdapter) Search(ctx context.Context, query string, vector entities.VectorName, topK int, filters entities.SearchFilters) ([]entities.SearchHit, error) {
	field, ok := vectorFields[vector]
	if !ok {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown vector: %s", vector))
	}

	params := &api.SearchCollectionParams{
		Q:             pointer.String(query),
		QueryBy:       pointer.String(field),
		PerPage:       pointer.Int(topK),
		ExcludeFields: pointer.String(excludeEmbeddings),
		Prefix:        pointer.String("false"),
	}
	if filterBy := buildFilterBy(filters); filterBy != "" {
		params.FilterBy = pointer.String(filterBy)
	}

	result, err := a.client.Client().Collection(tsclient.FacilitiesCollection).Documents().Search(ctx, params)
	if err != nil {
		return nil, apperrors.NewInternalError("vector search failed", err)
	}
	if result.Hits == nil {
		return nil, nil
	}

	hits := make([]entities.SearchHit, 0, len(*result.Hits))
	for _, h := range *result.Hits {
		if h.Document == nil {
			continue
		}
		hit := mapHit(*h.Document)
		if h.VectorDistance != nil {
			// cosine distance to similarity
			score := 1 - float64(*h.VectorDistance)
			if score < 0 {
				score = 0
			}
			hit.Score = score
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// buildFilterBy translates structured filters into a Typesense filter
// expression. Empty filters produce an empty string.
func buildFilterBy(filters entities.SearchFilters) string {
	var clauses []string
	if filters.OrgType != "" {
		clauses = append(clauses, fmt.Sprintf("org_type:=%s", filters.OrgType))
	}
	if filters.FacilityType != "" {
		clauses = append(clauses, fmt.Sprintf("facility_type:=%s", filters.FacilityType))
	}
	if filters.City != "" {
		clauses = append(clauses, fmt.Sprintf("city:=%s", filters.City))
	}
	if len(filters.Specialties) > 0 {
		clauses = append(clauses, fmt.Sprintf("specialties:=[%s]", strings.Join(filters.Specialties, ",")))
	}
	return strings.Join(clauses, " && ")
}

func mapHit(doc map[string]interface{}) entities.SearchHit {
	hit := entities.SearchHit{
		ID:           asString(doc["id"]),
		Name:         asString(doc["name"]),
		OrgType:      asString(doc["org_type"]),
		FacilityType: asString(doc["facility_type"]),
		City:         asString(doc["city"]),
		Region:       asString(doc["region"]),
		Specialties:  asStrings(doc["specialties"]),
		Procedures:   asStrings(doc["procedures"]),
		Equipment:    asStrings(doc["equipment"]),
		Capabilities: asStrings(doc["capabilities"]),
		DocumentText: asString(doc["document"]),
	}
	if v, ok := doc["beds"].(float64); ok {
		beds := int(v)
		hit.Beds = &beds
	}
	if v, ok := doc["doctors"].(float64); ok {
		doctors := int(v)
		hit.Doctors = &doctors
	}
	if loc, ok := doc["location"].([]interface{}); ok && len(loc) == 2 {
		if lat, ok := loc[0].(float64); ok {
			if lng, ok := loc[1].(float64); ok {
				hit.Lat = &lat
				hit.Lng = &lng
			}
		}
	}
	return hit
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asStrings(v interface{}) []string {
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func orEmpty(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

// clinicalText is the procedures and equipment view of a facility.
func clinicalText(f *entities.Facility) string {
	var parts []string
	if len(f.Procedures) > 0 {
		parts = append(parts, fmt.Sprintf("Procedures: %s", strings.Join(f.Procedures, "; ")))
	}
	if len(f.Equipment) > 0 {
		parts = append(parts, fmt.Sprintf("Equipment: %s", strings.Join(f.Equipment, "; ")))
	}
	if len(f.Capabilities) > 0 {
		parts = append(parts, fmt.Sprintf("Capabilities: %s", strings.Join(f.Capabilities, "; ")))
	}
	if len(parts) == 0 {
		return f.Name
	}
	return strings.Join(parts, "\n")
}

// specialtiesText is the specialty view, phrased the way specialty
// queries get rewritten.
func specialtiesText(f *entities.Facility) string {
	if len(f.Specialties) == 0 {
		return f.Name
	}
	readable := make([]string, len(f.Specialties))
	for i, s := range f.Specialties {
		readable[i] = catalog.CamelToReadable(s)
	}
	return fmt.Sprintf("facility with specialties: %s", strings.Join(readable, ", "))
}
