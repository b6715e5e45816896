package services_test

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/virtuefdn/medbridge/backend/internal/application/services"
	"github.com/virtuefdn/medbridge/backend/internal/domain/entities"
)

type searchCall struct {
	query   string
	vector  entities.VectorName
	filters entities.SearchFilters
}

// fakeVectorRepo serves canned hits per vector and records every call.
type fakeVectorRepo struct {
	hits            map[entities.VectorName][]entities.SearchHit
	calls           []searchCall
	emptyIfFiltered bool
}

func (r *fakeVectorRepo) Search(ctx context.Context, query string, vector entities.VectorName, topK int, filters entities.SearchFilters) ([]entities.SearchHit, error) {
	r.calls = append(r.calls, searchCall{query: query, vector: vector, filters: filters})
	if r.emptyIfFiltered && !filters.IsEmpty() {
		return nil, nil
	}
	return r.hits[vector], nil
}

func (r *fakeVectorRepo) Index(ctx context.Context, facility *entities.Facility) error { return nil }
func (r *fakeVectorRepo) EnsureSchema(ctx context.Context) error                       { return nil }

func hit(id, name string) entities.SearchHit {
	return entities.SearchHit{ID: id, Name: name, Score: 0.9, DocumentText: name + " document"}
}

func TestRetriever_FusionPrefersConsensus(t *testing.T) {
	repo := &fakeVectorRepo{hits: map[entities.VectorName][]entities.SearchHit{
		entities.VectorFullDocument:       {hit("a", "Alpha"), hit("b", "Beta")},
		entities.VectorClinicalDetail:     {hit("a", "Alpha")},
		entities.VectorSpecialtiesContext: {hit("a", "Alpha")},
	}}
	svc := services.NewRetrieverService(repo, time.Second)

	payload, citations, err := svc.Execute(context.Background(), "good hospitals", services.AgentContext{})
	require.NoError(t, err)

	assert.Equal(t, "semantic_search", payload["action"])
	results := payload["results"].([]map[string]any)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0]["id"])
	assert.Equal(t, "b", results[1]["id"])
	assert.Equal(t, 2, payload["count"])
	require.Len(t, citations, 2)
	assert.Equal(t, "a", citations[0].SourceID)
	assert.NotNil(t, citations[0].Score)
}

func TestRetriever_QueriesEveryVectorWithRewrites(t *testing.T) {
	repo := &fakeVectorRepo{hits: map[entities.VectorName][]entities.SearchHit{}}
	svc := services.NewRetrieverService(repo, time.Second)

	_, _, err := svc.Execute(context.Background(), "good care", services.AgentContext{})
	require.NoError(t, err)

	require.Len(t, repo.calls, 3)
	byVector := map[entities.VectorName]string{}
	for _, c := range repo.calls {
		byVector[c.vector] = c.query
	}
	assert.Equal(t, "good care", byVector[entities.VectorFullDocument])
	assert.Equal(t, "Procedures: good care | Equipment: good care", byVector[entities.VectorClinicalDetail])
	assert.Equal(t, "facility with specialties: good care", byVector[entities.VectorSpecialtiesContext])
}

func TestRetriever_TopicKeywordsBoostVectorWeights(t *testing.T) {
	repo := &fakeVectorRepo{hits: map[entities.VectorName][]entities.SearchHit{}}
	svc := services.NewRetrieverService(repo, time.Second)

	payload, _, err := svc.Execute(context.Background(), "facilities with mri equipment and a scanner", services.AgentContext{})
	require.NoError(t, err)

	weights := payload["vector_weights"].(map[string]float64)
	assert.Greater(t, weights[string(entities.VectorClinicalDetail)], weights[string(entities.VectorFullDocument)])

	total := 0.0
	for _, w := range weights {
		total += w
	}
	assert.InDelta(t, 3.0, total, 1e-9)
}

func TestRetriever_RetriesUnfilteredOnEmptyResults(t *testing.T) {
	repo := &fakeVectorRepo{
		hits: map[entities.VectorName][]entities.SearchHit{
			entities.VectorFullDocument: {hit("a", "Alpha")},
		},
		emptyIfFiltered: true,
	}
	svc := services.NewRetrieverService(repo, time.Second)

	payload, _, err := svc.Execute(context.Background(), "facilities in Accra", services.AgentContext{})
	require.NoError(t, err)

	assert.Equal(t, 1, payload["count"])
	// three filtered legs plus three unfiltered retry legs
	assert.Len(t, repo.calls, 6)
	filters := payload["filters_applied"].(map[string]any)
	assert.Equal(t, "Accra", filters["city"])
}

func TestRetriever_CitationEvidenceKeepsValidUTF8(t *testing.T) {
	// a multi-byte rune straddles the 200-byte evidence cut
	doc := strings.Repeat("a", 199) + "épilepsie referral clinic"
	repo := &fakeVectorRepo{hits: map[entities.VectorName][]entities.SearchHit{
		entities.VectorFullDocument: {
			{ID: "a", Name: "Alpha", Score: 0.9, DocumentText: doc},
		},
	}}
	svc := services.NewRetrieverService(repo, time.Second)

	_, citations, err := svc.Execute(context.Background(), "good hospitals", services.AgentContext{})
	require.NoError(t, err)

	require.Len(t, citations, 1)
	assert.True(t, utf8.ValidString(citations[0].Evidence))
	assert.Equal(t, strings.Repeat("a", 199), citations[0].Evidence)
}

func TestRetriever_SearchForService(t *testing.T) {
	repo := &fakeVectorRepo{hits: map[entities.VectorName][]entities.SearchHit{
		entities.VectorClinicalDetail: {hit("a", "Alpha")},
	}}
	svc := services.NewRetrieverService(repo, time.Second)

	payload, err := svc.SearchForService(context.Background(), "dialysis", "Northern", 5)
	require.NoError(t, err)

	assert.Equal(t, "service_search", payload["action"])
	assert.Equal(t, 1, payload["count"])
	require.Len(t, repo.calls, 1)
	assert.Equal(t, "facility offering dialysis in Northern", repo.calls[0].query)
	assert.Equal(t, entities.VectorClinicalDetail, repo.calls[0].vector)
	assert.Equal(t, "Northern", repo.calls[0].filters.City)
}
