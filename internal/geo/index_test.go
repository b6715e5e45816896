package geo

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance_KnownPairs(t *testing.T) {
	// Accra to Kumasi is roughly 200 km as the crow flies
	d := Distance(5.6037, -0.1870, 6.6885, -1.6244)
	assert.InDelta(t, 200, d, 15)

	// Zero distance for identical points
	assert.InDelta(t, 0, Distance(5.6, -0.19, 5.6, -0.19), 1e-9)
}

func TestIndex_KNearest(t *testing.T) {
	points := []Point{
		{Pos: 0, Lat: 5.6037, Lng: -0.1870},  // Accra
		{Pos: 1, Lat: 6.6885, Lng: -1.6244},  // Kumasi
		{Pos: 2, Lat: 9.4034, Lng: -0.8393},  // Tamale
		{Pos: 3, Lat: 4.8981, Lng: -1.7450},  // Takoradi
		{Pos: 4, Lat: 5.6698, Lng: -0.0166},  // Tema
	}
	idx := NewIndex(points)

	// Nearest to Accra should be Accra itself, then Tema
	got := idx.KNearest(5.6037, -0.1870, 2)
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].Pos)
	assert.Equal(t, 4, got[1].Pos)
	assert.InDelta(t, 0, got[0].DistanceKm, 1e-9)

	// Ascending order
	assert.LessOrEqual(t, got[0].DistanceKm, got[1].DistanceKm)
}

func TestIndex_KNearest_KExceedsSize(t *testing.T) {
	points := []Point{
		{Pos: 0, Lat: 5.6, Lng: -0.19},
		{Pos: 1, Lat: 6.7, Lng: -1.62},
	}
	idx := NewIndex(points)

	got := idx.KNearest(5.6, -0.19, 10)
	assert.Len(t, got, 2)
}

func TestIndex_WithinRadius_ContainsSelf(t *testing.T) {
	points := []Point{
		{Pos: 0, Lat: 5.6037, Lng: -0.1870},
		{Pos: 1, Lat: 6.6885, Lng: -1.6244},
	}
	idx := NewIndex(points)

	// A point is always within any non-negative radius of itself
	got := idx.WithinRadius(5.6037, -0.1870, 0)
	require.NotEmpty(t, got)
	assert.Equal(t, 0, got[0].Pos)
}

func TestIndex_WithinRadius_SortedAndFiltered(t *testing.T) {
	points := []Point{
		{Pos: 0, Lat: 5.6037, Lng: -0.1870}, // Accra
		{Pos: 1, Lat: 5.6698, Lng: -0.0166}, // Tema ~20km
		{Pos: 2, Lat: 9.4034, Lng: -0.8393}, // Tamale ~430km
	}
	idx := NewIndex(points)

	got := idx.WithinRadius(5.6037, -0.1870, 50)
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].Pos)
	assert.Equal(t, 1, got[1].Pos)
	for _, n := range got {
		assert.LessOrEqual(t, n.DistanceKm, 50.0)
	}
}

func TestIndex_MatchesLinearScan(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	points := make([]Point, 300)
	for i := range points {
		points[i] = Point{
			Pos: i,
			Lat: GhanaBounds.South + rng.Float64()*(GhanaBounds.North-GhanaBounds.South),
			Lng: GhanaBounds.West + rng.Float64()*(GhanaBounds.East-GhanaBounds.West),
		}
	}
	idx := NewIndex(points)

	queryLat, queryLng := 7.0, -1.0
	got := idx.KNearest(queryLat, queryLng, 10)
	require.Len(t, got, 10)

	// Brute-force reference
	type ref struct {
		pos int
		d   float64
	}
	refs := make([]ref, len(points))
	for i, p := range points {
		refs[i] = ref{pos: p.Pos, d: Distance(queryLat, queryLng, p.Lat, p.Lng)}
	}
	sort.Slice(refs, func(a, b int) bool { return refs[a].d < refs[b].d })

	for i := range got {
		assert.InDelta(t, refs[i].d, got[i].DistanceKm, 1e-9)
	}

	// Radius queries agree with the linear scan too
	within := idx.WithinRadius(queryLat, queryLng, 120)
	count := 0
	for _, r := range refs {
		if r.d <= 120 {
			count++
		}
	}
	assert.Len(t, within, count)
}
