package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeocode_ExactCity(t *testing.T) {
	c, ok := Geocode("Accra", "")
	require.True(t, ok)
	assert.InDelta(t, 5.6037, c.Lat, 1e-6)
	assert.InDelta(t, -0.1870, c.Lng, 1e-6)
}

func TestGeocode_RegionFallback(t *testing.T) {
	c, ok := Geocode("nowhere-town", "Northern Region")
	require.True(t, ok)
	assert.InDelta(t, 9.5, c.Lat, 1e-6)
}

func TestGeocode_WordBoundary_NoInteriorMatch(t *testing.T) {
	// "wa" must resolve to Wa in Upper West, never to "nkawkaw"
	c, ok := Geocode("Wa", "")
	require.True(t, ok)
	assert.InDelta(t, 10.0601, c.Lat, 1e-6)
	assert.InDelta(t, -2.5099, c.Lng, 1e-6)
}

func TestGeocode_FuzzyMisspelling(t *testing.T) {
	c, ok := Geocode("Kumase", "")
	require.True(t, ok)
	assert.InDelta(t, 6.6885, c.Lat, 1e-6)
}

func TestGeocode_FuzzyTieIsDeterministic(t *testing.T) {
	// "adentaa" scores 85 against both "adenta" and "adentan"; the
	// sorted key walk must pick the same key on every call
	for i := 0; i < 20; i++ {
		key, ok := closestCityKey("adentaa", 80)
		require.True(t, ok)
		assert.Equal(t, "adenta", key)
	}
}

func TestGeocode_Unknown(t *testing.T) {
	_, ok := Geocode("xyzzyplugh", "")
	assert.False(t, ok)
}

func TestNormalizePlaceName(t *testing.T) {
	assert.Equal(t, "adenta fafraha", NormalizePlaceName("  Adenta-Fafraha "))
	assert.Equal(t, "greater accra", NormalizePlaceName("Gt. Accra"))
}

func TestRegionCentroid(t *testing.T) {
	c, ok := RegionCentroid("Ashanti")
	require.True(t, ok)
	assert.InDelta(t, 6.7470, c.Lat, 1e-6)

	_, ok = RegionCentroid("atlantis")
	assert.False(t, ok)
}

func TestFindCityInText(t *testing.T) {
	name, c, ok := FindCityInText("hospitals near Cape Coast with surgery")
	require.True(t, ok)
	assert.Equal(t, "cape coast", name)
	assert.InDelta(t, 5.1036, c.Lat, 1e-6)

	// "Ho" must not match inside "hospital"
	_, _, ok = FindCityInText("list all hospitals")
	assert.False(t, ok)
}
