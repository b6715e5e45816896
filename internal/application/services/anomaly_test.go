package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChiSquareCritical99(t *testing.T) {
	// tabulated values at p=0.99
	assert.InDelta(t, 16.81, chiSquareCritical99(6), 0.3)
	assert.InDelta(t, 6.63, chiSquareCritical99(1), 0.3)
	assert.Equal(t, 0.0, chiSquareCritical99(0))
}

func TestZScore_ZeroVarianceColumnStaysZero(t *testing.T) {
	features := [][]float64{
		{1, 5},
		{2, 5},
		{3, 5},
	}

	scaled := zscore(features)

	require.Len(t, scaled, 3)
	for _, row := range scaled {
		assert.Equal(t, 0.0, row[1])
	}
	assert.Less(t, scaled[0][0], 0.0)
	assert.Greater(t, scaled[2][0], 0.0)
	assert.InDelta(t, 0.0, scaled[1][0], 1e-9)
}

func TestInvertMatrix_Identity(t *testing.T) {
	m := [][]float64{
		{2, 0},
		{0, 4},
	}

	inv, ok := invertMatrix(m)

	require.True(t, ok)
	assert.InDelta(t, 0.5, inv[0][0], 1e-9)
	assert.InDelta(t, 0.25, inv[1][1], 1e-9)
	assert.InDelta(t, 0.0, inv[0][1], 1e-9)
}

func TestInvertMatrix_SingularFails(t *testing.T) {
	m := [][]float64{
		{1, 2},
		{2, 4},
	}

	_, ok := invertMatrix(m)
	assert.False(t, ok)
}

func TestIsolationScores_OutlierScoresHighest(t *testing.T) {
	X := make([][]float64, 0, 41)
	for i := 0; i < 40; i++ {
		X = append(X, []float64{float64(i%5) * 0.1, float64(i%7) * 0.1})
	}
	X = append(X, []float64{10, 10})

	scores := isolationScores(X)

	require.Len(t, scores, 41)
	outlier := scores[40]
	for i := 0; i < 40; i++ {
		assert.Less(t, scores[i], outlier)
	}
	assert.Greater(t, outlier, 0.5)
}

func TestMahalanobisSquared_OutlierFurthest(t *testing.T) {
	X := [][]float64{
		{1, 1}, {1.1, 0.9}, {0.9, 1.1}, {1.05, 1}, {0.95, 0.95},
		{1, 1.05}, {1.02, 0.98}, {0.98, 1.02}, {1.04, 1.03},
		{8, 8},
	}

	dists := mahalanobisSquared(X)

	require.Len(t, dists, 10)
	outlier := dists[9]
	for i := 0; i < 9; i++ {
		assert.Less(t, dists[i], outlier)
	}
}

func TestMahalanobisSquared_DegenerateColumns(t *testing.T) {
	// constant columns must not blow up the inversion
	X := [][]float64{
		{0, 1}, {0, 2}, {0, 3}, {0, 40},
	}

	dists := mahalanobisSquared(X)

	require.Len(t, dists, 4)
	for _, d := range dists {
		assert.False(t, d < 0)
	}
	assert.Greater(t, dists[3], dists[0])
}

func TestMedianOf(t *testing.T) {
	assert.Equal(t, 0.0, medianOf(nil))
	assert.Equal(t, 2.0, medianOf([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, medianOf([]float64{1, 2, 3, 4}))
}
