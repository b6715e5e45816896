package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lineMatrix places n cities on a line 10 km apart; the optimal cyclic
// tour visits them in index order.
func lineMatrix(n int) [][]float64 {
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
		for j := range dist[i] {
			d := float64(i - j)
			if d < 0 {
				d = -d
			}
			dist[i][j] = d * 10
		}
	}
	return dist
}

func cityNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("City %d", i)
	}
	return names
}

func TestSolveTourQUBO_RefusesLargeInstances(t *testing.T) {
	result := solveTourQUBO(context.Background(), lineMatrix(11), cityNames(11))

	assert.False(t, result["feasible"].(bool))
	assert.Equal(t, "qubo_refused", result["method"])
	assert.Contains(t, result["error"], "Too many cities (11)")
}

func TestSolveTourQUBO_TrivialInstance(t *testing.T) {
	result := solveTourQUBO(context.Background(), lineMatrix(2), cityNames(2))

	assert.True(t, result["feasible"].(bool))
	assert.Equal(t, "trivial", result["method"])
	assert.Equal(t, []int{0, 1}, result["tour"])
	assert.Equal(t, 10.0, result["cost_km"])
}

func TestSolveTourQUBO_ExactGroundStateMatchesBruteForce(t *testing.T) {
	dist := lineMatrix(4)

	result := solveTourQUBO(context.Background(), dist, cityNames(4))

	require.True(t, result["feasible"].(bool))
	assert.Equal(t, "qubo_exact_ground_state", result["method"])
	assert.Equal(t, 16, result["n_qubits"])

	tour := result["tour"].([]int)
	require.True(t, isPermutation(tour, 4))
	assert.Equal(t, 0, tour[0])

	optimal := cyclicTourCost(dist, bestPermutation(context.Background(), dist))
	assert.InDelta(t, optimal, result["cost_km"].(float64), 0.05)
	assert.Equal(t, 60.0, result["cost_km"])

	labels := result["city_labels"].([]string)
	require.Len(t, labels, 4)
	assert.Equal(t, "City 0", labels[0])
}

func TestSolveTourQUBO_BruteForceMethodLabel(t *testing.T) {
	result := solveTourQUBO(context.Background(), lineMatrix(6), cityNames(6))

	require.True(t, result["feasible"].(bool))
	assert.Equal(t, "qubo_brute_force_6fact", result["method"])
	// a cyclic tour on a line costs twice the span at best
	assert.Equal(t, 100.0, result["cost_km"])
	tour := result["tour"].([]int)
	require.True(t, isPermutation(tour, 6))
	assert.Equal(t, 0, tour[0])
}

func TestCompareTours_QuantumWinsOnShorterRoute(t *testing.T) {
	dist := lineMatrix(4)
	// out-of-order classical tour costs 80 vs the optimal 60
	result := compareTours(context.Background(), dist, []int{0, 2, 1, 3}, cityNames(4))

	assert.Equal(t, "quantum", result["winner"])
	assert.Equal(t, 20.0, result["saving_km"])
	assert.Equal(t, 25.0, result["saving_pct"])
	assert.Contains(t, result["summary"], "Quantum QUBO route")

	classical := result["classical"].(map[string]any)
	assert.Equal(t, 80.0, classical["cost_km"])
	assert.Equal(t, "greedy_nn_2opt", classical["method"])
}

func TestCompareTours_ClassicalKeepsTies(t *testing.T) {
	dist := lineMatrix(4)
	result := compareTours(context.Background(), dist, []int{0, 1, 2, 3}, cityNames(4))

	assert.Equal(t, "classical", result["winner"])
	assert.Equal(t, 0.0, result["saving_km"])
	assert.Contains(t, result["summary"], "Classical 2-opt wins")
}

func TestCompareTours_FractionalTieStaysClassical(t *testing.T) {
	// ring with fractional edge costs: the optimal cyclic tour costs
	// 8.04, which rounds to 8.0; a rounded comparison would wrongly
	// hand a dead tie to quantum with a 0 km saving
	dist := [][]float64{
		{0, 2.01, 10, 2.01},
		{2.01, 0, 2.01, 10},
		{10, 2.01, 0, 2.01},
		{2.01, 10, 2.01, 0},
	}
	result := compareTours(context.Background(), dist, []int{0, 1, 2, 3}, cityNames(4))

	assert.Equal(t, "classical", result["winner"])
	assert.Equal(t, 0.0, result["saving_km"])
	assert.Contains(t, result["summary"], "Classical 2-opt wins")
}

func TestCompareTours_ReportsRefusalReason(t *testing.T) {
	n := 11
	tour := make([]int, n)
	for i := range tour {
		tour[i] = i
	}

	result := compareTours(context.Background(), lineMatrix(n), tour, cityNames(n))

	assert.Equal(t, "classical", result["winner"])
	assert.Contains(t, result["summary"], "Too many cities")
}

func TestQuboPenaltyDominatesEdges(t *testing.T) {
	dist := lineMatrix(5)
	penalty := quboPenalty(dist)
	assert.Equal(t, 2*40.0*5, penalty)
}

func TestRotateToDepot(t *testing.T) {
	assert.Equal(t, []int{0, 3, 1, 2}, rotateToDepot([]int{1, 2, 0, 3}))
	assert.Equal(t, []int{0, 1, 2}, rotateToDepot([]int{0, 1, 2}))
}
