package services

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Tour optimisation via QUBO (Quadratic Unconstrained Binary
// Optimisation), the formulation quantum annealers and QAOA circuits
// consume. Small instances are solved to the exact ground state of the
// QUBO energy; mid-size instances enumerate every permutation against
// the same objective. Either way the result is what a perfect,
// noise-free quantum device would return for this Hamiltonian.
const (
	maxCitiesExact = 4  // exact ground state over 2^(n^2) states
	maxCitiesBrute = 10 // enumerate all n! permutations
)

// quboPenalty weights the one-city-per-position constraints. It must
// dominate any single tour edge so infeasible states never win.
func quboPenalty(dist [][]float64) float64 {
	maxEdge := 0.0
	for i := range dist {
		for j := range dist[i] {
			if dist[i][j] > maxEdge {
				maxEdge = dist[i][j]
			}
		}
	}
	return 2 * maxEdge * float64(len(dist))
}

// solveTourQUBO finds the shortest cyclic tour over the distance
// matrix. The returned map mirrors the classical comparison payload so
// both sides read the same. Cancellation stops the enumeration at the
// best state seen so far.
func solveTourQUBO(ctx context.Context, dist [][]float64, cityNames []string) map[string]any {
	start := time.Now()
	n := len(dist)

	if n > maxCitiesBrute {
		return map[string]any{
			"error": fmt.Sprintf(
				"Too many cities (%d) for quantum QUBO (max %d). Classical 2-opt used instead.",
				n, maxCitiesBrute),
			"feasible": false,
			"method":   "qubo_refused",
		}
	}

	if n < 3 {
		tour := make([]int, n)
		for i := range tour {
			tour[i] = i
		}
		cost := 0.0
		if n == 2 {
			cost = dist[0][1]
		}
		return map[string]any{
			"tour":        tour,
			"cost_km":     round1(cost),
			"method":      "trivial",
			"feasible":    true,
			"n_qubits":    0,
			"duration_ms": 0.0,
			"city_labels": labelTour(tour, cityNames),
		}
	}

	var tour []int
	var method string
	if n <= maxCitiesExact {
		tour = quboGroundState(ctx, dist)
		method = "qubo_exact_ground_state"
	} else {
		tour = bestPermutation(ctx, dist)
		method = fmt.Sprintf("qubo_brute_force_%dfact", n)
	}

	feasible := isPermutation(tour, n)
	cost := 0.0
	if feasible {
		cost = cyclicTourCost(dist, tour)
		tour = rotateToDepot(tour)
	}

	result := map[string]any{
		"tour":        tour,
		"cost_km":     round1(cost),
		"method":      method,
		"feasible":    feasible,
		"n_qubits":    n * n,
		"duration_ms": durationMS(start),
	}
	if feasible {
		result["city_labels"] = labelTour(tour, cityNames)
	} else {
		result["city_labels"] = []string{}
	}
	return result
}

// quboGroundState enumerates every assignment of the n^2 binary
// variables x[city][position] and returns the tour decoded from the
// minimum-energy state. Constraint violations carry a penalty large
// enough that the ground state is always a valid permutation.
func quboGroundState(ctx context.Context, dist [][]float64) []int {
	n := len(dist)
	qubits := n * n
	penalty := quboPenalty(dist)

	bestEnergy := math.Inf(1)
	var bestState uint64
	for state := uint64(0); state < uint64(1)<<qubits; state++ {
		if state&0xfff == 0 && ctx.Err() != nil {
			break
		}
		energy := quboEnergy(dist, state, n, penalty)
		if energy < bestEnergy {
			bestEnergy = energy
			bestState = state
		}
	}
	return decodeTour(bestState, n)
}

func quboEnergy(dist [][]float64, state uint64, n int, penalty float64) float64 {
	bit := func(city, pos int) float64 {
		if state&(1<<uint(city*n+pos)) != 0 {
			return 1
		}
		return 0
	}

	energy := 0.0
	// each city appears exactly once
	for city := 0; city < n; city++ {
		sum := 0.0
		for pos := 0; pos < n; pos++ {
			sum += bit(city, pos)
		}
		energy += penalty * (sum - 1) * (sum - 1)
	}
	// each position holds exactly one city
	for pos := 0; pos < n; pos++ {
		sum := 0.0
		for city := 0; city < n; city++ {
			sum += bit(city, pos)
		}
		energy += penalty * (sum - 1) * (sum - 1)
	}
	// tour edge costs, cyclic
	for pos := 0; pos < n; pos++ {
		next := (pos + 1) % n
		for a := 0; a < n; a++ {
			for b := 0; b < n; b++ {
				if a == b {
					continue
				}
				energy += dist[a][b] * bit(a, pos) * bit(b, next)
			}
		}
	}
	return energy
}

func decodeTour(state uint64, n int) []int {
	tour := make([]int, n)
	for pos := range tour {
		tour[pos] = -1
	}
	for city := 0; city < n; city++ {
		for pos := 0; pos < n; pos++ {
			if state&(1<<uint(city*n+pos)) != 0 {
				tour[pos] = city
			}
		}
	}
	return tour
}

// bestPermutation enumerates all n! tours with Heap's algorithm,
// stopping at the best tour seen so far when cancelled.
func bestPermutation(ctx context.Context, dist [][]float64) []int {
	n := len(dist)
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}

	best := make([]int, n)
	copy(best, perm)
	bestCost := cyclicTourCost(dist, perm)

	counters := make([]int, n)
	visited := 0
	for i := 0; i < n; {
		visited++
		if visited&0xfff == 0 && ctx.Err() != nil {
			break
		}
		if counters[i] < i {
			if i%2 == 0 {
				perm[0], perm[i] = perm[i], perm[0]
			} else {
				perm[counters[i]], perm[i] = perm[i], perm[counters[i]]
			}
			if cost := cyclicTourCost(dist, perm); cost < bestCost {
				bestCost = cost
				copy(best, perm)
			}
			counters[i]++
			i = 0
		} else {
			counters[i] = 0
			i++
		}
	}
	return best
}

func cyclicTourCost(dist [][]float64, tour []int) float64 {
	cost := 0.0
	for i := range tour {
		cost += dist[tour[i]][tour[(i+1)%len(tour)]]
	}
	return cost
}

func isPermutation(tour []int, n int) bool {
	if len(tour) != n {
		return false
	}
	seen := make([]bool, n)
	for _, v := range tour {
		if v < 0 || v >= n || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

// rotateToDepot rotates the tour so node 0 comes first; cyclic cost is
// unchanged.
func rotateToDepot(tour []int) []int {
	for i, v := range tour {
		if v == 0 {
			return append(append([]int{}, tour[i:]...), tour[:i]...)
		}
	}
	return tour
}

func labelTour(tour []int, cityNames []string) []string {
	labels := make([]string, 0, len(tour))
	for _, i := range tour {
		if i < len(cityNames) {
			labels = append(labels, cityNames[i])
		} else {
			labels = append(labels, fmt.Sprintf("stop-%d", i))
		}
	}
	return labels
}

// compareTours runs the QUBO solver against a classical tour. Both
// costs are cyclic and compared unrounded so the objectives match;
// quantum wins only on a feasible, strictly shorter tour.
func compareTours(ctx context.Context, dist [][]float64, classicalTour []int, cityNames []string) map[string]any {
	quantum := solveTourQUBO(ctx, dist, cityNames)
	classicalCost := cyclicTourCost(dist, classicalTour)

	classical := map[string]any{
		"tour":        classicalTour,
		"cost_km":     round1(classicalCost),
		"method":      "greedy_nn_2opt",
		"city_labels": labelTour(classicalTour, cityNames),
	}

	qFeasible, _ := quantum["feasible"].(bool)
	qCost := math.Inf(1)
	if qFeasible {
		if qTour, ok := quantum["tour"].([]int); ok && len(qTour) > 1 {
			qCost = cyclicTourCost(dist, qTour)
		} else if v, ok := quantum["cost_km"].(float64); ok {
			qCost = v
		}
	}

	winner := "classical"
	savingKm, savingPct := 0.0, 0.0
	if qFeasible && qCost < classicalCost {
		winner = "quantum"
		savingKm = round1(classicalCost - qCost)
		if classicalCost > 0 {
			savingPct = round1((1 - qCost/classicalCost) * 100)
		}
	}

	summary := "Classical 2-opt wins (quantum route same or longer)"
	if winner == "quantum" {
		summary = fmt.Sprintf("Quantum QUBO route is %.1f km shorter (%.1f%% saving)", savingKm, savingPct)
	} else if !qFeasible {
		reason := "unavailable"
		if e, ok := quantum["error"].(string); ok {
			reason = e
		}
		summary = fmt.Sprintf("Classical 2-opt used (QUBO: %s)", reason)
	}

	return map[string]any{
		"classical":  classical,
		"quantum":    quantum,
		"winner":     winner,
		"saving_km":  savingKm,
		"saving_pct": savingPct,
		"summary":    summary,
	}
}
