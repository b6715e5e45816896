package services

import (
	"math"
	"math/rand"
	"sort"
)

const (
	isoTreeCount  = 200
	isoSampleSize = 256
	isoSeed       = 42
)

// zscore standardizes each column; a zero-variance column stays zero.
func zscore(features [][]float64) [][]float64 {
	if len(features) == 0 {
		return nil
	}
	cols := len(features[0])
	n := float64(len(features))

	means := make([]float64, cols)
	for _, row := range features {
		for j, v := range row {
			means[j] += v
		}
	}
	for j := range means {
		means[j] /= n
	}

	stds := make([]float64, cols)
	for _, row := range features {
		for j, v := range row {
			d := v - means[j]
			stds[j] += d * d
		}
	}
	for j := range stds {
		stds[j] = math.Sqrt(stds[j] / n)
		if stds[j] == 0 {
			stds[j] = 1
		}
	}

	scaled := make([][]float64, len(features))
	for i, row := range features {
		scaled[i] = make([]float64, cols)
		for j, v := range row {
			scaled[i][j] = (v - means[j]) / stds[j]
		}
	}
	return scaled
}

type isoNode struct {
	attr  int
	split float64
	left  *isoNode
	right *isoNode
	size  int
}

// isolationScores returns anomaly scores in [0, 1]; higher means more
// isolated. Scores above 0.5 mark the sample as an outlier.
func isolationScores(X [][]float64) []float64 {
	n := len(X)
	if n == 0 {
		return nil
	}
	cols := len(X[0])

	sample := isoSampleSize
	if sample > n {
		sample = n
	}
	maxDepth := int(math.Ceil(math.Log2(float64(sample))))
	rng := rand.New(rand.NewSource(isoSeed))

	pathSums := make([]float64, n)
	for t := 0; t < isoTreeCount; t++ {
		indices := rng.Perm(n)[:sample]
		root := buildIsoTree(X, indices, cols, 0, maxDepth, rng)
		for i, x := range X {
			pathSums[i] += pathLength(root, x, 0)
		}
	}

	norm := avgPathLength(float64(sample))
	scores := make([]float64, n)
	for i := range scores {
		mean := pathSums[i] / float64(isoTreeCount)
		scores[i] = math.Pow(2, -mean/norm)
	}
	return scores
}

func buildIsoTree(X [][]float64, indices []int, cols, depth, maxDepth int, rng *rand.Rand) *isoNode {
	if depth >= maxDepth || len(indices) <= 1 {
		return &isoNode{size: len(indices)}
	}

	attr := rng.Intn(cols)
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, i := range indices {
		v := X[i][attr]
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo == hi {
		return &isoNode{size: len(indices)}
	}

	split := lo + rng.Float64()*(hi-lo)
	var left, right []int
	for _, i := range indices {
		if X[i][attr] < split {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &isoNode{
		attr:  attr,
		split: split,
		left:  buildIsoTree(X, left, cols, depth+1, maxDepth, rng),
		right: buildIsoTree(X, right, cols, depth+1, maxDepth, rng),
	}
}

func pathLength(node *isoNode, x []float64, depth int) float64 {
	if node.left == nil {
		return float64(depth) + avgPathLength(float64(node.size))
	}
	if x[node.attr] < node.split {
		return pathLength(node.left, x, depth+1)
	}
	return pathLength(node.right, x, depth+1)
}

// avgPathLength is the expected path length of an unsuccessful BST
// search over n points.
func avgPathLength(n float64) float64 {
	if n <= 1 {
		return 0
	}
	const euler = 0.5772156649
	return 2*(math.Log(n-1)+euler) - 2*(n-1)/n
}

// mahalanobisSquared returns the squared Mahalanobis distance of every
// row against the sample mean. A ridge keeps the covariance invertible;
// if inversion still fails the ridge is grown until it succeeds.
func mahalanobisSquared(X [][]float64) []float64 {
	n := len(X)
	if n == 0 {
		return nil
	}
	cols := len(X[0])

	mean := make([]float64, cols)
	for _, row := range X {
		for j, v := range row {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= float64(n)
	}

	cov := make([][]float64, cols)
	for j := range cov {
		cov[j] = make([]float64, cols)
	}
	denom := float64(n - 1)
	if denom < 1 {
		denom = 1
	}
	for _, row := range X {
		for a := 0; a < cols; a++ {
			da := row[a] - mean[a]
			for b := 0; b < cols; b++ {
				cov[a][b] += da * (row[b] - mean[b]) / denom
			}
		}
	}

	var inv [][]float64
	for ridge := 1e-6; ; ridge *= 100 {
		regularized := make([][]float64, cols)
		for a := range regularized {
			regularized[a] = make([]float64, cols)
			copy(regularized[a], cov[a])
			regularized[a][a] += ridge
		}
		var ok bool
		inv, ok = invertMatrix(regularized)
		if ok {
			break
		}
		if ridge > 1 {
			// fully degenerate; fall back to identity (euclidean)
			inv = identityMatrix(cols)
			break
		}
	}

	dists := make([]float64, n)
	for i, row := range X {
		diff := make([]float64, cols)
		for j := range diff {
			diff[j] = row[j] - mean[j]
		}
		var d2 float64
		for a := 0; a < cols; a++ {
			var dot float64
			for b := 0; b < cols; b++ {
				dot += inv[a][b] * diff[b]
			}
			d2 += diff[a] * dot
		}
		dists[i] = d2
	}
	return dists
}

// invertMatrix does Gauss-Jordan elimination with partial pivoting.
func invertMatrix(m [][]float64) ([][]float64, bool) {
	n := len(m)
	aug := make([][]float64, n)
	for i := range aug {
		aug[i] = make([]float64, 2*n)
		copy(aug[i], m[i])
		aug[i][n+i] = 1
	}

	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(aug[r][col]) > math.Abs(aug[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(aug[pivot][col]) < 1e-12 {
			return nil, false
		}
		aug[col], aug[pivot] = aug[pivot], aug[col]

		scale := aug[col][col]
		for j := range aug[col] {
			aug[col][j] /= scale
		}
		for r := 0; r < n; r++ {
			if r == col {
				continue
			}
			factor := aug[r][col]
			if factor == 0 {
				continue
			}
			for j := range aug[r] {
				aug[r][j] -= factor * aug[col][j]
			}
		}
	}

	inv := make([][]float64, n)
	for i := range inv {
		inv[i] = make([]float64, n)
		copy(inv[i], aug[i][n:])
	}
	return inv, true
}

func identityMatrix(n int) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		m[i][i] = 1
	}
	return m
}

// chiSquareCritical99 approximates the chi-squared critical value at
// p=0.99 via Wilson-Hilferty.
func chiSquareCritical99(dof int) float64 {
	if dof <= 0 {
		return 0
	}
	const z99 = 2.3263478740
	d := float64(dof)
	term := 1 - 2/(9*d) + z99*math.Sqrt(2/(9*d))
	return d * term * term * term
}

// medianOf returns the median of the present values; zero when none.
func medianOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
