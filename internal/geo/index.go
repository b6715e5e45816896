package geo

import (
	"math"
	"sort"
)

// Point is one indexed location. Pos is the caller's position for the
// point, typically an offset into the facility subset the index was
// built from.
type Point struct {
	Pos int
	Lat float64
	Lng float64
}

// Neighbor is a query result: a point position and its great-circle
// distance from the query location.
type Neighbor struct {
	Pos        int
	DistanceKm float64
}

// Index is a vantage-point tree over the haversine metric. It is
// immutable after construction and safe for concurrent queries. A fresh
// index can be built over any subset, e.g. per specialty.
type Index struct {
	points []indexedPoint
	root   *vpNode
}

type indexedPoint struct {
	pos    int
	latRad float64
	lngRad float64
}

type vpNode struct {
	// pivot indexes into Index.points.
	pivot  int
	median float64
	left   *vpNode
	right  *vpNode
	// leaf holds point offsets when the node is terminal.
	leaf []int
}

const vpLeafSize = 8

// NewIndex builds an index over the given points. Positions are stored
// in radians internally.
func NewIndex(points []Point) *Index {
	idx := &Index{points: make([]indexedPoint, len(points))}
	offsets := make([]int, len(points))
	for i, p := range points {
		idx.points[i] = indexedPoint{
			pos:    p.Pos,
			latRad: p.Lat * math.Pi / 180,
			lngRad: p.Lng * math.Pi / 180,
		}
		offsets[i] = i
	}
	idx.root = idx.build(offsets)
	return idx
}

// Len returns the number of indexed points.
func (idx *Index) Len() int {
	return len(idx.points)
}

func (idx *Index) build(offsets []int) *vpNode {
	if len(offsets) == 0 {
		return nil
	}
	if len(offsets) <= vpLeafSize {
		leaf := make([]int, len(offsets))
		copy(leaf, offsets)
		return &vpNode{pivot: -1, leaf: leaf}
	}

	pivot := offsets[0]
	rest := offsets[1:]

	dists := make([]float64, len(rest))
	for i, o := range rest {
		dists[i] = idx.distBetween(pivot, o)
	}

	order := make([]int, len(rest))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return dists[order[a]] < dists[order[b]] })

	mid := len(order) / 2
	median := dists[order[mid]]

	left := make([]int, 0, mid)
	right := make([]int, 0, len(order)-mid)
	for i, oi := range order {
		if i < mid {
			left = append(left, rest[oi])
		} else {
			right = append(right, rest[oi])
		}
	}

	return &vpNode{
		pivot:  pivot,
		median: median,
		left:   idx.build(left),
		right:  idx.build(right),
	}
}

func (idx *Index) distBetween(a, b int) float64 {
	pa, pb := idx.points[a], idx.points[b]
	return distanceRad(pa.latRad, pa.lngRad, pb.latRad, pb.lngRad)
}

func (idx *Index) distToQuery(o int, latRad, lngRad float64) float64 {
	p := idx.points[o]
	return distanceRad(p.latRad, p.lngRad, latRad, lngRad)
}

// KNearest returns the k closest points to (lat, lng) in degrees,
// ascending by distance. When k exceeds the index size every point is
// returned.
func (idx *Index) KNearest(lat, lng float64, k int) []Neighbor {
	if k <= 0 || len(idx.points) == 0 {
		return nil
	}
	if k > len(idx.points) {
		k = len(idx.points)
	}

	latRad := lat * math.Pi / 180
	lngRad := lng * math.Pi / 180

	best := &neighborHeap{limit: k}
	idx.searchKNN(idx.root, latRad, lngRad, best)

	result := best.sorted()
	return result
}

// WithinRadius returns every point within radiusKm of (lat, lng) in
// degrees, ascending by distance.
func (idx *Index) WithinRadius(lat, lng, radiusKm float64) []Neighbor {
	if radiusKm < 0 || len(idx.points) == 0 {
		return nil
	}

	latRad := lat * math.Pi / 180
	lngRad := lng * math.Pi / 180

	var found []Neighbor
	idx.searchRadius(idx.root, latRad, lngRad, radiusKm, &found)

	sort.Slice(found, func(a, b int) bool { return found[a].DistanceKm < found[b].DistanceKm })
	return found
}

func (idx *Index) searchKNN(n *vpNode, latRad, lngRad float64, best *neighborHeap) {
	if n == nil {
		return
	}
	if n.pivot < 0 {
		for _, o := range n.leaf {
			best.offer(Neighbor{Pos: idx.points[o].pos, DistanceKm: idx.distToQuery(o, latRad, lngRad)})
		}
		return
	}

	d := idx.distToQuery(n.pivot, latRad, lngRad)
	best.offer(Neighbor{Pos: idx.points[n.pivot].pos, DistanceKm: d})

	if d < n.median {
		idx.searchKNN(n.left, latRad, lngRad, best)
		if !best.full() || d+best.worst() >= n.median {
			idx.searchKNN(n.right, latRad, lngRad, best)
		}
	} else {
		idx.searchKNN(n.right, latRad, lngRad, best)
		if !best.full() || d-best.worst() <= n.median {
			idx.searchKNN(n.left, latRad, lngRad, best)
		}
	}
}

func (idx *Index) searchRadius(n *vpNode, latRad, lngRad, radiusKm float64, found *[]Neighbor) {
	if n == nil {
		return
	}
	if n.pivot < 0 {
		for _, o := range n.leaf {
			if d := idx.distToQuery(o, latRad, lngRad); d <= radiusKm {
				*found = append(*found, Neighbor{Pos: idx.points[o].pos, DistanceKm: d})
			}
		}
		return
	}

	d := idx.distToQuery(n.pivot, latRad, lngRad)
	if d <= radiusKm {
		*found = append(*found, Neighbor{Pos: idx.points[n.pivot].pos, DistanceKm: d})
	}

	if d-radiusKm <= n.median {
		idx.searchRadius(n.left, latRad, lngRad, radiusKm, found)
	}
	if d+radiusKm >= n.median {
		idx.searchRadius(n.right, latRad, lngRad, radiusKm, found)
	}
}

// neighborHeap keeps the k best candidates as a bounded max-heap keyed
// by distance.
type neighborHeap struct {
	limit int
	items []Neighbor
}

func (h *neighborHeap) full() bool { return len(h.items) >= h.limit }

func (h *neighborHeap) worst() float64 {
	if len(h.items) == 0 {
		return math.Inf(1)
	}
	return h.items[0].DistanceKm
}

func (h *neighborHeap) offer(n Neighbor) {
	if len(h.items) < h.limit {
		h.items = append(h.items, n)
		h.up(len(h.items) - 1)
		return
	}
	if n.DistanceKm >= h.items[0].DistanceKm {
		return
	}
	h.items[0] = n
	h.down(0)
}

func (h *neighborHeap) up(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if h.items[parent].DistanceKm >= h.items[i].DistanceKm {
			break
		}
		h.items[parent], h.items[i] = h.items[i], h.items[parent]
		i = parent
	}
}

func (h *neighborHeap) down(i int) {
	for {
		l, r := 2*i+1, 2*i+2
		largest := i
		if l < len(h.items) && h.items[l].DistanceKm > h.items[largest].DistanceKm {
			largest = l
		}
		if r < len(h.items) && h.items[r].DistanceKm > h.items[largest].DistanceKm {
			largest = r
		}
		if largest == i {
			return
		}
		h.items[i], h.items[largest] = h.items[largest], h.items[i]
		i = largest
	}
}

func (h *neighborHeap) sorted() []Neighbor {
	out := make([]Neighbor, len(h.items))
	copy(out, h.items)
	sort.Slice(out, func(a, b int) bool { return out[a].DistanceKm < out[b].DistanceKm })
	return out
}
