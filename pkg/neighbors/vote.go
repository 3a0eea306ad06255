package neighbors

import (
	"cmp"
	"math"
	"slices"
)

// Neighbor is one training sample selected for a query row.
type Neighbor struct {
	// Index is the sample's row in the training matrix.
	Index    int
	Distance float64
}

// nearest returns the k smallest entries of dists as Neighbors, nearest
// first. Equal distances keep their training order and NaN sorts last.
//
// Entries of dists may be off by up to tol. When tol > 0, every row that
// could be among the k nearest is re-scored with exact before ranking.
func nearest(dists []float64, k int, tol float64, exact func(i int) float64) []Neighbor {
	idx := make([]int, len(dists))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return compareDistance(dists[a], dists[b])
	})

	if tol > 0 {
		// A row whose exact distance is within the k nearest has an
		// approximate distance at most 2·tol above the k-th approximate one.
		bound := dists[idx[k-1]] + 2*tol
		n := k
		for n < len(idx) && dists[idx[n]] <= bound {
			n++
		}
		cand := make([]Neighbor, n)
		for i, j := range idx[:n] {
			cand[i] = Neighbor{Index: j, Distance: exact(j)}
		}
		slices.SortFunc(cand, func(a, b Neighbor) int {
			if c := compareDistance(a.Distance, b.Distance); c != 0 {
				return c
			}
			return cmp.Compare(a.Index, b.Index)
		})
		return cand[:k]
	}

	out := make([]Neighbor, k)
	for i := range out {
		out[i] = Neighbor{Index: idx[i], Distance: dists[idx[i]]}
	}
	return out
}

func compareDistance(a, b float64) int {
	switch an, bn := math.IsNaN(a), math.IsNaN(b); {
	case an && bn:
		return 0
	case an:
		return 1
	case bn:
		return -1
	}
	return cmp.Compare(a, b)
}

// vote returns the mode of the neighbors' labels. Scanning nearest first,
// the label that first reaches the highest count wins.
func (c *KNeighborsClassifier[T, L]) vote(nb []Neighbor) L {
	counts := make(map[L]int, len(nb))
	var best L
	bestCount := 0
	for _, n := range nb {
		l := c.train.Label(n.Index)
		counts[l]++
		if counts[l] > bestCount {
			best, bestCount = l, counts[l]
		}
	}
	return best
}
