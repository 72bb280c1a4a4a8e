package cluster

import (
	"math"
	"sort"
)

// agglomerate groups points into flat clusters with Ward linkage,
// merging greedily until the cheapest merge would exceed threshold
// (compared as Euclidean distance; Ward distances are monotone, so the
// greedy stop is equivalent to cutting the dendrogram). Returns the
// member indices of each cluster, ordered by smallest member.
func agglomerate(vecs [][]float64, threshold float64) [][]int {
	n := len(vecs)
	if n == 0 {
		return nil
	}
	if n == 1 {
		return [][]int{{0}}
	}

	// Working squared-distance matrix between active clusters. Rows and
	// columns are removed as clusters merge.
	d := squaredDistances(vecs)
	members := make([][]int, n)
	sizes := make([]float64, n)
	for i := range members {
		members[i] = []int{i}
		sizes[i] = 1
	}

	for len(members) > 1 {
		// Cheapest pair, scanning i<j in ascending order so ties break
		// toward the earliest pair.
		bi, bj := -1, -1
		best := math.Inf(1)
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				if d[i][j] < best {
					best = d[i][j]
					bi, bj = i, j
				}
			}
		}

		if math.Sqrt(best) > threshold {
			break
		}

		// Lance-Williams update for Ward's method:
		// d(m,k) = ((n_i+n_k) d(i,k) + (n_j+n_k) d(j,k) - n_k d(i,j)) / (n_i+n_j+n_k)
		ni, nj := sizes[bi], sizes[bj]
		for k := 0; k < len(members); k++ {
			if k == bi || k == bj {
				continue
			}
			nk := sizes[k]
			merged := ((ni+nk)*d[bi][k] + (nj+nk)*d[bj][k] - nk*best) / (ni + nj + nk)
			d[bi][k] = merged
			d[k][bi] = merged
		}

		members[bi] = append(members[bi], members[bj]...)
		sizes[bi] += sizes[bj]

		// Drop row/column bj.
		members = append(members[:bj], members[bj+1:]...)
		sizes = append(sizes[:bj], sizes[bj+1:]...)
		d = append(d[:bj], d[bj+1:]...)
		for i := range d {
			d[i] = append(d[i][:bj], d[i][bj+1:]...)
		}
	}

	for _, m := range members {
		sort.Ints(m)
	}
	sort.Slice(members, func(i, j int) bool { return members[i][0] < members[j][0] })
	return members
}

func squaredDistances(vecs [][]float64) [][]float64 {
	n := len(vecs)
	d := make([][]float64, n)
	for i := range d {
		d[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			var sum float64
			for k := range vecs[i] {
				diff := vecs[i][k] - vecs[j][k]
				sum += diff * diff
			}
			d[i][j] = sum
			d[j][i] = sum
		}
	}
	return d
}
