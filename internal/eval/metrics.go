package eval

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// minCrossSection is the smallest per-date cross-section worth scoring.
// Rank correlation over fewer names is mostly noise, and a decile needs
// at least one member.
const minCrossSection = 10

// rankIC computes the Spearman rank correlation between predicted and
// realized returns for one cross-section. It is the Pearson correlation
// of the two rank vectors, with tied values assigned average ranks.
// Returns false when the cross-section is too small or either side is
// constant.
func rankIC(pred, actual []float64) (float64, bool) {
	if len(pred) != len(actual) || len(pred) < minCrossSection {
		return 0, false
	}
	rp := averageRanks(pred)
	ra := averageRanks(actual)
	ic := stat.Correlation(rp, ra, nil)
	if math.IsNaN(ic) {
		return 0, false
	}
	return ic, true
}

// decileSpread is the mean realized return of the top-decile-predicted
// names minus that of the bottom decile.
func decileSpread(pred, actual []float64) (float64, bool) {
	n := len(pred)
	if n < minCrossSection {
		return 0, false
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return pred[order[a]] > pred[order[b]] })

	k := n / 10
	var top, bottom float64
	for i := 0; i < k; i++ {
		top += actual[order[i]]
		bottom += actual[order[n-1-i]]
	}
	return (top - bottom) / float64(k), true
}

// averageRanks assigns 1-based ranks with ties receiving the average of
// the rank positions they span.
func averageRanks(v []float64) []float64 {
	n := len(v)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return v[order[a]] < v[order[b]] })

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && v[order[j+1]] == v[order[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[order[k]] = avg
		}
		i = j + 1
	}
	return ranks
}
