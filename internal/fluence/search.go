package fluence

import "sort"

// searchLeft returns the lowest index i in the ascending slice xs with
// xs[i] >= v, i.e. the insertion point that keeps equal values to the right.
func searchLeft(xs []float64, v float64) int {
	return sort.SearchFloat64s(xs, v)
}

// searchRight returns the lowest index i with xs[i] > v, the insertion point
// that keeps equal values to the left.
func searchRight(xs []float64, v float64) int {
	return sort.Search(len(xs), func(i int) bool { return xs[i] > v })
}

// searchSamplesLeft returns the lowest index i with s[i].Timestamp >= t.
func searchSamplesLeft(s []BeamSample, t float64) int {
	return sort.Search(len(s), func(i int) bool { return s[i].Timestamp >= t })
}

// searchSamplesRight returns the lowest index i with s[i].Timestamp > t.
func searchSamplesRight(s []BeamSample, t float64) int {
	return sort.Search(len(s), func(i int) bool { return s[i].Timestamp > t })
}
