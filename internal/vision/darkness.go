package vision

import (
	"math"
	"sort"
)

// Darkness reports whether a grayscale frame counts as "dark": the given
// percentile of pixel intensity must fall below threshold, and (when
// varianceEnabled) the standard deviation must also fall below
// varianceThreshold. No computer-vision library exists anywhere in the
// retrieval pack, so this is plain Go arithmetic over the byte slice
// (documented as a stdlib-justified entry in DESIGN.md).
func Darkness(gray []byte, percentile, threshold float64, varianceEnabled bool, varianceThreshold float64) bool {
	if len(gray) == 0 {
		return true
	}
	p := Percentile(gray, percentile)
	if p >= threshold {
		return false
	}
	if !varianceEnabled {
		return true
	}
	return StdDev(gray) < varianceThreshold
}

// Percentile returns the pct-th percentile (0-100) of a byte population using
// linear interpolation between the two bracketing sorted samples.
func Percentile(gray []byte, pct float64) float64 {
	if len(gray) == 0 {
		return 0
	}
	sorted := make([]int, len(gray))
	for i, b := range gray {
		sorted[i] = int(b)
	}
	sort.Ints(sorted)

	if pct <= 0 {
		return float64(sorted[0])
	}
	if pct >= 100 {
		return float64(sorted[len(sorted)-1])
	}
	rank := pct / 100 * float64(len(sorted)-1)
	lo := int(rank)
	hi := lo + 1
	if hi >= len(sorted) {
		return float64(sorted[lo])
	}
	frac := rank - float64(lo)
	return float64(sorted[lo])*(1-frac) + float64(sorted[hi])*frac
}

// StdDev returns the population standard deviation of a byte slice.
func StdDev(gray []byte) float64 {
	if len(gray) == 0 {
		return 0
	}
	var sum float64
	for _, b := range gray {
		sum += float64(b)
	}
	mean := sum / float64(len(gray))

	var sq float64
	for _, b := range gray {
		d := float64(b) - mean
		sq += d * d
	}
	variance := sq / float64(len(gray))
	return math.Sqrt(variance)
}
