package analysis

import "math"

// NormalizedScores returns the probability-like distribution
// p_i = score_i / sum(scores) over all six facets. A zero sum maps to
// the uniform distribution so entropy and equilibrium stay defined.
func NormalizedScores(scores map[Facet]float64) map[Facet]float64 {
	out := make(map[Facet]float64, FacetCount)
	sum := 0.0
	for _, f := range AllFacets() {
		v := scores[f]
		if v < 0 {
			v = 0
		}
		sum += v
	}
	if sum <= 0 {
		for _, f := range AllFacets() {
			out[f] = 1.0 / FacetCount
		}
		return out
	}
	for _, f := range AllFacets() {
		v := scores[f]
		if v < 0 {
			v = 0
		}
		out[f] = v / sum
	}
	return out
}

// EntropyOf computes -sum(p ln p) over the normalized distribution.
// Maximal at ln(6) when all facets are exactly uniform.
func EntropyOf(p map[Facet]float64) float64 {
	h := 0.0
	for _, f := range AllFacets() {
		v := p[f]
		if v <= 0 {
			continue
		}
		h -= v * math.Log(v)
	}
	return h
}

// EquilibriumGapOf is the mean absolute deviation of the normalized
// scores from the uniform 1/6. Zero iff the distribution is exactly
// uniform.
func EquilibriumGapOf(p map[Facet]float64) float64 {
	const uniform = 1.0 / FacetCount
	gap := 0.0
	for _, f := range AllFacets() {
		gap += math.Abs(p[f] - uniform)
	}
	return gap / FacetCount
}

// MaxEntropy is ln(6), the entropy of the uniform distribution.
func MaxEntropy() float64 { return math.Log(FacetCount) }
