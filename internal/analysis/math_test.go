package analysis

import (
	"math"
	"testing"
)

func TestNormalizedScores_ZeroSumIsUniform(t *testing.T) {
	p := NormalizedScores(map[Facet]float64{})
	for _, f := range AllFacets() {
		if math.Abs(p[f]-1.0/6) > 1e-12 {
			t.Fatalf("facet %s: got %v, want 1/6", f, p[f])
		}
	}
}

func TestNormalizedScores_SumsToOne(t *testing.T) {
	p := NormalizedScores(map[Facet]float64{
		FacetHow: 0.2, FacetWhat: 0.9, FacetWhy: 0.4,
	})
	sum := 0.0
	for _, f := range AllFacets() {
		sum += p[f]
	}
	if math.Abs(sum-1.0) > 1e-12 {
		t.Fatalf("normalized scores sum to %v, want 1", sum)
	}
}

func TestNormalizedScores_ClampsNegatives(t *testing.T) {
	p := NormalizedScores(map[Facet]float64{FacetHow: -5, FacetWhat: 1})
	if p[FacetHow] != 0 {
		t.Fatalf("negative score should normalize to 0, got %v", p[FacetHow])
	}
	if p[FacetWhat] != 1 {
		t.Fatalf("want full mass on WHAT, got %v", p[FacetWhat])
	}
}

func TestEntropy_MaximalOnlyAtUniform(t *testing.T) {
	uniform := map[Facet]float64{}
	for _, f := range AllFacets() {
		uniform[f] = 1.0 / 6
	}
	if h := EntropyOf(uniform); math.Abs(h-MaxEntropy()) > 1e-12 {
		t.Fatalf("uniform entropy %v, want ln(6)=%v", h, MaxEntropy())
	}

	skewed := NormalizedScores(map[Facet]float64{
		FacetHow: 1, FacetWhat: 0.5, FacetWhen: 0.1,
		FacetWhere: 0.1, FacetWho: 0.1, FacetWhy: 0.1,
	})
	if h := EntropyOf(skewed); h >= MaxEntropy() {
		t.Fatalf("skewed entropy %v should be below ln(6)=%v", h, MaxEntropy())
	}
}

func TestEntropy_DegenerateDistribution(t *testing.T) {
	p := NormalizedScores(map[Facet]float64{FacetWho: 3})
	if h := EntropyOf(p); h != 0 {
		t.Fatalf("single-facet distribution entropy %v, want 0", h)
	}
}

func TestEquilibriumGap_ZeroOnlyAtUniform(t *testing.T) {
	uniform := map[Facet]float64{}
	for _, f := range AllFacets() {
		uniform[f] = 1.0 / 6
	}
	if g := EquilibriumGapOf(uniform); g != 0 {
		t.Fatalf("uniform gap %v, want 0", g)
	}

	p := NormalizedScores(map[Facet]float64{FacetHow: 1})
	if g := EquilibriumGapOf(p); g <= 0 {
		t.Fatalf("degenerate gap %v, want > 0", g)
	}
}
