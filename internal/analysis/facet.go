package analysis

import (
	"fmt"
	"strings"
)

// Facet is one of the six fixed analytical lenses a transcript is
// scored against. The set is closed; nothing else in the system may
// mint new facets.
type Facet string

const (
	FacetHow   Facet = "HOW"
	FacetWhat  Facet = "WHAT"
	FacetWhen  Facet = "WHEN"
	FacetWhere Facet = "WHERE"
	FacetWho   Facet = "WHO"
	FacetWhy   Facet = "WHY"
)

// FacetCount is fixed for the system's lifetime.
const FacetCount = 6

// AllFacets returns the six facets in canonical order. Callers must not
// mutate the returned slice.
func AllFacets() []Facet {
	return []Facet{FacetHow, FacetWhat, FacetWhen, FacetWhere, FacetWho, FacetWhy}
}

func ParseFacet(s string) (Facet, error) {
	f := Facet(strings.ToUpper(strings.TrimSpace(s)))
	switch f {
	case FacetHow, FacetWhat, FacetWhen, FacetWhere, FacetWho, FacetWhy:
		return f, nil
	}
	return "", fmt.Errorf("unknown facet %q", s)
}

// FacetEvidence accumulates what the classifier surfaced for one facet
// across rounds. Snippets are kept most relevant first and bounded.
// Score is the facet's cumulative blended score at the last round that
// touched it; downstream consumers weigh evidence by it.
type FacetEvidence struct {
	Facet       Facet    `json:"facet"`
	SourceCount int      `json:"source_count"`
	Score       float64  `json:"score,omitempty"`
	Snippets    []string `json:"snippets"`
}

// FacetSignal is a single classifier observation for one facet.
type FacetSignal struct {
	Score    float64  `json:"score"`
	Snippets []string `json:"snippets"`
}
