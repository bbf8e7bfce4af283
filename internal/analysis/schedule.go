package analysis

// BuildSchedule precomputes the deterministic facet subsets for a full
// analysis: rounds many subsets of subsetSize facets, rotating through
// the canonical facet order so every facet is revisited on a fixed
// cadence. The schedule is a pure function of its arguments.
func BuildSchedule(rounds, subsetSize int) [][]Facet {
	if rounds < 1 {
		rounds = 1
	}
	if subsetSize < 1 {
		subsetSize = 1
	}
	if subsetSize > FacetCount {
		subsetSize = FacetCount
	}
	all := AllFacets()
	out := make([][]Facet, 0, rounds)
	for r := 0; r < rounds; r++ {
		subset := make([]Facet, 0, subsetSize)
		for i := 0; i < subsetSize; i++ {
			subset = append(subset, all[(r*subsetSize+i)%FacetCount])
		}
		out = append(out, subset)
	}
	return out
}

// ScheduleFor picks the subset size from the run options.
func (c Config) ScheduleFor(safeMode bool) [][]Facet {
	size := c.SubsetSize
	if safeMode {
		size = c.SafeSubsetSize
	}
	return BuildSchedule(c.RoundBudget, size)
}
