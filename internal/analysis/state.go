package analysis

import (
	"github.com/google/uuid"
)

const (
	StatusRunning         = "running"
	StatusConverged       = "converged"
	StatusCollapsed       = "collapsed"
	StatusBudgetExhausted = "budget_exhausted"
)

// RotationState is the full per-lecture state of the rotation engine.
// It is created at analysis start, mutated once per round, persisted
// after every round, and immutable once Status is terminal.
type RotationState struct {
	LectureID uuid.UUID `json:"lecture_id"`
	// Schedule is the precomputed sequence of facet subsets, one per
	// round. ActiveIndex is the next round to run; it sits in
	// [0, len(Schedule)].
	Schedule    [][]Facet `json:"schedule"`
	ActiveIndex int       `json:"active_index"`

	Scores         map[Facet]float64 `json:"scores"`
	Entropy        float64           `json:"entropy"`
	EquilibriumGap float64           `json:"equilibrium_gap"`

	Collapsed           bool     `json:"collapsed"`
	Status              string   `json:"status"`
	IterationsCompleted int      `json:"iterations_completed"`
	DominantFacet       *Facet   `json:"dominant_facet,omitempty"`
	DominantScore       *float64 `json:"dominant_score,omitempty"`

	// collapseStreak tracks consecutive rounds the same facet stayed
	// above the collapse ceiling. Persisted so resumed analyses keep
	// counting.
	CollapseStreak int    `json:"collapse_streak"`
	StreakFacet    *Facet `json:"streak_facet,omitempty"`

	// Evidence accumulated so far, keyed by facet. Part of the
	// checkpoint so a resumed run never re-counts a persisted round.
	Evidence map[Facet]*FacetEvidence `json:"evidence"`
}

func NewRotationState(lectureID uuid.UUID, schedule [][]Facet) *RotationState {
	return &RotationState{
		LectureID: lectureID,
		Schedule:  schedule,
		Scores:    map[Facet]float64{},
		Status:    StatusRunning,
		Evidence:  map[Facet]*FacetEvidence{},
	}
}

func (s *RotationState) Terminal() bool {
	switch s.Status {
	case StatusConverged, StatusCollapsed, StatusBudgetExhausted:
		return true
	}
	return false
}

// EvidenceMap flattens the accumulated evidence into the value map the
// thread extractor consumes. Facets with no evidence are omitted.
func (s *RotationState) EvidenceMap() map[Facet]FacetEvidence {
	out := make(map[Facet]FacetEvidence, len(s.Evidence))
	for f, ev := range s.Evidence {
		if ev == nil {
			continue
		}
		out[f] = *ev
	}
	return out
}

func (s *RotationState) mergeEvidence(f Facet, sig FacetSignal, maxSnippets int) {
	ev := s.Evidence[f]
	if ev == nil {
		ev = &FacetEvidence{Facet: f}
		s.Evidence[f] = ev
	}
	ev.SourceCount += len(sig.Snippets)
	ev.Snippets = append(ev.Snippets, sig.Snippets...)
	if len(ev.Snippets) > maxSnippets {
		ev.Snippets = ev.Snippets[:maxSnippets]
	}
}
