package analysis

import (
	"reflect"
	"testing"
)

func TestBuildSchedule_Deterministic(t *testing.T) {
	a := BuildSchedule(6, 3)
	b := BuildSchedule(6, 3)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("schedules differ across identical calls")
	}
}

func TestBuildSchedule_RotatesThroughAllFacets(t *testing.T) {
	sched := BuildSchedule(2, 3)
	seen := map[Facet]bool{}
	for _, round := range sched {
		if len(round) != 3 {
			t.Fatalf("round size %d, want 3", len(round))
		}
		for _, f := range round {
			seen[f] = true
		}
	}
	if len(seen) != FacetCount {
		t.Fatalf("two rounds of three should cover all %d facets, covered %d", FacetCount, len(seen))
	}
}

func TestBuildSchedule_WrapsCanonicalOrder(t *testing.T) {
	sched := BuildSchedule(3, 4)
	want := [][]Facet{
		{FacetHow, FacetWhat, FacetWhen, FacetWhere},
		{FacetWho, FacetWhy, FacetHow, FacetWhat},
		{FacetWhen, FacetWhere, FacetWho, FacetWhy},
	}
	if !reflect.DeepEqual(sched, want) {
		t.Fatalf("schedule %v, want %v", sched, want)
	}
}

func TestBuildSchedule_ClampsArguments(t *testing.T) {
	sched := BuildSchedule(0, 99)
	if len(sched) != 1 {
		t.Fatalf("rounds clamped to 1, got %d", len(sched))
	}
	if len(sched[0]) != FacetCount {
		t.Fatalf("subset clamped to %d, got %d", FacetCount, len(sched[0]))
	}
}

func TestScheduleFor_SafeModeShrinksSubset(t *testing.T) {
	cfg := DefaultConfig()
	full := cfg.ScheduleFor(false)
	safe := cfg.ScheduleFor(true)
	if len(full[0]) != cfg.SubsetSize {
		t.Fatalf("full subset %d, want %d", len(full[0]), cfg.SubsetSize)
	}
	if len(safe[0]) != cfg.SafeSubsetSize {
		t.Fatalf("safe subset %d, want %d", len(safe[0]), cfg.SafeSubsetSize)
	}
}
