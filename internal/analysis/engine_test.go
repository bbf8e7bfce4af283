package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/notedive/notedive-backend/internal/pkg/logger"
)

// stubStore round-trips state through JSON so the engine sees the same
// copy semantics as the real stores, and counts writes.
type stubStore struct {
	data   map[uuid.UUID][]byte
	writes int
}

func newStubStore() *stubStore { return &stubStore{data: map[uuid.UUID][]byte{}} }

func (s *stubStore) Read(_ context.Context, id uuid.UUID) (*RotationState, error) {
	raw, ok := s.data[id]
	if !ok {
		return nil, nil
	}
	var st RotationState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *stubStore) Write(_ context.Context, id uuid.UUID, st *RotationState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	s.data[id] = raw
	s.writes++
	return nil
}

// scoreClassifier returns fixed scores per facet and counts calls.
type scoreClassifier struct {
	scores map[Facet]float64
	fail   map[Facet]bool
	calls  int
}

func (c *scoreClassifier) Classify(_ context.Context, _ string, f Facet, _ string) (FacetSignal, error) {
	c.calls++
	if c.fail[f] {
		return FacetSignal{}, errors.New("classifier unavailable")
	}
	return FacetSignal{Score: c.scores[f], Snippets: []string{string(f) + " snippet"}}, nil
}

func (c *scoreClassifier) SummarizeConcepts(context.Context, Facet, []string) ([]ConceptDescriptor, error) {
	return nil, nil
}

func (c *scoreClassifier) CompareSummaries(context.Context, string, string) (EvolutionVerdict, error) {
	return EvolutionVerdict{}, nil
}

func (c *scoreClassifier) Embed(context.Context, []string) ([][]float32, error) {
	return nil, ErrNoEmbedder
}

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxRetries = 0
	cfg.RetryBackoff = time.Millisecond
	return cfg
}

func uniformScores(v float64) map[Facet]float64 {
	out := map[Facet]float64{}
	for _, f := range AllFacets() {
		out[f] = v
	}
	return out
}

func TestProcessTranscript_EmptyTranscriptRejected(t *testing.T) {
	e := NewEngine(&scoreClassifier{}, newStubStore(), fastConfig(), logger.NewNop())
	_, err := e.ProcessTranscript(context.Background(), "   \n\t", uuid.New(), ProcessOptions{})
	if !errors.Is(err, ErrEmptyTranscript) {
		t.Fatalf("got %v, want ErrEmptyTranscript", err)
	}
}

func TestProcessTranscript_UniformScoresConverge(t *testing.T) {
	store := newStubStore()
	cls := &scoreClassifier{scores: uniformScores(0.5)}
	e := NewEngine(cls, store, fastConfig(), logger.NewNop())

	lectureID := uuid.New()
	_, err := e.ProcessTranscript(context.Background(), "a lecture", lectureID, ProcessOptions{})
	if err != nil {
		t.Fatalf("ProcessTranscript: %v", err)
	}

	st, _ := store.Read(context.Background(), lectureID)
	if st.Status != StatusConverged {
		t.Fatalf("status %q, want converged", st.Status)
	}
	// Subset size 3: rounds one and two together cover all six facets
	// at the same score, so the distribution is exactly uniform.
	if st.IterationsCompleted != 2 {
		t.Fatalf("iterations %d, want 2", st.IterationsCompleted)
	}
	if st.EquilibriumGap != 0 {
		t.Fatalf("equilibrium gap %v, want 0", st.EquilibriumGap)
	}
	if st.DominantFacet != nil {
		t.Fatalf("converged state must carry no dominant facet, got %v", *st.DominantFacet)
	}
	if ev := st.Evidence[FacetHow]; ev == nil || ev.Score != 0.5 {
		t.Fatalf("evidence must carry the cumulative facet score, got %+v", ev)
	}
}

func TestProcessTranscript_DominantFacetCollapses(t *testing.T) {
	store := newStubStore()
	scores := uniformScores(0.1)
	scores[FacetWhat] = 0.9
	cls := &scoreClassifier{scores: scores}
	e := NewEngine(cls, store, fastConfig(), logger.NewNop())

	lectureID := uuid.New()
	_, err := e.ProcessTranscript(context.Background(), "a lecture", lectureID, ProcessOptions{})
	if err != nil {
		t.Fatalf("ProcessTranscript: %v", err)
	}

	st, _ := store.Read(context.Background(), lectureID)
	if st.Status != StatusCollapsed {
		t.Fatalf("status %q, want collapsed", st.Status)
	}
	if !st.Collapsed {
		t.Fatalf("collapsed flag not set")
	}
	if st.DominantFacet == nil || *st.DominantFacet != FacetWhat {
		t.Fatalf("dominant facet %v, want WHAT", st.DominantFacet)
	}
	if st.DominantScore == nil || *st.DominantScore <= 0.6 {
		t.Fatalf("dominant score %v, want above the collapse ceiling", st.DominantScore)
	}
	if st.IterationsCompleted != 2 {
		t.Fatalf("iterations %d, want 2 (ceiling held for two consecutive rounds)", st.IterationsCompleted)
	}
}

func TestProcessTranscript_BudgetExhaustion(t *testing.T) {
	store := newStubStore()
	// No facet dominates after all six are scored and the spread stays
	// far from uniform, so neither terminal condition fires.
	cls := &scoreClassifier{scores: map[Facet]float64{
		FacetHow: 0.5, FacetWhat: 0.05, FacetWhen: 0.5,
		FacetWhere: 0.05, FacetWho: 0.5, FacetWhy: 0.05,
	}}
	cfg := fastConfig()
	e := NewEngine(cls, store, cfg, logger.NewNop())

	lectureID := uuid.New()
	_, err := e.ProcessTranscript(context.Background(), "a lecture", lectureID, ProcessOptions{})
	if err != nil {
		t.Fatalf("ProcessTranscript: %v", err)
	}

	st, _ := store.Read(context.Background(), lectureID)
	if st.Status != StatusBudgetExhausted {
		t.Fatalf("status %q, want budget_exhausted", st.Status)
	}
	if st.IterationsCompleted != cfg.RoundBudget {
		t.Fatalf("iterations %d, want full budget %d", st.IterationsCompleted, cfg.RoundBudget)
	}
}

func TestProcessTranscript_PersistsEveryRound(t *testing.T) {
	store := newStubStore()
	cls := &scoreClassifier{scores: uniformScores(0.5)}
	e := NewEngine(cls, store, fastConfig(), logger.NewNop())

	var rounds []RoundEvent
	e.OnRound(func(ev RoundEvent) { rounds = append(rounds, ev) })

	if _, err := e.ProcessTranscript(context.Background(), "a lecture", uuid.New(), ProcessOptions{}); err != nil {
		t.Fatalf("ProcessTranscript: %v", err)
	}
	if len(rounds) != 2 {
		t.Fatalf("round events %d, want 2", len(rounds))
	}
	// One initial checkpoint, one write per round, one terminal
	// re-write.
	if store.writes != len(rounds)+2 {
		t.Fatalf("store writes %d, want %d", store.writes, len(rounds)+2)
	}
	for i, ev := range rounds {
		if ev.Round != i+1 {
			t.Fatalf("event %d carries round %d", i, ev.Round)
		}
	}
}

func TestProcessTranscript_TerminalCheckpointShortCircuits(t *testing.T) {
	store := newStubStore()
	cls := &scoreClassifier{scores: uniformScores(0.5)}
	e := NewEngine(cls, store, fastConfig(), logger.NewNop())

	lectureID := uuid.New()
	first, err := e.ProcessTranscript(context.Background(), "a lecture", lectureID, ProcessOptions{})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	callsAfterFirst := cls.calls

	second, err := e.ProcessTranscript(context.Background(), "a lecture", lectureID, ProcessOptions{})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if cls.calls != callsAfterFirst {
		t.Fatalf("terminal checkpoint must not trigger classifier calls, got %d extra", cls.calls-callsAfterFirst)
	}
	if len(second) != len(first) {
		t.Fatalf("re-run evidence differs: %d facets vs %d", len(second), len(first))
	}
}

func TestProcessTranscript_FailedFacetFrozenForRound(t *testing.T) {
	store := newStubStore()
	cls := &scoreClassifier{
		scores: uniformScores(0.5),
		fail:   map[Facet]bool{FacetWhat: true},
	}
	e := NewEngine(cls, store, fastConfig(), logger.NewNop())

	lectureID := uuid.New()
	if _, err := e.ProcessTranscript(context.Background(), "a lecture", lectureID, ProcessOptions{}); err != nil {
		t.Fatalf("ProcessTranscript: %v", err)
	}
	st, _ := store.Read(context.Background(), lectureID)
	if _, ok := st.Scores[FacetWhat]; ok {
		t.Fatalf("failed facet must keep no score, got %v", st.Scores[FacetWhat])
	}
	if _, ok := st.Scores[FacetHow]; !ok {
		t.Fatalf("healthy facets must still be scored")
	}
}

func TestProcessTranscript_AllFacetsFailingNeverConverges(t *testing.T) {
	store := newStubStore()
	fail := map[Facet]bool{}
	for _, f := range AllFacets() {
		fail[f] = true
	}
	cls := &scoreClassifier{scores: uniformScores(0.5), fail: fail}
	cfg := fastConfig()
	e := NewEngine(cls, store, cfg, logger.NewNop())

	lectureID := uuid.New()
	evidence, err := e.ProcessTranscript(context.Background(), "a lecture", lectureID, ProcessOptions{})
	if err != nil {
		t.Fatalf("ProcessTranscript: %v", err)
	}
	if len(evidence) != 0 {
		t.Fatalf("evidence for %d facets, want none", len(evidence))
	}

	// An outage that fails every call must not read as a verdict: the
	// zero-score distribution is not uniform agreement.
	st, _ := store.Read(context.Background(), lectureID)
	if st.Status == StatusConverged || st.Status == StatusCollapsed {
		t.Fatalf("status %q from a run with no scored facet", st.Status)
	}
	if st.Status != StatusBudgetExhausted {
		t.Fatalf("status %q, want budget_exhausted", st.Status)
	}
	if len(st.Scores) != 0 {
		t.Fatalf("scores %v, want none recorded", st.Scores)
	}
	if st.IterationsCompleted != cfg.RoundBudget {
		t.Fatalf("iterations %d, want full budget %d", st.IterationsCompleted, cfg.RoundBudget)
	}
}

func TestProcessTranscript_CancellationIsRetryable(t *testing.T) {
	store := newStubStore()
	cls := &scoreClassifier{scores: uniformScores(0.5)}
	e := NewEngine(cls, store, fastConfig(), logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.ProcessTranscript(ctx, "a lecture", uuid.New(), ProcessOptions{})
	if err == nil {
		t.Fatalf("expected error from canceled context")
	}
	if !IsRetryable(err) {
		t.Fatalf("cancellation should surface as retryable, got %T: %v", err, err)
	}
}

func TestProcessTranscript_Deterministic(t *testing.T) {
	scores := uniformScores(0.1)
	scores[FacetWhy] = 0.8

	run := func() *RotationState {
		store := newStubStore()
		e := NewEngine(&scoreClassifier{scores: scores}, store, fastConfig(), logger.NewNop())
		id := uuid.New()
		if _, err := e.ProcessTranscript(context.Background(), "a lecture", id, ProcessOptions{}); err != nil {
			t.Fatalf("ProcessTranscript: %v", err)
		}
		st, _ := store.Read(context.Background(), id)
		return st
	}

	a, b := run(), run()
	if a.Status != b.Status || a.IterationsCompleted != b.IterationsCompleted {
		t.Fatalf("runs diverged: %s/%d vs %s/%d", a.Status, a.IterationsCompleted, b.Status, b.IterationsCompleted)
	}
	for _, f := range AllFacets() {
		if a.Scores[f] != b.Scores[f] {
			t.Fatalf("facet %s scores diverged: %v vs %v", f, a.Scores[f], b.Scores[f])
		}
	}
}
