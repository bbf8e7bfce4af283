package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/notedive/notedive-backend/internal/pkg/logger"
)

// StateStore persists rotation state between rounds. Writes are
// last-write-wins; the latest successfully written state is the valid
// resumption checkpoint.
type StateStore interface {
	Read(ctx context.Context, lectureID uuid.UUID) (*RotationState, error)
	Write(ctx context.Context, lectureID uuid.UUID, state *RotationState) error
}

// RoundEvent is emitted after every persisted round, for progress fans.
type RoundEvent struct {
	LectureID           uuid.UUID `json:"lecture_id"`
	Round               int       `json:"round"`
	Status              string    `json:"status"`
	Entropy             float64   `json:"entropy"`
	EquilibriumGap      float64   `json:"equilibrium_gap"`
	IterationsCompleted int       `json:"iterations_completed"`
}

type ProcessOptions struct {
	// SafeMode shrinks the per-round facet subset to bound external
	// call cost.
	SafeMode bool
}

// Engine runs bounded rotation rounds over the six facets, blending
// classifier scores into a cumulative distribution and deciding
// termination from its entropy and equilibrium.
//
// Rounds are strictly sequential: each round's blend depends on the
// prior round's cumulative state. Within a round, classifier calls for
// the active subset fan out with bounded concurrency and are joined
// before the round's math runs.
type Engine struct {
	classifier FacetClassifier
	store      StateStore
	cfg        Config
	log        *logger.Logger
	onRound    func(RoundEvent)
}

func NewEngine(classifier FacetClassifier, store StateStore, cfg Config, log *logger.Logger) *Engine {
	return &Engine{
		classifier: classifier,
		store:      store,
		cfg:        cfg.normalized(),
		log:        log.With("component", "RotationEngine"),
	}
}

// OnRound registers a hook invoked after each persisted round. Not safe
// to call once processing has started.
func (e *Engine) OnRound(fn func(RoundEvent)) { e.onRound = fn }

// ProcessTranscript analyzes one lecture transcript and returns the
// accumulated per-facet evidence. A prior non-terminal checkpoint for
// the lecture is resumed rather than restarted; a prior terminal state
// short-circuits and returns its evidence unchanged, which makes
// re-processing an unchanged transcript idempotent.
func (e *Engine) ProcessTranscript(ctx context.Context, text string, lectureID uuid.UUID, opts ProcessOptions) (map[Facet]FacetEvidence, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyTranscript
	}
	if lectureID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing lecture id", ErrEmptyTranscript)
	}

	st, err := e.store.Read(ctx, lectureID)
	if err != nil {
		return nil, &PersistenceError{Op: "read rotation state", Err: err}
	}
	if st != nil && st.Terminal() {
		e.log.Debug("Rotation already terminal; returning checkpoint",
			"lecture_id", lectureID, "status", st.Status)
		return st.EvidenceMap(), nil
	}
	if st == nil {
		st = NewRotationState(lectureID, e.cfg.ScheduleFor(opts.SafeMode))
		if err := e.store.Write(ctx, lectureID, st); err != nil {
			return nil, &PersistenceError{Op: "write initial rotation state", Err: err}
		}
	}

	deadline := time.Now().Add(e.cfg.WallClockBudget)

	for !st.Terminal() {
		if err := ctx.Err(); err != nil {
			// In-flight work is abandoned; the last persisted state
			// stays valid for resumption.
			return nil, &RetryableError{Op: "rotation round", Err: err}
		}
		if st.ActiveIndex >= len(st.Schedule) {
			st.Status = StatusBudgetExhausted
			break
		}
		if time.Now().After(deadline) {
			e.log.Warn("Rotation wall clock budget exhausted",
				"lecture_id", lectureID, "iterations", st.IterationsCompleted)
			st.Status = StatusBudgetExhausted
			break
		}

		subset := st.Schedule[st.ActiveIndex]
		signals := e.scoreRound(ctx, text, subset)
		if err := ctx.Err(); err != nil {
			return nil, &RetryableError{Op: "rotation round", Err: err}
		}

		e.applyRound(st, subset, signals)

		if err := e.store.Write(ctx, lectureID, st); err != nil {
			return nil, &PersistenceError{Op: "write rotation state", Err: err}
		}
		e.log.Debug("Rotation round persisted",
			"lecture_id", lectureID,
			"round", st.IterationsCompleted,
			"status", st.Status,
			"entropy", st.Entropy,
			"equilibrium_gap", st.EquilibriumGap,
		)
		if e.onRound != nil {
			e.onRound(RoundEvent{
				LectureID:           lectureID,
				Round:               st.IterationsCompleted,
				Status:              st.Status,
				Entropy:             st.Entropy,
				EquilibriumGap:      st.EquilibriumGap,
				IterationsCompleted: st.IterationsCompleted,
			})
		}
	}

	if st.Terminal() {
		// The budget/wall-clock paths above set status without going
		// through applyRound's persist; make sure the terminal state is
		// on record.
		if err := e.store.Write(ctx, lectureID, st); err != nil {
			return nil, &PersistenceError{Op: "write terminal rotation state", Err: err}
		}
	}

	return st.EvidenceMap(), nil
}

// scoreRound fans out one classifier call per facet in the subset with
// bounded concurrency and a per-call timeout, joining before return.
// A facet whose call fails after retries is simply absent from the
// result, which freezes its cumulative score for the round.
func (e *Engine) scoreRound(ctx context.Context, text string, subset []Facet) map[Facet]FacetSignal {
	var mu sync.Mutex
	out := make(map[Facet]FacetSignal, len(subset))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.FanOut)
	for _, f := range subset {
		f := f
		g.Go(func() error {
			sig, err := e.classifyWithRetry(gctx, text, f)
			if err != nil {
				e.log.Warn("Facet classification failed; freezing score for round",
					"facet", f, "error", err)
				return nil
			}
			mu.Lock()
			out[f] = sig
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (e *Engine) classifyWithRetry(ctx context.Context, text string, f Facet) (FacetSignal, error) {
	backoff := e.cfg.RetryBackoff
	var lastErr error
	for attempt := 0; attempt <= e.cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return FacetSignal{}, err
		}
		callCtx, cancel := context.WithTimeout(ctx, e.cfg.CallTimeout)
		sig, err := e.classifier.Classify(callCtx, text, f, "")
		cancel()
		if err == nil {
			return clampSignal(sig), nil
		}
		lastErr = err
		if errors.Is(err, context.Canceled) {
			return FacetSignal{}, err
		}
		if attempt == e.cfg.MaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return FacetSignal{}, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return FacetSignal{}, &RetryableError{Op: fmt.Sprintf("classify %s", f), Err: lastErr}
}

// applyRound blends the round's signals into the cumulative scores,
// recomputes the distribution math, and advances the state machine.
func (e *Engine) applyRound(st *RotationState, subset []Facet, signals map[Facet]FacetSignal) {
	for _, f := range subset {
		sig, ok := signals[f]
		if !ok {
			continue // frozen for this round
		}
		prev, seen := st.Scores[f]
		if !seen {
			st.Scores[f] = sig.Score
		} else {
			st.Scores[f] = (1-e.cfg.BlendAlpha)*prev + e.cfg.BlendAlpha*sig.Score
		}
		st.mergeEvidence(f, sig, e.cfg.MaxSnippets)
		st.Evidence[f].Score = st.Scores[f]
	}

	st.IterationsCompleted++
	st.ActiveIndex++

	// With no facet scored yet (every call so far failed) there is no
	// distribution to judge: the zero sum would normalize to uniform
	// and fake a convergence. Converge and collapse wait for real
	// signal; only the budget can end a signal-less run.
	if len(st.Scores) > 0 {
		p := NormalizedScores(st.Scores)
		st.Entropy = EntropyOf(p)
		st.EquilibriumGap = EquilibriumGapOf(p)

		// Collapse tracking: the same facet must stay above the
		// ceiling for CollapseRounds consecutive rounds.
		top, topP := dominantOf(p)
		if topP > e.cfg.CollapseCeiling {
			if st.StreakFacet != nil && *st.StreakFacet == top {
				st.CollapseStreak++
			} else {
				f := top
				st.StreakFacet = &f
				st.CollapseStreak = 1
			}
		} else {
			st.StreakFacet = nil
			st.CollapseStreak = 0
		}

		switch {
		case st.CollapseStreak >= e.cfg.CollapseRounds:
			st.Status = StatusCollapsed
			st.Collapsed = true
			f, s := top, topP
			st.DominantFacet = &f
			st.DominantScore = &s
		case st.EquilibriumGap < e.cfg.ConvergenceGap:
			st.Status = StatusConverged
		}
	}

	if st.Status == StatusRunning &&
		(st.IterationsCompleted >= e.cfg.RoundBudget || st.ActiveIndex >= len(st.Schedule)) {
		st.Status = StatusBudgetExhausted
	}
}

func dominantOf(p map[Facet]float64) (Facet, float64) {
	best := AllFacets()[0]
	bestP := -1.0
	for _, f := range AllFacets() {
		if p[f] > bestP {
			best, bestP = f, p[f]
		}
	}
	return best, bestP
}

func clampSignal(sig FacetSignal) FacetSignal {
	if sig.Score < 0 {
		sig.Score = 0
	}
	if sig.Score > 1 {
		sig.Score = 1
	}
	return sig
}
