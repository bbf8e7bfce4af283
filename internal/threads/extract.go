package threads

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/notedive/notedive-backend/internal/analysis"
	"github.com/notedive/notedive-backend/internal/domain"
	"github.com/notedive/notedive-backend/internal/pkg/logger"
)

// Touch is one thread affected by a lecture: either a newly created
// thread or a matched existing one, with its appended occurrence and,
// for matched threads, the evolution update when the evidence was more
// than reinforcement.
type Touch struct {
	Thread     *domain.Thread
	Occurrence *domain.ThreadOccurrence
	Update     *domain.ThreadUpdate
	Created    bool
}

// Extractor turns a lecture's facet evidence into thread touches within
// a course. The whole extract-match-write sequence holds the course
// lock, so concurrent analyses of different lectures in one course
// serialize instead of racing into duplicate threads.
type Extractor struct {
	classifier analysis.FacetClassifier
	store      GraphStore
	cfg        Config
	locks      *courseLocks
	log        *logger.Logger
}

func NewExtractor(classifier analysis.FacetClassifier, store GraphStore, cfg Config, log *logger.Logger) *Extractor {
	return &Extractor{
		classifier: classifier,
		store:      store,
		cfg:        cfg.normalized(),
		locks:      newCourseLocks(),
		log:        log.With("component", "ThreadExtractor"),
	}
}

// ExtractThreads processes the facet evidence of one lecture. Facets
// run in canonical order and descriptors in classifier order, so the
// result sequence is deterministic for a deterministic classifier.
func (x *Extractor) ExtractThreads(ctx context.Context, evidence map[analysis.Facet]analysis.FacetEvidence, courseID, lectureID uuid.UUID) ([]Touch, error) {
	if courseID == uuid.Nil || lectureID == uuid.Nil {
		return nil, fmt.Errorf("extract threads: missing course or lecture id")
	}

	unlock := x.locks.lock(courseID)
	defer unlock()

	existing, err := x.store.ListThreads(ctx, courseID)
	if err != nil {
		return nil, &analysis.PersistenceError{Op: "list threads", Err: err}
	}
	recent := x.recentLectures(existing)

	facesSeen := map[analysis.Facet]bool{}
	for _, t := range existing {
		if f, perr := analysis.ParseFacet(t.Face); perr == nil {
			facesSeen[f] = true
		}
	}

	var touches []Touch
	for _, f := range analysis.AllFacets() {
		ev, ok := evidence[f]
		if !ok || ev.SourceCount < x.cfg.SignificanceMin || len(ev.Snippets) == 0 {
			continue
		}

		descriptors, err := x.classifier.SummarizeConcepts(ctx, f, ev.Snippets)
		if err != nil {
			x.log.Warn("Concept summarization failed; skipping facet",
				"facet", f, "lecture_id", lectureID, "error", err)
			continue
		}

		for _, desc := range descriptors {
			desc.Title = strings.TrimSpace(desc.Title)
			desc.Summary = strings.TrimSpace(desc.Summary)
			if desc.Title == "" {
				continue
			}

			cands := x.scoreCandidates(ctx, desc, existing)
			best, found := x.bestCandidate(cands, recent)

			var touch Touch
			if found && best.sim >= x.cfg.MatchThreshold {
				touch, err = x.touchExisting(ctx, best.thread, desc, ev.Score, lectureID)
			} else {
				var parent *domain.Thread
				if found && best.sim >= x.cfg.RelatedThreshold {
					parent = best.thread
				}
				touch, err = x.createThread(ctx, f, desc, ev.Score, parent, facesSeen[f], courseID, lectureID)
				if err == nil {
					existing = append(existing, touch.Thread)
					facesSeen[f] = true
				}
			}
			if err != nil {
				return touches, err
			}
			touches = append(touches, touch)
		}
	}
	return touches, nil
}

func (x *Extractor) touchExisting(ctx context.Context, t *domain.Thread, desc analysis.ConceptDescriptor, facetScore float64, lectureID uuid.UUID) (Touch, error) {
	occ := &domain.ThreadOccurrence{
		ID:         uuid.New(),
		ThreadID:   t.ID,
		LectureID:  lectureID,
		Confidence: confidenceOf(desc, facetScore),
		Evidence:   desc.Summary,
	}
	if err := x.store.AppendOccurrence(ctx, occ); err != nil {
		return Touch{}, &analysis.PersistenceError{Op: "append occurrence", Err: err}
	}

	update, err := x.ClassifyUpdate(ctx, t, desc.Summary, occ.Confidence, lectureID)
	if err != nil {
		return Touch{}, err
	}

	changed := appendLectureRef(t, lectureID)
	if changed || update != nil {
		if err := x.store.UpdateThread(ctx, t); err != nil {
			return Touch{}, &analysis.PersistenceError{Op: "update thread", Err: err}
		}
	}
	return Touch{Thread: t, Occurrence: occ, Update: update}, nil
}

func (x *Extractor) createThread(ctx context.Context, f analysis.Facet, desc analysis.ConceptDescriptor, facetScore float64, parent *domain.Thread, faceSeen bool, courseID, lectureID uuid.UUID) (Touch, error) {
	status := domain.ThreadStatusFoundational
	if faceSeen {
		status = domain.ThreadStatusAdvanced
	}
	t := &domain.Thread{
		ID:       uuid.New(),
		CourseID: courseID,
		Face:     string(f),
		Title:    desc.Title,
		Summary:  desc.Summary,
		Status:   status,
	}
	if parent != nil {
		pid := parent.ID
		t.ParentID = &pid
		t.Depth = parent.Depth + 1
	}
	setLectureRefs(t, []uuid.UUID{lectureID})

	if err := x.store.CreateThread(ctx, t); err != nil {
		return Touch{}, &analysis.PersistenceError{Op: "create thread", Err: err}
	}
	if parent != nil {
		parent.ChildCount++
		if err := x.store.UpdateThread(ctx, parent); err != nil {
			return Touch{}, &analysis.PersistenceError{Op: "update parent thread", Err: err}
		}
	}

	occ := &domain.ThreadOccurrence{
		ID:         uuid.New(),
		ThreadID:   t.ID,
		LectureID:  lectureID,
		Confidence: confidenceOf(desc, facetScore),
		Evidence:   desc.Summary,
	}
	if err := x.store.AppendOccurrence(ctx, occ); err != nil {
		return Touch{}, &analysis.PersistenceError{Op: "append occurrence", Err: err}
	}
	return Touch{Thread: t, Occurrence: occ, Created: true}, nil
}

// confidenceOf blends the descriptor's own confidence with the facet's
// cumulative rotation score. Evidence persisted before the score was
// recorded carries none; the descriptor then stands alone.
func confidenceOf(desc analysis.ConceptDescriptor, facetScore float64) float64 {
	c := desc.Confidence
	if c <= 0 {
		c = 0.5
	}
	if c > 1 {
		c = 1
	}
	if facetScore > 0 {
		if facetScore > 1 {
			facetScore = 1
		}
		c = (c + facetScore) / 2
	}
	return c
}
