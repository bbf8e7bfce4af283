package threads

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/notedive/notedive-backend/internal/analysis"
	"github.com/notedive/notedive-backend/internal/domain"
)

// ClassifyUpdate compares new evidence against a matched thread's
// stored summary and records at most one update per (thread, lecture).
// A nil result is pure reinforcement. When multiple signals apply, the
// highest severity wins: contradiction > complexity > refinement.
//
// Complexity increments the thread's complexity level; the first time
// the level reaches the configured threshold the thread flips
// foundational -> advanced, and never back.
func (x *Extractor) ClassifyUpdate(ctx context.Context, t *domain.Thread, newSummary string, newConfidence float64, lectureID uuid.UUID) (*domain.ThreadUpdate, error) {
	newSummary = strings.TrimSpace(newSummary)
	if newSummary == "" {
		return nil, nil
	}
	// Low-confidence evidence never reclassifies a thread.
	if newConfidence < 0.2 {
		return nil, nil
	}

	verdict, err := x.classifier.CompareSummaries(ctx, t.Summary, newSummary)
	if err != nil {
		return nil, &analysis.RetryableError{Op: "compare summaries", Err: err}
	}

	changeType := ""
	switch {
	case verdict.Contradiction:
		changeType = domain.ChangeTypeContradiction
	case verdict.Complexity:
		changeType = domain.ChangeTypeComplexity
	case verdict.Refinement:
		changeType = domain.ChangeTypeRefinement
	default:
		return nil, nil
	}

	update := &domain.ThreadUpdate{
		ID:         uuid.New(),
		ThreadID:   t.ID,
		LectureID:  lectureID,
		ChangeType: changeType,
		Summary:    verdict.Summary,
		Details:    marshalDetails(verdict.Details),
	}
	if update.Summary == "" {
		update.Summary = newSummary
	}

	inserted, err := x.store.AppendUpdate(ctx, update)
	if err != nil {
		return nil, &analysis.PersistenceError{Op: "append update", Err: err}
	}
	if !inserted {
		// The lecture already contributed an update to this thread;
		// re-runs stay idempotent.
		return nil, nil
	}

	switch changeType {
	case domain.ChangeTypeComplexity:
		t.ComplexityLevel++
		if t.ComplexityLevel >= x.cfg.ComplexityThreshold && t.Status == domain.ThreadStatusFoundational {
			t.Status = domain.ThreadStatusAdvanced
		}
	case domain.ChangeTypeRefinement:
		t.Summary = newSummary
	}
	return update, nil
}

func marshalDetails(details []string) datatypes.JSON {
	if len(details) == 0 {
		return datatypes.JSON([]byte("[]"))
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return datatypes.JSON([]byte("[]"))
	}
	return datatypes.JSON(raw)
}
