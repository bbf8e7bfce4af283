package threads

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/notedive/notedive-backend/internal/domain"
)

// GraphStore is the injected thread persistence capability, scoped by
// course. Threads are never deleted; occurrences and updates are
// append-only.
type GraphStore interface {
	ListThreads(ctx context.Context, courseID uuid.UUID) ([]*domain.Thread, error)
	CreateThread(ctx context.Context, t *domain.Thread) error
	UpdateThread(ctx context.Context, t *domain.Thread) error
	AppendOccurrence(ctx context.Context, o *domain.ThreadOccurrence) error
	// AppendUpdate reports false when the (thread, lecture) pair
	// already holds an update; the caller treats that as a no-op.
	AppendUpdate(ctx context.Context, u *domain.ThreadUpdate) (bool, error)
}

// LectureRefs decodes a thread's lecture_refs column. Append order is
// preserved; the slice acts as a set.
func LectureRefs(t *domain.Thread) []uuid.UUID {
	if t == nil || len(t.LectureRefs) == 0 {
		return nil
	}
	var out []uuid.UUID
	if err := json.Unmarshal(t.LectureRefs, &out); err != nil {
		return nil
	}
	return out
}

func setLectureRefs(t *domain.Thread, refs []uuid.UUID) {
	raw, err := json.Marshal(refs)
	if err != nil {
		return
	}
	t.LectureRefs = datatypes.JSON(raw)
}

// appendLectureRef adds lectureID to the thread's refs if absent and
// reports whether the refs changed.
func appendLectureRef(t *domain.Thread, lectureID uuid.UUID) bool {
	refs := LectureRefs(t)
	for _, r := range refs {
		if r == lectureID {
			return false
		}
	}
	setLectureRefs(t, append(refs, lectureID))
	return true
}
