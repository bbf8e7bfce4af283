package threads

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/notedive/notedive-backend/internal/domain"
)

// VerifyForest checks the structural invariants of a course's threads:
// parents resolve within the set, depth(child) = depth(parent)+1,
// roots sit at depth 0, and no thread is its own ancestor.
func VerifyForest(ts []*domain.Thread) error {
	byID := make(map[uuid.UUID]*domain.Thread, len(ts))
	for _, t := range ts {
		if t == nil {
			continue
		}
		byID[t.ID] = t
	}
	for _, t := range ts {
		if t == nil {
			continue
		}
		if t.ParentID == nil {
			if t.Depth != 0 {
				return fmt.Errorf("thread %s: root with depth %d", t.ID, t.Depth)
			}
			continue
		}
		parent, ok := byID[*t.ParentID]
		if !ok {
			return fmt.Errorf("thread %s: dangling parent %s", t.ID, *t.ParentID)
		}
		if t.Depth != parent.Depth+1 {
			return fmt.Errorf("thread %s: depth %d, parent depth %d", t.ID, t.Depth, parent.Depth)
		}
		// Walk up; a cycle would revisit t.
		seen := map[uuid.UUID]bool{t.ID: true}
		cur := parent
		for cur != nil {
			if seen[cur.ID] {
				return fmt.Errorf("thread %s: ancestry cycle through %s", t.ID, cur.ID)
			}
			seen[cur.ID] = true
			if cur.ParentID == nil {
				break
			}
			cur = byID[*cur.ParentID]
		}
	}
	return nil
}
