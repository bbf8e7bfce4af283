package threads

import (
	"sync"

	"github.com/google/uuid"
)

// courseLocks serializes the extract-match-write sequence per course so
// two concurrent analyses cannot race each other into near-identical
// duplicate threads. Lectures of different courses proceed fully
// concurrently.
type courseLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newCourseLocks() *courseLocks {
	return &courseLocks{locks: map[uuid.UUID]*sync.Mutex{}}
}

func (c *courseLocks) lock(courseID uuid.UUID) func() {
	c.mu.Lock()
	l, ok := c.locks[courseID]
	if !ok {
		l = &sync.Mutex{}
		c.locks[courseID] = l
	}
	c.mu.Unlock()
	l.Lock()
	return l.Unlock
}
