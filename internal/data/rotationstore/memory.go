package rotationstore

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/notedive/notedive-backend/internal/analysis"
)

// Memory is an in-process StateStore for tests and single-node runs
// without Redis. Values round-trip through JSON so callers see the same
// copy semantics as the real stores.
type Memory struct {
	mu   sync.RWMutex
	data map[uuid.UUID][]byte
	// Writes counts successful writes; tests assert one per round.
	Writes int
}

func NewMemory() *Memory {
	return &Memory{data: map[uuid.UUID][]byte{}}
}

var _ analysis.StateStore = (*Memory)(nil)

func (m *Memory) Read(_ context.Context, lectureID uuid.UUID) (*analysis.RotationState, error) {
	m.mu.RLock()
	raw, ok := m.data[lectureID]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	var st analysis.RotationState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (m *Memory) Write(_ context.Context, lectureID uuid.UUID, state *analysis.RotationState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[lectureID] = raw
	m.Writes++
	m.mu.Unlock()
	return nil
}
