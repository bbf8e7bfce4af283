package rotationstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/notedive/notedive-backend/internal/analysis"
	"github.com/notedive/notedive-backend/internal/pkg/logger"
)

func redisClient(t *testing.T) *goredis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
}

func sampleState(lectureID uuid.UUID) *analysis.RotationState {
	st := analysis.NewRotationState(lectureID, analysis.BuildSchedule(6, 3))
	st.Scores[analysis.FacetWhat] = 0.9
	st.IterationsCompleted = 1
	st.ActiveIndex = 1
	return st
}

func TestRedisStore_ReadMissingIsNil(t *testing.T) {
	store := NewRedis(redisClient(t), logger.NewNop())
	st, err := store.Read(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if st != nil {
		t.Fatalf("missing key should read as nil, got %+v", st)
	}
}

func TestRedisStore_RoundTrip(t *testing.T) {
	store := NewRedis(redisClient(t), logger.NewNop())
	lectureID := uuid.New()
	want := sampleState(lectureID)

	if err := store.Write(context.Background(), lectureID, want); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := store.Read(context.Background(), lectureID)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got == nil || got.LectureID != lectureID {
		t.Fatalf("round trip lost lecture id: %+v", got)
	}
	if got.Scores[analysis.FacetWhat] != 0.9 {
		t.Fatalf("round trip lost scores: %v", got.Scores)
	}
	if got.ActiveIndex != 1 || got.IterationsCompleted != 1 {
		t.Fatalf("round trip lost progress: %+v", got)
	}
	if len(got.Schedule) != 6 {
		t.Fatalf("round trip lost schedule: %d rounds", len(got.Schedule))
	}
}

func TestRedisStore_LastWriteWins(t *testing.T) {
	store := NewRedis(redisClient(t), logger.NewNop())
	lectureID := uuid.New()

	first := sampleState(lectureID)
	if err := store.Write(context.Background(), lectureID, first); err != nil {
		t.Fatalf("first write: %v", err)
	}
	second := sampleState(lectureID)
	second.IterationsCompleted = 2
	second.Status = analysis.StatusConverged
	if err := store.Write(context.Background(), lectureID, second); err != nil {
		t.Fatalf("second write: %v", err)
	}

	got, err := store.Read(context.Background(), lectureID)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.IterationsCompleted != 2 || got.Status != analysis.StatusConverged {
		t.Fatalf("last write did not win: %+v", got)
	}
}

func TestComposite_HotMissFallsThrough(t *testing.T) {
	trace := NewMemory()
	hot := NewRedis(redisClient(t), logger.NewNop())
	store := NewComposite(hot, trace, logger.NewNop())

	lectureID := uuid.New()
	if err := trace.Write(context.Background(), lectureID, sampleState(lectureID)); err != nil {
		t.Fatalf("trace write: %v", err)
	}

	got, err := store.Read(context.Background(), lectureID)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got == nil || got.LectureID != lectureID {
		t.Fatalf("hot miss should fall through to trace, got %+v", got)
	}
}

func TestComposite_WritesBothSides(t *testing.T) {
	trace := NewMemory()
	hot := NewMemory()
	store := NewComposite(hot, trace, logger.NewNop())

	lectureID := uuid.New()
	if err := store.Write(context.Background(), lectureID, sampleState(lectureID)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if hot.Writes != 1 || trace.Writes != 1 {
		t.Fatalf("writes hot=%d trace=%d, want 1/1", hot.Writes, trace.Writes)
	}
}

func TestMemory_RoundTripIsCopy(t *testing.T) {
	store := NewMemory()
	lectureID := uuid.New()
	st := sampleState(lectureID)
	if err := store.Write(context.Background(), lectureID, st); err != nil {
		t.Fatalf("Write: %v", err)
	}

	st.Scores[analysis.FacetWhat] = 0.1 // mutate the original

	got, err := store.Read(context.Background(), lectureID)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Scores[analysis.FacetWhat] != 0.9 {
		t.Fatalf("store must hold a snapshot, got %v", got.Scores[analysis.FacetWhat])
	}
}
