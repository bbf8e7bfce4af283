package threads

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/notedive/notedive-backend/internal/data/repos/testutil"
	"github.com/notedive/notedive-backend/internal/domain"
	"github.com/notedive/notedive-backend/internal/pkg/dbctx"
)

func TestThreadRepo_CreateAndGetByCourse(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	log := testutil.Logger(t)

	course := testutil.SeedCourse(t, ctx, tx, "Deep Learning")
	repo := NewThreadRepo(db, log)
	dbc := dbctx.WithTx(ctx, tx)

	rows, err := repo.Create(dbc, []*domain.Thread{
		{ID: uuid.New(), CourseID: course.ID, Face: "WHAT", Title: "Backpropagation"},
		{ID: uuid.New(), CourseID: course.ID, Face: "HOW", Title: "Minibatching"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("created %d rows, want 2", len(rows))
	}

	got, err := repo.GetByCourse(dbc, course.ID)
	if err != nil {
		t.Fatalf("GetByCourse: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d threads, want 2", len(got))
	}

	other, err := repo.GetByCourse(dbc, uuid.New())
	if err != nil {
		t.Fatalf("GetByCourse(other): %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("unrelated course returned %d threads", len(other))
	}
}

func TestThreadRepo_UpdateFields(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	log := testutil.Logger(t)

	course := testutil.SeedCourse(t, ctx, tx, "Deep Learning")
	row := testutil.SeedThread(t, ctx, tx, course.ID, "WHAT", "Backpropagation")
	repo := NewThreadRepo(db, log)
	dbc := dbctx.WithTx(ctx, tx)

	if err := repo.UpdateFields(dbc, row.ID, map[string]interface{}{
		"status":           domain.ThreadStatusAdvanced,
		"complexity_level": 3,
	}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}

	got, err := repo.GetByID(dbc, row.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != domain.ThreadStatusAdvanced || got.ComplexityLevel != 3 {
		t.Fatalf("update not applied: %+v", got)
	}
}

func TestThreadUpdateRepo_AppendIsIdempotentPerLecture(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	log := testutil.Logger(t)

	course := testutil.SeedCourse(t, ctx, tx, "Deep Learning")
	thread := testutil.SeedThread(t, ctx, tx, course.ID, "WHAT", "Backpropagation")
	lecture := testutil.SeedLecture(t, ctx, tx, course.ID, "Lecture 3")

	repo := NewThreadUpdateRepo(db, log)
	dbc := dbctx.WithTx(ctx, tx)

	inserted, err := repo.Append(dbc, &domain.ThreadUpdate{
		ID:         uuid.New(),
		ThreadID:   thread.ID,
		LectureID:  lecture.ID,
		ChangeType: domain.ChangeTypeComplexity,
		Summary:    "adds second-order detail",
	})
	if err != nil {
		t.Fatalf("first Append: %v", err)
	}
	if !inserted {
		t.Fatalf("first append should insert")
	}

	inserted, err = repo.Append(dbc, &domain.ThreadUpdate{
		ID:         uuid.New(),
		ThreadID:   thread.ID,
		LectureID:  lecture.ID,
		ChangeType: domain.ChangeTypeRefinement,
		Summary:    "duplicate from re-run",
	})
	if err != nil {
		t.Fatalf("second Append: %v", err)
	}
	if inserted {
		t.Fatalf("second append for same (thread, lecture) must be a no-op")
	}

	got, err := repo.GetByThread(dbc, thread.ID)
	if err != nil {
		t.Fatalf("GetByThread: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("stored %d updates, want 1", len(got))
	}
	if got[0].ChangeType != domain.ChangeTypeComplexity {
		t.Fatalf("first write must win, got %q", got[0].ChangeType)
	}
}

func TestThreadOccurrenceRepo_AppendAndList(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	log := testutil.Logger(t)

	course := testutil.SeedCourse(t, ctx, tx, "Deep Learning")
	thread := testutil.SeedThread(t, ctx, tx, course.ID, "WHAT", "Backpropagation")
	lecture := testutil.SeedLecture(t, ctx, tx, course.ID, "Lecture 1")

	repo := NewThreadOccurrenceRepo(db, log)
	dbc := dbctx.WithTx(ctx, tx)

	if err := repo.Append(dbc, &domain.ThreadOccurrence{
		ID: uuid.New(), ThreadID: thread.ID, LectureID: lecture.ID, Confidence: 0.8, Evidence: "derivation shown",
	}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	byThread, err := repo.GetByThread(dbc, thread.ID)
	if err != nil {
		t.Fatalf("GetByThread: %v", err)
	}
	if len(byThread) != 1 || byThread[0].LectureID != lecture.ID {
		t.Fatalf("occurrence not listed by thread: %+v", byThread)
	}

	byLecture, err := repo.GetByLecture(dbc, lecture.ID)
	if err != nil {
		t.Fatalf("GetByLecture: %v", err)
	}
	if len(byLecture) != 1 || byLecture[0].ThreadID != thread.ID {
		t.Fatalf("occurrence not listed by lecture: %+v", byLecture)
	}

	// A retried analysis appends the same (thread, lecture) pair
	// again; the first row must win.
	if err := repo.Append(dbc, &domain.ThreadOccurrence{
		ID: uuid.New(), ThreadID: thread.ID, LectureID: lecture.ID, Confidence: 0.9, Evidence: "retried",
	}); err != nil {
		t.Fatalf("second Append: %v", err)
	}
	byThread, err = repo.GetByThread(dbc, thread.ID)
	if err != nil {
		t.Fatalf("GetByThread after retry: %v", err)
	}
	if len(byThread) != 1 {
		t.Fatalf("occurrence count %d after retry, want 1", len(byThread))
	}
	if byThread[0].Evidence != "derivation shown" {
		t.Fatalf("retry overwrote the original occurrence: %+v", byThread[0])
	}
}
