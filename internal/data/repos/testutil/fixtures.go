package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/notedive/notedive-backend/internal/domain"
)

func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, title string) *domain.Course {
	tb.Helper()
	c := &domain.Course{ID: uuid.New(), Title: title}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

func SeedLecture(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uuid.UUID, title string) *domain.Lecture {
	tb.Helper()
	l := &domain.Lecture{
		ID:         uuid.New(),
		CourseID:   courseID,
		Title:      title,
		Transcript: "transcript for " + title,
		Status:     domain.LectureStatusUploaded,
	}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed lecture: %v", err)
	}
	return l
}

func SeedThread(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uuid.UUID, face, title string) *domain.Thread {
	tb.Helper()
	t := &domain.Thread{
		ID:          uuid.New(),
		CourseID:    courseID,
		Face:        face,
		Title:       title,
		Summary:     "summary of " + title,
		Status:      domain.ThreadStatusFoundational,
		LectureRefs: datatypes.JSON([]byte("[]")),
	}
	if err := tx.WithContext(ctx).Create(t).Error; err != nil {
		tb.Fatalf("seed thread: %v", err)
	}
	return t
}
