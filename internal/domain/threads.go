package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	ThreadStatusFoundational = "foundational"
	ThreadStatusAdvanced     = "advanced"
)

const (
	ChangeTypeRefinement    = "refinement"
	ChangeTypeContradiction = "contradiction"
	ChangeTypeComplexity    = "complexity"
)

// Thread is one tracked concept within a course. Threads form a strict
// forest: ParentID references another thread of the same course by id,
// Depth is parent.Depth+1. Threads are never deleted and status only
// moves foundational -> advanced.
type Thread struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CourseID        uuid.UUID      `gorm:"type:uuid;not null;index:idx_thread_course" json:"course_id"`
	ParentID        *uuid.UUID     `gorm:"type:uuid;column:parent_id;index" json:"parent_id,omitempty"`
	Face            string         `gorm:"column:face;not null;index:idx_thread_course_face" json:"face"`
	Title           string         `gorm:"column:title;not null" json:"title"`
	Summary         string         `gorm:"column:summary;type:text" json:"summary,omitempty"`
	Status          string         `gorm:"column:status;not null;default:'foundational'" json:"status"`
	ComplexityLevel int            `gorm:"column:complexity_level;not null;default:0" json:"complexity_level"`
	Depth           int            `gorm:"column:depth;not null;default:0" json:"depth"`
	ChildCount      int            `gorm:"column:child_count;not null;default:0" json:"child_count"`
	LectureRefs     datatypes.JSON `gorm:"column:lecture_refs;type:jsonb" json:"lecture_refs"` // []uuid, append order
	CreatedAt       time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Thread) TableName() string { return "thread" }

// ThreadOccurrence is one piece of lecture evidence for a thread.
// Append-only, at most one per (thread, lecture) so re-analysis of a
// lecture cannot pile up duplicate evidence.
type ThreadOccurrence struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ThreadID   uuid.UUID `gorm:"type:uuid;not null;index:idx_occurrence_thread_lecture,unique,priority:1" json:"thread_id"`
	LectureID  uuid.UUID `gorm:"type:uuid;not null;index:idx_occurrence_thread_lecture,unique,priority:2" json:"lecture_id"`
	Confidence float64   `gorm:"column:confidence;not null;default:0" json:"confidence"`
	Evidence   string    `gorm:"column:evidence;type:text" json:"evidence,omitempty"`
	CreatedAt  time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (ThreadOccurrence) TableName() string { return "thread_occurrence" }

// ThreadUpdate is a classified change to a thread's understanding.
// Append-only, at most one per (thread, lecture).
type ThreadUpdate struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ThreadID   uuid.UUID      `gorm:"type:uuid;not null;index:idx_update_thread_lecture,unique,priority:1" json:"thread_id"`
	LectureID  uuid.UUID      `gorm:"type:uuid;not null;index:idx_update_thread_lecture,unique,priority:2" json:"lecture_id"`
	ChangeType string         `gorm:"column:change_type;not null" json:"change_type"`
	Summary    string         `gorm:"column:summary;type:text" json:"summary,omitempty"`
	Details    datatypes.JSON `gorm:"column:details;type:jsonb" json:"details"` // []string
	CreatedAt  time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (ThreadUpdate) TableName() string { return "thread_update" }
