package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RotationStateRecord is the Postgres trace of a lecture's rotation
// state. Redis holds the hot copy; this row is the last-write-wins
// fallback the read API uses after the Redis key expires.
type RotationStateRecord struct {
	ID                  uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	LectureID           uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"lecture_id"`
	Status              string         `gorm:"column:status;not null;index" json:"status"`
	IterationsCompleted int            `gorm:"column:iterations_completed;not null;default:0" json:"iterations_completed"`
	DominantFacet       *string        `gorm:"column:dominant_facet" json:"dominant_facet,omitempty"`
	DominantScore       *float64       `gorm:"column:dominant_score" json:"dominant_score,omitempty"`
	State               datatypes.JSON `gorm:"column:state;type:jsonb" json:"state"` // full analysis.RotationState
	CreatedAt           time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (RotationStateRecord) TableName() string { return "rotation_state" }
