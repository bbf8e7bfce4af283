package rotationstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/notedive/notedive-backend/internal/analysis"
	"github.com/notedive/notedive-backend/internal/domain"
	"github.com/notedive/notedive-backend/internal/pkg/logger"
)

// gormStore keeps the durable last-write-wins trace row per lecture.
type gormStore struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGorm(db *gorm.DB, log *logger.Logger) analysis.StateStore {
	return &gormStore{db: db, log: log.With("store", "RotationGorm")}
}

func (s *gormStore) Read(ctx context.Context, lectureID uuid.UUID) (*analysis.RotationState, error) {
	var row domain.RotationStateRecord
	err := s.db.WithContext(ctx).Where("lecture_id = ?", lectureID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read rotation state record: %w", err)
	}
	var st analysis.RotationState
	if err := json.Unmarshal(row.State, &st); err != nil {
		return nil, fmt.Errorf("decode rotation state record: %w", err)
	}
	return &st, nil
}

func (s *gormStore) Write(ctx context.Context, lectureID uuid.UUID, state *analysis.RotationState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode rotation state record: %w", err)
	}
	row := domain.RotationStateRecord{
		ID:                  uuid.New(),
		LectureID:           lectureID,
		Status:              state.Status,
		IterationsCompleted: state.IterationsCompleted,
		State:               datatypes.JSON(raw),
	}
	if state.DominantFacet != nil {
		f := string(*state.DominantFacet)
		row.DominantFacet = &f
	}
	row.DominantScore = state.DominantScore

	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "lecture_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status", "iterations_completed", "dominant_facet", "dominant_score", "state", "updated_at",
			}),
		}).
		Create(&row).Error
}
