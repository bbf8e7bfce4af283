package threads

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/notedive/notedive-backend/internal/domain"
	"github.com/notedive/notedive-backend/internal/pkg/dbctx"
	"github.com/notedive/notedive-backend/internal/pkg/logger"
)

type ThreadOccurrenceRepo interface {
	// Append inserts unless the (thread, lecture) pair already holds
	// an occurrence, keeping lecture re-analysis idempotent.
	Append(dbc dbctx.Context, row *domain.ThreadOccurrence) error
	GetByThread(dbc dbctx.Context, threadID uuid.UUID) ([]*domain.ThreadOccurrence, error)
	GetByLecture(dbc dbctx.Context, lectureID uuid.UUID) ([]*domain.ThreadOccurrence, error)
}

type threadOccurrenceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewThreadOccurrenceRepo(db *gorm.DB, baseLog *logger.Logger) ThreadOccurrenceRepo {
	return &threadOccurrenceRepo{db: db, log: baseLog.With("repo", "ThreadOccurrenceRepo")}
}

func (r *threadOccurrenceRepo) Append(dbc dbctx.Context, row *domain.ThreadOccurrence) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "thread_id"}, {Name: "lecture_id"}},
			DoNothing: true,
		}).
		Create(row).Error
}

func (r *threadOccurrenceRepo) GetByThread(dbc dbctx.Context, threadID uuid.UUID) ([]*domain.ThreadOccurrence, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*domain.ThreadOccurrence
	if threadID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("thread_id = ?", threadID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *threadOccurrenceRepo) GetByLecture(dbc dbctx.Context, lectureID uuid.UUID) ([]*domain.ThreadOccurrence, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*domain.ThreadOccurrence
	if lectureID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("lecture_id = ?", lectureID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
