package courses

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/notedive/notedive-backend/internal/domain"
	"github.com/notedive/notedive-backend/internal/pkg/dbctx"
	"github.com/notedive/notedive-backend/internal/pkg/logger"
)

type LectureRepo interface {
	Create(dbc dbctx.Context, rows []*domain.Lecture) ([]*domain.Lecture, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Lecture, error)
	GetByCourse(dbc dbctx.Context, courseID uuid.UUID) ([]*domain.Lecture, error)
	UpdateStatus(dbc dbctx.Context, id uuid.UUID, status string) error
}

type lectureRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLectureRepo(db *gorm.DB, baseLog *logger.Logger) LectureRepo {
	return &lectureRepo{db: db, log: baseLog.With("repo", "LectureRepo")}
}

func (r *lectureRepo) Create(dbc dbctx.Context, rows []*domain.Lecture) ([]*domain.Lecture, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*domain.Lecture{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *lectureRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Lecture, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*domain.Lecture
	if err := t.WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *lectureRepo) GetByCourse(dbc dbctx.Context, courseID uuid.UUID) ([]*domain.Lecture, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*domain.Lecture
	if courseID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("course_id = ?", courseID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *lectureRepo) UpdateStatus(dbc dbctx.Context, id uuid.UUID, status string) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).
		Model(&domain.Lecture{}).
		Where("id = ?", id).
		Update("status", status).Error
}
