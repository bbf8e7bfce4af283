package courses

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/notedive/notedive-backend/internal/domain"
	"github.com/notedive/notedive-backend/internal/pkg/dbctx"
	"github.com/notedive/notedive-backend/internal/pkg/logger"
)

type CourseRepo interface {
	Create(dbc dbctx.Context, rows []*domain.Course) ([]*domain.Course, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Course, error)
	List(dbc dbctx.Context) ([]*domain.Course, error)
}

type courseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return &courseRepo{db: db, log: baseLog.With("repo", "CourseRepo")}
}

func (r *courseRepo) Create(dbc dbctx.Context, rows []*domain.Course) ([]*domain.Course, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*domain.Course{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *courseRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Course, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*domain.Course
	if err := t.WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *courseRepo) List(dbc dbctx.Context) ([]*domain.Course, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*domain.Course
	if err := t.WithContext(dbc.Ctx).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
