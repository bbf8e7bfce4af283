package threads

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/notedive/notedive-backend/internal/domain"
	"github.com/notedive/notedive-backend/internal/pkg/dbctx"
	"github.com/notedive/notedive-backend/internal/pkg/logger"
)

type ThreadRepo interface {
	Create(dbc dbctx.Context, rows []*domain.Thread) ([]*domain.Thread, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Thread, error)
	GetByCourse(dbc dbctx.Context, courseID uuid.UUID) ([]*domain.Thread, error)
	GetByParentIDs(dbc dbctx.Context, parentIDs []uuid.UUID) ([]*domain.Thread, error)
	Update(dbc dbctx.Context, row *domain.Thread) error
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type threadRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewThreadRepo(db *gorm.DB, baseLog *logger.Logger) ThreadRepo {
	return &threadRepo{db: db, log: baseLog.With("repo", "ThreadRepo")}
}

func (r *threadRepo) Create(dbc dbctx.Context, rows []*domain.Thread) ([]*domain.Thread, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*domain.Thread{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *threadRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Thread, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*domain.Thread
	if err := t.WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *threadRepo) GetByCourse(dbc dbctx.Context, courseID uuid.UUID) ([]*domain.Thread, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*domain.Thread
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

func (r *threadRepo) GetByParentIDs(dbc dbctx.Context, parentIDs []uuid.UUID) ([]*domain.Thread, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*domain.Thread
	if len(parentIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).Where("parent_id IN ?", parentIDs).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *threadRepo) Update(dbc dbctx.Context, row *domain.Thread) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).Save(row).Error
}

func (r *threadRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Model(&domain.Thread{}).
		Where("id = ?", id).
		Updates(updates).Error
}
