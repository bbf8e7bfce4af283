package threads

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/notedive/notedive-backend/internal/domain"
	"github.com/notedive/notedive-backend/internal/pkg/dbctx"
	"github.com/notedive/notedive-backend/internal/pkg/logger"
)

type ThreadUpdateRepo interface {
	// Append inserts unless the (thread, lecture) pair already holds an
	// update; reports whether a row was written.
	Append(dbc dbctx.Context, row *domain.ThreadUpdate) (bool, error)
	GetByThread(dbc dbctx.Context, threadID uuid.UUID) ([]*domain.ThreadUpdate, error)
}

type threadUpdateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewThreadUpdateRepo(db *gorm.DB, baseLog *logger.Logger) ThreadUpdateRepo {
	return &threadUpdateRepo{db: db, log: baseLog.With("repo", "ThreadUpdateRepo")}
}

func (r *threadUpdateRepo) Append(dbc dbctx.Context, row *domain.ThreadUpdate) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return false, nil
	}
	res := t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "thread_id"}, {Name: "lecture_id"}},
			DoNothing: true,
		}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *threadUpdateRepo) GetByThread(dbc dbctx.Context, threadID uuid.UUID) ([]*domain.ThreadUpdate, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*domain.ThreadUpdate
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
