package threads

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/notedive/notedive-backend/internal/domain"
	"github.com/notedive/notedive-backend/internal/pkg/dbctx"
	"github.com/notedive/notedive-backend/internal/pkg/logger"
	coreThreads "github.com/notedive/notedive-backend/internal/threads"
)

// graphStore implements the extractor's GraphStore capability over the
// gorm repos.
type graphStore struct {
	threads     ThreadRepo
	occurrences ThreadOccurrenceRepo
	updates     ThreadUpdateRepo
}

func NewGraphStore(db *gorm.DB, baseLog *logger.Logger) coreThreads.GraphStore {
	return &graphStore{
		threads:     NewThreadRepo(db, baseLog),
		occurrences: NewThreadOccurrenceRepo(db, baseLog),
		updates:     NewThreadUpdateRepo(db, baseLog),
	}
}

func (s *graphStore) ListThreads(ctx context.Context, courseID uuid.UUID) ([]*domain.Thread, error) {
	return s.threads.GetByCourse(dbctx.New(ctx), courseID)
}

func (s *graphStore) CreateThread(ctx context.Context, t *domain.Thread) error {
	_, err := s.threads.Create(dbctx.New(ctx), []*domain.Thread{t})
	return err
}

func (s *graphStore) UpdateThread(ctx context.Context, t *domain.Thread) error {
	return s.threads.Update(dbctx.New(ctx), t)
}

func (s *graphStore) AppendOccurrence(ctx context.Context, o *domain.ThreadOccurrence) error {
	return s.occurrences.Append(dbctx.New(ctx), o)
}

func (s *graphStore) AppendUpdate(ctx context.Context, u *domain.ThreadUpdate) (bool, error) {
	return s.updates.Append(dbctx.New(ctx), u)
}
