package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/notedive/notedive-backend/internal/analysis"
	"github.com/notedive/notedive-backend/internal/data/graph"
	jobrepos "github.com/notedive/notedive-backend/internal/data/repos/jobs"
	"github.com/notedive/notedive-backend/internal/domain"
	"github.com/notedive/notedive-backend/internal/pkg/apierr"
	"github.com/notedive/notedive-backend/internal/pkg/dbctx"
	"github.com/notedive/notedive-backend/internal/pkg/logger"
	"github.com/notedive/notedive-backend/internal/platform/neo4jdb"
	"github.com/notedive/notedive-backend/internal/realtime"
	"github.com/notedive/notedive-backend/internal/threads"

	courserepos "github.com/notedive/notedive-backend/internal/data/repos/courses"
	threadrepos "github.com/notedive/notedive-backend/internal/data/repos/threads"
)

// ThreadDetail is a thread with its full evolution history, as served
// to the reading UI.
type ThreadDetail struct {
	Thread      *domain.Thread             `json:"thread"`
	Occurrences []*domain.ThreadOccurrence `json:"occurrences"`
	Updates     []*domain.ThreadUpdate     `json:"updates"`
}

// AnalysisService runs the full analysis pipeline for a lecture and
// serves the read API over its results.
type AnalysisService interface {
	// AnalyzeLecture runs rotation scoring and thread extraction for
	// one lecture. Safe to re-run: terminal rotation states and
	// already-written touches are not duplicated.
	AnalyzeLecture(ctx context.Context, lectureID uuid.UUID, safeMode bool) error

	// EnqueueAnalysis schedules AnalyzeLecture on the worker pool,
	// idempotently per lecture.
	EnqueueAnalysis(ctx context.Context, lectureID uuid.UUID) (*domain.JobRun, error)

	GetRotationState(ctx context.Context, lectureID uuid.UUID) (*analysis.RotationState, error)
	ListCourseThreads(ctx context.Context, courseID uuid.UUID) ([]*domain.Thread, error)
	GetThread(ctx context.Context, threadID uuid.UUID) (*ThreadDetail, error)
}

type analysisService struct {
	db          *gorm.DB
	log         *logger.Logger
	engine      *analysis.Engine
	extractor   *threads.Extractor
	rotation    analysis.StateStore
	lectures    courserepos.LectureRepo
	threadRepo  threadrepos.ThreadRepo
	occurrences threadrepos.ThreadOccurrenceRepo
	updates     threadrepos.ThreadUpdateRepo
	jobRuns     jobrepos.JobRunRepo
	neo4j       *neo4jdb.Client
	bus         realtime.ProgressBus
}

type AnalysisServiceDeps struct {
	DB          *gorm.DB
	Log         *logger.Logger
	Engine      *analysis.Engine
	Extractor   *threads.Extractor
	Rotation    analysis.StateStore
	Lectures    courserepos.LectureRepo
	Threads     threadrepos.ThreadRepo
	Occurrences threadrepos.ThreadOccurrenceRepo
	Updates     threadrepos.ThreadUpdateRepo
	JobRuns     jobrepos.JobRunRepo
	Neo4j       *neo4jdb.Client
	Bus         realtime.ProgressBus
}

func NewAnalysisService(deps AnalysisServiceDeps) AnalysisService {
	svc := &analysisService{
		db:          deps.DB,
		log:         deps.Log.With("service", "AnalysisService"),
		engine:      deps.Engine,
		extractor:   deps.Extractor,
		rotation:    deps.Rotation,
		lectures:    deps.Lectures,
		threadRepo:  deps.Threads,
		occurrences: deps.Occurrences,
		updates:     deps.Updates,
		jobRuns:     deps.JobRuns,
		neo4j:       deps.Neo4j,
		bus:         deps.Bus,
	}
	if svc.bus == nil {
		svc.bus = realtime.NopBus{}
	}
	if deps.Engine != nil {
		deps.Engine.OnRound(func(ev analysis.RoundEvent) {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := svc.bus.Publish(ctx, ev); err != nil {
				svc.log.Warn("Progress publish failed", "lecture_id", ev.LectureID, "error", err)
			}
		})
	}
	return svc
}

func (s *analysisService) AnalyzeLecture(ctx context.Context, lectureID uuid.UUID, safeMode bool) error {
	lecture, err := s.lectures.GetByID(dbctx.New(ctx), lectureID)
	if err != nil {
		return fmt.Errorf("load lecture: %w", err)
	}
	if lecture == nil {
		return apierr.New(http.StatusNotFound, "lecture_not_found", fmt.Errorf("lecture %s not found", lectureID))
	}

	if err := s.lectures.UpdateStatus(dbctx.New(ctx), lectureID, domain.LectureStatusAnalyzing); err != nil {
		s.log.Warn("UpdateStatus(analyzing) failed", "lecture_id", lectureID, "error", err)
	}

	evidence, err := s.engine.ProcessTranscript(ctx, lecture.Transcript, lectureID, analysis.ProcessOptions{SafeMode: safeMode})
	if err != nil {
		s.markFailed(lectureID)
		return fmt.Errorf("process transcript: %w", err)
	}

	touches, err := s.extractor.ExtractThreads(ctx, evidence, lecture.CourseID, lectureID)
	if err != nil {
		s.markFailed(lectureID)
		return fmt.Errorf("extract threads: %w", err)
	}

	if s.neo4j != nil {
		all, lerr := s.threadRepo.GetByCourse(dbctx.New(ctx), lecture.CourseID)
		if lerr == nil {
			if gerr := graph.UpsertThreadGraph(ctx, s.neo4j, s.log, lecture.CourseID, all); gerr != nil {
				s.log.Warn("Neo4j thread graph sync failed", "course_id", lecture.CourseID, "error", gerr)
			}
		}
	}

	if err := s.lectures.UpdateStatus(dbctx.New(ctx), lectureID, domain.LectureStatusAnalyzed); err != nil {
		s.log.Warn("UpdateStatus(analyzed) failed", "lecture_id", lectureID, "error", err)
	}

	created := 0
	for _, t := range touches {
		if t.Created {
			created++
		}
	}
	s.log.Info("Lecture analysis complete",
		"lecture_id", lectureID,
		"course_id", lecture.CourseID,
		"touches", len(touches),
		"threads_created", created,
	)
	return nil
}

func (s *analysisService) markFailed(lectureID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.lectures.UpdateStatus(dbctx.New(ctx), lectureID, domain.LectureStatusFailed); err != nil {
		s.log.Warn("UpdateStatus(failed) failed", "lecture_id", lectureID, "error", err)
	}
}

func (s *analysisService) EnqueueAnalysis(ctx context.Context, lectureID uuid.UUID) (*domain.JobRun, error) {
	lecture, err := s.lectures.GetByID(dbctx.New(ctx), lectureID)
	if err != nil {
		return nil, fmt.Errorf("load lecture: %w", err)
	}
	if lecture == nil {
		return nil, apierr.New(http.StatusNotFound, "lecture_not_found", fmt.Errorf("lecture %s not found", lectureID))
	}

	exists, err := s.jobRuns.ExistsRunnable(dbctx.New(ctx), domain.JobTypeLectureAnalysis, "lecture", lectureID)
	if err != nil {
		return nil, fmt.Errorf("check runnable jobs: %w", err)
	}
	if exists {
		return nil, nil
	}

	id := lectureID
	job := &domain.JobRun{
		ID:         uuid.New(),
		JobType:    domain.JobTypeLectureAnalysis,
		EntityType: "lecture",
		EntityID:   &id,
		Status:     domain.JobStatusPending,
	}
	if _, err := s.jobRuns.Create(dbctx.New(ctx), []*domain.JobRun{job}); err != nil {
		return nil, fmt.Errorf("enqueue analysis: %w", err)
	}
	return job, nil
}

func (s *analysisService) GetRotationState(ctx context.Context, lectureID uuid.UUID) (*analysis.RotationState, error) {
	return s.rotation.Read(ctx, lectureID)
}

func (s *analysisService) ListCourseThreads(ctx context.Context, courseID uuid.UUID) ([]*domain.Thread, error) {
	return s.threadRepo.GetByCourse(dbctx.New(ctx), courseID)
}

func (s *analysisService) GetThread(ctx context.Context, threadID uuid.UUID) (*ThreadDetail, error) {
	t, err := s.threadRepo.GetByID(dbctx.New(ctx), threadID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, nil
	}
	occ, err := s.occurrences.GetByThread(dbctx.New(ctx), threadID)
	if err != nil {
		return nil, err
	}
	ups, err := s.updates.GetByThread(dbctx.New(ctx), threadID)
	if err != nil {
		return nil, err
	}
	return &ThreadDetail{Thread: t, Occurrences: occ, Updates: ups}, nil
}
