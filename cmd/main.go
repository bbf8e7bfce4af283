package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/notedive/notedive-backend/internal/analysis"
	"github.com/notedive/notedive-backend/internal/data/db"
	"github.com/notedive/notedive-backend/internal/data/rotationstore"
	internalhttp "github.com/notedive/notedive-backend/internal/http"
	httpH "github.com/notedive/notedive-backend/internal/http/handlers"
	jobH "github.com/notedive/notedive-backend/internal/jobs/handlers"
	"github.com/notedive/notedive-backend/internal/jobs/runtime"
	"github.com/notedive/notedive-backend/internal/jobs/worker"
	"github.com/notedive/notedive-backend/internal/pkg/envutil"
	"github.com/notedive/notedive-backend/internal/pkg/logger"
	"github.com/notedive/notedive-backend/internal/platform/neo4jdb"
	"github.com/notedive/notedive-backend/internal/platform/openai"
	"github.com/notedive/notedive-backend/internal/realtime"
	"github.com/notedive/notedive-backend/internal/services"
	"github.com/notedive/notedive-backend/internal/threads"

	courserepos "github.com/notedive/notedive-backend/internal/data/repos/courses"
	jobrepos "github.com/notedive/notedive-backend/internal/data/repos/jobs"
	threadrepos "github.com/notedive/notedive-backend/internal/data/repos/threads"
)

func main() {
	// Logger
	logMode := envutil.String("LOG_MODE", "development")
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()
	if err := db.AutoMigrateAll(thePG); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}

	// Redis (rotation state hot store + progress bus). Optional.
	var rotationStore analysis.StateStore = rotationstore.NewGorm(thePG, log)
	var bus realtime.ProgressBus = realtime.NopBus{}
	rdb, err := rotationstore.NewRedisClient()
	if err != nil {
		log.Warn("Redis init failed, rotation state falls back to Postgres only", "error", err)
	} else {
		rotationStore = rotationstore.NewComposite(rotationstore.NewRedis(rdb, log), rotationStore, log)
		if b, berr := realtime.NewRedisBus(rdb, log); berr == nil {
			bus = b
		} else {
			log.Warn("Progress bus init failed", "error", berr)
		}
	}

	// Neo4j graph mirror. Optional: nil client disables projection.
	neoClient, err := neo4jdb.NewFromEnv(log)
	if err != nil {
		log.Warn("Neo4j init failed, thread graph mirroring disabled", "error", err)
	}

	// Repos
	log.Info("Setting up repos...")
	courseRepo := courserepos.NewCourseRepo(thePG, log)
	lectureRepo := courserepos.NewLectureRepo(thePG, log)
	threadRepo := threadrepos.NewThreadRepo(thePG, log)
	occurrenceRepo := threadrepos.NewThreadOccurrenceRepo(thePG, log)
	updateRepo := threadrepos.NewThreadUpdateRepo(thePG, log)
	jobRunRepo := jobrepos.NewJobRunRepo(thePG, log)
	graphStore := threadrepos.NewGraphStore(thePG, log)

	// Classifier
	aiClient, err := openai.NewClient(log)
	if err != nil {
		log.Error("Could not init OpenAI client", "error", err)
		os.Exit(1)
	}
	classifier := analysis.NewOpenAIClassifier(aiClient, log)

	// Analysis core
	engine := analysis.NewEngine(classifier, rotationStore, analysis.ConfigFromEnv(), log)
	extractor := threads.NewExtractor(classifier, graphStore, threads.ConfigFromEnv(), log)

	// Services
	log.Info("Setting up services...")
	analysisService := services.NewAnalysisService(services.AnalysisServiceDeps{
		DB:          thePG,
		Log:         log,
		Engine:      engine,
		Extractor:   extractor,
		Rotation:    rotationStore,
		Lectures:    lectureRepo,
		Threads:     threadRepo,
		Occurrences: occurrenceRepo,
		Updates:     updateRepo,
		JobRuns:     jobRunRepo,
		Neo4j:       neoClient,
		Bus:         bus,
	})

	// Worker
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := runtime.NewRegistry()
	if err := registry.Register(jobH.NewLectureAnalysis(analysisService, log)); err != nil {
		log.Error("Handler registration failed", "error", err)
		os.Exit(1)
	}
	worker.NewWorker(thePG, log, jobRunRepo, registry).Start(ctx)

	// Router
	log.Info("Setting up router...")
	srv := internalhttp.NewServer(internalhttp.RouterConfig{
		HealthHandler:   httpH.NewHealthHandler(),
		CourseHandler:   httpH.NewCourseHandler(log, courseRepo, lectureRepo),
		AnalysisHandler: httpH.NewAnalysisHandler(log, analysisService),
		JobHandler:      httpH.NewJobHandler(log, jobRunRepo),
	})

	port := envutil.String("PORT", "8080")
	log.Info("Server listening", "port", port)
	if err := srv.Run(":" + port); err != nil {
		log.Error("Server exited", "error", err)
	}

	if neoClient != nil {
		neoClient.Close(context.Background())
	}
}
