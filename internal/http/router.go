package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/notedive/notedive-backend/internal/http/handlers"
	httpMW "github.com/notedive/notedive-backend/internal/http/middleware"
)

type RouterConfig struct {
	HealthHandler   *httpH.HealthHandler
	CourseHandler   *httpH.CourseHandler
	AnalysisHandler *httpH.AnalysisHandler
	JobHandler      *httpH.JobHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.Default()
	r.Use(httpMW.CORS())

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		if cfg.CourseHandler != nil {
			api.POST("/courses", cfg.CourseHandler.CreateCourse)
			api.GET("/courses", cfg.CourseHandler.ListCourses)
			api.POST("/courses/:id/lectures", cfg.CourseHandler.CreateLecture)
			api.GET("/courses/:id/lectures", cfg.CourseHandler.ListCourseLectures)
		}

		if cfg.AnalysisHandler != nil {
			api.POST("/lectures/:id/analyze", cfg.AnalysisHandler.EnqueueAnalysis)
			api.GET("/lectures/:id/rotation", cfg.AnalysisHandler.GetRotationState)
			api.GET("/courses/:id/threads", cfg.AnalysisHandler.ListCourseThreads)
			api.GET("/threads/:id", cfg.AnalysisHandler.GetThread)
		}

		if cfg.JobHandler != nil {
			api.GET("/jobs/:id", cfg.JobHandler.GetJob)
		}
	}

	return r
}
