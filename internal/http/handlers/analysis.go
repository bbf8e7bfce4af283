package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/notedive/notedive-backend/internal/http/response"
	"github.com/notedive/notedive-backend/internal/pkg/apierr"
	"github.com/notedive/notedive-backend/internal/pkg/logger"
	"github.com/notedive/notedive-backend/internal/services"
)

// respondServiceError maps typed service errors onto HTTP statuses,
// defaulting to 500.
func respondServiceError(c *gin.Context, fallbackCode string, err error) {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		response.RespondError(c, ae.Status, ae.Code, ae)
		return
	}
	response.RespondError(c, http.StatusInternalServerError, fallbackCode, err)
}

type AnalysisHandler struct {
	log *logger.Logger
	svc services.AnalysisService
}

func NewAnalysisHandler(baseLog *logger.Logger, svc services.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{
		log: baseLog.With("handler", "AnalysisHandler"),
		svc: svc,
	}
}

// POST /api/lectures/:id/analyze
func (h *AnalysisHandler) EnqueueAnalysis(c *gin.Context) {
	lectureID, err := uuid.Parse(c.Param("id"))
	if err != nil || lectureID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_lecture_id", err)
		return
	}

	job, err := h.svc.EnqueueAnalysis(c.Request.Context(), lectureID)
	if err != nil {
		h.log.Error("EnqueueAnalysis failed", "error", err, "lecture_id", lectureID)
		respondServiceError(c, "enqueue_analysis_failed", err)
		return
	}
	if job == nil {
		// A runnable job already exists; re-enqueueing would duplicate work.
		response.RespondOK(c, gin.H{"enqueued": false})
		return
	}
	response.RespondOK(c, gin.H{"enqueued": true, "job": job})
}

// GET /api/lectures/:id/rotation
func (h *AnalysisHandler) GetRotationState(c *gin.Context) {
	lectureID, err := uuid.Parse(c.Param("id"))
	if err != nil || lectureID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_lecture_id", err)
		return
	}

	st, err := h.svc.GetRotationState(c.Request.Context(), lectureID)
	if err != nil {
		h.log.Error("GetRotationState failed", "error", err, "lecture_id", lectureID)
		response.RespondError(c, http.StatusInternalServerError, "load_rotation_state_failed", err)
		return
	}
	if st == nil {
		response.RespondOK(c, gin.H{"has_rotation_state": false})
		return
	}
	response.RespondOK(c, gin.H{
		"has_rotation_state": true,
		"rotation_state": gin.H{
			"status":               st.Status,
			"iterations_completed": st.IterationsCompleted,
			"dominant_facet":       st.DominantFacet,
			"dominant_score":       st.DominantScore,
			"full_state":           st,
		},
	})
}

// GET /api/courses/:id/threads
func (h *AnalysisHandler) ListCourseThreads(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil || courseID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_course_id", err)
		return
	}

	rows, err := h.svc.ListCourseThreads(c.Request.Context(), courseID)
	if err != nil {
		h.log.Error("ListCourseThreads failed", "error", err, "course_id", courseID)
		response.RespondError(c, http.StatusInternalServerError, "list_threads_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"threads": rows})
}

// GET /api/threads/:id
func (h *AnalysisHandler) GetThread(c *gin.Context) {
	threadID, err := uuid.Parse(c.Param("id"))
	if err != nil || threadID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_thread_id", err)
		return
	}

	detail, err := h.svc.GetThread(c.Request.Context(), threadID)
	if err != nil {
		h.log.Error("GetThread failed", "error", err, "thread_id", threadID)
		response.RespondError(c, http.StatusInternalServerError, "load_thread_failed", err)
		return
	}
	if detail == nil {
		response.RespondError(c, http.StatusNotFound, "thread_not_found", nil)
		return
	}
	response.RespondOK(c, detail)
}
