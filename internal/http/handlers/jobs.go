package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	jobrepos "github.com/notedive/notedive-backend/internal/data/repos/jobs"
	"github.com/notedive/notedive-backend/internal/http/response"
	"github.com/notedive/notedive-backend/internal/pkg/dbctx"
	"github.com/notedive/notedive-backend/internal/pkg/logger"
)

type JobHandler struct {
	log     *logger.Logger
	jobRuns jobrepos.JobRunRepo
}

func NewJobHandler(baseLog *logger.Logger, jobRuns jobrepos.JobRunRepo) *JobHandler {
	return &JobHandler{
		log:     baseLog.With("handler", "JobHandler"),
		jobRuns: jobRuns,
	}
}

// GET /api/jobs/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil || jobID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return
	}

	job, err := h.jobRuns.GetByID(dbctx.New(c.Request.Context()), jobID)
	if err != nil {
		h.log.Error("GetJob failed", "error", err, "job_id", jobID)
		response.RespondError(c, http.StatusInternalServerError, "load_job_failed", err)
		return
	}
	if job == nil {
		response.RespondError(c, http.StatusNotFound, "job_not_found", nil)
		return
	}
	response.RespondOK(c, gin.H{"job": job})
}
