package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	courserepos "github.com/notedive/notedive-backend/internal/data/repos/courses"
	"github.com/notedive/notedive-backend/internal/domain"
	"github.com/notedive/notedive-backend/internal/http/response"
	"github.com/notedive/notedive-backend/internal/pkg/dbctx"
	"github.com/notedive/notedive-backend/internal/pkg/logger"
)

type CourseHandler struct {
	log      *logger.Logger
	courses  courserepos.CourseRepo
	lectures courserepos.LectureRepo
}

func NewCourseHandler(baseLog *logger.Logger, courses courserepos.CourseRepo, lectures courserepos.LectureRepo) *CourseHandler {
	return &CourseHandler{
		log:      baseLog.With("handler", "CourseHandler"),
		courses:  courses,
		lectures: lectures,
	}
}

type createCourseRequest struct {
	Title string `json:"title"`
}

// POST /api/courses
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	var req createCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		response.RespondError(c, http.StatusBadRequest, "missing_title", nil)
		return
	}

	dbc := dbctx.New(c.Request.Context())
	rows, err := h.courses.Create(dbc, []*domain.Course{{ID: uuid.New(), Title: req.Title}})
	if err != nil {
		h.log.Error("CreateCourse failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "create_course_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"course": rows[0]})
}

// GET /api/courses
func (h *CourseHandler) ListCourses(c *gin.Context) {
	dbc := dbctx.New(c.Request.Context())
	rows, err := h.courses.List(dbc)
	if err != nil {
		h.log.Error("ListCourses failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "list_courses_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"courses": rows})
}

type createLectureRequest struct {
	Title      string `json:"title"`
	Transcript string `json:"transcript"`
}

// POST /api/courses/:id/lectures
func (h *CourseHandler) CreateLecture(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil || courseID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_course_id", err)
		return
	}

	var req createLectureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		response.RespondError(c, http.StatusBadRequest, "missing_title", nil)
		return
	}
	if strings.TrimSpace(req.Transcript) == "" {
		response.RespondError(c, http.StatusBadRequest, "missing_transcript", nil)
		return
	}

	dbc := dbctx.New(c.Request.Context())
	course, err := h.courses.GetByID(dbc, courseID)
	if err != nil {
		h.log.Error("CreateLecture failed (load course)", "error", err, "course_id", courseID)
		response.RespondError(c, http.StatusInternalServerError, "load_course_failed", err)
		return
	}
	if course == nil {
		response.RespondError(c, http.StatusNotFound, "course_not_found", nil)
		return
	}

	rows, err := h.lectures.Create(dbc, []*domain.Lecture{{
		ID:         uuid.New(),
		CourseID:   courseID,
		Title:      req.Title,
		Transcript: req.Transcript,
		Status:     domain.LectureStatusUploaded,
	}})
	if err != nil {
		h.log.Error("CreateLecture failed", "error", err, "course_id", courseID)
		response.RespondError(c, http.StatusInternalServerError, "create_lecture_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"lecture": rows[0]})
}

// GET /api/courses/:id/lectures
func (h *CourseHandler) ListCourseLectures(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil || courseID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_course_id", err)
		return
	}
	dbc := dbctx.New(c.Request.Context())
	rows, err := h.lectures.GetByCourse(dbc, courseID)
	if err != nil {
		h.log.Error("ListCourseLectures failed", "error", err, "course_id", courseID)
		response.RespondError(c, http.StatusInternalServerError, "list_lectures_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"lectures": rows})
}
