package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/notedive/notedive-backend/internal/analysis"
	"github.com/notedive/notedive-backend/internal/domain"
	"github.com/notedive/notedive-backend/internal/pkg/logger"
	"github.com/notedive/notedive-backend/internal/services"
)

type stubAnalysisService struct {
	state   *analysis.RotationState
	job     *domain.JobRun
	threads []*domain.Thread
	detail  *services.ThreadDetail
}

func (s *stubAnalysisService) AnalyzeLecture(context.Context, uuid.UUID, bool) error { return nil }

func (s *stubAnalysisService) EnqueueAnalysis(context.Context, uuid.UUID) (*domain.JobRun, error) {
	return s.job, nil
}

func (s *stubAnalysisService) GetRotationState(context.Context, uuid.UUID) (*analysis.RotationState, error) {
	return s.state, nil
}

func (s *stubAnalysisService) ListCourseThreads(context.Context, uuid.UUID) ([]*domain.Thread, error) {
	return s.threads, nil
}

func (s *stubAnalysisService) GetThread(context.Context, uuid.UUID) (*services.ThreadDetail, error) {
	return s.detail, nil
}

func rotationRouter(svc services.AnalysisService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewAnalysisHandler(logger.NewNop(), svc)
	r.GET("/api/lectures/:id/rotation", h.GetRotationState)
	r.POST("/api/lectures/:id/analyze", h.EnqueueAnalysis)
	r.GET("/api/threads/:id", h.GetThread)
	return r
}

func TestGetRotationState_MissingState(t *testing.T) {
	r := rotationRouter(&stubAnalysisService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/lectures/"+uuid.NewString()+"/rotation", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if has, _ := body["has_rotation_state"].(bool); has {
		t.Fatalf("missing state must report has_rotation_state=false: %v", body)
	}
}

func TestGetRotationState_ShapesTerminalState(t *testing.T) {
	lectureID := uuid.New()
	st := analysis.NewRotationState(lectureID, analysis.BuildSchedule(6, 3))
	st.Status = analysis.StatusCollapsed
	st.IterationsCompleted = 2
	facet := analysis.FacetWhat
	score := 0.64
	st.DominantFacet = &facet
	st.DominantScore = &score

	r := rotationRouter(&stubAnalysisService{state: st})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/lectures/"+lectureID.String()+"/rotation", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", w.Code)
	}
	var body struct {
		Has   bool `json:"has_rotation_state"`
		State struct {
			Status              string   `json:"status"`
			IterationsCompleted int      `json:"iterations_completed"`
			DominantFacet       *string  `json:"dominant_facet"`
			DominantScore       *float64 `json:"dominant_score"`
		} `json:"rotation_state"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !body.Has {
		t.Fatalf("has_rotation_state false for present state")
	}
	if body.State.Status != analysis.StatusCollapsed || body.State.IterationsCompleted != 2 {
		t.Fatalf("state shape wrong: %+v", body.State)
	}
	if body.State.DominantFacet == nil || *body.State.DominantFacet != "WHAT" {
		t.Fatalf("dominant facet %v, want WHAT", body.State.DominantFacet)
	}
	if body.State.DominantScore == nil || *body.State.DominantScore != 0.64 {
		t.Fatalf("dominant score %v, want 0.64", body.State.DominantScore)
	}
}

func TestGetRotationState_InvalidID(t *testing.T) {
	r := rotationRouter(&stubAnalysisService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/lectures/not-a-uuid/rotation", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", w.Code)
	}
}

func TestEnqueueAnalysis_AlreadyQueued(t *testing.T) {
	r := rotationRouter(&stubAnalysisService{job: nil})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/lectures/"+uuid.NewString()+"/analyze", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if enq, _ := body["enqueued"].(bool); enq {
		t.Fatalf("duplicate enqueue must report enqueued=false")
	}
}

func TestGetThread_NotFound(t *testing.T) {
	r := rotationRouter(&stubAnalysisService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/threads/"+uuid.NewString(), nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", w.Code)
	}
}
