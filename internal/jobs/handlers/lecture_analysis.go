package handlers

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/notedive/notedive-backend/internal/domain"
	"github.com/notedive/notedive-backend/internal/jobs/runtime"
	"github.com/notedive/notedive-backend/internal/pkg/logger"
	"github.com/notedive/notedive-backend/internal/services"
)

// LectureAnalysis runs the full analysis pipeline for one lecture on
// the worker pool. The lecture is taken from the payload's lecture_id
// or, failing that, from the job's entity reference.
type LectureAnalysis struct {
	svc services.AnalysisService
	log *logger.Logger
}

func NewLectureAnalysis(svc services.AnalysisService, baseLog *logger.Logger) *LectureAnalysis {
	return &LectureAnalysis{svc: svc, log: baseLog.With("handler", domain.JobTypeLectureAnalysis)}
}

func (h *LectureAnalysis) Type() string { return domain.JobTypeLectureAnalysis }

func (h *LectureAnalysis) Run(jc *runtime.Context) error {
	lectureID, ok := jc.PayloadUUID("lecture_id")
	if !ok && jc.Job != nil && jc.Job.EntityID != nil {
		lectureID = *jc.Job.EntityID
		ok = lectureID != uuid.Nil
	}
	if !ok {
		err := fmt.Errorf("missing lecture_id")
		jc.Fail("validate", err)
		return err
	}

	safeMode := false
	if v, found := jc.Payload()["safe_mode"].(bool); found {
		safeMode = v
	}

	jc.Heartbeat()
	if err := h.svc.AnalyzeLecture(jc.Ctx, lectureID, safeMode); err != nil {
		jc.Fail("analyze", err)
		return err
	}
	jc.Succeed("analyze")
	return nil
}
