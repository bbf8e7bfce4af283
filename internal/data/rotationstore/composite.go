package rotationstore

import (
	"context"

	"github.com/google/uuid"

	"github.com/notedive/notedive-backend/internal/analysis"
	"github.com/notedive/notedive-backend/internal/pkg/logger"
)

// Composite fronts the Redis hot copy with the Postgres trace row.
// Reads prefer Redis; a miss falls through to Postgres so expired keys
// still resume correctly. Writes go to both; the write fails only when
// both sides fail, since either copy is a valid checkpoint.
type Composite struct {
	hot   analysis.StateStore
	trace analysis.StateStore
	log   *logger.Logger
}

func NewComposite(hot, trace analysis.StateStore, log *logger.Logger) *Composite {
	return &Composite{hot: hot, trace: trace, log: log.With("store", "RotationComposite")}
}

var _ analysis.StateStore = (*Composite)(nil)

func (c *Composite) Read(ctx context.Context, lectureID uuid.UUID) (*analysis.RotationState, error) {
	if c.hot != nil {
		st, err := c.hot.Read(ctx, lectureID)
		if err == nil && st != nil {
			return st, nil
		}
		if err != nil {
			c.log.Warn("Hot rotation store read failed; falling back to trace",
				"lecture_id", lectureID, "error", err)
		}
	}
	if c.trace == nil {
		return nil, nil
	}
	return c.trace.Read(ctx, lectureID)
}

func (c *Composite) Write(ctx context.Context, lectureID uuid.UUID, state *analysis.RotationState) error {
	var hotErr, traceErr error
	if c.hot != nil {
		hotErr = c.hot.Write(ctx, lectureID, state)
		if hotErr != nil {
			c.log.Warn("Hot rotation store write failed",
				"lecture_id", lectureID, "error", hotErr)
		}
	}
	if c.trace != nil {
		traceErr = c.trace.Write(ctx, lectureID, state)
		if traceErr != nil {
			c.log.Warn("Trace rotation store write failed",
				"lecture_id", lectureID, "error", traceErr)
		}
	}
	if c.hot != nil && c.trace != nil && hotErr != nil && traceErr != nil {
		return hotErr
	}
	if c.hot == nil && traceErr != nil {
		return traceErr
	}
	if c.trace == nil && hotErr != nil {
		return hotErr
	}
	return nil
}
