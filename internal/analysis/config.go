package analysis

import (
	"time"

	"github.com/notedive/notedive-backend/internal/pkg/envutil"
)

// Config carries the fixed numeric knobs of the rotation engine. The
// defaults are the documented system constants; env overrides exist for
// operational tuning, not per-request behavior.
type Config struct {
	// RoundBudget is the hard cap on rounds per lecture.
	RoundBudget int
	// SubsetSize is how many facets are scored per round.
	// SafeSubsetSize applies in safe mode to bound external-call cost.
	SubsetSize     int
	SafeSubsetSize int
	// BlendAlpha weighs the newest round in the running average.
	BlendAlpha float64
	// ConvergenceGap: equilibrium gap below this means converged.
	ConvergenceGap float64
	// CollapseCeiling: a normalized score above this for
	// CollapseRounds consecutive rounds means collapsed.
	CollapseCeiling float64
	CollapseRounds  int
	// MaxSnippets bounds evidence kept per facet.
	MaxSnippets int

	CallTimeout     time.Duration
	MaxRetries      int
	RetryBackoff    time.Duration
	FanOut          int
	WallClockBudget time.Duration
}

func DefaultConfig() Config {
	return Config{
		RoundBudget:     6,
		SubsetSize:      3,
		SafeSubsetSize:  2,
		BlendAlpha:      0.35,
		ConvergenceGap:  0.05,
		CollapseCeiling: 0.60,
		CollapseRounds:  2,
		MaxSnippets:     8,
		CallTimeout:     20 * time.Second,
		MaxRetries:      2,
		RetryBackoff:    400 * time.Millisecond,
		FanOut:          3,
		WallClockBudget: 5 * time.Minute,
	}
}

// ConfigFromEnv starts from the defaults and applies env overrides.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.RoundBudget = envutil.Int("ROTATION_ROUND_BUDGET", cfg.RoundBudget)
	cfg.SubsetSize = envutil.Int("ROTATION_SUBSET_SIZE", cfg.SubsetSize)
	cfg.SafeSubsetSize = envutil.Int("ROTATION_SAFE_SUBSET_SIZE", cfg.SafeSubsetSize)
	cfg.BlendAlpha = envutil.Float("ROTATION_BLEND_ALPHA", cfg.BlendAlpha)
	cfg.ConvergenceGap = envutil.Float("ROTATION_CONVERGENCE_GAP", cfg.ConvergenceGap)
	cfg.CollapseCeiling = envutil.Float("ROTATION_COLLAPSE_CEILING", cfg.CollapseCeiling)
	cfg.CollapseRounds = envutil.Int("ROTATION_COLLAPSE_ROUNDS", cfg.CollapseRounds)
	cfg.MaxSnippets = envutil.Int("ROTATION_MAX_SNIPPETS", cfg.MaxSnippets)
	cfg.CallTimeout = time.Duration(envutil.Int("ROTATION_CALL_TIMEOUT_MS", int(cfg.CallTimeout/time.Millisecond))) * time.Millisecond
	cfg.MaxRetries = envutil.Int("ROTATION_MAX_RETRIES", cfg.MaxRetries)
	cfg.RetryBackoff = time.Duration(envutil.Int("ROTATION_RETRY_BACKOFF_MS", int(cfg.RetryBackoff/time.Millisecond))) * time.Millisecond
	cfg.FanOut = envutil.Int("ROTATION_FAN_OUT", cfg.FanOut)
	cfg.WallClockBudget = time.Duration(envutil.Int("ROTATION_WALL_CLOCK_BUDGET_MS", int(cfg.WallClockBudget/time.Millisecond))) * time.Millisecond
	return cfg.normalized()
}

func (c Config) normalized() Config {
	if c.RoundBudget < 1 {
		c.RoundBudget = 1
	}
	if c.SubsetSize < 1 {
		c.SubsetSize = 1
	}
	if c.SubsetSize > FacetCount {
		c.SubsetSize = FacetCount
	}
	if c.SafeSubsetSize < 1 {
		c.SafeSubsetSize = 1
	}
	if c.SafeSubsetSize > c.SubsetSize {
		c.SafeSubsetSize = c.SubsetSize
	}
	if c.BlendAlpha <= 0 || c.BlendAlpha > 1 {
		c.BlendAlpha = DefaultConfig().BlendAlpha
	}
	if c.CollapseRounds < 1 {
		c.CollapseRounds = 1
	}
	if c.FanOut < 1 {
		c.FanOut = 1
	}
	if c.MaxSnippets < 1 {
		c.MaxSnippets = 1
	}
	return c
}
