package threads

import "github.com/notedive/notedive-backend/internal/pkg/envutil"

type Config struct {
	// MatchThreshold: best similarity at or above this treats a
	// descriptor as a touch of the existing thread.
	MatchThreshold float64
	// RelatedThreshold: below match but at or above this, the closest
	// thread becomes the new thread's parent.
	RelatedThreshold float64
	// SignificanceMin: facets with fewer evidence sources are skipped.
	SignificanceMin int
	// ComplexityThreshold: complexity level at which a thread flips
	// foundational -> advanced, exactly once.
	ComplexityThreshold int
	// RecentWindow: how many trailing lecture refs per thread count as
	// "recent" for the match tie-break.
	RecentWindow int
}

func DefaultConfig() Config {
	return Config{
		MatchThreshold:      0.62,
		RelatedThreshold:    0.35,
		SignificanceMin:     2,
		ComplexityThreshold: 3,
		RecentWindow:        3,
	}
}

func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.MatchThreshold = envutil.Float("THREAD_MATCH_THRESHOLD", cfg.MatchThreshold)
	cfg.RelatedThreshold = envutil.Float("THREAD_RELATED_THRESHOLD", cfg.RelatedThreshold)
	cfg.SignificanceMin = envutil.Int("THREAD_SIGNIFICANCE_MIN", cfg.SignificanceMin)
	cfg.ComplexityThreshold = envutil.Int("THREAD_COMPLEXITY_THRESHOLD", cfg.ComplexityThreshold)
	cfg.RecentWindow = envutil.Int("THREAD_RECENT_WINDOW", cfg.RecentWindow)
	return cfg.normalized()
}

func (c Config) normalized() Config {
	if c.MatchThreshold <= 0 || c.MatchThreshold > 1 {
		c.MatchThreshold = DefaultConfig().MatchThreshold
	}
	if c.RelatedThreshold < 0 || c.RelatedThreshold >= c.MatchThreshold {
		c.RelatedThreshold = DefaultConfig().RelatedThreshold
	}
	if c.SignificanceMin < 0 {
		c.SignificanceMin = 0
	}
	if c.ComplexityThreshold < 1 {
		c.ComplexityThreshold = 1
	}
	if c.RecentWindow < 1 {
		c.RecentWindow = 1
	}
	return c
}
