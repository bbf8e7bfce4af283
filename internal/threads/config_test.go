package threads

import "testing"

func TestConfigNormalized_ClampsBadValues(t *testing.T) {
	cfg := Config{
		MatchThreshold:      1.5,
		RelatedThreshold:    -0.2,
		SignificanceMin:     -1,
		ComplexityThreshold: 0,
		RecentWindow:        0,
	}.normalized()

	def := DefaultConfig()
	if cfg.MatchThreshold != def.MatchThreshold {
		t.Fatalf("MatchThreshold %v, want default", cfg.MatchThreshold)
	}
	if cfg.RelatedThreshold != def.RelatedThreshold {
		t.Fatalf("RelatedThreshold %v, want default", cfg.RelatedThreshold)
	}
	if cfg.SignificanceMin != 0 || cfg.ComplexityThreshold != 1 || cfg.RecentWindow != 1 {
		t.Fatalf("lower bounds not applied: %+v", cfg)
	}
}

func TestConfigNormalized_RelatedMustStayBelowMatch(t *testing.T) {
	cfg := Config{
		MatchThreshold:      0.5,
		RelatedThreshold:    0.9,
		SignificanceMin:     2,
		ComplexityThreshold: 3,
		RecentWindow:        3,
	}.normalized()
	if cfg.RelatedThreshold >= cfg.MatchThreshold {
		t.Fatalf("related %v must sit below match %v", cfg.RelatedThreshold, cfg.MatchThreshold)
	}
}
