package analysis

import "context"

// ConceptDescriptor is the classifier's distillation of facet evidence
// into one candidate concept.
type ConceptDescriptor struct {
	Title      string  `json:"title"`
	Summary    string  `json:"summary"`
	Confidence float64 `json:"confidence"`
}

// EvolutionVerdict is the classifier's comparison of a thread's stored
// summary against newly arriving evidence. Any combination of flags may
// be set; precedence is resolved by the caller.
type EvolutionVerdict struct {
	Contradiction bool     `json:"contradiction"`
	Refinement    bool     `json:"refinement"`
	Complexity    bool     `json:"complexity"`
	Summary       string   `json:"summary"`
	Details       []string `json:"details"`
}

// FacetClassifier is the injected scoring capability. The engine is
// agnostic to its transport or model; it only assumes the capability
// can be slow or fail. Deterministic stubs implement it in tests.
type FacetClassifier interface {
	// Classify scores one facet against a transcript segment.
	Classify(ctx context.Context, segment string, facet Facet, contextHint string) (FacetSignal, error)

	// SummarizeConcepts turns one facet's evidence snippets into
	// concept descriptors, strongest first.
	SummarizeConcepts(ctx context.Context, facet Facet, snippets []string) ([]ConceptDescriptor, error)

	// CompareSummaries judges how an incoming summary relates to a
	// thread's stored one.
	CompareSummaries(ctx context.Context, existing, incoming string) (EvolutionVerdict, error)

	// Embed returns one vector per input text, or ErrNoEmbedder when
	// the capability has no embedding surface. Callers fall back to
	// lexical similarity.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
