package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/notedive/notedive-backend/internal/pkg/logger"
	"github.com/notedive/notedive-backend/internal/platform/openai"
)

var facetQuestions = map[Facet]string{
	FacetHow:   "mechanisms, procedures, methods: how things work or are done",
	FacetWhat:  "definitions, identities, core claims: what things are",
	FacetWhen:  "temporal context, sequences, historical placement: when things happen",
	FacetWhere: "spatial/structural context, domains of application: where things hold",
	FacetWho:   "people, agents, institutions: who acts or is affected",
	FacetWhy:   "causes, motivations, justifications: why things are the way they are",
}

// OpenAIClassifier adapts the OpenAI client to the FacetClassifier
// capability. All prompts use strict json_schema outputs.
type OpenAIClassifier struct {
	ai  openai.Client
	log *logger.Logger
}

func NewOpenAIClassifier(ai openai.Client, log *logger.Logger) *OpenAIClassifier {
	return &OpenAIClassifier{ai: ai, log: log.With("component", "OpenAIClassifier")}
}

var _ FacetClassifier = (*OpenAIClassifier)(nil)

func (c *OpenAIClassifier) Classify(ctx context.Context, segment string, facet Facet, contextHint string) (FacetSignal, error) {
	sys := "You score lecture transcript content against one analytical lens. " +
		"Return how strongly the content speaks to the lens (0 = not at all, 1 = dominant theme) " +
		"and up to 5 short verbatim evidence snippets, most relevant first."
	usr := fmt.Sprintf("Lens: %s (%s)\n", facet, facetQuestions[facet])
	if strings.TrimSpace(contextHint) != "" {
		usr += "Context: " + contextHint + "\n"
	}
	usr += "Transcript:\n" + segment

	obj, err := c.ai.GenerateJSON(ctx, sys, usr, "facet_signal_v1", map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"score", "snippets"},
		"properties": map[string]any{
			"score": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
			"snippets": map[string]any{
				"type":     "array",
				"maxItems": 5,
				"items":    map[string]any{"type": "string"},
			},
		},
	})
	if err != nil {
		return FacetSignal{}, err
	}
	return FacetSignal{
		Score:    floatFromAny(obj["score"]),
		Snippets: stringsFromAny(obj["snippets"]),
	}, nil
}

func (c *OpenAIClassifier) SummarizeConcepts(ctx context.Context, facet Facet, snippets []string) ([]ConceptDescriptor, error) {
	sys := "You distill lecture evidence snippets into distinct concepts. " +
		"Each concept gets a short title, a one-paragraph summary of what the lecture asserts about it, " +
		"and a confidence in [0,1]. Merge snippets describing the same concept; strongest concept first."
	usr := fmt.Sprintf("Lens: %s (%s)\nSnippets:\n- %s",
		facet, facetQuestions[facet], strings.Join(snippets, "\n- "))

	obj, err := c.ai.GenerateJSON(ctx, sys, usr, "concept_summaries_v1", map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"concepts"},
		"properties": map[string]any{
			"concepts": map[string]any{
				"type":     "array",
				"maxItems": 4,
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []string{"title", "summary", "confidence"},
					"properties": map[string]any{
						"title":      map[string]any{"type": "string"},
						"summary":    map[string]any{"type": "string"},
						"confidence": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
					},
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	rawList, _ := obj["concepts"].([]any)
	out := make([]ConceptDescriptor, 0, len(rawList))
	for _, raw := range rawList {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		d := ConceptDescriptor{
			Title:      strings.TrimSpace(stringFromAny(m["title"])),
			Summary:    strings.TrimSpace(stringFromAny(m["summary"])),
			Confidence: floatFromAny(m["confidence"]),
		}
		if d.Title == "" {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (c *OpenAIClassifier) CompareSummaries(ctx context.Context, existing, incoming string) (EvolutionVerdict, error) {
	sys := "You compare a tracked concept's stored summary against new lecture evidence. " +
		"Judge each independently: contradiction (the new statement is incompatible with the stored one), " +
		"refinement (clarifies or sharpens without conflict), " +
		"complexity (introduces a materially new sub-aspect). " +
		"Pure repetition sets none of the three. Give a one-sentence summary of the change and short detail bullets."
	usr := "Stored summary:\n" + existing + "\n\nNew evidence:\n" + incoming

	obj, err := c.ai.GenerateJSON(ctx, sys, usr, "evolution_verdict_v1", map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"contradiction", "refinement", "complexity", "summary", "details"},
		"properties": map[string]any{
			"contradiction": map[string]any{"type": "boolean"},
			"refinement":    map[string]any{"type": "boolean"},
			"complexity":    map[string]any{"type": "boolean"},
			"summary":       map[string]any{"type": "string"},
			"details": map[string]any{
				"type":     "array",
				"maxItems": 6,
				"items":    map[string]any{"type": "string"},
			},
		},
	})
	if err != nil {
		return EvolutionVerdict{}, err
	}
	return EvolutionVerdict{
		Contradiction: boolFromAny(obj["contradiction"]),
		Refinement:    boolFromAny(obj["refinement"]),
		Complexity:    boolFromAny(obj["complexity"]),
		Summary:       strings.TrimSpace(stringFromAny(obj["summary"])),
		Details:       stringsFromAny(obj["details"]),
	}, nil
}

func (c *OpenAIClassifier) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return c.ai.Embed(ctx, texts)
}

func stringFromAny(v any) string {
	s, _ := v.(string)
	return s
}

func boolFromAny(v any) bool {
	b, _ := v.(bool)
	return b
}

func floatFromAny(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	}
	return 0
}

func stringsFromAny(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}
