package threads

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/notedive/notedive-backend/internal/analysis"
	"github.com/notedive/notedive-backend/internal/domain"
)

type candidate struct {
	thread *domain.Thread
	sim    float64
}

// scoreCandidates computes the similarity of a descriptor against every
// existing thread of the course. Embedding cosine when the classifier
// can embed, lexical token overlap otherwise.
func (x *Extractor) scoreCandidates(ctx context.Context, desc analysis.ConceptDescriptor, existing []*domain.Thread) []candidate {
	out := make([]candidate, 0, len(existing))

	vecs, err := x.embedPair(ctx, desc, existing)
	if err == nil && vecs != nil {
		for i, t := range existing {
			out = append(out, candidate{thread: t, sim: cosine(vecs[0], vecs[i+1])})
		}
		return out
	}
	if err != nil && !errors.Is(err, analysis.ErrNoEmbedder) {
		x.log.Warn("Embedding similarity unavailable; using lexical overlap", "error", err)
	}

	for _, t := range existing {
		out = append(out, candidate{
			thread: t,
			sim:    lexicalSimilarity(desc.Title, desc.Summary, t.Title, t.Summary),
		})
	}
	return out
}

func (x *Extractor) embedPair(ctx context.Context, desc analysis.ConceptDescriptor, existing []*domain.Thread) ([][]float32, error) {
	if len(existing) == 0 {
		return nil, analysis.ErrNoEmbedder
	}
	texts := make([]string, 0, len(existing)+1)
	texts = append(texts, strings.TrimSpace(desc.Title+" "+desc.Summary))
	for _, t := range existing {
		texts = append(texts, strings.TrimSpace(t.Title+" "+t.Summary))
	}
	vecs, err := x.classifier.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(texts) {
		return nil, analysis.ErrNoEmbedder
	}
	return vecs, nil
}

// bestCandidate picks the highest-similarity thread. Ties resolve
// deterministically: greatest overlap with the course's recent lecture
// refs first, then lowest thread id. Ambiguity is never an error.
func (x *Extractor) bestCandidate(cands []candidate, recent map[uuid.UUID]struct{}) (candidate, bool) {
	var best candidate
	found := false
	for _, c := range cands {
		if c.thread == nil {
			continue
		}
		if !found {
			best, found = c, true
			continue
		}
		if c.sim > best.sim {
			best = c
			continue
		}
		if c.sim < best.sim {
			continue
		}
		co, bo := recencyOverlap(c.thread, recent), recencyOverlap(best.thread, recent)
		if co > bo {
			best = c
			continue
		}
		if co == bo && c.thread.ID.String() < best.thread.ID.String() {
			best = c
		}
	}
	return best, found
}

func recencyOverlap(t *domain.Thread, recent map[uuid.UUID]struct{}) int {
	n := 0
	for _, r := range LectureRefs(t) {
		if _, ok := recent[r]; ok {
			n++
		}
	}
	return n
}

// recentLectures collects the trailing RecentWindow lecture refs of
// every thread in the course.
func (x *Extractor) recentLectures(existing []*domain.Thread) map[uuid.UUID]struct{} {
	out := map[uuid.UUID]struct{}{}
	for _, t := range existing {
		refs := LectureRefs(t)
		start := len(refs) - x.cfg.RecentWindow
		if start < 0 {
			start = 0
		}
		for _, r := range refs[start:] {
			out[r] = struct{}{}
		}
	}
	return out
}
