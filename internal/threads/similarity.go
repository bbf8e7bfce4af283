package threads

import (
	"math"
	"regexp"
	"strings"
)

var wordRE = regexp.MustCompile(`[a-z0-9]+`)

// tokensOf lowercases, strips punctuation, and drops trivial words so
// lexical similarity compares content terms only.
func tokensOf(text string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, w := range wordRE.FindAllString(strings.ToLower(text), -1) {
		if len(w) < 3 {
			continue
		}
		if stopwords[w] {
			continue
		}
		out[w] = struct{}{}
	}
	return out
}

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "with": true,
	"that": true, "this": true, "from": true, "was": true, "were": true,
	"has": true, "have": true, "its": true, "but": true, "not": true,
	"can": true, "into": true, "about": true, "which": true, "when": true,
	"how": true, "what": true, "where": true, "who": true, "why": true,
}

// lexicalSimilarity is Jaccard overlap of the content tokens of
// title+summary. Deterministic; the fallback when no embedder is
// configured and the path the engine's tests run on.
func lexicalSimilarity(aTitle, aSummary, bTitle, bSummary string) float64 {
	a := tokensOf(aTitle + " " + aSummary)
	b := tokensOf(bTitle + " " + bSummary)
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
