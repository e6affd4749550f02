package skills

import (
	"context"
	"strings"
)

// Similarity scores how alike two normalized skills are, in [0, 1]
type Similarity interface {
	Similarity(ctx context.Context, a, b string) (float64, error)
}

// SimilarityFunc adapts a plain function to Similarity
type SimilarityFunc func(ctx context.Context, a, b string) (float64, error)

func (f SimilarityFunc) Similarity(ctx context.Context, a, b string) (float64, error) {
	return f(ctx, a, b)
}

// TrigramSimilarity is the Dice coefficient over padded character trigrams.
// It needs no model and is fully deterministic.
type TrigramSimilarity struct{}

func (TrigramSimilarity) Similarity(_ context.Context, a, b string) (float64, error) {
	ta, tb := trigrams(a), trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0, nil
	}
	shared := 0
	for g := range ta {
		if _, ok := tb[g]; ok {
			shared++
		}
	}
	return 2 * float64(shared) / float64(len(ta)+len(tb)), nil
}

func trigrams(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, word := range strings.Fields(strings.ToLower(s)) {
		runes := []rune("  " + word + " ")
		for i := 0; i+3 <= len(runes); i++ {
			set[string(runes[i:i+3])] = struct{}{}
		}
	}
	return set
}
