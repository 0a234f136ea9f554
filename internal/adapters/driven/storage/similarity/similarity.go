// Package similarity ranks stored embeddings against a query vector by
// cosine similarity. It is shared by the SQLite and in-memory vector stores.
package similarity

import (
	"math"
	"sort"

	"github.com/viant/vec/search"
)

// Candidate is a ranked vector: its position in the input and its score.
type Candidate struct {
	Index int
	Score float64
}

// Cosine returns the cosine similarity of a and b. Vectors of different
// length or zero magnitude score 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	if search.Float32s(a).Magnitude() == 0 || search.Float32s(b).Magnitude() == 0 {
		return 0
	}
	return 1 - float64(search.Float32s(a).CosineDistance(b))
}

// TopK ranks vectors by cosine similarity to query and returns at most k
// candidates, highest score first. Equal scores keep input order.
// Vectors whose length differs from the query, or with zero magnitude,
// are skipped. A k of zero or less returns every candidate.
func TopK(query []float32, vectors [][]float32, k int) []Candidate {
	if len(query) == 0 || len(vectors) == 0 {
		return nil
	}
	q := search.Float32s(query)
	if q.Magnitude() == 0 {
		return nil
	}

	candidates := make([]Candidate, 0, len(vectors))
	for i, v := range vectors {
		if len(v) != len(query) {
			continue
		}
		if search.Float32s(v).Magnitude() == 0 {
			continue
		}
		score := 1 - float64(q.CosineDistance(v))
		if math.IsNaN(score) {
			continue
		}
		candidates = append(candidates, Candidate{Index: i, Score: score})
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].Score > candidates[b].Score
	})
	if k > 0 && k < len(candidates) {
		candidates = candidates[:k]
	}
	return candidates
}
