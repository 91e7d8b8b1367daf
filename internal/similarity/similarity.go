// Package similarity implements the vector-similarity core shared by the
// answer cache and the retrieval index. It is pure and stateless: every
// function is deterministic given its inputs and touches no I/O, which keeps
// the matching policy unit-testable without an embedding provider.
package similarity

import (
	"math"
	"sort"
)

// Candidate pairs an opaque identifier with its embedding vector.
type Candidate struct {
	ID     string
	Vector []float64
}

// Ranked is a candidate ID with its similarity score against a query vector.
type Ranked struct {
	ID    string
	Score float64
}

// Cosine returns the cosine similarity between two vectors, in [-1, 1].
// Mismatched lengths or a zero-magnitude vector yield 0 rather than an
// error; degenerate inputs must never fail a search.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Rank scores every candidate against the query vector and returns them
// ordered by descending score. The sort is stable: candidates with equal
// scores keep their insertion order, so near-duplicate matches resolve
// deterministically to the earliest one.
func Rank(query []float64, candidates []Candidate) []Ranked {
	ranked := make([]Ranked, len(candidates))
	for i, c := range candidates {
		ranked[i] = Ranked{ID: c.ID, Score: Cosine(query, c.Vector)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// Top returns the first k entries of an already-ranked slice, or the whole
// slice when fewer than k exist.
func Top(ranked []Ranked, k int) []Ranked {
	if k < 0 {
		k = 0
	}
	if k > len(ranked) {
		k = len(ranked)
	}
	return ranked[:k]
}
