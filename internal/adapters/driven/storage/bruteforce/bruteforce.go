// Package bruteforce ranks vectors by exact cosine similarity.
// It backs the in-memory and SQLite vector indexes, which scan a whole
// namespace per query.
package bruteforce

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// Candidate is one stored vector considered by Rank.
type Candidate struct {
	ContentID string
	Vector    []float32
	Metadata  map[string]string
}

// Rank returns the top k candidates by cosine similarity to query, score
// descending with ties broken by ascending content ID. Zero vectors never match.
func Rank(query []float32, candidates []Candidate, k int) ([]domain.VectorMatch, error) {
	qm := Magnitude(query)
	if qm == 0 || k <= 0 {
		return []domain.VectorMatch{}, nil
	}

	matches := make([]domain.VectorMatch, 0, len(candidates))
	for _, c := range candidates {
		if len(c.Vector) != len(query) {
			return nil, fmt.Errorf("%w: stored %d, query %d",
				domain.ErrDimensionMismatch, len(c.Vector), len(query))
		}
		m := Magnitude(c.Vector)
		if m == 0 {
			continue
		}
		score := dot(query, c.Vector) / (qm * m)
		if math.IsNaN(score) {
			continue
		}
		matches = append(matches, domain.VectorMatch{
			ContentID: c.ContentID,
			Score:     score,
			Metadata:  c.Metadata,
		})
	}

	sort.Slice(matches, func(a, b int) bool {
		if matches[a].Score != matches[b].Score {
			return matches[a].Score > matches[b].Score
		}
		return matches[a].ContentID < matches[b].ContentID
	})
	if k < len(matches) {
		matches = matches[:k]
	}
	return matches, nil
}

// Cosine returns the cosine similarity of two equal-length vectors.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", domain.ErrDimensionMismatch, len(a), len(b))
	}
	ma, mb := Magnitude(a), Magnitude(b)
	if ma == 0 || mb == 0 {
		return 0, nil
	}
	return dot(a, b) / (ma * mb), nil
}

// Magnitude returns the Euclidean norm of v.
func Magnitude(v []float32) float64 {
	return math.Sqrt(dot(v, v))
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

// Encode converts a vector to little-endian float32 bytes.
func Encode(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// Decode converts little-endian float32 bytes back to a vector.
func Decode(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}
