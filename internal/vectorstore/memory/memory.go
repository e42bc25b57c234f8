package memory

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"pdfqa/internal/domain"
)

// Entry pairs a chunk with its embedding.
type Entry struct {
	Chunk  domain.Chunk
	Vector []float32
}

// Index is an immutable brute-force cosine similarity index. It is safe for
// concurrent readers because nothing mutates it after Build.
type Index struct {
	dimension int
	chunks    []domain.Chunk
	vectors   [][]float32
	norms     []float64
	sources   []string
}

// Build copies entries into a new index. All vectors must share one
// non-zero dimension; an empty entry list yields an empty index.
func Build(entries []Entry) (*Index, error) {
	idx := &Index{
		chunks:  make([]domain.Chunk, len(entries)),
		vectors: make([][]float32, len(entries)),
		norms:   make([]float64, len(entries)),
	}
	seen := make(map[string]struct{})
	for i, e := range entries {
		if len(e.Vector) == 0 {
			return nil, errors.New("empty vector")
		}
		if idx.dimension == 0 {
			idx.dimension = len(e.Vector)
		} else if len(e.Vector) != idx.dimension {
			return nil, fmt.Errorf("vector dimension mismatch at entry %d: got %d, want %d", i, len(e.Vector), idx.dimension)
		}
		v := make([]float32, len(e.Vector))
		copy(v, e.Vector)
		idx.chunks[i] = e.Chunk
		idx.vectors[i] = v
		idx.norms[i] = norm(v)
		if _, ok := seen[e.Chunk.Source]; !ok {
			seen[e.Chunk.Source] = struct{}{}
			idx.sources = append(idx.sources, e.Chunk.Source)
		}
	}
	return idx, nil
}

// Len returns the number of indexed chunks.
func (s *Index) Len() int { return len(s.chunks) }

// Dimension returns the vector size, or 0 for an empty index.
func (s *Index) Dimension() int { return s.dimension }

// Sources lists distinct chunk sources in insertion order.
func (s *Index) Sources() []string {
	out := make([]string, len(s.sources))
	copy(out, s.sources)
	return out
}

// Search returns at most topK chunks by descending cosine similarity. Equal
// scores keep insertion order. A zero or wrongly sized query scores 0
// against everything.
func (s *Index) Search(vector []float32, topK int) []domain.SearchResult {
	if topK <= 0 || len(s.chunks) == 0 {
		return []domain.SearchResult{}
	}
	qnorm := norm(vector)
	scores := make([]float64, len(s.vectors))
	for i := range s.vectors {
		scores[i] = cosine(s.vectors[i], s.norms[i], vector, qnorm)
	}
	idxs := make([]int, len(scores))
	for i := range idxs {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(a, b int) bool { return scores[idxs[a]] > scores[idxs[b]] })
	if topK > len(idxs) {
		topK = len(idxs)
	}
	results := make([]domain.SearchResult, 0, topK)
	for _, j := range idxs[:topK] {
		results = append(results, domain.SearchResult{Chunk: s.chunks[j], Score: scores[j]})
	}
	return results
}

func cosine(a []float32, anorm float64, b []float32, bnorm float64) float64 {
	if len(a) != len(b) || anorm == 0 || bnorm == 0 {
		return 0
	}
	sum := 0.0
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	score := sum / (anorm * bnorm)
	if math.IsNaN(score) {
		return 0
	}
	return score
}

func norm(v []float32) float64 {
	sum := 0.0
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
