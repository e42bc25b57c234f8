package vectorstore

import "pdfqa/internal/domain"

// Index is a built, read-only similarity index.
type Index interface {
	Search(vector []float32, topK int) []domain.SearchResult
	Len() int
	Sources() []string
}
