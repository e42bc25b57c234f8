package domain

import "context"

// SourceFile is an uploaded PDF waiting to be ingested.
type SourceFile struct {
	Name string
	Size int64
}

// Page is the text of a single PDF page.
type Page struct {
	Source string
	Number int
	Text   string
}

// Chunk is a bounded window of page text used for indexing.
type Chunk struct {
	Source string
	Page   int
	Index  int
	Offset int
	Text   string
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// EmbedMode tells the embedder whether it encodes indexed text or a query.
type EmbedMode int

const (
	ModeDocument EmbedMode = iota
	ModeQuery
)

func (m EmbedMode) String() string {
	if m == ModeQuery {
		return "query"
	}
	return "document"
}

// Extractor turns raw file bytes into ordered pages.
type Extractor interface {
	Extract(ctx context.Context, name string, data []byte) ([]Page, error)
}

// Chunker splits pages into chunks suitable for retrieval indexing.
type Chunker interface {
	Split(pages []Page) []Chunk
}

// Embedder converts free text into a numeric vector representation.
// Dimension may return 0 until the first successful call for remote models.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string, mode EmbedMode) ([]float32, error)
}

// Completer produces text for a grounded prompt.
type Completer interface {
	Name() string
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// UploadStore holds uploaded files until they are ingested.
type UploadStore interface {
	List(ctx context.Context) ([]SourceFile, error)
	Read(ctx context.Context, name string) ([]byte, error)
	Remove(ctx context.Context, name string) error
}
