package chunker

import (
	"strings"
	"unicode"

	"pdfqa/internal/domain"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// WindowChunker splits page text into fixed-size rune windows with overlap.
// Each page is chunked on its own.
type WindowChunker struct {
	size    int
	overlap int
}

func NewWindowChunker(size, overlap int) *WindowChunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 5
	}
	return &WindowChunker{size: size, overlap: overlap}
}

// Size returns the maximum chunk length in runes.
func (c *WindowChunker) Size() int { return c.size }

// Overlap returns the number of runes shared by consecutive chunks.
func (c *WindowChunker) Overlap() int { return c.overlap }

func (c *WindowChunker) Split(pages []domain.Page) []domain.Chunk {
	var chunks []domain.Chunk
	for _, p := range pages {
		chunks = append(chunks, c.splitPage(p)...)
	}
	return chunks
}

func (c *WindowChunker) splitPage(p domain.Page) []domain.Chunk {
	text := []rune(normalizeSpace(p.Text))
	if len(text) == 0 {
		return nil
	}
	step := c.size - c.overlap
	var chunks []domain.Chunk
	for i := 0; ; i++ {
		start := i * step
		end := start + c.size
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, domain.Chunk{
			Source: p.Source,
			Page:   p.Number,
			Index:  i,
			Offset: start,
			Text:   string(text[start:end]),
		})
		if end == len(text) {
			break
		}
	}
	return chunks
}

// normalizeSpace collapses whitespace runs to one space and trims the ends.
func normalizeSpace(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	prevSpace := false
	for _, r := range strings.TrimSpace(text) {
		if unicode.IsSpace(r) {
			if !prevSpace {
				b.WriteRune(' ')
				prevSpace = true
			}
			continue
		}
		b.WriteRune(r)
		prevSpace = false
	}
	return b.String()
}
