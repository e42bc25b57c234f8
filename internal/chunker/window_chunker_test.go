package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfqa/internal/domain"
)

func TestSplitOffsetsAndOverlap(t *testing.T) {
	c := NewWindowChunker(10, 3)
	text := "abcdefghijklmnopqrstuvwxyz" // 26 runes
	chunks := c.Split([]domain.Page{{Source: "a.pdf", Number: 2, Text: text}})

	require.Len(t, chunks, 4)
	wantOffsets := []int{0, 7, 14, 21}
	for i, ch := range chunks {
		assert.Equal(t, wantOffsets[i], ch.Offset)
		assert.Equal(t, i, ch.Index)
		assert.Equal(t, "a.pdf", ch.Source)
		assert.Equal(t, 2, ch.Page)
		assert.LessOrEqual(t, len([]rune(ch.Text)), 10)
	}
	assert.Equal(t, "abcdefghij", chunks[0].Text)
	assert.Equal(t, "hijklmnopq", chunks[1].Text)
	assert.Equal(t, "vwxyz", chunks[3].Text)

	// consecutive windows share exactly the overlap
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1].Text)
		cur := []rune(chunks[i].Text)
		assert.Equal(t, string(prev[len(prev)-3:]), string(cur[:3]))
	}
}

func TestSplitStopsWhenWindowReachesEnd(t *testing.T) {
	c := NewWindowChunker(10, 2)
	// 18 runes: second window [8,18) already reaches the end
	chunks := c.Split([]domain.Page{{Source: "x", Number: 1, Text: strings.Repeat("a", 18)}})
	require.Len(t, chunks, 2)
	assert.Equal(t, 8, chunks[1].Offset)
	assert.Len(t, chunks[1].Text, 10)
}

func TestSplitShortAndEmptyPages(t *testing.T) {
	c := NewWindowChunker(100, 20)
	chunks := c.Split([]domain.Page{
		{Source: "a.pdf", Number: 1, Text: "   \n\t "},
		{Source: "a.pdf", Number: 2, Text: "short   page\n\ntext"},
	})
	require.Len(t, chunks, 1)
	assert.Equal(t, "short page text", chunks[0].Text)
	assert.Equal(t, 2, chunks[0].Page)
}

func TestSplitCountsRunesNotBytes(t *testing.T) {
	c := NewWindowChunker(4, 1)
	chunks := c.Split([]domain.Page{{Source: "tr.pdf", Number: 1, Text: "çğışöüÇĞ"}})
	require.Len(t, chunks, 3)
	assert.Equal(t, "çğış", chunks[0].Text)
	assert.Equal(t, "şöüÇ", chunks[1].Text)
	assert.Equal(t, "ÇĞ", chunks[2].Text)
}

func TestSplitIsDeterministic(t *testing.T) {
	c := NewWindowChunker(50, 10)
	pages := []domain.Page{
		{Source: "a.pdf", Number: 1, Text: strings.Repeat("lorem ipsum dolor sit amet ", 20)},
		{Source: "b.pdf", Number: 1, Text: strings.Repeat("consectetur adipiscing ", 15)},
	}
	first := c.Split(pages)
	second := NewWindowChunker(50, 10).Split(pages)
	assert.Equal(t, first, second)
}

func TestNewWindowChunkerCorrectsConfig(t *testing.T) {
	c := NewWindowChunker(0, -5)
	assert.Equal(t, DefaultChunkSize, c.Size())
	assert.Equal(t, 0, c.Overlap())

	c = NewWindowChunker(100, 100)
	assert.Equal(t, 20, c.Overlap())
}
