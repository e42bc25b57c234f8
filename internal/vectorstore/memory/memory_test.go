package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfqa/internal/domain"
	"pdfqa/internal/embedding/hashing"
	"pdfqa/internal/vectorstore"
)

var _ vectorstore.Index = (*Index)(nil)

func chunk(source string, i int) domain.Chunk {
	return domain.Chunk{Source: source, Page: 1, Index: i, Text: fmt.Sprintf("%s-%d", source, i)}
}

func TestSearchOrdersByCosine(t *testing.T) {
	idx, err := Build([]Entry{
		{Chunk: chunk("a", 0), Vector: []float32{1, 0}},
		{Chunk: chunk("a", 1), Vector: []float32{0, 1}},
		{Chunk: chunk("b", 0), Vector: []float32{1, 1}},
	})
	require.NoError(t, err)

	res := idx.Search([]float32{2, 0}, 3)
	require.Len(t, res, 3)
	assert.Equal(t, "a-0", res[0].Chunk.Text)
	assert.InDelta(t, 1.0, res[0].Score, 1e-9)
	assert.Equal(t, "b-0", res[1].Chunk.Text)
	assert.InDelta(t, 0.7071, res[1].Score, 1e-4)
	assert.Equal(t, "a-1", res[2].Chunk.Text)
	assert.Equal(t, []string{"a", "b"}, idx.Sources())
}

func TestSearchNeverExceedsK(t *testing.T) {
	var entries []Entry
	for i := 0; i < 7; i++ {
		entries = append(entries, Entry{Chunk: chunk("a", i), Vector: []float32{float32(i + 1), 1}})
	}
	idx, err := Build(entries)
	require.NoError(t, err)

	for k := 0; k <= 10; k++ {
		res := idx.Search([]float32{1, 0}, k)
		want := k
		if want > idx.Len() {
			want = idx.Len()
		}
		assert.Len(t, res, want, "k=%d", k)
	}
}

func TestSearchTiesKeepInsertionOrder(t *testing.T) {
	idx, err := Build([]Entry{
		{Chunk: chunk("a", 0), Vector: []float32{1, 0}},
		{Chunk: chunk("a", 1), Vector: []float32{0, 0}},
		{Chunk: chunk("a", 2), Vector: []float32{1, 0}},
		{Chunk: chunk("a", 3), Vector: []float32{0, 0}},
	})
	require.NoError(t, err)

	res := idx.Search([]float32{1, 0}, 4)
	got := make([]string, len(res))
	for i, r := range res {
		got[i] = r.Chunk.Text
	}
	assert.Equal(t, []string{"a-0", "a-2", "a-1", "a-3"}, got)

	// a zero query ties everything at 0
	res = idx.Search([]float32{0, 0}, 2)
	assert.Equal(t, "a-0", res[0].Chunk.Text)
	assert.Equal(t, "a-1", res[1].Chunk.Text)
	assert.Zero(t, res[0].Score)
}

func TestEmptyIndex(t *testing.T) {
	idx, err := Build(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Len())
	assert.Empty(t, idx.Search([]float32{1, 2, 3}, 5))
	assert.Empty(t, idx.Sources())
}

func TestBuildRejectsMixedDimensions(t *testing.T) {
	_, err := Build([]Entry{
		{Chunk: chunk("a", 0), Vector: []float32{1, 0}},
		{Chunk: chunk("a", 1), Vector: []float32{1, 0, 0}},
	})
	assert.Error(t, err)

	_, err = Build([]Entry{{Chunk: chunk("a", 0)}})
	assert.Error(t, err)
}

func TestBuildCopiesVectors(t *testing.T) {
	v := []float32{1, 0}
	idx, err := Build([]Entry{{Chunk: chunk("a", 0), Vector: v}})
	require.NoError(t, err)
	v[0], v[1] = 0, 1
	res := idx.Search([]float32{1, 0}, 1)
	assert.InDelta(t, 1.0, res[0].Score, 1e-9)
}

func TestRoundTripSameTextRanksFirst(t *testing.T) {
	emb := hashing.NewEmbedder(256)
	ctx := context.Background()
	texts := []string{
		"Photosynthesis converts light energy into chemical energy in plants.",
		"The French Revolution began in 1789 with the storming of the Bastille.",
		"TCP guarantees ordered delivery of a byte stream between hosts.",
	}
	var entries []Entry
	for i, text := range texts {
		v, err := emb.Embed(ctx, text, domain.ModeDocument)
		require.NoError(t, err)
		entries = append(entries, Entry{Chunk: domain.Chunk{Source: "doc.pdf", Index: i, Text: text}, Vector: v})
	}
	idx, err := Build(entries)
	require.NoError(t, err)

	q, err := emb.Embed(ctx, texts[1], domain.ModeQuery)
	require.NoError(t, err)
	res := idx.Search(q, 3)
	require.NotEmpty(t, res)
	assert.Equal(t, texts[1], res[0].Chunk.Text)
	assert.InDelta(t, 1.0, res[0].Score, 1e-6)
}
