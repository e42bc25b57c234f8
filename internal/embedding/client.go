// Package embedding wraps a domain.Embedder with the batch semantics used by
// ingestion and retrieval.
//
// A failed call never aborts a batch: the failing text gets a zero vector of
// the embedder's dimension instead. A zero vector has cosine similarity 0 with
// everything, so the affected chunk stays in the index but can only be
// returned as filler behind chunks with any positive score. Degraded items are
// logged and counted so a weakened index is visible.
package embedding

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"pdfqa/internal/domain"
	"pdfqa/internal/metrics"
)

// DefaultDimension is used for zero vectors when the embedder cannot tell
// its own size yet.
const DefaultDimension = 768

// Client routes index-time and query-time embedding through one embedder.
type Client struct {
	embedder          domain.Embedder
	fallbackDimension int
	logger            *zap.Logger
	metrics           *metrics.Metrics
}

// BatchReport summarizes one EmbedBatch call.
type BatchReport struct {
	Total    int
	Degraded int
}

func NewClient(embedder domain.Embedder, fallbackDimension int, logger *zap.Logger, m *metrics.Metrics) *Client {
	if fallbackDimension <= 0 {
		fallbackDimension = DefaultDimension
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		embedder:          embedder,
		fallbackDimension: fallbackDimension,
		logger:            logger.With(zap.String("embedder", embedder.Name())),
		metrics:           m,
	}
}

// Name reports the wrapped embedder.
func (c *Client) Name() string { return c.embedder.Name() }

// EmbedBatch embeds every text in document mode. The result always has one
// vector per input, all of the same dimension.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, BatchReport) {
	report := BatchReport{Total: len(texts)}
	vectors := make([][]float32, len(texts))
	var failed []int
	for i, text := range texts {
		v, err := c.embed(ctx, text, domain.ModeDocument)
		if err != nil {
			c.logger.Warn("embedding failed, substituting zero vector",
				zap.Int("index", i), zap.Int("total", len(texts)), zap.Error(err))
			failed = append(failed, i)
			continue
		}
		vectors[i] = v
	}
	// zero vectors are sized after the loop so they match whatever dimension
	// the successful calls produced
	dim := c.dimension(vectors)
	for _, i := range failed {
		vectors[i] = make([]float32, dim)
	}
	for i, v := range vectors {
		if len(v) != dim {
			c.logger.Warn("embedding dimension mismatch, substituting zero vector",
				zap.Int("index", i), zap.Int("got", len(v)), zap.Int("want", dim))
			vectors[i] = make([]float32, dim)
			failed = append(failed, i)
		}
	}
	report.Degraded = len(failed)
	return vectors, report
}

// EmbedOne embeds a query. On failure it returns a zero vector and the cause,
// which callers may log but need not act on.
func (c *Client) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	v, err := c.embed(ctx, text, domain.ModeQuery)
	if err != nil {
		c.logger.Warn("query embedding failed, substituting zero vector", zap.Error(err))
		return make([]float32, c.dimension(nil)), err
	}
	return v, nil
}

func (c *Client) embed(ctx context.Context, text string, mode domain.EmbedMode) ([]float32, error) {
	v, err := c.embedder.Embed(ctx, text, mode)
	if err == nil && len(v) == 0 {
		err = fmt.Errorf("%w: empty vector", domain.ErrUpstream)
	}
	if err != nil {
		c.metrics.EmbeddingCall(mode.String(), "degraded")
		return nil, err
	}
	c.metrics.EmbeddingCall(mode.String(), "ok")
	return v, nil
}

// dimension picks the most common length among produced vectors, then the
// embedder's own claim, then the configured fallback.
func (c *Client) dimension(vectors [][]float32) int {
	counts := make(map[int]int)
	best, bestCount := 0, 0
	for _, v := range vectors {
		if len(v) == 0 {
			continue
		}
		counts[len(v)]++
		if counts[len(v)] > bestCount {
			best, bestCount = len(v), counts[len(v)]
		}
	}
	if best > 0 {
		return best
	}
	if d := c.embedder.Dimension(); d > 0 {
		return d
	}
	return c.fallbackDimension
}
