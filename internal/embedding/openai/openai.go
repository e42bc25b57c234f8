package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	goopenai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"pdfqa/internal/domain"
)

// Client is an OpenAI-compatible embeddings client implementing domain.Embedder.
// It works against OpenAI, Gemini's OpenAI endpoint and Ollama.
type Client struct {
	api            *goopenai.Client
	model          string
	dimensions     int
	documentPrefix string
	queryPrefix    string
	maxRetries     int
	retryBase      time.Duration
	limiter        *rate.Limiter
	dimension      atomic.Int64
}

// Config configures the OpenAI-compatible embeddings client.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
	// Dimensions is sent to the API when > 0 (models that support shortening).
	Dimensions int
	// FallbackDimension is reported before the first successful call.
	FallbackDimension int
	DocumentPrefix    string
	QueryPrefix       string
	MaxRetries        int
	// RequestsPerMinute limits outgoing calls; 0 disables limiting.
	RequestsPerMinute int
}

// NewClient creates a new embeddings client using the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "OPENAI_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	}

	apiCfg := goopenai.DefaultConfig(key)
	apiCfg.BaseURL = cfg.BaseURL
	apiCfg.HTTPClient = &http.Client{Timeout: t}

	c := &Client{
		api:            goopenai.NewClientWithConfig(apiCfg),
		model:          cfg.Model,
		dimensions:     cfg.Dimensions,
		documentPrefix: cfg.DocumentPrefix,
		queryPrefix:    cfg.QueryPrefix,
		maxRetries:     cfg.MaxRetries,
		retryBase:      200 * time.Millisecond,
		limiter:        rate.NewLimiter(limit, 1),
	}
	switch {
	case cfg.Dimensions > 0:
		c.dimension.Store(int64(cfg.Dimensions))
	case cfg.FallbackDimension > 0:
		c.dimension.Store(int64(cfg.FallbackDimension))
	}
	return c, nil
}

// Name returns the identifier of this embedder implementation.
func (c *Client) Name() string { return "openai" }

// Dimension returns the dimensionality of the produced embedding vectors.
// It tracks the size of the most recent successful response.
func (c *Client) Dimension() int { return int(c.dimension.Load()) }

// Embed returns an embedding vector for the given text, retrying on rate
// limits, server errors and transport failures.
func (c *Client) Embed(ctx context.Context, text string, mode domain.EmbedMode) ([]float32, error) {
	input := c.documentPrefix + text
	if mode == domain.ModeQuery {
		input = c.queryPrefix + text
	}
	req := goopenai.EmbeddingRequest{
		Input:      []string{input},
		Model:      goopenai.EmbeddingModel(c.model),
		Dimensions: c.dimensions,
	}

	var vec []float32
	op := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.api.CreateEmbeddings(ctx, req)
		if err != nil {
			if retryable(ctx, err) {
				return err
			}
			return backoff.Permanent(err)
		}
		if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
			return errors.New("no embedding returned")
		}
		vec = resp.Data[0].Embedding
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(c.policy(), uint64(c.maxRetries)), ctx)); err != nil {
		return nil, fmt.Errorf("%w: openai embeddings (%s): %v", domain.ErrUpstream, mode, err)
	}
	c.dimension.Store(int64(len(vec)))
	return vec, nil
}

// policy is exponential backoff starting at retryBase and capped at 5s.
func (c *Client) policy() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryBase
	b.Multiplier = 2
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}
	return true
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500 || code == 0
}
