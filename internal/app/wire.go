// Package app assembles the pipeline from configuration.
package app

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"pdfqa/internal/answer"
	"pdfqa/internal/chunker"
	"pdfqa/internal/completion/extractive"
	chatopenai "pdfqa/internal/completion/openai"
	"pdfqa/internal/config"
	"pdfqa/internal/domain"
	"pdfqa/internal/embedding"
	"pdfqa/internal/embedding/hashing"
	embedopenai "pdfqa/internal/embedding/openai"
	"pdfqa/internal/extractor"
	"pdfqa/internal/metrics"
	"pdfqa/internal/service"
)

// NewEmbedder builds the embedder named by cfg.Embedder.Type.
func NewEmbedder(cfg *config.AppConfig) (domain.Embedder, error) {
	switch cfg.Embedder.Type {
	case "hashing", "":
		return hashing.NewEmbedder(cfg.Embedder.Dimension), nil
	case "openai":
		o := cfg.Embedder.OpenAI
		if o == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		client, err := embedopenai.NewClient(embedopenai.Config{
			BaseURL:           o.BaseURL,
			APIKeyEnv:         o.APIKeyEnv,
			Model:             o.Model,
			Timeout:           time.Duration(o.TimeoutSecs) * time.Second,
			Dimensions:        o.Dimensions,
			FallbackDimension: cfg.Embedder.Dimension,
			DocumentPrefix:    o.DocumentPrefix,
			QueryPrefix:       o.QueryPrefix,
			MaxRetries:        o.MaxRetries,
			RequestsPerMinute: o.RequestsPerMinute,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}
}

// NewCompleter builds the completer named by cfg.Completion.Type.
func NewCompleter(cfg *config.AppConfig) (domain.Completer, error) {
	switch cfg.Completion.Type {
	case "extractive", "":
		return extractive.New(cfg.Completion.MaxSentences, ""), nil
	case "openai":
		o := cfg.Completion.OpenAI
		if o == nil {
			return nil, fmt.Errorf("openai completion config missing")
		}
		client, err := chatopenai.NewClient(chatConfig(o))
		if err != nil {
			return nil, fmt.Errorf("openai completion init failed: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown completion: %s", cfg.Completion.Type)
	}
}

func chatConfig(o *config.OpenAICompletionConfig) chatopenai.Config {
	return chatopenai.Config{
		BaseURL:          o.BaseURL,
		APIKeyEnv:        o.APIKeyEnv,
		Model:            o.Model,
		Temperature:      o.Temperature,
		MaxTokens:        o.MaxTokens,
		Timeout:          time.Duration(o.TimeoutSecs) * time.Second,
		FailureThreshold: o.FailureThreshold,
		BreakerCooldown:  time.Duration(o.BreakerCooldownSecs) * time.Second,
	}
}

// NewService wires extractor, chunker, embedder and completer around store.
func NewService(cfg *config.AppConfig, store domain.UploadStore, logger *zap.Logger, m *metrics.Metrics) (*service.RAGService, error) {
	emb, err := NewEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	comp, err := NewCompleter(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("pipeline configured",
		zap.String("embedder", emb.Name()),
		zap.String("completer", comp.Name()),
		zap.Int("chunk_size", cfg.Chunker.ChunkSize),
		zap.Int("chunk_overlap", cfg.Chunker.ChunkOverlap),
		zap.Int("top_k", cfg.Retrieval.TopK))

	return service.NewRAGService(
		store,
		extractor.NewPDFExtractor(logger.With(zap.String("component", "extractor"))),
		chunker.NewWindowChunker(cfg.Chunker.ChunkSize, cfg.Chunker.ChunkOverlap),
		embedding.NewClient(emb, cfg.Embedder.Dimension, logger.With(zap.String("component", "embedding")), m),
		answer.NewSynthesizer(comp, cfg.Answer.NoInformationMessage, logger.With(zap.String("component", "answer"))),
		service.Options{TopK: cfg.Retrieval.TopK, NotInitialized: cfg.Answer.NotInitializedMessage},
		logger,
		m,
	), nil
}
