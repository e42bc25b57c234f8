package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr                string `yaml:"addr"`
	Mode                string `yaml:"mode"`
	ShutdownTimeoutSecs int    `yaml:"shutdown_timeout_secs"`
}

// UploadsConfig configures where uploaded PDFs wait for ingestion.
type UploadsConfig struct {
	Dir          string `yaml:"dir"`
	MaxFiles     int    `yaml:"max_files"`
	MaxFileBytes int64  `yaml:"max_file_bytes"`
}

// ChunkerConfig configures how page text is split into chunks.
type ChunkerConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL           string `yaml:"base_url"`
	APIKeyEnv         string `yaml:"api_key_env"`
	Model             string `yaml:"model"`
	TimeoutSecs       int    `yaml:"timeout_secs"`
	Dimensions        int    `yaml:"dimensions,omitempty"`
	DocumentPrefix    string `yaml:"document_prefix,omitempty"`
	QueryPrefix       string `yaml:"query_prefix,omitempty"`
	MaxRetries        int    `yaml:"max_retries"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type      string                `yaml:"type"`
	Dimension int                   `yaml:"dimension"`
	OpenAI    *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// OpenAICompletionConfig holds configuration for the chat completion client.
type OpenAICompletionConfig struct {
	BaseURL          string  `yaml:"base_url"`
	APIKeyEnv        string  `yaml:"api_key_env"`
	Model            string  `yaml:"model"`
	Temperature      float32 `yaml:"temperature"`
	MaxTokens        int     `yaml:"max_tokens"`
	TimeoutSecs         int     `yaml:"timeout_secs"`
	FailureThreshold    uint32  `yaml:"failure_threshold"`
	BreakerCooldownSecs int     `yaml:"breaker_cooldown_secs"`
}

// CompletionConfig selects and configures the answer completer.
type CompletionConfig struct {
	Type         string                  `yaml:"type"`
	MaxSentences int                     `yaml:"max_sentences"`
	OpenAI       *OpenAICompletionConfig `yaml:"openai,omitempty"`
}

// RetrievalConfig configures similarity search.
type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

// AnswerConfig holds the fixed replies.
type AnswerConfig struct {
	NotInitializedMessage string `yaml:"not_initialized_message"`
	NoInformationMessage  string `yaml:"no_information_message"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Server     ServerConfig     `yaml:"server"`
	Uploads    UploadsConfig    `yaml:"uploads"`
	Chunker    ChunkerConfig    `yaml:"chunker"`
	Embedder   EmbedderConfig   `yaml:"embedder"`
	Completion CompletionConfig `yaml:"completion"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Answer     AnswerConfig     `yaml:"answer"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
// Environment overrides are applied in both cases.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	applyEnv(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/pdfqa/config.yaml.
// If neither exists, it writes defaults to ~/.config/pdfqa/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	applyEnv(cfg)
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate rejects settings the pipeline cannot run with.
func (c *AppConfig) Validate() error {
	var errs []error
	switch c.Embedder.Type {
	case "hashing", "openai":
	default:
		errs = append(errs, fmt.Errorf("unknown embedder: %q", c.Embedder.Type))
	}
	switch c.Completion.Type {
	case "extractive", "openai":
	default:
		errs = append(errs, fmt.Errorf("unknown completion: %q", c.Completion.Type))
	}
	if c.Chunker.ChunkOverlap >= c.Chunker.ChunkSize {
		errs = append(errs, fmt.Errorf("chunk_overlap (%d) must be smaller than chunk_size (%d)", c.Chunker.ChunkOverlap, c.Chunker.ChunkSize))
	}
	if c.Retrieval.TopK < 1 {
		errs = append(errs, fmt.Errorf("top_k must be at least 1, got %d", c.Retrieval.TopK))
	}
	if c.Uploads.MaxFiles < 1 {
		errs = append(errs, fmt.Errorf("max_files must be at least 1, got %d", c.Uploads.MaxFiles))
	}
	if c.Uploads.MaxFileBytes < 1 {
		errs = append(errs, fmt.Errorf("max_file_bytes must be positive, got %d", c.Uploads.MaxFileBytes))
	}
	return errors.Join(errs...)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "pdfqa", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Server:     ServerConfig{Addr: ":3000", Mode: "release", ShutdownTimeoutSecs: 10},
		Uploads:    UploadsConfig{Dir: "./data/pdfs", MaxFiles: 10, MaxFileBytes: 20 << 20},
		Chunker:    ChunkerConfig{ChunkSize: 1000, ChunkOverlap: 200},
		Embedder:   EmbedderConfig{Type: "hashing", Dimension: 768},
		Completion: CompletionConfig{Type: "extractive", MaxSentences: 3},
		Retrieval:  RetrievalConfig{TopK: 3},
		Answer: AnswerConfig{
			NotInitializedMessage: "The vector index has not been built yet. Please upload PDF files and initialize first.",
			NoInformationMessage:  "No information was found about this question.",
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	def := defaultConfig()
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = def.Server.Addr
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = def.Server.Mode
	}
	if cfg.Server.ShutdownTimeoutSecs == 0 {
		cfg.Server.ShutdownTimeoutSecs = def.Server.ShutdownTimeoutSecs
	}
	if cfg.Uploads.Dir == "" {
		cfg.Uploads.Dir = def.Uploads.Dir
	}
	if cfg.Uploads.MaxFiles == 0 {
		cfg.Uploads.MaxFiles = def.Uploads.MaxFiles
	}
	if cfg.Uploads.MaxFileBytes == 0 {
		cfg.Uploads.MaxFileBytes = def.Uploads.MaxFileBytes
	}
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = def.Chunker.ChunkSize
		if cfg.Chunker.ChunkOverlap == 0 {
			cfg.Chunker.ChunkOverlap = def.Chunker.ChunkOverlap
		}
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = def.Embedder.Type
	}
	if cfg.Embedder.Dimension == 0 {
		cfg.Embedder.Dimension = def.Embedder.Dimension
	}
	if cfg.Completion.Type == "" {
		cfg.Completion.Type = def.Completion.Type
	}
	if cfg.Completion.MaxSentences == 0 {
		cfg.Completion.MaxSentences = def.Completion.MaxSentences
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = def.Retrieval.TopK
	}
	if cfg.Answer.NotInitializedMessage == "" {
		cfg.Answer.NotInitializedMessage = def.Answer.NotInitializedMessage
	}
	if cfg.Answer.NoInformationMessage == "" {
		cfg.Answer.NoInformationMessage = def.Answer.NoInformationMessage
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = def.Logging.Format
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI == nil {
		cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
	}
	if o := cfg.Embedder.OpenAI; o != nil {
		if o.BaseURL == "" {
			o.BaseURL = "https://api.openai.com/v1"
		}
		if o.APIKeyEnv == "" {
			o.APIKeyEnv = "OPENAI_API_KEY"
		}
		if o.Model == "" {
			o.Model = "text-embedding-3-small"
		}
		if o.TimeoutSecs == 0 {
			o.TimeoutSecs = 30
		}
		if o.MaxRetries == 0 {
			o.MaxRetries = 3
		}
	}
	if cfg.Completion.Type == "openai" && cfg.Completion.OpenAI == nil {
		cfg.Completion.OpenAI = &OpenAICompletionConfig{}
	}
	if o := cfg.Completion.OpenAI; o != nil {
		if o.BaseURL == "" {
			o.BaseURL = "https://api.openai.com/v1"
		}
		if o.APIKeyEnv == "" {
			o.APIKeyEnv = "OPENAI_API_KEY"
		}
		if o.Model == "" {
			o.Model = "gpt-4o-mini"
		}
		if o.TimeoutSecs == 0 {
			o.TimeoutSecs = 60
		}
		if o.FailureThreshold == 0 {
			o.FailureThreshold = 5
		}
		if o.BreakerCooldownSecs == 0 {
			o.BreakerCooldownSecs = 30
		}
	}
}

// applyEnv lets deployment settings override the file.
func applyEnv(cfg *AppConfig) {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		if _, err := strconv.Atoi(port); err == nil {
			cfg.Server.Addr = ":" + port
		}
	}
	if v := strings.TrimSpace(os.Getenv("PDFQA_UPLOAD_DIR")); v != "" {
		cfg.Uploads.Dir = v
	}
	if v := strings.TrimSpace(os.Getenv("PDFQA_LOG_LEVEL")); v != "" {
		cfg.Logging.Level = v
	}
	changed := false
	if v := strings.TrimSpace(os.Getenv("PDFQA_EMBEDDER")); v != "" {
		cfg.Embedder.Type = v
		changed = true
	}
	if v := strings.TrimSpace(os.Getenv("PDFQA_COMPLETION")); v != "" {
		cfg.Completion.Type = v
		changed = true
	}
	if changed {
		applyConfigDefaults(cfg)
	}
}
