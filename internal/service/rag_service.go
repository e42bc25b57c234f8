package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"pdfqa/internal/answer"
	"pdfqa/internal/domain"
	"pdfqa/internal/embedding"
	"pdfqa/internal/metrics"
	"pdfqa/internal/vectorstore"
	"pdfqa/internal/vectorstore/memory"
)

// DefaultNotInitialized is the chat reply while no index generation is live.
const DefaultNotInitialized = "The vector index has not been built yet. Please upload PDF files and initialize first."

// DefaultTopK is how many chunks ground an answer.
const DefaultTopK = 3

// State is the lifecycle of the question answering pipeline.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateInitializing  State = "initializing"
	StateReady         State = "ready"
	StateFailed        State = "initialization_failed"
)

// generation is one immutable build of the index.
type generation struct {
	index   vectorstore.Index
	builtAt time.Time
}

// InitResult describes a successful initialize run.
type InitResult struct {
	Files        []string
	FailedFiles  []string
	EmptyFiles   []string
	Chunks       int
	Degraded     int
	Deleted      int
	DeleteFailed int
	Replaced     int
	Duration     time.Duration
}

// Source is a retrieved chunk reference returned with an answer.
type Source struct {
	File  string  `json:"file"`
	Page  int     `json:"page"`
	Score float64 `json:"score"`
}

// Answer is the reply to a question.
type Answer struct {
	Text    string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// Status is a snapshot for the status endpoint.
type Status struct {
	State     State      `json:"state"`
	Chunks    int        `json:"chunks"`
	Sources   []string   `json:"sources"`
	BuiltAt   *time.Time `json:"built_at,omitempty"`
	LastError string     `json:"last_error,omitempty"`
}

// Options tunes retrieval and fixed replies.
type Options struct {
	TopK           int
	NotInitialized string
}

// RAGService turns uploads into a similarity index and answers questions
// against the live index generation. Initialize runs are not serialized:
// each builds its own generation and the last to finish successfully wins.
type RAGService struct {
	store       domain.UploadStore
	extractor   domain.Extractor
	chunker     domain.Chunker
	embeddings  *embedding.Client
	synthesizer *answer.Synthesizer
	topK        int
	notInit     string
	logger      *zap.Logger
	metrics     *metrics.Metrics

	live    atomic.Pointer[generation]
	running atomic.Int32

	mu        sync.Mutex
	state     State
	lastError string
}

func NewRAGService(
	store domain.UploadStore,
	extractor domain.Extractor,
	chunker domain.Chunker,
	embeddings *embedding.Client,
	synthesizer *answer.Synthesizer,
	opts Options,
	logger *zap.Logger,
	m *metrics.Metrics,
) *RAGService {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.NotInitialized == "" {
		opts.NotInitialized = DefaultNotInitialized
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RAGService{
		store:       store,
		extractor:   extractor,
		chunker:     chunker,
		embeddings:  embeddings,
		synthesizer: synthesizer,
		topK:        opts.TopK,
		notInit:     opts.NotInitialized,
		logger:      logger.With(zap.String("component", "rag")),
		metrics:     m,
		state:       StateUninitialized,
	}
}

// Initialize ingests every uploaded file and swaps in a new index. A run that
// indexes nothing fails with domain.ErrNoDocuments and leaves the live
// generation in place.
func (s *RAGService) Initialize(ctx context.Context) (InitResult, error) {
	start := time.Now()
	s.running.Add(1)
	s.setState(StateInitializing, "")
	defer s.running.Add(-1)
	defer func() { s.metrics.InitializeFinished(time.Since(start)) }()

	res, gen, ingested, err := s.build(ctx)
	res.Duration = time.Since(start)
	if err != nil {
		s.logger.Error("initialize failed", zap.Error(err), zap.Duration("duration", res.Duration))
		s.setState(StateFailed, err.Error())
		return res, err
	}

	s.live.Store(gen)
	s.metrics.SetLiveChunks(gen.index.Len())
	s.setState(StateReady, "")

	res.Deleted, res.Replaced, res.DeleteFailed = s.removeIngested(ctx, ingested)
	s.logger.Info("index ready",
		zap.Int("files", len(res.Files)),
		zap.Int("failed_files", len(res.FailedFiles)),
		zap.Int("empty_files", len(res.EmptyFiles)),
		zap.Int("chunks", res.Chunks),
		zap.Int("degraded", res.Degraded),
		zap.Duration("duration", res.Duration))
	return res, nil
}

// ingestedFile is an upload that went into a build, with the digest of the
// bytes that were read.
type ingestedFile struct {
	name   string
	digest uint64
}

func (s *RAGService) build(ctx context.Context) (InitResult, *generation, []ingestedFile, error) {
	var res InitResult
	files, err := s.store.List(ctx)
	if err != nil {
		return res, nil, nil, fmt.Errorf("list uploads: %w", err)
	}
	if len(files) == 0 {
		return res, nil, nil, fmt.Errorf("%w: no uploaded files", domain.ErrNoDocuments)
	}

	var (
		pages    []domain.Page
		ingested []ingestedFile
	)
	for _, f := range files {
		p, digest, err := s.extract(ctx, f.Name)
		if err != nil {
			s.logger.Warn("skipping file", zap.String("file", f.Name), zap.Error(err))
			s.metrics.FileIngested("failed")
			res.FailedFiles = append(res.FailedFiles, f.Name)
			continue
		}
		if len(p) == 0 {
			s.logger.Warn("no extractable text, file is likely scanned or image only", zap.String("file", f.Name))
			s.metrics.FileIngested("empty")
			res.EmptyFiles = append(res.EmptyFiles, f.Name)
		} else {
			s.logger.Debug("extracted", zap.String("file", f.Name), zap.Int("pages", len(p)))
			s.metrics.FileIngested("ok")
		}
		res.Files = append(res.Files, f.Name)
		ingested = append(ingested, ingestedFile{name: f.Name, digest: digest})
		pages = append(pages, p...)
	}

	chunks := s.chunker.Split(pages)
	if len(chunks) == 0 {
		return res, nil, nil, fmt.Errorf("%w: no text extracted from %d files", domain.ErrNoDocuments, len(files))
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, report := s.embeddings.EmbedBatch(ctx, texts)
	res.Degraded = report.Degraded
	if report.Degraded > 0 {
		s.logger.Warn("some chunks were indexed with zero vectors",
			zap.Int("degraded", report.Degraded), zap.Int("total", report.Total))
	}

	entries := make([]memory.Entry, len(chunks))
	for i := range chunks {
		entries[i] = memory.Entry{Chunk: chunks[i], Vector: vectors[i]}
	}
	idx, err := memory.Build(entries)
	if err != nil {
		return res, nil, nil, fmt.Errorf("build index: %w", err)
	}
	res.Chunks = idx.Len()
	return res, &generation{index: idx, builtAt: time.Now()}, ingested, nil
}

func (s *RAGService) extract(ctx context.Context, name string) ([]domain.Page, uint64, error) {
	data, err := s.store.Read(ctx, name)
	if err != nil {
		return nil, 0, fmt.Errorf("read: %w", err)
	}
	pages, err := s.extractor.Extract(ctx, name, data)
	return pages, xxhash.Sum64(data), err
}

// removeIngested deletes each ingested upload independently. A file whose
// bytes changed since it was read was uploaded again during the build and is
// left pending for the next run.
func (s *RAGService) removeIngested(ctx context.Context, files []ingestedFile) (deleted, replaced, failed int) {
	for _, f := range files {
		if data, err := s.store.Read(ctx, f.name); err == nil && xxhash.Sum64(data) != f.digest {
			replaced++
			s.logger.Info("keeping file uploaded again during initialize", zap.String("file", f.name))
			continue
		}
		if err := s.store.Remove(ctx, f.name); err != nil {
			failed++
			s.logger.Warn("could not delete ingested file", zap.String("file", f.name), zap.Error(err))
			continue
		}
		deleted++
	}
	s.logger.Info("ingested files removed",
		zap.Int("deleted", deleted), zap.Int("replaced", replaced), zap.Int("failed", failed))
	return deleted, replaced, failed
}

// Ask answers question from the live generation. Without one it returns the
// not-initialized reply and makes no embedding or completion calls.
func (s *RAGService) Ask(ctx context.Context, question string) (Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		s.metrics.Question("invalid")
		return Answer{}, fmt.Errorf("%w: question is required", domain.ErrValidation)
	}

	gen := s.live.Load()
	if gen == nil {
		s.metrics.Question("not_initialized")
		return Answer{Text: s.notInit, Sources: []Source{}}, nil
	}

	vec, err := s.embeddings.EmbedOne(ctx, question)
	if err != nil {
		s.logger.Warn("question embedded as zero vector", zap.String("question", question), zap.Error(err))
	}
	results := gen.index.Search(vec, s.topK)

	text, err := s.synthesizer.Synthesize(ctx, question, results)
	if err != nil {
		s.metrics.Question("failed")
		return Answer{}, err
	}
	if len(results) == 0 {
		s.metrics.Question("no_information")
	} else {
		s.metrics.Question("answered")
	}

	sources := make([]Source, len(results))
	for i, r := range results {
		sources[i] = Source{File: r.Chunk.Source, Page: r.Chunk.Page, Score: r.Score}
	}
	return Answer{Text: text, Sources: sources}, nil
}

// Ready reports whether a generation is live.
func (s *RAGService) Ready() bool { return s.live.Load() != nil }

// Status reports the pipeline state and the live generation.
func (s *RAGService) Status() Status {
	s.mu.Lock()
	st := Status{State: s.state, LastError: s.lastError, Sources: []string{}}
	s.mu.Unlock()
	if s.running.Load() > 0 {
		st.State = StateInitializing
	}
	if gen := s.live.Load(); gen != nil {
		st.Chunks = gen.index.Len()
		st.Sources = gen.index.Sources()
		built := gen.builtAt
		st.BuiltAt = &built
	}
	return st
}

func (s *RAGService) setState(state State, lastError string) {
	s.mu.Lock()
	s.state = state
	s.lastError = lastError
	s.mu.Unlock()
}
