package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pdfqa/internal/domain"
	"pdfqa/internal/metrics"
	"pdfqa/internal/service"
)

// Pipeline is the server-facing subset of the RAG service.
type Pipeline interface {
	Initialize(ctx context.Context) (service.InitResult, error)
	Ask(ctx context.Context, question string) (service.Answer, error)
	Status() service.Status
}

// Uploads stores files from the upload endpoint and lists pending ones.
type Uploads interface {
	List(ctx context.Context) ([]domain.SourceFile, error)
	Save(ctx context.Context, name string, r io.Reader) error
}

// Config configures the HTTP surface.
type Config struct {
	Addr            string
	Mode            string
	MaxFiles        int
	MaxFileBytes    int64
	ShutdownTimeout time.Duration
}

// Server is the HTTP front end for upload, initialize and ask.
type Server struct {
	config   Config
	router   *gin.Engine
	server   *http.Server
	pipeline Pipeline
	uploads  Uploads
	assets   fs.FS
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// New wires routes and middleware. assets holds index.html and the files
// served under /assets.
func New(cfg Config, pipeline Pipeline, uploads Uploads, assets fs.FS, m *metrics.Metrics, logger *zap.Logger) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":3000"
	}
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = 10
	}
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = 20 << 20
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Mode {
	case gin.DebugMode, gin.TestMode:
		gin.SetMode(cfg.Mode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config:   cfg,
		router:   gin.New(),
		pipeline: pipeline,
		uploads:  uploads,
		assets:   assets,
		metrics:  m,
		logger:   logger.With(zap.String("component", "http")),
	}
	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", zap.String("addr", s.config.Addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen %s: %w", s.config.Addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		return s.server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
