package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"pdfqa/internal/app"
	"pdfqa/internal/config"
	"pdfqa/internal/logging"
	"pdfqa/internal/metrics"
	"pdfqa/internal/tui"
	"pdfqa/internal/uploads"
)

func main() {
	_ = godotenv.Load()

	cfgPath := flag.String("config", "", "Path to config YAML (optional)")
	logPath := flag.String("log", "", "Write logs to this file instead of discarding them")
	flag.Parse()
	inputs := flag.Args()
	if len(inputs) == 0 {
		fmt.Println("Usage: pdfqa-chat [--config=config.yaml] [--log=chat.log] file1.pdf [file2.pdf ...]")
		os.Exit(1)
	}

	var cfg *config.AppConfig
	var err error
	if *cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(*cfgPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	// the terminal belongs to the UI, so logs go to a file or nowhere
	logger := zap.NewNop()
	if *logPath != "" {
		logger, err = logging.NewFile(cfg.Logging.Level, *logPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = logger.Sync() }()
	}

	store, err := uploads.NewPathSet(inputs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read inputs: %v\n", err)
		os.Exit(1)
	}
	svc, err := app.NewService(cfg, store, logger, metrics.New())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to assemble pipeline: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Indexing PDFs...")
	res, err := svc.Initialize(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "ingest failed: %v\n", err)
		os.Exit(1)
	}
	summary := fmt.Sprintf("%d files, %d chunks indexed in %s", len(res.Files), res.Chunks, res.Duration.Round(time.Millisecond))
	if len(res.FailedFiles) > 0 {
		summary += fmt.Sprintf(" (%d unreadable)", len(res.FailedFiles))
	}
	if len(res.EmptyFiles) > 0 {
		summary += fmt.Sprintf(" (%d without text)", len(res.EmptyFiles))
	}

	m := tui.New(svc, summary, 2*time.Minute)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
