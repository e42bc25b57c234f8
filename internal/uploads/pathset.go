package uploads

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"pdfqa/internal/domain"
)

// PathSet serves PDFs named on a command line. It never touches the files on
// disk: Remove only forgets a path so the next run does not ingest it again.
type PathSet struct {
	mu    sync.Mutex
	paths map[string]string // base name -> path
}

// NewPathSet expands glob patterns and keeps every existing .pdf match.
// Later paths win when two share a base name.
func NewPathSet(patterns []string) (*PathSet, error) {
	s := &PathSet{paths: make(map[string]string)}
	for _, p := range patterns {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", p, err)
		}
		if matches == nil {
			matches = []string{p}
		}
		for _, m := range matches {
			if !isPDF(m) {
				continue
			}
			info, err := os.Stat(m)
			if err != nil {
				return nil, err
			}
			if !info.Mode().IsRegular() {
				continue
			}
			s.paths[filepath.Base(m)] = m
		}
	}
	return s, nil
}

func (s *PathSet) List(ctx context.Context) ([]domain.SourceFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	files := make([]domain.SourceFile, 0, len(s.paths))
	for name, p := range s.paths {
		var size int64
		if info, err := os.Stat(p); err == nil {
			size = info.Size()
		}
		files = append(files, domain.SourceFile{Name: name, Size: size})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

func (s *PathSet) Read(ctx context.Context, name string) ([]byte, error) {
	s.mu.Lock()
	p, ok := s.paths[name]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, os.ErrNotExist)
	}
	return os.ReadFile(p)
}

func (s *PathSet) Remove(ctx context.Context, name string) error {
	s.mu.Lock()
	delete(s.paths, name)
	s.mu.Unlock()
	return nil
}
