// Package uploads holds uploaded PDFs until an initialize run ingests them.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"pdfqa/internal/domain"
)

// DefaultDir is where uploads land when nothing is configured.
const DefaultDir = "./data/pdfs"

// Dir stores uploads as plain files in one directory. The directory is
// created on first use.
type Dir struct {
	path string
}

func NewDir(path string) *Dir {
	if path == "" {
		path = DefaultDir
	}
	return &Dir{path: path}
}

// Path returns the backing directory.
func (d *Dir) Path() string { return d.path }

// CleanName reduces a client-supplied filename to its base name and checks
// that it names a PDF.
func CleanName(name string) (string, error) {
	base := filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	switch base {
	case "", ".", "..", "/":
		return "", fmt.Errorf("%w: invalid filename %q", domain.ErrValidation, name)
	}
	if !isPDF(base) || len(base) == len(".pdf") {
		return "", fmt.Errorf("%w: %q is not a .pdf file", domain.ErrValidation, name)
	}
	return base, nil
}

// Save writes r under name, replacing any earlier upload with that name.
func (d *Dir) Save(ctx context.Context, name string, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	clean, err := CleanName(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(d.path, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}
	tmp, err := os.CreateTemp(d.path, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", clean, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", clean, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(d.path, clean)); err != nil {
		return fmt.Errorf("store %s: %w", clean, err)
	}
	return nil
}

// List returns the stored PDFs sorted by name. A missing directory is
// created and yields an empty list.
func (d *Dir) List(ctx context.Context) ([]domain.SourceFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(d.path, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	files := make([]domain.SourceFile, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || !isPDF(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, domain.SourceFile{Name: e.Name(), Size: info.Size()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

func (d *Dir) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean, err := CleanName(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(filepath.Join(d.path, clean))
}

// Remove deletes an ingested upload. Removing a file that is already gone
// is not an error.
func (d *Dir) Remove(ctx context.Context, name string) error {
	clean, err := CleanName(name)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(d.path, clean))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func isPDF(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".pdf")
}
