package uploads

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfqa/internal/domain"
)

func TestCleanName(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "report.pdf", want: "report.pdf"},
		{in: "../../etc/report.pdf", want: "report.pdf"},
		{in: `C:\Users\me\Slides.PDF`, want: "Slides.PDF"},
		{in: "notes.txt", wantErr: true},
		{in: "", wantErr: true},
		{in: "..", wantErr: true},
		{in: ".pdf", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := CleanName(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDirSaveListReadRemove(t *testing.T) {
	ctx := context.Background()
	d := NewDir(filepath.Join(t.TempDir(), "pdfs"))

	files, err := d.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, files)
	assert.Empty(t, files)

	require.NoError(t, d.Save(ctx, "b.pdf", strings.NewReader("%PDF-b")))
	require.NoError(t, d.Save(ctx, "a.pdf", strings.NewReader("%PDF-a")))
	require.NoError(t, os.WriteFile(filepath.Join(d.Path(), "readme.txt"), []byte("x"), 0o644))

	files, err = d.List(ctx)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a.pdf", files[0].Name)
	assert.Equal(t, "b.pdf", files[1].Name)
	assert.EqualValues(t, 6, files[0].Size)

	data, err := d.Read(ctx, "b.pdf")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-b", string(data))

	require.NoError(t, d.Remove(ctx, "a.pdf"))
	require.NoError(t, d.Remove(ctx, "a.pdf"))
	files, err = d.List(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "b.pdf", files[0].Name)
}

func TestDirSaveOverwritesAndLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	d := NewDir(t.TempDir())
	require.NoError(t, d.Save(ctx, "doc.pdf", strings.NewReader("first")))
	require.NoError(t, d.Save(ctx, "doc.pdf", strings.NewReader("second")))

	data, err := d.Read(ctx, "doc.pdf")
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(d.Path())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDirSaveRejectsNonPDF(t *testing.T) {
	d := NewDir(t.TempDir())
	err := d.Save(context.Background(), "evil.sh", strings.NewReader("x"))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestPathSetForgetsWithoutDeleting(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	p := filepath.Join(dir, "keep.pdf")
	require.NoError(t, os.WriteFile(p, []byte("%PDF"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.txt"), []byte("x"), 0o644))

	s, err := NewPathSet([]string{filepath.Join(dir, "*")})
	require.NoError(t, err)

	files, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "keep.pdf", files[0].Name)

	data, err := s.Read(ctx, "keep.pdf")
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data))

	require.NoError(t, s.Remove(ctx, "keep.pdf"))
	files, err = s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, files)
	assert.FileExists(t, p)
}

func TestNewPathSetMissingFile(t *testing.T) {
	_, err := NewPathSet([]string{filepath.Join(t.TempDir(), "absent.pdf")})
	assert.Error(t, err)
}
