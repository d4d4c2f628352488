package rawfs

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policyledger/fedledger/internal/core/domain"
)

func artifact(content string) *domain.RawArtifact {
	return &domain.RawArtifact{
		Identifier:     "dc11288aa80a47e9",
		SourceLocation: "https://www.federalreserve.gov/statement.htm",
		ContentType:    "text/html; charset=utf-8",
		Content:        []byte(content),
		FetchedAt:      time.Now(),
	}
}

func setupStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "raw"))
	require.NoError(t, err)
	return s
}

func TestSave_WritesOnce(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	first, err := s.Save(ctx, artifact("original"), false)
	require.NoError(t, err)
	assert.True(t, first.Written)
	assert.Equal(t, filepath.Join(s.Root(), "dc11288aa80a47e9.html"), first.Path)

	second, err := s.Save(ctx, artifact("changed"), false)
	require.NoError(t, err)
	assert.False(t, second.Written)
	assert.Equal(t, first.Path, second.Path)

	content, err := os.ReadFile(first.Path)
	require.NoError(t, err)
	assert.Equal(t, "original", string(content))
}

func TestNewStore_CreatesRootOnFirstSave(t *testing.T) {
	root := filepath.Join(t.TempDir(), "data", "raw")
	s, err := NewStore(root)
	require.NoError(t, err)
	assert.NoDirExists(t, root)

	count, _, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
	_, err = s.Find(context.Background(), "dc11288aa80a47e9")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoDirExists(t, root)

	_, err = s.Save(context.Background(), artifact("original"), false)
	require.NoError(t, err)
	assert.DirExists(t, root)
}

func TestNewStore_EmptyRoot(t *testing.T) {
	_, err := NewStore(" ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSave_Overwrite(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, artifact("original"), false)
	require.NoError(t, err)

	res, err := s.Save(ctx, artifact("replacement"), true)
	require.NoError(t, err)
	assert.True(t, res.Written)

	content, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, "replacement", string(content))
}

func TestSave_OverwriteRemovesOtherExtension(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, artifact("<html></html>"), false)
	require.NoError(t, err)

	pdf := artifact("%PDF-1.7")
	pdf.ContentType = "application/pdf"
	res, err := s.Save(ctx, pdf, true)
	require.NoError(t, err)
	assert.Equal(t, ".pdf", filepath.Ext(res.Path))

	count, _, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSave_ExistingWithDifferentExtensionIsKept(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	first, err := s.Save(ctx, artifact("<html></html>"), false)
	require.NoError(t, err)

	pdf := artifact("%PDF-1.7")
	pdf.ContentType = "application/pdf"
	res, err := s.Save(ctx, pdf, false)
	require.NoError(t, err)
	assert.False(t, res.Written)
	assert.Equal(t, first.Path, res.Path)
}

func TestSave_ConcurrentSameIdentifier(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]bool, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := s.Save(ctx, artifact("same bytes"), false)
			assert.NoError(t, err)
			results[i] = res.Written
		}(i)
	}
	wg.Wait()

	written := 0
	for _, w := range results {
		if w {
			written++
		}
	}
	assert.Equal(t, 1, written)

	entries, err := os.ReadDir(s.Root())
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must be cleaned up")
}

func TestSave_InvalidIdentifier(t *testing.T) {
	s := setupStore(t)
	a := artifact("x")
	a.Identifier = "../../etc/passwd"

	_, err := s.Save(context.Background(), a, false)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFindAndStats(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.Find(ctx, "dc11288aa80a47e9")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.Save(ctx, artifact("12345"), false)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), ".dc11288aa80a47e9-999.tmp"), []byte("partial"), 0o644))

	found, err := s.Find(ctx, "dc11288aa80a47e9")
	require.NoError(t, err)
	assert.Equal(t, int64(5), found.Size)

	count, size, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, int64(5), size)
}

func TestExtensionFor(t *testing.T) {
	tests := map[string]string{
		"text/html":                ".html",
		"text/html; charset=utf-8": ".html",
		"application/xhtml+xml":    ".html",
		"application/pdf":          ".pdf",
		"text/plain":               ".txt",
		"application/json":         ".json",
		"text/xml":                 ".xml",
		"application/octet-stream": ".bin",
		"":                         ".bin",
	}
	for in, want := range tests {
		assert.Equal(t, want, ExtensionFor(in), in)
	}
}
