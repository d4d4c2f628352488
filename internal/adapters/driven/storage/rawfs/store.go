// Package rawfs preserves fetched source bytes on the local filesystem.
// Each artifact is stored once as {identifier}{ext} under the raw root.
package rawfs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/policyledger/fedledger/internal/core/domain"
	"github.com/policyledger/fedledger/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.RawStore = (*Store)(nil)

var extensions = map[string]string{
	"text/html":             ".html",
	"application/xhtml+xml": ".html",
	"application/pdf":       ".pdf",
	"text/plain":            ".txt",
	"application/json":      ".json",
	"application/xml":       ".xml",
	"text/xml":              ".xml",
}

// ExtensionFor maps a content type to a file extension. Unknown or
// malformed types map to ".bin".
func ExtensionFor(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ".bin"
	}
	if ext, ok := extensions[mediaType]; ok {
		return ext
	}
	return ".bin"
}

// Store is a write-once artifact directory.
type Store struct {
	root string
}

// NewStore returns a store rooted at root. The directory is created by the
// first Save.
func NewStore(root string) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("%w: empty raw directory", domain.ErrInvalidInput)
	}
	return &Store{root: root}, nil
}

// Root returns the raw directory.
func (s *Store) Root() string {
	return s.root
}

// Save writes the artifact through a temp file. Without overwrite the
// temp file is hard-linked into place so that the first writer of an
// identifier wins; with overwrite it is renamed over any existing file.
func (s *Store) Save(ctx context.Context, artifact *domain.RawArtifact, overwrite bool) (driven.SaveResult, error) {
	if err := ctx.Err(); err != nil {
		return driven.SaveResult{}, err
	}
	if !artifact.Identifier.IsValid() {
		return driven.SaveResult{}, &domain.InvalidInputError{
			Location: artifact.SourceLocation,
			Reason:   fmt.Sprintf("identifier %q is not valid", artifact.Identifier),
		}
	}

	existing, err := s.matches(artifact.Identifier)
	if err != nil {
		return driven.SaveResult{}, err
	}
	if len(existing) > 0 && !overwrite {
		return driven.SaveResult{Path: existing[0]}, nil
	}

	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return driven.SaveResult{}, fmt.Errorf("creating raw directory: %w", err)
	}
	target := filepath.Join(s.root, artifact.Identifier.String()+ExtensionFor(artifact.ContentType))
	tmpPath, err := s.writeTemp(artifact)
	if err != nil {
		return driven.SaveResult{}, err
	}
	defer os.Remove(tmpPath) //nolint:errcheck // gone after rename

	if !overwrite {
		written, err := s.link(tmpPath, target)
		if err != nil {
			return driven.SaveResult{}, err
		}
		return driven.SaveResult{Path: target, Written: written}, nil
	}

	if err := os.Rename(tmpPath, target); err != nil {
		return driven.SaveResult{}, fmt.Errorf("replacing raw artifact: %w", err)
	}
	for _, stale := range existing {
		if stale != target {
			if err := os.Remove(stale); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return driven.SaveResult{}, fmt.Errorf("removing stale raw artifact: %w", err)
			}
		}
	}
	return driven.SaveResult{Path: target, Written: true}, nil
}

func (s *Store) writeTemp(artifact *domain.RawArtifact) (string, error) {
	f, err := os.CreateTemp(s.root, "."+artifact.Identifier.String()+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := f.Write(artifact.Content); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("syncing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("closing temp file: %w", err)
	}
	return f.Name(), nil
}

// link publishes tmpPath at target unless target already exists.
func (s *Store) link(tmpPath, target string) (bool, error) {
	err := os.Link(tmpPath, target)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrExist):
		return false, nil
	}
	// Filesystems without hard links fall back to check-then-rename.
	if _, statErr := os.Stat(target); statErr == nil {
		return false, nil
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return false, fmt.Errorf("publishing raw artifact: %w", err)
	}
	return true, nil
}

// matches returns the stored files for an identifier, sorted.
func (s *Store) matches(id domain.Identifier) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(s.root, id.String()+".*"))
	if err != nil {
		return nil, fmt.Errorf("listing raw artifacts: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}

// Find returns the stored artifact for id.
func (s *Store) Find(_ context.Context, id domain.Identifier) (*domain.StoredArtifact, error) {
	if !id.IsValid() {
		return nil, domain.ErrNotFound
	}
	paths, err := s.matches(id)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, domain.ErrNotFound
	}
	info, err := os.Stat(paths[0])
	if err != nil {
		return nil, fmt.Errorf("stat raw artifact: %w", err)
	}
	return &domain.StoredArtifact{
		Identifier: id,
		Path:       paths[0],
		Size:       info.Size(),
		ModTime:    info.ModTime(),
	}, nil
}

// Stats counts stored artifacts and their total size. Temp files are ignored.
func (s *Store) Stats(_ context.Context) (int, int64, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("reading raw directory: %w", err)
	}
	var count int
	var size int64
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		count++
		size += info.Size()
	}
	return count, size, nil
}
