// Package discovery lists the inputs of a batch from a source directory.
//
// By default every file matching the glob pattern (default "*.html") is an
// input, identified by its file:// location. When the directory holds a
// manifest.yaml, the manifest is used instead; it maps local files and
// remote URLs to canonical source URLs:
//
//	documents:
//	  - file: monetary20240131a.htm
//	    url: https://www.federalreserve.gov/newsevents/pressreleases/monetary20240131a.htm
//	    type: statement
//	  - url: https://www.federalreserve.gov/newsevents/speech/powell20240308a.htm
//	    type: speech
package discovery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/policyledger/fedledger/internal/core/domain"
	"github.com/policyledger/fedledger/internal/core/ports/driven"
)

const (
	// DefaultPattern matches saved web pages.
	DefaultPattern = "*.html"

	// ManifestFile is the manifest name looked up in the source directory.
	ManifestFile = "manifest.yaml"
)

// Ensure Discoverer implements the interface.
var _ driven.SourceDiscoverer = (*Discoverer)(nil)

// Manifest is the on-disk manifest format.
type Manifest struct {
	Documents []ManifestEntry `yaml:"documents"`
}

// ManifestEntry names one input. At least one of File and URL is set.
type ManifestEntry struct {
	File string `yaml:"file,omitempty"`
	URL  string `yaml:"url,omitempty"`
	Type string `yaml:"type,omitempty"`
}

// Discoverer implements driven.SourceDiscoverer over the local filesystem.
type Discoverer struct{}

// New creates a discoverer.
func New() *Discoverer {
	return &Discoverer{}
}

// Discover lists the references for opts.Dir in a stable order.
func (d *Discoverer) Discover(ctx context.Context, opts driven.DiscoverOptions) ([]domain.SourceRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir, err := filepath.Abs(opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("%w: source directory %q: %v", domain.ErrInvalidInput, opts.Dir, err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: source directory %q: %v", domain.ErrInvalidInput, opts.Dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: source %q is not a directory", domain.ErrInvalidInput, opts.Dir)
	}

	manifest, err := LoadManifest(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}
	if manifest != nil {
		return fromManifest(dir, manifest, opts.DocType)
	}
	return fromGlob(dir, opts.Pattern)
}

// LoadManifest reads a manifest. A missing file yields nil.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: manifest %s: %v", domain.ErrInvalidInput, path, err)
	}
	return &m, nil
}

func fromGlob(dir, pattern string) ([]domain.SourceRef, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("%w: pattern %q: %v", domain.ErrInvalidInput, pattern, err)
	}
	sort.Strings(matches)

	refs := make([]domain.SourceRef, 0, len(matches))
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		loc, err := domain.FileLocation(path)
		if err != nil {
			return nil, err
		}
		refs = append(refs, domain.SourceRef{Location: loc, Path: path})
	}
	return refs, nil
}

// fromManifest keeps manifest order. Entries typed for another document
// type are dropped.
func fromManifest(dir string, m *Manifest, want domain.DocumentType) ([]domain.SourceRef, error) {
	refs := make([]domain.SourceRef, 0, len(m.Documents))
	for i, e := range m.Documents {
		if e.File == "" && e.URL == "" {
			return nil, fmt.Errorf("%w: manifest entry %d has neither file nor url", domain.ErrInvalidInput, i+1)
		}

		var ref domain.SourceRef
		if e.Type != "" {
			ref.DocType = domain.ParseDocumentType(e.Type)
			if !ref.DocType.IsValid() {
				return nil, fmt.Errorf("%w: manifest entry %d: unknown type %q", domain.ErrInvalidInput, i+1, e.Type)
			}
			if want != "" && ref.DocType != want {
				continue
			}
		}

		if e.File != "" {
			path := e.File
			if !filepath.IsAbs(path) {
				path = filepath.Join(dir, path)
			}
			ref.Path = path
		}
		switch {
		case e.URL != "":
			ref.Location = e.URL
		default:
			loc, err := domain.FileLocation(ref.Path)
			if err != nil {
				return nil, err
			}
			ref.Location = loc
		}
		refs = append(refs, ref)
	}
	return refs, nil
}
