package fetch

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/policyledger/fedledger/internal/core/ports/driven"
)

// Ensure FileFetcher implements the interface.
var _ driven.Fetcher = (*FileFetcher)(nil)

// FileFetcher reads local files given as paths or file:// URLs.
type FileFetcher struct {
	now func() time.Time
}

// NewFileFetcher creates a local file fetcher.
func NewFileFetcher() *FileFetcher {
	return &FileFetcher{now: time.Now}
}

// Fetch reads the whole file.
func (f *FileFetcher) Fetch(ctx context.Context, location string) (*driven.FetchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := LocalPath(location)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return &driven.FetchResult{
		Content:     content,
		ContentType: ContentTypeFor(path, content),
		FetchedAt:   f.now().UTC(),
	}, nil
}

// LocalPath turns a path or file:// URL into a filesystem path.
func LocalPath(location string) (string, error) {
	if !strings.HasPrefix(location, "file:") {
		return location, nil
	}
	u, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("parsing %q: %w", location, err)
	}
	if u.Host != "" && u.Host != "localhost" {
		return "", fmt.Errorf("file location %q names a remote host", location)
	}
	if u.Path == "" {
		return "", fmt.Errorf("file location %q has no path", location)
	}
	return filepath.FromSlash(u.Path), nil
}

// ContentTypeFor derives a content type from the file extension, sniffing
// the content when the extension is unknown.
func ContentTypeFor(path string, content []byte) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); ct != "" {
		return ct
	}
	return http.DetectContentType(content)
}
