package fetch

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/policyledger/fedledger/internal/core/domain"
	"github.com/policyledger/fedledger/internal/core/ports/driven"
)

// Cache stores successful responses on disk, keyed by URL hash.
type Cache struct {
	dir string
}

type cacheMeta struct {
	URL         string    `json:"url"`
	ContentType string    `json:"content_type"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// NewCache returns a cache in dir. The directory is created by the first Put.
func NewCache(dir string) (*Cache, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty cache directory", domain.ErrInvalidInput)
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) paths(url string) (body, meta string) {
	sum := sha256.Sum256([]byte(url))
	name := hex.EncodeToString(sum[:])
	return filepath.Join(c.dir, name+".cache"), filepath.Join(c.dir, name+".json")
}

// Get returns the cached response for url. Unreadable entries are misses.
func (c *Cache) Get(url string) (*driven.FetchResult, bool) {
	bodyPath, metaPath := c.paths(url)
	raw, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, false
	}
	var meta cacheMeta
	if err := json.Unmarshal(raw, &meta); err != nil || meta.URL != url {
		return nil, false
	}
	body, err := os.ReadFile(bodyPath)
	if err != nil {
		return nil, false
	}
	return &driven.FetchResult{Content: body, ContentType: meta.ContentType, FetchedAt: meta.FetchedAt}, true
}

// Put stores a response. The body is published before its metadata so a
// reader never sees metadata without a body.
func (c *Cache) Put(url string, result *driven.FetchResult) error {
	bodyPath, metaPath := c.paths(url)
	meta, err := json.Marshal(cacheMeta{URL: url, ContentType: result.ContentType, FetchedAt: result.FetchedAt})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	if err := writeAtomic(c.dir, bodyPath, result.Content); err != nil {
		return err
	}
	return writeAtomic(c.dir, metaPath, meta)
}

func writeAtomic(dir, path string, data []byte) error {
	f, err := os.CreateTemp(dir, ".cache-*.tmp")
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return err
	}
	if err := os.Rename(f.Name(), path); err != nil {
		os.Remove(f.Name())
		return err
	}
	return nil
}
