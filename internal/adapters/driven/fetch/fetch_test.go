package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policyledger/fedledger/internal/core/domain"
	"github.com/policyledger/fedledger/internal/core/ports/driven"
)

func fastConfig() HTTPConfig {
	return HTTPConfig{
		UserAgent: "fedledger-test",
		Timeout:   5 * time.Second,
		Backoff:   time.Millisecond,
		MaxDelay:  5 * time.Millisecond,
	}
}

func TestFileFetcher_PathAndFileURL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "statement.html")
	require.NoError(t, os.WriteFile(path, []byte("<html><body>hi</body></html>"), 0o644))

	f := NewFileFetcher()
	for _, loc := range []string{path, "file://" + filepath.ToSlash(path)} {
		res, err := f.Fetch(context.Background(), loc)
		require.NoError(t, err, loc)
		assert.Equal(t, "<html><body>hi</body></html>", string(res.Content))
		assert.Contains(t, res.ContentType, "text/html")
		assert.False(t, res.FetchedAt.IsZero())
	}
}

func TestFileFetcher_SniffsUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.unknownext")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 body"), 0o644))

	res, err := NewFileFetcher().Fetch(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, "application/pdf", res.ContentType)
}

func TestFileFetcher_Errors(t *testing.T) {
	f := NewFileFetcher()

	_, err := f.Fetch(context.Background(), filepath.Join(t.TempDir(), "missing.html"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = f.Fetch(context.Background(), "file://remote.example/x.html")
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.Fetch(ctx, "/anything")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTTPFetcher_SendsUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	f, err := NewHTTPFetcher(fastConfig(), nil)
	require.NoError(t, err)

	res, err := f.Fetch(context.Background(), srv.URL+"/doc.htm")
	require.NoError(t, err)
	assert.Equal(t, "fedledger-test", gotUA)
	assert.Equal(t, "text/html; charset=utf-8", res.ContentType)
	assert.Equal(t, "<html></html>", string(res.Content))
}

func TestHTTPFetcher_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusServiceUnavailable)
		case 2:
			w.Header().Set(HeaderRetryAfter, "0")
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			_, _ = w.Write([]byte("ok"))
		}
	}))
	defer srv.Close()

	f, err := NewHTTPFetcher(fastConfig(), nil)
	require.NoError(t, err)

	res, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(res.Content))
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPFetcher_GivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := fastConfig()
	cfg.MaxRetries = 2
	f, err := NewHTTPFetcher(cfg, nil)
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), srv.URL)
	var status *StatusError
	require.ErrorAs(t, err, &status)
	assert.Equal(t, http.StatusBadGateway, status.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPFetcher_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f, err := NewHTTPFetcher(fastConfig(), nil)
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), srv.URL)
	var status *StatusError
	require.ErrorAs(t, err, &status)
	assert.False(t, status.Retryable())
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPFetcher_RetriesNetworkErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	cfg := fastConfig()
	cfg.MaxRetries = 1
	f, err := NewHTTPFetcher(cfg, nil)
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), url)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 2 attempts failed")
}

func TestHTTPFetcher_CanceledContextStops(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f, err := NewHTTPFetcher(fastConfig(), nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = f.Fetch(ctx, srv.URL)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestHTTPFetcher_Cache(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("cached body"))
	}))
	defer srv.Close()

	cfg := fastConfig()
	cfg.CacheDir = filepath.Join(t.TempDir(), "cache")
	f, err := NewHTTPFetcher(cfg, nil)
	require.NoError(t, err)

	first, err := f.Fetch(context.Background(), srv.URL+"/a")
	require.NoError(t, err)
	second, err := f.Fetch(context.Background(), srv.URL+"/a")
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, first.Content, second.Content)
	assert.Equal(t, "text/html", second.ContentType)
	assert.True(t, first.FetchedAt.Equal(second.FetchedAt))
}

func TestCache_IgnoresCorruptEntries(t *testing.T) {
	c, err := NewCache(t.TempDir())
	require.NoError(t, err)
	_, meta := c.paths("https://x.test/a")
	require.NoError(t, os.WriteFile(meta, []byte("{not json"), 0o644))

	_, ok := c.Get("https://x.test/a")
	assert.False(t, ok)
}

func TestCache_CreatesDirOnPut(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	c, err := NewCache(dir)
	require.NoError(t, err)

	_, ok := c.Get("https://x.test/a")
	assert.False(t, ok)
	assert.NoDirExists(t, dir)

	require.NoError(t, c.Put("https://x.test/a", &driven.FetchResult{Content: []byte("<html/>"), ContentType: "text/html"}))
	got, ok := c.Get("https://x.test/a")
	require.True(t, ok)
	assert.Equal(t, "<html/>", string(got.Content))
}

func TestRetryAfter(t *testing.T) {
	now := time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC)
	resp := func(v string) *http.Response {
		h := http.Header{}
		if v != "" {
			h.Set(HeaderRetryAfter, v)
		}
		return &http.Response{Header: h}
	}

	assert.Equal(t, 5*time.Second, RetryAfter(resp("5"), now))
	assert.Equal(t, 30*time.Second, RetryAfter(resp(now.Add(30*time.Second).Format(http.TimeFormat)), now))
	assert.Zero(t, RetryAfter(resp(""), now))
	assert.Zero(t, RetryAfter(resp("soon"), now))
	assert.Zero(t, RetryAfter(resp("-1"), now))
	assert.Zero(t, RetryAfter(nil, now))
}

func TestRateLimiter_DeferBlocksUntilDeadline(t *testing.T) {
	r := NewRateLimiter(0)
	r.Defer(30 * time.Millisecond)

	start := time.Now()
	require.NoError(t, r.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	r.Defer(time.Hour)
	cancel()
	assert.ErrorIs(t, r.Wait(ctx), context.Canceled)
}

type stubFetcher struct {
	got []string
}

func (s *stubFetcher) Fetch(_ context.Context, location string) (*driven.FetchResult, error) {
	s.got = append(s.got, location)
	return &driven.FetchResult{Content: []byte(location)}, nil
}

func TestRouter_DispatchesByScheme(t *testing.T) {
	local, remote := &stubFetcher{}, &stubFetcher{}
	r := NewRouter(local, remote)
	ctx := context.Background()

	for _, loc := range []string{"/data/a.html", "file:///data/b.html", "relative/c.html"} {
		_, err := r.Fetch(ctx, loc)
		require.NoError(t, err)
	}
	for _, loc := range []string{"https://www.federalreserve.gov/a.htm", "HTTP://example.com/b"} {
		_, err := r.Fetch(ctx, loc)
		require.NoError(t, err)
	}

	assert.Len(t, local.got, 3)
	assert.Len(t, remote.got, 2)

	_, err := r.Fetch(ctx, "ftp://example.com/x")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = NewRouter(local, nil).Fetch(ctx, "https://example.com/x")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
