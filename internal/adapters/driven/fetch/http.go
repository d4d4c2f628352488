package fetch

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/policyledger/fedledger/internal/core/ports/driven"
	"github.com/policyledger/fedledger/internal/logger"
)

// Defaults for HTTPConfig fields left zero.
const (
	DefaultMaxRetries = 3
	DefaultBackoff    = 300 * time.Millisecond
	DefaultMaxDelay   = 30 * time.Second
	DefaultMaxBody    = 64 << 20
)

// Ensure HTTPFetcher implements the interface.
var _ driven.Fetcher = (*HTTPFetcher)(nil)

// StatusError is a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// HTTPConfig configures an HTTPFetcher.
type HTTPConfig struct {
	UserAgent         string
	Timeout           time.Duration
	MaxRetries        int
	Backoff           time.Duration
	MaxDelay          time.Duration
	RequestsPerSecond float64
	CacheDir          string

	// Client overrides the underlying client; Timeout is ignored when set.
	Client *http.Client
}

// HTTPFetcher fetches http and https locations.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	retries   int
	backoff   time.Duration
	maxDelay  time.Duration
	limiter   *RateLimiter
	cache     *Cache
	log       *logger.Logger
	now       func() time.Time
}

// NewHTTPFetcher creates an HTTP fetcher. A nil log discards output.
func NewHTTPFetcher(cfg HTTPConfig, log *logger.Logger) (*HTTPFetcher, error) {
	if log == nil {
		log = logger.NewNop()
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	} else if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultMaxDelay
	}

	f := &HTTPFetcher{
		client:    client,
		userAgent: cfg.UserAgent,
		retries:   cfg.MaxRetries,
		backoff:   cfg.Backoff,
		maxDelay:  cfg.MaxDelay,
		limiter:   NewRateLimiter(cfg.RequestsPerSecond),
		log:       log,
		now:       time.Now,
	}
	if cfg.CacheDir != "" {
		cache, err := NewCache(cfg.CacheDir)
		if err != nil {
			return nil, err
		}
		f.cache = cache
	}
	return f, nil
}

// Fetch GETs location, retrying transient failures.
func (f *HTTPFetcher) Fetch(ctx context.Context, location string) (*driven.FetchResult, error) {
	if f.cache != nil {
		if cached, ok := f.cache.Get(location); ok {
			f.log.Debug("fetch cache hit", logger.String("source_url", location))
			return cached, nil
		}
	}

	var lastErr error
	for attempt := 0; attempt <= f.retries; attempt++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		result, wait, transient, err := f.do(ctx, location)
		if err == nil {
			if f.cache != nil {
				if cerr := f.cache.Put(location, result); cerr != nil {
					f.log.Warn("fetch cache write failed", logger.String("source_url", location), logger.Err(cerr))
				}
			}
			return result, nil
		}
		lastErr = err
		if !transient || ctx.Err() != nil {
			return nil, err
		}
		if attempt == f.retries {
			break
		}

		delay := f.delay(attempt)
		if wait > delay {
			delay = wait
		}
		f.limiter.Defer(delay)
		f.log.Debug("fetch failed, retrying",
			logger.String("source_url", location),
			logger.Int("attempt", attempt+1),
			logger.Duration("next_delay", delay),
			logger.Err(err))
	}

	if f.retries == 0 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("all %d attempts failed: %w", f.retries+1, lastErr)
}

// do performs one attempt. transient marks failures worth retrying: any
// transport error, 429 and 5xx.
func (f *HTTPFetcher) do(ctx context.Context, location string) (
	result *driven.FetchResult, wait time.Duration, transient bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, 0, false, fmt.Errorf("building request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/pdf,*/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16)) //nolint:errcheck // draining for reuse
		status := &StatusError{URL: location, StatusCode: resp.StatusCode}
		return nil, RetryAfter(resp, f.now()), status.Retryable(), status
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, DefaultMaxBody+1))
	if err != nil {
		return nil, 0, true, fmt.Errorf("reading body: %w", err)
	}
	if len(body) > DefaultMaxBody {
		return nil, 0, false, fmt.Errorf("body of %s exceeds %d bytes", location, DefaultMaxBody)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	return &driven.FetchResult{
		Content:     body,
		ContentType: contentType,
		FetchedAt:   f.now().UTC(),
	}, 0, false, nil
}

// delay is backoff * 2^attempt, capped at maxDelay.
func (f *HTTPFetcher) delay(attempt int) time.Duration {
	d := float64(f.backoff) * math.Pow(2, float64(attempt))
	if d > float64(f.maxDelay) {
		return f.maxDelay
	}
	return time.Duration(d)
}
