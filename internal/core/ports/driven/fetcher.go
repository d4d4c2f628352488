package driven

import (
	"context"
	"time"
)

// Fetcher retrieves the bytes behind a location (local path or URL).
type Fetcher interface {
	Fetch(ctx context.Context, location string) (*FetchResult, error)
}

// FetchResult is the content retrieved for one location.
type FetchResult struct {
	Content     []byte
	ContentType string
	FetchedAt   time.Time
}
