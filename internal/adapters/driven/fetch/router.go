package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/policyledger/fedledger/internal/core/domain"
	"github.com/policyledger/fedledger/internal/core/ports/driven"
)

// Ensure Router implements the interface.
var _ driven.Fetcher = (*Router)(nil)

// Router dispatches fetches by scheme. Locations without a scheme are
// local paths.
type Router struct {
	schemes map[string]driven.Fetcher
}

// NewRouter routes file locations to local and http(s) to remote. A nil
// remote rejects URLs.
func NewRouter(local, remote driven.Fetcher) *Router {
	r := &Router{schemes: map[string]driven.Fetcher{"file": local}}
	if remote != nil {
		r.schemes["http"] = remote
		r.schemes["https"] = remote
	}
	return r
}

// Fetch forwards to the fetcher registered for the location's scheme.
func (r *Router) Fetch(ctx context.Context, location string) (*driven.FetchResult, error) {
	scheme := "file"
	if i := strings.Index(location, "://"); i > 0 {
		u, err := url.Parse(location)
		if err != nil {
			return nil, &domain.InvalidInputError{Location: location, Reason: err.Error()}
		}
		scheme = strings.ToLower(u.Scheme)
	}

	f, ok := r.schemes[scheme]
	if !ok || f == nil {
		return nil, fmt.Errorf("%w: no fetcher for scheme %q", domain.ErrInvalidInput, scheme)
	}
	return f.Fetch(ctx, location)
}
