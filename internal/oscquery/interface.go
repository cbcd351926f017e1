package oscquery

import (
	"context"
	"net/http"
)

// Fetcher performs one round trip against the remote tree. Implementations
// do not retry.
type Fetcher interface {
	Fetch(ctx context.Context) (*Node, error)
}

// HTTPDoer is the subset of *http.Client the fetcher needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}
