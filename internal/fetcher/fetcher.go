// Package fetcher downloads remote data with per-host rate limiting and
// retry on transient failures.
package fetcher

import (
	"context"
	"io"

	"github.com/rotisserie/eris"
)

// ErrNotFound is returned when the remote resource does not exist (HTTP 404).
// Callers use it to distinguish "no such dataset version" from a transport
// failure.
var ErrNotFound = eris.New("fetcher: resource not found")

// Fetcher defines the interface for downloading remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}
