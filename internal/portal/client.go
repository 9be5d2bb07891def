// Package portal is the client for the upstream open-data portal that
// publishes the immunization datasets: version discovery via the migrations
// endpoint and paged content reads via the resource endpoint.
package portal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vaxsource/immunize-cli/internal/config"
	"github.com/vaxsource/immunize-cli/internal/fetcher"
)

// Entry is one raw row of dataset content. Field names are source-defined;
// values may be absent or blank.
type Entry = map[string]any

// API is the upstream dataset boundary used by the scanner and the sourcing
// engine.
type API interface {
	// LatestUID resolves the newest uid reachable from uid through the
	// portal's migration chain. changed is false when uid is already current.
	LatestUID(ctx context.Context, uid string) (latest string, changed bool, err error)

	// Content streams every entry of the identified dataset release, in
	// upstream order. Both channels are closed when the stream ends; a
	// non-nil value on the error channel means the stream is incomplete.
	Content(ctx context.Context, uid string) (<-chan Entry, <-chan error)
}

// maxMigrationHops bounds the uid chain walk so a cyclic migration record
// upstream cannot hang the scanner.
const maxMigrationHops = 32

// Client talks to a Socrata-style portal over HTTP.
type Client struct {
	base     string
	pageSize int
	f        fetcher.Fetcher
}

// NewClient creates a portal client from configuration.
func NewClient(cfg config.PortalConfig, f fetcher.Fetcher) *Client {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 1000
	}
	return &Client{
		base:     cfg.BaseURL,
		pageSize: pageSize,
		f:        f,
	}
}

type migrationResponse struct {
	ToDataset string `json:"toDataset"`
}

// LatestUID walks the migration chain starting at uid. A 404 from the
// migrations endpoint means no newer version has been published.
func (c *Client) LatestUID(ctx context.Context, uid string) (string, bool, error) {
	cur := uid
	changed := false

	for range maxMigrationHops {
		body, err := c.f.Download(ctx, fmt.Sprintf("%s/api/migrations/%s.json", c.base, cur))
		if errors.Is(err, fetcher.ErrNotFound) {
			return cur, changed, nil
		}
		if err != nil {
			return "", false, eris.Wrapf(err, "portal: check migrations for %s", cur)
		}

		var m migrationResponse
		decErr := json.NewDecoder(body).Decode(&m)
		_ = body.Close()
		if decErr != nil {
			return "", false, eris.Wrapf(decErr, "portal: decode migration for %s", cur)
		}

		if m.ToDataset == "" || m.ToDataset == cur {
			return cur, changed, nil
		}
		cur = m.ToDataset
		changed = true
	}

	return "", false, eris.Errorf("portal: migration chain for %s exceeds %d hops", uid, maxMigrationHops)
}

// Content pages through the resource endpoint and streams entries.
func (c *Client) Content(ctx context.Context, uid string) (<-chan Entry, <-chan error) {
	out := make(chan Entry, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		log := zap.L().With(zap.String("component", "portal"), zap.String("uid", uid))
		offset := 0

		for {
			url := fmt.Sprintf("%s/resource/%s.json?$limit=%d&$offset=%d", c.base, uid, c.pageSize, offset)
			body, err := c.f.Download(ctx, url)
			if err != nil {
				errCh <- eris.Wrapf(err, "portal: fetch content page at offset %d for %s", offset, uid)
				return
			}

			n, err := streamEntries(ctx, body, out)
			_ = body.Close()
			if err != nil {
				errCh <- eris.Wrapf(err, "portal: decode content page at offset %d for %s", offset, uid)
				return
			}

			offset += n
			if n < c.pageSize {
				log.Debug("content stream complete", zap.Int("entries", offset))
				return
			}
		}
	}()

	return out, errCh
}

// streamEntries decodes one JSON array page element by element, sending each
// entry downstream. Returns the number of entries decoded.
func streamEntries(ctx context.Context, r io.Reader, out chan<- Entry) (int, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return 0, nil
		}
		return 0, eris.Wrap(err, "read opening token")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return 0, eris.Errorf("expected '[', got %v", tok)
	}

	n := 0
	for dec.More() {
		var e Entry
		if err := dec.Decode(&e); err != nil {
			return n, eris.Wrap(err, "decode entry")
		}
		select {
		case out <- e:
		case <-ctx.Done():
			return n, ctx.Err()
		}
		n++
	}

	if _, err := dec.Token(); err != nil && err != io.EOF {
		return n, eris.Wrap(err, "read closing token")
	}
	return n, nil
}
