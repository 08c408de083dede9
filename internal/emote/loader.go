package emote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	maxCatalogBytes  = 16 << 20
	defaultUserAgent = "EmoteRelay/1.0"
)

// ErrUnexpectedStatus is returned when a catalog endpoint answers with anything but 200.
var ErrUnexpectedStatus = errors.New("unexpected catalog response status")

// Loader fetches catalogs over HTTP. Retries and caching are left to the
// client's transport.
type Loader struct {
	Client    *http.Client
	Endpoints Endpoints
	UserAgent string
}

// NewLoader creates a Loader against the public catalog endpoints. A nil
// client gets a plain client with a 30 second timeout.
func NewLoader(client *http.Client) *Loader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Loader{
		Client:    client,
		Endpoints: DefaultEndpoints,
		UserAgent: defaultUserAgent,
	}
}

// Fetch issues one GET for the catalog and returns its normalized entries.
func (l *Loader) Fetch(ctx context.Context, c Catalog, identifier string) ([]Entry, error) {
	url, err := l.Endpoints.URL(c.Provider, c.Scope, identifier)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", url, err)
	}
	req.Header.Set("Accept", "application/json")
	if l.UserAgent != "" {
		req.Header.Set("User-Agent", l.UserAgent)
	}

	resp, err := l.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("%w %d from %s: %s", ErrUnexpectedStatus, resp.StatusCode, url, snippet)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	return c.Decode(body)
}
