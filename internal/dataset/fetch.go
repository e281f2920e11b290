package dataset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	nxerrors "nxmeta/internal/errors"
)

// DefaultFetchTimeout bounds a single HTTP bundle request.
const DefaultFetchTimeout = 30 * time.Second

// Fetcher reads a bundle by its slash-separated path relative to the data
// root. A missing bundle is reported with code NOT_FOUND.
type Fetcher interface {
	Fetch(ctx context.Context, rel string) ([]byte, error)
	// Location describes where rel would be read from, for messages.
	Location(rel string) string
}

// NewFetcher picks an HTTP fetcher for http(s) roots and a directory
// fetcher otherwise.
func NewFetcher(root string) Fetcher {
	if strings.HasPrefix(root, "http://") || strings.HasPrefix(root, "https://") {
		return NewHTTPFetcher(root, nil)
	}
	return DirFetcher{Root: root}
}

// DirFetcher reads bundles from a local directory tree.
type DirFetcher struct {
	Root string
}

// Fetch reads Root/rel.
func (d DirFetcher) Fetch(ctx context.Context, rel string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := d.Location(rel)
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nxerrors.New(nxerrors.NotFound, p, err)
		}
		return nil, nxerrors.New(nxerrors.FetchFailed, "reading "+p, err)
	}
	return data, nil
}

func (d DirFetcher) Location(rel string) string {
	return filepath.Join(d.Root, filepath.FromSlash(rel))
}

// HTTPFetcher GETs bundles below a base URL. There is no retry; any
// non-2xx status fails the fetch.
type HTTPFetcher struct {
	base   string
	client *http.Client
}

// NewHTTPFetcher uses client, or a client with DefaultFetchTimeout when nil.
func NewHTTPFetcher(base string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: DefaultFetchTimeout}
	}
	return &HTTPFetcher{base: strings.TrimRight(base, "/"), client: client}
}

func (h *HTTPFetcher) Location(rel string) string {
	u, err := url.Parse(h.base)
	if err != nil {
		return h.base + "/" + rel
	}
	u.Path = path.Join(u.Path, rel)
	return u.String()
}

// Fetch performs GET base/rel.
func (h *HTTPFetcher) Fetch(ctx context.Context, rel string) ([]byte, error) {
	loc := h.Location(rel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc, nil)
	if err != nil {
		return nil, nxerrors.New(nxerrors.FetchFailed, "building request for "+loc, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, nxerrors.New(nxerrors.FetchFailed, "GET "+loc, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nxerrors.New(nxerrors.NotFound, loc, nil)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nxerrors.New(nxerrors.FetchFailed, fmt.Sprintf("GET %s: status %d", loc, resp.StatusCode), nil)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nxerrors.New(nxerrors.FetchFailed, "reading body of "+loc, err)
	}
	return data, nil
}
