package lindt

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
)

// ResourceMediaType is the media type requested for definition resources.
const ResourceMediaType = "application/javascript"

// HTTPFetcher fetches definition resources over HTTP(S) and from local files.
// Redirects are followed and HTTP caching is disabled.
type HTTPFetcher struct {
	// Client performs requests. Nil uses http.DefaultClient.
	Client *http.Client
	// MaxBytes limits the resource size. Zero means unlimited.
	MaxBytes int64
}

// Fetch retrieves the resource at resourceURL. URLs with the file scheme and
// plain paths are read from local storage.
func (f *HTTPFetcher) Fetch(ctx context.Context, resourceURL string) ([]byte, error) {
	u, err := url.Parse(resourceURL)
	if err != nil {
		return nil, fmt.Errorf("malformed resource URL: %w", err)
	}
	switch u.Scheme {
	case "http", "https":
		return f.fetchHTTP(ctx, u)
	case "file":
		return f.readFile(u.Path)
	case "":
		return f.readFile(resourceURL)
	default:
		return nil, fmt.Errorf("unsupported resource URL scheme %q", u.Scheme)
	}
}

func (f *HTTPFetcher) fetchHTTP(ctx context.Context, u *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", ResourceMediaType)
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected HTTP status %s", resp.Status)
	}
	return f.readAll(resp.Body)
}

func (f *HTTPFetcher) readFile(path string) ([]byte, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return f.readAll(file)
}

func (f *HTTPFetcher) readAll(r io.Reader) ([]byte, error) {
	if f.MaxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, f.MaxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > f.MaxBytes {
		return nil, fmt.Errorf("resource exceeds %d bytes", f.MaxBytes)
	}
	return data, nil
}
