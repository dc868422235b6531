package lindt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcher_Headers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, ResourceMediaType, r.Header.Get("Accept"))
		assert.Equal(t, "no-cache", r.Header.Get("Cache-Control"))
		assert.Equal(t, "no-cache", r.Header.Get("Pragma"))
		w.Header().Set("Content-Type", ResourceMediaType)
		_, _ = w.Write([]byte("function getDatatype(uri) { return null; }"))
	}))
	defer srv.Close()

	data, err := (&HTTPFetcher{}).Fetch(context.Background(), srv.URL+"/units.js")
	require.NoError(t, err)
	assert.Contains(t, string(data), "getDatatype")
}

func TestHTTPFetcher_FollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old.js", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new.js", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new.js", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("moved"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	data, err := (&HTTPFetcher{Client: srv.Client()}).Fetch(context.Background(), srv.URL+"/old.js")
	require.NoError(t, err)
	assert.Equal(t, "moved", string(data))
}

func TestHTTPFetcher_Failures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/big.js" {
			_, _ = w.Write([]byte(strings.Repeat("x", 2048)))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := &HTTPFetcher{MaxBytes: 1024}
	_, err := f.Fetch(context.Background(), srv.URL+"/missing.js")
	assert.ErrorContains(t, err, "404")

	_, err = f.Fetch(context.Background(), srv.URL+"/big.js")
	assert.ErrorContains(t, err, "exceeds")

	_, err = f.Fetch(context.Background(), "ftp://example.org/units.js")
	assert.ErrorContains(t, err, "unsupported")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.Fetch(ctx, srv.URL+"/big.js")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTTPFetcher_LocalFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "units.js")
	require.NoError(t, os.WriteFile(path, []byte("local"), 0o600))

	f := &HTTPFetcher{}
	data, err := f.Fetch(context.Background(), "file://"+path)
	require.NoError(t, err)
	assert.Equal(t, "local", string(data))

	data, err = f.Fetch(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "local", string(data))

	_, err = f.Fetch(context.Background(), "file://"+path+".missing")
	assert.Error(t, err)
}
