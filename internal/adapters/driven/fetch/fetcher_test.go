package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch_HTTP(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer srv.Close()

	f := New(Config{RequestsPerSecond: 100})
	body, finalURL, err := f.Fetch(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Contains(t, string(body), "hello")
	assert.Equal(t, srv.URL, finalURL)
	assert.Equal(t, DefaultUserAgent, gotUA)
}

func TestFetch_FollowsRedirects(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/old" {
			http.Redirect(w, r, "/new", http.StatusMovedPermanently)
			return
		}
		w.Write([]byte("landed"))
	}))
	defer srv.Close()

	f := New(Config{RequestsPerSecond: 100})
	body, finalURL, err := f.Fetch(context.Background(), srv.URL+"/old")

	require.NoError(t, err)
	assert.Contains(t, string(body), "landed")
	assert.Equal(t, srv.URL+"/new", finalURL)
}

func TestFetch_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := New(Config{RequestsPerSecond: 100})
	_, _, err := f.Fetch(context.Background(), srv.URL)

	assert.ErrorContains(t, err, "status 404")
}

func TestFetch_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte("<html><body>local</body></html>"), 0600))

	f := New(Config{})

	body, finalURL, err := f.Fetch(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, string(body), "local")
	assert.Equal(t, path, finalURL)

	body, _, err = f.Fetch(context.Background(), "file://"+path)
	require.NoError(t, err)
	assert.Contains(t, string(body), "local")
}

func TestFetch_MissingLocalFile(t *testing.T) {
	f := New(Config{})

	_, _, err := f.Fetch(context.Background(), "file:///no/such/file.html")

	assert.Error(t, err)
}
