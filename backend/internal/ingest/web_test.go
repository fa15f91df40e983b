package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"truthgraph/backend/internal/models"
)

const samplePage = `<!DOCTYPE html>
<html>
<head><title>Gravitational Waves - Overview</title><script>var x = 1;</script></head>
<body>
<nav>Home | About</nav>
<article>
<h1>Gravitational Waves</h1>
<p>Ripples in spacetime predicted by general relativity.</p>
<p>First directly observed by LIGO in 2015.</p>
</article>
<footer>copyright</footer>
</body>
</html>`

func TestFetchContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla")
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	rc, err := NewWebFetcher().FetchContext(context.Background(), srv.URL, "user-1")
	require.NoError(t, err)

	assert.Equal(t, "Gravitational Waves - Overview", rc.Title)
	assert.Equal(t, models.ContextWebResource, rc.Type)
	assert.Equal(t, "user-1", rc.UploadedBy)
	assert.Contains(t, rc.Content, "Ripples in spacetime")
	assert.Contains(t, rc.Content, "LIGO")
	assert.NotContains(t, rc.Content, "var x = 1")
	assert.NotContains(t, rc.Content, "Home | About")
	assert.Equal(t, srv.URL, rc.Metadata["url"])
}

func TestFetchContextNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewWebFetcher().FetchContext(context.Background(), srv.URL, "user-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestFetchContextEmptyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body></body></html>"))
	}))
	defer srv.Close()

	_, err := NewWebFetcher().FetchContext(context.Background(), srv.URL, "user-1")
	assert.Error(t, err)
}

func TestFetchContextTruncatesLongPages(t *testing.T) {
	long := "<html><head><title>Long</title></head><body><article><p>" +
		strings.Repeat("dark matter halo density profiles ", 2000) +
		"</p></article></body></html>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(long))
	}))
	defer srv.Close()

	rc, err := NewWebFetcher().FetchContext(context.Background(), srv.URL, "user-1")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(rc.Content), maxContentLength)
}
