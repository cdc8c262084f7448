package compliance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcher_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/html", r.Header.Get("Accept"))

		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body>" + strings.Repeat("a", 64) + "</body></html>"))
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(server.Client(), 0)

	resp, err := fetcher.Fetch(context.Background(), server.URL+"/impressum")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.ContentType)
	assert.Contains(t, string(resp.Body), strings.Repeat("a", 64))

	resp, err = fetcher.Fetch(context.Background(), server.URL+"/missing")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHTTPFetcher_LimitsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(strings.Repeat("x", 4096)))
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(server.Client(), 100)

	resp, err := fetcher.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Len(t, resp.Body, 100)
}

func TestHTTPFetcher_Cancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHTTPFetcher(server.Client(), 0).Fetch(ctx, server.URL)
	assert.Error(t, err)
}

func TestBoundedBuffer(t *testing.T) {
	b := &boundedBuffer{limit: 5}

	n, err := b.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = b.Write([]byte("defgh"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = b.Write([]byte("ijk"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	assert.Equal(t, "abcde", b.String())
}
