package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theopenlane/eushield/internal/cache"
	"github.com/theopenlane/eushield/internal/types"
)

func scrape(t *testing.T, handler http.Handler) string {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)

	return string(body)
}

func TestMetricsEndpoint(t *testing.T) {
	handler := newTestRouter(&mockAnalyzer{result: greenResult()}, cache.NewMemoryStore(), nil)

	postJSON(t, handler, "/api/analyze", AnalyzeRequest{URL: "https://example.de/"})
	postJSON(t, handler, "/api/analyze", AnalyzeRequest{URL: "https://example.de/impressum"})

	body := scrape(t, handler)

	assert.Contains(t, body, `eushield_analyses_total{status="green"} 1`)
	assert.Contains(t, body, `eushield_cache_lookups_total{result="miss"} 1`)
	assert.Contains(t, body, `eushield_cache_lookups_total{result="hit"} 1`)
	assert.Contains(t, body, "eushield_analysis_duration_seconds_count 1")
}

func TestMetricsEndpoint_Fallback(t *testing.T) {
	handler := newTestRouter(&mockAnalyzer{err: errBackendDown}, failingStore{}, nil)

	postJSON(t, handler, "/api/analyze", AnalyzeRequest{URL: "https://example.de/"})

	body := scrape(t, handler)

	assert.Contains(t, body, `eushield_analysis_fallbacks_total{reason="internal_error"} 1`)
	assert.Contains(t, body, `eushield_cache_lookups_total{result="error"} 1`)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *metrics

	assert.NotPanics(t, func() {
		m.observeLookup(lookupHit)
		m.observeAnalysis(types.StatusGreen, time.Now())
		m.observeFallback(reasonTimeout, time.Now())
	})
}
